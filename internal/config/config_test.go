package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	s, err := Load()
	require.NoError(t, err)

	require.NotEmpty(t, s.DBPath)
	require.InDelta(t, 0.9, s.DedupeThreshold, 1e-9)
	require.True(t, s.Policy.S1)
	require.True(t, s.Policy.S2)
	require.False(t, s.Policy.S3)
	require.True(t, s.Tiers.Under.Enabled)
	require.Equal(t, 400, s.Tiers.Under.TimeoutMS)
	require.Equal(t, 800, s.Tiers.Core.TimeoutMS)
	require.Equal(t, 1600, s.Tiers.Over.TimeoutMS)
	require.Equal(t, "calm", s.Mood)
	require.False(t, s.WriteRequiresConfirmation)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	yaml := `db_path: /tmp/custom.db
dedupe_threshold: 0.8
ai:
  s2: false
  tiers:
    core:
      enabled: false
      timeout_ms: 500
persona:
  mood: focused
  write_requires_confirmation: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "knowbridge.yaml"), []byte(yaml), 0o644))

	s, err := Load()
	require.NoError(t, err)

	require.Equal(t, "/tmp/custom.db", s.DBPath)
	require.InDelta(t, 0.8, s.DedupeThreshold, 1e-9)
	require.False(t, s.Policy.S2)
	require.True(t, s.Policy.S1)
	require.False(t, s.Tiers.Core.Enabled)
	require.Equal(t, 500, s.Tiers.Core.TimeoutMS)
	require.Equal(t, "focused", s.Mood)
	require.True(t, s.WriteRequiresConfirmation)
}

func TestEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("KNOWBRIDGE_BRIDGE_KEY", "secret")

	s, err := Load()
	require.NoError(t, err)
	require.Equal(t, "secret", s.BridgeKey)
}
