// Package config loads bridge settings from a config file and environment
// variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/tkoester/knowbridge/internal/brain"
)

// Settings holds everything the binaries need to wire a bridge.
type Settings struct {
	DBPath          string
	BridgeKey       string
	DedupeThreshold float64

	Policy brain.Policy
	Tiers  brain.TierSet

	Mood                      string
	WriteRequiresConfirmation bool
	TimelinePath              string
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "knowbridge.db"
	}
	return filepath.Join(home, ".knowbridge", "knowbridge.db")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("bridge_key", "")
	v.SetDefault("dedupe_threshold", 0.9)

	v.SetDefault("ai.s1", true)
	v.SetDefault("ai.s2", true)
	v.SetDefault("ai.s3", false)

	v.SetDefault("ai.tiers.under.enabled", true)
	v.SetDefault("ai.tiers.under.timeout_ms", 400)
	v.SetDefault("ai.tiers.under.allow_external", false)
	v.SetDefault("ai.tiers.core.enabled", true)
	v.SetDefault("ai.tiers.core.timeout_ms", 800)
	v.SetDefault("ai.tiers.core.allow_external", false)
	v.SetDefault("ai.tiers.over.enabled", true)
	v.SetDefault("ai.tiers.over.timeout_ms", 1600)
	v.SetDefault("ai.tiers.over.allow_external", false)

	v.SetDefault("persona.mood", "calm")
	v.SetDefault("persona.write_requires_confirmation", false)
	v.SetDefault("persona.timeline_path", "")
}

func tier(v *viper.Viper, name string) brain.TierConfig {
	prefix := "ai.tiers." + name + "."
	return brain.TierConfig{
		Enabled:       v.GetBool(prefix + "enabled"),
		TimeoutMS:     v.GetInt(prefix + "timeout_ms"),
		AllowExternal: v.GetBool(prefix + "allow_external"),
	}
}

// Load reads knowbridge.yaml from the working directory or
// ~/.config/knowbridge, overlaid with KNOWBRIDGE_* environment variables. A
// missing config file is fine; defaults apply.
func Load() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("knowbridge")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "knowbridge"))
	}
	v.SetEnvPrefix("knowbridge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Settings{
		DBPath:          v.GetString("db_path"),
		BridgeKey:       v.GetString("bridge_key"),
		DedupeThreshold: v.GetFloat64("dedupe_threshold"),
		Policy: brain.Policy{
			S1: v.GetBool("ai.s1"),
			S2: v.GetBool("ai.s2"),
			S3: v.GetBool("ai.s3"),
		},
		Tiers: brain.TierSet{
			Under: tier(v, "under"),
			Core:  tier(v, "core"),
			Over:  tier(v, "over"),
		},
		Mood:                      v.GetString("persona.mood"),
		WriteRequiresConfirmation: v.GetBool("persona.write_requires_confirmation"),
		TimelinePath:              v.GetString("persona.timeline_path"),
	}, nil
}
