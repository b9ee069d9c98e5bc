package actions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tkoester/knowbridge/internal/brain"
	"github.com/tkoester/knowbridge/internal/store"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	d := NewDispatcher(Config{
		Store: st,
		Brain: brain.New(nil),
		Tiers: brain.DefaultTiers(),
		Mood:  func() string { return "calm" },
	})
	return d, st
}

func auditCount(t *testing.T, st store.Store) int {
	t.Helper()
	audits, err := st.RecentAudits(context.Background(), 100)
	require.NoError(t, err)
	return len(audits)
}

func TestDispatchUnknownCommand(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "memory.forget", nil, Options{})
	require.ErrorIs(t, err, ErrUnknownCommand)

	// The failed dispatch still leaves exactly one audit row.
	audits, err := st.RecentAudits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, "memory.forget", audits[0].Action)
	require.Contains(t, audits[0].Result, "error")
	require.Equal(t, "calm", audits[0].Mood)
}

func TestDispatchValidationFailureIsAudited(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	_, err := d.Dispatch(ctx, "memory.tag", map[string]any{"tags": []any{"x"}}, Options{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "memory.tag", verr.Command)
	require.Equal(t, 1, auditCount(t, st))
}

func TestMemoryAddDedupesBatch(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	text := "Der Wald war still und dunkel am Morgen."
	result, err := d.Dispatch(ctx, "memory.add", map[string]any{
		"source": "journal",
		"texts":  []any{text, text, "Mittags gab es Suppe im Garten."},
	}, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, result["added"])

	// The exact repeat is stored but marked as a duplicate of the first.
	dup, err := st.GetChunk(ctx, 2)
	require.NoError(t, err)
	require.EqualValues(t, 1, dup.Meta["dup_of"])

	master, err := st.GetChunk(ctx, 1)
	require.NoError(t, err)
	require.NotContains(t, master.Meta, "dup_of")
}

func TestMemoryTag(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	id, err := st.InsertChunk(ctx, store.InsertChunkParams{Source: "journal", Text: "Notiz"})
	require.NoError(t, err)

	result, err := d.Dispatch(ctx, "memory.tag", map[string]any{
		"chunk_id": float64(id),
		"tags":     []any{"natur", "ruhe"},
	}, Options{})
	require.NoError(t, err)
	require.Equal(t, 2, result["linked"])
}

func TestMemoryTagUnknownChunk(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "memory.tag", map[string]any{
		"chunk_id": float64(9999),
		"tags":     []any{"x"},
	}, Options{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGameFlow(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	created, err := d.Dispatch(ctx, "game.new", map[string]any{"kind": "echo"}, Options{})
	require.NoError(t, err)
	sessionID, ok := created["session_id"].(int64)
	require.True(t, ok)

	chosen, err := d.Dispatch(ctx, "game.choose", map[string]any{
		"session_id": float64(sessionID),
		"choice":     "links",
	}, Options{})
	require.NoError(t, err)

	state, ok := chosen["state"].(map[string]any)
	require.True(t, ok)
	entries, ok := state["log"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
}

func TestGameChooseUnknownSession(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "game.choose", map[string]any{
		"session_id": float64(41),
		"choice":     "links",
	}, Options{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestJournalPromptThemes(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		args  map[string]any
		theme string
	}{
		{"default", nil, "daily"},
		{"focus", map[string]any{"theme": "focus"}, "focus"},
		{"unknown falls back to daily prompts", map[string]any{"theme": "space"}, "space"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := d.Dispatch(ctx, "journal.prompt", tt.args, Options{})
			require.NoError(t, err)
			require.Equal(t, tt.theme, result["theme"])
			prompts, ok := result["prompts"].([]any)
			require.True(t, ok)
			require.NotEmpty(t, prompts)
		})
	}
}

func TestSummarizeAuditsChosenTier(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	result, err := d.Dispatch(ctx, "journal.summarize", map[string]any{
		"text":      "Heute war ein guter Tag. Es gab Kuchen.",
		"max_sents": float64(1),
	}, Options{Policy: brain.DefaultPolicy()})
	require.NoError(t, err)
	require.Contains(t, result["summary"], "guter Tag")

	audits, err := st.RecentAudits(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "journal.summarize:s1", audits[0].Action)
}

func TestTierModeAll(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	result, err := d.Dispatch(ctx, "journal.summarize", map[string]any{
		"text": "Heute war ein guter Tag. Es gab Kuchen.",
	}, Options{Policy: brain.DefaultPolicy(), TierMode: "all"})
	require.NoError(t, err)
	require.Contains(t, result, "under")
	require.Contains(t, result, "core")
	require.Contains(t, result, "over")

	audits, err := st.RecentAudits(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "journal.summarize:all", audits[0].Action)
}

func TestTierModeSingleStage(t *testing.T) {
	d, _ := newTestDispatcher(t)
	ctx := context.Background()

	result, err := d.Dispatch(ctx, "journal.summarize", map[string]any{
		"text": "Heute war ein guter Tag. Es gab Kuchen.",
	}, Options{Policy: brain.DefaultPolicy(), TierMode: "over"})
	require.NoError(t, err)
	notes, ok := result["notes"].([]any)
	require.True(t, ok)
	require.Contains(t, notes, "checked_by_over")
}

func TestInvalidTierMode(t *testing.T) {
	d, _ := newTestDispatcher(t)

	_, err := d.Dispatch(context.Background(), "journal.summarize", map[string]any{
		"text": "Text.",
	}, Options{TierMode: "sideways"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestAutoTagConfirmPersistsTags(t *testing.T) {
	d, st := newTestDispatcher(t)
	ctx := context.Background()

	id, err := st.InsertChunk(ctx, store.InsertChunkParams{
		Source: "journal",
		Text:   "Der Wald atmet Ruhe und Stille im Morgenlicht.",
	})
	require.NoError(t, err)

	result, err := d.Dispatch(ctx, "memory.auto_tag", map[string]any{
		"chunk_id": float64(id),
		"text":     "Der Wald atmet Ruhe und Stille im Morgenlicht.",
		"confirm":  true,
	}, Options{Policy: brain.DefaultPolicy()})
	require.NoError(t, err)

	linked, ok := result["linked"].(int)
	require.True(t, ok)
	require.Greater(t, linked, 0)
}

func TestAutoTagWithoutConfirmSuggestsOnly(t *testing.T) {
	d, _ := newTestDispatcher(t)

	result, err := d.Dispatch(context.Background(), "memory.auto_tag", map[string]any{
		"text": "Der Wald atmet Ruhe und Stille im Morgenlicht.",
	}, Options{Policy: brain.DefaultPolicy()})
	require.NoError(t, err)
	require.Contains(t, result, "suggested_tags")
	require.NotContains(t, result, "linked")
}

func TestIsWriteCommand(t *testing.T) {
	for _, cmd := range []string{"memory.add", "memory.tag", "memory.group", "game.new", "game.choose"} {
		require.True(t, IsWriteCommand(cmd), cmd)
	}
	for _, cmd := range []string{"journal.prompt", "journal.summarize", "memory.auto_tag", "game.describe", "lesson.plan"} {
		require.False(t, IsWriteCommand(cmd), cmd)
	}
}
