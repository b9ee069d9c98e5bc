// Package actions implements the single dispatch entry point mapping command
// names to direct store mutations or tiered pipeline invocations, with one
// audit row per dispatched action.
package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tkoester/knowbridge/internal/brain"
	"github.com/tkoester/knowbridge/internal/store"
)

// writeCommands is the closed set of commands that mutate the store.
var writeCommands = map[string]struct{}{
	"memory.add":   {},
	"memory.tag":   {},
	"memory.group": {},
	"game.new":     {},
	"game.choose":  {},
}

// IsWriteCommand reports whether command performs a store mutation and is
// therefore subject to the write-confirmation precondition.
func IsWriteCommand(command string) bool {
	_, ok := writeCommands[command]
	return ok
}

// journalPrompts are the built-in prompt themes.
var journalPrompts = map[string][]any{
	"daily": {
		"Wofür warst du heute dankbar?",
		"Welche kleine Entscheidung hat deinen Tag verbessert?",
	},
	"focus": {
		"Was ist heute das Eine, das den Unterschied macht?",
		"Welche Ablenkung kannst du bewusst eliminieren?",
	},
}

// Options carries the per-call policy and the optional tier-mode selector
// ("under", "core", "over" or "all"; empty runs the non-tiered path).
type Options struct {
	Policy   brain.Policy
	TierMode string
}

// Dispatcher routes commands to the store and the tiered pipeline.
type Dispatcher struct {
	store           store.Store
	brain           *brain.Brain
	tiers           brain.TierSet
	mood            func() string
	dedupeThreshold float64
	logger          *log.Logger
}

// Config wires a Dispatcher. Mood may be nil (no audit annotation); Logger
// falls back to the default logger.
type Config struct {
	Store           store.Store
	Brain           *brain.Brain
	Tiers           brain.TierSet
	Mood            func() string
	DedupeThreshold float64
	Logger          *log.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.DedupeThreshold <= 0 {
		cfg.DedupeThreshold = 0.9
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Dispatcher{
		store:           cfg.Store,
		brain:           cfg.Brain,
		tiers:           cfg.Tiers,
		mood:            cfg.Mood,
		dedupeThreshold: cfg.DedupeThreshold,
		logger:          cfg.Logger,
	}
}

// Dispatch executes command with args and writes exactly one audit record,
// including for validation failures. An audit-logging failure is reported but
// never masks the primary result or error.
func (d *Dispatcher) Dispatch(ctx context.Context, command string, args map[string]any, opts Options) (map[string]any, error) {
	if args == nil {
		args = map[string]any{}
	}
	result, chosen, err := d.run(ctx, command, args, opts)

	action := command
	if chosen != "" {
		action = command + ":" + chosen
	}
	audited := result
	if err != nil {
		audited = map[string]any{"error": err.Error()}
	}
	d.audit(ctx, action, args, audited)

	return result, err
}

func (d *Dispatcher) audit(ctx context.Context, action string, payload, result map[string]any) {
	mood := ""
	if d.mood != nil {
		mood = d.mood()
	}
	if err := d.store.AppendAudit(ctx, store.AuditParams{
		Action:  action,
		Payload: payload,
		Result:  result,
		Mood:    mood,
	}); err != nil {
		d.logger.Warn("audit append failed", "action", action, "err", err)
	}
}

func (d *Dispatcher) run(ctx context.Context, command string, args map[string]any, opts Options) (map[string]any, string, error) {
	switch command {
	case "memory.add":
		return d.memoryAdd(ctx, args)
	case "memory.tag":
		return d.memoryTag(ctx, args)
	case "memory.group":
		return d.memoryGroup(ctx, args)
	case "game.new":
		return d.gameNew(ctx, args)
	case "game.choose":
		return d.gameChoose(ctx, args)
	case "journal.prompt":
		return d.journalPrompt(args)
	case "journal.summarize":
		return d.runTask(ctx, brain.TaskSummarize, args, opts)
	case "memory.auto_tag":
		return d.memoryAutoTag(ctx, args, opts)
	case "game.describe":
		return d.gameDescribe(ctx, args, opts)
	case "lesson.plan":
		return d.runTask(ctx, brain.TaskPlan, args, opts)
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnknownCommand, command)
}

// runTask routes an AI task either through the non-tiered Apply path or, when
// a tier mode was requested, through the full pipeline, returning the
// selected sub-result.
func (d *Dispatcher) runTask(ctx context.Context, task string, payload map[string]any, opts Options) (map[string]any, string, error) {
	if opts.TierMode == "" {
		return d.brain.Apply(ctx, task, payload, opts.Policy)
	}
	switch opts.TierMode {
	case "under", "core", "over", "all":
	default:
		return nil, "", invalidArgs(task, "tier_mode must be one of under, core, over, all")
	}
	layered, err := d.brain.Pipeline(ctx, task, payload, d.tiers, opts.Policy)
	if err != nil {
		return nil, "", err
	}
	switch opts.TierMode {
	case "under":
		return layered.Under, "under", nil
	case "core":
		return layered.Core, "core", nil
	case "over":
		return layered.Over, "over", nil
	}
	return map[string]any{
		"under": layered.Under,
		"core":  layered.Core,
		"over":  layered.Over,
	}, "all", nil
}

func (d *Dispatcher) memoryAdd(ctx context.Context, args map[string]any) (map[string]any, string, error) {
	source, ok := argString(args, "source")
	if !ok {
		return nil, "", invalidArgs("memory.add", "source must be a string")
	}
	texts, ok := argStringList(args, "texts")
	if !ok {
		return nil, "", invalidArgs("memory.add", "texts must be a list of strings")
	}
	title, _ := argString(args, "title")
	meta, _ := args["meta"].(map[string]any)

	n, err := AddChunks(ctx, d.store, IngestParams{
		Source: source,
		Title:  title,
		Texts:  texts,
		Meta:   meta,
	}, d.dedupeThreshold)
	if err != nil {
		return nil, "", err
	}
	return map[string]any{"added": n}, "", nil
}

func (d *Dispatcher) memoryTag(ctx context.Context, args map[string]any) (map[string]any, string, error) {
	chunkID, ok := argInt64(args, "chunk_id")
	if !ok {
		return nil, "", invalidArgs("memory.tag", "chunk_id must be an integer")
	}
	tags, ok := argStringList(args, "tags")
	if !ok {
		return nil, "", invalidArgs("memory.tag", "tags must be a list of strings")
	}
	if _, err := d.store.GetChunk(ctx, chunkID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: chunk %d", ErrNotFound, chunkID)
		}
		return nil, "", err
	}
	n, err := linkTags(ctx, d.store, chunkID, tags)
	if err != nil {
		return nil, "", err
	}
	return map[string]any{"linked": n}, "", nil
}

func (d *Dispatcher) memoryGroup(ctx context.Context, args map[string]any) (map[string]any, string, error) {
	tag, okTag := argString(args, "tag")
	query, okQuery := argString(args, "query")
	if !okTag || !okQuery {
		return nil, "", invalidArgs("memory.group", "tag and query must be strings")
	}
	if _, err := d.store.UpsertTag(ctx, tag); err != nil {
		return nil, "", err
	}
	return map[string]any{"group": tag, "query": query}, "", nil
}

func (d *Dispatcher) gameNew(ctx context.Context, args map[string]any) (map[string]any, string, error) {
	kind, ok := argString(args, "kind")
	if !ok {
		kind = "echo"
	}
	state := map[string]any{"log": []any{}, "choices": []any{}}
	id, err := d.store.CreateSession(ctx, kind, state)
	if err != nil {
		return nil, "", err
	}
	return map[string]any{"session_id": id, "kind": kind}, "", nil
}

func (d *Dispatcher) gameChoose(ctx context.Context, args map[string]any) (map[string]any, string, error) {
	sessionID, ok := argInt64(args, "session_id")
	if !ok {
		return nil, "", invalidArgs("game.choose", "session_id must be an integer")
	}
	choice, ok := argString(args, "choice")
	if !ok {
		return nil, "", invalidArgs("game.choose", "choice must be a string")
	}
	state, err := d.store.GetSessionState(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: session %d", ErrNotFound, sessionID)
		}
		return nil, "", err
	}
	entries, _ := state["log"].([]any)
	state["log"] = append(entries, map[string]any{"choice": choice})
	if err := d.store.UpdateSessionState(ctx, sessionID, state); err != nil {
		return nil, "", err
	}
	return map[string]any{"session_id": sessionID, "state": state}, "", nil
}

func (d *Dispatcher) journalPrompt(args map[string]any) (map[string]any, string, error) {
	theme, ok := argString(args, "theme")
	if !ok || theme == "" {
		theme = "daily"
	}
	prompts, ok := journalPrompts[theme]
	if !ok {
		prompts = journalPrompts["daily"]
	}
	return map[string]any{"theme": theme, "prompts": prompts}, "", nil
}

func (d *Dispatcher) memoryAutoTag(ctx context.Context, args map[string]any, opts Options) (map[string]any, string, error) {
	confirm, _ := args["confirm"].(bool)

	out, chosen, err := d.runTask(ctx, brain.TaskAutoTag, args, opts)
	if err != nil {
		return nil, "", err
	}
	if !confirm {
		return out, chosen, nil
	}

	// Confirmed: persist the suggested tags as real tag links.
	chunkID, ok := argInt64(args, "chunk_id")
	if !ok {
		return nil, "", invalidArgs("memory.auto_tag", "chunk_id must be an integer to confirm")
	}
	tags := tagCandidates(out)
	n, err := linkTags(ctx, d.store, chunkID, tags)
	if err != nil {
		return nil, "", err
	}
	confirmed := make(map[string]any, len(out)+1)
	for k, v := range out {
		confirmed[k] = v
	}
	confirmed["linked"] = n
	return confirmed, chosen, nil
}

func (d *Dispatcher) gameDescribe(ctx context.Context, args map[string]any, opts Options) (map[string]any, string, error) {
	if raw, present := args["state"]; present {
		if _, ok := raw.(map[string]any); !ok {
			return nil, "", invalidArgs("game.describe", "state must be an object")
		}
	}
	return d.runTask(ctx, brain.TaskDescribe, args, opts)
}

// tagCandidates pulls the suggested tag list from whichever shape the chosen
// tier produced: the apply path emits "suggested_tags", the tiered path
// "candidates" (possibly nested per stage).
func tagCandidates(result map[string]any) []string {
	for _, key := range []string{"suggested_tags", "candidates"} {
		if tags := stringList(result[key]); tags != nil {
			return tags
		}
	}
	for _, stage := range []string{"over", "core", "under"} {
		if sub, ok := result[stage].(map[string]any); ok {
			if tags := tagCandidates(sub); tags != nil {
				return tags
			}
		}
	}
	return nil
}

func linkTags(ctx context.Context, st store.Store, chunkID int64, tags []string) (int, error) {
	n := 0
	for _, name := range tags {
		if name == "" {
			continue
		}
		tagID, err := st.UpsertTag(ctx, name)
		if err != nil {
			return n, err
		}
		if err := st.LinkChunkTag(ctx, chunkID, tagID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// --- argument extraction ---

func argString(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok
}

// argInt64 accepts native ints and whole-valued float64 (JSON numbers).
func argInt64(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

func argStringList(args map[string]any, key string) ([]string, bool) {
	switch v := args[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
