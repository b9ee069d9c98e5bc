// Package brain implements the tiered action pipeline. S1 covers local
// heuristics from the lexical package, S2 the hashed-embedding similarity
// lookups, S3 is reserved for an external inference tier and stays disabled
// by default because an external call carries unbounded latency and failure
// modes this core does not want in its contract.
package brain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tkoester/knowbridge/internal/embedding"
	"github.com/tkoester/knowbridge/internal/lexical"
)

// ErrUnknownTask is returned for task names outside the closed set, at both
// the Apply and Pipeline entry points.
var ErrUnknownTask = errors.New("unknown task")

// Policy gates which capability tiers a dispatch call may use.
type Policy struct {
	S1 bool `json:"s1"`
	S2 bool `json:"s2"`
	S3 bool `json:"s3"`
}

// DefaultPolicy enables the local tiers and keeps S3 off.
func DefaultPolicy() Policy {
	return Policy{S1: true, S2: true, S3: false}
}

// TierConfig configures one pipeline stage. TimeoutMS is applied as a real
// context deadline around the stage's store I/O; a deadline miss degrades to
// the previous stage's output.
type TierConfig struct {
	Enabled       bool `json:"enabled" mapstructure:"enabled"`
	TimeoutMS     int  `json:"timeout_ms" mapstructure:"timeout_ms"`
	AllowExternal bool `json:"allow_external" mapstructure:"allow_external"`
}

// TierSet holds the per-stage configuration for one deployment.
type TierSet struct {
	Under TierConfig `json:"under" mapstructure:"under"`
	Core  TierConfig `json:"core" mapstructure:"core"`
	Over  TierConfig `json:"over" mapstructure:"over"`
}

// DefaultTiers mirrors the shipped configuration: everything local enabled,
// budgets doubling per stage, no external calls.
func DefaultTiers() TierSet {
	return TierSet{
		Under: TierConfig{Enabled: true, TimeoutMS: 400},
		Core:  TierConfig{Enabled: true, TimeoutMS: 800},
		Over:  TierConfig{Enabled: true, TimeoutMS: 1600},
	}
}

// Layered is the full three-stage pipeline output.
type Layered struct {
	Under map[string]any `json:"under"`
	Core  map[string]any `json:"core"`
	Over  map[string]any `json:"over"`
}

// Tasks in the closed set.
const (
	TaskSummarize = "journal.summarize"
	TaskAutoTag   = "memory.auto_tag"
	TaskDescribe  = "game.describe"
	TaskPlan      = "lesson.plan"
)

func knownTask(task string) bool {
	switch task {
	case TaskSummarize, TaskAutoTag, TaskDescribe, TaskPlan:
		return true
	}
	return false
}

// Neighbors looks up embedding-similarity neighbors; satisfied by
// embedding.Index.
type Neighbors interface {
	Similar(ctx context.Context, chunkID int64, k int, threshold *float64) ([]embedding.Neighbor, error)
}

// Brain composes the lexical heuristics and the similarity index into tasks.
type Brain struct {
	neighbors Neighbors
}

// New creates a Brain. neighbors may be nil, which disables S2 lookups.
func New(neighbors Neighbors) *Brain {
	return &Brain{neighbors: neighbors}
}

func payloadString(payload map[string]any, key string) string {
	s, _ := payload[key].(string)
	return s
}

func payloadInt(payload map[string]any, key string, def int) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// payloadChunkID extracts a chunk reference; only integer-valued references
// are accepted.
func payloadChunkID(payload map[string]any) (int64, bool) {
	switch v := payload["chunk_id"].(type) {
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

// gameNext applies the next-step heuristic: when the state carries choices,
// the first one becomes the suggestion. The input state is not mutated.
func gameNext(state map[string]any) map[string]any {
	out := make(map[string]any, len(state)+1)
	for k, v := range state {
		out[k] = v
	}
	if choices, ok := state["choices"].([]any); ok && len(choices) > 0 {
		out["suggested_next"] = choices[0]
	}
	return out
}

func describeState(state map[string]any) string {
	node := "start"
	if n, ok := state["node"].(string); ok && n != "" {
		node = n
	}
	next := "weiter"
	if s, ok := state["suggested_next"].(string); ok && s != "" {
		next = s
	}
	return fmt.Sprintf("Szene: %s. Vorschlag: %s", node, next)
}

func (b *Brain) similarNeighbors(ctx context.Context, pol Policy, payload map[string]any, timeoutMS int) []embedding.Neighbor {
	if !pol.S2 || b.neighbors == nil {
		return nil
	}
	chunkID, ok := payloadChunkID(payload)
	if !ok {
		return nil
	}
	if timeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		defer cancel()
	}
	neighbors, err := b.neighbors.Similar(ctx, chunkID, 5, nil)
	if err != nil {
		// Degrade: an S2 failure falls back to the S1 result.
		return nil
	}
	return neighbors
}

// Apply runs the non-tiered convenience path: the Under-equivalent logic per
// task, opportunistically choosing s2 when a neighbor lookup actually returns
// results. It reports which tier was chosen for audit purposes.
func (b *Brain) Apply(ctx context.Context, task string, payload map[string]any, pol Policy) (map[string]any, string, error) {
	chosen := "s1"
	switch task {
	case TaskSummarize:
		text := payloadString(payload, "text")
		maxSents := payloadInt(payload, "max_sents", 3)
		sents := lexical.Summary(text, maxSents)
		return map[string]any{"summary": joinSentences(sents)}, chosen, nil

	case TaskAutoTag:
		text := payloadString(payload, "text")
		k := payloadInt(payload, "k", 8)
		kws := lexical.Keywords(text, k)
		neighbors := b.similarNeighbors(ctx, pol, payload, 0)
		if len(neighbors) > 0 {
			chosen = "s2"
		}
		return map[string]any{
			"suggested_tags": stringsAny(kws),
			"neighbors":      neighborsAny(neighbors),
		}, chosen, nil

	case TaskDescribe:
		state, _ := payload["state"].(map[string]any)
		if state == nil {
			state = map[string]any{}
		}
		next := gameNext(state)
		return map[string]any{
			"description": describeState(next),
			"state":       next,
		}, chosen, nil

	case TaskPlan:
		text := payloadString(payload, "text")
		steps := planSteps(lexical.Keywords(text, 6))
		return map[string]any{"plan": steps}, chosen, nil
	}
	return nil, "", fmt.Errorf("%w: %s", ErrUnknownTask, task)
}

// Pipeline runs Under -> Core -> Over and returns the full layered output.
// A disabled Under yields an empty map; disabled Core or Over pass the prior
// stage through unchanged, so disabling Core leaves over built only from
// Under's content.
func (b *Brain) Pipeline(ctx context.Context, task string, payload map[string]any, tiers TierSet, pol Policy) (Layered, error) {
	if !knownTask(task) {
		return Layered{}, fmt.Errorf("%w: %s", ErrUnknownTask, task)
	}

	under := b.underStage(task, payload, tiers.Under)
	core := b.coreStage(ctx, task, payload, under, tiers.Core, pol)
	over := overStage(core, tiers.Over)
	return Layered{Under: under, Core: core, Over: over}, nil
}

func (b *Brain) underStage(task string, payload map[string]any, cfg TierConfig) map[string]any {
	if !cfg.Enabled {
		return map[string]any{}
	}
	switch task {
	case TaskSummarize:
		text := payloadString(payload, "text")
		return map[string]any{
			"summary":  joinSentences(lexical.Summary(text, payloadInt(payload, "max_sents", 3))),
			"keywords": stringsAny(lexical.Keywords(text, payloadInt(payload, "k", 8))),
		}
	case TaskAutoTag:
		text := payloadString(payload, "text")
		return map[string]any{
			"candidates": stringsAny(lexical.Keywords(text, payloadInt(payload, "k", 10))),
		}
	case TaskDescribe:
		state, _ := payload["state"].(map[string]any)
		if state == nil {
			state = map[string]any{}
		}
		return map[string]any{"state": gameNext(state)}
	case TaskPlan:
		text := payloadString(payload, "text")
		return map[string]any{"plan": planSteps(lexical.Keywords(text, 6))}
	}
	return map[string]any{}
}

func (b *Brain) coreStage(ctx context.Context, task string, payload, under map[string]any, cfg TierConfig, pol Policy) map[string]any {
	if !cfg.Enabled {
		return under
	}
	out := make(map[string]any, len(under)+1)
	for k, v := range under {
		out[k] = v
	}
	switch task {
	case TaskSummarize:
		evidence, _ := payload["evidence"].([]any)
		if evidence == nil {
			evidence = []any{}
		}
		out["evidence"] = evidence
	case TaskAutoTag:
		out["neighbors"] = neighborsAny(b.similarNeighbors(ctx, pol, payload, cfg.TimeoutMS))
	case TaskDescribe:
		state, _ := under["state"].(map[string]any)
		if state == nil {
			state = map[string]any{}
		}
		out["description"] = describeState(state)
	}
	return out
}

func overStage(core map[string]any, cfg TierConfig) map[string]any {
	if !cfg.Enabled {
		return core
	}
	out := make(map[string]any, len(core)+1)
	for k, v := range core {
		out[k] = v
	}
	// Consent gating belongs here conceptually; for now the stage marks the
	// result as policy-checked.
	out["notes"] = []any{"checked_by_over"}
	return out
}

func joinSentences(sents []string) string {
	out := ""
	for i, s := range sents {
		if i > 0 {
			out += " "
		}
		out += s
	}
	return out
}

func planSteps(keywords []string) []any {
	steps := make([]any, 0, len(keywords))
	for _, w := range keywords {
		steps = append(steps, "Lerne: "+w)
	}
	return steps
}

func stringsAny(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func neighborsAny(in []embedding.Neighbor) []any {
	out := make([]any, 0, len(in))
	for _, n := range in {
		out = append(out, map[string]any{"id": n.ID, "score": n.Score})
	}
	return out
}
