// Package bridge is the facade over storage, retrieval and the action
// dispatcher. Callers (CLI, MCP server) talk only to this package.
package bridge

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/tkoester/knowbridge/internal/actions"
	"github.com/tkoester/knowbridge/internal/brain"
	"github.com/tkoester/knowbridge/internal/embedding"
	"github.com/tkoester/knowbridge/internal/model"
	"github.com/tkoester/knowbridge/internal/persona"
	"github.com/tkoester/knowbridge/internal/store"
)

// Config wires a Bridge.
type Config struct {
	Store           store.Store
	Persona         *persona.Persona
	Policy          brain.Policy
	Tiers           brain.TierSet
	DedupeThreshold float64
	Logger          *log.Logger
}

// Bridge combines the store, the embedding index, the persona and the
// dispatcher behind one surface.
type Bridge struct {
	store           store.Store
	persona         *persona.Persona
	index           *embedding.Index
	dispatcher      *actions.Dispatcher
	policy          brain.Policy
	dedupeThreshold float64
	logger          *log.Logger
}

// New builds a Bridge from its parts. Persona defaults to a calm one with no
// confirmation requirement.
func New(cfg Config) *Bridge {
	if cfg.Persona == nil {
		cfg.Persona = persona.New(persona.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.DedupeThreshold <= 0 {
		cfg.DedupeThreshold = 0.9
	}

	index := embedding.NewIndex(cfg.Store, embedding.NewHashedEmbedder(embedding.Dim))
	dispatcher := actions.NewDispatcher(actions.Config{
		Store:           cfg.Store,
		Brain:           brain.New(index),
		Tiers:           cfg.Tiers,
		Mood:            cfg.Persona.Mood,
		DedupeThreshold: cfg.DedupeThreshold,
		Logger:          cfg.Logger,
	})

	return &Bridge{
		store:           cfg.Store,
		persona:         cfg.Persona,
		index:           index,
		dispatcher:      dispatcher,
		policy:          cfg.Policy,
		dedupeThreshold: cfg.DedupeThreshold,
		logger:          cfg.Logger,
	}
}

// Persona exposes the mood state for callers that surface it.
func (b *Bridge) Persona() *persona.Persona { return b.persona }

// Search runs sanitized full-text search over stored chunks.
func (b *Bridge) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	return b.store.Search(ctx, query, k)
}

// Fetch loads one chunk by id.
func (b *Bridge) Fetch(ctx context.Context, id int64) (*model.Chunk, error) {
	return b.store.GetChunk(ctx, id)
}

// Ingest splits, dedupes and stores a batch of texts.
func (b *Bridge) Ingest(ctx context.Context, p actions.IngestParams) (int, error) {
	return actions.AddChunks(ctx, b.store, p, b.dedupeThreshold)
}

// Similar returns the nearest neighbors of a stored chunk.
func (b *Bridge) Similar(ctx context.Context, chunkID int64, k int, threshold *float64) ([]embedding.Neighbor, error) {
	return b.index.Similar(ctx, chunkID, k, threshold)
}

// Cluster groups all stored chunks into k clusters.
func (b *Bridge) Cluster(ctx context.Context, k, iters int, seed int64) (map[int64]int, error) {
	texts, err := b.store.AllChunkTexts(ctx)
	if err != nil {
		return nil, err
	}
	return embedding.KMeansTexts(texts, k, iters, seed), nil
}

// RecentAudits lists the newest audit records.
func (b *Bridge) RecentAudits(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	return b.store.RecentAudits(ctx, limit)
}

// Dispatch runs a command through the dispatcher under the configured
// policy. When the persona requires write confirmation, mutating commands are
// rejected up front unless the args carry "confirm": true; rejected calls
// never reach the dispatcher or the audit log.
func (b *Bridge) Dispatch(ctx context.Context, command string, args map[string]any, tierMode string) (map[string]any, error) {
	if actions.IsWriteCommand(command) && b.persona.WriteRequiresConfirmation() {
		if confirmed, _ := args["confirm"].(bool); !confirmed {
			return nil, fmt.Errorf("%w: %s needs confirm=true", actions.ErrPreconditionFailed, command)
		}
	}

	result, err := b.dispatcher.Dispatch(ctx, command, args, actions.Options{
		Policy:   b.policy,
		TierMode: tierMode,
	})

	detail := map[string]any{"command": command, "ok": err == nil}
	b.persona.AppendEvent("dispatch", detail)

	return result, err
}
