// Package store provides the knowledge-bridge storage contract and its SQLite
// implementation. The core only reads and appends; conflicting writes are
// serialized by SQLite itself.
package store

import (
	"context"
	"errors"

	"github.com/tkoester/knowbridge/internal/model"
)

// ErrNotFound is returned when a referenced chunk or session does not exist.
var ErrNotFound = errors.New("not found")

// InsertChunkParams holds parameters for storing one text chunk.
type InsertChunkParams struct {
	Source string
	Title  string
	Text   string
	Meta   map[string]any
}

// AuditParams holds one append-only audit row. Mood is an optional contextual
// annotation.
type AuditParams struct {
	Action  string
	Payload map[string]any
	Result  map[string]any
	Mood    string
}

// Store defines the narrow read/write contract the core consumes.
type Store interface {
	// InsertChunk appends a single chunk and returns its id.
	InsertChunk(ctx context.Context, p InsertChunkParams) (int64, error)

	// InsertChunks appends a batch atomically and returns the new ids in
	// input order.
	InsertChunks(ctx context.Context, params []InsertChunkParams) ([]int64, error)

	// GetChunk retrieves a chunk by id, or ErrNotFound.
	GetChunk(ctx context.Context, id int64) (*model.Chunk, error)

	// AllChunkTexts returns every stored chunk's text, keyed by id.
	AllChunkTexts(ctx context.Context) (map[int64]string, error)

	// Search runs sanitized full-text search and returns ranked hits.
	Search(ctx context.Context, query string, k int) ([]model.Hit, error)

	// UpsertTag creates the tag on first use and returns its id.
	UpsertTag(ctx context.Context, name string) (int64, error)

	// LinkChunkTag links a chunk to a tag; duplicate links are a no-op.
	LinkChunkTag(ctx context.Context, chunkID, tagID int64) error

	// CreateSession starts an interactive session with an initial state.
	CreateSession(ctx context.Context, kind string, state map[string]any) (int64, error)

	// GetSessionState loads a session's state, or ErrNotFound.
	GetSessionState(ctx context.Context, id int64) (map[string]any, error)

	// UpdateSessionState replaces a session's state, or ErrNotFound.
	UpdateSessionState(ctx context.Context, id int64, state map[string]any) error

	// AppendAudit records one dispatched action. Never deleted by the core.
	AppendAudit(ctx context.Context, p AuditParams) error

	// RecentAudits lists the newest audit records, newest first.
	RecentAudits(ctx context.Context, limit int) ([]model.AuditRecord, error)

	// Close closes the store.
	Close() error
}
