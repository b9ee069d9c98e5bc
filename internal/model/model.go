// Package model defines the core knowledge-bridge data types.
package model

import "time"

// Chunk is an atomic stored unit of ingested text with provenance metadata.
// Text is immutable once inserted; there is no update path.
type Chunk struct {
	ID        int64          `json:"id"`
	Source    string         `json:"source"`
	Title     string         `json:"title,omitempty"`
	Text      string         `json:"text"`
	Meta      map[string]any `json:"meta,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Hit is a ranked full-text search result. The same record shape is used by
// every search-facing path so callers never see ad hoc result objects.
type Hit struct {
	ID      int64   `json:"id"`
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
	Source  string  `json:"source,omitempty"`
	Title   string  `json:"title,omitempty"`
}

// Session holds the state of one interactive game thread. State carries an
// append-only "log" list and a "choices" list; transitions only ever append.
type Session struct {
	ID        int64          `json:"id"`
	Kind      string         `json:"kind"`
	State     map[string]any `json:"state"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuditRecord is one append-only row per dispatched action, including
// read-only actions. Action is "namespace.command" with the resolved tier
// suffixed as ":tier" when a tier was chosen.
type AuditRecord struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload"`
	Result    map[string]any `json:"result"`
	Mood      string         `json:"mood,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
