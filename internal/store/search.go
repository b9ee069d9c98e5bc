package store

import (
	"context"
	"strings"

	"github.com/tkoester/knowbridge/internal/lexical"
	"github.com/tkoester/knowbridge/internal/model"
)

// maxQueryTokens bounds pathological queries before they reach FTS5.
const maxQueryTokens = 32

// SanitizeQuery reduces a raw query to plain alphanumeric tokens joined by
// spaces so FTS5 match syntax (colons, wildcards, boolean operators) can
// never leak through and break the query parser.
func SanitizeQuery(q string) string {
	toks := lexical.Tokenize(q)
	if len(toks) > maxQueryTokens {
		toks = toks[:maxQueryTokens]
	}
	return strings.Join(toks, " ")
}

// Search runs the sanitized query against the FTS5 index and returns hits in
// the index's native relevance order with a highlighted snippet per hit.
// An empty sanitized query returns nil without touching the index; a query
// the FTS parser still rejects degrades to zero results.
func (s *SQLiteStore) Search(ctx context.Context, query string, k int) ([]model.Hit, error) {
	sanitized := SanitizeQuery(query)
	if sanitized == "" {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id,
		        bm25(chunks_fts) AS score,
		        snippet(chunks_fts, 0, '[', ']', ' … ', 10) AS snip,
		        c.source,
		        c.title
		 FROM chunks_fts
		 JOIN chunks c ON c.id = chunks_fts.rowid
		 WHERE chunks_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`, sanitized, k)
	if err != nil {
		// FTS5 reports malformed match expressions as query errors; treat
		// them as zero results rather than propagating.
		return nil, nil
	}
	defer rows.Close()

	var hits []model.Hit
	for rows.Next() {
		var h model.Hit
		var title, source *string
		if err := rows.Scan(&h.ID, &h.Score, &h.Snippet, &source, &title); err != nil {
			return nil, err
		}
		if source != nil {
			h.Source = *source
		}
		if title != nil {
			h.Title = *title
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
