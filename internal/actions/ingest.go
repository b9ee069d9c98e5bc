package actions

import (
	"context"

	"github.com/tkoester/knowbridge/internal/chunker"
	"github.com/tkoester/knowbridge/internal/lexical"
	"github.com/tkoester/knowbridge/internal/store"
)

// IngestParams describes a batch of texts to add under a common source.
type IngestParams struct {
	Source string
	Title  string
	Texts  []string
	Tags   []string
	Meta   map[string]any
}

// AddChunks splits, dedupes and inserts a batch of texts. Near-duplicates of
// an earlier text in the same batch are still stored but marked with a
// "dup_of" meta key pointing at the master chunk id. Returns the number of
// chunks inserted.
func AddChunks(ctx context.Context, st store.Store, p IngestParams, dedupeThreshold float64) (int, error) {
	var pieces []string
	for _, text := range p.Texts {
		pieces = append(pieces, chunker.Split(text, chunker.DefaultOptions())...)
	}
	if len(pieces) == 0 {
		return 0, nil
	}

	items := make([]lexical.DedupeItem, len(pieces))
	for i, text := range pieces {
		items[i] = lexical.DedupeItem{ID: int64(i), Text: text}
	}
	lexical.Dedupe(items, dedupeThreshold)

	// Duplicates point at a batch index; resolve to the inserted row id.
	inserted := make(map[int64]int64, len(items))
	count := 0
	for _, item := range items {
		meta := make(map[string]any, len(p.Meta)+1)
		for k, v := range p.Meta {
			meta[k] = v
		}
		if item.DupOf != nil {
			meta["dup_of"] = inserted[*item.DupOf]
		}
		id, err := st.InsertChunk(ctx, store.InsertChunkParams{
			Source: p.Source,
			Title:  p.Title,
			Text:   item.Text,
			Meta:   meta,
		})
		if err != nil {
			return count, err
		}
		inserted[item.ID] = id
		count++

		for _, tag := range p.Tags {
			if tag == "" {
				continue
			}
			tagID, err := st.UpsertTag(ctx, tag)
			if err != nil {
				return count, err
			}
			if err := st.LinkChunkTag(ctx, id, tagID); err != nil {
				return count, err
			}
		}
	}
	return count, nil
}
