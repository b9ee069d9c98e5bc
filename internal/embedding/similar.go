package embedding

import (
	"context"
	"sort"
)

// TextSource supplies every stored chunk's text for brute-force scans.
// The SQLite store satisfies this.
type TextSource interface {
	AllChunkTexts(ctx context.Context) (map[int64]string, error)
}

// Neighbor is one similarity hit.
type Neighbor struct {
	ID    int64   `json:"id"`
	Score float64 `json:"score"`
}

// Index computes top-k cosine neighbors for a chunk against all stored
// chunks. Intentionally O(n) per call with no persisted vectors; the first
// optimization target at larger corpus sizes would be precomputed vectors
// behind an approximate nearest-neighbor structure.
type Index struct {
	source   TextSource
	embedder Embedder
}

// NewIndex creates a brute-force similarity index over source.
func NewIndex(source TextSource, embedder Embedder) *Index {
	if embedder == nil {
		embedder = NewHashedEmbedder(Dim)
	}
	return &Index{source: source, embedder: embedder}
}

// Similar returns up to k neighbors of chunkID ordered by descending score,
// ties broken by ascending id. threshold, when non-nil, filters out scores
// below it. An unknown chunkID yields an empty result.
func (ix *Index) Similar(ctx context.Context, chunkID int64, k int, threshold *float64) ([]Neighbor, error) {
	texts, err := ix.source.AllChunkTexts(ctx)
	if err != nil {
		return nil, err
	}
	targetText, ok := texts[chunkID]
	if !ok {
		return nil, nil
	}
	target := ix.embedder.Embed(targetText)

	neighbors := make([]Neighbor, 0, len(texts))
	for id, text := range texts {
		if id == chunkID {
			continue
		}
		score := Cosine(target, ix.embedder.Embed(text))
		if threshold != nil && score < *threshold {
			continue
		}
		neighbors = append(neighbors, Neighbor{ID: id, Score: score})
	}
	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].Score != neighbors[b].Score {
			return neighbors[a].Score > neighbors[b].Score
		}
		return neighbors[a].ID < neighbors[b].ID
	})
	if k >= 0 && len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}
