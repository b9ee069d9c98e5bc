package embedding

import (
	"math"
	"math/rand"
	"sort"
)

// KMeansTexts clusters the given texts by their hashed embeddings and returns
// a cluster label per id. Deterministic for a given seed: ids are visited in
// sorted order and initial centroids come from a seeded permutation. The
// fixed iteration count is intentional — no convergence check, so identical
// inputs always do identical work.
func KMeansTexts(texts map[int64]string, k, iters int, seed int64) map[int64]int {
	if len(texts) == 0 {
		return map[int64]int{}
	}
	if k < 1 {
		k = 1
	}
	if iters < 1 {
		iters = 1
	}

	ids := make([]int64, 0, len(texts))
	for id := range texts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool { return ids[a] < ids[b] })

	emb := NewHashedEmbedder(Dim)
	vecs := make(map[int64]Vector, len(ids))
	for _, id := range ids {
		vecs[id] = emb.Embed(texts[id])
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(len(ids))
	n := k
	if n > len(ids) {
		n = len(ids)
	}
	centroids := make([]Vector, 0, k)
	for _, p := range perm[:n] {
		centroids = append(centroids, append(Vector(nil), vecs[ids[p]]...))
	}
	// Pad with copies of the first centroid when there are fewer chunks than
	// clusters.
	for len(centroids) < k {
		centroids = append(centroids, append(Vector(nil), centroids[0]...))
	}

	labels := make(map[int64]int, len(ids))
	for it := 0; it < iters; it++ {
		// Assign each chunk to the closest centroid (max cosine, tie -> lowest).
		for _, id := range ids {
			labels[id] = closest(centroids, vecs[id])
		}
		// Recompute centroids as member means; empty clusters keep theirs.
		sums := make([]Vector, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make(Vector, Dim)
		}
		for _, id := range ids {
			lab := labels[id]
			counts[lab]++
			for j, v := range vecs[id] {
				sums[lab][j] += v
			}
		}
		for i := 0; i < k; i++ {
			if counts[i] == 0 {
				continue
			}
			for j := range sums[i] {
				centroids[i][j] = sums[i][j] / float64(counts[i])
			}
		}
		// Re-normalize for cosine assignment next round.
		for i := range centroids {
			var norm float64
			for _, v := range centroids[i] {
				norm += v * v
			}
			norm = math.Sqrt(norm)
			if norm == 0 {
				continue
			}
			for j := range centroids[i] {
				centroids[i][j] /= norm
			}
		}
	}
	return labels
}

func closest(centroids []Vector, v Vector) int {
	best := 0
	bestScore := math.Inf(-1)
	for i, c := range centroids {
		if s := Cosine(c, v); s > bestScore {
			bestScore = s
			best = i
		}
	}
	return best
}
