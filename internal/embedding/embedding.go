// Package embedding provides deterministic hashed bag-of-words embeddings and
// the similarity primitives built on them: brute-force nearest neighbors and
// k-means clustering. No external model is involved; vectors are recomputed
// on demand and never persisted.
package embedding

import (
	"crypto/sha1"
	"encoding/binary"
	"math"

	"github.com/tkoester/knowbridge/internal/lexical"
)

// Dim is the fixed embedding dimension. Changing it invalidates every score
// computed against vectors from a previous dimension.
const Dim = 256

// Vector is a unit-normalized (or zero) embedding vector.
type Vector = []float64

// Embedder generates embedding vectors from text.
type Embedder interface {
	Embed(text string) Vector
	Dims() int
}

// HashedEmbedder maps terms into a fixed-size vector space via feature
// hashing. Collisions between distinct terms are accepted as an
// approximation. Deterministic across processes and machines.
type HashedEmbedder struct {
	dims int
}

// NewHashedEmbedder creates a feature-hashing embedder. dims <= 0 falls back
// to Dim.
func NewHashedEmbedder(dims int) *HashedEmbedder {
	if dims <= 0 {
		dims = Dim
	}
	return &HashedEmbedder{dims: dims}
}

func (e *HashedEmbedder) Dims() int { return e.dims }

// bucket hashes a term to a vector index. SHA-1 keeps the bucket distribution
// unbiased and stable across runs.
func (e *HashedEmbedder) bucket(term string) int {
	h := sha1.Sum([]byte(term))
	return int(binary.BigEndian.Uint32(h[:4]) % uint32(e.dims))
}

// Embed tokenizes text, drops stopwords, accumulates term frequencies into
// hashed buckets and L2-normalizes. Text without content terms yields the
// zero vector.
func (e *HashedEmbedder) Embed(text string) Vector {
	vec := make(Vector, e.dims)
	tf := map[string]int{}
	for _, t := range lexical.Tokenize(text) {
		if !lexical.IsStopword(t) {
			tf[t]++
		}
	}
	if len(tf) == 0 {
		return vec
	}
	for term, count := range tf {
		vec[e.bucket(term)] += float64(count)
	}
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Cosine computes cosine similarity between two vectors of equal length.
// Vectors from Embed are already unit-normalized, so this is a dot product;
// mismatched or empty inputs score zero.
func Cosine(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
