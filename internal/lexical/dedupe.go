package lexical

import "math"

// DedupeItem is one candidate chunk in a deduplication batch. DupOf is set on
// output for items whose bag-of-words cosine similarity against an earlier
// master meets the threshold; masters themselves are never marked.
type DedupeItem struct {
	ID    int64
	Text  string
	DupOf *int64
}

// bag is a raw term-frequency bag with stopwords excluded.
func bag(text string) map[string]int {
	b := map[string]int{}
	for _, t := range contentTokens(text) {
		b[t]++
	}
	return b
}

func bagCosine(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, na, nb float64
	for t, va := range a {
		dot += float64(va) * float64(b[t])
		na += float64(va) * float64(va)
	}
	for _, vb := range b {
		nb += float64(vb) * float64(vb)
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Dedupe scans items in order and marks near-duplicates against earlier
// masters. A chunk is compared with masters in the order they became masters;
// the first match at or above threshold wins and sets DupOf to that master's
// id. Duplicates never become masters, so marks are strictly one-directional.
// O(n·masters), intended for ingestion batches rather than corpus sweeps.
func Dedupe(items []DedupeItem, threshold float64) []DedupeItem {
	bags := make([]map[string]int, len(items))
	for i, it := range items {
		bags[i] = bag(it.Text)
	}
	var masters []int
	out := make([]DedupeItem, len(items))
	for i, it := range items {
		out[i] = DedupeItem{ID: it.ID, Text: it.Text}
		matched := false
		for _, j := range masters {
			if bagCosine(bags[i], bags[j]) >= threshold {
				id := items[j].ID
				out[i].DupOf = &id
				matched = true
				break
			}
		}
		if !matched {
			masters = append(masters, i)
		}
	}
	return out
}
