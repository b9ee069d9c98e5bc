package lexical

import (
	"math"
	"sort"
)

// idf computes inverse document frequency over sentences-as-documents using
// ln(1 + N/(1+df)). Stopwords never enter the document frequencies.
func idf(sentTokens [][]string) map[string]float64 {
	n := len(sentTokens)
	if n < 1 {
		n = 1
	}
	df := map[string]int{}
	for _, toks := range sentTokens {
		seen := map[string]struct{}{}
		for _, t := range toks {
			if IsStopword(t) {
				continue
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	out := make(map[string]float64, len(df))
	for term, d := range df {
		out[term] = math.Log(1 + float64(n)/float64(1+d))
	}
	return out
}

// Summary returns up to maxSents sentences of text, in original order.
// Sentences are scored by tf·idf with a position bonus favoring earlier
// sentences; the first sentence is always included when maxSents >= 1.
func Summary(text string, maxSents int) []string {
	sents := Sentences(text)
	if len(sents) == 0 {
		return nil
	}
	sentTokens := make([][]string, len(sents))
	for i, s := range sents {
		sentTokens[i] = Tokenize(s)
	}
	weights := idf(sentTokens)

	n := len(sents)
	scores := make([]float64, n)
	for i, toks := range sentTokens {
		tf := map[string]int{}
		for _, t := range toks {
			if !IsStopword(t) {
				tf[t]++
			}
		}
		var tfidf float64
		for term, c := range tf {
			tfidf += float64(c) * weights[term]
		}
		bonus := 1.0
		if n > 1 {
			bonus = 1.0 + 0.25*(1.0-float64(i)/float64(n-1))
		}
		scores[i] = tfidf * bonus
	}

	k := maxSents
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	// The lead sentence is always kept; remaining slots go to the best of the
	// rest, ties broken by original position.
	chosen := map[int]struct{}{0: {}}
	if k > 1 {
		rest := make([]int, 0, n-1)
		for i := 1; i < n; i++ {
			rest = append(rest, i)
		}
		sort.Slice(rest, func(a, b int) bool {
			if scores[rest[a]] != scores[rest[b]] {
				return scores[rest[a]] > scores[rest[b]]
			}
			return rest[a] < rest[b]
		})
		for _, i := range rest[:k-1] {
			chosen[i] = struct{}{}
		}
	}

	out := make([]string, 0, k)
	for i, s := range sents {
		if _, ok := chosen[i]; ok {
			out = append(out, s)
		}
	}
	return out
}

// Keywords returns the top k non-stopword terms of text ranked by total
// tf·idf, ties broken alphabetically. k <= 0 or empty text yields nil.
func Keywords(text string, k int) []string {
	sents := Sentences(text)
	if len(sents) == 0 || k <= 0 {
		return nil
	}
	sentTokens := make([][]string, len(sents))
	for i, s := range sents {
		sentTokens[i] = Tokenize(s)
	}
	weights := idf(sentTokens)

	tf := map[string]int{}
	for _, toks := range sentTokens {
		for _, t := range toks {
			if !IsStopword(t) {
				tf[t]++
			}
		}
	}

	terms := make([]string, 0, len(tf))
	for term := range tf {
		terms = append(terms, term)
	}
	score := func(term string) float64 {
		return float64(tf[term]) * weights[term]
	}
	sort.Slice(terms, func(a, b int) bool {
		sa, sb := score(terms[a]), score(terms[b])
		if sa != sb {
			return sa > sb
		}
		return terms[a] < terms[b]
	})
	if len(terms) > k {
		terms = terms[:k]
	}
	return terms
}
