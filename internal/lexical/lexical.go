// Package lexical implements the local text-analysis primitives: tokenizing,
// stopword filtering, extractive summaries, keyword extraction, and
// bag-of-words deduplication. Everything here is deterministic; hashing and
// scoring upstream depend on the token stream bit-for-bit.
package lexical

import (
	"strings"
	"unicode"
)

// stopwords is a minimal bilingual (en/de) set. Extending it is safe as long
// as tokenization stays unchanged.
var stopwords = map[string]struct{}{}

var stopwordList = []string{
	// English
	"the", "a", "an", "and", "or", "but", "if", "then", "with", "to", "of",
	"in", "on", "for", "is", "are", "was", "were", "it", "as", "at", "by",
	"be", "this", "that", "these", "those", "from", "into", "about", "over",
	"under", "after", "before", "not", "no", "so", "we", "you", "i", "they",
	"he", "she", "them", "him", "her", "my", "your", "our", "their",
	// German
	"der", "die", "das", "ein", "eine", "einer", "eines", "und", "oder",
	"aber", "wenn", "dann", "mit", "zu", "von", "im", "am", "als", "auf",
	"ist", "sind", "war", "waren", "es", "wie", "bei", "durch", "für", "aus",
	"den", "dem", "des", "nicht", "kein", "wir", "ihr", "sie", "ich", "du",
	"euch", "uns", "einen", "einem", "einig", "auch", "heute", "morgen",
}

func init() {
	for _, w := range stopwordList {
		stopwords[w] = struct{}{}
	}
}

// Tokenize splits text into lowercase alphanumeric tokens. Letter
// classification is Unicode-aware, so German umlauts and ß survive intact.
// Empty input yields an empty sequence.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// IsStopword reports whether token is in the bilingual stopword set.
// Tokens are expected lowercase, as produced by Tokenize.
func IsStopword(token string) bool {
	_, ok := stopwords[token]
	return ok
}

// contentTokens tokenizes and drops stopwords.
func contentTokens(text string) []string {
	toks := Tokenize(text)
	out := toks[:0]
	for _, t := range toks {
		if !IsStopword(t) {
			out = append(out, t)
		}
	}
	return out
}

// Sentences splits text into trimmed, non-empty sentences. A sentence ends at
// '.', '!' or '?' followed by whitespace, or at a newline.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sents []string
	var cur strings.Builder
	runes := []rune(text)
	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			sents = append(sents, s)
		}
		cur.Reset()
	}
	for i, r := range runes {
		if r == '\n' {
			flush()
			continue
		}
		cur.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				flush()
			}
		}
	}
	flush()
	return sents
}
