// Package chunker splits incoming note text into indexable pieces.
package chunker

import (
	"strings"
)

const (
	DefaultTargetSize = 400
	DefaultMaxSize    = 600
)

// Options configures splitting behavior. Sizes are in bytes.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default splitting options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
	}
}

// Split breaks text into pieces of roughly TargetSize bytes, cutting on
// paragraph and heading boundaries. Short text (<= MaxSize) passes through
// as a single piece; empty text yields nil.
func Split(text string, opts Options) []string {
	if opts.TargetSize == 0 {
		opts = DefaultOptions()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []string{text}
	}

	return merge(paragraphs(text), opts)
}

// paragraphs splits text on heading lines and blank-line runs.
func paragraphs(text string) []string {
	lines := strings.Split(text, "\n")
	var parts []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		if p := strings.TrimSpace(strings.Join(current, "\n")); p != "" {
			parts = append(parts, p)
		}
		current = nil
	}

	prevEmpty := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && len(current) > 0 {
			flush()
		}
		if trimmed == "" {
			if prevEmpty {
				flush()
			}
			prevEmpty = true
			current = append(current, line)
			continue
		}
		prevEmpty = false
		current = append(current, line)
	}
	flush()

	return parts
}

// merge combines small paragraphs up to TargetSize and hard-splits any run
// that still exceeds MaxSize.
func merge(parts []string, opts Options) []string {
	var out []string
	accum := ""

	flush := func() {
		if accum == "" {
			return
		}
		if len(accum) > opts.MaxSize {
			out = append(out, hardSplit(accum, opts)...)
		} else {
			out = append(out, accum)
		}
		accum = ""
	}

	for _, p := range parts {
		if accum == "" {
			accum = p
			continue
		}
		combined := accum + "\n\n" + p
		if len(combined) <= opts.TargetSize {
			accum = combined
		} else {
			flush()
			accum = p
		}
	}
	flush()

	return out
}

// hardSplit breaks an oversized run on line boundaries.
func hardSplit(text string, opts Options) []string {
	lines := strings.Split(text, "\n")
	var out []string
	var current []string
	curLen := 0

	flush := func() {
		if p := strings.TrimSpace(strings.Join(current, "\n")); p != "" {
			out = append(out, p)
		}
		current = nil
		curLen = 0
	}

	for _, line := range lines {
		if curLen+len(line) > opts.TargetSize && len(current) > 0 {
			flush()
		}
		current = append(current, line)
		curLen += len(line) + 1
	}
	flush()

	return out
}
