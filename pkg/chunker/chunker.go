// Package chunker splits long message payloads into pieces that fit a
// transport's per-message size cap, preferring line boundaries.
//
// Lengths are counted in runes. A line longer than the cap on its own is cut
// at exactly the cap and its remainder carried into the next chunk, so that
// remainder may itself exceed the cap; callers that need a hard bound must
// keep individual lines shorter than the cap.
package chunker

import (
	"iter"
	"slices"
	"strings"
)

// Chunks yields the ordered chunks of text for the given maxLength. The
// sequence is a single pass over text. A non-positive maxLength disables
// splitting.
func Chunks(text string, maxLength int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if maxLength <= 0 {
			if t := strings.TrimSpace(text); t != "" {
				yield(t)
			}
			return
		}

		var current []rune
		for line := range strings.SplitSeq(text, "\n") {
			runes := []rune(line)
			if len(current)+len(runes)+1 <= maxLength {
				current = append(current, runes...)
				current = append(current, '\n')
				continue
			}

			if len(current) > 0 {
				// Whitespace-only accumulators are dropped, an empty message
				// is never sendable.
				if t := strings.TrimSpace(string(current)); t != "" {
					if !yield(t) {
						return
					}
				}
				current = append(current[:0], runes...)
				current = append(current, '\n')
				continue
			}

			if !yield(string(runes[:maxLength])) {
				return
			}
			current = append(current[:0], runes[maxLength:]...)
			current = append(current, '\n')
		}

		if t := strings.TrimSpace(string(current)); t != "" {
			yield(t)
		}
	}
}

// Split collects Chunks into a slice. Empty input yields an empty slice.
func Split(text string, maxLength int) []string {
	chunks := slices.Collect(Chunks(text, maxLength))
	if chunks == nil {
		return []string{}
	}
	return chunks
}
