// Package chunk splits Markdown documents into paragraph-sized pieces for
// embedding.
package chunk

import "strings"

// Default chunk bounds in characters.
const (
	DefaultMinSize = 200
	DefaultMaxSize = 500
)

// Splitter groups Markdown blocks into chunks between MinSize and MaxSize.
// Short blocks are merged with their neighbours and long blocks are cut at the
// last space before MaxSize.
type Splitter struct {
	MinSize int
	MaxSize int
}

// Split applies the default bounds.
func Split(markdown string) []string {
	return Splitter{MinSize: DefaultMinSize, MaxSize: DefaultMaxSize}.Split(markdown)
}

// Split returns the chunks of markdown in document order. Blank blocks are
// dropped; a document shorter than MinSize yields a single chunk.
func (s Splitter) Split(markdown string) []string {
	minSize, maxSize := s.bounds()
	var (
		out    []string
		buffer string
	)
	flush := func() {
		if buffer != "" {
			out = append(out, buffer)
			buffer = ""
		}
	}

	for _, raw := range strings.Split(markdown, "\n\n") {
		block := strings.TrimSpace(raw)
		if block == "" {
			continue
		}
		switch {
		case runeLen(block) > maxSize:
			flush()
			out = append(out, splitLong(block, minSize, maxSize)...)
		case runeLen(block) < minSize:
			buffer = join(buffer, block)
			if n := runeLen(buffer); n >= minSize && n <= maxSize {
				flush()
			} else if n > maxSize {
				out = append(out, splitLong(buffer, minSize, maxSize)...)
				buffer = ""
			}
		default:
			if merged := join(buffer, block); buffer != "" && runeLen(merged) <= maxSize {
				buffer = merged
				if runeLen(buffer) >= minSize {
					flush()
				}
				continue
			}
			flush()
			out = append(out, block)
		}
	}
	flush()
	return out
}

func (s Splitter) bounds() (int, int) {
	minSize, maxSize := s.MinSize, s.MaxSize
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if minSize <= 0 || minSize > maxSize {
		minSize = maxSize * 2 / 5
	}
	return minSize, maxSize
}

// splitLong cuts text into pieces of at most maxSize runes, preferring the
// last space before the limit when it leaves at least minSize runes behind.
// A short tail is folded into the previous piece if that stays within bounds.
func splitLong(text string, minSize, maxSize int) []string {
	var out []string
	rest := []rune(text)
	for len(rest) > maxSize {
		cut := lastSpace(rest[:maxSize+1])
		if cut < minSize {
			cut = maxSize
		}
		piece := strings.TrimSpace(string(rest[:cut]))
		if piece != "" {
			out = append(out, piece)
		}
		rest = []rune(strings.TrimSpace(string(rest[cut:])))
	}
	if tail := string(rest); tail != "" {
		if last := len(out) - 1; last >= 0 && len(rest) < minSize && runeLen(out[last])+1+len(rest) <= maxSize {
			out[last] = out[last] + " " + tail
		} else {
			out = append(out, tail)
		}
	}
	return out
}

func lastSpace(r []rune) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i] == ' ' {
			return i
		}
	}
	return -1
}

func join(a, b string) string {
	if a == "" {
		return b
	}
	return a + "\n\n" + b
}

func runeLen(s string) int {
	return len([]rune(s))
}
