package chunking

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 100
)

// Span is a half-open byte range into the source text.
type Span struct {
	Start int
	End   int
}

// Splitter cuts text into overlapping windows measured in runes.
type Splitter struct {
	ChunkSize int
	Overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Splitter{
		ChunkSize: chunkSize,
		Overlap:   overlap,
	}
}

// Split returns window spans relative to text. Consecutive spans overlap by
// at most Overlap runes and together cover the whole input.
func (s *Splitter) Split(text string) []Span {
	if text == "" {
		return nil
	}

	out := make([]Span, 0, utf8.RuneCountInString(text)/s.ChunkSize+1)
	pos := 0
	for pos < len(text) {
		end := advanceRunes(text, pos, s.ChunkSize)
		if end < len(text) && splitsWord(text, end) {
			end = s.breakBefore(text, pos, end)
		}
		if strings.TrimSpace(text[pos:end]) != "" {
			out = append(out, Span{Start: pos, End: end})
		}
		if end >= len(text) {
			break
		}

		next := retreatRunes(text, end, s.Overlap)
		if next <= pos {
			next = end
		}
		pos = next
	}
	return out
}

// breakBefore moves a window end back to the best boundary in the second half
// of the window: paragraph, then line, then sentence, then word.
func (s *Splitter) breakBefore(text string, start, end int) int {
	mid := advanceRunes(text, start, s.ChunkSize/2)
	if mid >= end {
		return end
	}
	window := text[mid:end]
	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(window, sep); idx >= 0 {
			return mid + idx + len(sep)
		}
	}
	return end
}

func splitsWord(text string, at int) bool {
	before, _ := utf8.DecodeLastRuneInString(text[:at])
	after, _ := utf8.DecodeRuneInString(text[at:])
	return !unicode.IsSpace(before) && !unicode.IsSpace(after)
}

func advanceRunes(text string, from, n int) int {
	pos := from
	for i := 0; i < n && pos < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[pos:])
		pos += size
	}
	return pos
}

func retreatRunes(text string, from, n int) int {
	pos := from
	for i := 0; i < n && pos > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:pos])
		pos -= size
	}
	return pos
}
