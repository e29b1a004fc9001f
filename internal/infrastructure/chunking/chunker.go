package chunking

import (
	"fmt"
	"sort"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

// Chunker builds the tagged chunk set for one document: a window pass over
// every section plus one priority chunk per detected contact value.
type Chunker struct {
	splitter *Splitter
	scanner  *ContactScanner
}

func NewChunker(chunkSize, overlap int) *Chunker {
	return &Chunker{
		splitter: NewSplitter(chunkSize, overlap),
		scanner:  NewContactScanner(),
	}
}

func (c *Chunker) Chunk(sessionID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	var chunks []domain.Chunk
	for _, segment := range ParseSections(text) {
		body := text[segment.Start:segment.End]
		for _, span := range c.splitter.Split(body) {
			start := segment.Start + span.Start
			end := segment.Start + span.End
			chunks = append(chunks, domain.Chunk{
				SessionID: sessionID,
				Text:      text[start:end],
				Start:     start,
				End:       end,
				Section:   segment.Section,
			})
		}
	}

	for _, match := range c.scanner.Scan(text) {
		chunks = append(chunks, domain.Chunk{
			SessionID: sessionID,
			Text:      match.Text(),
			Start:     match.Start,
			End:       match.End,
			Section:   domain.SectionContact,
			Priority:  true,
		})
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Start != chunks[j].Start {
			return chunks[i].Start < chunks[j].Start
		}
		if chunks[i].Priority != chunks[j].Priority {
			return !chunks[i].Priority
		}
		return chunks[i].End < chunks[j].End
	})
	for i := range chunks {
		chunks[i].ID = fmt.Sprintf("%s:%04d", sessionID, i)
	}
	return chunks
}
