package bleve

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
	"github.com/blevesearch/bleve/search/query"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

const textField = "text"

type sessionIndex struct {
	index  bleve.Index
	chunks map[string]domain.Chunk
}

// Index keeps one in-memory bleve index per session. Scoring is bleve's
// tf-idf with field-length normalisation over that session's chunks only.
type Index struct {
	mu       sync.RWMutex
	sessions map[string]*sessionIndex
}

func New() *Index {
	return &Index{sessions: make(map[string]*sessionIndex)}
}

func (x *Index) Index(_ context.Context, sessionID string, chunks []domain.Chunk) error {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return fmt.Errorf("create keyword index: %w", err)
	}

	byID := make(map[string]domain.Chunk, len(chunks))
	batch := idx.NewBatch()
	for _, c := range chunks {
		if c.SessionID != sessionID {
			_ = idx.Close()
			return domain.WrapError(domain.ErrInvalidInput, "keyword index", fmt.Errorf("chunk %s belongs to session %s", c.ID, c.SessionID))
		}
		if err := batch.Index(c.ID, map[string]any{textField: c.Text}); err != nil {
			_ = idx.Close()
			return fmt.Errorf("batch chunk %s: %w", c.ID, err)
		}
		c.Vector = nil
		byID[c.ID] = c
	}
	if err := idx.Batch(batch); err != nil {
		_ = idx.Close()
		return fmt.Errorf("index chunks: %w", err)
	}

	x.mu.Lock()
	previous := x.sessions[sessionID]
	x.sessions[sessionID] = &sessionIndex{index: idx, chunks: byID}
	x.mu.Unlock()

	if previous != nil {
		_ = previous.index.Close()
	}
	return nil
}

func (x *Index) Search(_ context.Context, sessionID string, queryTerms []string, limit int) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	x.mu.RLock()
	session := x.sessions[sessionID]
	x.mu.RUnlock()
	if session == nil {
		return nil, nil
	}

	var clauses []query.Query
	for _, term := range queryTerms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		match := bleve.NewMatchQuery(term)
		match.SetField(textField)
		clauses = append(clauses, match)
	}
	if len(clauses) == 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(clauses...), limit, 0, false)
	res, err := session.index.Search(req)
	if err != nil {
		if errors.Is(err, bleve.ErrorIndexClosed) {
			return nil, nil
		}
		return nil, fmt.Errorf("keyword search: %w", err)
	}

	out := make([]domain.ScoredChunk, 0, len(res.Hits))
	for _, hit := range res.Hits {
		chunk, ok := session.chunks[hit.ID]
		if !ok || chunk.SessionID != sessionID {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: hit.Score})
	}
	return out, nil
}

func (x *Index) DropSession(_ context.Context, sessionID string) error {
	x.mu.Lock()
	session := x.sessions[sessionID]
	delete(x.sessions, sessionID)
	x.mu.Unlock()

	if session == nil {
		return nil
	}
	return session.index.Close()
}

func (x *Index) Close() error {
	x.mu.Lock()
	sessions := x.sessions
	x.sessions = make(map[string]*sessionIndex)
	x.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.index.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
