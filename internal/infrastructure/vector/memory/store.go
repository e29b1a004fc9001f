package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

// Store is an in-process vector store. Each session owns its own bucket, so
// a search can only ever see the chunks of the session it names.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Chunk
}

func New() *Store {
	return &Store{sessions: make(map[string][]domain.Chunk)}
}

// Upsert replaces the session's chunk set. Chunks are copied so callers
// cannot mutate stored vectors.
func (s *Store) Upsert(_ context.Context, sessionID string, chunks []domain.Chunk) error {
	stored := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		if c.SessionID != sessionID {
			return domain.WrapError(domain.ErrInvalidInput, "memory upsert", fmt.Errorf("chunk %s belongs to session %s", c.ID, c.SessionID))
		}
		if len(c.Vector) == 0 {
			return domain.WrapError(domain.ErrInvalidInput, "memory upsert", fmt.Errorf("chunk %s has no vector", c.ID))
		}
		c.Vector = append([]float32(nil), c.Vector...)
		stored = append(stored, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = stored
	return nil
}

func (s *Store) Search(
	_ context.Context,
	sessionID string,
	queryVector []float32,
	limit int,
	filter domain.SearchFilter,
) ([]domain.ScoredChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	chunks := s.sessions[sessionID]
	s.mu.RUnlock()

	out := make([]domain.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		if c.SessionID != sessionID {
			continue
		}
		if filter.PriorityOnly && !c.Priority {
			continue
		}
		out = append(out, domain.ScoredChunk{Chunk: c, Score: Cosine(queryVector, c.Vector)})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Chunk.Start < out[j].Chunk.Start
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) DropSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Cosine returns 0 for mismatched or zero-length vectors.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
