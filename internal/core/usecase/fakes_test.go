package usecase

import (
	"context"
	"errors"
	"hash/fnv"
	"io"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

const sampleResume = `John Smith
john@x.com
555-123-4567
linkedin.com/in/johnsmith

SUMMARY
Backend engineer focused on payments.

EXPERIENCE
Senior Engineer at Acme, 2019 - present
Built ledger services and on-call tooling.

EDUCATION
B.S. Computer Science, State University, 2018

SKILLS
Go, PostgreSQL, Kubernetes
`

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// hashEmbedder maps texts to normalized bag-of-words vectors so that
// lexically related texts have high cosine similarity.
type hashEmbedder struct {
	mu    sync.Mutex
	calls int
	sizes []int
	err   error
}

const hashDims = 128

func (e *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.sizes = append(e.sizes, len(texts))
	err := e.err
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		out = append(out, hashVector(text))
	}
	return out, nil
}

func (e *hashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func hashVector(text string) []float32 {
	vec := make([]float32, hashDims)
	for _, token := range tokenize(text) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum32()%hashDims]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// keywordFake scores chunks by how many query tokens they contain.
type keywordFake struct {
	mu        sync.Mutex
	sessions  map[string][]domain.Chunk
	dropped   []string
	indexErr  error
	searchErr error
}

func newKeywordFake() *keywordFake {
	return &keywordFake{sessions: make(map[string][]domain.Chunk)}
}

func (k *keywordFake) Index(_ context.Context, sessionID string, chunks []domain.Chunk) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.indexErr != nil {
		return k.indexErr
	}
	k.sessions[sessionID] = append(k.sessions[sessionID], chunks...)
	return nil
}

func (k *keywordFake) Search(_ context.Context, sessionID string, terms []string, limit int) ([]domain.ScoredChunk, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.searchErr != nil {
		return nil, k.searchErr
	}

	query := map[string]struct{}{}
	for _, term := range terms {
		for _, token := range tokenize(term) {
			query[token] = struct{}{}
		}
	}

	var out []domain.ScoredChunk
	for _, chunk := range k.sessions[sessionID] {
		score := 0.0
		for _, token := range tokenize(chunk.Text) {
			if _, ok := query[token]; ok {
				score++
			}
		}
		if score > 0 {
			out = append(out, domain.ScoredChunk{Chunk: chunk, Score: score})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (k *keywordFake) DropSession(_ context.Context, sessionID string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.sessions, sessionID)
	k.dropped = append(k.dropped, sessionID)
	return nil
}

func (k *keywordFake) count(sessionID string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.sessions[sessionID])
}

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// generatorFake answers from the context it is given, the way a grounded
// model would, so tests can assert on what retrieval fed it.
type generatorFake struct {
	mu       sync.Mutex
	requests []domain.GenerationRequest
	answer   func(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error)
}

func (g *generatorFake) GenerateField(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	answer := g.answer
	g.mu.Unlock()
	if answer == nil {
		answer = groundedAnswer
	}
	return answer(ctx, req)
}

func (g *generatorFake) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *generatorFake) lastRequest() domain.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

func groundedAnswer(_ context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	switch req.FieldKey {
	case "email":
		if match := emailPattern.FindString(req.Context); match != "" {
			return generation(match, 0.95, "email found in contact chunk"), nil
		}
	case "current_company":
		if strings.Contains(req.Context, "Acme") {
			return generation("Acme", 0.85, "most recent employer"), nil
		}
	}
	zero := 0.0
	return domain.Generation{Confidence: &zero, Reasoning: "not present in context"}, nil
}

func generation(value string, confidence float64, reasoning string) domain.Generation {
	return domain.Generation{Value: &value, Confidence: &confidence, Reasoning: reasoning}
}

type storageFake struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
	saveErr error
}

func newStorageFake() *storageFake {
	return &storageFake{objects: make(map[string]string)}
}

func (s *storageFake) Save(_ context.Context, key string, data io.Reader) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[key] = string(raw)
	s.mu.Unlock()
	return nil
}

func (s *storageFake) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *storageFake) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

// textExtractorFake reads the stored object back as text.
type textExtractorFake struct {
	storage *storageFake
	err     error
}

func (e *textExtractorFake) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", err
	}
	defer reader.Close()
	raw, err := io.ReadAll(reader)
	return string(raw), err
}

type sinkFake struct {
	mu      sync.Mutex
	records []domain.ExtractionRecord
}

func (s *sinkFake) RecordExtraction(_ context.Context, record domain.ExtractionRecord) error {
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	return nil
}
