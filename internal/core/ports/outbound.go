package ports

import (
	"context"
	"io"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

// ObjectStorage stores uploaded source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// FieldGenerator answers one field from retrieved context.
type FieldGenerator interface {
	GenerateField(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error)
}

// Chunker turns document text into tagged, not yet embedded chunks.
type Chunker interface {
	Chunk(sessionID, text string) []domain.Chunk
}

// VectorStore keeps embedded chunks per session. Search must never return
// chunks owned by another session.
type VectorStore interface {
	Upsert(ctx context.Context, sessionID string, chunks []domain.Chunk) error
	Search(ctx context.Context, sessionID string, queryVector []float32, limit int, filter domain.SearchFilter) ([]domain.ScoredChunk, error)
	DropSession(ctx context.Context, sessionID string) error
}

// KeywordIndex scores chunks by term statistics within one session.
type KeywordIndex interface {
	Index(ctx context.Context, sessionID string, chunks []domain.Chunk) error
	Search(ctx context.Context, sessionID string, queryTerms []string, limit int) ([]domain.ScoredChunk, error)
	DropSession(ctx context.Context, sessionID string) error
}

// SessionDropper removes everything a session owns from a store.
type SessionDropper interface {
	DropSession(ctx context.Context, sessionID string) error
}

// ExtractionSink receives extraction audit records.
type ExtractionSink interface {
	RecordExtraction(ctx context.Context, record domain.ExtractionRecord) error
}

// ExtractionLog persists extraction audit records.
type ExtractionLog interface {
	Save(ctx context.Context, record domain.ExtractionRecord) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ExtractionRecord, error)
}

// ExtractionEventQueue carries audit records between processes.
type ExtractionEventQueue interface {
	PublishExtraction(ctx context.Context, record domain.ExtractionRecord) error
	SubscribeExtractions(ctx context.Context, handler func(context.Context, domain.ExtractionRecord) error) error
}

// HealthProbe checks reachability of one dependency.
type HealthProbe interface {
	Name() string
	Critical() bool
	Ping(ctx context.Context) error
}

// SessionRegistry tracks live sessions. Acquire pins a session against
// deletion until the returned release func is called.
type SessionRegistry interface {
	Create(ctx context.Context, documentID string) domain.Session
	Acquire(ctx context.Context, sessionID string) (func(), error)
	SetChunkCount(sessionID string, n int) error
	Delete(ctx context.Context, sessionID string) error
}
