package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const (
	defaultEmbedBatchSize = 32
	defaultMaxUploadBytes = 10 << 20
)

var allowedUploadExtensions = map[string]struct{}{
	".txt": {},
	".md":  {},
	".pdf": {},
}

type IngestConfig struct {
	EmbedBatchSize  int
	ProviderTimeout time.Duration
	MaxUploadBytes  int64
}

type IngestUseCase struct {
	sessions  ports.SessionRegistry
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectors   ports.VectorStore
	keywords  ports.KeywordIndex
	cfg       IngestConfig
	logger    *slog.Logger
	observer  PipelineObserver
}

func NewIngestUseCase(
	sessions ports.SessionRegistry,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	keywords ports.KeywordIndex,
	cfg IngestConfig,
	logger *slog.Logger,
	observer PipelineObserver,
) *IngestUseCase {
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = defaultEmbedBatchSize
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestUseCase{
		sessions:  sessions,
		storage:   storage,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectors:   vectors,
		keywords:  keywords,
		cfg:       cfg,
		logger:    logger,
		observer:  observerOrNoop(observer),
	}
}

// Upload stores a resume, opens a session for it and indexes its text.
// A failed ingestion leaves neither the session nor the stored file behind.
func (uc *IngestUseCase) Upload(
	ctx context.Context,
	filename, mimeType string,
	body io.Reader,
) (domain.UploadResult, error) {
	if err := validateUploadName(filename); err != nil {
		return domain.UploadResult{}, err
	}

	raw, err := io.ReadAll(io.LimitReader(body, uc.cfg.MaxUploadBytes+1))
	if err != nil {
		return domain.UploadResult{}, domain.WrapError(domain.ErrInvalidInput, "read upload", err)
	}
	if int64(len(raw)) > uc.cfg.MaxUploadBytes {
		return domain.UploadResult{}, domain.WrapError(
			domain.ErrInvalidInput,
			"read upload",
			fmt.Errorf("file exceeds %d bytes", uc.cfg.MaxUploadBytes),
		)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return domain.UploadResult{}, domain.WrapError(domain.ErrInvalidInput, "read upload", errors.New("empty file"))
	}

	id := uuid.NewString()
	doc := &domain.Document{
		ID:          id,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)),
		SizeBytes:   int64(len(raw)),
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.storage.Save(ctx, doc.StoragePath, bytes.NewReader(raw)); err != nil {
		return domain.UploadResult{}, fmt.Errorf("save to object storage: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		uc.discardFile(ctx, doc)
		return domain.UploadResult{}, fmt.Errorf("extract text: %w", err)
	}

	session := uc.sessions.Create(ctx, doc.ID)
	set, err := uc.Ingest(ctx, session.ID, text)
	if err != nil {
		if delErr := uc.sessions.Delete(ctx, session.ID); delErr != nil {
			uc.logger.Error("ingest_rollback_failed", "session_id", session.ID, "error", delErr)
		}
		uc.discardFile(ctx, doc)
		return domain.UploadResult{}, err
	}

	return domain.UploadResult{
		SessionID:     session.ID,
		DocumentID:    doc.ID,
		Filename:      doc.Filename,
		ChunksCreated: set.Count(),
	}, nil
}

// Ingest chunks, embeds and indexes text into an existing session. Either
// every chunk lands in both stores or none does.
func (uc *IngestUseCase) Ingest(ctx context.Context, sessionID, text string) (domain.ChunkSet, error) {
	started := time.Now()
	set, err := uc.ingest(ctx, sessionID, text)
	uc.observer.ObserveIngest(set.Count(), time.Since(started), err)
	if err != nil {
		uc.logger.Warn("ingest_failed", "session_id", sessionID, "error", err)
		return domain.ChunkSet{}, err
	}
	uc.logger.Info("ingest_completed",
		"session_id", sessionID,
		"chunks", set.Count(),
		"duration_ms", time.Since(started).Milliseconds(),
	)
	return set, nil
}

func (uc *IngestUseCase) ingest(ctx context.Context, sessionID, text string) (domain.ChunkSet, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ChunkSet{}, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("empty document text"))
	}

	release, err := uc.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return domain.ChunkSet{}, err
	}
	defer release()

	chunks := uc.chunker.Chunk(sessionID, text)
	if len(chunks) == 0 {
		return domain.ChunkSet{}, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	if err := uc.embed(ctx, chunks); err != nil {
		return domain.ChunkSet{}, err
	}

	if err := uc.index(ctx, sessionID, chunks); err != nil {
		return domain.ChunkSet{}, err
	}

	if err := uc.sessions.SetChunkCount(sessionID, len(chunks)); err != nil {
		return domain.ChunkSet{}, err
	}
	return domain.ChunkSet{SessionID: sessionID, Chunks: chunks}, nil
}

func (uc *IngestUseCase) embed(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += uc.cfg.EmbedBatchSize {
		end := min(start+uc.cfg.EmbedBatchSize, len(chunks))
		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Text)
		}

		vectors, err := uc.embedBatch(ctx, texts)
		if err != nil {
			return asProviderError("embed chunks", err)
		}
		if len(vectors) != len(texts) {
			return domain.WrapError(
				domain.ErrProvider,
				"embed chunks",
				fmt.Errorf("vectors/chunks mismatch: %d/%d", len(vectors), len(texts)),
			)
		}
		for i, vector := range vectors {
			chunks[start+i].Vector = vector
		}
	}
	return nil
}

func (uc *IngestUseCase) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	callCtx, cancel := withProviderTimeout(ctx, uc.cfg.ProviderTimeout)
	defer cancel()
	return uc.embedder.Embed(callCtx, texts)
}

func (uc *IngestUseCase) index(ctx context.Context, sessionID string, chunks []domain.Chunk) error {
	if err := uc.vectors.Upsert(ctx, sessionID, chunks); err != nil {
		uc.rollback(ctx, sessionID)
		return fmt.Errorf("index chunks in vector store: %w", err)
	}
	if err := uc.keywords.Index(ctx, sessionID, chunks); err != nil {
		uc.rollback(ctx, sessionID)
		return fmt.Errorf("index chunks in keyword index: %w", err)
	}
	return nil
}

func (uc *IngestUseCase) rollback(ctx context.Context, sessionID string) {
	ctx = context.WithoutCancel(ctx)
	if err := uc.vectors.DropSession(ctx, sessionID); err != nil {
		uc.logger.Error("ingest_rollback_failed", "session_id", sessionID, "store", "vector", "error", err)
	}
	if err := uc.keywords.DropSession(ctx, sessionID); err != nil {
		uc.logger.Error("ingest_rollback_failed", "session_id", sessionID, "store", "keyword", "error", err)
	}
}

func (uc *IngestUseCase) discardFile(ctx context.Context, doc *domain.Document) {
	if err := uc.storage.Delete(context.WithoutCancel(ctx), doc.StoragePath); err != nil {
		uc.logger.Warn("upload_cleanup_failed", "document_id", doc.ID, "error", err)
	}
}

func validateUploadName(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", errors.New("filename is required"))
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedUploadExtensions[ext]; !ok {
		return domain.WrapError(domain.ErrInvalidInput, "validate upload", fmt.Errorf("unsupported file type %q", ext))
	}
	return nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}

func withProviderTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// asProviderError keeps an adapter's typed kind and tags anything untyped,
// including context deadlines, as a provider failure.
func asProviderError(operation string, err error) error {
	if domain.IsProviderError(err) {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return domain.WrapError(domain.ErrProvider, operation, err)
}
