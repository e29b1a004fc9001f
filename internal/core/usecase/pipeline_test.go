package usecase

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/resume-form-filler/internal/core/fields"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
	"github.com/kirillkom/resume-form-filler/internal/core/session"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/chunking"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/vector/memory"
)

type pipeline struct {
	sessions  *session.Manager
	storage   *storageFake
	embedder  *hashEmbedder
	vectors   *memory.Store
	keywords  *keywordFake
	generator *generatorFake
	sink      *sinkFake
	catalog   *fields.Registry

	ingest   *IngestUseCase
	retrieve *RetrieveUseCase
	extract  *ExtractUseCase
	bulk     *BulkUseCase
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	p := &pipeline{
		storage:   newStorageFake(),
		embedder:  &hashEmbedder{},
		vectors:   memory.New(),
		keywords:  newKeywordFake(),
		generator: &generatorFake{},
		sink:      &sinkFake{},
		catalog:   fields.NewRegistry(),
	}
	p.sessions = session.NewManager([]ports.SessionDropper{p.vectors, p.keywords}, session.WithLogger(discardLogger()))

	pool, err := ants.NewPool(4)
	if err != nil {
		t.Fatalf("ants.NewPool() error = %v", err)
	}
	t.Cleanup(pool.Release)

	logger := discardLogger()
	p.ingest = NewIngestUseCase(
		p.sessions, p.storage, &textExtractorFake{storage: p.storage},
		chunking.NewChunker(chunking.DefaultChunkSize, chunking.DefaultChunkOverlap),
		p.embedder, p.vectors, p.keywords,
		IngestConfig{EmbedBatchSize: 4},
		logger, nil,
	)
	p.retrieve = NewRetrieveUseCase(p.sessions, p.embedder, p.vectors, p.keywords, DefaultRetrievalConfig(), logger, nil)
	p.extract = NewExtractUseCase(p.catalog, p.retrieve, p.generator, p.sink, ExtractConfig{ProviderTimeout: time.Second}, logger, nil)
	p.bulk = NewBulkUseCase(p.sessions, p.catalog, p.extract, pool, BulkConfig{Concurrency: 2, Timeout: 5 * time.Second}, logger, nil)
	return p
}

// seed opens a session and ingests text into it.
func (p *pipeline) seed(t *testing.T, text string) string {
	t.Helper()
	s := p.sessions.Create(context.Background(), "doc-"+t.Name())
	if _, err := p.ingest.Ingest(context.Background(), s.ID, text); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	return s.ID
}
