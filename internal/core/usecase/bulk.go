package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const (
	defaultBulkConcurrency = 4
	defaultBulkTimeout     = 2 * time.Minute
)

// FieldExtractor is the single-field step a bulk run fans out to.
type FieldExtractor interface {
	ExtractField(ctx context.Context, sessionID, label string) (domain.ExtractionResult, error)
}

type BulkConfig struct {
	Concurrency int
	Timeout     time.Duration
}

type BulkUseCase struct {
	sessions  ports.SessionRegistry
	catalog   ports.FieldCatalog
	extractor FieldExtractor
	pool      *ants.Pool
	cfg       BulkConfig
	logger    *slog.Logger
	observer  PipelineObserver
}

// NewBulkUseCase runs field tasks on pool, which is shared with the rest of
// the process and owned by the caller.
func NewBulkUseCase(
	sessions ports.SessionRegistry,
	catalog ports.FieldCatalog,
	extractor FieldExtractor,
	pool *ants.Pool,
	cfg BulkConfig,
	logger *slog.Logger,
	observer PipelineObserver,
) *BulkUseCase {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultBulkConcurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultBulkTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BulkUseCase{
		sessions:  sessions,
		catalog:   catalog,
		extractor: extractor,
		pool:      pool,
		cfg:       cfg,
		logger:    logger,
		observer:  observerOrNoop(observer),
	}
}

// ExtractBulk extracts every label concurrently and returns results in
// input order. Per-field failures, including fields still running at the
// batch deadline, become null results instead of failing the batch.
func (uc *BulkUseCase) ExtractBulk(ctx context.Context, sessionID string, labels []string) (domain.BulkResult, error) {
	if len(labels) == 0 {
		return domain.BulkResult{}, domain.WrapError(domain.ErrInvalidInput, "extract bulk", errors.New("fields list is empty"))
	}
	for i, label := range labels {
		if strings.TrimSpace(label) == "" {
			return domain.BulkResult{}, domain.WrapError(domain.ErrInvalidInput, "extract bulk", fmt.Errorf("field %d is blank", i))
		}
	}

	release, err := uc.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return domain.BulkResult{}, err
	}
	release()

	started := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, uc.cfg.Timeout)
	defer cancel()

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		results  = make([]domain.ExtractionResult, len(labels))
		finished = make([]bool, len(labels))
		sem      = make(chan struct{}, uc.cfg.Concurrency)
	)
	store := func(i int, r domain.ExtractionResult) {
		mu.Lock()
		results[i] = r
		finished[i] = true
		mu.Unlock()
	}

dispatch:
	for i, label := range labels {
		select {
		case sem <- struct{}{}:
		case <-runCtx.Done():
			break dispatch
		}

		wg.Add(1)
		err := uc.pool.Submit(func() {
			defer wg.Done()
			defer func() { <-sem }()
			store(i, uc.extractOne(runCtx, sessionID, label))
		})
		if err != nil {
			wg.Done()
			<-sem
			store(i, failedResult(uc.catalog.Resolve(label), domain.WrapError(domain.ErrTemporary, "schedule field", err)))
		}
	}

	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()
	select {
	case <-allDone:
	case <-runCtx.Done():
	}

	mu.Lock()
	out := make([]domain.ExtractionResult, len(labels))
	for i, label := range labels {
		if finished[i] {
			out[i] = results[i]
			continue
		}
		out[i] = failedResult(uc.catalog.Resolve(label), domain.WrapError(domain.ErrTemporary, "extract field", runCtx.Err()))
	}
	mu.Unlock()

	bulk := domain.NewBulkResult(sessionID, out, time.Since(started))
	uc.observer.ObserveBulk(bulk.TotalFields, bulk.ExtractedFields, time.Since(started))
	uc.logger.Info("bulk_extraction_completed",
		"session_id", sessionID,
		"total_fields", bulk.TotalFields,
		"extracted_fields", bulk.ExtractedFields,
		"duration_ms", bulk.ProcessingTimeMS,
	)
	return bulk, nil
}

func (uc *BulkUseCase) extractOne(ctx context.Context, sessionID, label string) domain.ExtractionResult {
	result, err := uc.extractor.ExtractField(ctx, sessionID, label)
	if err != nil {
		uc.logger.Warn("bulk_field_failed", "session_id", sessionID, "field", label, "error", err)
		return failedResult(uc.catalog.Resolve(label), err)
	}
	return result
}
