package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

// AuditObserver tracks the audit consumer.
type AuditObserver interface {
	StartRecord()
	FinishRecord(duration time.Duration, err error)
	ObserveQueueLag(lag time.Duration)
}

// AuditUseCase persists extraction records delivered by the event queue.
type AuditUseCase struct {
	log      ports.ExtractionLog
	observer AuditObserver
	logger   *slog.Logger
	now      func() time.Time
}

func NewAuditUseCase(log ports.ExtractionLog, observer AuditObserver, logger *slog.Logger) *AuditUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditUseCase{log: log, observer: observer, logger: logger, now: time.Now}
}

// Handle saves one record. Saving is idempotent on record id, so
// redelivered events are harmless.
func (uc *AuditUseCase) Handle(ctx context.Context, record domain.ExtractionRecord) error {
	start := uc.now()
	if uc.observer != nil {
		uc.observer.StartRecord()
		if !record.CreatedAt.IsZero() {
			uc.observer.ObserveQueueLag(start.Sub(record.CreatedAt))
		}
	}

	err := uc.log.Save(ctx, record)
	if uc.observer != nil {
		uc.observer.FinishRecord(uc.now().Sub(start), err)
	}
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "persist extraction record", err)
	}

	uc.logger.Debug("extraction_record_persisted",
		"record_id", record.ID,
		"session_id", record.SessionID,
		"field", record.Result.Key,
	)
	return nil
}
