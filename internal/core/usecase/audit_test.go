package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

type extractionLogFake struct {
	saved []domain.ExtractionRecord
	err   error
}

func (f *extractionLogFake) Save(_ context.Context, record domain.ExtractionRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, record)
	return nil
}

func (f *extractionLogFake) ListBySession(_ context.Context, sessionID string, _ int) ([]domain.ExtractionRecord, error) {
	var out []domain.ExtractionRecord
	for _, r := range f.saved {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

type auditObserverFake struct {
	started  int
	finished []error
	lags     []time.Duration
}

func (f *auditObserverFake) StartRecord() { f.started++ }

func (f *auditObserverFake) FinishRecord(_ time.Duration, err error) {
	f.finished = append(f.finished, err)
}

func (f *auditObserverFake) ObserveQueueLag(lag time.Duration) {
	f.lags = append(f.lags, lag)
}

func TestAuditHandlePersistsRecord(t *testing.T) {
	log := &extractionLogFake{}
	observer := &auditObserverFake{}
	uc := NewAuditUseCase(log, observer, discardLogger())
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	record := domain.ExtractionRecord{
		ID:        "r-1",
		SessionID: "s-1",
		Result:    domain.ExtractionResult{Key: "email"},
		CreatedAt: now.Add(-2 * time.Second),
	}
	if err := uc.Handle(context.Background(), record); err != nil {
		t.Fatalf("handle: %v", err)
	}

	stored, _ := log.ListBySession(context.Background(), "s-1", 10)
	if len(stored) != 1 || stored[0].ID != "r-1" {
		t.Fatalf("expected record to be persisted, got %+v", stored)
	}
	if observer.started != 1 || len(observer.finished) != 1 || observer.finished[0] != nil {
		t.Fatalf("unexpected observer calls: %+v", observer)
	}
	if len(observer.lags) != 1 || observer.lags[0] != 2*time.Second {
		t.Fatalf("expected 2s queue lag, got %v", observer.lags)
	}
}

func TestAuditHandleWrapsSaveFailureAsTemporary(t *testing.T) {
	log := &extractionLogFake{err: errors.New("connection reset")}
	observer := &auditObserverFake{}
	uc := NewAuditUseCase(log, observer, discardLogger())

	err := uc.Handle(context.Background(), domain.ExtractionRecord{ID: "r-2", SessionID: "s-1"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if len(observer.finished) != 1 || observer.finished[0] == nil {
		t.Fatalf("expected failed finish observation, got %+v", observer.finished)
	}
	if len(observer.lags) != 0 {
		t.Fatalf("zero created_at must not produce a lag sample")
	}
}
