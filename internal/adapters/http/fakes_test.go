package httpadapter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/kirillkom/resume-form-filler/internal/config"
	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/fields"
)

type ingestFake struct {
	mu       sync.Mutex
	filename string
	body     string
	result   domain.UploadResult
	err      error
}

func (f *ingestFake) Upload(_ context.Context, filename, _ string, body io.Reader) (domain.UploadResult, error) {
	raw, _ := io.ReadAll(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filename = filename
	f.body = string(raw)
	return f.result, f.err
}

type extractorFake struct {
	sessionID string
	label     string
	result    domain.ExtractionResult
	err       error
}

func (f *extractorFake) ExtractField(_ context.Context, sessionID, label string) (domain.ExtractionResult, error) {
	f.sessionID = sessionID
	f.label = label
	return f.result, f.err
}

type bulkFake struct {
	labels []string
	result domain.BulkResult
	err    error
}

func (f *bulkFake) ExtractBulk(_ context.Context, sessionID string, labels []string) (domain.BulkResult, error) {
	f.labels = labels
	if f.err != nil {
		return domain.BulkResult{}, f.err
	}
	out := f.result
	out.SessionID = sessionID
	return out, nil
}

type queryFake struct {
	sessionID string
	query     string
	queryType domain.QueryType
	result    domain.QueryResult
	err       error
}

func (f *queryFake) Query(_ context.Context, sessionID, query string, queryType domain.QueryType) (domain.QueryResult, error) {
	f.sessionID = sessionID
	f.query = query
	f.queryType = queryType
	if f.err != nil {
		return domain.QueryResult{}, f.err
	}
	out := f.result
	out.QueryType = queryType
	return out, nil
}

type sessionsFake struct {
	stats   map[string]domain.SessionStats
	deleted []string
}

func (f *sessionsFake) Stats(_ context.Context, sessionID string) (domain.SessionStats, error) {
	stats, ok := f.stats[sessionID]
	if !ok {
		return domain.SessionStats{}, fmt.Errorf("session stats: %w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return stats, nil
}

func (f *sessionsFake) List(context.Context) []domain.SessionStats {
	out := make([]domain.SessionStats, 0, len(f.stats))
	for _, s := range f.stats {
		out = append(out, s)
	}
	return out
}

func (f *sessionsFake) Delete(_ context.Context, sessionID string) error {
	if _, ok := f.stats[sessionID]; !ok {
		return fmt.Errorf("delete session: %w: %s", domain.ErrSessionNotFound, sessionID)
	}
	delete(f.stats, sessionID)
	f.deleted = append(f.deleted, sessionID)
	return nil
}

type healthFake struct {
	report domain.HealthReport
}

func (f healthFake) Check(context.Context) domain.HealthReport {
	return f.report
}

type testDeps struct {
	ingest    *ingestFake
	extractor *extractorFake
	bulk      *bulkFake
	query     *queryFake
	sessions  *sessionsFake
	health    *healthFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		ingest:    &ingestFake{},
		extractor: &extractorFake{},
		bulk:      &bulkFake{},
		query:     &queryFake{},
		sessions:  &sessionsFake{stats: map[string]domain.SessionStats{}},
		health:    &healthFake{report: domain.HealthReport{Status: domain.HealthHealthy, Services: map[string]string{"vector": "ok"}}},
	}
}

func (d *testDeps) handler(cfg config.Config) http.Handler {
	return NewRouter(cfg, Dependencies{
		Ingest:    d.ingest,
		Extractor: d.extractor,
		Bulk:      d.bulk,
		Query:     d.query,
		Templates: fields.NewRegistry(),
		Sessions:  d.sessions,
		Health:    d.health,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}).Handler()
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestDeps().handler(cfg)
}
