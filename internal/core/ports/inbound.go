package ports

import (
	"context"
	"io"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

// DocumentIngestor is the inbound contract for upload and chunk indexing.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (domain.UploadResult, error)
}

// FieldExtractor is the inbound contract for single-field extraction.
type FieldExtractor interface {
	ExtractField(ctx context.Context, sessionID, label string) (domain.ExtractionResult, error)
}

// BulkExtractor is the inbound contract for many-field extraction.
type BulkExtractor interface {
	ExtractBulk(ctx context.Context, sessionID string, labels []string) (domain.BulkResult, error)
}

// ResumeQuerier is the inbound contract for free-form questions about a resume.
type ResumeQuerier interface {
	Query(ctx context.Context, sessionID, query string, queryType domain.QueryType) (domain.QueryResult, error)
}

// FieldCatalog is the inbound read model for field templates.
type FieldCatalog interface {
	Resolve(label string) domain.FieldDefinition
	ListAll() []domain.FieldDefinition
}

// SessionService is the inbound contract for session lifecycle.
type SessionService interface {
	Stats(ctx context.Context, sessionID string) (domain.SessionStats, error)
	List(ctx context.Context) []domain.SessionStats
	Delete(ctx context.Context, sessionID string) error
}

// HealthChecker reports dependency reachability.
type HealthChecker interface {
	Check(ctx context.Context) domain.HealthReport
}
