package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

const defaultListLimit = 100

// ExtractionRepository is the durable extraction audit log. It holds
// results only; chunks and sessions stay in memory.
type ExtractionRepository struct {
	db *sql.DB
}

func NewExtractionRepository(db *sql.DB) *ExtractionRepository {
	return &ExtractionRepository{db: db}
}

func (r *ExtractionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extraction_records (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	field_key TEXT NOT NULL,
	field_label TEXT NOT NULL,
	field_type TEXT NOT NULL,
	value TEXT,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	reasoning TEXT NOT NULL DEFAULT '',
	success BOOLEAN NOT NULL,
	candidates INTEGER NOT NULL DEFAULT 0,
	duration_ms BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_records_session ON extraction_records(session_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// Save is idempotent on record id so redelivered events are harmless.
func (r *ExtractionRepository) Save(ctx context.Context, record domain.ExtractionRecord) error {
	result := record.Result
	var value sql.NullString
	if result.Value != nil {
		value = sql.NullString{String: *result.Value, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO extraction_records (
	id, session_id, field_key, field_label, field_type, value, confidence, reasoning, success, candidates, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (id) DO NOTHING
`,
		record.ID, record.SessionID, result.Key, result.Label, result.FieldType.String(), value,
		result.Confidence, result.Reasoning, result.Success, record.Candidates, record.DurationMS, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction record: %w", err)
	}
	return nil
}

func (r *ExtractionRepository) RecordExtraction(ctx context.Context, record domain.ExtractionRecord) error {
	return r.Save(ctx, record)
}

func (r *ExtractionRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]domain.ExtractionRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, session_id, field_key, field_label, field_type, value, confidence, reasoning, success, candidates, duration_ms, created_at
FROM extraction_records
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query extraction records: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ExtractionRecord, 0)
	for rows.Next() {
		var (
			record    domain.ExtractionRecord
			fieldType string
			value     sql.NullString
		)
		if err := rows.Scan(
			&record.ID, &record.SessionID, &record.Result.Key, &record.Result.Label, &fieldType, &value,
			&record.Result.Confidence, &record.Result.Reasoning, &record.Result.Success,
			&record.Candidates, &record.DurationMS, &record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan extraction record: %w", err)
		}
		parsed, err := domain.ParseFieldType(fieldType)
		if err != nil {
			return nil, fmt.Errorf("scan extraction record %s: %w", record.ID, err)
		}
		record.Result.FieldType = parsed
		if value.Valid {
			v := value.String
			record.Result.Value = &v
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate extraction records: %w", err)
	}
	return out, nil
}

func (r *ExtractionRepository) Name() string   { return "postgres" }
func (r *ExtractionRepository) Critical() bool { return false }

func (r *ExtractionRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}
