package domain

import "time"

// ExtractionResult is the structured answer for one field.
// Value is nil when nothing was found or the provider failed.
type ExtractionResult struct {
	Label      string    `json:"field_label"`
	Key        string    `json:"field_name"`
	Value      *string   `json:"value"`
	Confidence float64   `json:"confidence"`
	FieldType  FieldType `json:"field_type"`
	Reasoning  string    `json:"reasoning"`
	Success    bool      `json:"success"`
}

func (r ExtractionResult) HasValue() bool {
	return r.Value != nil
}

type BulkResult struct {
	SessionID        string             `json:"session_id"`
	TotalFields      int                `json:"total_fields"`
	ExtractedFields  int                `json:"extracted_fields"`
	Fields           []ExtractionResult `json:"results"`
	ProcessingTimeMS int64              `json:"processing_time_ms"`
}

// NewBulkResult derives the counters from results so they cannot drift.
func NewBulkResult(sessionID string, results []ExtractionResult, elapsed time.Duration) BulkResult {
	extracted := 0
	for _, r := range results {
		if r.HasValue() {
			extracted++
		}
	}
	return BulkResult{
		SessionID:        sessionID,
		TotalFields:      len(results),
		ExtractedFields:  extracted,
		Fields:           results,
		ProcessingTimeMS: elapsed.Milliseconds(),
	}
}

// GenerationRequest is what a generation provider sees for one field.
type GenerationRequest struct {
	FieldKey    string
	FieldLabel  string
	FieldType   FieldType
	Context     string
	// Instruction optionally narrows the answer shape for free-form queries.
	Instruction string
}

// Generation is a provider's structured answer. Nil pointers mean the
// provider omitted the key.
type Generation struct {
	Value      *string  `json:"value"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// ExtractionRecord is the audit form of a result, published after each extraction.
type ExtractionRecord struct {
	ID         string           `json:"id"`
	SessionID  string           `json:"session_id"`
	Result     ExtractionResult `json:"result"`
	Candidates int              `json:"candidates"`
	DurationMS int64            `json:"duration_ms"`
	CreatedAt  time.Time        `json:"created_at"`
}
