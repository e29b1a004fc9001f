package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxQueryRunes bounds a free-form question against a resume.
const MaxQueryRunes = 1000

// QueryType tells the generator what shape of answer the caller expects.
type QueryType int

const (
	QuerySingleFact QueryType = iota
	QueryListItems
	QuerySummary
)

var queryTypeNames = [...]string{
	QuerySingleFact: "single_fact",
	QueryListItems:  "list_items",
	QuerySummary:    "summary",
}

func (q QueryType) String() string {
	if q < 0 || int(q) >= len(queryTypeNames) {
		return queryTypeNames[QuerySingleFact]
	}
	return queryTypeNames[q]
}

// Instruction is the answer-shape hint passed to the generator.
func (q QueryType) Instruction() string {
	switch q {
	case QueryListItems:
		return "Answer with every matching item from the excerpts as a comma-separated list."
	case QuerySummary:
		return "Answer with a short summary of what the excerpts say about the question."
	default:
		return "Answer with the single fact the question asks for."
	}
}

// ParseQueryType treats an empty value as single_fact.
func ParseQueryType(raw string) (QueryType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return QuerySingleFact, nil
	}
	for i, name := range queryTypeNames {
		if name == normalized {
			return QueryType(i), nil
		}
	}
	return QuerySingleFact, fmt.Errorf("%w: unknown query type %q", ErrInvalidInput, raw)
}

func (q QueryType) MarshalJSON() ([]byte, error) {
	return json.Marshal(q.String())
}

func (q *QueryType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseQueryType(raw)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// QueryResult answers a free-form question. RetrievedChunks is only filled
// when debug output is enabled.
type QueryResult struct {
	Answer           *string   `json:"answer"`
	Confidence       float64   `json:"confidence"`
	Reasoning        string    `json:"reasoning"`
	QueryType        QueryType `json:"query_type"`
	RetrievedChunks  []string  `json:"retrieved_chunks,omitempty"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
}

// ExampleQueries returns sample questions grouped by query type.
func ExampleQueries() map[string][]string {
	return map[string][]string{
		QuerySingleFact.String(): {
			"What is the email address?",
			"What is the phone number?",
			"What is the full name?",
			"What is the current job title?",
			"What university did they attend?",
		},
		QueryListItems.String(): {
			"List all technical skills",
			"List all programming languages",
			"List all work experiences",
			"List all certifications",
		},
		QuerySummary.String(): {
			"Summarize the work experience",
			"Summarize the educational background",
			"What are the key qualifications?",
		},
	}
}
