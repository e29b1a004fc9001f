package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
)

type staticRetriever struct {
	candidates []domain.RetrievalCandidate
	err        error
	lastDef    domain.FieldDefinition
}

func (r *staticRetriever) Retrieve(_ context.Context, _ string, def domain.FieldDefinition) ([]domain.RetrievalCandidate, error) {
	r.lastDef = def
	return r.candidates, r.err
}

func emailFromContext(_ context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	if match := emailPattern.FindString(req.Context); match != "" {
		return generation(match, 0.9, "email in contact line"), nil
	}
	zero := 0.0
	return domain.Generation{Confidence: &zero, Reasoning: "not found"}, nil
}

func TestQueryAnswersFromSession(t *testing.T) {
	p := newPipeline(t)
	sessionID := p.seed(t, sampleResume)
	p.generator.answer = emailFromContext
	uc := NewQueryUseCase(p.retrieve, p.generator, QueryConfig{ProviderTimeout: time.Second, IncludeChunks: true}, discardLogger(), nil)

	result, err := uc.Query(context.Background(), sessionID, "What is the email address?", domain.QuerySingleFact)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Answer == nil || *result.Answer != "john@x.com" {
		t.Fatalf("expected john@x.com, got %+v", result)
	}
	if result.QueryType != domain.QuerySingleFact || len(result.RetrievedChunks) == 0 {
		t.Fatalf("unexpected result metadata: %+v", result)
	}
	req := p.generator.lastRequest()
	if req.FieldLabel != "What is the email address?" || req.Instruction != domain.QuerySingleFact.Instruction() {
		t.Fatalf("unexpected generation request: %+v", req)
	}
}

func TestQueryOmitsChunksUnlessEnabled(t *testing.T) {
	generator := &generatorFake{answer: emailFromContext}
	retriever := &staticRetriever{candidates: candidatesFor("email: john@x.com")}
	uc := NewQueryUseCase(retriever, generator, QueryConfig{}, discardLogger(), nil)

	result, err := uc.Query(context.Background(), "s1", "What is the email address?", domain.QueryListItems)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.RetrievedChunks != nil {
		t.Fatalf("expected no chunks, got %v", result.RetrievedChunks)
	}
	if retriever.lastDef.Type != domain.FieldOther || retriever.lastDef.Label != "What is the email address?" {
		t.Fatalf("unexpected ad-hoc definition: %+v", retriever.lastDef)
	}
	if generator.lastRequest().Instruction != domain.QueryListItems.Instruction() {
		t.Fatalf("expected list instruction, got %q", generator.lastRequest().Instruction)
	}
}

func TestQueryWithoutCandidatesSkipsGenerator(t *testing.T) {
	generator := &generatorFake{}
	uc := NewQueryUseCase(&staticRetriever{}, generator, QueryConfig{}, discardLogger(), nil)

	result, err := uc.Query(context.Background(), "s1", "List all certifications", domain.QueryListItems)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Answer != nil || result.Confidence != 0 || result.Reasoning != reasonNoInformation {
		t.Fatalf("unexpected empty result: %+v", result)
	}
	if generator.calls() != 0 {
		t.Fatalf("generator must not be called without candidates")
	}
}

func TestQueryProviderFailureDegrades(t *testing.T) {
	generator := &generatorFake{answer: func(context.Context, domain.GenerationRequest) (domain.Generation, error) {
		return domain.Generation{}, errors.New("connection refused")
	}}
	uc := NewQueryUseCase(&staticRetriever{candidates: candidatesFor("Go, PostgreSQL")}, generator, QueryConfig{}, discardLogger(), nil)

	result, err := uc.Query(context.Background(), "s1", "List all technical skills", domain.QueryListItems)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if result.Answer != nil || result.Confidence != 0 || !strings.HasPrefix(result.Reasoning, "query failed:") {
		t.Fatalf("expected degraded result, got %+v", result)
	}
}

func TestQueryValidation(t *testing.T) {
	retriever := &staticRetriever{err: domain.ErrSessionNotFound}
	uc := NewQueryUseCase(retriever, &generatorFake{}, QueryConfig{}, discardLogger(), nil)
	ctx := context.Background()

	if _, err := uc.Query(ctx, "s1", "  ", domain.QuerySingleFact); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank query, got %v", err)
	}
	if _, err := uc.Query(ctx, "s1", strings.Repeat("é", domain.MaxQueryRunes+1), domain.QuerySingleFact); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for long query, got %v", err)
	}
	if _, err := uc.Query(ctx, "", "What is the email address?", domain.QuerySingleFact); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank session, got %v", err)
	}
	if _, err := uc.Query(ctx, "missing", "What is the email address?", domain.QuerySingleFact); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestParseQueryType(t *testing.T) {
	if got, err := domain.ParseQueryType(""); err != nil || got != domain.QuerySingleFact {
		t.Fatalf("empty query type = %v, %v", got, err)
	}
	if got, err := domain.ParseQueryType(" Summary "); err != nil || got != domain.QuerySummary {
		t.Fatalf("summary query type = %v, %v", got, err)
	}
	if _, err := domain.ParseQueryType("essay"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown query type, got %v", err)
	}
}
