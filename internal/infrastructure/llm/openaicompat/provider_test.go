package openaicompat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/resilience"
)

type fakeModel struct {
	responses []string
	errs      []error
	calls     int
	lastMsgs  []llms.MessageContent
}

func (m *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	idx := m.calls
	m.calls++
	m.lastMsgs = msgs
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.responses[idx]}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	})
}

func TestGenerateFieldRetriesRateLimitAndParses(t *testing.T) {
	model := &fakeModel{
		errs:      []error{errors.New("API returned unexpected status code: 429"), nil},
		responses: []string{"", `{"value":"Acme","confidence":0.91,"reasoning":"latest role"}`},
	}
	p := newProvider(Config{}, model, &fakeEmbedder{}, testExecutor(), slog.Default())

	gen, err := p.GenerateField(context.Background(), domain.GenerationRequest{FieldKey: "current_company", FieldLabel: "Current Company", Context: "Engineer at Acme"})
	if err != nil {
		t.Fatalf("GenerateField() error = %v", err)
	}
	if gen.Value == nil || *gen.Value != "Acme" {
		t.Fatalf("unexpected value %v", gen.Value)
	}
	if model.calls != 2 {
		t.Fatalf("expected one retry, got %d calls", model.calls)
	}
	if len(model.lastMsgs) != 2 || model.lastMsgs[0].Role != llms.ChatMessageTypeSystem {
		t.Fatalf("expected system and human messages, got %+v", model.lastMsgs)
	}
}

func TestGenerateFieldPermanentFailureIsProviderError(t *testing.T) {
	model := &fakeModel{errs: []error{errors.New("invalid api key")}}
	p := newProvider(Config{}, model, &fakeEmbedder{}, testExecutor(), slog.Default())

	_, err := p.GenerateField(context.Background(), domain.GenerationRequest{FieldKey: "email"})
	if !domain.IsKind(err, domain.ErrProvider) || domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected permanent provider error, got %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("permanent errors must not be retried, got %d calls", model.calls)
	}
}

func TestEmbedWrapsFailures(t *testing.T) {
	p := newProvider(Config{}, &fakeModel{}, &fakeEmbedder{err: errors.New("503 service unavailable")}, nil, slog.Default())

	_, err := p.Embed(context.Background(), []string{"a"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary provider error, got %v", err)
	}
	if !strings.Contains(err.Error(), "openai embed") {
		t.Fatalf("expected operation in error, got %v", err)
	}
}

func TestEmbedQueryReturnsFirstVector(t *testing.T) {
	p := newProvider(Config{}, &fakeModel{}, &fakeEmbedder{}, nil, slog.Default())
	vec, err := p.EmbedQuery(context.Background(), "hello")
	if err != nil || len(vec) != 2 {
		t.Fatalf("EmbedQuery() = %v, %v", vec, err)
	}
}
