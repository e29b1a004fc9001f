// Package openaicompat talks to any OpenAI-compatible API (OpenAI, vLLM,
// LM Studio, llama.cpp server) through langchaingo.
package openaicompat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/llm/fieldjson"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/resilience"
)

type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	EmbeddingModel string
}

type Provider struct {
	cfg        Config
	llm        llms.Model
	embedder   embeddings.Embedder
	executor   *resilience.Executor
	httpClient *http.Client
	logger     *slog.Logger
}

func New(cfg Config, executor *resilience.Executor, logger *slog.Logger) (*Provider, error) {
	token := cfg.APIKey
	if token == "" {
		// Local OpenAI-compatible servers accept any token.
		token = "none"
	}
	client, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("create openai embedder: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return newProvider(cfg, client, embedder, executor, logger), nil
}

func newProvider(cfg Config, model llms.Model, embedder embeddings.Embedder, executor *resilience.Executor, logger *slog.Logger) *Provider {
	return &Provider{
		cfg:        cfg,
		llm:        model,
		embedder:   embedder,
		executor:   executor,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger.With("component", "openai-provider"),
	}
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := resilience.ExecuteValue(ctx, p.executor, "openai.embed", func(callCtx context.Context) ([][]float32, error) {
		return p.embedder.EmbedDocuments(callCtx, texts)
	}, classifyError)
	if err != nil {
		p.logger.Error("embed_failed", "count", len(texts), "error", err)
		return nil, wrapProviderError("openai embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, domain.WrapError(domain.ErrProvider, "openai embed", fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vectors)))
	}
	return vectors, nil
}

func (p *Provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (p *Provider) GenerateField(ctx context.Context, req domain.GenerationRequest) (domain.Generation, error) {
	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, fieldjson.SystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, fieldjson.BuildUserPrompt(req)),
	}

	response, err := resilience.ExecuteValue(ctx, p.executor, "openai.generate", func(callCtx context.Context) (*llms.ContentResponse, error) {
		return p.llm.GenerateContent(callCtx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
	}, classifyError)
	if err != nil {
		return domain.Generation{}, wrapProviderError("openai generate", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return domain.Generation{}, domain.WrapError(domain.ErrProvider, "openai generate", errors.New("no choices returned"))
	}

	gen, err := fieldjson.Parse(response.Choices[0].Content)
	if err != nil {
		return domain.Generation{}, domain.WrapError(domain.ErrProvider, "openai generate", err)
	}
	return gen, nil
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Critical() bool { return true }

func (p *Provider) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(p.cfg.BaseURL, "/")+"/models", nil)
	if err != nil {
		return fmt.Errorf("create openai ping request: %w", err)
	}
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai ping: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("openai ping status: %s", resp.Status)
	}
	return nil
}

// langchaingo does not expose typed HTTP errors, so classification falls back
// to network errors and well-known status text.
func classifyError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if resilience.IsAttemptTimeout(err) || resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"429", "rate limit", "500", "502", "503", "504", "timeout", "overloaded"} {
		if strings.Contains(msg, marker) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
}

func wrapProviderError(operation string, err error) error {
	if domain.IsProviderError(err) {
		return err
	}
	if classifyError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return domain.WrapError(domain.ErrProvider, operation, err)
}
