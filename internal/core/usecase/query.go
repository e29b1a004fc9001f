package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const (
	queryFieldKey    = "query"
	queryObserveType = "query"
)

type QueryConfig struct {
	MaxContextChars int
	ProviderTimeout time.Duration
	// IncludeChunks returns the retrieved chunk texts for debugging.
	IncludeChunks bool
}

// QueryUseCase answers free-form questions about an uploaded resume using
// the same retrieval and scoring path as field extraction.
type QueryUseCase struct {
	retriever Retriever
	generator ports.FieldGenerator
	cfg       QueryConfig
	logger    *slog.Logger
	observer  PipelineObserver
}

func NewQueryUseCase(
	retriever Retriever,
	generator ports.FieldGenerator,
	cfg QueryConfig,
	logger *slog.Logger,
	observer PipelineObserver,
) *QueryUseCase {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaultMaxContextChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryUseCase{
		retriever: retriever,
		generator: generator,
		cfg:       cfg,
		logger:    logger,
		observer:  observerOrNoop(observer),
	}
}

// Query answers one question. Provider failures degrade to a null answer;
// only bad input and unknown sessions are returned as errors.
func (uc *QueryUseCase) Query(
	ctx context.Context,
	sessionID, query string,
	queryType domain.QueryType,
) (domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.QueryResult{}, domain.WrapError(domain.ErrInvalidInput, "query resume", errors.New("query is required"))
	}
	if utf8.RuneCountInString(query) > domain.MaxQueryRunes {
		return domain.QueryResult{}, domain.WrapError(domain.ErrInvalidInput, "query resume",
			fmt.Errorf("query exceeds %d characters", domain.MaxQueryRunes))
	}
	if strings.TrimSpace(sessionID) == "" {
		return domain.QueryResult{}, domain.WrapError(domain.ErrInvalidInput, "query resume", errors.New("session id is required"))
	}

	started := time.Now()
	def := domain.FieldDefinition{Key: queryFieldKey, Label: query, Type: domain.FieldOther}

	candidates, err := uc.retriever.Retrieve(ctx, sessionID, def)
	if err != nil {
		return domain.QueryResult{}, err
	}

	result := domain.QueryResult{QueryType: queryType}
	if uc.cfg.IncludeChunks {
		result.RetrievedChunks = make([]string, 0, len(candidates))
		for _, candidate := range candidates {
			result.RetrievedChunks = append(result.RetrievedChunks, candidate.Chunk.Text)
		}
	}

	success := true
	if len(candidates) == 0 {
		result.Reasoning = reasonNoInformation
	} else {
		success = uc.answer(ctx, def, queryType, candidates, &result)
	}

	elapsed := time.Since(started)
	result.ProcessingTimeMS = elapsed.Milliseconds()
	uc.observer.ObserveExtraction(queryObserveType, success, result.Answer != nil, result.Confidence, elapsed)
	return result, nil
}

func (uc *QueryUseCase) answer(
	ctx context.Context,
	def domain.FieldDefinition,
	queryType domain.QueryType,
	candidates []domain.RetrievalCandidate,
	result *domain.QueryResult,
) bool {
	callCtx, cancel := withProviderTimeout(ctx, uc.cfg.ProviderTimeout)
	defer cancel()

	generation, err := uc.generator.GenerateField(callCtx, domain.GenerationRequest{
		FieldKey:    def.Key,
		FieldLabel:  def.Label,
		FieldType:   def.Type,
		Context:     buildContext(candidates, uc.cfg.MaxContextChars),
		Instruction: queryType.Instruction(),
	})
	if err != nil {
		uc.logger.Warn("query_generation_failed", "query_type", queryType.String(), "error", err)
		result.Reasoning = fmt.Sprintf("query failed: %v", asProviderError("generate answer", err))
		return false
	}

	scored := scoreGeneration(domain.ExtractionResult{}, def, generation)
	result.Answer = scored.Value
	result.Confidence = scored.Confidence
	result.Reasoning = scored.Reasoning
	return true
}
