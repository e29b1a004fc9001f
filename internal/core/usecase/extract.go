package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const (
	defaultMaxContextChars = 4000

	reasonNoInformation = "no relevant information found"
	reasonNoConfidence  = "no confidence reported"

	validatorPenalty = 0.5
)

// Retriever produces fused candidates for one field of one session.
type Retriever interface {
	Retrieve(ctx context.Context, sessionID string, def domain.FieldDefinition) ([]domain.RetrievalCandidate, error)
}

type ExtractConfig struct {
	MaxContextChars int
	ProviderTimeout time.Duration
}

type ExtractUseCase struct {
	catalog   ports.FieldCatalog
	retriever Retriever
	generator ports.FieldGenerator
	sink      ports.ExtractionSink
	cfg       ExtractConfig
	logger    *slog.Logger
	observer  PipelineObserver
}

// NewExtractUseCase accepts a nil sink when no audit trail is configured.
func NewExtractUseCase(
	catalog ports.FieldCatalog,
	retriever Retriever,
	generator ports.FieldGenerator,
	sink ports.ExtractionSink,
	cfg ExtractConfig,
	logger *slog.Logger,
	observer PipelineObserver,
) *ExtractUseCase {
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = defaultMaxContextChars
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractUseCase{
		catalog:   catalog,
		retriever: retriever,
		generator: generator,
		sink:      sink,
		cfg:       cfg,
		logger:    logger,
		observer:  observerOrNoop(observer),
	}
}

// ExtractField resolves a label, retrieves context from the session and
// extracts the value. Provider failures degrade to a null result; only bad
// input and unknown sessions are returned as errors.
func (uc *ExtractUseCase) ExtractField(ctx context.Context, sessionID, label string) (domain.ExtractionResult, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrInvalidInput, "extract field", errors.New("field label is required"))
	}
	if strings.TrimSpace(sessionID) == "" {
		return domain.ExtractionResult{}, domain.WrapError(domain.ErrInvalidInput, "extract field", errors.New("session id is required"))
	}

	started := time.Now()
	def := uc.catalog.Resolve(label)

	candidates, err := uc.retriever.Retrieve(ctx, sessionID, def)
	if err != nil {
		return domain.ExtractionResult{}, err
	}

	result := uc.Extract(ctx, def, candidates)
	elapsed := time.Since(started)
	uc.observer.ObserveExtraction(def.Type.String(), result.Success, result.HasValue(), result.Confidence, elapsed)
	uc.record(ctx, sessionID, result, len(candidates), elapsed)
	return result, nil
}

// Extract asks the generator for one field value grounded in candidates.
// It never returns an error: provider failures yield a null value with
// Success=false.
func (uc *ExtractUseCase) Extract(
	ctx context.Context,
	def domain.FieldDefinition,
	candidates []domain.RetrievalCandidate,
) domain.ExtractionResult {
	result := domain.ExtractionResult{
		Label:     def.Label,
		Key:       def.Key,
		FieldType: def.Type,
	}

	if len(candidates) == 0 {
		result.Reasoning = reasonNoInformation
		result.Success = true
		return result
	}

	callCtx, cancel := withProviderTimeout(ctx, uc.cfg.ProviderTimeout)
	defer cancel()

	generation, err := uc.generator.GenerateField(callCtx, domain.GenerationRequest{
		FieldKey:   def.Key,
		FieldLabel: def.Label,
		FieldType:  def.Type,
		Context:    buildContext(candidates, uc.cfg.MaxContextChars),
	})
	if err != nil {
		uc.logger.Warn("field_generation_failed", "field", def.Key, "error", err)
		return failedResult(def, asProviderError("generate field", err))
	}

	return scoreGeneration(result, def, generation)
}

func scoreGeneration(result domain.ExtractionResult, def domain.FieldDefinition, generation domain.Generation) domain.ExtractionResult {
	result.Success = true
	result.Reasoning = strings.TrimSpace(generation.Reasoning)

	if generation.Value != nil {
		if value := strings.TrimSpace(*generation.Value); value != "" {
			result.Value = &value
		}
	}

	if generation.Confidence == nil {
		result.Confidence = 0
		result.Reasoning = appendReason(result.Reasoning, reasonNoConfidence)
	} else {
		result.Confidence = clamp01(*generation.Confidence)
	}

	if result.Value != nil && def.Validator != nil && !def.Validator.Valid(*result.Value) {
		result.Confidence *= validatorPenalty
		result.Reasoning = appendReason(result.Reasoning, fmt.Sprintf("value failed %s validation", def.Validator.Name))
	}
	return result
}

func failedResult(def domain.FieldDefinition, err error) domain.ExtractionResult {
	return domain.ExtractionResult{
		Label:     def.Label,
		Key:       def.Key,
		FieldType: def.Type,
		Reasoning: fmt.Sprintf("extraction failed: %v", err),
		Success:   false,
	}
}

// buildContext joins candidate texts in fused order and stops before the
// budget is exceeded. The first candidate is always included, truncated at
// a rune boundary if needed.
func buildContext(candidates []domain.RetrievalCandidate, maxChars int) string {
	const separator = "\n\n"

	var b strings.Builder
	for i, candidate := range candidates {
		text := strings.TrimSpace(candidate.Chunk.Text)
		if text == "" {
			continue
		}
		need := len(text)
		if b.Len() > 0 {
			need += len(separator)
		}
		if b.Len()+need > maxChars {
			if i == 0 {
				b.WriteString(truncateRunes(text, maxChars))
			}
			break
		}
		if b.Len() > 0 {
			b.WriteString(separator)
		}
		b.WriteString(text)
	}
	return b.String()
}

func truncateRunes(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}
	cut := 0
	for i := range text {
		if i > maxBytes {
			break
		}
		cut = i
	}
	return text[:cut]
}

func appendReason(reasoning, note string) string {
	if reasoning == "" {
		return note
	}
	return reasoning + "; " + note
}

func (uc *ExtractUseCase) record(ctx context.Context, sessionID string, result domain.ExtractionResult, candidates int, elapsed time.Duration) {
	if uc.sink == nil {
		return
	}
	record := domain.ExtractionRecord{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Result:     result,
		Candidates: candidates,
		DurationMS: elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.sink.RecordExtraction(context.WithoutCancel(ctx), record); err != nil {
		uc.logger.Warn("extraction_audit_failed", "session_id", sessionID, "field", result.Key, "error", err)
	}
}
