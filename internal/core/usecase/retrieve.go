package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/kirillkom/resume-form-filler/internal/core/domain"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
)

const strategyCount = 3

type RetrievalConfig struct {
	TopK            int
	WeightVector    float64
	WeightContact   float64
	WeightKeyword   float64
	ContactBoost    float64
	ProviderTimeout time.Duration
}

func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		TopK:          8,
		WeightVector:  0.6,
		WeightContact: 0.3,
		WeightKeyword: 0.1,
		ContactBoost:  1.5,
	}
}

type RetrieveUseCase struct {
	sessions ports.SessionRegistry
	embedder ports.Embedder
	vectors  ports.VectorStore
	keywords ports.KeywordIndex
	cfg      RetrievalConfig
	logger   *slog.Logger
	observer PipelineObserver
}

func NewRetrieveUseCase(
	sessions ports.SessionRegistry,
	embedder ports.Embedder,
	vectors ports.VectorStore,
	keywords ports.KeywordIndex,
	cfg RetrievalConfig,
	logger *slog.Logger,
	observer PipelineObserver,
) *RetrieveUseCase {
	defaults := DefaultRetrievalConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.TopK
	}
	if cfg.WeightVector <= 0 && cfg.WeightContact <= 0 && cfg.WeightKeyword <= 0 {
		cfg.WeightVector = defaults.WeightVector
		cfg.WeightContact = defaults.WeightContact
		cfg.WeightKeyword = defaults.WeightKeyword
	}
	if cfg.ContactBoost <= 0 {
		cfg.ContactBoost = defaults.ContactBoost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		sessions: sessions,
		embedder: embedder,
		vectors:  vectors,
		keywords: keywords,
		cfg:      cfg,
		logger:   logger,
		observer: observerOrNoop(observer),
	}
}

// Retrieve returns at most TopK fused candidates for one field. Strategy
// failures are logged and skipped; only an unknown session is an error.
func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	sessionID string,
	def domain.FieldDefinition,
) ([]domain.RetrievalCandidate, error) {
	release, err := uc.sessions.Acquire(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	variants := def.QueryVariants()
	if len(variants) == 0 {
		return []domain.RetrievalCandidate{}, nil
	}

	fusion := newFusion()

	queryVectors, embedErr := uc.embedQueries(ctx, variants)
	if embedErr != nil {
		uc.strategyFailed(sessionID, def, domain.StrategyVector, embedErr)
		if def.Type.IsContactLike() {
			uc.strategyFailed(sessionID, def, domain.StrategyContactBoost, embedErr)
		}
	} else {
		uc.runVector(ctx, sessionID, def, queryVectors, fusion)
		if def.Type.IsContactLike() {
			uc.runContact(ctx, sessionID, def, queryVectors, fusion)
		}
	}
	uc.runKeyword(ctx, sessionID, def, variants, fusion)

	return fusion.rank(uc.weights(), uc.cfg.TopK, def.Type.IsContactLike()), nil
}

func (uc *RetrieveUseCase) embedQueries(ctx context.Context, variants []string) ([][]float32, error) {
	callCtx, cancel := withProviderTimeout(ctx, uc.cfg.ProviderTimeout)
	defer cancel()

	vectors, err := uc.embedder.Embed(callCtx, variants)
	if err != nil {
		return nil, asProviderError("embed field queries", err)
	}
	if len(vectors) != len(variants) {
		return nil, domain.WrapError(domain.ErrProvider, "embed field queries", fmt.Errorf("vectors/queries mismatch: %d/%d", len(vectors), len(variants)))
	}
	return vectors, nil
}

func (uc *RetrieveUseCase) runVector(
	ctx context.Context,
	sessionID string,
	def domain.FieldDefinition,
	queryVectors [][]float32,
	fusion *fusion,
) {
	hits := 0
	for _, vector := range queryVectors {
		found, err := uc.vectors.Search(ctx, sessionID, vector, uc.cfg.TopK, domain.SearchFilter{})
		if err != nil {
			uc.strategyFailed(sessionID, def, domain.StrategyVector, err)
			return
		}
		for _, hit := range found {
			fusion.add(domain.StrategyVector, hit.Chunk, hit.Score, clamp01(hit.Score))
		}
		hits += len(found)
	}
	uc.observer.ObserveRetrievalStrategy(domain.StrategyVector.String(), hits, nil)
}

func (uc *RetrieveUseCase) runContact(
	ctx context.Context,
	sessionID string,
	def domain.FieldDefinition,
	queryVectors [][]float32,
	fusion *fusion,
) {
	hits := 0
	for _, vector := range queryVectors {
		found, err := uc.vectors.Search(ctx, sessionID, vector, uc.cfg.TopK, domain.SearchFilter{PriorityOnly: true})
		if err != nil {
			uc.strategyFailed(sessionID, def, domain.StrategyContactBoost, err)
			return
		}
		for _, hit := range found {
			if !hit.Chunk.Priority {
				continue
			}
			fusion.add(domain.StrategyContactBoost, hit.Chunk, hit.Score, clamp01(hit.Score)*uc.cfg.ContactBoost)
			hits++
		}
	}
	uc.observer.ObserveRetrievalStrategy(domain.StrategyContactBoost.String(), hits, nil)
}

func (uc *RetrieveUseCase) runKeyword(
	ctx context.Context,
	sessionID string,
	def domain.FieldDefinition,
	variants []string,
	fusion *fusion,
) {
	found, err := uc.keywords.Search(ctx, sessionID, variants, uc.cfg.TopK)
	if err != nil {
		uc.strategyFailed(sessionID, def, domain.StrategyKeyword, err)
		return
	}

	maxScore := 0.0
	for _, hit := range found {
		maxScore = max(maxScore, hit.Score)
	}
	if maxScore > 0 {
		for _, hit := range found {
			fusion.add(domain.StrategyKeyword, hit.Chunk, hit.Score, clamp01(hit.Score/maxScore))
		}
	}
	uc.observer.ObserveRetrievalStrategy(domain.StrategyKeyword.String(), len(found), nil)
}

func (uc *RetrieveUseCase) strategyFailed(sessionID string, def domain.FieldDefinition, strategy domain.Strategy, err error) {
	uc.observer.ObserveRetrievalStrategy(strategy.String(), 0, err)
	uc.logger.Warn("retrieval_strategy_failed",
		"session_id", sessionID,
		"field", def.Key,
		"strategy", strategy.String(),
		"error", err,
	)
}

func (uc *RetrieveUseCase) weights() [strategyCount]float64 {
	var w [strategyCount]float64
	w[domain.StrategyVector] = uc.cfg.WeightVector
	w[domain.StrategyContactBoost] = uc.cfg.WeightContact
	w[domain.StrategyKeyword] = uc.cfg.WeightKeyword
	return w
}

type fusionEntry struct {
	chunk domain.Chunk
	score [strategyCount]float64
	raw   [strategyCount]float64
	seen  [strategyCount]bool
}

// fusion accumulates the best normalized score per chunk per strategy.
type fusion struct {
	entries map[string]*fusionEntry
}

func newFusion() *fusion {
	return &fusion{entries: make(map[string]*fusionEntry)}
}

func (f *fusion) add(strategy domain.Strategy, chunk domain.Chunk, raw, normalized float64) {
	entry, ok := f.entries[chunk.ID]
	if !ok {
		entry = &fusionEntry{chunk: chunk}
		f.entries[chunk.ID] = entry
	}
	if !entry.seen[strategy] || normalized > entry.score[strategy] {
		entry.score[strategy] = normalized
		entry.raw[strategy] = raw
		entry.seen[strategy] = true
	}
}

func (f *fusion) rank(weights [strategyCount]float64, topK int, wantPriority bool) []domain.RetrievalCandidate {
	out := make([]domain.RetrievalCandidate, 0, len(f.entries))
	for _, entry := range f.entries {
		candidate := domain.RetrievalCandidate{Chunk: entry.chunk}
		bestShare := -1.0
		for s := range strategyCount {
			if !entry.seen[s] {
				continue
			}
			share := weights[s] * entry.score[s]
			candidate.Score += share
			if share > bestShare {
				bestShare = share
				candidate.Strategy = domain.Strategy(s)
				candidate.RawScore = entry.raw[s]
			}
		}
		out = append(out, candidate)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Chunk.Start != out[j].Chunk.Start {
			return out[i].Chunk.Start < out[j].Chunk.Start
		}
		return out[i].Chunk.ID < out[j].Chunk.ID
	})

	if topK <= 0 || len(out) <= topK {
		return out
	}
	head := out[:topK]
	if wantPriority && !containsPriority(head) {
		for _, candidate := range out[topK:] {
			if candidate.Chunk.Priority {
				head[topK-1] = candidate
				break
			}
		}
	}
	return head
}

func containsPriority(candidates []domain.RetrievalCandidate) bool {
	for _, c := range candidates {
		if c.Chunk.Priority {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
