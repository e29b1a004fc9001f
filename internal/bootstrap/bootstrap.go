package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kirillkom/resume-form-filler/internal/config"
	"github.com/kirillkom/resume-form-filler/internal/core/fields"
	"github.com/kirillkom/resume-form-filler/internal/core/ports"
	"github.com/kirillkom/resume-form-filler/internal/core/session"
	"github.com/kirillkom/resume-form-filler/internal/core/usecase"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/chunking"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/keyword/bleve"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/llm/openaicompat"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/queue/nats"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/resilience"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/vector/memory"
	"github.com/kirillkom/resume-form-filler/internal/infrastructure/vector/qdrant"
	"github.com/kirillkom/resume-form-filler/internal/observability/metrics"
)

const (
	healthProbeTimeout = 3 * time.Second
	sessionDrainTime   = 10 * time.Second
)

type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.HTTPServerMetrics

	Fields    *fields.Registry
	Sessions  *session.Manager
	IngestUC  *usecase.IngestUseCase
	ExtractUC *usecase.ExtractUseCase
	BulkUC    *usecase.BulkUseCase
	QueryUC   *usecase.QueryUseCase
	HealthUC  *usecase.HealthUseCase

	closers []func()
}

type providerSet struct {
	embedder  ports.Embedder
	generator ports.FieldGenerator
	probe     ports.HealthProbe
}

// New wires the API process. The session sweeper starts immediately and is
// stopped by Close.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewHTTPServerMetrics("api"),
	}
	if err := app.wire(ctx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		BreakerEnabled:      cfg.CircuitBreakerEnabled,
	}, resilience.WithLogger(a.Logger), resilience.WithObserver(a.Metrics))

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}
	extractor := plaintext.NewExtractor(storage)

	providers, err := newProviders(cfg, executor, a.Logger)
	if err != nil {
		return err
	}
	probes := []ports.HealthProbe{providers.probe}

	vectors, vectorProbe, err := newVectorStore(cfg)
	if err != nil {
		return err
	}
	if vectorProbe != nil {
		probes = append(probes, vectorProbe)
	}

	keywords := bleve.New()
	a.closers = append(a.closers, func() { _ = keywords.Close() })

	registry, err := newFieldRegistry(cfg.FieldCatalogPath)
	if err != nil {
		return err
	}
	a.Fields = registry

	a.Sessions = session.NewManager(
		[]ports.SessionDropper{vectors, keywords},
		session.WithTTL(cfg.SessionTTL),
		session.WithSweepInterval(cfg.SessionSweepInterval),
		session.WithObserver(a.Metrics),
		session.WithLogger(a.Logger),
	)

	pool, err := ants.NewPool(cfg.WorkerPoolSize)
	if err != nil {
		return fmt.Errorf("init worker pool: %w", err)
	}
	a.closers = append(a.closers, pool.Release)

	sink, sinkProbe, err := a.newAuditSink(ctx, executor)
	if err != nil {
		return err
	}
	if sinkProbe != nil {
		probes = append(probes, sinkProbe)
	}

	chunker := chunking.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	a.IngestUC = usecase.NewIngestUseCase(
		a.Sessions, storage, extractor, chunker, providers.embedder, vectors, keywords,
		usecase.IngestConfig{
			EmbedBatchSize:  cfg.EmbedBatchSize,
			ProviderTimeout: cfg.ProviderTimeout,
			MaxUploadBytes:  cfg.MaxUploadBytes,
		},
		a.Logger, a.Metrics,
	)
	retrieveUC := usecase.NewRetrieveUseCase(
		a.Sessions, providers.embedder, vectors, keywords,
		usecase.RetrievalConfig{
			TopK:            cfg.RAGTopK,
			WeightVector:    cfg.RAGWeightVector,
			WeightContact:   cfg.RAGWeightContact,
			WeightKeyword:   cfg.RAGWeightKeyword,
			ContactBoost:    cfg.RAGContactBoost,
			ProviderTimeout: cfg.ProviderTimeout,
		},
		a.Logger, a.Metrics,
	)
	a.ExtractUC = usecase.NewExtractUseCase(
		registry, retrieveUC, providers.generator, sink,
		usecase.ExtractConfig{
			MaxContextChars: cfg.RAGMaxContextChars,
			ProviderTimeout: cfg.ProviderTimeout,
		},
		a.Logger, a.Metrics,
	)
	a.BulkUC = usecase.NewBulkUseCase(
		a.Sessions, registry, a.ExtractUC, pool,
		usecase.BulkConfig{
			Concurrency: cfg.BulkConcurrency,
			Timeout:     cfg.BulkTimeout,
		},
		a.Logger, a.Metrics,
	)
	a.QueryUC = usecase.NewQueryUseCase(
		retrieveUC, providers.generator,
		usecase.QueryConfig{
			MaxContextChars: cfg.RAGMaxContextChars,
			ProviderTimeout: cfg.ProviderTimeout,
			IncludeChunks:   cfg.QueryDebugChunks,
		},
		a.Logger, a.Metrics,
	)
	a.HealthUC = usecase.NewHealthUseCase(probes, healthProbeTimeout)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go a.Sessions.Run(sweepCtx)
	a.closers = append(a.closers, func() {
		stopSweep()
		drainCtx, cancel := context.WithTimeout(context.Background(), sessionDrainTime)
		defer cancel()
		if err := a.Sessions.Close(drainCtx); err != nil {
			a.Logger.Warn("session_drain_failed", "error", err)
		}
	})

	a.Logger.Info("app_wired",
		"llm_provider", cfg.LLMProvider,
		"vector_backend", cfg.VectorBackend,
		"audit_mode", cfg.AuditMode,
		"fields", len(registry.ListAll()),
	)
	return nil
}

func newProviders(cfg config.Config, executor *resilience.Executor, logger *slog.Logger) (providerSet, error) {
	switch cfg.LLMProvider {
	case "", "ollama":
		client := ollama.NewWithOptions(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
			HTTPTimeout:        cfg.ProviderTimeout,
			ResilienceExecutor: executor,
		})
		return providerSet{
			embedder:  ollama.NewEmbedder(client),
			generator: ollama.NewGenerator(client),
			probe:     client,
		}, nil
	case "openai":
		provider, err := openaicompat.New(openaicompat.Config{
			BaseURL:        cfg.OpenAIBaseURL,
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIGenModel,
			EmbeddingModel: cfg.OpenAIEmbedModel,
		}, executor, logger)
		if err != nil {
			return providerSet{}, fmt.Errorf("init openai provider: %w", err)
		}
		return providerSet{embedder: provider, generator: provider, probe: provider}, nil
	default:
		return providerSet{}, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func newVectorStore(cfg config.Config) (ports.VectorStore, ports.HealthProbe, error) {
	switch cfg.VectorBackend {
	case "", "memory":
		return memory.New(), nil, nil
	case "qdrant":
		client := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
		return client, client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}

func newFieldRegistry(path string) (*fields.Registry, error) {
	if path == "" {
		return fields.NewRegistry(), nil
	}
	overrides, err := fields.LoadCatalogFile(path)
	if err != nil {
		return nil, fmt.Errorf("load field catalog: %w", err)
	}
	return fields.NewRegistryWithOverrides(overrides), nil
}

// newAuditSink returns a nil sink when auditing is off.
func (a *App) newAuditSink(ctx context.Context, executor *resilience.Executor) (ports.ExtractionSink, ports.HealthProbe, error) {
	cfg := a.Config
	switch cfg.AuditMode {
	case "", "none":
		return nil, nil, nil
	case "postgres":
		repo, err := a.openExtractionRepository(ctx)
		if err != nil {
			return nil, nil, err
		}
		return repo, repo, nil
	case "nats":
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             a.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init audit queue: %w", err)
		}
		a.closers = append(a.closers, queue.Close)
		return queue, queue, nil
	default:
		return nil, nil, fmt.Errorf("unsupported AUDIT_MODE %q", cfg.AuditMode)
	}
}

func (a *App) openExtractionRepository(ctx context.Context) (*postgres.ExtractionRepository, error) {
	db, err := postgres.OpenDB(a.Config.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	repo := postgres.NewExtractionRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

// Close releases resources in reverse acquisition order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Worker is the audit consumer process: NATS in, Postgres out.
type Worker struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.WorkerMetrics
	Queue   *nats.Queue
	Repo    *postgres.ExtractionRepository

	closers []func()
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Worker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Worker{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.NewWorkerMetrics("worker"),
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	w.closers = append(w.closers, func() { _ = db.Close() })

	w.Repo = postgres.NewExtractionRepository(db)
	if err := w.Repo.EnsureSchema(ctx); err != nil {
		w.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    cfg.RetryMaxAttempts,
		RetryInitialBackoff: cfg.RetryInitialBackoff,
		BreakerEnabled:      cfg.CircuitBreakerEnabled,
	}, resilience.WithLogger(logger))

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	w.Queue = queue
	w.closers = append(w.closers, queue.Close)
	return w, nil
}

// Run persists audit records until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	audit := usecase.NewAuditUseCase(w.Repo, w.Metrics, w.Logger)
	err := w.Queue.SubscribeExtractions(ctx, audit.Handle)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (w *Worker) Close() {
	for i := len(w.closers) - 1; i >= 0; i-- {
		w.closers[i]()
	}
	w.closers = nil
}
