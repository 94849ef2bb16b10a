package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/humanlike-coach/internal/config"
	"github.com/kirillkom/humanlike-coach/internal/core/domain"
	"github.com/kirillkom/humanlike-coach/internal/core/ports"
	"github.com/kirillkom/humanlike-coach/internal/core/signals"
	"github.com/kirillkom/humanlike-coach/internal/core/usecase"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/cache/memory"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/cache/redis"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/extractor"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/grammar/languagetool"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/llm/openai"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/modelsvc"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/queue/nats"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/resilience"
	"github.com/kirillkom/humanlike-coach/internal/infrastructure/segmentation"
)

// Options select the optional parts of the engine.
type Options struct {
	// Observer receives scoring measurements; nil disables them.
	Observer ports.ScoringObserver
	// Jobs connects postgres and NATS for asynchronous scoring.
	Jobs bool
	// WatchProfile reloads the scoring profile when its file changes.
	WatchProfile bool
	// OnBreakerChange is told about circuit breaker transitions.
	OnBreakerChange func(operation, from, to string)
}

type App struct {
	Config config.Config

	Profiles  *config.ProfileStore
	Analyzer  *usecase.AnalyzeUseCase
	Feedback  *usecase.FeedbackUseCase
	Extractor *extractor.Registry

	// Set only when Options.Jobs is true.
	Queue     *nats.Queue
	Jobs      *usecase.SubmitJobUseCase
	ProcessUC *usecase.ProcessJobUseCase

	closers []func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	app := &App{Config: cfg}

	profiles, err := config.NewProfileStore(cfg.ScoringProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load scoring profile: %w", err)
	}
	app.Profiles = profiles
	if opts.WatchProfile && cfg.ScoringProfileWatch && cfg.ScoringProfilePath != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		app.closers = append(app.closers, cancel)
		go func() {
			if err := profiles.Watch(watchCtx); err != nil {
				slog.Warn("scoring_profile_watch_stopped", "path", cfg.ScoringProfilePath, "error", err)
			}
		}()
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg, opts.OnBreakerChange))
	cache := app.signalCache(ctx, cfg)

	extractors := buildExtractors(cfg, executor, cache)
	app.Analyzer = usecase.NewAnalyzeUseCase(
		segmentation.NewSegmenter(),
		extractors,
		profiles,
		opts.Observer,
		time.Duration(cfg.ExtractorTimeoutMs)*time.Millisecond,
	)

	transformers, err := buildTransformers(cfg, executor)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Feedback = usecase.NewFeedbackUseCase(app.Analyzer, transformers, opts.Observer)
	app.Extractor = extractor.NewRegistry(cfg.MaxUploadBytes)

	if opts.Jobs {
		if err := app.connectJobs(ctx, cfg, executor); err != nil {
			app.Close()
			return nil, err
		}
	}
	return app, nil
}

func (a *App) connectJobs(ctx context.Context, cfg config.Config, executor *resilience.Executor) error {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })

	repo := postgres.NewScoringJobRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.Connect(cfg.NATSURL, cfg.NATSSubject, nats.Options{Executor: executor})
	if err != nil {
		return fmt.Errorf("init message queue: %w", err)
	}
	a.closers = append(a.closers, queue.Close)

	a.Queue = queue
	a.Jobs = usecase.NewSubmitJobUseCase(repo, queue, cfg.MaxTextLength)
	a.ProcessUC = usecase.NewProcessJobUseCase(repo, a.Analyzer)
	return nil
}

// signalCache picks the configured backend. Redis being down is not fatal:
// the cache only saves repeated model calls.
func (a *App) signalCache(ctx context.Context, cfg config.Config) ports.SignalCache {
	if cfg.SignalCacheBackend != "redis" {
		return memory.NewSignalCache(cfg.SignalCacheMaxKeys)
	}
	client, err := redis.Conn(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, 2*time.Second)
	if err != nil {
		slog.Warn("signal_cache_fallback_memory", "addr", cfg.RedisAddr, "error", err)
		return memory.NewSignalCache(cfg.SignalCacheMaxKeys)
	}
	a.closers = append(a.closers, func() { _ = client.Close() })
	return redis.NewSignalCache(client)
}

func buildExtractors(cfg config.Config, executor *resilience.Executor, cache ports.SignalCache) []ports.SignalExtractor {
	callTimeout := time.Duration(cfg.ExternalCallTimeoutMs) * time.Millisecond
	external := signals.ExternalOptions{
		CallTimeout:         callTimeout,
		SentenceConcurrency: cfg.SentenceConcurrency,
		Cache:               cache,
		CacheTTL:            cfg.SignalCacheTTL,
	}
	classifierOpts := external
	classifierOpts.SkipSentences = cfg.ClassifierSkipSentences

	lm := modelsvc.New("lm_scoring", cfg.LMScoringURL, cfg.LMScoringModel, callTimeout, executor)
	classifier := modelsvc.New("classifier", cfg.ClassifierURL, cfg.ClassifierModel, callTimeout, executor)

	return []ports.SignalExtractor{
		signals.NewPerplexity(
			modelsvc.NewPerplexityScorer(lm),
			signals.PerplexityAnchors{Low: cfg.PerplexityLow, High: cfg.PerplexityHigh},
			external,
		),
		signals.NewAIProbability(modelsvc.NewClassifier(classifier), classifierOpts),
		signals.NewBurstiness(cfg.BurstinessCVHigh),
		signals.NewLexicalDiversity(signals.LexicalAnchors{
			Low:    cfg.LexicalLow,
			Good:   cfg.LexicalGood,
			Window: cfg.LexicalWindow,
		}),
		signals.NewReadabilityVariation(signals.ReadabilityRange{
			Low:  cfg.ReadabilitySDLow,
			High: cfg.ReadabilitySDHigh,
		}),
	}
}

func buildTransformers(cfg config.Config, executor *resilience.Executor) (map[domain.TransformMode]ports.TextTransformer, error) {
	timeout := time.Duration(cfg.TransformTimeoutMs) * time.Millisecond

	var rewriter ports.TextTransformer
	switch cfg.TransformBackend {
	case "ollama":
		rewriter = ollama.NewTransformer(ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, timeout, executor))
	case "openai":
		rewriter = openai.NewTransformer(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, timeout, executor)
	case "none", "":
	default:
		return nil, fmt.Errorf("unknown transform backend %q", cfg.TransformBackend)
	}

	transformers := map[domain.TransformMode]ports.TextTransformer{}
	if rewriter != nil {
		transformers[domain.ModeRewrite] = rewriter
		transformers[domain.ModeParaphrase] = rewriter
	}
	if cfg.LanguageToolURL != "" {
		transformers[domain.ModeGrammar] = languagetool.New(cfg.LanguageToolURL, cfg.LanguageToolLang, timeout, executor)
	}
	return transformers, nil
}

func resilienceConfig(cfg config.Config, onStateChange func(operation, from, to string)) resilience.Config {
	return resilience.Config{
		Retry: resilience.RetryPolicy{
			MaxAttempts:    cfg.RetryMaxAttempts,
			InitialBackoff: time.Duration(cfg.RetryInitialBackoffMs) * time.Millisecond,
		},
		Breaker: resilience.BreakerPolicy{
			Enabled:          cfg.BreakerEnabled,
			MinRequests:      uint32(max(cfg.BreakerMinRequests, 0)),
			FailureRatio:     cfg.BreakerFailureRatio,
			OpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutMs) * time.Millisecond,
			HalfOpenMaxCalls: uint32(max(cfg.BreakerHalfOpenMaxCalls, 0)),
		},
		Limit: resilience.LimitPolicy{
			RPS:   cfg.ModelRateLimitRPS,
			Burst: cfg.ModelRateLimitBurst,
		},
		OnStateChange: onStateChange,
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
