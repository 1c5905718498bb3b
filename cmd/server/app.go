package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/jobscout-api/internal/config"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/mailer"
	"github.com/phrazzld/jobscout-api/internal/pipeline"
	"github.com/phrazzld/jobscout-api/internal/platform/gemini"
	"github.com/phrazzld/jobscout-api/internal/platform/groq"
	"github.com/phrazzld/jobscout-api/internal/platform/postgres"
	"github.com/phrazzld/jobscout-api/internal/scrape"
	"github.com/phrazzld/jobscout-api/internal/service"
	"github.com/phrazzld/jobscout-api/internal/service/auth"
	"github.com/phrazzld/jobscout-api/internal/task"
	"github.com/phrazzld/jobscout-api/internal/throttle"
)

// monthWindow is the rolling window of the monthly embedding quota.
const monthWindow = 30 * 24 * time.Hour

// application holds the long-lived components of the server.
type application struct {
	config *config.Config
	logger *slog.Logger

	emitter       events.EventEmitter
	subscriptions service.SubscriptionService
	manager       *task.Manager
	correlator    *task.Correlator
	jobs          scheduledJobs
}

// newApplication wires every component from cfg around db.
func newApplication(ctx context.Context, cfg *config.Config, db *sql.DB, log *slog.Logger) (*application, error) {
	generator, embedder, err := newLLM(ctx, cfg.LLM, log)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	sender, err := mailer.NewSMTPSender(cfg.Mail, log)
	if err != nil {
		return nil, err
	}

	users := postgres.NewPostgresUserStore(db, log)
	subscriptions := service.NewSubscriptionService(users, tokens, cfg.Server.PublicURL, log)

	fetcher := scrape.NewFetcher(scrape.FetcherConfig{
		RequestsPerSecond: cfg.Scraper.RequestsPerSecond,
		Concurrency:       cfg.Scraper.Concurrency,
		Timeout:           time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		UserAgent:         cfg.Scraper.UserAgent,
		Policy:            gemini.PolicyFromConfig(cfg.LLM),
	}, log)

	emitter := events.NewInMemoryEventEmitter(log)
	correlator := task.NewCorrelator(log)

	p, err := pipeline.New(pipeline.Deps{
		Emitter:       emitter,
		Correlator:    correlator,
		DB:            db,
		Users:         users,
		Documents:     postgres.NewPostgresDocumentStore(db, log),
		Vectors:       postgres.NewPostgresVectorStore(db, cfg.LLM.EmbeddingDimensions, log),
		Generator:     generator,
		Embedder:      embedder,
		Scraper:       scrape.NewScraper(fetcher, cfg.Scraper.Concurrency, log),
		Sender:        sender,
		Subscriptions: subscriptions,
		ExtractGate:   throttle.PerMinute(cfg.LLM.ExtractionsPerMinute, throttle.WithName("extraction")),
	}, pipelineConfig(cfg), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	manager := task.NewManager(log)
	for _, q := range p.Queues(pipeline.QueueSizes{
		DBBatch:    cfg.Queue.DBBatchSize,
		EmailBatch: cfg.Queue.EmailBatchSize,
		Capacity:   cfg.Queue.Capacity,
	}) {
		if err := manager.Register(q); err != nil {
			return nil, err
		}
	}
	emitter.RegisterHandler(manager)

	return &application{
		config:        cfg,
		logger:        log,
		emitter:       emitter,
		subscriptions: subscriptions,
		manager:       manager,
		correlator:    correlator,
		jobs:          p,
	}, nil
}

// newLLM builds the text generator and the embedder. Gemini is always used;
// Groq is tried second when an API key is configured.
func newLLM(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (generation.Generator, generation.Embedder, error) {
	policy := gemini.PolicyFromConfig(cfg)

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return nil, nil, err
	}

	primary, err := gemini.NewGenerator(client, cfg.GeminiModel,
		throttle.PerMinute(cfg.CallsPerMinute, throttle.WithName("gemini")), policy, log)
	if err != nil {
		return nil, nil, err
	}
	generators := []generation.Generator{primary}

	if cfg.GroqAPIKey != "" {
		pool, err := groq.NewPool(cfg.GroqModels, cfg.GroqModelBudget)
		if err != nil {
			return nil, nil, err
		}
		secondary, err := groq.NewGenerator(cfg.GroqAPIKey, cfg.GroqBaseURL, pool,
			throttle.PerMinute(cfg.CallsPerMinute, throttle.WithName("groq")), policy, log)
		if err != nil {
			return nil, nil, err
		}
		generators = append(generators, secondary)
	} else {
		log.Info("groq API key not set, using gemini only")
	}

	embedder, err := gemini.NewEmbedder(client, cfg.EmbeddingModel, cfg.EmbeddingDimensions,
		throttle.All(
			throttle.PerMinute(cfg.EmbeddingsPerMinute, throttle.WithName("embeddings_minute")),
			throttle.New(cfg.EmbeddingsPerMonth, monthWindow, throttle.WithName("embeddings_month")),
		), policy, log)
	if err != nil {
		return nil, nil, err
	}

	return generation.Fallback(log, generators...), embedder, nil
}

func pipelineConfig(cfg *config.Config) pipeline.Config {
	return pipeline.Config{
		JobSearchURL: cfg.Scraper.JobSearchURL,
		JobSelectors: scrape.Source{
			ItemSelector:  cfg.Scraper.JobItemSelector,
			TitleSelector: cfg.Scraper.JobTitleSelector,
			LinkSelector:  cfg.Scraper.JobLinkSelector,
			BodySelector:  cfg.Scraper.JobBodySelector,
		},
		ScholarshipSources:  scrape.ScholarshipSources,
		MaxListings:         cfg.Scraper.MaxListings,
		ResultWait:          time.Duration(cfg.Queue.ResultWaitSeconds) * time.Second,
		ExtractionBatchSize: cfg.Queue.ExtractionBatchSize,
		BCCBatchSize:        cfg.Mail.BCCBatchSize,
	}
}
