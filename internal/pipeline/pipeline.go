package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/mailer"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/scrape"
	"github.com/phrazzld/jobscout-api/internal/service"
	"github.com/phrazzld/jobscout-api/internal/store"
	"github.com/phrazzld/jobscout-api/internal/task"
	"github.com/phrazzld/jobscout-api/internal/throttle"
)

// Collections written through db tasks.
const (
	CollectionUsers        = "users"
	CollectionJobs         = scrape.CollectionJobs
	CollectionScholarships = scrape.CollectionScholarships
)

// JobNamespace partitions job embeddings in the vector index.
const JobNamespace = "job"

// ListingScraper collects listings from a source.
type ListingScraper interface {
	Scrape(ctx context.Context, src scrape.Source, limit int) ([]domain.Listing, error)
}

// Deps are the collaborators used by the pipeline.
type Deps struct {
	Emitter       events.EventEmitter
	Correlator    *task.Correlator
	DB            store.TxBeginner
	Users         store.UserStore
	Documents     store.DocumentStore
	Vectors       store.VectorIndex
	Generator     generation.Generator
	Embedder      generation.Embedder
	Scraper       ListingScraper
	Sender        mailer.Sender
	Subscriptions service.SubscriptionService
	// ExtractGate paces per-listing extraction calls.
	ExtractGate throttle.Gate
}

func (d Deps) validate() error {
	var missing []string
	check := func(name string, isNil bool) {
		if isNil {
			missing = append(missing, name)
		}
	}
	check("emitter", d.Emitter == nil)
	check("correlator", d.Correlator == nil)
	check("db", d.DB == nil)
	check("users", d.Users == nil)
	check("documents", d.Documents == nil)
	check("vectors", d.Vectors == nil)
	check("generator", d.Generator == nil)
	check("embedder", d.Embedder == nil)
	check("scraper", d.Scraper == nil)
	check("sender", d.Sender == nil)
	check("subscriptions", d.Subscriptions == nil)
	check("extract gate", d.ExtractGate == nil)
	if len(missing) > 0 {
		return fmt.Errorf("pipeline dependencies missing: %v", missing)
	}
	return nil
}

// Config tunes the pipeline.
type Config struct {
	// JobSearchURL is the job board search template, see scrape.JobBoard.
	JobSearchURL string
	// JobSelectors are the selectors used on the job board.
	JobSelectors scrape.Source
	// ScholarshipSources are checked by ScholarshipCheck.
	ScholarshipSources []scrape.Source
	// MaxListings caps the listings taken from one scrape.
	MaxListings int
	// ResultWait bounds how long a digest waits for its scrape.
	ResultWait time.Duration
	// ExtractionBatchSize is the number of listings extracted before the
	// batch is persisted and mailed.
	ExtractionBatchSize int
	// BCCBatchSize caps the recipients of one scholarship digest.
	BCCBatchSize int
}

func (c Config) withDefaults() Config {
	if c.MaxListings <= 0 {
		c.MaxListings = 20
	}
	if c.ResultWait <= 0 {
		c.ResultWait = 10 * time.Minute
	}
	if c.ExtractionBatchSize <= 0 {
		c.ExtractionBatchSize = 10
	}
	if c.BCCBatchSize <= 0 {
		c.BCCBatchSize = 10
	}
	return c
}

// Pipeline implements the queue handlers and the scheduled runs.
type Pipeline struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline. Every dependency is required.
func New(deps Deps, cfg Config, log *slog.Logger) (*Pipeline, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if cfg.JobSearchURL == "" {
		return nil, errors.New("job search url is required")
	}
	return &Pipeline{
		deps:   deps,
		cfg:    cfg.withDefaults(),
		logger: log.With("component", "pipeline"),
	}, nil
}

// QueueSizes sets the batching of the queues built by Queues.
type QueueSizes struct {
	// DBBatch is the flush threshold of the db queue.
	DBBatch int
	// EmailBatch is the flush threshold of the email queue. Job digests to
	// one recipient within a batch go out as one mail.
	EmailBatch int
	// Capacity bounds every queue; zero means unbounded.
	Capacity int
}

// Queues builds the queue of every task type: the pipeline's own handlers
// plus the result queue feeding the correlator and the log queue. Only the
// db and email queues batch.
func (p *Pipeline) Queues(sizes QueueSizes) []*task.Queue {
	handlers := []struct {
		typ     task.Type
		handler task.Handler
	}{
		{task.TypeUser, p.UserHandler()},
		{task.TypeScrape, p.ScrapeHandler()},
		{task.TypeDB, p.DBHandler()},
		{task.TypeEmail, p.EmailHandler()},
		{task.TypeResult, task.ResultHandler(p.deps.Correlator)},
		{task.TypeLog, task.LogHandler(p.logger)},
	}

	queues := make([]*task.Queue, 0, len(handlers))
	for _, h := range handlers {
		batch := 1
		switch h.typ {
		case task.TypeDB:
			batch = sizes.DBBatch
		case task.TypeEmail:
			batch = sizes.EmailBatch
		}
		queues = append(queues, task.NewQueue(task.QueueConfig{
			Type:      h.typ,
			BatchSize: batch,
			Capacity:  sizes.Capacity,
		}, h.handler, p.logger))
	}
	return queues
}

// emit publishes a follow-up task.
func (p *Pipeline) emit(ctx context.Context, taskType task.Type, payload any) (uuid.UUID, error) {
	id, err := events.Emit(ctx, p.deps.Emitter, string(taskType), payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to emit %s task: %w", taskType, err)
	}
	return id, nil
}

// emitWrite queues a db task writing data to collection.
func (p *Pipeline) emitWrite(ctx context.Context, collection string, op task.Operation, dedupKey string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s document: %w", collection, err)
	}
	_, err = p.emit(ctx, task.TypeDB, task.DBOperation{
		Collection: collection,
		Operation:  op,
		DedupKey:   dedupKey,
		Data:       raw,
	})
	return err
}

// postResult publishes data as the result of task id through the result
// queue.
func (p *Pipeline) postResult(ctx context.Context, id uuid.UUID, data any) error {
	result, err := task.NewResult(id, data)
	if err != nil {
		return err
	}
	_, err = p.emit(ctx, task.TypeResult, task.ResultPayload{TaskID: result.ID, Data: result.Data})
	return err
}

// logEvent publishes a structured entry to the log queue. Failures are
// logged locally.
func (p *Pipeline) logEvent(ctx context.Context, level slog.Level, msg string, attrs map[string]any) {
	entry := task.LogEntry{Level: level.String(), Message: msg, Attrs: attrs}
	if _, err := p.emit(ctx, task.TypeLog, entry); err != nil {
		p.logger.WarnContext(ctx, "failed to publish log entry", "message", msg, "error", err)
	}
}

// forEach runs fn for every task with a task scoped logger in the context
// and joins the errors. A failing task does not stop the rest of the batch.
func (p *Pipeline) forEach(
	ctx context.Context,
	tasks []*task.Task,
	fn func(ctx context.Context, t *task.Task) error,
) error {
	var errs []error
	for _, t := range tasks {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		taskLog := p.logger.With("task_id", t.ID, "task_type", string(t.Type))
		if err := fn(logger.WithLogger(ctx, taskLog), t); err != nil {
			errs = append(errs, fmt.Errorf("task %s: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}
