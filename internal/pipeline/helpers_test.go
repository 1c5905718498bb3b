package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/mocks"
	"github.com/phrazzld/jobscout-api/internal/scrape"
	"github.com/phrazzld/jobscout-api/internal/task"
	"github.com/phrazzld/jobscout-api/internal/testutils"
	"github.com/phrazzld/jobscout-api/internal/throttle"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

// stubScraper serves listings per source name.
type stubScraper struct {
	ScrapeFn func(ctx context.Context, src scrape.Source, limit int) ([]domain.Listing, error)

	mu      sync.Mutex
	sources []scrape.Source
}

func (s *stubScraper) Scrape(ctx context.Context, src scrape.Source, limit int) ([]domain.Listing, error) {
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	if s.ScrapeFn != nil {
		return s.ScrapeFn(ctx, src, limit)
	}
	return nil, nil
}

func (s *stubScraper) Sources() []scrape.Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]scrape.Source(nil), s.sources...)
}

// routingGenerator answers each prompt kind with a canned reply.
func routingGenerator() *mocks.MockGenerator {
	return &mocks.MockGenerator{
		GenerateFn: func(_ context.Context, prompt string, out any) error {
			var reply string
			switch {
			case strings.HasPrefix(prompt, "You are a job research expert"):
				reply = `{"search_term": "go developer", "location": "Lisbon", "results_wanted": 5, "is_remote": true}`
			case strings.HasPrefix(prompt, "You are a job data extraction specialist"):
				switch {
				case strings.Contains(prompt, "/jobs/broken"):
					reply = `{"job_title": "", "job_description": ""}`
				case strings.Contains(prompt, "/jobs/1"):
					reply = jobReply("Backend Engineer")
				case strings.Contains(prompt, "/jobs/2"):
					reply = jobReply("Platform Engineer")
				default:
					return generation.ErrInvalidResponse
				}
			case strings.HasPrefix(prompt, "You are an expert email composition agent"):
				reply = `{"subject": "Welcome Ada", "message": "Your Go experience stands out."}`
			case strings.HasPrefix(prompt, "You are an expert at extracting scholarship"):
				reply = `{"content": "Fully funded masters study", "application_link": "Not specified"}`
			default:
				return generation.ErrInvalidResponse
			}
			return generation.DecodeJSON(reply, out)
		},
	}
}

func jobReply(title string) string {
	return fmt.Sprintf(`{
		"job_title": %q,
		"job_description": "Build services in Go",
		"required_skills": ["Go", "PostgreSQL"],
		"location": "Remote",
		"salary_range": "Not specified",
		"link": "Not specified"
	}`, title)
}

func listing(source, title, link string) domain.Listing {
	return domain.Listing{Source: source, Title: title, Link: link, BodyMarkdown: "# " + title + "\n\nDetails."}
}

// testDeps returns a full set of in-memory collaborators.
func testDeps(t *testing.T, db *sql.DB) Deps {
	t.Helper()
	log := testutils.DiscardLogger()
	return Deps{
		Emitter:       events.NewInMemoryEventEmitter(log),
		Correlator:    task.NewCorrelator(log),
		DB:            db,
		Users:         mocks.NewMockUserStore(),
		Documents:     mocks.NewMockDocumentStore(),
		Vectors:       &mocks.MockVectorIndex{},
		Generator:     routingGenerator(),
		Embedder:      &mocks.MockEmbedder{Dimensions: 4},
		Scraper:       &stubScraper{},
		Sender:        &mocks.MockSender{},
		Subscriptions: &mocks.MockSubscriptionService{},
		ExtractGate:   throttle.PerMinute(10000),
	}
}

func testConfig() Config {
	return Config{
		JobSearchURL:        "https://jobs.test/search?q={query}&l={location}",
		JobSelectors:        scrape.Source{ItemSelector: "div.job", LinkSelector: "a"},
		MaxListings:         20,
		ResultWait:          waitFor,
		ExtractionBatchSize: 10,
		BCCBatchSize:        10,
	}
}

// harness runs a pipeline behind real queues, wired the way the server
// wires it.
type harness struct {
	p        *Pipeline
	emitter  events.EventEmitter
	users    *mocks.MockUserStore
	docs     *mocks.MockDocumentStore
	vectors  *mocks.MockVectorIndex
	embedder *mocks.MockEmbedder
	scraper  *stubScraper
	sender   *mocks.MockSender
}

func newHarness(t *testing.T, configure func(*Deps, *Config)) *harness {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	sqlMock.MatchExpectationsInOrder(false)
	for i := 0; i < 50; i++ {
		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()
	}
	// Each write sets a savepoint and then releases or rolls back to it.
	for i := 0; i < 1000; i++ {
		sqlMock.ExpectExec(`SAVEPOINT write_op`).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	deps := testDeps(t, db)
	cfg := testConfig()
	if configure != nil {
		configure(&deps, &cfg)
	}

	log := testutils.DiscardLogger()
	p, err := New(deps, cfg, log)
	require.NoError(t, err)

	manager := task.NewManager(log)
	for _, q := range p.Queues(QueueSizes{DBBatch: 1000, EmailBatch: 50}) {
		require.NoError(t, manager.Register(q))
	}
	emitter := deps.Emitter.(*events.InMemoryEventEmitter)
	emitter.RegisterHandler(manager)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- manager.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = db.Close()
	})

	return &harness{
		p:        p,
		emitter:  emitter,
		users:    deps.Users.(*mocks.MockUserStore),
		docs:     deps.Documents.(*mocks.MockDocumentStore),
		vectors:  deps.Vectors.(*mocks.MockVectorIndex),
		embedder: deps.Embedder.(*mocks.MockEmbedder),
		scraper:  deps.Scraper.(*stubScraper),
		sender:   deps.Sender.(*mocks.MockSender),
	}
}

// expectReleased expects one write that succeeds under its savepoint.
func expectReleased(m sqlmock.Sqlmock) {
	m.ExpectExec(`^SAVEPOINT write_op`).WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(`^RELEASE SAVEPOINT write_op`).WillReturnResult(sqlmock.NewResult(0, 0))
}

// expectRolledBackTo expects one write that is undone to its savepoint.
func expectRolledBackTo(m sqlmock.Sqlmock) {
	m.ExpectExec(`^SAVEPOINT write_op`).WillReturnResult(sqlmock.NewResult(0, 0))
	m.ExpectExec(`^ROLLBACK TO SAVEPOINT write_op`).WillReturnResult(sqlmock.NewResult(0, 0))
}

func mustUser(t *testing.T, email, username string) *domain.User {
	t.Helper()
	u, err := domain.NewUser(email, username, "Senior Go engineer with ten years of backend experience")
	require.NoError(t, err)
	return u
}

func mustTask(t *testing.T, typ task.Type, payload any) *task.Task {
	t.Helper()
	tk, err := task.New(typ, payload)
	require.NoError(t, err)
	return tk
}
