package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/retry"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// maxBodyBytes bounds the size of a fetched page.
const maxBodyBytes = 5 << 20

// ErrInvalidURL is returned for URLs without a scheme or host.
var ErrInvalidURL = errors.New("invalid URL")

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	// RequestsPerSecond paces requests to each host.
	RequestsPerSecond float64
	// Concurrency caps in-flight requests across all hosts.
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
	Policy      retry.Policy
}

// Fetcher downloads pages politely.
type Fetcher struct {
	client    *http.Client
	userAgent string
	rps       float64
	sem       *semaphore.Weighted
	policy    retry.Policy
	logger    *slog.Logger

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig, log *slog.Logger) *Fetcher {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 3
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		rps:       cfg.RequestsPerSecond,
		sem:       semaphore.NewWeighted(int64(cfg.Concurrency)),
		policy:    cfg.Policy,
		logger:    log.With(slog.String("component", "fetcher")),
		hosts:     make(map[string]*rate.Limiter),
	}
}

func (f *Fetcher) hostLimiter(host string) *rate.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.hosts[host]
	if !ok {
		l = rate.NewLimiter(rate.Limit(f.rps), 1)
		f.hosts[host] = l
	}
	return l
}

// Fetch returns the body of rawURL. Responses outside 2xx are returned as
// *retry.HTTPStatusError; 429 and 5xx responses are retried.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	log := logger.FromContextOrDefault(ctx, f.logger)
	limiter := f.hostLimiter(u.Host)

	var body []byte
	err = retry.Do(ctx, f.policy, log, func(ctx context.Context) error {
		if err := f.sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer f.sem.Release(1)

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		b, err := f.get(ctx, u.String())
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	log.DebugContext(ctx, "fetched page", "url", rawURL, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &retry.HTTPStatusError{URL: rawURL, Status: resp.StatusCode}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, statusErr
		}
		return nil, retry.Permanent(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}
