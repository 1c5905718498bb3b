package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/jobscout-api/internal/task"
	"github.com/robfig/cron/v3"
)

// resultMaxAge is how long a posted result may wait for its consumer before
// the correlator drops it.
const resultMaxAge = time.Hour

// scheduledJobs are the periodic runs started by the cron scheduler.
type scheduledJobs interface {
	JobDigest(ctx context.Context) error
	ScholarshipCheck(ctx context.Context) error
}

// cronSlogLogger adapts the cron logger interface to slog. Cron reports
// every schedule and wake-up at info level, which is logged as debug.
type cronSlogLogger struct {
	logger *slog.Logger
}

func (l cronSlogLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronSlogLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}

// newScheduler registers the job digest and scholarship check on their cron
// specs. Runs use ctx, so cancelling it aborts a run in progress. A run is
// skipped while the previous run of the same job is still going.
func newScheduler(
	ctx context.Context,
	jobDigestSpec, scholarshipSpec string,
	jobs scheduledJobs,
	log *slog.Logger,
) (*cron.Cron, error) {
	log = log.With("component", "scheduler")
	cronLog := cronSlogLogger{logger: log}

	c := cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	runs := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{name: "job_digest", spec: jobDigestSpec, fn: jobs.JobDigest},
		{name: "scholarship_check", spec: scholarshipSpec, fn: jobs.ScholarshipCheck},
	}
	for _, run := range runs {
		if _, err := c.AddFunc(run.spec, scheduledRun(ctx, run.name, run.fn, log)); err != nil {
			return nil, fmt.Errorf("invalid %s schedule %q: %w", run.name, run.spec, err)
		}
		log.Info("scheduled run", "run", run.name, "spec", run.spec)
	}
	return c, nil
}

func scheduledRun(ctx context.Context, name string, fn func(context.Context) error, log *slog.Logger) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		log.Info("scheduled run started", "run", name)
		if err := fn(ctx); err != nil {
			log.Error("scheduled run failed", "run", name, "error", err,
				"duration_ms", time.Since(start).Milliseconds())
			return
		}
		log.Info("scheduled run finished", "run", name,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// runScheduler starts c and stops it when ctx is done, waiting for running
// jobs to return.
func runScheduler(ctx context.Context, c *cron.Cron) error {
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// selfPing requests publicURL/ping every interval until ctx is done, keeping
// hosting platforms that idle quiet services awake. Failures are logged.
func selfPing(ctx context.Context, client *http.Client, publicURL string, interval time.Duration, log *slog.Logger) error {
	if interval <= 0 {
		return nil
	}
	target := strings.TrimRight(publicURL, "/") + "/ping"
	log = log.With("component", "self_ping", "url", target)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := ping(ctx, client, target); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Warn("self ping failed", "error", err)
				continue
			}
			log.Debug("self ping succeeded")
		}
	}
}

func ping(ctx context.Context, client *http.Client, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

// expireResults periodically drops correlator results nobody claimed.
func expireResults(ctx context.Context, c *task.Correlator, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Expire(maxAge)
		}
	}
}
