package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Run starts the queues, the scheduler, the self-ping loop and the HTTP
// server, and blocks until ctx is cancelled or one of them fails.
func (app *application) Run(ctx context.Context) error {
	scheduler, err := newScheduler(ctx,
		app.config.Schedule.JobDigestCron,
		app.config.Schedule.ScholarshipCron,
		app.jobs,
		app.logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.manager.Run(gctx)
	})
	g.Go(func() error {
		return runScheduler(gctx, scheduler)
	})
	g.Go(func() error {
		interval := time.Duration(app.config.Schedule.SelfPingIntervalSecs) * time.Second
		client := &http.Client{Timeout: 30 * time.Second}
		return selfPing(gctx, client, app.config.Server.PublicURL, interval, app.logger)
	})
	g.Go(func() error {
		return expireResults(gctx, app.correlator, time.Minute, resultMaxAge)
	})
	g.Go(func() error {
		return app.startHTTPServer(gctx, app.setupRouter())
	})

	err = g.Wait()
	app.manager.Close()
	app.logger.Info("server shutdown completed")
	return err
}

// startHTTPServer serves handler until ctx is done, then shuts the server
// down gracefully.
func (app *application) startHTTPServer(ctx context.Context, handler http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
