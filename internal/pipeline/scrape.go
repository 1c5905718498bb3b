package pipeline

import (
	"context"
	"fmt"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/scrape"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// ScrapeHandler consumes scrape tasks and posts a task.ScrapeResult for
// each. A failed scrape still posts a result so its waiter is released.
func (p *Pipeline) ScrapeHandler() task.Handler {
	return task.HandlerFunc(func(ctx context.Context, tasks []*task.Task) error {
		return p.forEach(ctx, tasks, p.handleScrape)
	})
}

func (p *Pipeline) handleScrape(ctx context.Context, t *task.Task) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	var req task.ScrapeRequest
	if err := t.Decode(&req); err != nil {
		return err
	}

	listings, err := p.runScrape(ctx, req)
	if err != nil {
		log.WarnContext(ctx, "scrape failed", "error", err)
		if postErr := p.postResult(ctx, t.ID, task.ScrapeResult{Error: err.Error()}); postErr != nil {
			return postErr
		}
		return err
	}

	log.InfoContext(ctx, "scrape finished", "listings", len(listings))
	return p.postResult(ctx, t.ID, task.ScrapeResult{Listings: listings})
}

func (p *Pipeline) runScrape(ctx context.Context, req task.ScrapeRequest) ([]domain.Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 || limit > p.cfg.MaxListings {
		limit = p.cfg.MaxListings
	}

	var src scrape.Source
	if req.Query != nil {
		q := *req.Query
		if err := q.Validate(p.cfg.MaxListings); err != nil {
			return nil, err
		}
		if q.ResultsWanted > 0 && q.ResultsWanted < limit {
			limit = q.ResultsWanted
		}
		src = scrape.JobBoard(p.cfg.JobSearchURL, q, p.cfg.JobSelectors)
	} else {
		var err error
		src, err = scrape.SourceByName(p.cfg.ScholarshipSources, req.Source)
		if err != nil {
			return nil, err
		}
	}

	listings, err := p.deps.Scraper.Scrape(ctx, src, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", src.Name, err)
	}
	return listings, nil
}
