package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/scrape"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// ScholarshipCheck scrapes every scholarship source, stores the listings
// not seen before and mails them to all subscribers in one digest. A
// failing source is logged and skipped.
func (p *Pipeline) ScholarshipCheck(ctx context.Context) error {
	log := p.logger.With("run", "scholarship_check")
	ctx = logger.WithLogger(ctx, log)

	seen := make(map[string]bool)
	var found []domain.Scholarship
	var errs []error
	for _, src := range p.cfg.ScholarshipSources {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		items, err := p.checkSource(ctx, src, seen)
		found = append(found, items...)
		if err != nil {
			log.ErrorContext(ctx, "scholarship source failed", "source", src.Name, "error", err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))
		}
	}

	if len(found) == 0 {
		log.InfoContext(ctx, "no new scholarships")
		return errors.Join(errs...)
	}

	users, err := p.deps.Users.ListSubscribed(ctx)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("failed to list subscribers: %w", err))...)
	}
	recipients := make([]string, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, u.Email)
	}
	if len(recipients) == 0 {
		log.InfoContext(ctx, "no subscribers for scholarship digest", "scholarships", len(found))
		return errors.Join(errs...)
	}

	if _, err := p.emit(ctx, task.TypeEmail, task.EmailPayload{
		Kind:         task.EmailScholarships,
		Recipients:   recipients,
		Scholarships: found,
	}); err != nil {
		errs = append(errs, err)
	}

	log.InfoContext(ctx, "scholarship check finished",
		"scholarships", len(found),
		"recipients", len(recipients))
	return errors.Join(errs...)
}

// checkSource returns the scholarships of src not stored yet and queues
// their inserts. seen tracks keys across sources of one run.
func (p *Pipeline) checkSource(ctx context.Context, src scrape.Source, seen map[string]bool) ([]domain.Scholarship, error) {
	log := logger.FromContextOrDefault(ctx, p.logger).With("source", src.Name)

	listings, err := p.scrapeAndWait(ctx, task.ScrapeRequest{Source: src.Name})
	if err != nil {
		return nil, err
	}

	var found []domain.Scholarship
	for _, listing := range listings {
		key, err := listing.DedupKey()
		if err != nil || seen[key] {
			continue
		}
		seen[key] = true

		exists, err := p.deps.Documents.ExistsByDedupKey(ctx, src.Collection, key)
		if err != nil {
			return found, fmt.Errorf("failed to check for stored listing: %w", err)
		}
		if exists {
			continue
		}

		if err := p.deps.ExtractGate.Wait(ctx); err != nil {
			return found, err
		}
		item, err := p.extractScholarship(ctx, listing)
		if err != nil {
			if ctx.Err() != nil {
				return found, ctx.Err()
			}
			log.WarnContext(ctx, "skipping listing", "link", listing.Link, "error", err)
			continue
		}
		item.ApplyListing(listing, key)

		if err := p.emitWrite(ctx, src.Collection, task.OpInsert, key, item); err != nil {
			return found, err
		}
		found = append(found, item)
	}

	log.InfoContext(ctx, "checked source", "listings", len(listings), "new", len(found))
	return found, nil
}
