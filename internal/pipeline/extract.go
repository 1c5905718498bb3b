package pipeline

import (
	"context"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
)

// extractedJob is a job extracted from a listing with the key the listing
// is deduplicated by.
type extractedJob struct {
	job        domain.Job
	listingKey string
}

// extractJobs asks the generator for a job per listing. Listings that fail
// extraction or validation are skipped. Only cancellation of ctx is
// returned as an error.
func (p *Pipeline) extractJobs(ctx context.Context, listings []domain.Listing, email string) ([]extractedJob, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	jobs := make([]extractedJob, 0, len(listings))
	for _, listing := range listings {
		key, err := listing.DedupKey()
		if err != nil {
			log.WarnContext(ctx, "skipping listing without dedup key", "link", listing.Link)
			continue
		}

		if err := p.deps.ExtractGate.Wait(ctx); err != nil {
			return jobs, err
		}

		prompt, err := generation.JobExtractPrompt(listing)
		if err != nil {
			log.WarnContext(ctx, "skipping empty listing", "link", listing.Link)
			continue
		}

		var job domain.Job
		if err := p.deps.Generator.Generate(ctx, prompt, &job); err != nil {
			if ctx.Err() != nil {
				return jobs, ctx.Err()
			}
			log.WarnContext(ctx, "job extraction failed", "link", listing.Link, "error", err)
			continue
		}
		if err := job.Validate(); err != nil {
			log.WarnContext(ctx, "discarding invalid job", "link", listing.Link, "error", err)
			continue
		}

		if link := strings.TrimSpace(job.Link); link == "" || strings.EqualFold(link, domain.NotSpecified) {
			job.Link = listing.Link
		}
		job.Email = email
		jobs = append(jobs, extractedJob{job: job, listingKey: key})
	}
	return jobs, nil
}

// extractScholarship asks the generator for the scholarship in listing.
func (p *Pipeline) extractScholarship(ctx context.Context, listing domain.Listing) (domain.Scholarship, error) {
	var s domain.Scholarship

	text := listing.BodyMarkdown
	if strings.TrimSpace(text) == "" {
		text = listing.Title
	}
	prompt, err := generation.ScholarshipPrompt(text)
	if err != nil {
		return s, err
	}
	if err := p.deps.Generator.Generate(ctx, prompt, &s); err != nil {
		return s, err
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}
