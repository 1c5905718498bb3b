package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/store"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// JobDigest runs the daily job search for every subscribed user. A user
// whose run fails is logged and skipped; the failures are returned joined.
func (p *Pipeline) JobDigest(ctx context.Context) error {
	log := p.logger.With("run", "job_digest")
	ctx = logger.WithLogger(ctx, log)

	users, err := p.deps.Users.ListSubscribed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}
	log.InfoContext(ctx, "starting job digest", "users", len(users))

	var errs []error
	sent := 0
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}

		userCtx := logger.WithLogger(ctx, log.With("user_id", user.ID))
		count, err := p.digestForUser(userCtx, user)
		if err != nil {
			log.ErrorContext(ctx, "job digest failed for user", "user_id", user.ID, "error", err)
			errs = append(errs, fmt.Errorf("user %s: %w", user.ID, err))
			continue
		}
		sent += count
	}

	log.InfoContext(ctx, "job digest finished", "users", len(users), "jobs", sent, "failed", len(errs))
	return errors.Join(errs...)
}

// digestForUser searches, extracts and mails jobs for user and returns the
// number of jobs sent.
func (p *Pipeline) digestForUser(ctx context.Context, user *domain.User) (int, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	query, err := p.jobQuery(ctx, user.ResumeText)
	if err != nil {
		return 0, err
	}

	listings, err := p.scrapeAndWait(ctx, task.ScrapeRequest{Query: &query, Limit: query.ResultsWanted})
	if err != nil {
		return 0, err
	}

	fresh := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		key, err := l.DedupKey()
		if err != nil {
			continue
		}
		exists, err := p.deps.Documents.ExistsByDedupKey(ctx, CollectionJobs, userJobKey(key, user.Email))
		if err != nil {
			return 0, fmt.Errorf("failed to check for sent jobs: %w", err)
		}
		if !exists {
			fresh = append(fresh, l)
		}
	}
	log.InfoContext(ctx, "scraped job listings",
		"search_term", query.SearchTerm,
		"listings", len(listings),
		"new", len(fresh))

	sent := 0
	for start := 0; start < len(fresh); start += p.cfg.ExtractionBatchSize {
		batch := fresh[start:min(start+p.cfg.ExtractionBatchSize, len(fresh))]
		jobs, err := p.extractJobs(ctx, batch, user.Email)
		if len(jobs) > 0 {
			if pubErr := p.publishJobs(ctx, user, jobs); pubErr != nil {
				return sent, pubErr
			}
			sent += len(jobs)
		}
		if err != nil {
			return sent, err
		}
	}
	return sent, nil
}

func (p *Pipeline) jobQuery(ctx context.Context, resumeText string) (domain.JobQuery, error) {
	var q domain.JobQuery
	prompt, err := generation.JobQueryPrompt(resumeText, p.cfg.MaxListings)
	if err != nil {
		return q, err
	}
	if err := p.deps.Generator.Generate(ctx, prompt, &q); err != nil {
		return q, fmt.Errorf("failed to derive job query: %w", err)
	}
	if err := q.Validate(p.cfg.MaxListings); err != nil {
		return q, fmt.Errorf("failed to derive job query: %w", err)
	}
	return q, nil
}

// scrapeAndWait queues a scrape task and waits for its result.
func (p *Pipeline) scrapeAndWait(ctx context.Context, req task.ScrapeRequest) ([]domain.Listing, error) {
	id, err := p.emit(ctx, task.TypeScrape, req)
	if err != nil {
		return nil, err
	}
	return p.awaitListings(ctx, id)
}

func (p *Pipeline) awaitListings(ctx context.Context, id uuid.UUID) ([]domain.Listing, error) {
	waitCtx, cancel := context.WithTimeout(ctx, p.cfg.ResultWait)
	defer cancel()

	result, err := p.deps.Correlator.Wait(waitCtx, id)
	if err != nil {
		return nil, err
	}

	var scraped task.ScrapeResult
	if err := result.Decode(&scraped); err != nil {
		return nil, fmt.Errorf("failed to decode scrape result: %w", err)
	}
	if scraped.Error != "" {
		return nil, fmt.Errorf("scrape task %s failed: %s", id, scraped.Error)
	}
	return scraped.Listings, nil
}

// publishJobs stores, mails and indexes one extraction batch.
func (p *Pipeline) publishJobs(ctx context.Context, user *domain.User, jobs []extractedJob) error {
	digest := make([]domain.Job, 0, len(jobs))
	texts := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if err := p.emitWrite(ctx, CollectionJobs, task.OpInsert, userJobKey(j.listingKey, user.Email), j.job.ForStorage()); err != nil {
			return err
		}
		digest = append(digest, j.job)
		texts = append(texts, j.job.EmbeddingText())
	}

	if _, err := p.emit(ctx, task.TypeEmail, task.EmailPayload{
		Kind:     task.EmailJobs,
		To:       user.Email,
		Username: user.Username,
		Jobs:     digest,
	}); err != nil {
		return err
	}

	return p.indexJobs(ctx, jobs, texts)
}

// indexJobs embeds the jobs into the vector index. Embedding failures are
// logged; the digest has already been queued.
func (p *Pipeline) indexJobs(ctx context.Context, jobs []extractedJob, texts []string) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	values, err := p.deps.Embedder.Embed(ctx, texts)
	if err != nil {
		log.WarnContext(ctx, "failed to embed jobs", "count", len(texts), "error", err)
		return nil
	}

	vectors := make([]store.Vector, len(jobs))
	for i, j := range jobs {
		vectors[i] = store.Vector{
			ID:       j.listingKey,
			Values:   values[i],
			Metadata: jobMetadata(j.job),
		}
	}
	if err := p.deps.Vectors.Upsert(ctx, JobNamespace, vectors); err != nil {
		log.WarnContext(ctx, "failed to index jobs", "count", len(vectors), "error", err)
	}
	return nil
}

func jobMetadata(j domain.Job) map[string]any {
	return map[string]any{
		"job_title":       j.JobTitle,
		"link":            j.Link,
		"location":        j.Location,
		"qualifications":  strings.Join(j.Qualifications, ", "),
		"required_skills": strings.Join(j.RequiredSkills, ", "),
		"salary_range":    j.SalaryRange,
		"keywords":        strings.Join(j.Keywords, ", "),
	}
}

// userJobKey scopes a listing key to the user the job was sent to, so the
// same posting can reach several users but each only once.
func userJobKey(listingKey, email string) string {
	key, err := domain.DedupKey(email, listingKey)
	if err != nil {
		return listingKey
	}
	return key
}
