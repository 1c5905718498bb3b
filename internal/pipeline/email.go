package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/generation"
	"github.com/phrazzld/jobscout-api/internal/mailer"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// scholarshipsPerMail caps the scholarships listed in one digest.
const scholarshipsPerMail = 10

// EmailHandler consumes email tasks. Job digests for the same recipient in
// one batch are merged into a single mail.
func (p *Pipeline) EmailHandler() task.Handler {
	return task.HandlerFunc(func(ctx context.Context, tasks []*task.Task) error {
		log := logger.FromContextOrDefault(ctx, p.logger)

		var errs []error
		var payloads []task.EmailPayload
		for _, t := range tasks {
			var payload task.EmailPayload
			if err := t.Decode(&payload); err != nil {
				errs = append(errs, err)
				continue
			}
			if err := payload.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("task %s: invalid email: %w", t.ID, err))
				continue
			}
			payloads = append(payloads, payload)
		}

		for _, payload := range mergeJobDigests(payloads) {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if err := p.sendEmail(ctx, payload); err != nil {
				log.ErrorContext(ctx, "failed to send email", "kind", string(payload.Kind), "error", err)
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// mergeJobDigests folds job digests addressed to the same recipient into
// the first one. Other kinds pass through in order.
func mergeJobDigests(payloads []task.EmailPayload) []task.EmailPayload {
	merged := make([]task.EmailPayload, 0, len(payloads))
	byRecipient := make(map[string]int)
	for _, payload := range payloads {
		if payload.Kind != task.EmailJobs {
			merged = append(merged, payload)
			continue
		}
		if i, ok := byRecipient[payload.To]; ok {
			merged[i].Jobs = append(merged[i].Jobs, payload.Jobs...)
			continue
		}
		byRecipient[payload.To] = len(merged)
		payload.Jobs = append([]domain.Job(nil), payload.Jobs...)
		merged = append(merged, payload)
	}
	return merged
}

func (p *Pipeline) sendEmail(ctx context.Context, payload task.EmailPayload) error {
	var msgs []*mailer.Message
	var err error

	switch payload.Kind {
	case task.EmailWelcome:
		msgs, err = p.welcomeMail(ctx, payload)
	case task.EmailJobs:
		msgs, err = p.jobDigestMail(ctx, payload)
	case task.EmailScholarships:
		msgs, err = p.scholarshipMails(payload)
	}
	if err != nil {
		return err
	}
	return p.deps.Sender.Send(ctx, msgs...)
}

func (p *Pipeline) welcomeMail(ctx context.Context, payload task.EmailPayload) ([]*mailer.Message, error) {
	log := logger.FromContextOrDefault(ctx, p.logger)

	var greeting generation.WelcomeMessage
	prompt, err := generation.WelcomePrompt(payload.Username, payload.ResumeText)
	if err == nil {
		err = p.deps.Generator.Generate(ctx, prompt, &greeting)
	}
	if err != nil {
		log.WarnContext(ctx, "using default welcome message", "error", err)
		greeting = generation.WelcomeMessage{}
	}

	msg, err := mailer.Welcome(payload.To, greeting.Subject, greeting.Message, p.unsubscribeURL(ctx, payload.To))
	if err != nil {
		return nil, err
	}
	return []*mailer.Message{msg}, nil
}

func (p *Pipeline) jobDigestMail(ctx context.Context, payload task.EmailPayload) ([]*mailer.Message, error) {
	msg, err := mailer.JobDigest(payload.To, payload.Username, payload.Jobs, p.unsubscribeURL(ctx, payload.To))
	if err != nil {
		return nil, err
	}
	return []*mailer.Message{msg}, nil
}

// scholarshipMails builds one digest per recipient batch and chunk of
// scholarships.
func (p *Pipeline) scholarshipMails(payload task.EmailPayload) ([]*mailer.Message, error) {
	var msgs []*mailer.Message
	for start := 0; start < len(payload.Scholarships); start += scholarshipsPerMail {
		items := payload.Scholarships[start:min(start+scholarshipsPerMail, len(payload.Scholarships))]
		for _, recipients := range mailer.Batch(payload.Recipients, p.cfg.BCCBatchSize) {
			msg, err := mailer.ScholarshipDigest(recipients, items)
			if err != nil {
				return nil, err
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// unsubscribeURL returns the recipient's unsubscribe link, or "" when none
// can be signed.
func (p *Pipeline) unsubscribeURL(ctx context.Context, email string) string {
	link, err := p.deps.Subscriptions.UnsubscribeURL(ctx, email)
	if err != nil {
		logger.FromContextOrDefault(ctx, p.logger).WarnContext(ctx, "sending without unsubscribe link", "error", err)
		return ""
	}
	return link
}
