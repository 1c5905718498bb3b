package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"github.com/phrazzld/jobscout-api/internal/resume"
	"github.com/phrazzld/jobscout-api/internal/task"
)

// UserHandler consumes user tasks: it extracts the résumé text, queues the
// user upsert and the welcome mail, and posts a task.SignupResult.
func (p *Pipeline) UserHandler() task.Handler {
	return task.HandlerFunc(func(ctx context.Context, tasks []*task.Task) error {
		return p.forEach(ctx, tasks, p.handleSignup)
	})
}

func (p *Pipeline) handleSignup(ctx context.Context, t *task.Task) error {
	log := logger.FromContextOrDefault(ctx, p.logger)

	var payload task.SignupPayload
	if err := t.Decode(&payload); err != nil {
		return err
	}

	user, err := p.onboard(ctx, payload)
	if err != nil {
		log.WarnContext(ctx, "signup failed", "error", err)
		p.logEvent(ctx, slog.LevelWarn, "signup failed", map[string]any{"task_id": t.ID.String()})
		if postErr := p.postResult(ctx, t.ID, task.SignupResult{
			Status: task.StatusFailed,
			Email:  payload.Email,
			Error:  err.Error(),
		}); postErr != nil {
			return postErr
		}
		return err
	}

	log.InfoContext(ctx, "user onboarded", "user_id", user.ID)
	return p.postResult(ctx, t.ID, task.SignupResult{Status: task.StatusSubscribed, Email: user.Email})
}

func (p *Pipeline) onboard(ctx context.Context, payload task.SignupPayload) (*domain.User, error) {
	text, err := resume.ExtractText(payload.ResumePDF)
	if err != nil {
		return nil, fmt.Errorf("failed to read résumé: %w", err)
	}

	user, err := domain.NewUser(payload.Email, payload.Username, text)
	if err != nil {
		return nil, err
	}

	if err := p.emitWrite(ctx, CollectionUsers, task.OpUpsert, "", user); err != nil {
		return nil, err
	}

	if _, err := p.emit(ctx, task.TypeEmail, task.EmailPayload{
		Kind:       task.EmailWelcome,
		To:         user.Email,
		Username:   user.Username,
		ResumeText: user.ResumeText,
	}); err != nil {
		return nil, err
	}
	return user, nil
}
