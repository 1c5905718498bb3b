package generation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGenerator is a Generator driven by GenerateFn.
type stubGenerator struct {
	name       string
	calls      int
	GenerateFn func(ctx context.Context, prompt string, out any) error
}

func (s *stubGenerator) Name() string { return s.name }

func (s *stubGenerator) Generate(ctx context.Context, prompt string, out any) error {
	s.calls++
	return s.GenerateFn(ctx, prompt, out)
}

func replying(name, reply string) *stubGenerator {
	return &stubGenerator{name: name, GenerateFn: func(ctx context.Context, prompt string, out any) error {
		return DecodeJSON(reply, out)
	}}
}

func failing(name string, err error) *stubGenerator {
	return &stubGenerator{name: name, GenerateFn: func(context.Context, string, any) error { return err }}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{name: "plain", reply: `{"search_term":"go developer"}`},
		{name: "fenced", reply: "```json\n{\"search_term\":\"go developer\"}\n```"},
		{name: "bare fence", reply: "```\n{\"search_term\":\"go developer\"}\n```"},
		{name: "surrounded by prose", reply: "Here is the query:\n{\"search_term\":\"go developer\"}\nGood luck!"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var q domain.JobQuery
			require.NoError(t, DecodeJSON(tc.reply, &q))
			assert.Equal(t, "go developer", q.SearchTerm)
		})
	}

	t.Run("arrays", func(t *testing.T) {
		var items []string
		require.NoError(t, DecodeJSON(`Result: ["a","b"]`, &items))
		assert.Equal(t, []string{"a", "b"}, items)
	})

	for _, reply := range []string{"", "   ", "no json here", "{broken"} {
		var q domain.JobQuery
		assert.ErrorIs(t, DecodeJSON(reply, &q), ErrInvalidResponse, "reply %q", reply)
	}

	t.Run("type mismatch leaves out untouched", func(t *testing.T) {
		var job domain.Job
		err := DecodeJSON(`{"job_title":"Backend Engineer","job_description":42}`, &job)
		assert.ErrorIs(t, err, ErrInvalidResponse)
		assert.Equal(t, domain.Job{}, job)
	})
}

func TestFallbackUsesFirstSuccess(t *testing.T) {
	first := failing("groq", ErrModelsExhausted)
	second := replying("gemini", `{"content":"Fully funded","application_link":"https://x"}`)
	third := replying("spare", `{}`)

	var s domain.Scholarship
	err := Fallback(discardLogger(), first, second, third).Generate(context.Background(), "prompt", &s)
	require.NoError(t, err)

	assert.Equal(t, "Fully funded", s.Content)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestFallbackDiscardsPartialReplies(t *testing.T) {
	first := replying("gemini", `{"job_title":"Title From Rejected Reply","job_description":42}`)
	second := replying("groq", `{"job_description":"Build services in Go"}`)

	var job domain.Job
	err := Fallback(discardLogger(), first, second).Generate(context.Background(), "prompt", &job)
	require.NoError(t, err)

	assert.Empty(t, job.JobTitle)
	assert.Equal(t, "Build services in Go", job.JobDescription)
	assert.ErrorIs(t, job.Validate(), domain.ErrEmptyJobTitle)
}

func TestFallbackLeavesOutOnFailure(t *testing.T) {
	g := Fallback(discardLogger(), replying("gemini", `{"content":"Masters grant","application_link":7}`))

	s := domain.Scholarship{Content: "unchanged"}
	err := g.Generate(context.Background(), "prompt", &s)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Equal(t, "unchanged", s.Content)
}

func TestFallbackJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	g := Fallback(discardLogger(), failing("a", boom), failing("b", ErrContentBlocked))

	err := g.Generate(context.Background(), "prompt", &struct{}{})
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrContentBlocked)
	assert.Equal(t, "fallback", g.Name())
}

func TestFallbackStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	first := &stubGenerator{name: "a", GenerateFn: func(ctx context.Context, _ string, _ any) error {
		cancel()
		return ctx.Err()
	}}
	second := replying("b", `{}`)

	err := Fallback(discardLogger(), first, second).Generate(ctx, "prompt", &struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, second.calls)
}

func TestFallbackWithoutGenerators(t *testing.T) {
	err := Fallback(nil).Generate(context.Background(), "prompt", &struct{}{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPrompts(t *testing.T) {
	t.Run("job query", func(t *testing.T) {
		p, err := JobQueryPrompt("Senior Go engineer in Lagos", 25)
		require.NoError(t, err)
		assert.Contains(t, p, "Senior Go engineer in Lagos")
		assert.Contains(t, p, "at most 25")
		assert.Contains(t, p, "nigeria")
	})

	t.Run("job extract falls back to title", func(t *testing.T) {
		p, err := JobExtractPrompt(domain.Listing{Title: "Backend Engineer", Link: "https://jobs.example.com/1"})
		require.NoError(t, err)
		assert.Contains(t, p, "Backend Engineer")
		assert.Contains(t, p, "https://jobs.example.com/1")
	})

	t.Run("scholarship", func(t *testing.T) {
		p, err := ScholarshipPrompt("DAAD fellowship for 2025")
		require.NoError(t, err)
		assert.Contains(t, p, "DAAD fellowship for 2025")
	})

	t.Run("welcome", func(t *testing.T) {
		p, err := WelcomePrompt("ada", "Mathematician")
		require.NoError(t, err)
		assert.Contains(t, p, "Username: ada")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := JobQueryPrompt(" ", 25)
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		_, err = JobExtractPrompt(domain.Listing{})
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		_, err = ScholarshipPrompt("")
		assert.ErrorIs(t, err, ErrEmptyPrompt)
		_, err = WelcomePrompt("ada", "")
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	})
}
