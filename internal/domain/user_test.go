package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	user, err := NewUser("  Ada@Example.com ", " ada ", "Go engineer, 10 years")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "ada", user.Username)
	assert.True(t, user.Subscribed)
	assert.False(t, user.CreatedAt.IsZero())
	assert.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestUserValidate(t *testing.T) {
	valid := func() User {
		return User{
			ID:         uuid.New(),
			Email:      "test@example.com",
			Username:   "tester",
			ResumeText: "resume",
		}
	}

	tests := []struct {
		name   string
		mutate func(u *User)
		want   error
	}{
		{name: "valid", mutate: func(u *User) {}},
		{name: "missing id", mutate: func(u *User) { u.ID = uuid.Nil }, want: ErrEmptyUserID},
		{name: "missing email", mutate: func(u *User) { u.Email = "" }, want: ErrEmptyEmail},
		{name: "malformed email", mutate: func(u *User) { u.Email = "nobody" }, want: ErrInvalidEmail},
		{name: "missing username", mutate: func(u *User) { u.Username = "" }, want: ErrEmptyUsername},
		{name: "blank resume", mutate: func(u *User) { u.ResumeText = " \n" }, want: ErrEmptyResume},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := valid()
			tc.mutate(&u)
			err := u.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidEmail(t *testing.T) {
	for email, want := range map[string]bool{
		"a@b.co":          true,
		"first.last@x.io": true,
		"":                false,
		"@example.com":    false,
		"user@":           false,
		"user@nodot":      false,
		"user@.com":       false,
		"user@example.":   false,
		"a@b@c.com":       false,
	} {
		assert.Equal(t, want, ValidEmail(email), email)
	}
}

func TestJobQueryValidate(t *testing.T) {
	q := JobQuery{SearchTerm: "  golang developer ", ResultsWanted: 500, HoursOld: -1}
	require.NoError(t, q.Validate(25))
	assert.Equal(t, "golang developer", q.SearchTerm)
	assert.Equal(t, 25, q.ResultsWanted)
	assert.Equal(t, 0, q.HoursOld)

	empty := JobQuery{SearchTerm: "  "}
	assert.ErrorIs(t, empty.Validate(25), ErrEmptySearchTerm)
}

func TestJobForStorage(t *testing.T) {
	job := Job{
		JobTitle:       strings.Repeat("t", 300),
		JobDescription: strings.Repeat("d", LongFieldLimit+10),
		RequiredSkills: []string{"Go", " ", "SQL "},
		Keywords:       []string{"backend"},
		Location:       "Remote",
		SalaryRange:    "Not specified",
		Link:           "https://jobs.example.com/1",
	}

	stored := job.ForStorage()
	assert.Len(t, stored.JobTitle, ShortFieldLimit)
	assert.Len(t, stored.JobDescription, LongFieldLimit)
	assert.Equal(t, "Go|SQL", stored.RequiredSkills)
	assert.Equal(t, "backend", stored.Keywords)
	assert.Equal(t, "", stored.Responsibilities)
	assert.Equal(t, "Remote", stored.Location)
}

func TestTruncateKeepsRunes(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 5))
	assert.Equal(t, "hé", Truncate("héllo", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}

func TestJobValidate(t *testing.T) {
	assert.ErrorIs(t, (&Job{}).Validate(), ErrEmptyJobTitle)
	assert.ErrorIs(t, (&Job{JobTitle: "Engineer"}).Validate(), ErrEmptyContent)
	assert.NoError(t, (&Job{JobTitle: "Engineer", JobDescription: "Build things"}).Validate())
}

func TestJobEmbeddingText(t *testing.T) {
	text := Job{
		JobTitle:       "Engineer",
		JobDescription: "Build things",
		RequiredSkills: []string{"Go", "SQL"},
		Location:       "Berlin",
	}.EmbeddingText()

	assert.Contains(t, text, "Engineer\nBuild things")
	assert.Contains(t, text, "Skills: Go, SQL")
	assert.Contains(t, text, "Location: Berlin")
	assert.NotContains(t, text, "Keywords")
}
