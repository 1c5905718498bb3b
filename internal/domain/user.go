package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a subscriber of the daily digests. The résumé text drives the
// job search query generated for them.
type User struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	ResumeText string    `json:"resume_text"`
	Subscribed bool      `json:"subscribed"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewUser creates a subscribed User with a fresh ID and timestamps.
// Returns an error if validation fails.
func NewUser(email, username, resumeText string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:         uuid.New(),
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Username:   strings.TrimSpace(username),
		ResumeText: resumeText,
		Subscribed: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return ErrEmptyUserID
	}

	if u.Email == "" {
		return ErrEmptyEmail
	}

	if !ValidEmail(u.Email) {
		return ErrInvalidEmail
	}

	if u.Username == "" {
		return ErrEmptyUsername
	}

	if strings.TrimSpace(u.ResumeText) == "" {
		return ErrEmptyResume
	}

	return nil
}

// ValidEmail performs a basic structural check: a non-empty local part, an
// @, and a domain with an inner dot.
func ValidEmail(email string) bool {
	atIndex := strings.IndexByte(email, '@')
	if atIndex <= 0 || atIndex == len(email)-1 || strings.Count(email, "@") != 1 {
		return false
	}

	domainPart := email[atIndex+1:]
	if len(domainPart) < 3 { // minimum would be "a.b"
		return false
	}

	dotIndex := strings.IndexByte(domainPart, '.')
	if dotIndex <= 0 || strings.HasSuffix(domainPart, ".") {
		return false
	}

	return true
}
