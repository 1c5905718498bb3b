package task

import (
	"errors"

	"github.com/phrazzld/jobscout-api/internal/domain"
)

// Statuses reported in a SignupResult.
const (
	StatusSubscribed = "subscribed"
	StatusFailed     = "failed"
)

// SignupPayload is the payload of a user task.
type SignupPayload struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	ResumePDF []byte `json:"resume_pdf"`
}

// SignupResult is posted to the correlator once a user task finishes.
type SignupResult struct {
	Status string `json:"status"`
	Email  string `json:"email"`
	Error  string `json:"error,omitempty"`
}

// ScrapeRequest is the payload of a scrape task. Exactly one of Query and
// Source is set: a job search or the name of a scholarship source.
type ScrapeRequest struct {
	Query  *domain.JobQuery `json:"query,omitempty"`
	Source string           `json:"source,omitempty"`
	Limit  int              `json:"limit,omitempty"`
}

// Validate checks that exactly one target is set.
func (r ScrapeRequest) Validate() error {
	switch {
	case r.Query == nil && r.Source == "":
		return errors.New("scrape request needs a query or a source")
	case r.Query != nil && r.Source != "":
		return errors.New("scrape request cannot carry both a query and a source")
	}
	return nil
}

// ScrapeResult is posted to the correlator once a scrape task finishes.
type ScrapeResult struct {
	Listings []domain.Listing `json:"listings"`
	Error    string           `json:"error,omitempty"`
}

// EmailKind selects the template used for an email task.
type EmailKind string

// Email kinds.
const (
	EmailWelcome      EmailKind = "welcome"
	EmailJobs         EmailKind = "jobs"
	EmailScholarships EmailKind = "scholarships"
)

// EmailPayload is the payload of an email task.
type EmailPayload struct {
	Kind EmailKind `json:"kind"`

	// To and Username address welcome and job digest mails.
	To       string `json:"to,omitempty"`
	Username string `json:"username,omitempty"`

	// ResumeText personalizes the welcome mail.
	ResumeText string `json:"resume_text,omitempty"`

	Jobs []domain.Job `json:"jobs,omitempty"`

	// Recipients receive scholarship digests by BCC.
	Recipients   []string             `json:"recipients,omitempty"`
	Scholarships []domain.Scholarship `json:"scholarships,omitempty"`
}

// Validate checks that the payload carries what its kind needs.
func (p EmailPayload) Validate() error {
	switch p.Kind {
	case EmailWelcome:
		if p.To == "" {
			return errors.New("welcome email needs a recipient")
		}
	case EmailJobs:
		if p.To == "" {
			return errors.New("job digest needs a recipient")
		}
		if len(p.Jobs) == 0 {
			return errors.New("job digest has no jobs")
		}
	case EmailScholarships:
		if len(p.Recipients) == 0 {
			return errors.New("scholarship digest has no recipients")
		}
		if len(p.Scholarships) == 0 {
			return errors.New("scholarship digest has no scholarships")
		}
	default:
		return errors.New("unknown email kind " + string(p.Kind))
	}
	return nil
}
