package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.New("mail").
	Funcs(template.FuncMap{"join": strings.Join}).
	ParseFS(templateFS, "templates/*.tmpl"))

// Default subjects.
const (
	DefaultWelcomeSubject = "Welcome to JobScout"
	JobDigestSubject      = "Your daily job matches"
	ScholarshipSubject    = "New scholarships and opportunities"
)

// DefaultWelcomeBody is sent when no personalised greeting is available.
const DefaultWelcomeBody = "Thanks for signing up! Every morning we will search for jobs " +
	"that match your résumé and email you the best ones. " +
	"We will also let you know about new scholarships and internships."

type pageData struct {
	Subject        string
	UnsubscribeURL string
	Username       string
	Body           string
	Jobs           []domain.Job
	Scholarships   []domain.Scholarship
}

func render(name string, data pageData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Welcome renders the greeting sent after signup. Empty subject or body
// fall back to the defaults.
func Welcome(to, subject, body, unsubscribeURL string) (*Message, error) {
	if strings.TrimSpace(subject) == "" {
		subject = DefaultWelcomeSubject
	}
	if strings.TrimSpace(body) == "" {
		body = DefaultWelcomeBody
	}

	html, err := render("welcome.html.tmpl", pageData{
		Subject:        subject,
		UnsubscribeURL: unsubscribeURL,
		Body:           body,
	})
	if err != nil {
		return nil, err
	}
	return &Message{To: []string{to}, Subject: subject, HTML: html, UnsubscribeURL: unsubscribeURL}, nil
}

// JobDigest renders the daily jobs email for one subscriber.
func JobDigest(to, username string, jobs []domain.Job, unsubscribeURL string) (*Message, error) {
	html, err := render("jobs.html.tmpl", pageData{
		Subject:        JobDigestSubject,
		UnsubscribeURL: unsubscribeURL,
		Username:       username,
		Jobs:           jobs,
	})
	if err != nil {
		return nil, err
	}
	return &Message{To: []string{to}, Subject: JobDigestSubject, HTML: html, UnsubscribeURL: unsubscribeURL}, nil
}

// ScholarshipDigest renders one digest addressed by BCC to recipients.
func ScholarshipDigest(recipients []string, items []domain.Scholarship) (*Message, error) {
	html, err := render("scholarships.html.tmpl", pageData{
		Subject:      ScholarshipSubject,
		Scholarships: items,
	})
	if err != nil {
		return nil, err
	}
	return &Message{Bcc: recipients, Subject: ScholarshipSubject, HTML: html, Bulk: true}, nil
}
