package generation

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/phrazzld/jobscout-api/internal/domain"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(
	template.New("prompts").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(promptFS, "prompts/*.tmpl"),
)

// maxPromptInput bounds the user supplied text placed in a prompt.
const maxPromptInput = 30000

// IndeedCountries are the country names the job board search accepts.
var IndeedCountries = []string{
	"argentina", "australia", "austria", "belgium", "brazil", "canada",
	"chile", "colombia", "denmark", "egypt", "finland", "france", "germany",
	"india", "ireland", "italy", "japan", "mexico", "netherlands",
	"new zealand", "nigeria", "norway", "poland", "portugal", "singapore",
	"south africa", "spain", "sweden", "switzerland", "uk", "usa", "worldwide",
}

// WelcomeMessage is the personalized welcome email produced for new users.
type WelcomeMessage struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}

func clip(s string) string {
	return domain.Truncate(strings.TrimSpace(s), maxPromptInput)
}

// JobQueryPrompt asks for a domain.JobQuery derived from the résumé.
func JobQueryPrompt(resumeText string, maxResults int) (string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return "", ErrEmptyPrompt
	}
	return render("job_query.tmpl", struct {
		ResumeText string
		Countries  []string
		MaxResults int
	}{clip(resumeText), IndeedCountries, maxResults})
}

// JobExtractPrompt asks for a domain.Job extracted from a listing.
func JobExtractPrompt(listing domain.Listing) (string, error) {
	text := listing.BodyMarkdown
	if strings.TrimSpace(text) == "" {
		text = listing.Title
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}
	return render("job_extract.tmpl", struct {
		Link    string
		JobText string
	}{listing.Link, clip(text)})
}

// ScholarshipPrompt asks for a domain.Scholarship extracted from page text.
func ScholarshipPrompt(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyPrompt
	}
	return render("scholarship.tmpl", struct{ Text string }{clip(text)})
}

// WelcomePrompt asks for a WelcomeMessage personalized from the résumé.
func WelcomePrompt(username, resumeText string) (string, error) {
	if strings.TrimSpace(resumeText) == "" {
		return "", ErrEmptyPrompt
	}
	return render("welcome.tmpl", struct {
		Username   string
		ResumeText string
	}{username, clip(resumeText)})
}
