package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Storage limits for extracted job fields.
const (
	ShortFieldLimit = 255
	LongFieldLimit  = 65535

	// ListSeparator joins list fields for storage.
	ListSeparator = "|"
)

// JobQuery is the search derived from a résumé.
type JobQuery struct {
	SearchTerm       string `json:"search_term"`
	Location         string `json:"location"`
	ResultsWanted    int    `json:"results_wanted"`
	HoursOld         int    `json:"hours_old"`
	Country          string `json:"country_indeed"`
	IsRemote         bool   `json:"is_remote"`
	GoogleSearchTerm string `json:"google_search_term"`
}

// Validate checks the query and clamps out of range numbers.
func (q *JobQuery) Validate(maxResults int) error {
	q.SearchTerm = strings.TrimSpace(q.SearchTerm)
	if q.SearchTerm == "" {
		return ErrEmptySearchTerm
	}
	if q.ResultsWanted <= 0 || (maxResults > 0 && q.ResultsWanted > maxResults) {
		q.ResultsWanted = maxResults
	}
	if q.HoursOld < 0 {
		q.HoursOld = 0
	}
	return nil
}

// Job is a posting extracted from a scraped listing.
type Job struct {
	JobTitle         string   `json:"job_title"`
	JobDescription   string   `json:"job_description"`
	RequiredSkills   []string `json:"required_skills"`
	Responsibilities []string `json:"responsibilities"`
	Qualifications   []string `json:"qualifications"`
	Location         string   `json:"location"`
	SalaryRange      string   `json:"salary_range"`
	CompanyInfo      string   `json:"company_info"`
	Keywords         []string `json:"keywords"`
	Link             string   `json:"link"`
	Email            string   `json:"email"`
}

// Validate rejects extractions that carry no usable posting.
func (j *Job) Validate() error {
	if strings.TrimSpace(j.JobTitle) == "" {
		return ErrEmptyJobTitle
	}
	if strings.TrimSpace(j.JobDescription) == "" {
		return fmt.Errorf("%w: job description", ErrEmptyContent)
	}
	return nil
}

// StoredJob is the flattened form of a Job written to the document store.
type StoredJob struct {
	JobTitle         string `json:"job_title"`
	JobDescription   string `json:"job_description"`
	RequiredSkills   string `json:"required_skills"`
	Responsibilities string `json:"responsibilities"`
	Qualifications   string `json:"qualifications"`
	Location         string `json:"location"`
	SalaryRange      string `json:"salary_range"`
	CompanyInfo      string `json:"company_info"`
	Keywords         string `json:"keywords"`
	Link             string `json:"link"`
	Email            string `json:"email"`
}

// ForStorage flattens list fields and truncates every field to its column
// limit.
func (j Job) ForStorage() StoredJob {
	return StoredJob{
		JobTitle:         Truncate(j.JobTitle, ShortFieldLimit),
		JobDescription:   Truncate(j.JobDescription, LongFieldLimit),
		RequiredSkills:   joinList(j.RequiredSkills, LongFieldLimit),
		Responsibilities: joinList(j.Responsibilities, LongFieldLimit),
		Qualifications:   joinList(j.Qualifications, LongFieldLimit),
		Location:         Truncate(j.Location, ShortFieldLimit),
		SalaryRange:      Truncate(j.SalaryRange, ShortFieldLimit),
		CompanyInfo:      Truncate(j.CompanyInfo, LongFieldLimit),
		Keywords:         joinList(j.Keywords, LongFieldLimit),
		Link:             Truncate(j.Link, ShortFieldLimit),
		Email:            Truncate(j.Email, ShortFieldLimit),
	}
}

// EmbeddingText is the text embedded into the vector index for the job.
func (j Job) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(j.JobTitle)
	b.WriteString("\n")
	b.WriteString(j.JobDescription)
	if len(j.RequiredSkills) > 0 {
		b.WriteString("\nSkills: ")
		b.WriteString(strings.Join(j.RequiredSkills, ", "))
	}
	if len(j.Keywords) > 0 {
		b.WriteString("\nKeywords: ")
		b.WriteString(strings.Join(j.Keywords, ", "))
	}
	if j.Location != "" {
		b.WriteString("\nLocation: ")
		b.WriteString(j.Location)
	}
	return b.String()
}

// Truncate shortens s to at most limit characters without splitting a rune.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

func joinList(items []string, limit int) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return Truncate(strings.Join(cleaned, ListSeparator), limit)
}
