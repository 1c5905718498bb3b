package scrape

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/phrazzld/jobscout-api/internal/domain"
)

// Collections written by the scholarship check.
const (
	CollectionScholarships = "scholarships"
	CollectionInternships  = "internships"
	CollectionJobs         = "jobs"
)

// ScholarshipSources are the sites checked for new opportunities.
var ScholarshipSources = []Source{
	{
		Name:          "dixcoverhub-scholarships",
		Collection:    CollectionScholarships,
		URL:           "https://dixcoverhub.com.ng/category/scholarship",
		Pages:         3,
		ItemSelector:  "main li",
		TitleSelector: "h2",
		LinkSelector:  "a",
		BodySelector:  "article",
	},
	{
		Name:          "scholars4dev-masters",
		Collection:    CollectionScholarships,
		URL:           "https://www.scholars4dev.com/category/level-of-study/masters-scholarships",
		Pages:         1,
		ItemSelector:  "div.post.clearfix",
		TitleSelector: "h2",
		LinkSelector:  "h2 a",
		BodySelector:  "div.entry.clearfix",
	},
	{
		Name:          "dixcoverhub-graduate-programs",
		Collection:    CollectionInternships,
		URL:           "https://dixcoverhub.com.ng/category/graduate-programs",
		Pages:         2,
		ItemSelector:  "main li",
		TitleSelector: "h2",
		LinkSelector:  "a",
		BodySelector:  "article",
	},
	{
		Name:          "dixcoverhub-internships",
		Collection:    CollectionInternships,
		URL:           "https://dixcoverhub.com.ng/category/internships",
		Pages:         2,
		ItemSelector:  "main li",
		TitleSelector: "h2",
		LinkSelector:  "a",
		BodySelector:  "article",
	},
}

// SourceByName looks name up in sources.
func SourceByName(sources []Source, name string) (Source, error) {
	for _, s := range sources {
		if s.Name == name {
			return s, nil
		}
	}
	return Source{}, ErrUnknownSource
}

// JobBoard builds the job search source for q from a URL template. The
// placeholders {query}, {location}, {country} and {hours_old} are replaced
// with query-escaped values.
func JobBoard(urlTemplate string, q domain.JobQuery, selectors Source) Source {
	term := q.SearchTerm
	if q.IsRemote && !strings.Contains(strings.ToLower(term), "remote") {
		term += " remote"
	}

	replacer := strings.NewReplacer(
		"{query}", url.QueryEscape(term),
		"{location}", url.QueryEscape(q.Location),
		"{country}", url.QueryEscape(q.Country),
		"{hours_old}", strconv.Itoa(q.HoursOld),
	)

	src := selectors
	src.Name = "job-search"
	src.Collection = CollectionJobs
	src.URL = replacer.Replace(urlTemplate)
	src.Pages = 1
	return src
}
