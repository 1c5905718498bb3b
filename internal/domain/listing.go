package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// NotSpecified is what extraction prompts return for missing fields.
const NotSpecified = "Not specified"

// Listing is one item scraped from a job board or scholarship site.
type Listing struct {
	Source       string `json:"source"`
	Title        string `json:"title"`
	Link         string `json:"link"`
	BodyMarkdown string `json:"body_markdown"`
}

// Validate requires a link so the listing can be followed and deduplicated.
func (l *Listing) Validate() error {
	if strings.TrimSpace(l.Link) == "" {
		return ErrEmptyListingLink
	}
	return nil
}

// DedupKey identifies the listing across scrapes.
func (l Listing) DedupKey() (string, error) {
	return DedupKey(l.Title, l.Link)
}

// DedupKey hashes title and link into a stable hex key with BLAKE2b-256.
// Surrounding whitespace and the case of the title are ignored.
func DedupKey(title, link string) (string, error) {
	title = strings.ToLower(strings.TrimSpace(title))
	link = strings.TrimSpace(link)
	if title == "" && link == "" {
		return "", ErrMissingDedupInput
	}

	sum := blake2b.Sum256([]byte(title + "\x00" + link))
	return hex.EncodeToString(sum[:]), nil
}

// Scholarship is an opportunity extracted from a scholarship listing.
type Scholarship struct {
	Content         string `json:"content"`
	ApplicationLink string `json:"application_link"`
	Source          string `json:"source,omitempty"`
	Title           string `json:"title,omitempty"`
	Link            string `json:"link,omitempty"`
	ContentHash     string `json:"content_hash,omitempty"`
}

// Validate rejects empty extractions.
func (s *Scholarship) Validate() error {
	if strings.TrimSpace(s.Content) == "" || s.Content == NotSpecified {
		return ErrEmptyScholarship
	}
	return nil
}

// ApplyListing copies provenance from the listing the scholarship was
// extracted from and falls back to the listing link when the extraction
// found none.
func (s *Scholarship) ApplyListing(l Listing, dedupKey string) {
	s.Source = l.Source
	s.Title = l.Title
	s.Link = l.Link
	s.ContentHash = dedupKey
	link := strings.TrimSpace(s.ApplicationLink)
	if link == "" || strings.EqualFold(link, NotSpecified) {
		s.ApplicationLink = l.Link
	}
}
