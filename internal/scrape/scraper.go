package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownSource is returned when a source name is not configured.
var ErrUnknownSource = errors.New("unknown listing source")

// PageFetcher downloads a page body.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Source describes a listing site.
type Source struct {
	Name string
	// Collection is the document collection extracted items are stored in.
	Collection string
	URL        string
	// Pages is the number of listing pages walked. Page n > 1 is fetched
	// from URL + "/page/n".
	Pages int

	// ItemSelector matches one listing on a listing page.
	ItemSelector string
	// TitleSelector is applied inside an item; empty uses the link text.
	TitleSelector string
	// LinkSelector is applied inside an item; empty uses the item itself.
	LinkSelector string
	// BodySelector selects the content of an item page; empty uses <body>.
	BodySelector string
}

// PageURL returns the URL of listing page n, counting from 1.
func (s Source) PageURL(n int) string {
	if n <= 1 {
		return s.URL
	}
	return strings.TrimRight(s.URL, "/") + fmt.Sprintf("/page/%d", n)
}

// Scraper turns listing sites into domain.Listing values.
type Scraper struct {
	fetcher     PageFetcher
	converter   *md.Converter
	concurrency int
	logger      *slog.Logger
}

// NewScraper creates a Scraper following at most concurrency item links
// at once.
func NewScraper(fetcher PageFetcher, concurrency int, log *slog.Logger) *Scraper {
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}

	converter := md.NewConverter("", true, nil)
	converter.Remove("script", "style", "nav", "footer", "form", "iframe", "noscript")

	return &Scraper{
		fetcher:     fetcher,
		converter:   converter,
		concurrency: concurrency,
		logger:      log.With(slog.String("component", "scraper")),
	}
}

// Scrape walks the listing pages of src and returns up to limit listings
// with their item pages converted to Markdown. A limit of zero means no
// limit. Items whose page cannot be fetched are skipped.
func (s *Scraper) Scrape(ctx context.Context, src Source, limit int) ([]domain.Listing, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("source", src.Name)

	items, err := s.collect(ctx, log, src, limit)
	if err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "collected listing links", "count", len(items))

	listings := make([]*domain.Listing, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, item := range items {
		g.Go(func() error {
			body, err := s.itemMarkdown(gctx, src, item.Link)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.WarnContext(gctx, "skipping listing", "link", item.Link, "error", err)
				return nil
			}
			item.BodyMarkdown = body
			listings[i] = &item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if l != nil {
			result = append(result, *l)
		}
	}
	return result, nil
}

// collect walks the listing pages and returns unique item links in page
// order. A failure on the first page is an error; later pages end the walk.
func (s *Scraper) collect(ctx context.Context, log *slog.Logger, src Source, limit int) ([]domain.Listing, error) {
	if src.ItemSelector == "" {
		return nil, fmt.Errorf("source %s has no item selector", src.Name)
	}
	pages := max(src.Pages, 1)

	seen := make(map[string]bool)
	var items []domain.Listing
	for page := 1; page <= pages; page++ {
		pageURL := src.PageURL(page)
		body, err := s.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.WarnContext(ctx, "stopping at listing page", "page", page, "error", err)
			break
		}

		found, err := parseListingPage(body, pageURL, src)
		if err != nil {
			return nil, err
		}
		for _, item := range found {
			if seen[item.Link] {
				continue
			}
			seen[item.Link] = true
			items = append(items, item)
			if limit > 0 && len(items) >= limit {
				return items, nil
			}
		}
	}
	return items, nil
}

func parseListingPage(body []byte, pageURL string, src Source) ([]domain.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	var items []domain.Listing
	doc.Find(src.ItemSelector).Each(func(_ int, item *goquery.Selection) {
		link := item
		if src.LinkSelector != "" {
			link = item.Find(src.LinkSelector).First()
		}
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil || ref.Scheme == "javascript" || ref.Scheme == "mailto" {
			return
		}

		title := link.Text()
		if src.TitleSelector != "" {
			title = item.Find(src.TitleSelector).First().Text()
		}

		items = append(items, domain.Listing{
			Source: src.Name,
			Title:  collapseSpaces(title),
			Link:   base.ResolveReference(ref).String(),
		})
	})
	return items, nil
}

func (s *Scraper) itemMarkdown(ctx context.Context, src Source, link string) (string, error) {
	body, err := s.fetcher.Fetch(ctx, link)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", link, err)
	}

	selection := doc.Find("body")
	if src.BodySelector != "" {
		if found := doc.Find(src.BodySelector); found.Length() > 0 {
			selection = found
		}
	}

	markdown := cleanMarkdown(s.converter.Convert(selection))
	if markdown == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrEmptyContent, link)
	}
	return markdown, nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

func cleanMarkdown(s string) string {
	return strings.TrimSpace(blankLines.ReplaceAllString(s, "\n\n"))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
