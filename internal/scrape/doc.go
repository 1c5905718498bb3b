// Package scrape fetches job and scholarship listings from public websites.
//
// A Source describes a listing site with CSS selectors. The Scraper walks
// its listing pages with goquery, follows each item link and converts the
// item page to Markdown for the extraction prompts. All requests go through
// a Fetcher, which paces requests per host, caps concurrent requests and
// retries transient failures.
package scrape
