// Package domain contains the entities the pipeline moves between its
// queues: subscribers, job search queries, scraped listings and the jobs and
// scholarships extracted from them. It has no dependency on storage or
// transport.
package domain
