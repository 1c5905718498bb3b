// Package gemini implements generation.Generator and generation.Embedder on
// top of Google's Gemini API.
//
// This package is an infrastructure adapter: the pipeline only sees the
// generation interfaces, never the genai client.
//
// Key components:
//
// 1. Generator:
//   - Asks the model for a JSON reply and decodes it into the caller's value
//   - Waits on a throttle.Gate before every call
//   - Retries transient failures through the retry package
//
// 2. Embedder:
//   - Embeds texts in request batches with a fixed output dimensionality
//   - Is bounded by both a per-minute and a per-month quota
//
// 3. Error Handling:
//   - HTTP 429 responses are retried after the configured rate-limit pause
//   - Safety blocks and client errors are permanent and returned at once
package gemini
