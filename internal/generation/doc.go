// Package generation is the boundary between the pipeline and language
// model providers. A Generator turns a prompt into JSON decoded into a Go
// value, an Embedder turns text into vectors. Prompt templates for every
// extraction the pipeline runs are embedded here so providers stay
// interchangeable.
package generation
