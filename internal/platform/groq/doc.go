// Package groq implements generation.Generator against Groq's
// OpenAI-compatible chat completions API.
//
// Groq grants each model its own free request budget, so the Generator
// draws models from a Pool that rotates to the next model once the current
// one has used its budget.
package groq
