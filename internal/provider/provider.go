// Package provider holds the external collaborator contracts and their
// OpenAI-backed implementation: text generation, structured summarization
// and embedding production.
package provider

import (
	"context"
	"errors"
)

// Sentinel errors for the external-call taxonomy.
var (
	// ErrGenerationFailed wraps timeouts, non-2xx responses and malformed
	// payloads from the generation service.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrMissingConfiguration means no generation credentials are set.
	// Callers short-circuit to a labeled placeholder instead of calling out.
	ErrMissingConfiguration = errors.New("missing generation credentials")
)

// Generator produces text from a prompt. Treated as unreliable: callers
// must catch failures per call, never crash on them.
type Generator interface {
	Generate(ctx context.Context, promptText string, maxTokens int64, temperature float64) (string, error)
}

// SummaryResult is the structured enrichment derived from one message.
type SummaryResult struct {
	// Summary is a short second-person restatement of the message.
	Summary string `json:"summary"`

	// Topics are high-level subjects for indexing and filtering.
	Topics []string `json:"topics"`

	// Entities are people, places and named things mentioned.
	Entities []string `json:"entities"`
}

// Summarizer produces the structured enrichment for a message.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (SummaryResult, error)
}
