// Package thread implements conversation continuity resolution: deciding
// whether a new message continues an existing emotional thread or starts a
// new one, using cosine similarity over embeddings.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kittclouds/reflectin/internal/store"
)

// DefaultThreshold is the minimum cosine similarity for a continuity match.
// Useful values in practice range 0.75-0.9.
const DefaultThreshold = 0.75

// Sentinel errors for the resolution path. A transient failure must never be
// mistaken for "no similar thread found".
var (
	// ErrStoreUnavailable wraps store failures during a continuity scan.
	ErrStoreUnavailable = errors.New("conversation store unavailable")

	// ErrEmbeddingFailed wraps embedder failures for the current message.
	ErrEmbeddingFailed = errors.New("embedding failed")
)

// Embedder maps text to a fixed-length vector. Implementations are assumed
// deterministic for identical text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Resolution is the outcome of resolving one message.
type Resolution struct {
	// ThreadID is the thread the message belongs to: reused from the first
	// match found, or freshly minted when nothing matched.
	ThreadID string

	// MemoryContext aggregates one human-readable line per matched prior
	// entry, in store scan order. Empty when no entry matched.
	MemoryContext string

	// Matches is the number of prior entries at or above the threshold.
	Matches int

	// Embedding is the vector computed for the current message, so the
	// caller can persist it without embedding twice.
	Embedding []float32
}

// Resolver scans a user's stored entries for semantically similar ones.
type Resolver struct {
	store     store.Storer
	embedder  Embedder
	threshold float64
}

// NewResolver creates a resolver. A threshold <= 0 falls back to DefaultThreshold.
func NewResolver(s store.Storer, e Embedder, threshold float64) *Resolver {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Resolver{store: s, embedder: e, threshold: threshold}
}

// Resolve embeds the current text once, scans all of the user's entries and
// returns the thread id plus the aggregated memory context.
//
// Similarity is computed against each entry's stored embedding, the vector
// persisted at insert time; the memory line quotes the entry's comparison
// text (summary when present, else the raw message).
//
// Matches are accepted in store-iteration order and the thread id is taken
// from the first match carrying a non-empty thread id. This is deliberately
// first-found-wins, not best-match-wins; the store yields entries in
// arbitrary order and no ranking is performed.
//
// Deterministic given identical store contents, embeddings and scan order.
// Never mutates the store.
func (r *Resolver) Resolve(ctx context.Context, userID, text string) (Resolution, error) {
	if userID == "" {
		return Resolution{}, errors.New("resolve: empty user id")
	}
	if text == "" {
		return Resolution{}, errors.New("resolve: empty text")
	}

	current, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	entries, err := r.store.FindByUser(userID)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var (
		threadID    string
		memoryLines []string
	)
	for _, entry := range entries {
		// Entries stored without a vector (degraded-mode inserts) can
		// never match.
		if len(entry.Embedding) == 0 {
			continue
		}
		sim := CosineSimilarity(current, entry.Embedding)
		if sim < r.threshold {
			continue
		}

		memoryLines = append(memoryLines, fmt.Sprintf(
			"Previously, you mentioned: '%s' and I replied: '%s'.",
			strings.TrimSpace(entry.ComparisonText()), strings.TrimSpace(entry.ReplyText)))

		if threadID == "" && entry.ThreadID != "" {
			threadID = entry.ThreadID
		}
	}

	if threadID == "" {
		threadID = uuid.NewString()
	}

	return Resolution{
		ThreadID:      threadID,
		MemoryContext: strings.Join(memoryLines, "\n"),
		Matches:       len(memoryLines),
		Embedding:     current,
	}, nil
}

// Threshold reports the configured similarity threshold.
func (r *Resolver) Threshold() float64 {
	return r.threshold
}
