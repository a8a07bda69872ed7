package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/reflectin/internal/store"
)

// scriptedEmbedder returns fixed vectors per exact text.
type scriptedEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (e *scriptedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	v, ok := e.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no scripted vector for %q", text)
	}
	return v, nil
}

// failingStore simulates an unreachable store.
type failingStore struct {
	store.Storer
}

func (failingStore) FindByUser(string) ([]*store.Entry, error) {
	return nil, errors.New("connection refused")
}

func seedEntry(t *testing.T, s store.Storer, userID, threadID, summary, reply string, embedding []float32) {
	t.Helper()
	_, err := s.Insert(&store.Entry{
		UserID:    userID,
		ThreadID:  threadID,
		RawText:   "raw form of: " + summary,
		Summary:   summary,
		ReplyText: reply,
		Embedding: embedding,
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestResolveReusesThreadOnMatch(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"Still feeling pretty down": {0.9, 0.1, 0.0},
	}}
	seedEntry(t, s, "u1", "thread-first", "You feel hopeless today.", "What weighs on you most?",
		[]float32{1.0, 0.0, 0.0})

	r := NewResolver(s, emb, 0.75)
	res, err := r.Resolve(context.Background(), "u1", "Still feeling pretty down")
	require.NoError(t, err)

	assert.Equal(t, "thread-first", res.ThreadID)
	assert.Equal(t, 1, res.Matches)
	assert.Contains(t, res.MemoryContext, "Previously, you mentioned: 'You feel hopeless today.'")
	assert.Contains(t, res.MemoryContext, "and I replied: 'What weighs on you most?'.")
	assert.Equal(t, []float32{0.9, 0.1, 0.0}, res.Embedding)
}

func TestResolveMintsNewThreadBelowThreshold(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"My sister is visiting next week": {0.0, 0.0, 1.0},
	}}
	seedEntry(t, s, "u1", "thread-first", "You feel hopeless today.", "What weighs on you most?",
		[]float32{1.0, 0.0, 0.0})

	r := NewResolver(s, emb, 0.75)
	res, err := r.Resolve(context.Background(), "u1", "My sister is visiting next week")
	require.NoError(t, err)

	assert.NotEmpty(t, res.ThreadID)
	assert.NotEqual(t, "thread-first", res.ThreadID)
	assert.Empty(t, res.MemoryContext)
	assert.Zero(t, res.Matches)
}

func TestResolveIdempotent(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"Still feeling pretty down": {0.9, 0.1, 0.0},
	}}
	seedEntry(t, s, "u1", "thread-first", "You feel hopeless today.", "reply",
		[]float32{1.0, 0.0, 0.0})

	r := NewResolver(s, emb, 0.75)
	first, err := r.Resolve(context.Background(), "u1", "Still feeling pretty down")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "u1", "Still feeling pretty down")
	require.NoError(t, err)

	assert.Equal(t, first.ThreadID, second.ThreadID)
	assert.Equal(t, first.MemoryContext, second.MemoryContext)
}

func TestResolveAccumulatesAllMatches(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"query": {1.0, 0.0, 0.0},
	}}
	seedEntry(t, s, "u1", "t1", "First similar entry.", "r1", []float32{0.99, 0.05, 0.0})
	seedEntry(t, s, "u1", "t1", "Second similar entry.", "r2", []float32{0.98, 0.1, 0.0})
	seedEntry(t, s, "u1", "t2", "Unrelated entry.", "r3", []float32{0.0, 1.0, 0.0})

	r := NewResolver(s, emb, 0.75)
	res, err := r.Resolve(context.Background(), "u1", "query")
	require.NoError(t, err)

	assert.Equal(t, 2, res.Matches)
	assert.Len(t, strings.Split(res.MemoryContext, "\n"), 2)
	assert.Equal(t, "t1", res.ThreadID)
}

func TestResolveQuotesRawTextWhenSummaryMissing(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"query": {1.0, 0.0, 0.0},
	}}
	_, err := s.Insert(&store.Entry{
		UserID:    "u1",
		ThreadID:  "t1",
		RawText:   "I had a rough night",
		ReplyText: "What kept you up?",
		Embedding: []float32{1.0, 0.0, 0.0},
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	r := NewResolver(s, emb, 0.75)
	res, err := r.Resolve(context.Background(), "u1", "query")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Matches)
	assert.Contains(t, res.MemoryContext, "you mentioned: 'I had a rough night'")
}

func TestResolveSkipsEntriesWithoutEmbedding(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"query": {1.0, 0.0, 0.0},
	}}
	seedEntry(t, s, "u1", "t1", "No vector stored.", "r1", nil)

	r := NewResolver(s, emb, 0.75)
	res, err := r.Resolve(context.Background(), "u1", "query")
	require.NoError(t, err)

	assert.Zero(t, res.Matches)
	// only the current text was embedded
	assert.Equal(t, 1, emb.calls)
}

func TestResolveIgnoresOtherUsers(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"query": {1.0, 0.0, 0.0},
	}}
	seedEntry(t, s, "someone-else", "t1", "Identical vector.", "r1", []float32{1.0, 0.0, 0.0})

	r := NewResolver(s, emb, 0.75)
	res, err := r.Resolve(context.Background(), "u1", "query")
	require.NoError(t, err)
	assert.Zero(t, res.Matches)
}

func TestResolveEmbedderFailure(t *testing.T) {
	s := store.NewMemStore()
	emb := &scriptedEmbedder{err: errors.New("model offline")}

	r := NewResolver(s, emb, 0.75)
	_, err := r.Resolve(context.Background(), "u1", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.NotErrorIs(t, err, ErrStoreUnavailable)
}

func TestResolveStoreFailure(t *testing.T) {
	emb := &scriptedEmbedder{vectors: map[string][]float32{
		"anything": {1.0, 0.0, 0.0},
	}}

	r := NewResolver(failingStore{}, emb, 0.75)
	_, err := r.Resolve(context.Background(), "u1", "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestResolveRejectsEmptyInputs(t *testing.T) {
	r := NewResolver(store.NewMemStore(), &scriptedEmbedder{}, 0.75)

	_, err := r.Resolve(context.Background(), "", "text")
	assert.Error(t, err)

	_, err = r.Resolve(context.Background(), "u1", "")
	assert.Error(t, err)
}

func TestNewResolverDefaultThreshold(t *testing.T) {
	r := NewResolver(store.NewMemStore(), &scriptedEmbedder{}, 0)
	assert.Equal(t, DefaultThreshold, r.Threshold())
}
