package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kittclouds/reflectin/internal/prompt"
	"github.com/kittclouds/reflectin/internal/provider"
	"github.com/kittclouds/reflectin/internal/sentiment"
	"github.com/kittclouds/reflectin/internal/store"
	"github.com/kittclouds/reflectin/internal/thread"
)

// fakeEmbedder serves fixed vectors per exact text.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

// fakeGen echoes a canned reply or fails.
type fakeGen struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGen) Generate(_ context.Context, promptText string, _ int64, _ float64) (string, error) {
	f.lastPrompt = promptText
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// fakeSummarizer returns a canned structured summary or fails.
type fakeSummarizer struct {
	result provider.SummaryResult
	err    error
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string) (provider.SummaryResult, error) {
	if f.err != nil {
		return provider.SummaryResult{}, f.err
	}
	return f.result, nil
}

func newTestEngine(st store.Storer, emb thread.Embedder, gen provider.Generator,
	sum provider.Summarizer) *Engine {
	resolver := thread.NewResolver(st, emb, thread.DefaultThreshold)
	return NewEngine(st, resolver, sentiment.NewClassifier(nil), gen, sum,
		prompt.DefaultPersona(),
		WithClock(func() time.Time {
			return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		}))
}

func TestProcessFirstMessageMintsThread(t *testing.T) {
	st := store.NewMemStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"I feel hopeless today": {1, 0, 0},
	}}
	gen := &fakeGen{reply: "What weighs on you most right now?"}
	sum := &fakeSummarizer{result: provider.SummaryResult{
		Summary:  "You feel hopeless today.",
		Topics:   []string{"mood"},
		Entities: nil,
	}}
	e := newTestEngine(st, emb, gen, sum)

	res, err := e.Process(context.Background(), "u1", "I feel hopeless today")
	require.NoError(t, err)

	assert.NotEmpty(t, res.ThreadID)
	assert.Empty(t, res.MemoryContext)
	assert.Equal(t, "You feel hopeless today.", res.Summary)
	assert.Equal(t, "What weighs on you most right now?", res.Reply)
	assert.Equal(t, 1, res.Sentiment.Score)
	assert.Equal(t, store.LabelNegative, res.Sentiment.Label)

	// the distress tier template was selected
	assert.Contains(t, gen.lastPrompt, "experiencing high distress")

	entries, err := st.FindByUser("u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.ThreadID, entries[0].ThreadID)
	assert.Equal(t, []float32{1, 0, 0}, entries[0].Embedding)
	assert.Equal(t, []string{"mood"}, entries[0].Topics)
}

func TestProcessContinuesThread(t *testing.T) {
	st := store.NewMemStore()
	emb := &fakeEmbedder{vectors: map[string][]float32{
		"I feel hopeless today":     {1, 0, 0},
		"Still feeling pretty down": {0.9, 0.1, 0},
	}}
	gen := &fakeGen{reply: "reflection"}
	sum := &fakeSummarizer{result: provider.SummaryResult{Summary: "You feel hopeless today."}}
	e := newTestEngine(st, emb, gen, sum)

	first, err := e.Process(context.Background(), "u1", "I feel hopeless today")
	require.NoError(t, err)

	second, err := e.Process(context.Background(), "u1", "Still feeling pretty down")
	require.NoError(t, err)

	assert.Equal(t, first.ThreadID, second.ThreadID)
	assert.Contains(t, second.MemoryContext, "Previously, you mentioned: 'You feel hopeless today.'")
	// the memory variant replaces the tier template
	assert.Contains(t, gen.lastPrompt, "In previous conversations, you mentioned the following:")

	entries, err := st.FindByUser("u1")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProcessGenerationFailuresDegrade(t *testing.T) {
	st := store.NewMemStore()
	emb := &fakeEmbedder{}
	gen := &fakeGen{err: provider.ErrGenerationFailed}
	sum := &fakeSummarizer{err: provider.ErrGenerationFailed}
	e := newTestEngine(st, emb, gen, sum)

	res, err := e.Process(context.Background(), "u1", "some message")
	require.NoError(t, err)

	assert.Equal(t, "No summary available.", res.Summary)
	assert.Equal(t, "Could you tell me more about what happened?", res.Reply)

	// the degraded entry is still persisted
	entries, err := st.FindByUser("u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "No summary available.", entries[0].Summary)
	assert.Empty(t, entries[0].Topics)
}

func TestProcessEmbedderFailurePropagates(t *testing.T) {
	st := store.NewMemStore()
	emb := &fakeEmbedder{err: errors.New("model offline")}
	e := newTestEngine(st, emb, &fakeGen{reply: "r"}, &fakeSummarizer{})

	_, err := e.Process(context.Background(), "u1", "some message")
	require.Error(t, err)
	assert.ErrorIs(t, err, thread.ErrEmbeddingFailed)

	// nothing was persisted
	entries, err := st.FindByUser("u1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessUnconfigured(t *testing.T) {
	st := store.NewMemStore()
	e := NewEngine(st, nil, sentiment.NewClassifier(nil), nil, nil, prompt.DefaultPersona())

	assert.False(t, e.Configured())

	res, err := e.Process(context.Background(), "u1", "I feel hopeless today")
	require.NoError(t, err)

	assert.NotEmpty(t, res.ThreadID)
	assert.True(t, strings.Contains(res.Summary, "not configured"))
	assert.True(t, strings.Contains(res.Reply, "not configured"))
	// sentiment still runs without credentials
	assert.Equal(t, 1, res.Sentiment.Score)

	entries, err := st.FindByUser("u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Embedding)
}

func TestProcessRejectsEmptyInputs(t *testing.T) {
	e := newTestEngine(store.NewMemStore(), &fakeEmbedder{}, &fakeGen{}, &fakeSummarizer{})

	_, err := e.Process(context.Background(), "", "msg")
	assert.Error(t, err)

	_, err = e.Process(context.Background(), "u1", "")
	assert.Error(t, err)
}

func TestCheckup(t *testing.T) {
	e := newTestEngine(store.NewMemStore(), &fakeEmbedder{}, &fakeGen{}, &fakeSummarizer{})
	assert.Equal(t, prompt.CheckupMessage(), e.Checkup(context.Background(), "t1"))
}
