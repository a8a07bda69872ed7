// Package engine orchestrates one reflective conversation round trip:
// sentiment, continuity resolution, prompt selection, generation and
// persistence. The transport layer above it is interchangeable.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kittclouds/reflectin/internal/prompt"
	"github.com/kittclouds/reflectin/internal/provider"
	"github.com/kittclouds/reflectin/internal/sentiment"
	"github.com/kittclouds/reflectin/internal/store"
	"github.com/kittclouds/reflectin/internal/thread"
)

// Generation request constraints, passed along to the model.
const (
	replyMaxTokens   = 100
	replyTemperature = 0.7
)

// Fixed texts for degraded results. The user always receives a response;
// external-call failures never fail the whole operation.
const (
	fallbackSummary = "No summary available."
	fallbackReply   = "Could you tell me more about what happened?"

	unconfiguredSummary = "Summary unavailable: reflection service is not configured."
	unconfiguredReply   = "Reflection is not configured yet. Please set the generation credentials."
)

// Result is the outcome of processing one message.
type Result struct {
	UserMessage   string          `json:"user_message"`
	Summary       string          `json:"summary"`
	Reply         string          `json:"bot_reply"`
	ThreadID      string          `json:"thread_id"`
	Sentiment     store.Sentiment `json:"sentiment"`
	MemoryContext string          `json:"context"`
}

// Engine wires the collaborators for the request path. The store handle is
// shared by reference with the notification scheduler.
type Engine struct {
	store      store.Storer
	resolver   *thread.Resolver
	classifier *sentiment.Classifier
	gen        provider.Generator
	summarizer provider.Summarizer
	persona    prompt.Persona
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine. resolver, gen and summarizer may all be nil
// when generation credentials are missing; processing then short-circuits
// to clearly-labeled placeholders without attempting network calls.
func NewEngine(st store.Storer, resolver *thread.Resolver, classifier *sentiment.Classifier,
	gen provider.Generator, summarizer provider.Summarizer, persona prompt.Persona, opts ...Option) *Engine {
	e := &Engine{
		store:      st,
		resolver:   resolver,
		classifier: classifier,
		gen:        gen,
		summarizer: summarizer,
		persona:    persona,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Configured reports whether the external generation services are wired.
func (e *Engine) Configured() bool {
	return e.resolver != nil && e.gen != nil && e.summarizer != nil
}

// Process handles one message: classify, resolve continuity, generate the
// summary and the reflection concurrently, persist, respond.
//
// Resolution completes before the new entry is inserted, so a message never
// matches against itself. Store and embedding failures propagate; failures
// of the generation calls degrade to fixed fallback texts instead.
func (e *Engine) Process(ctx context.Context, userID, text string) (*Result, error) {
	if userID == "" {
		return nil, errors.New("process: empty user id")
	}
	if text == "" {
		return nil, errors.New("process: empty message")
	}

	sent := e.classifier.Classify(text)

	if !e.Configured() {
		e.logger.Warn("processing without generation credentials",
			slog.String("user_id", userID))
		return e.persist(userID, text, sent, thread.Resolution{ThreadID: uuid.NewString()},
			unconfiguredSummary, unconfiguredReply, provider.SummaryResult{})
	}

	res, err := e.resolver.Resolve(ctx, userID, text)
	if err != nil {
		return nil, err
	}

	// The summary and the reflection are independent round trips.
	replyPrompt := prompt.SelectPrompt(e.persona, sent.Score, text, res.MemoryContext)

	var (
		wg       sync.WaitGroup
		sum      provider.SummaryResult
		sumErr   error
		reply    string
		replyErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sum, sumErr = e.summarizer.Summarize(ctx, text)
	}()
	go func() {
		defer wg.Done()
		reply, replyErr = e.gen.Generate(ctx, replyPrompt, replyMaxTokens, replyTemperature)
	}()
	wg.Wait()

	summary := sum.Summary
	if sumErr != nil {
		e.logger.Warn("summary generation failed",
			slog.String("user_id", userID),
			slog.Any("error", sumErr))
		summary = fallbackSummary
		sum = provider.SummaryResult{}
	}
	if replyErr != nil {
		e.logger.Warn("reflection generation failed",
			slog.String("user_id", userID),
			slog.Any("error", replyErr))
		reply = fallbackReply
	}

	return e.persist(userID, text, sent, res, summary, reply, sum)
}

// persist inserts the finished entry and assembles the result.
func (e *Engine) persist(userID, text string, sent store.Sentiment, res thread.Resolution,
	summary, reply string, sum provider.SummaryResult) (*Result, error) {

	entry := &store.Entry{
		UserID:    userID,
		ThreadID:  res.ThreadID,
		RawText:   text,
		Summary:   summary,
		ReplyText: reply,
		Sentiment: sent,
		Topics:    sum.Topics,
		Entities:  sum.Entities,
		Embedding: res.Embedding,
		CreatedAt: e.now().UTC(),
	}
	if _, err := e.store.Insert(entry); err != nil {
		return nil, fmt.Errorf("%w: %v", thread.ErrStoreUnavailable, err)
	}

	return &Result{
		UserMessage:   text,
		Summary:       summary,
		Reply:         reply,
		ThreadID:      res.ThreadID,
		Sentiment:     sent,
		MemoryContext: res.MemoryContext,
	}, nil
}

// Checkup returns the check-in message for a thread. The thread id is
// accepted for interface shape; the message is currently generic.
func (e *Engine) Checkup(_ context.Context, _ string) string {
	return prompt.CheckupMessage()
}
