// Command reflectin runs the reflective conversation service: an HTTP JSON
// API over the engine, plus the background follow-up scheduler.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kittclouds/reflectin/internal/config"
	"github.com/kittclouds/reflectin/internal/engine"
	"github.com/kittclouds/reflectin/internal/notify"
	"github.com/kittclouds/reflectin/internal/prompt"
	"github.com/kittclouds/reflectin/internal/provider"
	"github.com/kittclouds/reflectin/internal/sentiment"
	"github.com/kittclouds/reflectin/internal/store"
	"github.com/kittclouds/reflectin/internal/thread"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewSQLiteStoreWithDSN(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	defer st.Close()

	persona := prompt.DefaultPersona()
	if cfg.PersonaVoice != "" {
		persona.Voice = cfg.PersonaVoice
	}
	for i, v := range cfg.BandValues {
		if v != "" {
			persona.BandValues[i] = v
		}
	}

	// Without credentials the engine still answers, with labeled
	// placeholders, and never calls out.
	var (
		resolver   *thread.Resolver
		gen        provider.Generator
		summarizer provider.Summarizer
	)
	if cfg.OpenAIAPIKey != "" {
		oa, err := provider.NewOpenAI(cfg.OpenAIAPIKey, cfg.Model, cfg.EmbeddingModel)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(2)
		}
		resolver = thread.NewResolver(st, oa, cfg.SimilarityThreshold)
		gen = oa
		summarizer = oa
	} else {
		logger.Warn("OPENAI_API_KEY not set; running with placeholder responses")
	}

	eng := engine.NewEngine(st, resolver, sentiment.NewClassifier(nil), gen, summarizer, persona,
		engine.WithLogger(logger))

	var sink notify.Sink = notify.NewLogSink(logger)
	if cfg.NATSURL != "" {
		ns, err := notify.NewNATSSink(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		defer ns.Close()
		sink = ns
	}

	scheduler := notify.NewScheduler(st, sink, notify.Config{
		Interval:      cfg.PollInterval,
		QuietPeriod:   cfg.QuietPeriod,
		RecencyWindow: cfg.RecencyWindow,
	}, notify.WithLogger(logger))
	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      newServer(eng, logger).routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("reflectin listening", slog.String("addr", cfg.HTTPAddr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
