// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kittclouds/reflectin/internal/notify"
	"github.com/kittclouds/reflectin/internal/thread"
)

// Config holds everything the service binary needs.
type Config struct {
	// OpenAIAPIKey may be empty; the service then runs degraded, answering
	// with labeled placeholders instead of calling out.
	OpenAIAPIKey   string
	Model          string
	EmbeddingModel string

	// DBPath is the SQLite file; ":memory:" keeps everything in-process.
	DBPath string

	HTTPAddr string

	// NATSURL is optional; when empty, notifications go to the log.
	NATSURL     string
	NATSSubject string

	SimilarityThreshold float64

	PollInterval  time.Duration
	QuietPeriod   time.Duration
	RecencyWindow time.Duration

	PersonaVoice string
	BandValues   [5]string
}

func defaultConfig() Config {
	return Config{
		Model:               "",
		EmbeddingModel:      "",
		DBPath:              "reflectin.db",
		HTTPAddr:            ":8000",
		NATSSubject:         "reflectin.checkup",
		SimilarityThreshold: thread.DefaultThreshold,
		PollInterval:        notify.DefaultInterval,
		QuietPeriod:         notify.DefaultQuietPeriod,
		RecencyWindow:       notify.DefaultRecencyWindow,
	}
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (Config, error) {
	// Missing .env is fine; explicit env vars win either way.
	_ = godotenv.Load()

	cfg := defaultConfig()

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	setString(&cfg.Model, "REFLECTIN_MODEL")
	setString(&cfg.EmbeddingModel, "REFLECTIN_EMBEDDING_MODEL")
	setString(&cfg.DBPath, "REFLECTIN_DB")
	setString(&cfg.HTTPAddr, "REFLECTIN_ADDR")
	setString(&cfg.NATSURL, "REFLECTIN_NATS_URL")
	setString(&cfg.NATSSubject, "REFLECTIN_NATS_SUBJECT")
	setString(&cfg.PersonaVoice, "REFLECTIN_PERSONA")
	for i := range cfg.BandValues {
		setString(&cfg.BandValues[i], fmt.Sprintf("REFLECTIN_BAND%d", i+1))
	}

	if err := setFloat(&cfg.SimilarityThreshold, "REFLECTIN_SIMILARITY_THRESHOLD"); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.PollInterval, "REFLECTIN_POLL_INTERVAL"); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.QuietPeriod, "REFLECTIN_QUIET_PERIOD"); err != nil {
		return Config{}, err
	}
	if err := setDuration(&cfg.RecencyWindow, "REFLECTIN_RECENCY_WINDOW"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c Config) Validate() error {
	if c.DBPath == "" {
		return errors.New("missing db path")
	}
	if c.HTTPAddr == "" {
		return errors.New("missing listen address")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return errors.New("similarity threshold must be in (0, 1]")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.QuietPeriod <= 0 {
		return errors.New("quiet period must be positive")
	}
	if c.RecencyWindow <= 0 {
		return errors.New("recency window must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setFloat(dst *float64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
