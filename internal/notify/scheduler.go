// Package notify runs the follow-up notification state machine: one
// background timer that watches the most recently active conversation and
// escalates a check-in after periods of silence. Each entry goes
// Quiet(0) -> Notified(1) -> Notified(2), at most twice, never back.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kittclouds/reflectin/internal/prompt"
	"github.com/kittclouds/reflectin/internal/store"
)

// Defaults for the scheduler.
const (
	DefaultInterval      = 5 * time.Second
	DefaultQuietPeriod   = 15 * time.Second
	DefaultRecencyWindow = 5 * time.Minute
)

// Notification is the outbound check-in event.
type Notification struct {
	UserID   string    `json:"userId"`
	ThreadID string    `json:"threadId"`
	EntryID  string    `json:"entryId"`
	Sequence int       `json:"sequence"` // 1 for the first notice, 2 for the final one
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// Sink receives notifications. Delivery is best-effort fire-and-forget;
// errors are logged, never retried or surfaced to users.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// Config holds the scheduler tunables. Zero values take the defaults.
type Config struct {
	// Interval is the polling period of the single background timer.
	Interval time.Duration

	// QuietPeriod is how long a conversation must be silent before a
	// notice fires, and again before the second notice.
	QuietPeriod time.Duration

	// RecencyWindow bounds how old an entry may be and still be watched.
	// Entries older than this are never notified.
	RecencyWindow time.Duration
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = DefaultQuietPeriod
	}
	if c.RecencyWindow <= 0 {
		c.RecencyWindow = DefaultRecencyWindow
	}
	return c
}

// Scheduler owns the timer lifecycle. The store handle is shared by
// reference with the request path, never copied.
type Scheduler struct {
	store  store.Storer
	sink   Sink
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a scheduler. It does not start ticking until Start.
func NewScheduler(st store.Storer, sink Sink, cfg Config, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:  st,
		sink:   sink,
		cfg:    cfg.withDefaults(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the background timer. Stop (or canceling ctx) ends it.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop ends the timer and waits for the in-flight tick to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// tick advances the state machine for the most recently active entry.
// Store errors skip the tick; the next one retries.
func (s *Scheduler) tick(ctx context.Context) {
	now := s.now()

	entry, err := s.store.FindMostRecentWithReply(now.Add(-s.cfg.RecencyWindow))
	if err != nil {
		s.logger.Warn("notification tick skipped",
			slog.Any("error", err))
		return
	}
	if entry == nil {
		return
	}

	idle := now.Sub(entry.CreatedAt)
	if idle <= s.cfg.QuietPeriod {
		// conversation still active
		return
	}

	switch entry.NotificationsSent {
	case 0:
		first := now
		applied, err := s.store.UpdateNotificationState(entry.ID, 0, 1, &first)
		if err != nil {
			s.logger.Warn("notification update failed",
				slog.String("entry_id", entry.ID),
				slog.Any("error", err))
			return
		}
		if !applied {
			// an overlapping tick got there first
			return
		}
		s.emit(ctx, entry, 1, now)

	case 1:
		if entry.FirstNotificationAt == nil {
			return
		}
		if now.Sub(*entry.FirstNotificationAt) <= s.cfg.QuietPeriod {
			return
		}
		applied, err := s.store.UpdateNotificationState(entry.ID, 1, store.MaxNotifications, nil)
		if err != nil {
			s.logger.Warn("notification update failed",
				slog.String("entry_id", entry.ID),
				slog.Any("error", err))
			return
		}
		if !applied {
			return
		}
		s.emit(ctx, entry, store.MaxNotifications, now)

	default:
		// Notified(2) is terminal
	}
}

func (s *Scheduler) emit(ctx context.Context, entry *store.Entry, sequence int, now time.Time) {
	n := Notification{
		UserID:   entry.UserID,
		ThreadID: entry.ThreadID,
		EntryID:  entry.ID,
		Sequence: sequence,
		Message:  prompt.CheckupMessage(),
		SentAt:   now,
	}
	if err := s.sink.Notify(ctx, n); err != nil {
		s.logger.Warn("notification delivery failed",
			slog.String("entry_id", entry.ID),
			slog.Int("sequence", sequence),
			slog.Any("error", err))
	}
}
