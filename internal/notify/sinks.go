package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// LogSink writes notifications to the log. Used when no outbound transport
// is configured.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink over the given logger (nil means slog.Default).
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Notify(_ context.Context, n Notification) error {
	s.logger.Info("check-in notification",
		slog.String("user_id", n.UserID),
		slog.String("thread_id", n.ThreadID),
		slog.Int("sequence", n.Sequence),
		slog.String("message", n.Message))
	return nil
}

// NATSSink publishes notifications onto a NATS subject. Publish is
// fire-and-forget, matching the at-most-twice, no-acknowledgement model.
type NATSSink struct {
	conn    *nats.Conn
	subject string
}

// NewNATSSink connects to the NATS server and returns a sink.
func NewNATSSink(url, subject string) (*NATSSink, error) {
	conn, err := nats.Connect(url, nats.Name("reflectin-notifier"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSSink{conn: conn, subject: subject}, nil
}

func (s *NATSSink) Notify(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return s.conn.Publish(s.subject, payload)
}

// Close drains the connection.
func (s *NATSSink) Close() error {
	return s.conn.Drain()
}

// Compile-time interface checks
var (
	_ Sink = (*LogSink)(nil)
	_ Sink = (*NATSSink)(nil)
)
