// Package store provides persistence for reflectin conversation entries.
// One flat collection of entries, logically partitioned by user_id.
package store

import "time"

// Sentiment labels.
const (
	LabelNegative = "Negative"
	LabelNeutral  = "Neutral"
	LabelPositive = "Positive"
)

// MaxNotifications is the terminal value of Entry.NotificationsSent.
const MaxNotifications = 2

// Sentiment is the bounded emotional reading for one message.
// Polarity is in [-1, 1], Score in [1, 10].
type Sentiment struct {
	Polarity float64 `json:"polarity"`
	Score    int     `json:"score"`
	Label    string  `json:"label"`
}

// Entry represents one processed message in a conversation.
// Conversational fields are immutable once inserted; only the two
// notification fields are ever updated, and only by the scheduler.
type Entry struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	ThreadID string `json:"threadId"`

	RawText   string `json:"rawText"`
	Summary   string `json:"summary"`
	ReplyText string `json:"replyText"`

	Sentiment Sentiment `json:"sentiment"`
	Topics    []string  `json:"topics,omitempty"`
	Entities  []string  `json:"entities,omitempty"`

	// Embedding is the vector computed for this entry at insert time.
	// Stored rather than recomputed so continuity scans never make
	// per-entry network calls.
	Embedding []float32 `json:"embedding,omitempty"`

	CreatedAt time.Time `json:"createdAt"`

	// NotificationsSent counts follow-up notifications: 0, 1 or 2.
	// Monotone, bounded by MaxNotifications.
	NotificationsSent int `json:"notificationsSent"`

	// FirstNotificationAt is set exactly once, on the 0 -> 1 transition.
	FirstNotificationAt *time.Time `json:"firstNotificationAt,omitempty"`
}

// ComparisonText is the text used for continuity matching: the summary
// when one exists, otherwise the raw message.
func (e *Entry) ComparisonText() string {
	if e.Summary != "" {
		return e.Summary
	}
	return e.RawText
}

// Clone returns a deep copy of the entry.
func (e *Entry) Clone() *Entry {
	c := *e
	if e.Topics != nil {
		c.Topics = append([]string(nil), e.Topics...)
	}
	if e.Entities != nil {
		c.Entities = append([]string(nil), e.Entities...)
	}
	if e.Embedding != nil {
		c.Embedding = append([]float32(nil), e.Embedding...)
	}
	if e.FirstNotificationAt != nil {
		t := *e.FirstNotificationAt
		c.FirstNotificationAt = &t
	}
	return &c
}
