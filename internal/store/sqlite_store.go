// Package store provides SQLite-backed persistence for reflectin.
// Uses ncruces/go-sqlite3/driver which provides a database/sql interface.
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// SQLiteStore is the SQLite-backed conversation store.
// Thread-safe for the request path and the notification scheduler.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// schema defines the single flat entries collection.
// Embeddings are stored as little-endian float32 blobs (sqlite-vec wire
// format), so vec_* SQL functions can read them directly if needed.
const schema = `
CREATE TABLE IF NOT EXISTS entries (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    thread_id TEXT NOT NULL,
    raw_text TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    reply_text TEXT NOT NULL DEFAULT '',
    polarity REAL NOT NULL DEFAULT 0,
    score INTEGER NOT NULL DEFAULT 0,
    label TEXT NOT NULL DEFAULT '',
    topics TEXT,
    entities TEXT,
    embedding BLOB,
    created_at INTEGER NOT NULL,
    notifications_sent INTEGER NOT NULL DEFAULT 0,
    first_notification_at INTEGER
);

CREATE INDEX IF NOT EXISTS idx_entries_user ON entries(user_id);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

// NewSQLiteStore creates a new in-memory SQLite store.
func NewSQLiteStore() (*SQLiteStore, error) {
	return NewSQLiteStoreWithDSN(":memory:")
}

// NewSQLiteStoreWithDSN creates a store with a specific data source name.
// Use ":memory:" for in-memory or a file path for persistent storage.
func NewSQLiteStoreWithDSN(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A plain :memory: database is private to each sqlite connection, and
	// database/sql pools connections. Cap the pool at one so every query
	// sees the connection the schema was created on.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert stores a new entry and returns its assigned ID.
func (s *SQLiteStore) Insert(entry *Entry) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := newEntryID()
	entry.ID = id
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	topics, err := marshalStrings(entry.Topics)
	if err != nil {
		return "", fmt.Errorf("failed to encode topics: %w", err)
	}
	entities, err := marshalStrings(entry.Entities)
	if err != nil {
		return "", fmt.Errorf("failed to encode entities: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO entries (id, user_id, thread_id, raw_text, summary, reply_text,
			polarity, score, label, topics, entities, embedding,
			created_at, notifications_sent, first_notification_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, entry.UserID, entry.ThreadID, entry.RawText, entry.Summary, entry.ReplyText,
		entry.Sentiment.Polarity, entry.Sentiment.Score, entry.Sentiment.Label,
		topics, entities, encodeVector(entry.Embedding),
		entry.CreatedAt.UnixMilli(), entry.NotificationsSent, timePtrToMillis(entry.FirstNotificationAt))
	if err != nil {
		return "", fmt.Errorf("failed to insert entry: %w", err)
	}

	return id, nil
}

// entryColumns is the canonical column list; order must match scanEntry.
const entryColumns = `id, user_id, thread_id, raw_text, summary, reply_text,
	polarity, score, label, topics, entities, embedding,
	created_at, notifications_sent, first_notification_at`

// FindByUser returns all entries for the user. No ORDER BY on purpose:
// callers must treat iteration order as arbitrary.
func (s *SQLiteStore) FindByUser(userID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT `+entryColumns+` FROM entries WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var result []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// FindMostRecentWithReply returns the newest replied-to entry since the cutoff.
func (s *SQLiteStore) FindMostRecentWithReply(since time.Time) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT `+entryColumns+` FROM entries
		WHERE reply_text != '' AND created_at >= ?
		ORDER BY created_at DESC LIMIT 1
	`, since.UnixMilli())

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateNotificationState advances the counter only if it still holds the
// expected prior value. FirstNotificationAt is written once and kept.
func (s *SQLiteStore) UpdateNotificationState(id string, expectedPrior, newCount int, firstAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE entries
		SET notifications_sent = ?,
		    first_notification_at = COALESCE(first_notification_at, ?)
		WHERE id = ? AND notifications_sent = ?
	`, newCount, timePtrToMillis(firstAt), id, expectedPrior)
	if err != nil {
		return false, fmt.Errorf("failed to update notification state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// Row scanning and encoding helpers
// =============================================================================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		e           Entry
		topics      sql.NullString
		entities    sql.NullString
		embedding   []byte
		createdAt   int64
		firstNotify sql.NullInt64
	)

	err := row.Scan(&e.ID, &e.UserID, &e.ThreadID, &e.RawText, &e.Summary, &e.ReplyText,
		&e.Sentiment.Polarity, &e.Sentiment.Score, &e.Sentiment.Label,
		&topics, &entities, &embedding,
		&createdAt, &e.NotificationsSent, &firstNotify)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	if topics.Valid && topics.String != "" {
		if err := json.Unmarshal([]byte(topics.String), &e.Topics); err != nil {
			return nil, fmt.Errorf("failed to decode topics: %w", err)
		}
	}
	if entities.Valid && entities.String != "" {
		if err := json.Unmarshal([]byte(entities.String), &e.Entities); err != nil {
			return nil, fmt.Errorf("failed to decode entities: %w", err)
		}
	}
	e.Embedding = decodeVector(embedding)
	e.CreatedAt = time.UnixMilli(createdAt).UTC()
	if firstNotify.Valid {
		t := time.UnixMilli(firstNotify.Int64).UTC()
		e.FirstNotificationAt = &t
	}

	return &e, nil
}

func marshalStrings(values []string) (sql.NullString, error) {
	if len(values) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func timePtrToMillis(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}

// encodeVector serializes a float32 vector as a little-endian blob,
// the same layout sqlite-vec uses for vec_f32 values.
func encodeVector(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// decodeVector is the inverse of encodeVector.
func decodeVector(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

// Compile-time interface check
var _ Storer = (*SQLiteStore)(nil)
