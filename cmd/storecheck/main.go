// Command storecheck smoke-tests both store implementations against the
// same sequence of operations.
package main

import (
	"fmt"
	"log"
	"time"

	"github.com/kittclouds/reflectin/internal/store"
)

func main() {
	fmt.Println("Testing MemStore...")
	s := store.NewMemStore()
	exercise(s)
	s.Close()

	fmt.Println("\nTesting SQLiteStore...")
	sq, err := store.NewSQLiteStore()
	if err != nil {
		log.Fatalf("NewSQLiteStore failed: %v", err)
	}
	exercise(sq)
	sq.Close()

	fmt.Println("\nAll store checks passed")
}

func exercise(s store.Storer) {
	entry := &store.Entry{
		UserID:    "user-1",
		ThreadID:  "thread-1",
		RawText:   "I had a rough day at work",
		Summary:   "You had a rough day at work.",
		ReplyText: "What made it feel rough?",
		Sentiment: store.Sentiment{Polarity: -0.4, Score: 3, Label: store.LabelNegative},
		Topics:    []string{"work"},
		Embedding: []float32{0.1, 0.2, 0.3},
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.Insert(entry)
	if err != nil {
		log.Fatalf("Insert failed: %v", err)
	}
	fmt.Println("  Insert works")

	entries, err := s.FindByUser("user-1")
	if err != nil {
		log.Fatalf("FindByUser failed: %v", err)
	}
	if len(entries) != 1 {
		log.Fatalf("FindByUser expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].Embedding) != 3 {
		log.Fatalf("embedding round-trip lost data: %v", entries[0].Embedding)
	}
	fmt.Println("  FindByUser works")

	recent, err := s.FindMostRecentWithReply(time.Now().Add(-time.Minute))
	if err != nil {
		log.Fatalf("FindMostRecentWithReply failed: %v", err)
	}
	if recent == nil || recent.ID != id {
		log.Fatal("FindMostRecentWithReply did not return the inserted entry")
	}
	fmt.Println("  FindMostRecentWithReply works")

	now := time.Now().UTC()
	applied, err := s.UpdateNotificationState(id, 0, 1, &now)
	if err != nil {
		log.Fatalf("UpdateNotificationState failed: %v", err)
	}
	if !applied {
		log.Fatal("conditional update should have applied")
	}
	applied, err = s.UpdateNotificationState(id, 0, 1, &now)
	if err != nil {
		log.Fatalf("UpdateNotificationState failed: %v", err)
	}
	if applied {
		log.Fatal("stale conditional update should not apply")
	}
	fmt.Println("  UpdateNotificationState works")
}
