package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kittclouds/reflectin/internal/engine"
	"github.com/kittclouds/reflectin/internal/thread"
)

// defaultUserID partitions entries when the client does not identify itself.
const defaultUserID = "default"

type server struct {
	engine *engine.Engine
	logger *slog.Logger
}

func newServer(eng *engine.Engine, logger *slog.Logger) *server {
	return &server{engine: eng, logger: logger}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /checkup", s.handleCheckup)
	return mux
}

type chatRequest struct {
	UserID      string `json:"user_id"`
	UserMessage string `json:"user_message"`
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserMessage == "" {
		writeError(w, http.StatusBadRequest, "user_message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = defaultUserID
	}

	result, err := s.engine.Process(r.Context(), req.UserID, req.UserMessage)
	if err != nil {
		s.logger.Error("chat processing failed",
			slog.String("user_id", req.UserID),
			slog.Any("error", err))
		switch {
		case errors.Is(err, thread.ErrStoreUnavailable),
			errors.Is(err, thread.ErrEmbeddingFailed):
			writeError(w, http.StatusServiceUnavailable, "service temporarily unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleCheckup(w http.ResponseWriter, r *http.Request) {
	message := s.engine.Checkup(r.Context(), r.URL.Query().Get("thread_id"))
	writeJSON(w, http.StatusOK, map[string]string{"checkup_message": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
