package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/fwojciec/chatstream"
	csjson "github.com/fwojciec/chatstream/json"
	cswebsocket "github.com/fwojciec/chatstream/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// server exposes the websocket surface over HTTP. Prompts are answered
// one at a time; a prompt arriving while a reply streams is rejected.
type server struct {
	chat    *chat
	hub     *cswebsocket.Hub
	surface chatstream.Surface
	store   chatstream.Store
	metrics http.Handler
	logger  *zap.Logger

	busy sync.Mutex
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

type promptResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

func (s *server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics)
	r.Get("/ws", s.hub.ServeHTTP)
	r.Get("/v1/messages", s.handleListMessages)
	r.Post("/v1/prompt", s.handlePrompt)
	return r
}

func (s *server) handleListMessages(w http.ResponseWriter, _ *http.Request) {
	updates, err := s.store.List()
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, promptResponse{Error: err.Error()})
		return
	}
	data, err := csjson.MarshalTranscript(updates)
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, promptResponse{Error: err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, promptResponse{Error: "invalid JSON body"})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		respondJSON(w, http.StatusBadRequest, promptResponse{Error: "prompt is required"})
		return
	}
	if !s.busy.TryLock() {
		respondJSON(w, http.StatusConflict, promptResponse{Error: "a reply is already streaming"})
		return
	}
	defer s.busy.Unlock()

	text, err := s.chat.Reply(r.Context(), prompt, s.surface)
	if err != nil {
		s.logger.Warn("prompt failed", zap.Error(err))
		status := http.StatusBadGateway
		if errors.Is(err, chatstream.ErrValidation) {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, promptResponse{Text: text, Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, promptResponse{Text: text})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// newRegistry returns a registry with the Go runtime and process
// collectors registered alongside the render metrics.
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
