// Package server exposes the batch analysis API over SSE and WebSocket.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"token-risk-engine/internal/domain"
)

// streamBuffer is the capacity of the per-request message channel.
// The orchestrator never blocks on a consumer that keeps up.
const streamBuffer = 64

// BatchRunner executes a batch and streams its messages to out.
// It must close out when the batch is finished or cancelled.
type BatchRunner interface {
	Run(ctx context.Context, tier domain.Tier, requests []domain.TokenRequest, out chan<- domain.StreamMessage)
}

// Server is the HTTP front for the risk engine.
type Server struct {
	runner BatchRunner
	auth   Authenticator
	logger *log.Logger
}

// Options for creating a Server. Runner is required.
type Options struct {
	Runner BatchRunner
	Auth   Authenticator
	Logger *log.Logger
}

// New creates a Server.
func New(opts Options) *Server {
	auth := opts.Auth
	if auth == nil {
		auth = NewStaticAuthenticator(nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[server] ", log.LstdFlags)
	}
	return &Server{
		runner: opts.Runner,
		auth:   auth,
		logger: logger,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/tokens/analyze", s.handleAnalyze)
	mux.HandleFunc("/v1/tokens/analyze/ws", s.handleAnalyzeWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// analyzeRequest is the POST /v1/tokens/analyze body.
type analyzeRequest struct {
	Tokens []domain.TokenRequest `json:"tokens"`
}

// handleAnalyze streams batch results as server-sent events.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tier, err := s.auth.Authenticate(r)
	if err != nil {
		httpError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tokens) == 0 {
		httpError(w, http.StatusBadRequest, "tokens must not be empty")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		httpError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Client disconnect cancels r.Context(), which stops the batch.
	out := make(chan domain.StreamMessage, streamBuffer)
	go s.runner.Run(r.Context(), tier, req.Tokens, out)

	for msg := range out {
		data, err := json.Marshal(msg)
		if err != nil {
			s.logger.Printf("marshal stream message: %v", err)
			continue
		}
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func httpError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
