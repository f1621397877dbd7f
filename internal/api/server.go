// Package api serves the HTTP control surface and provides a client for it.
package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/corridas/rankrelay/internal/relay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// Error bodies written for the relay's sentinel errors.
const (
	msgNotReady      = "WhatsApp client not ready"
	msgNoDestination = "No group ID configured"
)

// Server exposes a Relay over HTTP.
type Server struct {
	relay     *relay.Relay
	authToken string
}

// NewServer creates a Server. A non-empty authToken is required as a
// bearer token on /send-message and /groups; /health stays open.
func NewServer(r *relay.Relay, authToken string) *Server {
	return &Server{
		relay:     r,
		authToken: strings.TrimSpace(authToken),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/send-message", s.handleSendMessage)
		r.Get("/groups", s.handleGroups)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": s.relay.Status()})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	// Readiness is checked before the body is even read.
	if !s.relay.Ready() {
		respondError(w, http.StatusServiceUnavailable, msgNotReady)
		return
	}

	var req relay.OutboundRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	err := s.relay.Send(r.Context(), req)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	case errors.Is(err, relay.ErrNotReady):
		respondError(w, http.StatusServiceUnavailable, msgNotReady)
	case errors.Is(err, relay.ErrNoDestination):
		respondError(w, http.StatusBadRequest, msgNoDestination)
	case errors.Is(err, relay.ErrEmptyMessage):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Error sending message", "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.relay.Groups(r.Context())
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, map[string]any{"groups": groups})
	case errors.Is(err, relay.ErrNotReady):
		respondError(w, http.StatusServiceUnavailable, msgNotReady)
	default:
		slog.Error("Error getting groups", "error", err, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.authToken != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(s.authToken)) != 1 {
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
