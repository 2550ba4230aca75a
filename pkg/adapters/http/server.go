// Package http exposes a running keeper over a small JSON API: read the
// snapshot or a single path, set a cell, force a flush, and stream flush
// events over SSE. Intended as an inspection and control surface, not a
// replication mechanism.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/taproot/internal/logging"
	"github.com/aretw0/taproot/pkg/schema"
	"github.com/aretw0/taproot/pkg/snapshot"
	"github.com/aretw0/taproot/pkg/value"
)

// Engine is the slice of the keeper the server needs.
type Engine interface {
	Snapshot(ctx context.Context) (value.Value, error)
	Get(ctx context.Context, path string) (value.Value, error)
	Set(ctx context.Context, path string, v value.Value) error
	Flush(ctx context.Context) error
}

// Server exposes an Engine over HTTP.
type Server struct {
	engine  Engine
	streams *StreamManager
	logger  *slog.Logger
	name    string
	version string
	schema  schema.Schema
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithInfo sets the name and version reported by /info.
func WithInfo(name, version string) Option {
	return func(s *Server) {
		s.name = name
		s.version = version
	}
}

// WithSchema publishes the document schema on /schema so clients can
// discover which fields are typed.
func WithSchema(sch schema.Schema) Option {
	return func(s *Server) {
		s.schema = sch
	}
}

// NewServer creates a server around engine. Wire NotifyFlush into the
// keeper's hooks to feed the /events stream.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		streams: NewStreamManager(),
		logger:  logging.NewNop(),
		name:    "taproot",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NotifyFlush publishes a flush event to every /events subscriber. Safe to
// call from the keeper's loop: delivery never blocks.
func (s *Server) NotifyFlush(e snapshot.FlushEvent) {
	payload := map[string]any{"took_ms": e.Duration.Milliseconds()}
	if e.Err != nil {
		payload["error"] = e.Err.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.streams.Broadcast(string(data))
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Get("/schema", s.getSchema)
	r.Get("/state", s.getState)
	r.Get("/state/{path}", s.getPath)
	r.Put("/state/{path}", s.putPath)
	r.Post("/flush", s.postFlush)
	r.Get("/events", s.subscribeEvents)

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"name":    s.name,
		"version": strings.TrimSpace(s.version),
	})
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	if len(s.schema) == 0 {
		writeJSON(w, map[string]string{})
		return
	}
	writeJSON(w, s.schema)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	v, err := s.engine.Snapshot(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("snapshot error: %v", err), http.StatusInternalServerError)
		s.logger.Error("snapshot failed", "error", err)
		return
	}
	s.writeValue(w, v)
}

func (s *Server) getPath(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")
	v, err := s.engine.Get(r.Context(), path)
	if err != nil {
		http.Error(w, fmt.Sprintf("get %s: %v", path, err), http.StatusNotFound)
		return
	}
	s.writeValue(w, v)
}

func (s *Server) putPath(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "path")

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		s.logger.Warn("set: invalid request body", "error", err)
		return
	}
	v, err := value.Decode(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid value: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.engine.Set(r.Context(), path, v); err != nil {
		http.Error(w, fmt.Sprintf("set %s: %v", path, err), http.StatusUnprocessableEntity)
		s.logger.Warn("set rejected", "path", path, "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postFlush(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Flush(r.Context()); err != nil {
		http.Error(w, fmt.Sprintf("flush error: %v", err), http.StatusInternalServerError)
		s.logger.Error("flush failed", "error", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// subscribeEvents streams flush events as SSE.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("sse client disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: flush\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeValue(w http.ResponseWriter, v value.Value) {
	data, err := value.EncodeIndent(v)
	if err != nil {
		http.Error(w, fmt.Sprintf("encode error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
	w.Write([]byte("\n"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
