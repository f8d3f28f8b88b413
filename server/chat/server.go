//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package chat provides the HTTP API of the assistant.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/runner"
)

// Identity headers. They are set by the authenticating proxy in front of
// the API; the request body never carries identity.
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserEmail = "X-User-Email"
)

const maxBodyBytes = 64 << 10

// TurnRunner is the part of runner.Runner the server needs.
type TurnRunner interface {
	Run(ctx context.Context, threadID, text string, auth runner.AuthContext) (*runner.TurnResult, error)
	State(ctx context.Context, threadID string) (*graph.State, error)
	Reset(ctx context.Context, threadID string) error
}

// Server exposes conversation threads over HTTP.
type Server struct {
	runner  TurnRunner
	router  *mux.Router
	opts    options
	metrics *metrics
}

// New creates a server over r.
func New(r TurnRunner, opts ...Option) *Server {
	o := options{origins: []string{"*"}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
	}
	s := &Server{
		runner:  r,
		router:  mux.NewRouter(),
		opts:    o,
		metrics: newMetrics(o.registry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", HeaderUserID, HeaderUserEmail},
	})
	return c.Handler(s.router)
}

func (s *Server) registerRoutes() {
	s.router.Use(s.metrics.middleware)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := s.router.PathPrefix("/v1").Subrouter()
	if s.opts.rps > 0 {
		api.Use(rateLimit(rate.NewLimiter(rate.Limit(s.opts.rps), max(s.opts.burst, 1))))
	}
	api.HandleFunc("/threads/{threadId}/turns", s.handleTurn).Methods(http.MethodPost)
	api.HandleFunc("/threads/{threadId}", s.handleGetThread).Methods(http.MethodGet)
	api.HandleFunc("/threads/{threadId}", s.handleDeleteThread).Methods(http.MethodDelete)
}

// TurnRequest is the body of a turn.
type TurnRequest struct {
	Text string `json:"text"`
}

// ThreadView is the state snapshot of a thread.
type ThreadView struct {
	ThreadID         string           `json:"thread_id"`
	Scope            string           `json:"scope"`
	DialogStack      []string         `json:"dialog_stack"`
	Messages         []model.Message  `json:"messages"`
	PendingToolCalls []model.ToolCall `json:"pending_tool_calls,omitempty"`
	Fields           map[string]any   `json:"fields,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadId"]
	var req TurnRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is empty")
		return
	}
	auth := runner.AuthContext{
		UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Email:  strings.TrimSpace(r.Header.Get(HeaderUserEmail)),
	}
	res, err := s.runner.Run(r.Context(), threadID, req.Text, auth)
	if err != nil {
		if errors.Is(err, runner.ErrEmptyThreadID) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Errorf("chat: turn on thread %s failed: %v", threadID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.turns.WithLabelValues(string(res.Kind)).Inc()
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadId"]
	state, err := s.runner.State(r.Context(), threadID)
	if errors.Is(err, runner.ErrThreadNotFound) {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	if err != nil {
		log.Errorf("chat: read thread %s failed: %v", threadID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ThreadView{
		ThreadID:         threadID,
		Scope:            state.DialogStack.Top(),
		DialogStack:      state.DialogStack.Scopes(),
		Messages:         state.Messages,
		PendingToolCalls: state.PendingToolCalls,
		Fields:           state.Fields,
	})
}

func (s *Server) handleDeleteThread(w http.ResponseWriter, r *http.Request) {
	threadID := mux.Vars(r)["threadId"]
	if err := s.runner.Reset(r.Context(), threadID); err != nil {
		log.Errorf("chat: reset thread %s failed: %v", threadID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func rateLimit(l *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("chat: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}
