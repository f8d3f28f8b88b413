//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/runner"
)

type fakeRunner struct {
	mu     sync.Mutex
	auth   runner.AuthContext
	text   string
	result *runner.TurnResult
	err    error
	state  *graph.State
	resets []string
}

func (f *fakeRunner) Run(_ context.Context, threadID, text string, auth runner.AuthContext) (*runner.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth, f.text = auth, text
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeRunner) State(_ context.Context, threadID string) (*graph.State, error) {
	if f.state == nil {
		return nil, runner.ErrThreadNotFound
	}
	return f.state, nil
}

func (f *fakeRunner) Reset(_ context.Context, threadID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, threadID)
	return f.err
}

func do(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestTurnTakesIdentityFromHeaders(t *testing.T) {
	f := &fakeRunner{result: &runner.TurnResult{
		Kind:     runner.KindConfirmationRequired,
		ToolName: "cancel_order",
		ToolArgs: map[string]any{"order_id": "ORD-1"},
		Scope:    dialog.Shop,
	}}
	h := New(f).Handler()

	rec := do(t, h, http.MethodPost, "/v1/threads/t1/turns",
		`{"text":"cancel ORD-1","user_id":"mallory"}`,
		map[string]string{HeaderUserID: "u-42", HeaderUserEmail: "an@example.com"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, runner.AuthContext{UserID: "u-42", Email: "an@example.com"}, f.auth)
	assert.Equal(t, "cancel ORD-1", f.text)

	var got runner.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, runner.KindConfirmationRequired, got.Kind)
	assert.Equal(t, "cancel_order", got.ToolName)
	assert.Equal(t, "ORD-1", got.ToolArgs["order_id"])
}

func TestTurnRejectsBadInput(t *testing.T) {
	h := New(&fakeRunner{result: &runner.TurnResult{Kind: runner.KindReply}}).Handler()

	for _, body := range []string{`{"text":"   "}`, `{}`, `not json`} {
		rec := do(t, h, http.MethodPost, "/v1/threads/t1/turns", body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "error")
	}
}

func TestTurnFailureIs500(t *testing.T) {
	f := &fakeRunner{err: errors.New("checkpoint store unavailable")}
	rec := do(t, New(f).Handler(), http.MethodPost, "/v1/threads/t1/turns", `{"text":"hi"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body.Error, "checkpoint store unavailable")
}

func TestGetThread(t *testing.T) {
	state := graph.NewState()
	state.DialogStack.Push(dialog.Shop)
	state.Messages = []model.Message{model.NewUserMessage("hi"), model.NewAssistantMessage("hello")}
	state.Fields = map[string]any{"recommended_products": []string{"IP15-128"}}
	f := &fakeRunner{}
	h := New(f).Handler()

	rec := do(t, h, http.MethodGet, "/v1/threads/t1", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	f.state = state
	rec = do(t, h, http.MethodGet, "/v1/threads/t1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view ThreadView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "t1", view.ThreadID)
	assert.Equal(t, dialog.Shop, view.Scope)
	assert.Equal(t, []string{dialog.Primary, dialog.Shop}, view.DialogStack)
	assert.Len(t, view.Messages, 2)
	assert.Contains(t, view.Fields, "recommended_products")
}

func TestDeleteThread(t *testing.T) {
	f := &fakeRunner{}
	rec := do(t, New(f).Handler(), http.MethodDelete, "/v1/threads/t9", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"t9"}, f.resets)
}

func TestRateLimit(t *testing.T) {
	f := &fakeRunner{result: &runner.TurnResult{Kind: runner.KindReply}}
	h := New(f, WithRateLimit(0.001, 1)).Handler()

	first := do(t, h, http.MethodPost, "/v1/threads/t1/turns", `{"text":"hi"}`, nil)
	second := do(t, h, http.MethodPost, "/v1/threads/t1/turns", `{"text":"hi"}`, nil)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	health := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, health.Code, "health checks are not limited")
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	f := &fakeRunner{result: &runner.TurnResult{Kind: runner.KindReply}}
	h := New(f, WithRegistry(reg)).Handler()

	do(t, h, http.MethodPost, "/v1/threads/t1/turns", `{"text":"hi"}`, nil)
	rec := do(t, h, http.MethodGet, "/metrics", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `fptshop_http_requests_total{code="200",method="POST",route="/v1/threads/{threadId}/turns"} 1`)
	assert.Contains(t, body, "fptshop_http_request_duration_seconds_bucket")
	assert.Contains(t, body, `fptshop_http_turns_total{kind="reply"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	h := New(&fakeRunner{}, WithCORSOrigins("https://fptshop.com.vn")).Handler()
	rec := do(t, h, http.MethodOptions, "/v1/threads/t1/turns", "", map[string]string{
		"Origin":                        "https://fptshop.com.vn",
		"Access-Control-Request-Method": http.MethodPost,
	})
	assert.Equal(t, "https://fptshop.com.vn", rec.Header().Get("Access-Control-Allow-Origin"))
}
