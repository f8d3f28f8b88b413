//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package runner exposes the turn-level surface of the assistant: one call
// per inbound user message, returning either a reply or a confirmation
// request.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"

	"trpc.group/trpc-go/fptshop-assistant/confirm"
	"trpc.group/trpc-go/fptshop-assistant/graph"
	itelemetry "trpc.group/trpc-go/fptshop-assistant/internal/telemetry"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/metric"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/trace"
)

// Kind distinguishes the two possible outcomes of a turn.
type Kind string

const (
	// KindReply is a terminal natural-language answer.
	KindReply Kind = "reply"
	// KindConfirmationRequired means the turn suspended before a sensitive
	// tool. The next message on the thread answers the confirmation.
	KindConfirmationRequired Kind = "confirmation_required"
)

var (
	// ErrEmptyThreadID is returned for a turn without a thread id.
	ErrEmptyThreadID = errors.New("runner: thread id is empty")
	// ErrThreadNotFound is returned when a thread has no checkpoint.
	ErrThreadNotFound = errors.New("runner: thread not found")
)

// AuthContext is the authenticated identity of the caller. It is stamped
// onto tool arguments and never read from model output.
type AuthContext struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// ToolCall is one call of a batch awaiting confirmation.
type ToolCall struct {
	ID   string         `json:"call_id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// TurnResult is the outcome of one turn.
type TurnResult struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text,omitempty"`
	// ToolName and ToolArgs describe the first sensitive call of the
	// pending batch.
	ToolName string         `json:"tool_name,omitempty"`
	ToolArgs map[string]any `json:"tool_args,omitempty"`
	// ToolCalls is the whole pending batch. Approval runs all of it.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// Scope is the active scope after the turn.
	Scope string `json:"scope"`
}

// Option is a function that configures a Runner.
type Option func(*Options)

// Options is the options for the Runner.
type Options struct {
	config    Config
	sensitive func(name string) bool
}

// WithConfig sets the runner configuration.
func WithConfig(cfg Config) Option {
	return func(opts *Options) {
		opts.config = cfg
	}
}

// WithSensitivity selects which pending call is reported in
// TurnResult.ToolName. Without it the first call of the batch is reported.
func WithSensitivity(isSensitive func(name string) bool) Option {
	return func(opts *Options) {
		opts.sensitive = isSensitive
	}
}

// Runner processes turns of many threads. Turns of the same thread are
// serialized; turns of different threads run concurrently and share only
// the checkpoint store.
type Runner struct {
	executor *graph.Executor
	saver    graph.CheckpointSaver
	options  Options
	locks    threadLocks

	turns         otelmetric.Int64Counter
	confirmations otelmetric.Int64Counter
}

// NewRunner creates a Runner executing g with checkpoints in saver.
func NewRunner(g *graph.Graph, saver graph.CheckpointSaver, opts ...Option) (*Runner, error) {
	if saver == nil {
		return nil, errors.New("runner: checkpoint saver is nil")
	}
	options := Options{config: DefaultConfig()}
	for _, opt := range opts {
		opt(&options)
	}
	executor, err := graph.NewExecutor(g,
		graph.WithCheckpointSaver(saver),
		graph.WithMaxSteps(options.config.MaxSteps),
	)
	if err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	r := &Runner{
		executor: executor,
		saver:    saver,
		options:  options,
		locks:    threadLocks{m: make(map[string]*threadLock)},
	}
	if r.turns, err = metric.Meter.Int64Counter("fptshop.turns",
		otelmetric.WithDescription("Turns processed, by outcome.")); err != nil {
		r.turns = noopmetric.Int64Counter{}
	}
	if r.confirmations, err = metric.Meter.Int64Counter("fptshop.confirmations",
		otelmetric.WithDescription("Answers to pending confirmations, by decision.")); err != nil {
		r.confirmations = noopmetric.Int64Counter{}
	}
	return r, nil
}

// Run processes one inbound message of a thread.
//
// When the thread awaits a confirmation, text is consumed as the answer:
// "y" runs the pending batch, anything else denies it with text as the
// reasoning. Otherwise text is a new user message.
//
// Failures of the checkpoint store or the model are returned as errors.
// Tool failures never are.
func (r *Runner) Run(ctx context.Context, threadID, text string, auth AuthContext) (*TurnResult, error) {
	if threadID == "" {
		return nil, ErrEmptyThreadID
	}
	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameProcessTurn)
	defer span.End()
	span.SetAttributes(attribute.String(itelemetry.KeyThreadID, threadID))

	unlock := r.locks.lock(threadID)
	defer unlock()
	if r.options.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.options.config.Timeout)
		defer cancel()
	}

	cp, err := r.executor.Checkpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	var state *graph.State
	if cp.IsInterrupted() {
		decision := confirm.Decision(text)
		log.Infof("runner: thread %s confirmation %s", threadID, decision)
		r.confirmations.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("decision", decision)))
		span.SetAttributes(attribute.String("trpc.go.agent.confirmation", decision))
		state, err = r.executor.Resume(ctx, threadID, confirm.Resolve(cp.State, text))
	} else {
		state = graph.NewState()
		if cp != nil {
			state = cp.State
		}
		state.Auth = graph.Identity{UserID: auth.UserID, Email: auth.Email}
		state.Apply(&graph.Update{Messages: []model.Message{model.NewUserMessage(text)}})
		state, err = r.executor.Invoke(ctx, threadID, state)
	}

	result, err := r.result(state, err)
	if err != nil {
		itelemetry.TraceError(span, err)
		log.Errorf("runner: thread %s turn failed: %v", threadID, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("trpc.go.agent.turn_kind", string(result.Kind)))
	r.turns.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("kind", string(result.Kind))))
	return result, nil
}

func (r *Runner) result(state *graph.State, err error) (*TurnResult, error) {
	if interrupt, ok := graph.GetInterruptError(err); ok {
		res := &TurnResult{Kind: KindConfirmationRequired, Scope: state.DialogStack.Top()}
		for _, call := range interrupt.Value {
			res.ToolCalls = append(res.ToolCalls, ToolCall{
				ID:   call.ID,
				Name: call.Function.Name,
				Args: decodeArgs(call.Function.Arguments),
			})
		}
		if len(res.ToolCalls) > 0 {
			shown := res.ToolCalls[0]
			for _, c := range res.ToolCalls {
				if r.options.sensitive != nil && r.options.sensitive(c.Name) {
					shown = c
					break
				}
			}
			res.ToolName, res.ToolArgs = shown.Name, shown.Args
		}
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	return &TurnResult{Kind: KindReply, Text: state.LastReply(), Scope: state.DialogStack.Top()}, nil
}

// State returns the latest state of a thread.
func (r *Runner) State(ctx context.Context, threadID string) (*graph.State, error) {
	cp, err := r.executor.Checkpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, ErrThreadNotFound
	}
	return cp.State, nil
}

// Reset forgets a thread, including any pending confirmation.
func (r *Runner) Reset(ctx context.Context, threadID string) error {
	unlock := r.locks.lock(threadID)
	defer unlock()
	if err := r.saver.Delete(ctx, threadID); err != nil {
		return fmt.Errorf("%w: delete %s: %v", graph.ErrCheckpoint, threadID, err)
	}
	return nil
}

// Graph returns the executed graph.
func (r *Runner) Graph() *graph.Graph {
	return r.executor.Graph()
}

func decodeArgs(raw []byte) map[string]any {
	args := map[string]any{}
	if strings.TrimSpace(string(raw)) == "" {
		return args
	}
	if err := json.Unmarshal(raw, &args); err != nil || args == nil {
		return map[string]any{"raw": string(raw)}
	}
	return args
}

// threadLocks hands out one mutex per thread id and forgets it once unused.
type threadLocks struct {
	mu sync.Mutex
	m  map[string]*threadLock
}

type threadLock struct {
	mu   sync.Mutex
	refs int
}

func (l *threadLocks) lock(threadID string) (unlock func()) {
	l.mu.Lock()
	tl, ok := l.m[threadID]
	if !ok {
		tl = &threadLock{}
		l.m[threadID] = tl
	}
	tl.refs++
	l.mu.Unlock()

	tl.mu.Lock()
	return func() {
		tl.mu.Unlock()
		l.mu.Lock()
		tl.refs--
		if tl.refs == 0 {
			delete(l.m, threadID)
		}
		l.mu.Unlock()
	}
}
