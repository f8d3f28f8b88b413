//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"

	itelemetry "trpc.group/trpc-go/fptshop-assistant/internal/telemetry"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/metric"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/trace"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

// DefaultToolConcurrency bounds the calls of one batch running at once.
const DefaultToolConcurrency = 8

type toolsNodeOptions struct {
	concurrency int
	pool        *ants.Pool
	callbacks   *tool.Callbacks
}

// ToolsNodeOption configures NewToolsNodeFunc.
type ToolsNodeOption func(*toolsNodeOptions)

// WithToolConcurrency bounds the calls of one batch running at once.
func WithToolConcurrency(n int) ToolsNodeOption {
	return func(o *toolsNodeOptions) {
		o.concurrency = n
	}
}

// WithToolPool runs calls on a shared pool instead of a per-batch one.
func WithToolPool(pool *ants.Pool) ToolsNodeOption {
	return func(o *toolsNodeOptions) {
		o.pool = pool
	}
}

// WithToolCallbacks runs cb around every call of the node.
func WithToolCallbacks(cb *tool.Callbacks) ToolsNodeOption {
	return func(o *toolsNodeOptions) {
		o.callbacks = cb
	}
}

// NewToolsNodeFunc creates a node that executes every tool call of the newest
// assistant message and appends one tool message per call, in request order.
//
// The node never fails: tool errors, panics, unknown tools and malformed
// arguments become error tool results naming the call id. Results
// implementing tool.FieldsProvider are merged into State.Fields.
func NewToolsNodeFunc(tools map[string]tool.Tool, opts ...ToolsNodeOption) NodeFunc {
	o := toolsNodeOptions{concurrency: DefaultToolConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	errCounter, err := metric.Meter.Int64Counter("fptshop.tool.errors",
		otelmetric.WithDescription("Tool calls answered with an error result."))
	if err != nil {
		errCounter = noopmetric.Int64Counter{}
	}

	return func(ctx context.Context, state *State) (any, error) {
		ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameToolsNode)
		defer span.End()

		calls := state.LastToolCalls()
		span.SetAttributes(attribute.Int("trpc.go.agent.tool_calls", len(calls)))
		if len(calls) == 0 {
			return nil, nil
		}
		results := make([]toolResult, len(calls))
		task := func(i int) func() {
			return func() {
				results[i] = runTool(ctx, calls[i], tools[calls[i].Function.Name], o.callbacks)
			}
		}

		pool := o.pool
		if pool == nil && len(calls) > 1 {
			p, err := ants.NewPool(min(o.concurrency, len(calls)))
			if err != nil {
				log.Warnf("graph: tool pool unavailable, running batch inline: %v", err)
			} else {
				defer p.Release()
				pool = p
			}
		}
		var wg sync.WaitGroup
		for i := range calls {
			if pool == nil {
				task(i)()
				continue
			}
			wg.Add(1)
			run := task(i)
			if err := pool.Submit(func() { defer wg.Done(); run() }); err != nil {
				wg.Done()
				run()
			}
		}
		wg.Wait()

		update := &Update{Messages: make([]model.Message, 0, len(calls))}
		for i, r := range results {
			if r.err != nil {
				errCounter.Add(ctx, 1, otelmetric.WithAttributes(
					attribute.String(itelemetry.KeyToolName, calls[i].Function.Name)))
			}
			update.Messages = append(update.Messages, r.message)
			for k, v := range r.fields {
				if update.Fields == nil {
					update.Fields = make(map[string]any)
				}
				update.Fields[k] = v
			}
		}
		return update, nil
	}
}

type toolResult struct {
	message model.Message
	fields  map[string]any
	err     error
}

// ErrorContent renders the tool result reported for a failed call.
func ErrorContent(call model.ToolCall, err error) string {
	return fmt.Sprintf("Error: tool call %s (%s) failed: %v. Please fix your mistakes.",
		call.ID, call.Function.Name, err)
}

func runTool(ctx context.Context, call model.ToolCall, t tool.Tool, cb *tool.Callbacks) (r toolResult) {
	id, name := call.ID, call.Function.Name
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewExecuteToolSpanName(name))
	defer span.End()

	fail := func(err error) toolResult {
		itelemetry.TraceError(span, err)
		itelemetry.TraceToolCall(span, name, id, call.Function.Arguments, "")
		log.Warnf("graph: tool call %s (%s) failed: %v", id, name, err)
		return toolResult{message: model.NewToolMessage(id, name, ErrorContent(call, err)), err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			log.Errorf("graph: tool %s panicked: %v\n%s", name, p, debug.Stack())
			r = fail(fmt.Errorf("panic: %v", p))
		}
	}()

	if t == nil {
		return fail(fmt.Errorf("%w: %s", tool.ErrUnknownTool, name))
	}
	callable, ok := t.(tool.CallableTool)
	if !ok {
		return fail(fmt.Errorf("tool %s is not callable", name))
	}
	inv := &tool.Invocation{CallID: id, Name: name, Args: call.Function.Arguments}
	result, err := cb.RunBeforeTool(ctx, inv)
	if err == nil && result == nil {
		result, err = callable.Call(ctx, inv.Args)
	}
	if result, err = cb.RunAfterTool(ctx, inv, result, err); err != nil {
		return fail(err)
	}
	content, err := encodeResult(result)
	if err != nil {
		return fail(fmt.Errorf("failed to marshal tool result: %w", err))
	}
	itelemetry.TraceToolCall(span, name, id, call.Function.Arguments, content)
	r = toolResult{message: model.NewToolMessage(id, name, content)}
	if fp, ok := result.(tool.FieldsProvider); ok {
		r.fields = fp.StateFields()
	}
	return r
}

func encodeResult(result any) (string, error) {
	if s, ok := result.(string); ok {
		return s, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
