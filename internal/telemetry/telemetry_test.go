//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// stubSpan records attributes on top of a noop span.
type stubSpan struct {
	trace.Span
	attrs map[attribute.Key]attribute.Value
}

func newStubSpan() *stubSpan {
	_, span := noop.NewTracerProvider().Tracer("").Start(context.Background(), "x")
	return &stubSpan{Span: span, attrs: map[attribute.Key]attribute.Value{}}
}

func (s *stubSpan) SetAttributes(kv ...attribute.KeyValue) {
	for _, a := range kv {
		s.attrs[a.Key] = a.Value
	}
}

func TestTraceToolCall(t *testing.T) {
	span := newStubSpan()
	TraceToolCall(span, "cancel_order", "call_1", []byte(`{"order_id":"O1"}`), "cancelled")

	assert.Equal(t, "cancel_order", span.attrs[attribute.Key(KeyToolName)].AsString())
	assert.Equal(t, "call_1", span.attrs[attribute.Key(KeyToolID)].AsString())
	assert.Equal(t, `{"order_id":"O1"}`, span.attrs[attribute.Key(KeyToolArgs)].AsString())
	assert.Equal(t, "cancelled", span.attrs[attribute.Key(KeyToolResult)].AsString())
}

func TestTraceError(t *testing.T) {
	span := newStubSpan()
	TraceError(span, nil)
	assert.Empty(t, span.attrs)
	TraceError(span, errors.New("boom"))
	assert.Equal(t, "boom", span.attrs[attribute.Key(KeyError)].AsString())
}

func TestSpanNameHelpers(t *testing.T) {
	assert.Equal(t, "execute_tool get_order", NewExecuteToolSpanName("get_order"))
	assert.Equal(t, "execute_node call_shop_agent", NewExecuteNodeSpanName("call_shop_agent"))
}

func TestNewGRPCConn(t *testing.T) {
	conn, err := NewGRPCConn("localhost:4317")
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}
