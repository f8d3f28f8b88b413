//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the span names, attribute keys and exporter
// plumbing shared by the trace and metric packages.
package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// telemetry service constants.
const (
	ServiceName      = "fptshop-assistant"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "fptshop"
	InstrumentName   = "trpc.agent.go"

	SpanNameProcessTurn        = "process_turn"
	SpanNameCallLLM            = "call_llm"
	SpanNameExecuteGraph       = "execute_graph"
	SpanNameResumeGraph        = "resume_graph"
	SpanNameToolsNode          = "tools_node_execution"
	SpanNamePrefixExecuteNode  = "execute_node"
	SpanNamePrefixExecuteTool  = "execute_tool"
	SpanNamePrefixHTTPEndpoint = "http"
)

const (
	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// telemetry attributes constants.
var (
	KeyThreadID   = "trpc.go.agent.thread_id"
	KeyNodeID     = "trpc.go.agent.node_id"
	KeyModelName  = "trpc.go.agent.model_name"
	KeyToolName   = "trpc.go.agent.tool_name"
	KeyToolID     = "trpc.go.agent.tool_id"
	KeyToolArgs   = "trpc.go.agent.tool_call_args"
	KeyToolResult = "trpc.go.agent.tool_response"
	KeyError      = "trpc.go.agent.error"
	KeyScope      = "trpc.go.agent.scope"
)

// NewExecuteToolSpanName returns the span name of one tool call.
func NewExecuteToolSpanName(toolName string) string {
	return fmt.Sprintf("%s %s", SpanNamePrefixExecuteTool, toolName)
}

// NewExecuteNodeSpanName returns the span name of one graph node.
func NewExecuteNodeSpanName(nodeID string) string {
	return fmt.Sprintf("%s %s", SpanNamePrefixExecuteNode, nodeID)
}

// TraceToolCall records a finished tool call on span.
func TraceToolCall(span trace.Span, name, callID string, args []byte, result string) {
	span.SetAttributes(
		attribute.String("gen_ai.system", "trpc.go.agent"),
		attribute.String("gen_ai.operation.name", "tool.execute"),
		attribute.String("gen_ai.tool.name", name),
		attribute.String(KeyToolName, name),
		attribute.String(KeyToolID, callID),
		attribute.String(KeyToolArgs, string(args)),
		attribute.String(KeyToolResult, result),
	)
}

// TraceError records err on span.
func TraceError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetAttributes(attribute.String(KeyError, err.Error()))
}

// NewGRPCConn creates a new gRPC connection to the OpenTelemetry Collector.
func NewGRPCConn(endpoint string) (*grpc.ClientConn, error) {
	// Note the use of insecure transport here. TLS is recommended in production.
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to collector: %w", err)
	}
	return conn, nil
}
