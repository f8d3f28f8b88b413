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
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	itelemetry "trpc.group/trpc-go/fptshop-assistant/internal/telemetry"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/trace"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

const (
	// CorrectiveInstruction is injected after a degenerate model output.
	CorrectiveInstruction = "Respond with a real output."
	// FallbackReply is sent to the user when every attempt was degenerate.
	FallbackReply = "Sorry, I couldn't process that. Please try again."

	// ArgUserID is the tool argument carrying the caller's user id.
	ArgUserID = "user_id"
	// ArgEmail is the tool argument carrying the caller's email.
	ArgEmail = "email"
)

// identityArgs are stamped from State.Auth and hidden from the model.
var identityArgs = []string{ArgUserID, ArgEmail}

type agentNodeOptions struct {
	retry            RetryPolicy
	generationConfig model.GenerationConfig
	contextFields    []string
}

// AgentNodeOption configures NewAgentNodeFunc.
type AgentNodeOption func(*agentNodeOptions)

// WithRetryPolicy bounds attempts on degenerate output and selects which
// model errors are retried.
func WithRetryPolicy(p RetryPolicy) AgentNodeOption {
	return func(o *agentNodeOptions) {
		o.retry = p
	}
}

// WithGenerationConfig sets the generation parameters of every request.
func WithGenerationConfig(cfg model.GenerationConfig) AgentNodeOption {
	return func(o *agentNodeOptions) {
		o.generationConfig = cfg
	}
}

// WithContextFields exposes the named State.Fields entries to the model in
// the system instruction.
func WithContextFields(keys ...string) AgentNodeOption {
	return func(o *agentNodeOptions) {
		o.contextFields = append(o.contextFields, keys...)
	}
}

// NewAgentNodeFunc creates a node that invokes llm with the scope's
// instruction, the conversation and the scope's tools, and appends exactly
// one assistant message.
//
// Degenerate output (blank content without tool calls) is retried under the
// retry policy with CorrectiveInstruction appended to the request. When the
// attempts are exhausted FallbackReply is appended instead. Model errors not
// matched by the policy are returned.
func NewAgentNodeFunc(llm model.Model, instruction string, tools map[string]tool.Tool, opts ...AgentNodeOption) NodeFunc {
	o := agentNodeOptions{retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(&o)
	}
	advertised, stamped := hideIdentityArgs(tools)

	return func(ctx context.Context, state *State) (any, error) {
		ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameCallLLM)
		defer span.End()
		span.SetAttributes(
			attribute.String(itelemetry.KeyModelName, llm.Info().Name),
			attribute.Int("trpc.go.agent.tool_count", len(advertised)),
		)

		messages := buildMessages(state, instruction, o.contextFields)
		var (
			reply      model.Message
			degenerate bool
		)
		err := Retry(ctx, o.retry, func(ctx context.Context, attempt int) (bool, error) {
			degenerate = false
			req := &model.Request{
				Messages:         messages,
				GenerationConfig: o.generationConfig,
				Tools:            advertised,
			}
			ch, err := llm.GenerateContent(ctx, req)
			if err != nil {
				return false, fmt.Errorf("failed to generate content: %w", err)
			}
			rsp, err := model.Await(ctx, ch)
			if err != nil {
				return false, err
			}
			msg := rsp.Message()
			if _, ok := model.Classify(msg); !ok {
				log.Warnf("graph: degenerate model output on attempt %d of %d", attempt, o.retry.MaxAttempts)
				messages = append(messages, model.NewUserMessage(CorrectiveInstruction))
				degenerate = true
				return false, nil
			}
			reply = msg
			return true, nil
		})
		if errors.Is(err, ErrRetriesExhausted) && degenerate {
			span.SetAttributes(attribute.Bool("trpc.go.agent.fallback", true))
			return &Update{Messages: []model.Message{model.NewAssistantMessage(FallbackReply)}}, nil
		}
		if err != nil {
			itelemetry.TraceError(span, err)
			return nil, err
		}
		reply.Role = model.RoleAssistant
		reply.ToolCalls = prepareToolCalls(reply.ToolCalls, stamped, state.Auth)
		span.SetAttributes(attribute.Int("trpc.go.agent.tool_calls", len(reply.ToolCalls)))
		return &Update{Messages: []model.Message{reply}}, nil
	}
}

func buildMessages(state *State, instruction string, contextFields []string) []model.Message {
	system := instruction
	var ctxLines []string
	for _, key := range contextFields {
		v, ok := state.Fields[key]
		if !ok {
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			continue
		}
		ctxLines = append(ctxLines, fmt.Sprintf("%s: %s", key, data))
	}
	if len(ctxLines) > 0 {
		system += "\n\nConversation context:\n" + strings.Join(ctxLines, "\n")
	}
	messages := make([]model.Message, 0, len(state.Messages)+2)
	if system != "" {
		messages = append(messages, model.NewSystemMessage(system))
	}
	return append(messages, state.Messages...)
}

// advertisedTool presents a tool to the model with a rewritten declaration.
type advertisedTool struct {
	tool.Tool
	decl *tool.Declaration
}

func (t advertisedTool) Declaration() *tool.Declaration {
	return t.decl
}

// hideIdentityArgs strips identity properties from the schemas sent to the
// model and reports, per tool, the properties to stamp from State.Auth.
func hideIdentityArgs(tools map[string]tool.Tool) (map[string]tool.Tool, map[string][]string) {
	advertised := make(map[string]tool.Tool, len(tools))
	stamped := make(map[string][]string)
	for name, t := range tools {
		decl := t.Declaration()
		var props []string
		for _, p := range identityArgs {
			if decl.InputSchema.HasProperty(p) {
				props = append(props, p)
			}
		}
		if len(props) == 0 {
			advertised[name] = t
			continue
		}
		stripped := *decl
		stripped.InputSchema = decl.InputSchema.Without(props...)
		advertised[name] = advertisedTool{Tool: t, decl: &stripped}
		stamped[name] = props
	}
	return advertised, stamped
}

// prepareToolCalls assigns missing call ids and overwrites identity
// arguments with the authenticated caller.
func prepareToolCalls(calls []model.ToolCall, stamped map[string][]string, auth Identity) []model.ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]model.ToolCall, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = "call_" + uuid.NewString()
		}
		if call.Type == "" {
			call.Type = "function"
		}
		if props := stamped[call.Function.Name]; len(props) > 0 {
			call.Function.Arguments = stampIdentity(call.Function.Arguments, props, auth)
		}
		out[i] = call
	}
	return out
}

func stampIdentity(args []byte, props []string, auth Identity) []byte {
	obj := map[string]any{}
	if len(strings.TrimSpace(string(args))) > 0 {
		if err := json.Unmarshal(args, &obj); err != nil {
			// Left as is; the tools node reports the malformed arguments.
			return args
		}
	}
	if obj == nil {
		obj = map[string]any{}
	}
	for _, p := range props {
		switch p {
		case ArgUserID:
			obj[p] = auth.UserID
		case ArgEmail:
			obj[p] = auth.Email
		}
	}
	data, err := json.Marshal(obj)
	if err != nil {
		return args
	}
	return data
}
