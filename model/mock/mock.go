//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package mock provides scripted models for tests and offline runs.
package mock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"trpc.group/trpc-go/fptshop-assistant/model"
)

// ErrScriptExhausted is returned when a scripted model is called more often
// than it has steps.
var ErrScriptExhausted = errors.New("mock: script exhausted")

// Step is one scripted model turn.
type Step struct {
	// Respond computes the reply from the request. It takes precedence over Message.
	Respond func(req *model.Request) model.Message
	// Message is returned as the reply.
	Message model.Message
	// Err fails GenerateContent.
	Err error
	// APIError is delivered as Response.Error.
	APIError *model.ResponseError
}

// Reply scripts a final text answer.
func Reply(text string) Step {
	return Step{Message: model.NewAssistantMessage(text)}
}

// Calls scripts a tool request.
func Calls(calls ...model.ToolCall) Step {
	return Step{Message: model.Message{Role: model.RoleAssistant, ToolCalls: calls}}
}

// Degenerate scripts a blank answer without tool calls.
func Degenerate() Step {
	return Step{Message: model.NewAssistantMessage("")}
}

// Fail scripts a transport failure.
func Fail(err error) Step {
	return Step{Err: err}
}

// Call builds a tool call.
func Call(id, name, args string) model.ToolCall {
	return model.ToolCall{
		Type: "function",
		ID:   id,
		Function: model.FunctionDefinitionParam{
			Name:      name,
			Arguments: []byte(args),
		},
	}
}

// Model replays a script, one step per GenerateContent call.
type Model struct {
	name string

	mu       sync.Mutex
	steps    []Step
	requests []*model.Request
	fallback func(req *model.Request) model.Message
}

// New creates a scripted model.
func New(steps ...Step) *Model {
	return &Model{name: "mock", steps: steps}
}

// NewEcho creates a model that answers every request by echoing the newest
// user message. It never runs out of steps.
func NewEcho() *Model {
	m := New()
	m.name = "mock-echo"
	m.fallback = func(req *model.Request) model.Message {
		for i := len(req.Messages) - 1; i >= 0; i-- {
			if req.Messages[i].Role == model.RoleUser {
				return model.NewAssistantMessage("You said: " + req.Messages[i].Content)
			}
		}
		return model.NewAssistantMessage("Hello! How can I help you today?")
	}
	return m
}

// Push appends steps to the script.
func (m *Model) Push(steps ...Step) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, steps...)
}

// Remaining returns the number of unconsumed steps.
func (m *Model) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.steps)
}

// Requests returns the requests received so far.
func (m *Model) Requests() []*model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Request(nil), m.requests...)
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements model.Model.
func (m *Model) GenerateContent(ctx context.Context, req *model.Request) (<-chan *model.Response, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	m.mu.Lock()
	snapshot := *req
	snapshot.Messages = append([]model.Message(nil), req.Messages...)
	m.requests = append(m.requests, &snapshot)
	var step Step
	switch {
	case len(m.steps) > 0:
		step = m.steps[0]
		m.steps = m.steps[1:]
	case m.fallback != nil:
		step = Step{Respond: m.fallback}
	default:
		m.mu.Unlock()
		return nil, fmt.Errorf("%w after %d request(s)", ErrScriptExhausted, len(m.requests)-1)
	}
	m.mu.Unlock()

	if step.Err != nil {
		return nil, step.Err
	}
	rsp := &model.Response{
		ID:        fmt.Sprintf("mock-%d", len(m.requests)),
		Object:    model.ObjectTypeChatCompletion,
		Model:     m.name,
		Created:   time.Now().Unix(),
		Timestamp: time.Now(),
		Done:      true,
		Error:     step.APIError,
	}
	if step.APIError == nil {
		msg := step.Message
		if step.Respond != nil {
			msg = step.Respond(&snapshot)
		}
		rsp.Choices = []model.Choice{{Message: msg}}
	}
	ch := make(chan *model.Response, 1)
	ch <- rsp
	close(ch)
	return ch, nil
}
