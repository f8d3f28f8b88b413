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
	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
)

// Identity is the authenticated caller of a turn. It is stamped onto tool
// arguments by the agent node and is never taken from model output.
type Identity struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
}

// State is the conversation state that flows through the graph.
// One State exists per thread and is persisted in checkpoints.
type State struct {
	// Messages is append-only. Entries are never rewritten once added.
	Messages []model.Message `json:"messages"`
	// DialogStack records which scope owns the next turn.
	DialogStack dialog.Stack `json:"dialog_stack"`
	// PendingToolCalls holds the batch awaiting confirmation. It is non-empty
	// iff execution is suspended before a sensitive tools node.
	PendingToolCalls []model.ToolCall `json:"pending_tool_calls,omitempty"`
	// Fields carries values accumulated across turns, e.g. the last
	// recommended products.
	Fields map[string]any `json:"fields,omitempty"`
	// Auth is the identity of the current turn's caller.
	Auth Identity `json:"auth"`
}

// NewState creates the state of a new conversation.
func NewState() *State {
	return &State{DialogStack: dialog.New()}
}

// Clone returns a copy that can be mutated without affecting s.
// Messages and field values are shared since they are never mutated in place.
func (s *State) Clone() *State {
	if s == nil {
		return NewState()
	}
	c := &State{
		Messages:    append([]model.Message(nil), s.Messages...),
		DialogStack: s.DialogStack.Clone(),
		Auth:        s.Auth,
	}
	if len(s.PendingToolCalls) > 0 {
		c.PendingToolCalls = append([]model.ToolCall(nil), s.PendingToolCalls...)
	}
	if s.Fields != nil {
		c.Fields = MergeReducer(nil, s.Fields)
	}
	return c
}

// Pending reports whether the conversation awaits a confirmation.
func (s *State) Pending() bool {
	return len(s.PendingToolCalls) > 0
}

// LastMessage returns the newest message.
func (s *State) LastMessage() (model.Message, bool) {
	if len(s.Messages) == 0 {
		return model.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// LastToolCalls returns the tool calls of the newest assistant message, or
// nil when the newest assistant message requested none.
func (s *State) LastToolCalls() []model.ToolCall {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == model.RoleAssistant {
			return s.Messages[i].ToolCalls
		}
	}
	return nil
}

// LastReply returns the content of the newest assistant message.
func (s *State) LastReply() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == model.RoleAssistant {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Update is a partial state change returned by a node.
type Update struct {
	// Messages are appended.
	Messages []model.Message
	// Push, when set, makes the named scope active.
	Push dialog.Scope
	// Pop returns to the enclosing scope.
	Pop bool
	// Fields are merged into State.Fields.
	Fields map[string]any
}

// Apply folds u into s using the state reducers.
func (s *State) Apply(u *Update) {
	if u == nil {
		return
	}
	s.Messages = MessageReducer(s.Messages, u.Messages)
	if u.Pop {
		s.DialogStack.Pop()
	}
	if u.Push != "" {
		if err := s.DialogStack.Push(u.Push); err != nil {
			log.Warnf("graph: %v", err)
		}
	}
	if len(u.Fields) > 0 {
		s.Fields = MergeReducer(s.Fields, u.Fields)
	}
}

// MessageReducer appends update to existing.
func MessageReducer(existing, update []model.Message) []model.Message {
	if len(update) == 0 {
		return existing
	}
	return append(existing, update...)
}

// MergeReducer merges update into a copy of existing.
func MergeReducer(existing, update map[string]any) map[string]any {
	result := make(map[string]any, len(existing)+len(update))
	for k, v := range existing {
		result[k] = v
	}
	for k, v := range update {
		result[k] = v
	}
	return result
}
