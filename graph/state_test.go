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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/model"
)

func call(id, name, args string) model.ToolCall {
	return model.ToolCall{
		Type:     "function",
		ID:       id,
		Function: model.FunctionDefinitionParam{Name: name, Arguments: []byte(args)},
	}
}

func assistantCalls(calls ...model.ToolCall) model.Message {
	return model.Message{Role: model.RoleAssistant, ToolCalls: calls}
}

func TestStateApply(t *testing.T) {
	s := NewState()
	s.Apply(&Update{
		Messages: []model.Message{model.NewUserMessage("hi")},
		Push:     dialog.Shop,
		Fields:   map[string]any{"last_order": "ORDER_1"},
	})
	assert.Len(t, s.Messages, 1)
	assert.Equal(t, dialog.Shop, s.DialogStack.Top())

	// Pop is applied before Push so one update can switch scopes.
	s.Apply(&Update{Pop: true, Push: dialog.IT, Fields: map[string]any{"ticket": 7}})
	assert.Equal(t, []dialog.Scope{dialog.Primary, dialog.IT}, s.DialogStack.Scopes())
	assert.Equal(t, map[string]any{"last_order": "ORDER_1", "ticket": 7}, s.Fields)

	s.Apply(nil)
	assert.Len(t, s.Messages, 1)

	s.Apply(&Update{Push: "billing"})
	assert.Equal(t, dialog.IT, s.DialogStack.Top(), "unknown scopes are never pushed")
}

func TestStateCloneIsIndependent(t *testing.T) {
	s := NewState()
	s.Messages = []model.Message{assistantCalls(call("c1", "cancel_order", `{}`))}
	s.PendingToolCalls = s.LastToolCalls()
	s.Fields = map[string]any{"k": "v"}
	s.DialogStack.Push(dialog.Shop)

	c := s.Clone()
	c.Apply(&Update{Messages: []model.Message{model.NewUserMessage("x")}, Pop: true, Fields: map[string]any{"k": "w"}})
	c.PendingToolCalls = nil

	assert.Len(t, s.Messages, 1)
	assert.Equal(t, dialog.Shop, s.DialogStack.Top())
	assert.Equal(t, "v", s.Fields["k"])
	assert.True(t, s.Pending())
	assert.False(t, c.Pending())
}

func TestStateLastToolCalls(t *testing.T) {
	s := NewState()
	assert.Nil(t, s.LastToolCalls())
	_, ok := s.LastMessage()
	assert.False(t, ok)

	s.Messages = []model.Message{
		assistantCalls(call("c1", "list_orders", `{}`)),
		model.NewToolMessage("c1", "list_orders", "[]"),
	}
	require.Len(t, s.LastToolCalls(), 1, "tool results do not hide the requesting message")

	s.Messages = append(s.Messages, model.NewAssistantMessage("You have no orders."))
	assert.Nil(t, s.LastToolCalls())
	assert.Equal(t, "You have no orders.", s.LastReply())
}

func TestStateJSON(t *testing.T) {
	s := NewState()
	s.DialogStack.Push(dialog.Appointment)
	s.Auth = Identity{UserID: "u1", Email: "u1@example.com"}
	s.Messages = []model.Message{assistantCalls(call("c1", "book_appointment", `{"date":"2025-01-01"}`))}
	s.PendingToolCalls = s.LastToolCalls()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	var got State
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, dialog.Appointment, got.DialogStack.Top())
	assert.Equal(t, s.Auth, got.Auth)
	require.Len(t, got.PendingToolCalls, 1)
	assert.Equal(t, "book_appointment", got.PendingToolCalls[0].Function.Name)
}
