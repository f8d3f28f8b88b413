//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package savertest holds the behavior every checkpoint saver must satisfy.
package savertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/model"
)

// SuspendedState returns a state paused before a sensitive cancel_order call.
func SuspendedState() *graph.State {
	s := graph.NewState()
	s.DialogStack.Push(dialog.Shop)
	call := model.ToolCall{
		Type: "function",
		ID:   "call_1",
		Function: model.FunctionDefinitionParam{
			Name:      "cancel_order",
			Arguments: []byte(`{"order_id":"ORDER_abc123","user_id":"u1"}`),
		},
	}
	s.Messages = []model.Message{
		model.NewUserMessage("cancel order ORDER_abc123"),
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{call}},
	}
	s.PendingToolCalls = []model.ToolCall{call}
	s.Fields = map[string]any{"last_order": "ORDER_abc123"}
	s.Auth = graph.Identity{UserID: "u1", Email: "u1@example.com"}
	return s
}

// Run exercises saver against the CheckpointSaver contract.
func Run(t *testing.T, saver graph.CheckpointSaver) {
	t.Helper()
	ctx := context.Background()

	missing, err := saver.Get(ctx, "no-such-thread")
	require.NoError(t, err)
	assert.Nil(t, missing)

	cp := graph.NewCheckpoint("t1", SuspendedState(), "sensitive_tools_shop", 3)
	require.NoError(t, saver.Put(ctx, cp))

	got, err := saver.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cp.ID, got.ID)
	assert.Equal(t, "t1", got.ThreadID)
	assert.Equal(t, "sensitive_tools_shop", got.Next)
	assert.Equal(t, 3, got.Step)
	assert.True(t, got.IsInterrupted())
	assert.Equal(t, dialog.Shop, got.State.DialogStack.Top())
	assert.Equal(t, 2, got.State.DialogStack.Depth())
	require.Len(t, got.State.Messages, 2)
	assert.Equal(t, "cancel order ORDER_abc123", got.State.Messages[0].Content)
	require.Len(t, got.State.PendingToolCalls, 1)
	assert.Equal(t, "call_1", got.State.PendingToolCalls[0].ID)
	assert.JSONEq(t, `{"order_id":"ORDER_abc123","user_id":"u1"}`,
		string(got.State.PendingToolCalls[0].Function.Arguments))
	assert.Equal(t, "ORDER_abc123", got.State.Fields["last_order"])
	assert.Equal(t, "u1", got.State.Auth.UserID)

	// A later checkpoint replaces the earlier one.
	done := SuspendedState()
	done.PendingToolCalls = nil
	done.Messages = append(done.Messages, model.NewAssistantMessage("Order cancelled."))
	next := graph.NewCheckpoint("t1", done, "", 5)
	require.NoError(t, saver.Put(ctx, next))
	got, err = saver.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, next.ID, got.ID)
	assert.False(t, got.IsInterrupted())
	assert.Len(t, got.State.Messages, 3)

	// Threads are isolated.
	other := graph.NewCheckpoint("t2", graph.NewState(), "", 1)
	require.NoError(t, saver.Put(ctx, other))
	got, err = saver.Get(ctx, "t2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, other.ID, got.ID)
	assert.Equal(t, dialog.Primary, got.State.DialogStack.Top())

	require.NoError(t, saver.Delete(ctx, "t1"))
	got, err = saver.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, saver.Delete(ctx, "t1"))

	got, err = saver.Get(ctx, "t2")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
