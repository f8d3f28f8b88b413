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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/transfer"
)

type declTool string

func (d declTool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: string(d), InputSchema: &tool.Schema{Type: "object"}}
}

func routeRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	for _, name := range []string{"search_products", "list_orders", "web_search"} {
		require.NoError(t, r.Register(declTool(name), tool.Safe))
	}
	for _, name := range []string{"cancel_order", "place_order", "update_item_quantity"} {
		require.NoError(t, r.Register(declTool(name), tool.Sensitive))
	}
	require.NoError(t, r.Register(transfer.New(dialog.Shop, ""), tool.Safe))
	require.NoError(t, r.Register(transfer.NewLeave(), tool.Safe))
	return r
}

func stateWith(msgs ...model.Message) *State {
	s := NewState()
	s.Messages = msgs
	return s
}

func TestRouteDecision(t *testing.T) {
	reg := routeRegistry(t)
	targets := map[dialog.Scope]bool{dialog.Shop: true}
	tests := []struct {
		name  string
		scope dialog.Scope
		msgs  []model.Message
		want  string
	}{
		{"final reply ends the turn", dialog.Shop, []model.Message{model.NewAssistantMessage("done")}, End},
		{"no messages ends", dialog.Primary, nil, End},
		{"all safe", dialog.Shop, []model.Message{assistantCalls(
			call("1", "search_products", `{}`), call("2", "list_orders", `{}`))}, SafeToolsNodeID(dialog.Shop)},
		{"single sensitive", dialog.Shop, []model.Message{assistantCalls(
			call("1", "cancel_order", `{}`))}, SensitiveToolsNodeID(dialog.Shop)},
		{"mixed batch suspends wholly", dialog.Shop, []model.Message{assistantCalls(
			call("1", "list_orders", `{}`), call("2", "cancel_order", `{}`))}, SensitiveToolsNodeID(dialog.Shop)},
		{"leave wins over sensitive", dialog.Shop, []model.Message{assistantCalls(
			call("1", "cancel_order", `{}`), call("2", transfer.LeaveToolName, `{"cancel":true}`))}, LeaveSkillNode},
		{"primary transfer", dialog.Primary, []model.Message{assistantCalls(
			call("1", transfer.Name(dialog.Shop), `{"request":"buy a phone"}`))}, EnterNodeID(dialog.Shop)},
		{"primary safe", dialog.Primary, []model.Message{assistantCalls(
			call("1", "web_search", `{}`))}, SafeToolsNodeID(dialog.Primary)},
		{"leave ignored in primary", dialog.Primary, []model.Message{assistantCalls(
			call("1", transfer.LeaveToolName, `{}`))}, SafeToolsNodeID(dialog.Primary)},
		{"transfer to unconfigured scope is a plain call", dialog.Primary, []model.Message{assistantCalls(
			call("1", transfer.Name(dialog.IT), `{}`))}, SafeToolsNodeID(dialog.Primary)},
		{"unknown tool is routed as safe", dialog.Shop, []model.Message{assistantCalls(
			call("1", "refund_everything", `{}`))}, SafeToolsNodeID(dialog.Shop)},
		{"tool results after request still route it", dialog.Shop, []model.Message{
			assistantCalls(call("1", "cancel_order", `{}`)),
			model.NewToolMessage("1", "cancel_order", "denied"),
		}, SensitiveToolsNodeID(dialog.Shop)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteDecision(stateWith(tt.msgs...), tt.scope, reg, targets))
		})
	}
}

func TestNewRouteFunc(t *testing.T) {
	route := NewRouteFunc(dialog.Shop, routeRegistry(t), nil)
	got, err := route(context.Background(), stateWith(assistantCalls(call("1", "place_order", `{}`))))
	require.NoError(t, err)
	assert.Equal(t, "sensitive_tools_shop", got)
}

func TestNodeIDs(t *testing.T) {
	assert.Equal(t, "primary", AgentNodeID(dialog.Primary))
	assert.Equal(t, "call_shop_agent", AgentNodeID(dialog.Shop))
	assert.Equal(t, "enter_it", EnterNodeID(dialog.IT))
	assert.Equal(t, "safe_tools_policy", SafeToolsNodeID(dialog.Policy))
	assert.Equal(t, "sensitive_tools_appointment", SensitiveToolsNodeID(dialog.Appointment))
}
