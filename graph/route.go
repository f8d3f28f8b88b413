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

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/transfer"
)

// LeaveSkillNode pops the dialog stack and returns control to the primary assistant.
const LeaveSkillNode = "leave_skill"

// AgentNodeID returns the agent node of a scope.
func AgentNodeID(scope dialog.Scope) string {
	if scope == dialog.Primary {
		return dialog.Primary
	}
	return "call_" + scope + "_agent"
}

// EnterNodeID returns the node that pushes scope onto the dialog stack.
func EnterNodeID(scope dialog.Scope) string {
	return "enter_" + scope
}

// SafeToolsNodeID returns the node running a scope's all-safe batches.
func SafeToolsNodeID(scope dialog.Scope) string {
	return "safe_tools_" + scope
}

// SensitiveToolsNodeID returns the node running a scope's batches that need confirmation.
func SensitiveToolsNodeID(scope dialog.Scope) string {
	return "sensitive_tools_" + scope
}

// RouteDecision computes the next node of scope from its agent's latest output.
//
// Priority order:
//  1. no tool calls: End
//  2. leave signal (sub scopes) or transfer to a known scope (primary):
//     leave_skill or enter_<target>
//  3. every call safe: safe_tools_<scope>
//  4. otherwise: sensitive_tools_<scope>, so a mixed batch suspends wholly
//
// targets lists the scopes the primary assistant can transfer to.
func RouteDecision(state *State, scope dialog.Scope, registry *tool.Registry, targets map[dialog.Scope]bool) string {
	calls := state.LastToolCalls()
	if len(calls) == 0 {
		return End
	}
	for _, call := range calls {
		name := call.Function.Name
		if scope != dialog.Primary && transfer.IsLeave(name) {
			return LeaveSkillNode
		}
		if target, ok := transfer.Scope(name); ok && scope == dialog.Primary && targets[target] {
			return EnterNodeID(target)
		}
	}
	for _, call := range calls {
		if registry.IsSensitive(call.Function.Name) {
			return SensitiveToolsNodeID(scope)
		}
	}
	return SafeToolsNodeID(scope)
}

// NewRouteFunc creates the conditional edge function of scope's agent node.
func NewRouteFunc(scope dialog.Scope, registry *tool.Registry, targets map[dialog.Scope]bool) ConditionalFunc {
	return func(_ context.Context, state *State) (string, error) {
		return RouteDecision(state, scope, registry, targets), nil
	}
}
