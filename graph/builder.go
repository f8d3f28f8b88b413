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
	"errors"
	"fmt"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/transfer"
)

// ScopeDescriptor declares one specialized assistant.
type ScopeDescriptor struct {
	// Name is the scope pushed on the dialog stack.
	Name dialog.Scope
	// Description tells the primary assistant when to transfer here.
	Description string
	// Instruction is the scope's system instruction.
	Instruction string
	// SafeTools run without confirmation.
	SafeTools []string
	// SensitiveTools run only after the user approves.
	SensitiveTools []string
	// ContextFields are the State.Fields entries shown to the scope's agent.
	ContextFields []string
}

// BuildConfig is the input of Build.
type BuildConfig struct {
	Model    model.Model
	Registry *tool.Registry
	// Primary is the host assistant. Its Name defaults to dialog.Primary.
	Primary ScopeDescriptor
	// Scopes are the specialized assistants reachable from Primary.
	Scopes       []ScopeDescriptor
	AgentOptions []AgentNodeOption
	ToolsOptions []ToolsNodeOption
}

// Build generates the conversation graph from declarative scope descriptors.
//
// For the primary scope it adds primary, safe_tools_primary and
// sensitive_tools_primary. For every other scope s it adds enter_s,
// call_s_agent, safe_tools_s and sensitive_tools_s, and a shared
// leave_skill. Sensitive tools nodes interrupt before running. The entry
// node is chosen from the top of the dialog stack.
//
// Transfer and leave tools are registered as Safe when missing. Tools that
// are unknown or registered with a different sensitivity than declared fail
// the build.
func Build(cfg BuildConfig) (*Graph, error) {
	if cfg.Model == nil {
		return nil, errors.New("graph: build: model is nil")
	}
	if cfg.Registry == nil {
		return nil, errors.New("graph: build: registry is nil")
	}
	primary := cfg.Primary
	if primary.Name == "" {
		primary.Name = dialog.Primary
	}
	if primary.Name != dialog.Primary {
		return nil, fmt.Errorf("graph: build: primary scope must be named %q", dialog.Primary)
	}
	targets := make(map[dialog.Scope]bool, len(cfg.Scopes))
	for _, s := range cfg.Scopes {
		if !dialog.Valid(s.Name) || s.Name == dialog.Primary || targets[s.Name] {
			return nil, fmt.Errorf("graph: build: invalid or duplicate scope %q", s.Name)
		}
		targets[s.Name] = true
	}
	if err := registerControlTools(cfg.Registry, cfg.Scopes); err != nil {
		return nil, fmt.Errorf("graph: build: %w", err)
	}

	sg := NewStateGraph()
	primary.SafeTools = append([]string(nil), primary.SafeTools...)
	for _, s := range cfg.Scopes {
		primary.SafeTools = append(primary.SafeTools, transfer.Name(s.Name))
	}
	// Nodes first: route path maps may only name existing nodes.
	connectPrimary, err := addScope(sg, cfg, primary, targets)
	if err != nil {
		return nil, err
	}
	connect := []func(){connectPrimary}
	entryPaths := map[string]string{AgentNodeID(dialog.Primary): AgentNodeID(dialog.Primary)}
	for _, s := range cfg.Scopes {
		s.SafeTools = append(append([]string(nil), s.SafeTools...), transfer.LeaveToolName)
		c, err := addScope(sg, cfg, s, nil)
		if err != nil {
			return nil, err
		}
		connect = append(connect, c)
		sg.AddNode(EnterNodeID(s.Name), newEnterNodeFunc(s),
			WithDescription(fmt.Sprintf("Pushes the %s scope", s.Name)))
		entryPaths[AgentNodeID(s.Name)] = AgentNodeID(s.Name)
	}
	if len(cfg.Scopes) > 0 {
		sg.AddNode(LeaveSkillNode, leaveSkillNodeFunc,
			WithDescription("Pops the dialog stack back to the host assistant"))
	}
	for _, c := range connect {
		c()
	}
	for _, s := range cfg.Scopes {
		sg.AddEdge(EnterNodeID(s.Name), AgentNodeID(s.Name))
	}
	if len(cfg.Scopes) > 0 {
		sg.AddEdge(LeaveSkillNode, AgentNodeID(dialog.Primary))
	}
	sg.SetConditionalEntryPoint(func(_ context.Context, state *State) (string, error) {
		id := AgentNodeID(state.DialogStack.Top())
		if _, ok := entryPaths[id]; !ok {
			log.Warnf("graph: unknown active scope %q, entering primary", state.DialogStack.Top())
			return AgentNodeID(dialog.Primary), nil
		}
		return id, nil
	}, entryPaths)
	return sg.Compile()
}

// addScope adds the agent and tools nodes of one scope. The returned
// function adds the scope's edges once every node exists.
func addScope(sg *StateGraph, cfg BuildConfig, s ScopeDescriptor, targets map[dialog.Scope]bool) (func(), error) {
	names := append(append([]string(nil), s.SafeTools...), s.SensitiveTools...)
	safe, sensitive, err := cfg.Registry.Partition(names...)
	if err != nil {
		return nil, fmt.Errorf("graph: build scope %s: %w", s.Name, err)
	}
	for _, name := range s.SafeTools {
		if cfg.Registry.IsSensitive(name) {
			return nil, fmt.Errorf("graph: build scope %s: tool %s is declared safe but registered sensitive", s.Name, name)
		}
	}
	for _, name := range s.SensitiveTools {
		if !cfg.Registry.IsSensitive(name) {
			return nil, fmt.Errorf("graph: build scope %s: tool %s is declared sensitive but registered safe", s.Name, name)
		}
	}
	all, err := cfg.Registry.Tools(append(safe, sensitive...)...)
	if err != nil {
		return nil, fmt.Errorf("graph: build scope %s: %w", s.Name, err)
	}
	safeTools, err := cfg.Registry.Tools(safe...)
	if err != nil {
		return nil, fmt.Errorf("graph: build scope %s: %w", s.Name, err)
	}

	agentID := AgentNodeID(s.Name)
	agentOpts := append(append([]AgentNodeOption(nil), cfg.AgentOptions...), WithContextFields(s.ContextFields...))
	sg.AddNode(agentID, NewAgentNodeFunc(cfg.Model, s.Instruction, all, agentOpts...),
		WithName(s.Name+" assistant"), WithDescription(s.Description))
	sg.AddNode(SafeToolsNodeID(s.Name), NewToolsNodeFunc(safeTools, cfg.ToolsOptions...),
		WithDescription("Runs read-only tools"))
	sg.AddNode(SensitiveToolsNodeID(s.Name), NewToolsNodeFunc(all, cfg.ToolsOptions...),
		WithDescription("Runs state-changing tools after confirmation"), WithInterruptBefore())
	paths := map[string]string{
		End:                          End,
		SafeToolsNodeID(s.Name):      SafeToolsNodeID(s.Name),
		SensitiveToolsNodeID(s.Name): SensitiveToolsNodeID(s.Name),
	}
	if s.Name == dialog.Primary {
		for target := range targets {
			paths[EnterNodeID(target)] = EnterNodeID(target)
		}
	} else {
		paths[LeaveSkillNode] = LeaveSkillNode
	}
	return func() {
		sg.AddEdge(SafeToolsNodeID(s.Name), agentID)
		sg.AddEdge(SensitiveToolsNodeID(s.Name), agentID)
		sg.AddConditionalEdges(agentID, NewRouteFunc(s.Name, cfg.Registry, targets), paths)
	}, nil
}

func registerControlTools(reg *tool.Registry, scopes []ScopeDescriptor) error {
	for _, s := range scopes {
		if _, ok := reg.Lookup(transfer.Name(s.Name)); ok {
			continue
		}
		if err := reg.Register(transfer.New(s.Name, s.Description), tool.Safe); err != nil {
			return err
		}
	}
	if _, ok := reg.Lookup(transfer.LeaveToolName); !ok && len(scopes) > 0 {
		return reg.Register(transfer.NewLeave(), tool.Safe)
	}
	return nil
}

// EnterContent is the tool result answering a transfer into scope.
func EnterContent(s ScopeDescriptor, request string) string {
	content := fmt.Sprintf("The assistant is now the %s assistant. Reflect on the above conversation "+
		"between the host assistant and the user. The user's intent is unsatisfied. Use the provided "+
		"tools to assist the user. Remember, you are the %s assistant", s.Name, s.Name)
	if s.Description != "" {
		content += " (" + s.Description + ")"
	}
	content += ", and an action is not complete until you have successfully invoked the appropriate tool. " +
		"If the user changes their mind or needs help with other tasks, call " + transfer.LeaveToolName +
		" to let the host assistant take control."
	if request != "" {
		content += " The user's request: " + request
	}
	return content
}

// LeaveContent is the tool result answering a leave signal.
const LeaveContent = "Resuming dialog with the host assistant. " +
	"Please reflect on the past conversation and assist the user as needed."

func skippedContent(call model.ToolCall) string {
	return fmt.Sprintf("Skipped: call %s (%s) was not run because control of the dialog changed.",
		call.ID, call.Function.Name)
}

func newEnterNodeFunc(s ScopeDescriptor) NodeFunc {
	return func(_ context.Context, state *State) (any, error) {
		calls := state.LastToolCalls()
		msgs := make([]model.Message, 0, len(calls))
		entered := false
		for _, call := range calls {
			target, ok := transfer.Scope(call.Function.Name)
			if ok && target == s.Name && !entered {
				entered = true
				req := transfer.ParseRequest(call.Function.Arguments)
				msgs = append(msgs, model.NewToolMessage(call.ID, call.Function.Name, EnterContent(s, req.Request)))
				continue
			}
			msgs = append(msgs, model.NewToolMessage(call.ID, call.Function.Name, skippedContent(call)))
		}
		log.Infof("graph: entering scope %s from %s", s.Name, state.DialogStack.Top())
		return &Update{Messages: msgs, Push: s.Name}, nil
	}
}

func leaveSkillNodeFunc(_ context.Context, state *State) (any, error) {
	calls := state.LastToolCalls()
	msgs := make([]model.Message, 0, len(calls))
	left := false
	for _, call := range calls {
		if transfer.IsLeave(call.Function.Name) && !left {
			left = true
			leave := transfer.ParseLeave(call.Function.Arguments)
			log.Infof("graph: leaving scope %s (cancel=%t): %s", state.DialogStack.Top(), leave.Cancel, leave.Reason)
			msgs = append(msgs, model.NewToolMessage(call.ID, call.Function.Name, LeaveContent))
			continue
		}
		msgs = append(msgs, model.NewToolMessage(call.ID, call.Function.Name, skippedContent(call)))
	}
	return &Update{Messages: msgs, Pop: true}, nil
}
