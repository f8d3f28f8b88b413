//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package model

import "strings"

// AgentOutput is the closed set of outcomes of one agent invocation.
// It is implemented by FinalReply and ToolRequest only.
type AgentOutput interface {
	agentOutput()
}

// FinalReply is a natural-language answer that ends the turn.
type FinalReply struct {
	Text string
}

// ToolRequest asks for one or more tool invocations.
type ToolRequest struct {
	Calls []ToolCall
}

func (FinalReply) agentOutput()  {}
func (ToolRequest) agentOutput() {}

// Classify turns an assistant message into an AgentOutput.
// ok is false for degenerate output: no tool calls and blank content.
func Classify(msg Message) (out AgentOutput, ok bool) {
	if len(msg.ToolCalls) > 0 {
		return ToolRequest{Calls: msg.ToolCalls}, true
	}
	if strings.TrimSpace(msg.Content) == "" {
		return nil, false
	}
	return FinalReply{Text: msg.Content}, true
}
