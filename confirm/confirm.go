//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package confirm implements the approve/deny handshake that gates
// sensitive tool execution.
//
// Approval is the literal token "y", compared after trimming and lower
// casing. Any other text, including "yes", denies the pending batch and is
// fed back to the owning assistant as the user's reasoning.
package confirm

import (
	"fmt"
	"strings"

	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/model"
)

// ApprovalToken is the only input that approves a pending batch.
const ApprovalToken = "y"

// IsApproval reports whether text approves the pending batch.
func IsApproval(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == ApprovalToken
}

// DenialContent is the tool result that replaces a denied call.
func DenialContent(text string) string {
	return fmt.Sprintf("API call denied by user. Reasoning: '%s'. "+
		"Continue assisting, accounting for the user's input.", text)
}

// Resolve turns the user's answer to a pending confirmation into a resume
// command for the suspended thread.
//
// Approval resumes at the interrupted tools node, which runs the whole
// batch. Denial answers every pending call with DenialContent and returns
// control to the agent of the active scope.
func Resolve(state *graph.State, text string) *graph.ResumeCommand {
	if IsApproval(text) {
		return graph.NewResumeCommand()
	}
	msgs := make([]model.Message, 0, len(state.PendingToolCalls))
	for _, call := range state.PendingToolCalls {
		msgs = append(msgs, model.NewToolMessage(call.ID, call.Function.Name, DenialContent(text)))
	}
	return graph.NewResumeCommand().
		WithUpdate(&graph.Update{Messages: msgs}).
		WithGoTo(graph.AgentNodeID(state.DialogStack.Top()))
}

// Decision reports whether text approves, for logging and metrics.
func Decision(text string) string {
	if IsApproval(text) {
		return "approved"
	}
	return "denied"
}
