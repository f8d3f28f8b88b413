//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package transfer provides the routing control tools: transfer_to_<scope>
// enters a specialized scope and complete_or_escalate leaves it.
//
// Neither tool is ever executed. The route function recognizes the calls and
// the graph answers them while moving the dialog stack.
package transfer

import (
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/fptshop-assistant/tool"
)

const (
	// ToolNamePrefix prefixes every transfer tool name.
	ToolNamePrefix = "transfer_to_"
	// LeaveToolName is the name of the leave/escalate signal offered to every sub scope.
	LeaveToolName = "complete_or_escalate"
	// FieldRequest is the name of the request field.
	FieldRequest = "request"
	// FieldReason is the name of the reason field.
	FieldReason = "reason"
	// FieldCancel is the name of the cancel field.
	FieldCancel = "cancel"
)

// Request is the argument of a transfer_to_<scope> call.
type Request struct {
	// Request restates what the user needs, for the receiving assistant.
	Request string `json:"request"`
	// Reason explains why the transfer is needed (optional).
	Reason string `json:"reason,omitempty"`
}

// LeaveRequest is the argument of a complete_or_escalate call.
type LeaveRequest struct {
	// Cancel is true when the user changed their mind or the task is out of scope.
	Cancel bool `json:"cancel"`
	// Reason explains why control is handed back.
	Reason string `json:"reason,omitempty"`
}

// Tool is the transfer_to_<scope> declaration.
type Tool struct {
	scope       string
	description string
}

// New creates the transfer tool for scope.
func New(scope, description string) *Tool {
	return &Tool{scope: scope, description: description}
}

// Name returns the tool name for a scope.
func Name(scope string) string {
	return ToolNamePrefix + scope
}

// Scope extracts the target scope of a transfer tool name.
func Scope(toolName string) (string, bool) {
	if !strings.HasPrefix(toolName, ToolNamePrefix) {
		return "", false
	}
	scope := strings.TrimPrefix(toolName, ToolNamePrefix)
	return scope, scope != ""
}

// IsLeave reports whether toolName is the leave/escalate signal.
func IsLeave(toolName string) bool {
	return toolName == LeaveToolName
}

// Declaration implements the tool.Tool interface.
func (t *Tool) Declaration() *tool.Declaration {
	desc := fmt.Sprintf("Transfers work to the %s assistant.", t.scope)
	if t.description != "" {
		desc += " Use it for: " + t.description
	}
	return &tool.Declaration{
		Name:        Name(t.scope),
		Description: desc,
		InputSchema: &tool.Schema{
			Type:     "object",
			Required: []string{FieldRequest},
			Properties: map[string]*tool.Schema{
				FieldRequest: {Type: "string", Description: "What the user needs, stated for the specialized assistant."},
				FieldReason:  {Type: "string", Description: "Why the specialized assistant is needed."},
			},
		},
	}
}

// LeaveTool is the complete_or_escalate declaration.
type LeaveTool struct{}

// NewLeave creates the leave/escalate tool.
func NewLeave() *LeaveTool {
	return &LeaveTool{}
}

// Declaration implements the tool.Tool interface.
func (*LeaveTool) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name: LeaveToolName,
		Description: "Marks the current task as completed, or escalates control of the dialog " +
			"to the main assistant when the user's needs fall outside your tools.",
		InputSchema: &tool.Schema{
			Type:     "object",
			Required: []string{FieldCancel},
			Properties: map[string]*tool.Schema{
				FieldCancel: {Type: "boolean", Description: "True when the task is abandoned or out of scope."},
				FieldReason: {Type: "string", Description: "Why control is handed back."},
			},
		},
	}
}

// ParseRequest decodes transfer arguments. Malformed input yields an empty request.
func ParseRequest(args []byte) Request {
	var req Request
	_ = json.Unmarshal(args, &req)
	return req
}

// ParseLeave decodes leave arguments. Malformed input yields an empty request.
func ParseLeave(args []byte) LeaveRequest {
	var req LeaveRequest
	_ = json.Unmarshal(args, &req)
	return req
}
