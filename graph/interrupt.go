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
	"errors"
	"fmt"
	"time"

	"trpc.group/trpc-go/fptshop-assistant/model"
)

// InterruptError represents a suspension of graph execution that can be resumed.
type InterruptError struct {
	// Value is the batch of tool calls awaiting confirmation.
	Value []model.ToolCall
	// NodeID is the ID of the node that did not run yet.
	NodeID string
	// TaskID is the ID of the checkpoint written for the suspension.
	TaskID string
	// Step is the step number when the interrupt occurred.
	Step int
	// Timestamp is when the interrupt occurred.
	Timestamp time.Time
	// Path is the execution path of this run up to the interrupted node.
	Path []string
}

// Error returns the error message for the interrupt.
func (g *InterruptError) Error() string {
	names := make([]string, 0, len(g.Value))
	for _, c := range g.Value {
		names = append(names, c.Function.Name)
	}
	return fmt.Sprintf("graph interrupted at node %s (step %d): %v", g.NodeID, g.Step, names)
}

// NewInterruptError creates a new InterruptError for the given pending calls.
func NewInterruptError(nodeID string, pending []model.ToolCall) *InterruptError {
	return &InterruptError{
		Value:     pending,
		NodeID:    nodeID,
		Timestamp: time.Now().UTC(),
	}
}

// IsInterruptError checks if an error is an InterruptError.
func IsInterruptError(err error) bool {
	var interrupt *InterruptError
	return errors.As(err, &interrupt)
}

// GetInterruptError extracts InterruptError from an error.
func GetInterruptError(err error) (*InterruptError, bool) {
	var interrupt *InterruptError
	if errors.As(err, &interrupt) {
		return interrupt, true
	}
	return nil, false
}

// ResumeCommand represents a command to resume a suspended thread.
//
// With an empty GoTo the interrupted node runs. Otherwise Update is applied
// and execution continues at GoTo, skipping the interrupted node.
type ResumeCommand struct {
	Update *Update
	GoTo   string
}

// NewResumeCommand creates a resume command that runs the interrupted node.
func NewResumeCommand() *ResumeCommand {
	return &ResumeCommand{}
}

// WithUpdate sets the update applied before resuming.
func (c *ResumeCommand) WithUpdate(update *Update) *ResumeCommand {
	c.Update = update
	return c
}

// WithGoTo sets the node to resume at instead of the interrupted node.
func (c *ResumeCommand) WithGoTo(nodeID string) *ResumeCommand {
	c.GoTo = nodeID
	return c
}
