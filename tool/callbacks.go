//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
)

// Invocation describes one tool call seen by callbacks.
type Invocation struct {
	CallID string
	Name   string
	// Args is the JSON argument object. Before callbacks may rewrite it.
	Args []byte
}

// BeforeToolCallback runs before a tool executes. A non-nil result is used
// as the call's result and the tool is skipped. An error fails the call.
type BeforeToolCallback func(ctx context.Context, inv *Invocation) (any, error)

// AfterToolCallback runs after a tool executes with its result and error.
// A non-nil result replaces the result and clears runErr. An error fails
// the call.
type AfterToolCallback func(ctx context.Context, inv *Invocation, result any, runErr error) (any, error)

// Callbacks holds the hooks run around every tool call of a tools node.
type Callbacks struct {
	BeforeTool []BeforeToolCallback
	AfterTool  []AfterToolCallback
}

// NewCallbacks creates an empty set of callbacks.
func NewCallbacks() *Callbacks {
	return &Callbacks{}
}

// RegisterBeforeTool appends a before callback.
func (c *Callbacks) RegisterBeforeTool(cb BeforeToolCallback) *Callbacks {
	c.BeforeTool = append(c.BeforeTool, cb)
	return c
}

// RegisterAfterTool appends an after callback.
func (c *Callbacks) RegisterAfterTool(cb AfterToolCallback) *Callbacks {
	c.AfterTool = append(c.AfterTool, cb)
	return c
}

// RunBeforeTool runs the before callbacks in order and stops at the first
// one returning a result or an error.
func (c *Callbacks) RunBeforeTool(ctx context.Context, inv *Invocation) (any, error) {
	if c == nil {
		return nil, nil
	}
	for _, cb := range c.BeforeTool {
		result, err := cb(ctx, inv)
		if err != nil || result != nil {
			return result, err
		}
	}
	return nil, nil
}

// RunAfterTool runs every after callback in order, threading the result and
// error through them.
func (c *Callbacks) RunAfterTool(ctx context.Context, inv *Invocation, result any, runErr error) (any, error) {
	if c == nil {
		return result, runErr
	}
	for _, cb := range c.AfterTool {
		custom, err := cb(ctx, inv, result, runErr)
		if err != nil {
			return nil, err
		}
		if custom != nil {
			result, runErr = custom, nil
		}
	}
	return result, runErr
}
