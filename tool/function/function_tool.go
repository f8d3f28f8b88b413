//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as callable tools.
package function

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	itool "trpc.group/trpc-go/fptshop-assistant/internal/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

// FunctionTool implements the CallableTool interface for executing functions with arguments.
// The input schema is derived from I by reflection.
type FunctionTool[I, O any] struct {
	name        string
	description string
	inputSchema *tool.Schema
	fn          func(context.Context, I) (O, error)
	strict      bool
}

// Option is a function that configures a FunctionTool.
type Option func(*functionToolOptions)

type functionToolOptions struct {
	name        string
	description string
	strict      bool
}

// WithName sets the name of the function tool.
func WithName(name string) Option {
	return func(opts *functionToolOptions) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *functionToolOptions) {
		opts.description = description
	}
}

// WithStrictArguments rejects arguments carrying fields unknown to I.
func WithStrictArguments() Option {
	return func(opts *functionToolOptions) {
		opts.strict = true
	}
}

// NewFunctionTool creates a FunctionTool around fn.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	options := &functionToolOptions{}
	for _, opt := range opts {
		opt(options)
	}
	var emptyI I
	return &FunctionTool[I, O]{
		name:        options.name,
		description: options.description,
		inputSchema: itool.GenerateJSONSchema(reflect.TypeOf(emptyI)),
		fn:          fn,
		strict:      options.strict,
	}
}

// Call decodes jsonArgs into I and invokes the wrapped function.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, jsonArgs []byte) (any, error) {
	var input I
	if len(bytes.TrimSpace(jsonArgs)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(jsonArgs))
		if ft.strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&input); err != nil {
			return nil, fmt.Errorf("invalid arguments for %s: %w", ft.name, err)
		}
	}
	return ft.fn(ctx, input)
}

// Declaration returns the tool's declaration information.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{
		Name:        ft.name,
		Description: ft.description,
		InputSchema: ft.inputSchema,
	}
}
