//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool provides tool interfaces and the sensitivity registry.
package tool

import (
	"context"
)

// Tool is anything the model can be told about.
type Tool interface {
	// Declaration returns the metadata describing the tool.
	Declaration() *Declaration
}

// CallableTool defines the interface for tools that support calling operations.
type CallableTool interface {
	// Call calls the tool with the provided context and arguments.
	// Returns the result of execution or an error if the operation fails.
	Call(ctx context.Context, jsonArgs []byte) (any, error)

	Tool
}

// FieldsProvider is implemented by tool results that carry values to be
// remembered in the conversation state, e.g. the last recommended products.
type FieldsProvider interface {
	StateFields() map[string]any
}

// Declaration describes the metadata of a tool, such as its name, description, and expected arguments.
type Declaration struct {
	// Name is the unique identifier of the tool
	Name string `json:"name"`

	// Description explains the tool's purpose and functionality
	Description string `json:"description"`

	// InputSchema defines the expected input for the tool in JSON schema format.
	InputSchema *Schema `json:"inputSchema"`
}

// Schema represents the structure of JSON Schema used for defining arguments.
type Schema struct {
	// Type Specifies the data type (e.g., "object", "array", "string", "number")
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    []string `json:"required,omitempty"`
	// Properties of the arguments, each with its own schema
	Properties map[string]*Schema `json:"properties,omitempty"`
	// For array types, defines the schema of items in the array
	Items *Schema `json:"items,omitempty"`
	// AdditionalProperties controls whether properties not defined in Properties are allowed
	AdditionalProperties any `json:"additionalProperties,omitempty"`
}

// HasProperty reports whether the object schema declares the named property.
func (s *Schema) HasProperty(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.Properties[name]
	return ok
}

// Without returns a copy of the schema with the named top-level properties removed.
func (s *Schema) Without(names ...string) *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Properties = make(map[string]*Schema, len(s.Properties))
	for k, v := range s.Properties {
		out.Properties[k] = v
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		delete(out.Properties, n)
		drop[n] = true
	}
	out.Required = nil
	for _, r := range s.Required {
		if !drop[r] {
			out.Required = append(out.Required, r)
		}
	}
	return &out
}
