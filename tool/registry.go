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
	"errors"
	"fmt"
	"sort"
)

// Sensitivity classifies a tool by whether it mutates external state.
type Sensitivity int

const (
	// Safe tools are read-only and run without confirmation.
	Safe Sensitivity = iota
	// Sensitive tools mutate state and run only after the user approves.
	Sensitive
)

// String returns "safe" or "sensitive".
func (s Sensitivity) String() string {
	if s == Sensitive {
		return "sensitive"
	}
	return "safe"
}

var (
	// ErrUnknownTool is returned when a tool name is not registered.
	ErrUnknownTool = errors.New("tool: unknown tool")
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool: duplicate tool")
)

// Entry is a registered tool together with its sensitivity.
type Entry struct {
	Tool        Tool
	Sensitivity Sensitivity
}

// Name returns the declared name of the entry's tool.
func (e Entry) Name() string {
	return e.Tool.Declaration().Name
}

// Registry is the static table of every tool known to the assistant.
// It is filled at startup and only read afterwards.
type Registry struct {
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register adds a tool with the given sensitivity.
func (r *Registry) Register(t Tool, s Sensitivity) error {
	if t == nil || t.Declaration() == nil || t.Declaration().Name == "" {
		return errors.New("tool: tool without a name")
	}
	name := t.Declaration().Name
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, name)
	}
	r.entries[name] = Entry{Tool: t, Sensitivity: s}
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t Tool, s Sensitivity) *Registry {
	if err := r.Register(t, s); err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// IsSensitive reports whether name is registered as Sensitive.
// Unknown names report false; use Partition to reject them up front.
func (r *Registry) IsSensitive(name string) bool {
	e, ok := r.entries[name]
	return ok && e.Sensitivity == Sensitive
}

// Partition splits names into safe and sensitive sets. The result is disjoint
// and covers every input name exactly once. Duplicated input names are
// collapsed. Any unknown name fails the whole call.
func (r *Registry) Partition(names ...string) (safe, sensitive []string, err error) {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		e, ok := r.entries[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		if e.Sensitivity == Sensitive {
			sensitive = append(sensitive, name)
		} else {
			safe = append(safe, name)
		}
	}
	return safe, sensitive, nil
}

// Tools returns the named tools keyed by name. Unknown names fail.
func (r *Registry) Tools(names ...string) (map[string]Tool, error) {
	out := make(map[string]Tool, len(names))
	for _, name := range names {
		e, ok := r.entries[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
		}
		out[name] = e.Tool
	}
	return out, nil
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
