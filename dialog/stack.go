//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package dialog tracks which specialized assistant owns a conversation.
package dialog

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownScope is returned for a scope outside the closed set.
var ErrUnknownScope = errors.New("dialog: unknown scope")

// Scope names a specialized assistant.
type Scope = string

// The closed set of scopes.
const (
	Primary     Scope = "primary"
	Shop        Scope = "shop"
	IT          Scope = "it"
	Appointment Scope = "appointment"
	Policy      Scope = "policy"
	URL         Scope = "url"
)

var known = map[Scope]bool{
	Primary:     true,
	Shop:        true,
	IT:          true,
	Appointment: true,
	Policy:      true,
	URL:         true,
}

// Valid reports whether s is one of the known scopes.
func Valid(s Scope) bool {
	return known[s]
}

// Stack is the ordered record of nested active scopes. The last element is
// the active scope. A Stack is never empty: the bottom is always Primary.
//
// The zero value behaves like New().
type Stack struct {
	scopes []Scope
}

// New returns a stack holding only Primary.
func New() Stack {
	return Stack{scopes: []Scope{Primary}}
}

// Push makes scope the active scope. A scope outside the closed set leaves
// the stack unchanged.
func (s *Stack) Push(scope Scope) error {
	if !Valid(scope) {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	s.normalize()
	s.scopes = append(s.scopes, scope)
	return nil
}

// Pop returns control to the enclosing scope. At depth 1 it does nothing.
func (s *Stack) Pop() {
	s.normalize()
	if len(s.scopes) > 1 {
		s.scopes = s.scopes[:len(s.scopes)-1]
	}
}

// Top returns the active scope.
func (s Stack) Top() Scope {
	if len(s.scopes) == 0 {
		return Primary
	}
	return s.scopes[len(s.scopes)-1]
}

// Depth returns the number of nested scopes, at least 1.
func (s Stack) Depth() int {
	if len(s.scopes) == 0 {
		return 1
	}
	return len(s.scopes)
}

// Scopes returns a copy of the stack from bottom to top.
func (s Stack) Scopes() []Scope {
	if len(s.scopes) == 0 {
		return []Scope{Primary}
	}
	out := make([]Scope, len(s.scopes))
	copy(out, s.scopes)
	return out
}

// Clone returns an independent copy.
func (s Stack) Clone() Stack {
	return Stack{scopes: s.Scopes()}
}

// String renders the stack as "primary > shop".
func (s Stack) String() string {
	return strings.Join(s.Scopes(), " > ")
}

// MarshalJSON encodes the stack as an array of scope names.
func (s Stack) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Scopes())
}

// UnmarshalJSON decodes an array of scope names. An empty array restores
// the Primary-only stack. A stack whose bottom is not Primary, or that names
// an unknown scope, is rejected.
func (s *Stack) UnmarshalJSON(data []byte) error {
	var scopes []Scope
	if err := json.Unmarshal(data, &scopes); err != nil {
		return err
	}
	if len(scopes) == 0 {
		*s = New()
		return nil
	}
	if scopes[0] != Primary {
		return fmt.Errorf("dialog: stack must start with %q, got %q", Primary, scopes[0])
	}
	for _, scope := range scopes {
		if !Valid(scope) {
			return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
		}
	}
	s.scopes = scopes
	return nil
}

func (s *Stack) normalize() {
	if len(s.scopes) == 0 {
		s.scopes = []Scope{Primary}
	}
}
