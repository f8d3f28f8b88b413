//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"time"

	"trpc.group/trpc-go/fptshop-assistant/graph"
)

// Config defines configuration options for runners.
type Config struct {
	// Timeout bounds a single turn. Zero disables the bound.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxSteps is the node execution limit of a single turn.
	MaxSteps int `json:"max_steps" yaml:"max_steps"`
}

// DefaultConfig returns a default runner configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:  2 * time.Minute,
		MaxSteps: graph.DefaultMaxSteps,
	}
}

// WithTimeout sets the timeout for the config.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}

// WithMaxSteps sets the node execution limit of a single turn.
func (c Config) WithMaxSteps(steps int) Config {
	c.MaxSteps = steps
	return c
}
