//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package knowledge

import (
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
)

const (
	defaultMaxResults        = 3
	maxDefaultSourceParallel = 4
)

// Option represents a functional option for configuring BuiltinKnowledge.
type Option func(*BuiltinKnowledge)

// WithSources sets the knowledge sources.
func WithSources(sources ...source.Source) Option {
	return func(dk *BuiltinKnowledge) {
		dk.sources = append(dk.sources, sources...)
	}
}

// WithMaxResults sets how many passages a search returns by default.
func WithMaxResults(n int) Option {
	return func(dk *BuiltinKnowledge) {
		if n > 0 {
			dk.maxResults = n
		}
	}
}

// WithMinScore sets the default relevance threshold.
func WithMinScore(score float64) Option {
	return func(dk *BuiltinKnowledge) {
		dk.minScore = score
	}
}

// LoadOption represents a functional option for configuring load behavior.
type LoadOption func(*loadConfig)

type loadConfig struct {
	srcParallelism int
}

// WithSourceConcurrency configures how many sources can be loaded in parallel.
// A value of 1 means sequential processing.
// The default is min(4, len(sources)).
func WithSourceConcurrency(n int) LoadOption {
	return func(lc *loadConfig) {
		lc.srcParallelism = n
	}
}

func buildLoadConfig(sourceCount int, opts ...LoadOption) *loadConfig {
	config := &loadConfig{}
	for _, opt := range opts {
		opt(config)
	}
	if config.srcParallelism <= 0 {
		config.srcParallelism = min(sourceCount, maxDefaultSourceParallel)
	}
	if config.srcParallelism < 1 {
		config.srcParallelism = 1
	}
	return config
}
