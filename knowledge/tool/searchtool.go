//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package tool provides knowledge search tools for agents.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/fptshop-assistant/knowledge"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/function"
)

const (
	defaultToolName        = "knowledge_search"
	defaultToolDescription = "Search for relevant information in the knowledge base. " +
		"Use this tool to find context and facts to help answer user questions."
	noResultMessage = "no relevant information found"
)

// KnowledgeSearchRequest represents the input for the knowledge search tool.
type KnowledgeSearchRequest struct {
	Query string `json:"query" description:"The search query to find relevant information in the knowledge base"`
}

// KnowledgeSearchResponse represents the response from the knowledge search tool.
type KnowledgeSearchResponse struct {
	Text    string  `json:"text,omitempty"`
	Score   float64 `json:"score,omitempty"`
	Message string  `json:"message,omitempty"`
}

// Option configures the search tool.
type Option func(*options)

type options struct {
	name        string
	description string
	maxResults  int
}

// WithToolName sets the name the model sees, e.g. "lookup_policy".
func WithToolName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithToolDescription sets the description the model sees.
func WithToolDescription(description string) Option {
	return func(o *options) {
		o.description = description
	}
}

// WithMaxResults sets how many passages one call returns.
func WithMaxResults(n int) Option {
	return func(o *options) {
		o.maxResults = n
	}
}

// NewKnowledgeSearchTool creates a function tool for knowledge search using
// the Knowledge interface.
func NewKnowledgeSearchTool(kb knowledge.Knowledge, opts ...Option) tool.CallableTool {
	o := &options{name: defaultToolName, description: defaultToolDescription}
	for _, opt := range opts {
		opt(o)
	}

	searchFunc := func(ctx context.Context, req KnowledgeSearchRequest) (*KnowledgeSearchResponse, error) {
		if strings.TrimSpace(req.Query) == "" {
			return nil, errors.New("query cannot be empty")
		}
		result, err := kb.Search(ctx, &knowledge.SearchRequest{
			Query:      req.Query,
			MaxResults: o.maxResults,
		})
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		if result == nil {
			return &KnowledgeSearchResponse{Message: noResultMessage}, nil
		}
		return &KnowledgeSearchResponse{
			Text:    result.Text,
			Score:   result.Score,
			Message: fmt.Sprintf("Found relevant content (score: %.2f)", result.Score),
		}, nil
	}

	return function.NewFunctionTool(
		searchFunc,
		function.WithName(o.name),
		function.WithDescription(o.description),
	)
}
