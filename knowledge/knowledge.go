//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package knowledge provides the policy and guide knowledge base the
// assistant's lookup tools search.
package knowledge

import (
	"context"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

// Knowledge is the main interface for knowledge management operations.
type Knowledge interface {
	// Search returns the best matching passages for the request.
	// A nil result with a nil error means nothing matched.
	Search(ctx context.Context, req *SearchRequest) (*SearchResult, error)
}

// SearchRequest represents a search request.
type SearchRequest struct {
	// Query is the search query text.
	Query string

	// MaxResults limits the number of passages returned. Zero means the
	// knowledge base default.
	MaxResults int

	// MinScore sets minimum relevance score threshold (optional).
	MinScore float64
}

// SearchResult represents the result of a knowledge search.
type SearchResult struct {
	// Document is the best matching document.
	Document *document.Document

	// Score is the relevance score of Document (0.0 to 1.0).
	Score float64

	// Text is the content handed to the agent: the matched passages joined
	// and labelled with their source.
	Text string

	// Passages are every matched chunk, best first.
	Passages []Passage
}

// Passage is one matched chunk.
type Passage struct {
	Document *document.Document
	Score    float64
}
