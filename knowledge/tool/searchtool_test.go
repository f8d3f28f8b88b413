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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/knowledge"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

type stubKnowledge struct {
	result *knowledge.SearchResult
	err    error
	got    *knowledge.SearchRequest
}

func (s *stubKnowledge) Search(_ context.Context, req *knowledge.SearchRequest) (*knowledge.SearchResult, error) {
	s.got = req
	return s.result, s.err
}

func TestKnowledgeSearchTool_Declaration(t *testing.T) {
	tl := NewKnowledgeSearchTool(&stubKnowledge{}, WithToolName("lookup_policy"), WithToolDescription("Look up store policies."))
	decl := tl.Declaration()
	assert.Equal(t, "lookup_policy", decl.Name)
	assert.Equal(t, "Look up store policies.", decl.Description)
	assert.True(t, decl.InputSchema.HasProperty("query"))
	assert.Equal(t, []string{"query"}, decl.InputSchema.Required)

	assert.Equal(t, "knowledge_search", NewKnowledgeSearchTool(&stubKnowledge{}).Declaration().Name)
}

func TestKnowledgeSearchTool_Call(t *testing.T) {
	kb := &stubKnowledge{result: &knowledge.SearchResult{
		Document: document.New("warranty", "12 tháng"),
		Score:    0.5,
		Text:     "[warranty]\n12 tháng",
	}}
	tl := NewKnowledgeSearchTool(kb, WithMaxResults(2))

	out, err := tl.Call(context.Background(), []byte(`{"query":"bảo hành"}`))
	require.NoError(t, err)
	resp := out.(*KnowledgeSearchResponse)
	assert.Equal(t, "[warranty]\n12 tháng", resp.Text)
	assert.Equal(t, "Found relevant content (score: 0.50)", resp.Message)
	assert.Equal(t, "bảo hành", kb.got.Query)
	assert.Equal(t, 2, kb.got.MaxResults)
}

func TestKnowledgeSearchTool_NoResultAndErrors(t *testing.T) {
	out, err := NewKnowledgeSearchTool(&stubKnowledge{}).Call(context.Background(), []byte(`{"query":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, noResultMessage, out.(*KnowledgeSearchResponse).Message)

	_, err = NewKnowledgeSearchTool(&stubKnowledge{}).Call(context.Background(), []byte(`{"query":" "}`))
	assert.EqualError(t, err, "query cannot be empty")

	_, err = NewKnowledgeSearchTool(&stubKnowledge{err: errors.New("boom")}).Call(context.Background(), []byte(`{"query":"x"}`))
	assert.EqualError(t, err, "search failed: boom")
}

func TestKnowledgeSearchTool_WithBuiltin(t *testing.T) {
	kb := knowledge.New()
	kb.Add(document.New("returns", "Đổi trả trong 30 ngày."))
	out, err := NewKnowledgeSearchTool(kb).Call(context.Background(), []byte(`{"query":"doi tra"}`))
	require.NoError(t, err)
	assert.Contains(t, out.(*KnowledgeSearchResponse).Text, "30 ngày")
}
