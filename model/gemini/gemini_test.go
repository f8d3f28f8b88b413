//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

const functionCallResponse = `{
  "candidates": [{
    "content": {"role": "model", "parts": [
      {"text": "Cancelling now."},
      {"functionCall": {"name": "cancel_order", "args": {"order_id": "ORDER_1"}}}
    ]},
    "finishReason": "STOP"
  }],
  "usageMetadata": {"promptTokenCount": 10, "candidatesTokenCount": 4, "totalTokenCount": 14}
}`

type declTool struct{ decl *tool.Declaration }

func (d declTool) Declaration() *tool.Declaration { return d.decl }

func TestGenerateContent(t *testing.T) {
	var seen map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-2.0-flash:generateContent"), r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(functionCallResponse))
	}))
	defer srv.Close()

	m, err := New(context.Background(), "gemini-2.0-flash", WithAPIKey("dummy"), WithBaseURL(srv.URL))
	require.NoError(t, err)

	temperature := 0.2
	ch, err := m.GenerateContent(context.Background(), &model.Request{
		Messages: []model.Message{
			model.NewSystemMessage("You are the shop assistant."),
			model.NewUserMessage("cancel ORDER_1"),
		},
		GenerationConfig: model.GenerationConfig{Temperature: &temperature},
		Tools: map[string]tool.Tool{"cancel_order": declTool{&tool.Declaration{
			Name: "cancel_order",
			InputSchema: &tool.Schema{
				Type:       "object",
				Required:   []string{"order_id"},
				Properties: map[string]*tool.Schema{"order_id": {Type: "string"}},
			},
		}}},
	})
	require.NoError(t, err)
	rsp, err := model.Await(context.Background(), ch)
	require.NoError(t, err)

	msg := rsp.Message()
	assert.Equal(t, "Cancelling now.", msg.Content)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "auto_call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "cancel_order", msg.ToolCalls[0].Function.Name)
	assert.JSONEq(t, `{"order_id":"ORDER_1"}`, string(msg.ToolCalls[0].Function.Arguments))
	assert.Equal(t, 14, rsp.Usage.TotalTokens)

	contents := seen["contents"].([]any)
	require.Len(t, contents, 1, "system instruction is sent separately")
	assert.NotNil(t, seen["systemInstruction"])
	assert.NotNil(t, seen["tools"])
}

func TestNewRequiresAPIKey(t *testing.T) {
	t.Setenv(GoogleAPIKeyEnv, "")
	_, err := New(context.Background(), "gemini-2.0-flash")
	assert.Error(t, err)
}

func TestConvertMessages(t *testing.T) {
	out := convertMessages([]model.Message{
		model.NewSystemMessage("sys"),
		model.NewUserMessage("hi"),
		{Role: model.RoleAssistant, ToolCalls: []model.ToolCall{
			{ID: "c1", Function: model.FunctionDefinitionParam{Name: "list_orders"}},
			{ID: "c2", Function: model.FunctionDefinitionParam{Name: "get_order", Arguments: []byte(`{"order_id":"O1"}`)}},
		}},
		model.NewToolMessage("c1", "list_orders", "[]"),
		model.NewToolMessage("c2", "get_order", `{"status":"shipped"}`),
	})
	require.Len(t, out, 3)
	assert.Equal(t, string(genai.RoleModel), out[1].Role)
	assert.Equal(t, map[string]any{"order_id": "O1"}, out[1].Parts[1].FunctionCall.Args)
	require.Len(t, out[2].Parts, 2, "consecutive results share one content")
	assert.Equal(t, map[string]any{"output": "[]"}, out[2].Parts[0].FunctionResponse.Response)
	assert.Equal(t, map[string]any{"status": "shipped"}, out[2].Parts[1].FunctionResponse.Response)
}

func TestConvertSchema(t *testing.T) {
	s := convertSchema(&tool.Schema{
		Type: "object",
		Properties: map[string]*tool.Schema{
			"tags": {Type: "array", Items: &tool.Schema{Type: "string"}},
		},
	})
	assert.Equal(t, genai.TypeObject, s.Type)
	assert.Equal(t, genai.TypeArray, s.Properties["tags"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["tags"].Items.Type)
	assert.Nil(t, convertSchema(nil))
}
