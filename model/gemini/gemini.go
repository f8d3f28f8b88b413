//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package gemini provides a model implementation for the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"google.golang.org/genai"

	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

// GoogleAPIKeyEnv is read when no API key is configured.
const GoogleAPIKeyEnv = "GOOGLE_API_KEY"

// Option configures the Gemini model.
type Option func(*Model)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(m *Model) { m.clientConfig.APIKey = key }
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(m *Model) { m.clientConfig.HTTPOptions.BaseURL = url }
}

// WithHTTPClient sets the HTTP client used to reach the API.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Model) { m.clientConfig.HTTPClient = c }
}

// Model implements model.Model on top of google.golang.org/genai.
type Model struct {
	client       *genai.Client
	name         string
	clientConfig *genai.ClientConfig
}

// New creates a Gemini model. The API key falls back to GOOGLE_API_KEY.
func New(ctx context.Context, name string, opts ...Option) (*Model, error) {
	m := &Model{
		name:         name,
		clientConfig: &genai.ClientConfig{Backend: genai.BackendGeminiAPI},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clientConfig.APIKey == "" {
		m.clientConfig.APIKey = os.Getenv(GoogleAPIKeyEnv)
	}
	if m.clientConfig.APIKey == "" {
		return nil, fmt.Errorf("gemini: %s is not provided", GoogleAPIKeyEnv)
	}
	client, err := genai.NewClient(ctx, m.clientConfig)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	m.client = client
	return m, nil
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface.
func (m *Model) GenerateContent(ctx context.Context, request *model.Request) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	contents := convertMessages(request.Messages)
	config := generationConfig(request)

	responseChan := make(chan *model.Response, 1)
	go func() {
		defer close(responseChan)
		rsp, err := m.client.Models.GenerateContent(ctx, m.name, contents, config)
		if err != nil {
			log.Warnf("gemini: generate content for %s failed: %v", m.name, err)
			send(ctx, responseChan, &model.Response{
				Error: &model.ResponseError{
					Message: err.Error(),
					Type:    model.ErrorTypeAPIError,
				},
				Timestamp: time.Now(),
				Done:      true,
			})
			return
		}
		send(ctx, responseChan, m.convertResponse(rsp))
	}()
	return responseChan, nil
}

func send(ctx context.Context, ch chan<- *model.Response, rsp *model.Response) {
	select {
	case ch <- rsp:
	case <-ctx.Done():
	}
}

func generationConfig(request *model.Request) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{StopSequences: request.Stop}
	var system []string
	for _, msg := range request.Messages {
		if msg.Role == model.RoleSystem && msg.Content != "" {
			system = append(system, msg.Content)
		}
	}
	if len(system) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if request.Temperature != nil {
		t := float32(*request.Temperature)
		config.Temperature = &t
	}
	if request.TopP != nil {
		p := float32(*request.TopP)
		config.TopP = &p
	}
	if request.MaxTokens != nil {
		config.MaxOutputTokens = int32(*request.MaxTokens)
	}
	if decls := convertTools(request.Tools); len(decls) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}
	return config
}

// convertMessages maps the conversation onto user and model contents.
// Tool results become functionResponse parts of a user content; consecutive
// results share one content.
func convertMessages(messages []model.Message) []*genai.Content {
	var (
		out       []*genai.Content
		responses []*genai.Part
	)
	flush := func() {
		if len(responses) > 0 {
			out = append(out, &genai.Content{Role: string(genai.RoleUser), Parts: responses})
			responses = nil
		}
	}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleTool:
			responses = append(responses, &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolID,
				Name:     msg.ToolName,
				Response: toolResponse(msg.Content),
			}})
		case model.RoleAssistant:
			flush()
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Function.Name,
					Args: callArgs(call.Function.Arguments),
				}})
			}
			if len(parts) > 0 {
				out = append(out, &genai.Content{Role: string(genai.RoleModel), Parts: parts})
			}
		default:
			flush()
			if msg.Content != "" {
				out = append(out, &genai.Content{
					Role:  string(genai.RoleUser),
					Parts: []*genai.Part{{Text: msg.Content}},
				})
			}
		}
	}
	flush()
	return out
}

// toolResponse keeps object results as they are and wraps anything else.
func toolResponse(content string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(content), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"output": content}
}

func callArgs(args []byte) map[string]any {
	obj := map[string]any{}
	if len(args) > 0 {
		_ = json.Unmarshal(args, &obj)
	}
	return obj
}

func convertTools(tools map[string]tool.Tool) []*genai.FunctionDeclaration {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []*genai.FunctionDeclaration
	for _, name := range names {
		decl := tools[name].Declaration()
		out = append(out, &genai.FunctionDeclaration{
			Name:        decl.Name,
			Description: decl.Description,
			Parameters:  convertSchema(decl.InputSchema),
		})
	}
	return out
}

func convertSchema(s *tool.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(s.Type)),
		Description: s.Description,
		Required:    s.Required,
		Items:       convertSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = convertSchema(prop)
		}
	}
	return out
}

func (m *Model) convertResponse(rsp *genai.GenerateContentResponse) *model.Response {
	msg := model.Message{Role: model.RoleAssistant}
	var finishReason string
	if len(rsp.Candidates) > 0 && rsp.Candidates[0] != nil {
		candidate := rsp.Candidates[0]
		finishReason = string(candidate.FinishReason)
		if candidate.Content != nil {
			for i, part := range candidate.Content.Parts {
				switch {
				case part == nil || part.Thought:
				case part.FunctionCall != nil:
					args, err := json.Marshal(part.FunctionCall.Args)
					if err != nil || part.FunctionCall.Args == nil {
						args = []byte("{}")
					}
					id := part.FunctionCall.ID
					if id == "" {
						id = fmt.Sprintf("auto_call_%d", i)
					}
					msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
						ID:   id,
						Type: "function",
						Function: model.FunctionDefinitionParam{
							Name:      part.FunctionCall.Name,
							Arguments: args,
						},
					})
				default:
					msg.Content += part.Text
				}
			}
		}
	}
	response := &model.Response{
		Object:    model.ObjectTypeChatCompletion,
		Created:   time.Now().Unix(),
		Model:     m.name,
		Choices:   []model.Choice{{Message: msg}},
		Timestamp: time.Now(),
		Done:      true,
	}
	if finishReason != "" {
		response.Choices[0].FinishReason = &finishReason
	}
	if u := rsp.UsageMetadata; u != nil {
		response.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}
	return response
}
