//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package anthropic provides a model implementation for the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

const (
	defaultMaxTokens         = 1024
	defaultChannelBufferSize = 1
)

type options struct {
	apiKey            string
	baseURL           string
	httpClient        *http.Client
	maxTokens         int64
	channelBufferSize int
	requestOptions    []option.RequestOption
}

// Option configures the Anthropic model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithHTTPClient sets the HTTP client used to reach the API.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithMaxTokens sets the default output budget. The Messages API requires one;
// Request.MaxTokens overrides it per call.
func WithMaxTokens(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxTokens = int64(n)
		}
	}
}

// WithAnthropicOptions appends raw SDK request options.
func WithAnthropicOptions(opts ...option.RequestOption) Option {
	return func(o *options) { o.requestOptions = append(o.requestOptions, opts...) }
}

// Model implements model.Model on top of anthropic-sdk-go.
type Model struct {
	client            anthropic.Client
	name              string
	maxTokens         int64
	channelBufferSize int
}

// New creates a new Anthropic model.
func New(name string, opts ...Option) *Model {
	o := &options{maxTokens: defaultMaxTokens, channelBufferSize: defaultChannelBufferSize}
	for _, opt := range opts {
		opt(o)
	}
	var clientOpts []option.RequestOption
	if o.apiKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(o.apiKey))
	}
	if o.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(o.baseURL))
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(o.httpClient))
	}
	clientOpts = append(clientOpts, o.requestOptions...)
	return &Model{
		client:            anthropic.NewClient(clientOpts...),
		name:              name,
		maxTokens:         o.maxTokens,
		channelBufferSize: o.channelBufferSize,
	}
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
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(m.name),
		MaxTokens: m.maxTokens,
		Messages:  convertMessages(request.Messages),
		System:    systemBlocks(request.Messages),
		Tools:     convertTools(request.Tools),
	}
	if request.MaxTokens != nil {
		params.MaxTokens = int64(*request.MaxTokens)
	}
	if request.Temperature != nil {
		params.Temperature = anthropic.Float(*request.Temperature)
	}
	if request.TopP != nil {
		params.TopP = anthropic.Float(*request.TopP)
	}
	if len(request.Stop) > 0 {
		params.StopSequences = request.Stop
	}

	responseChan := make(chan *model.Response, m.channelBufferSize)
	go func() {
		defer close(responseChan)
		rsp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			log.Warnf("anthropic: messages call for %s failed: %v", m.name, err)
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
		send(ctx, responseChan, convertResponse(rsp))
	}()
	return responseChan, nil
}

func send(ctx context.Context, ch chan<- *model.Response, rsp *model.Response) {
	select {
	case ch <- rsp:
	case <-ctx.Done():
	}
}

func systemBlocks(messages []model.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range messages {
		if msg.Role == model.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

// convertMessages maps the conversation onto user and assistant turns.
// Tool results travel as tool_result blocks of a user turn; consecutive
// results share one turn.
func convertMessages(messages []model.Message) []anthropic.MessageParam {
	var (
		out     []anthropic.MessageParam
		results []anthropic.ContentBlockParamUnion
	)
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			continue
		case model.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(msg.ToolID, msg.Content, false))
		case model.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, toolInput(call.Function.Arguments), call.Function.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		default:
			flush()
			if msg.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	flush()
	return out
}

func toolInput(args []byte) json.RawMessage {
	if len(args) == 0 || !json.Valid(args) {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(args)
}

func convertTools(tools map[string]tool.Tool) []anthropic.ToolUnionParam {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []anthropic.ToolUnionParam
	for _, name := range names {
		decl := tools[name].Declaration()
		schema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if decl.InputSchema != nil {
			if len(decl.InputSchema.Properties) > 0 {
				schema.Properties = decl.InputSchema.Properties
			}
			schema.Required = decl.InputSchema.Required
		}
		u := anthropic.ToolUnionParamOfTool(schema, decl.Name)
		if u.OfTool != nil && decl.Description != "" {
			u.OfTool.Description = anthropic.String(decl.Description)
		}
		out = append(out, u)
	}
	return out
}

func convertResponse(rsp *anthropic.Message) *model.Response {
	msg := model.Message{Role: model.RoleAssistant}
	for _, block := range rsp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.AsText().Text
		case "tool_use":
			use := block.AsToolUse()
			args, err := json.Marshal(use.Input)
			if err != nil || string(args) == "null" {
				args = []byte("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, model.ToolCall{
				ID:   use.ID,
				Type: "function",
				Function: model.FunctionDefinitionParam{
					Name:      use.Name,
					Arguments: args,
				},
			})
		}
	}
	finishReason := "stop"
	if rsp.StopReason != "" {
		finishReason = string(rsp.StopReason)
	}
	prompt, completion := int(rsp.Usage.InputTokens), int(rsp.Usage.OutputTokens)
	return &model.Response{
		ID:      rsp.ID,
		Object:  model.ObjectTypeChatCompletion,
		Created: time.Now().Unix(),
		Model:   string(rsp.Model),
		Choices: []model.Choice{{Message: msg, FinishReason: &finishReason}},
		Usage: &model.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
		Timestamp: time.Now(),
		Done:      true,
	}
}
