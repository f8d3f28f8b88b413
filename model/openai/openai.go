//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package openai adapts the OpenAI chat completions API, and any endpoint
// compatible with it, to model.Model.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

type options struct {
	apiKey         string
	baseURL        string
	httpClient     *http.Client
	requestOptions []option.RequestOption
	bodyFields     map[string]any
}

// Option configures the OpenAI model.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(key string) Option {
	return func(o *options) { o.apiKey = key }
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = url }
}

// WithHTTPClient sets the HTTP client used to reach the API.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithOpenAIOptions appends raw SDK request options.
func WithOpenAIOptions(opts ...option.RequestOption) Option {
	return func(o *options) { o.requestOptions = append(o.requestOptions, opts...) }
}

// WithExtraFields merges fields into every request body, for provider
// extensions the SDK does not model.
func WithExtraFields(fields map[string]any) Option {
	return func(o *options) {
		if o.bodyFields == nil {
			o.bodyFields = make(map[string]any, len(fields))
		}
		for k, v := range fields {
			o.bodyFields[k] = v
		}
	}
}

// Model implements model.Model on top of openai-go.
type Model struct {
	client  openai.Client
	name    string
	perCall []option.RequestOption
}

// New creates a new OpenAI model.
func New(name string, opts ...Option) *Model {
	o := &options{}
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

	keys := make([]string, 0, len(o.bodyFields))
	for k := range o.bodyFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	perCall := make([]option.RequestOption, 0, len(keys))
	for _, k := range keys {
		perCall = append(perCall, option.WithJSONSet(k, o.bodyFields[k]))
	}
	return &Model{client: openai.NewClient(clientOpts...), name: name, perCall: perCall}
}

// Info implements the model.Model interface.
func (m *Model) Info() model.Info {
	return model.Info{Name: m.name}
}

// GenerateContent implements the model.Model interface. The channel carries
// exactly one response and is then closed.
func (m *Model) GenerateContent(ctx context.Context, request *model.Request) (<-chan *model.Response, error) {
	if request == nil {
		return nil, errors.New("request cannot be nil")
	}
	params := m.params(request)
	responseChan := make(chan *model.Response, 1)
	go func() {
		defer close(responseChan)
		completion, err := m.client.Chat.Completions.New(ctx, params, m.perCall...)
		if err != nil {
			log.Warnf("openai: chat completion for %s failed: %v", m.name, err)
			responseChan <- &model.Response{
				Error:     &model.ResponseError{Message: err.Error(), Type: model.ErrorTypeAPIError},
				Timestamp: time.Now(),
				Done:      true,
			}
			return
		}
		responseChan <- toResponse(completion)
	}()
	return responseChan, nil
}

func (m *Model) params(request *model.Request) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(m.name),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(request.Messages)),
		Tools:    convertTools(request.Tools),
	}
	for _, msg := range request.Messages {
		params.Messages = append(params.Messages, convertMessage(msg))
	}
	// o-series models reject max_tokens.
	if request.MaxTokens != nil {
		params.MaxCompletionTokens = openai.Int(int64(*request.MaxTokens))
	}
	if request.Temperature != nil {
		params.Temperature = openai.Float(*request.Temperature)
	}
	if request.TopP != nil {
		params.TopP = openai.Float(*request.TopP)
	}
	switch len(request.Stop) {
	case 0:
	case 1:
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfString: openai.String(request.Stop[0])}
	default:
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: request.Stop}
	}
	return params
}

func convertMessage(msg model.Message) openai.ChatCompletionMessageParamUnion {
	switch msg.Role {
	case model.RoleSystem:
		return openai.SystemMessage(msg.Content)
	case model.RoleTool:
		return openai.ToolMessage(msg.Content, msg.ToolID)
	case model.RoleAssistant:
		assistant := &openai.ChatCompletionAssistantMessageParam{}
		if msg.Content != "" {
			assistant.Content.OfString = openai.String(msg.Content)
		}
		for _, call := range msg.ToolCalls {
			args := string(call.Function.Arguments)
			if args == "" {
				args = "{}"
			}
			assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
				ID:       call.ID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{Name: call.Function.Name, Arguments: args},
			})
		}
		return openai.ChatCompletionMessageParamUnion{OfAssistant: assistant}
	default:
		return openai.UserMessage(msg.Content)
	}
}

// convertTools advertises tools sorted by name so requests are stable.
func convertTools(tools map[string]tool.Tool) []openai.ChatCompletionToolParam {
	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	var result []openai.ChatCompletionToolParam
	for _, name := range names {
		decl := tools[name].Declaration()
		var parameters shared.FunctionParameters
		raw, err := json.Marshal(decl.InputSchema)
		if err == nil {
			err = json.Unmarshal(raw, &parameters)
		}
		if err != nil {
			log.Errorf("openai: skipping tool %s: bad schema: %v", decl.Name, err)
			continue
		}
		result = append(result, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        decl.Name,
				Description: openai.String(decl.Description),
				Parameters:  parameters,
			},
		})
	}
	return result
}

func toResponse(c *openai.ChatCompletion) *model.Response {
	rsp := &model.Response{
		ID:        c.ID,
		Object:    model.ObjectTypeChatCompletion,
		Created:   c.Created,
		Model:     c.Model,
		Choices:   make([]model.Choice, 0, len(c.Choices)),
		Timestamp: time.Now(),
		Done:      true,
	}
	for _, choice := range c.Choices {
		out := model.Choice{
			Index:   int(choice.Index),
			Message: model.Message{Role: model.RoleAssistant, Content: choice.Message.Content},
		}
		for j, call := range choice.Message.ToolCalls {
			id := call.ID
			if id == "" {
				// Some compatible providers omit the id.
				id = fmt.Sprintf("auto_call_%d", j)
			}
			out.Message.ToolCalls = append(out.Message.ToolCalls, model.ToolCall{
				ID:       id,
				Type:     string(call.Type),
				Function: model.FunctionDefinitionParam{Name: call.Function.Name, Arguments: []byte(call.Function.Arguments)},
			})
		}
		if reason := choice.FinishReason; reason != "" {
			out.FinishReason = &reason
		}
		rsp.Choices = append(rsp.Choices, out)
	}
	if u := c.Usage; u.PromptTokens > 0 || u.CompletionTokens > 0 {
		rsp.Usage = &model.Usage{
			PromptTokens:     int(u.PromptTokens),
			CompletionTokens: int(u.CompletionTokens),
			TotalTokens:      int(u.TotalTokens),
		}
	}
	return rsp
}
