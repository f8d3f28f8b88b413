//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package webfetch provides the fetch_url tool, which downloads a web page
// and returns its readable text so the assistant can answer questions about it.
package webfetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/function"
	"trpc.group/trpc-go/fptshop-assistant/tool/webfetch/internal/client"
)

const (
	// Name is the tool name the model sees.
	Name = "fetch_url"
	// defaultUserAgent is the default user agent for HTTP requests.
	defaultUserAgent = "fptshop-assistant-fetch/1.0"
	// defaultTimeout is the default timeout for HTTP requests.
	defaultTimeout = 15 * time.Second
	// defaultMaxBytes bounds the downloaded body.
	defaultMaxBytes = 2 << 20
	// defaultMaxChars bounds the text handed to the model.
	defaultMaxChars = 8000
)

// Option is a functional option for configuring the fetch tool.
type Option func(*config)

type config struct {
	userAgent  string
	timeout    time.Duration
	httpClient *http.Client
	maxBytes   int64
	maxChars   int
}

// WithUserAgent sets the user agent for HTTP requests.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds each fetch made by the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the default client, which refuses to connect to
// loopback, private and link-local addresses. A replacement carries no such
// guard.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *config) {
		c.httpClient = httpClient
	}
}

// WithMaxBytes bounds how much of the response body is read.
func WithMaxBytes(n int64) Option {
	return func(c *config) {
		c.maxBytes = n
	}
}

// WithMaxChars bounds the length, in runes, of the returned text.
func WithMaxChars(n int) Option {
	return func(c *config) {
		c.maxChars = n
	}
}

type fetchRequest struct {
	URL string `json:"url" description:"Absolute http or https URL of the page to read"`
}

type fetchResponse struct {
	URL       string `json:"url"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text"`
	Truncated bool   `json:"truncated,omitempty"`
}

type fetchTool struct {
	client   *client.Client
	maxChars int
}

// NewTool creates the fetch_url tool with the provided options.
func NewTool(opts ...Option) tool.CallableTool {
	cfg := &config{
		userAgent: defaultUserAgent,
		timeout:   defaultTimeout,
		maxBytes:  defaultMaxBytes,
		maxChars:  defaultMaxChars,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.httpClient == nil {
		cfg.httpClient = client.NewGuardedHTTPClient(cfg.timeout)
	}
	t := &fetchTool{
		client:   client.New(cfg.userAgent, cfg.maxBytes, cfg.httpClient),
		maxChars: cfg.maxChars,
	}
	return function.NewFunctionTool(
		t.fetch,
		function.WithName(Name),
		function.WithDescription("Fetch a web page, for example an FPT Shop product or promotion page, "+
			"and return its readable text. Use it when the user shares a link and asks about it."),
	)
}

func (t *fetchTool) fetch(ctx context.Context, req fetchRequest) (fetchResponse, error) {
	if strings.TrimSpace(req.URL) == "" {
		return fetchResponse{}, fmt.Errorf("url cannot be empty")
	}
	page, err := t.client.Fetch(ctx, req.URL)
	if err != nil {
		return fetchResponse{}, fmt.Errorf("fetch %s: %w", req.URL, err)
	}
	resp := fetchResponse{
		URL:       page.URL,
		Title:     page.Title,
		Text:      page.Text,
		Truncated: page.Truncated,
	}
	if t.maxChars > 0 && utf8.RuneCountInString(resp.Text) > t.maxChars {
		resp.Text = string([]rune(resp.Text)[:t.maxChars])
		resp.Truncated = true
	}
	return resp, nil
}
