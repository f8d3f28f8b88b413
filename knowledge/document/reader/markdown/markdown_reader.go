//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package markdown provides markdown document reader implementation.
package markdown

import (
	"io"
	"os"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/chunking"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader"
)

var supportedExtensions = []string{".md", ".markdown"}

func init() {
	reader.RegisterReader(supportedExtensions, func() reader.Reader { return New() })
}

// Reader reads markdown documents and applies chunking strategies.
type Reader struct {
	chunk            bool
	chunkingStrategy chunking.Strategy
}

// Option represents a functional option for configuring the markdown reader.
type Option func(*Reader)

// WithChunking enables or disables document chunking.
func WithChunking(chunk bool) Option {
	return func(r *Reader) {
		r.chunk = chunk
	}
}

// WithChunkingStrategy sets the chunking strategy to use.
func WithChunkingStrategy(strategy chunking.Strategy) Option {
	return func(r *Reader) {
		r.chunkingStrategy = strategy
	}
}

// New creates a new markdown reader with the given options.
func New(opts ...Option) *Reader {
	r := &Reader{
		chunk:            true,
		chunkingStrategy: chunking.NewMarkdownChunking(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFromReader reads markdown content from an io.Reader and returns a list of documents.
func (r *Reader) ReadFromReader(name string, rd io.Reader) ([]*document.Document, error) {
	content, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return reader.Finish(name, string(content), r.strategy())
}

// ReadFromFile reads markdown content from a file path and returns a list of documents.
func (r *Reader) ReadFromFile(filePath string) ([]*document.Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return reader.Finish(reader.BaseName(filePath), string(content), r.strategy())
}

func (r *Reader) strategy() chunking.Strategy {
	if !r.chunk {
		return nil
	}
	if r.chunkingStrategy == nil {
		r.chunkingStrategy = chunking.NewMarkdownChunking()
	}
	return r.chunkingStrategy
}

// Name returns the name of this reader.
func (r *Reader) Name() string {
	return "MarkdownReader"
}
