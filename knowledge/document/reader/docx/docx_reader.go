//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package docx provides DOCX document reader implementation.
package docx

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gonfva/docxlib"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/chunking"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader"
)

var supportedExtensions = []string{".docx"}

func init() {
	reader.RegisterReader(supportedExtensions, func() reader.Reader { return New() })
}

// Reader reads DOCX documents and applies chunking strategies.
type Reader struct {
	chunk            bool
	chunkingStrategy chunking.Strategy
}

// Option represents a functional option for configuring the DOCX reader.
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

// New creates a new DOCX reader with the given options.
func New(opts ...Option) *Reader {
	r := &Reader{
		chunk:            true,
		chunkingStrategy: chunking.NewFixedSizeChunking(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ReadFromReader reads DOCX content from an io.Reader and returns a list of documents.
func (r *Reader) ReadFromReader(name string, rd io.Reader) ([]*document.Document, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, err
	}
	return r.read(name, data)
}

// ReadFromFile reads DOCX content from a file path and returns a list of documents.
func (r *Reader) ReadFromFile(filePath string) ([]*document.Document, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return r.read(reader.BaseName(filePath), data)
}

func (r *Reader) read(name string, data []byte) ([]*document.Document, error) {
	doc, err := docxlib.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("docx: read %s: %w", name, err)
	}
	var strategy chunking.Strategy
	if r.chunk {
		if r.chunkingStrategy == nil {
			r.chunkingStrategy = chunking.NewFixedSizeChunking()
		}
		strategy = r.chunkingStrategy
	}
	return reader.Finish(name, extractText(doc), strategy)
}

// extractText joins the runs of each paragraph, one paragraph per line.
func extractText(doc *docxlib.DocxLib) string {
	var textContent strings.Builder
	for _, paragraph := range doc.Paragraphs() {
		var line []string
		for _, child := range paragraph.Children() {
			if child.Run != nil && child.Run.Text != nil {
				if text := strings.TrimSpace(child.Run.Text.Text); text != "" {
					line = append(line, text)
				}
			}
			if child.Link != nil && child.Link.Run.Text != nil {
				if text := strings.TrimSpace(child.Link.Run.Text.Text); text != "" {
					line = append(line, text)
				}
			}
		}
		if len(line) == 0 {
			continue
		}
		textContent.WriteString(strings.Join(line, " "))
		textContent.WriteString("\n")
	}
	return strings.TrimSpace(textContent.String())
}

// Name returns the name of this reader.
func (r *Reader) Name() string {
	return "DOCXReader"
}
