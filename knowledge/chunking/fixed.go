//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package chunking

import (
	"unicode"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

// FixedSizeChunking splits text into chunks of at most chunkSize runes.
type FixedSizeChunking struct {
	chunkSize int
	overlap   int
}

// Option represents a functional option for configuring FixedSizeChunking.
type Option func(*FixedSizeChunking)

// WithChunkSize sets the maximum size of each chunk in runes.
func WithChunkSize(size int) Option {
	return func(fsc *FixedSizeChunking) {
		fsc.chunkSize = size
	}
}

// WithOverlap sets the number of runes shared by consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(fsc *FixedSizeChunking) {
		fsc.overlap = overlap
	}
}

// NewFixedSizeChunking creates a new fixed-size chunking strategy with options.
func NewFixedSizeChunking(opts ...Option) *FixedSizeChunking {
	fsc := &FixedSizeChunking{
		chunkSize: defaultChunkSize,
		overlap:   defaultOverlap,
	}
	for _, opt := range opts {
		opt(fsc)
	}
	if fsc.chunkSize <= 0 {
		fsc.chunkSize = defaultChunkSize
	}
	if fsc.overlap < 0 {
		fsc.overlap = 0
	}
	if fsc.overlap >= fsc.chunkSize {
		fsc.overlap = min(defaultOverlap, fsc.chunkSize-1)
	}
	return fsc
}

// Chunk splits the document into fixed-size chunks with optional overlap.
// Sizes are counted in runes so multi-byte Vietnamese text is never cut
// inside a character.
func (f *FixedSizeChunking) Chunk(doc *document.Document) ([]*document.Document, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.IsEmpty() {
		return nil, ErrEmptyDocument
	}

	content := []rune(cleanText(doc.Content))
	if len(content) <= f.chunkSize {
		return []*document.Document{createChunk(doc, string(content), 1)}, nil
	}
	return splitRunes(doc, content, f.chunkSize, f.overlap, 1), nil
}

// splitRunes cuts content into windows, preferring whitespace break points.
// Every iteration advances by at least one rune past the overlap.
func splitRunes(doc *document.Document, content []rune, size, overlap, first int) []*document.Document {
	var chunks []*document.Document
	chunkNumber := first
	start := 0
	for start < len(content) {
		end := min(start+size, len(content))
		if end < len(content) {
			if bp := findBreakPoint(content, start, end); bp != -1 && bp-start > overlap {
				end = bp
			}
		}
		chunks = append(chunks, createChunk(doc, string(content[start:end]), chunkNumber))
		chunkNumber++
		if end == len(content) {
			break
		}
		start = end - overlap
	}
	return chunks
}

// findBreakPoint returns the index just after the last whitespace in
// (start, targetEnd), or -1.
func findBreakPoint(content []rune, start, targetEnd int) int {
	for i := targetEnd - 1; i > start; i-- {
		if unicode.IsSpace(content[i]) {
			return i + 1
		}
	}
	return -1
}
