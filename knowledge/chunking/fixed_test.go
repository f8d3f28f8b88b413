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
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

func TestFixedSizeChunking_Errors(t *testing.T) {
	fsc := NewFixedSizeChunking()

	chunks, err := fsc.Chunk(nil)
	require.ErrorIs(t, err, ErrNilDocument)
	require.Nil(t, chunks)

	_, err = fsc.Chunk(&document.Document{ID: "empty"})
	require.ErrorIs(t, err, ErrEmptyDocument)
}

func TestFixedSizeChunking_OverlapValidation(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		overlap   int
	}{
		{name: "overlap greater than chunkSize", chunkSize: 10, overlap: 15},
		{name: "overlap equal to chunkSize", chunkSize: 20, overlap: 20},
		{name: "negative overlap", chunkSize: 5, overlap: -1},
		{name: "zero chunk size", chunkSize: 0, overlap: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsc := NewFixedSizeChunking(WithChunkSize(tt.chunkSize), WithOverlap(tt.overlap))
			assert.Less(t, fsc.overlap, fsc.chunkSize)
			assert.GreaterOrEqual(t, fsc.overlap, 0)

			doc := &document.Document{ID: "test", Content: "This is a test content for chunking validation"}
			chunks, err := fsc.Chunk(doc)
			require.NoError(t, err)
			require.NotEmpty(t, chunks)
		})
	}
}

func TestFixedSizeChunking_SingleChunk(t *testing.T) {
	fsc := NewFixedSizeChunking(WithChunkSize(100))
	chunks, err := fsc.Chunk(&document.Document{ID: "a", Content: "  short text  "})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0].Content)
	assert.Equal(t, "a_1", chunks[0].ID)
}

func TestFixedSizeChunking_SplitOverlap(t *testing.T) {
	fsc := NewFixedSizeChunking(WithChunkSize(8), WithOverlap(2))
	content := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := fsc.Chunk(&document.Document{ID: "x", Content: content})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 8)
		if i > 0 {
			prev := chunks[i-1].Content
			assert.True(t, strings.HasPrefix(c.Content, prev[len(prev)-2:]), "chunk %d must overlap", i)
		}
	}
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1].Content, "z"))
}

func TestFixedSizeChunking_RuneSafe(t *testing.T) {
	fsc := NewFixedSizeChunking(WithChunkSize(5), WithOverlap(0))
	content := "Điện thoại bảo hành mười hai tháng"
	chunks, err := fsc.Chunk(&document.Document{ID: "vi", Content: content})
	require.NoError(t, err)

	var rebuilt strings.Builder
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c.Content))
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 5)
		rebuilt.WriteString(c.Content)
	}
	assert.Equal(t, content, rebuilt.String())
}

func TestFixedSizeChunking_PrefersWhitespace(t *testing.T) {
	fsc := NewFixedSizeChunking(WithChunkSize(12), WithOverlap(0))
	chunks, err := fsc.Chunk(&document.Document{ID: "w", Content: "hello world again and again"})
	require.NoError(t, err)
	assert.Equal(t, "hello world ", chunks[0].Content)
}
