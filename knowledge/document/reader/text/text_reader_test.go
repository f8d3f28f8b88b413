//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package text

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/chunking"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader"
)

func TestReader_ReadFromReader(t *testing.T) {
	docs, err := New(WithChunking(false)).ReadFromReader("notes", strings.NewReader("Giờ mở cửa 8h-22h"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "notes", docs[0].Name)
	assert.Equal(t, "Giờ mở cửa 8h-22h", docs[0].Content)
}

func TestReader_ReadFromFileChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hours.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("mở cửa ", 40)), 0o600))

	rdr := New(WithChunkingStrategy(chunking.NewFixedSizeChunking(chunking.WithChunkSize(50), chunking.WithOverlap(5))))
	docs, err := rdr.ReadFromFile(path)
	require.NoError(t, err)
	assert.Greater(t, len(docs), 1)
	assert.Equal(t, "hours", docs[0].Name)
	assert.Equal(t, "hours_1", docs[0].ID)
}

func TestReader_ReadFromFileMissing(t *testing.T) {
	_, err := New().ReadFromFile(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

type errChunker struct{}

func (errChunker) Chunk(*document.Document) ([]*document.Document, error) {
	return nil, errors.New("chunk failed")
}

func TestReader_ChunkError(t *testing.T) {
	_, err := New(WithChunkingStrategy(errChunker{})).ReadFromReader("x", strings.NewReader("content"))
	assert.EqualError(t, err, "chunk failed")
}

func TestReader_Registered(t *testing.T) {
	r, ok := reader.GetReader(".TXT")
	require.True(t, ok)
	assert.Equal(t, "TextReader", r.Name())
}
