//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package pdf

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/chunking"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader"
)

// newTestPDF generates a one page PDF holding lines of ASCII text.
func newTestPDF(t *testing.T, lines ...string) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	doc.AddPage()
	for _, line := range lines {
		doc.Cell(40, 10, line)
		doc.Ln(10)
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func TestReader_ReadFromReader(t *testing.T) {
	data := newTestPDF(t, "Warranty 12 months")
	docs, err := New(WithChunking(false)).ReadFromReader("warranty", bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Warranty 12 months")
	assert.Equal(t, "warranty", docs[0].Name)
}

func TestReader_ReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "returns.pdf")
	require.NoError(t, os.WriteFile(path, newTestPDF(t, "Return within 30 days"), 0o600))

	docs, err := New().ReadFromFile(path)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	assert.Equal(t, "returns", docs[0].Name)
	assert.Contains(t, docs[0].Content, "Return within 30 days")
}

func TestReader_Chunked(t *testing.T) {
	data := newTestPDF(t, strings.Repeat("screen ", 10), strings.Repeat("battery ", 10))
	rdr := New(WithChunkingStrategy(chunking.NewFixedSizeChunking(chunking.WithChunkSize(40), chunking.WithOverlap(0))))
	docs, err := rdr.ReadFromReader("guide", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Greater(t, len(docs), 1)
}

func TestReader_InvalidPDF(t *testing.T) {
	_, err := New().ReadFromReader("broken", strings.NewReader("not a pdf"))
	assert.Error(t, err)

	_, err = New().ReadFromFile(filepath.Join(t.TempDir(), "missing.pdf"))
	assert.Error(t, err)
}

func TestReader_Registered(t *testing.T) {
	r, ok := reader.GetReader(".PDF")
	require.True(t, ok)
	assert.Equal(t, "PDFReader", r.Name())
}
