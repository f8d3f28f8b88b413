//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package chunking provides document chunking strategies and utilities.
package chunking

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
)

// Strategy defines the interface for document chunking strategies.
type Strategy interface {
	// Chunk splits a document into smaller chunks based on the strategy's algorithm.
	Chunk(doc *document.Document) ([]*document.Document, error)
}

var (
	defaultChunkSize = 1024
	defaultOverlap   = 128
)

// cleanText normalizes text to NFC and trims every line.
// Vietnamese documents mix precomposed and combining diacritics; NFC keeps
// rune counts and search tokens stable.
func cleanText(content string) string {
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "")
	}
	processed := norm.NFC.String(content)
	processed = strings.TrimSpace(processed)
	processed = strings.ReplaceAll(processed, "\r\n", "\n")
	processed = strings.ReplaceAll(processed, "\r", "\n")

	lines := strings.Split(processed, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}

// createChunk creates a new document chunk with appropriate metadata.
func createChunk(originalDoc *document.Document, content string, chunkNumber int) *document.Document {
	metadata := make(map[string]any, len(originalDoc.Metadata)+2)
	for k, v := range originalDoc.Metadata {
		metadata[k] = v
	}
	metadata[source.MetaChunkIndex] = chunkNumber
	metadata[source.MetaChunkSize] = utf8.RuneCountInString(content)

	var chunkID string
	switch {
	case originalDoc.ID != "":
		chunkID = originalDoc.ID + "_" + strconv.Itoa(chunkNumber)
	case originalDoc.Name != "":
		chunkID = originalDoc.Name + "_" + strconv.Itoa(chunkNumber)
	default:
		chunkID = "chunk_" + strconv.Itoa(chunkNumber)
	}

	now := time.Now().UTC()
	return &document.Document{
		ID:        chunkID,
		Name:      originalDoc.Name,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
