//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package reader defines the interface for document readers.
// This interface allows reading from any io.Reader source, such as files or uploads.
package reader

import (
	"io"
	"path/filepath"
	"strings"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/chunking"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

// Reader interface for different document readers.
type Reader interface {
	// ReadFromReader reads content from an io.Reader and returns a list of documents.
	// The name parameter is used to identify the source (e.g., filename).
	ReadFromReader(name string, r io.Reader) ([]*document.Document, error)

	// ReadFromFile reads content from a file path and returns a list of documents.
	ReadFromFile(filePath string) ([]*document.Document, error)

	// Name returns the name of this reader.
	Name() string
}

// BaseName returns the file name of path without its extension.
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Finish wraps extracted text into a document and chunks it when a strategy
// is given.
func Finish(name, content string, strategy chunking.Strategy) ([]*document.Document, error) {
	doc := document.New(name, content)
	if strategy == nil {
		return []*document.Document{doc}, nil
	}
	return strategy.Chunk(doc)
}
