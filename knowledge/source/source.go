//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package source defines where knowledge documents come from.
package source

import (
	"context"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

// Source types
const (
	TypeDir = "dir"
)

const metaPrefix = "fptshop_"

// Metadata keys
const (
	MetaSource     = metaPrefix + "source"
	MetaSourceName = metaPrefix + "source_name"
	MetaFilePath   = metaPrefix + "file_path"
	MetaFileName   = metaPrefix + "file_name"
	MetaFileExt    = metaPrefix + "file_ext"
	MetaURI        = metaPrefix + "uri"

	MetaChunkIndex   = metaPrefix + "chunk_index"
	MetaChunkSize    = metaPrefix + "chunk_size"
	MetaChunkSection = metaPrefix + "chunk_section"
)

// Source represents a knowledge source that can provide documents.
type Source interface {
	// ReadDocuments reads and returns the chunked documents of the source.
	ReadDocuments(ctx context.Context) ([]*document.Document, error)

	// Name returns a human-readable name for this source.
	Name() string

	// Type returns the type of this source, e.g. TypeDir.
	Type() string
}
