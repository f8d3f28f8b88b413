//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dir

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/chunking"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader/docx"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader/markdown"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader/pdf"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/document/reader/text"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
	"trpc.group/trpc-go/fptshop-assistant/log"
)

// Source reads every supported file under a set of directories.
type Source struct {
	dirPaths       []string
	name           string
	metadata       map[string]any
	fileExtensions []string
	recursive      bool
	patterns       []string
	chunkSize      int
	chunkOverlap   int
}

// New creates a directory source over dirPaths.
func New(dirPaths []string, opts ...Option) *Source {
	s := &Source{
		dirPaths:  dirPaths,
		name:      "Directory Source",
		metadata:  make(map[string]any),
		recursive: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the name of this source.
func (s *Source) Name() string {
	return s.name
}

// Type returns source.TypeDir.
func (s *Source) Type() string {
	return source.TypeDir
}

// ReadDocuments reads every matching file and returns the chunked documents.
// Files without a registered reader are skipped. Files are processed in a
// stable order so chunk IDs do not change between runs.
func (s *Source) ReadDocuments(ctx context.Context) ([]*document.Document, error) {
	if len(s.dirPaths) == 0 {
		return nil, fmt.Errorf("dir: no directories configured for %s", s.name)
	}
	var all []*document.Document
	for _, dirPath := range s.dirPaths {
		files, err := s.listFiles(dirPath)
		if err != nil {
			return nil, fmt.Errorf("dir: list %s: %w", dirPath, err)
		}
		for _, filePath := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			docs, err := s.readFile(filePath)
			if err != nil {
				return nil, fmt.Errorf("dir: read %s: %w", filePath, err)
			}
			all = append(all, docs...)
		}
	}
	return all, nil
}

func (s *Source) listFiles(dirPath string) ([]string, error) {
	info, err := os.Stat(dirPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dirPath)
	}

	patterns := s.patterns
	if len(patterns) == 0 {
		patterns = []string{"*"}
		if s.recursive {
			patterns = []string{"**/*"}
		}
	}

	seen := make(map[string]bool)
	var files []string
	fsys := os.DirFS(dirPath)
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			full := filepath.Join(dirPath, filepath.FromSlash(m))
			if seen[full] || !s.accepts(full) {
				continue
			}
			seen[full] = true
			files = append(files, full)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (s *Source) accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if len(s.fileExtensions) == 0 {
		_, ok := reader.GetReader(ext)
		return ok
	}
	return slices.Contains(s.fileExtensions, ext)
}

func (s *Source) readFile(filePath string) ([]*document.Document, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	r, ok := s.readerFor(ext)
	if !ok {
		log.Debugf("dir: no reader for %s, skipping", filePath)
		return nil, nil
	}
	docs, err := r.ReadFromFile(filePath)
	if err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		absPath = filePath
	}
	for _, doc := range docs {
		doc.ID = filepath.ToSlash(filePath) + "#" + doc.ID
		for k, v := range s.metadata {
			doc.Metadata[k] = v
		}
		doc.Metadata[source.MetaSource] = source.TypeDir
		doc.Metadata[source.MetaSourceName] = s.name
		doc.Metadata[source.MetaFilePath] = filePath
		doc.Metadata[source.MetaFileName] = filepath.Base(filePath)
		doc.Metadata[source.MetaFileExt] = ext
		doc.Metadata[source.MetaURI] = "file://" + filepath.ToSlash(absPath)
	}
	return docs, nil
}

// readerFor returns the registered reader for ext, or one built with the
// configured chunk size.
func (s *Source) readerFor(ext string) (reader.Reader, bool) {
	if s.chunkSize <= 0 {
		return reader.GetReader(ext)
	}
	fixed := chunking.NewFixedSizeChunking(
		chunking.WithChunkSize(s.chunkSize),
		chunking.WithOverlap(s.chunkOverlap),
	)
	switch ext {
	case ".md", ".markdown":
		return markdown.New(markdown.WithChunkingStrategy(chunking.NewMarkdownChunking(
			chunking.WithMarkdownChunkSize(s.chunkSize),
			chunking.WithMarkdownOverlap(s.chunkOverlap),
		))), true
	case ".txt", ".text":
		return text.New(text.WithChunkingStrategy(fixed)), true
	case ".pdf":
		return pdf.New(pdf.WithChunkingStrategy(fixed)), true
	case ".docx":
		return docx.New(docx.WithChunkingStrategy(fixed)), true
	}
	return reader.GetReader(ext)
}
