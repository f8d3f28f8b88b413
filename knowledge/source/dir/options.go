//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package dir loads knowledge documents from directories on disk.
package dir

import "strings"

// Option configures a directory Source.
type Option func(*Source)

// WithName names the source. Hits report it as the source name.
func WithName(name string) Option {
	return func(s *Source) { s.name = name }
}

// WithMetadataValue stamps key=value onto every document of the source,
// e.g. "category"="policy".
func WithMetadataValue(key string, value any) Option {
	return func(s *Source) { s.metadata[key] = value }
}

// WithFileExtensions keeps only files with the given extensions. The match
// ignores case and the leading dot is optional, so "PDF" selects "a.pdf".
func WithFileExtensions(exts ...string) Option {
	return func(s *Source) {
		for _, ext := range exts {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			s.fileExtensions = append(s.fileExtensions, ext)
		}
	}
}

// WithRecursive controls whether subdirectories are walked. It has no effect
// once WithPatterns is given.
func WithRecursive(recursive bool) Option {
	return func(s *Source) { s.recursive = recursive }
}

// WithPatterns selects files by doublestar globs relative to each directory,
// e.g. "policies/**/*.md".
func WithPatterns(patterns ...string) Option {
	return func(s *Source) { s.patterns = patterns }
}

// WithChunking overrides the chunk size and overlap, in runes, of the
// readers used by the source. A size of zero keeps the reader defaults.
func WithChunking(size, overlap int) Option {
	return func(s *Source) {
		s.chunkSize = size
		s.chunkOverlap = overlap
	}
}
