//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package reader

import (
	"sort"
	"strings"
	"sync"
)

// Constructor is a function that creates a new Reader instance.
type Constructor func() Reader

// registry maps file extensions to reader constructors.
type registry struct {
	mu      sync.RWMutex
	readers map[string]Constructor
}

var globalRegistry = &registry{readers: make(map[string]Constructor)}

// RegisterReader registers a reader constructor for specific file extensions.
// Extensions should include the dot prefix (e.g., ".pdf", ".txt").
func RegisterReader(extensions []string, constructor Constructor) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	for _, ext := range extensions {
		globalRegistry.readers[strings.ToLower(ext)] = constructor
	}
}

// GetReader returns a new reader for the given file extension.
// Returns nil and false if no reader is registered for the extension.
func GetReader(extension string) (Reader, bool) {
	globalRegistry.mu.RLock()
	constructor, ok := globalRegistry.readers[strings.ToLower(extension)]
	globalRegistry.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return constructor(), true
}

// GetRegisteredExtensions returns all registered file extensions, sorted.
func GetRegisteredExtensions() []string {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	extensions := make([]string, 0, len(globalRegistry.readers))
	for ext := range globalRegistry.readers {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// unregister removes extensions; used by tests.
func unregister(extensions ...string) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	for _, ext := range extensions {
		delete(globalRegistry.readers, strings.ToLower(ext))
	}
}
