//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package inmemory provides in-memory checkpoint storage.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"trpc.group/trpc-go/fptshop-assistant/graph"
)

// Saver provides an in-memory implementation of CheckpointSaver.
// This is suitable for testing and debugging but not for production use.
type Saver struct {
	mu      sync.RWMutex
	storage map[string]*graph.Checkpoint // threadID -> latest checkpoint
}

// NewSaver creates a new in-memory checkpoint saver.
func NewSaver() *Saver {
	return &Saver{storage: make(map[string]*graph.Checkpoint)}
}

// Get returns a copy of the thread's latest checkpoint.
func (s *Saver) Get(_ context.Context, threadID string) (*graph.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storage[threadID].Copy(), nil
}

// Put stores a copy of the checkpoint.
func (s *Saver) Put(_ context.Context, checkpoint *graph.Checkpoint) error {
	if checkpoint == nil || checkpoint.ThreadID == "" {
		return errors.New("checkpoint with thread id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storage[checkpoint.ThreadID] = checkpoint.Copy()
	return nil
}

// Delete removes the thread's checkpoint.
func (s *Saver) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.storage, threadID)
	return nil
}

// Close releases resources held by the saver.
func (s *Saver) Close() error {
	return nil
}
