//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package badger provides embedded checkpoint storage on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"trpc.group/trpc-go/fptshop-assistant/graph"
)

const keyPrefix = "checkpoint/"

// Saver is a BadgerDB-backed implementation of CheckpointSaver.
type Saver struct {
	db  *badger.DB
	ttl time.Duration
	// owned is true when the saver opened db and must close it.
	owned bool
}

// Option configures a Saver.
type Option func(*Saver)

// WithTTL expires idle threads after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Saver) {
		s.ttl = ttl
	}
}

// NewSaver creates a saver over an open DB. Close does not close db.
func NewSaver(db *badger.DB, opts ...Option) (*Saver, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	s := &Saver{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open opens the database in dir and creates a saver owning it.
// An empty dir keeps everything in memory.
func Open(dir string, opts ...Option) (*Saver, error) {
	bopts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	s, _ := NewSaver(db, opts...)
	s.owned = true
	return s, nil
}

// Get returns the latest checkpoint of the thread.
func (s *Saver) Get(_ context.Context, threadID string) (*graph.Checkpoint, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + threadID))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("badger get checkpoint: %w", err)
	}
	return graph.UnmarshalCheckpoint(data)
}

// Put stores the checkpoint as the thread's latest.
func (s *Saver) Put(_ context.Context, checkpoint *graph.Checkpoint) error {
	if checkpoint == nil || checkpoint.ThreadID == "" {
		return errors.New("checkpoint with thread id is required")
	}
	data, err := graph.MarshalCheckpoint(checkpoint)
	if err != nil {
		return err
	}
	entry := badger.NewEntry([]byte(keyPrefix+checkpoint.ThreadID), data)
	if s.ttl > 0 {
		entry = entry.WithTTL(s.ttl)
	}
	if err := s.db.Update(func(txn *badger.Txn) error { return txn.SetEntry(entry) }); err != nil {
		return fmt.Errorf("badger put checkpoint: %w", err)
	}
	return nil
}

// Delete removes the thread's checkpoint.
func (s *Saver) Delete(_ context.Context, threadID string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + threadID))
	})
	if err != nil {
		return fmt.Errorf("badger delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the database when the saver opened it.
func (s *Saver) Close() error {
	if s.owned {
		return s.db.Close()
	}
	return nil
}
