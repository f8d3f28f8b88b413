//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package redis provides Redis-based checkpoint storage with optional expiry.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trpc.group/trpc-go/fptshop-assistant/graph"
	storage "trpc.group/trpc-go/fptshop-assistant/storage/redis"
)

const defaultKeyPrefix = "fptshop:checkpoint:"

// Saver is a Redis-backed implementation of CheckpointSaver.
// Each thread's latest checkpoint is one string key.
type Saver struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

// Option configures a Saver.
type Option func(*Saver)

// WithTTL expires idle threads after ttl. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Saver) {
		s.ttl = ttl
	}
}

// WithKeyPrefix sets the key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Saver) {
		s.keyPrefix = prefix
	}
}

// NewSaver creates a saver over client.
func NewSaver(client redis.UniversalClient, opts ...Option) (*Saver, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}
	s := &Saver{client: client, keyPrefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open builds a client for url and creates a saver.
func Open(url string, opts ...Option) (*Saver, error) {
	client, err := storage.NewClient(storage.WithClientBuilderURL(url))
	if err != nil {
		return nil, err
	}
	return NewSaver(client, opts...)
}

func (s *Saver) key(threadID string) string {
	return s.keyPrefix + threadID
}

// Get returns the latest checkpoint of the thread.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	data, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get checkpoint: %w", err)
	}
	return graph.UnmarshalCheckpoint(data)
}

// Put stores the checkpoint as the thread's latest and refreshes the expiry.
func (s *Saver) Put(ctx context.Context, checkpoint *graph.Checkpoint) error {
	if checkpoint == nil || checkpoint.ThreadID == "" {
		return errors.New("checkpoint with thread id is required")
	}
	data, err := graph.MarshalCheckpoint(checkpoint)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(checkpoint.ThreadID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set checkpoint: %w", err)
	}
	return nil
}

// Delete removes the thread's checkpoint.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("redis delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Saver) Close() error {
	return s.client.Close()
}
