//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package postgres provides PostgreSQL-based checkpoint storage.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trpc.group/trpc-go/fptshop-assistant/graph"
	storage "trpc.group/trpc-go/fptshop-assistant/storage/postgres"
)

const (
	pgCreateCheckpoints = "CREATE TABLE IF NOT EXISTS fptshop_checkpoints (" +
		"thread_id TEXT PRIMARY KEY, " +
		"checkpoint_id TEXT NOT NULL, " +
		"updated_at TIMESTAMPTZ NOT NULL, " +
		"checkpoint JSONB NOT NULL" +
		")"

	pgUpsertCheckpoint = "INSERT INTO fptshop_checkpoints (thread_id, checkpoint_id, updated_at, checkpoint) " +
		"VALUES ($1, $2, $3, $4) ON CONFLICT (thread_id) DO UPDATE SET " +
		"checkpoint_id = EXCLUDED.checkpoint_id, updated_at = EXCLUDED.updated_at, checkpoint = EXCLUDED.checkpoint"

	pgSelectCheckpoint = "SELECT checkpoint FROM fptshop_checkpoints WHERE thread_id = $1"

	pgDeleteCheckpoint = "DELETE FROM fptshop_checkpoints WHERE thread_id = $1"
)

// Saver is a PostgreSQL-backed implementation of CheckpointSaver.
type Saver struct {
	client storage.Client
}

// NewSaver creates a saver over client and creates the table if needed.
func NewSaver(ctx context.Context, client storage.Client) (*Saver, error) {
	if client == nil {
		return nil, errors.New("client is nil")
	}
	if _, err := client.ExecContext(ctx, pgCreateCheckpoints); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{client: client}, nil
}

// Open connects to dsn through the pgx driver and creates a saver.
func Open(ctx context.Context, dsn string) (*Saver, error) {
	client, err := storage.NewClient(ctx, storage.WithClientConnString(dsn))
	if err != nil {
		return nil, err
	}
	s, err := NewSaver(ctx, client)
	if err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

// Get returns the latest checkpoint of the thread.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	var data []byte
	err := s.client.Query(ctx, func(rows *sql.Rows) error {
		if rows.Next() {
			return rows.Scan(&data)
		}
		return nil
	}, pgSelectCheckpoint, threadID)
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	return graph.UnmarshalCheckpoint(data)
}

// Put stores the checkpoint as the thread's latest.
func (s *Saver) Put(ctx context.Context, checkpoint *graph.Checkpoint) error {
	if checkpoint == nil || checkpoint.ThreadID == "" {
		return errors.New("checkpoint with thread id is required")
	}
	data, err := graph.MarshalCheckpoint(checkpoint)
	if err != nil {
		return err
	}
	_, err = s.client.ExecContext(ctx, pgUpsertCheckpoint,
		checkpoint.ThreadID, checkpoint.ID, checkpoint.Timestamp, data)
	if err != nil {
		return fmt.Errorf("upsert checkpoint: %w", err)
	}
	return nil
}

// Delete removes the thread's checkpoint.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if _, err := s.client.ExecContext(ctx, pgDeleteCheckpoint, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the client.
func (s *Saver) Close() error {
	return s.client.Close()
}
