//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package sqlite provides SQLite-based checkpoint storage.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"trpc.group/trpc-go/fptshop-assistant/graph"
)

const (
	sqliteCreateCheckpoints = "CREATE TABLE IF NOT EXISTS checkpoints (" +
		"thread_id TEXT NOT NULL PRIMARY KEY, " +
		"checkpoint_id TEXT NOT NULL, " +
		"ts INTEGER NOT NULL, " +
		"checkpoint_json BLOB NOT NULL" +
		")"

	sqliteInsertCheckpoint = "INSERT OR REPLACE INTO checkpoints (" +
		"thread_id, checkpoint_id, ts, checkpoint_json) VALUES (?, ?, ?, ?)"

	sqliteSelectCheckpoint = "SELECT checkpoint_json FROM checkpoints WHERE thread_id = ?"

	sqliteDeleteCheckpoint = "DELETE FROM checkpoints WHERE thread_id = ?"
)

// Saver is a SQLite-backed implementation of CheckpointSaver.
// It expects an initialized *sql.DB and will create the required schema.
// The checkpoint is stored as a JSON blob, one row per thread.
type Saver struct {
	db *sql.DB
}

// NewSaver creates a new saver using the provided DB.
// The DB must use a SQLite driver. The constructor creates tables if needed.
func NewSaver(db *sql.DB) (*Saver, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if _, err := db.Exec(sqliteCreateCheckpoints); err != nil {
		return nil, fmt.Errorf("create checkpoints table: %w", err)
	}
	return &Saver{db: db}, nil
}

// Get returns the latest checkpoint of the thread.
func (s *Saver) Get(ctx context.Context, threadID string) (*graph.Checkpoint, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, sqliteSelectCheckpoint, threadID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select checkpoint: %w", err)
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
	_, err = s.db.ExecContext(ctx, sqliteInsertCheckpoint,
		checkpoint.ThreadID, checkpoint.ID, checkpoint.Timestamp.UnixNano(), data)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// Delete removes the thread's checkpoint.
func (s *Saver) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, sqliteDeleteCheckpoint, threadID); err != nil {
		return fmt.Errorf("delete checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying DB.
func (s *Saver) Close() error {
	return s.db.Close()
}
