//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CheckpointVersion is the version of the checkpoint format.
const CheckpointVersion = 1

// Checkpoint is a durable snapshot of a thread's state.
type Checkpoint struct {
	// Version is the version of the checkpoint format.
	Version int `json:"v"`
	// ID is the unique identifier for this checkpoint.
	ID string `json:"id"`
	// ThreadID is the conversation the checkpoint belongs to.
	ThreadID string `json:"thread_id"`
	// State is the conversation state at checkpoint time.
	State *State `json:"state"`
	// Next is the node the run was about to execute. Empty when the run
	// reached End. Only a checkpoint with pending calls is resumed there.
	Next string `json:"next,omitempty"`
	// Step is the step number at checkpoint time.
	Step int `json:"step"`
	// Timestamp is when the checkpoint was created.
	Timestamp time.Time `json:"ts"`
}

// NewCheckpoint creates a checkpoint of state for threadID.
func NewCheckpoint(threadID string, state *State, next string, step int) *Checkpoint {
	return &Checkpoint{
		Version:   CheckpointVersion,
		ID:        uuid.New().String(),
		ThreadID:  threadID,
		State:     state.Clone(),
		Next:      next,
		Step:      step,
		Timestamp: time.Now().UTC(),
	}
}

// IsInterrupted reports whether the checkpoint records a suspension.
func (c *Checkpoint) IsInterrupted() bool {
	return c != nil && c.Next != "" && c.State != nil && c.State.Pending()
}

// Copy returns a copy that shares no mutable state with c.
func (c *Checkpoint) Copy() *Checkpoint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.State = c.State.Clone()
	return &cp
}

// CheckpointSaver persists checkpoints keyed by thread id. Only the latest
// checkpoint of a thread is kept.
type CheckpointSaver interface {
	// Get returns the latest checkpoint of the thread, or nil when there is none.
	Get(ctx context.Context, threadID string) (*Checkpoint, error)
	// Put stores the checkpoint as the thread's latest.
	Put(ctx context.Context, checkpoint *Checkpoint) error
	// Delete removes the thread's checkpoint.
	Delete(ctx context.Context, threadID string) error
	// Close releases resources held by the saver.
	Close() error
}

// MarshalCheckpoint encodes a checkpoint for storage backends.
func MarshalCheckpoint(c *Checkpoint) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal checkpoint: %w", err)
	}
	return data, nil
}

// UnmarshalCheckpoint decodes a checkpoint written by MarshalCheckpoint.
func UnmarshalCheckpoint(data []byte) (*Checkpoint, error) {
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	if c.State == nil {
		c.State = NewState()
	}
	return &c, nil
}
