//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package inmemory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/internal/savertest"
	"trpc.group/trpc-go/fptshop-assistant/model"
)

func TestSaverContract(t *testing.T) {
	savertest.Run(t, NewSaver())
}

func TestSaverStoresCopies(t *testing.T) {
	ctx := context.Background()
	s := NewSaver()
	state := savertest.SuspendedState()
	cp := graph.NewCheckpoint("t1", state, "sensitive_tools_shop", 1)
	require.NoError(t, s.Put(ctx, cp))

	cp.State.Messages = append(cp.State.Messages, model.NewUserMessage("mutated"))
	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, got.State.Messages, 2)

	got.State.DialogStack.Pop()
	again, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, again.State.DialogStack.Depth())
}

func TestSaverRejectsMissingThread(t *testing.T) {
	assert.Error(t, NewSaver().Put(context.Background(), &graph.Checkpoint{}))
}
