//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package badger

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/internal/savertest"
)

func TestBadgerSaverContract(t *testing.T) {
	s, err := Open("")
	require.NoError(t, err)
	defer s.Close()
	savertest.Run(t, s)
}

func TestBadgerSaverOnDisk(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir)
	require.NoError(t, err)
	cp := graph.NewCheckpoint("t1", savertest.SuspendedState(), "sensitive_tools_shop", 4)
	require.NoError(t, s.Put(ctx, cp))
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, cp.ID, got.ID)
	assert.True(t, got.IsInterrupted())
}

func TestBadgerSaverSharedDB(t *testing.T) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	require.NoError(t, err)
	defer db.Close()

	s, err := NewSaver(db)
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), graph.NewCheckpoint("t1", graph.NewState(), "", 1)))
	require.NoError(t, s.Close())

	// The shared DB stays usable after the saver is closed.
	got, err := s.Get(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotNil(t, got)
}
