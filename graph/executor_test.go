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
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/model"
)

type memSaver struct {
	mu     sync.Mutex
	byID   map[string]*Checkpoint
	puts   int
	putErr error
	getErr error
}

func newMemSaver() *memSaver {
	return &memSaver{byID: make(map[string]*Checkpoint)}
}

func (s *memSaver) Get(_ context.Context, threadID string) (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.byID[threadID].Copy(), nil
}

func (s *memSaver) Put(_ context.Context, cp *Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.byID[cp.ThreadID] = cp.Copy()
	return nil
}

func (s *memSaver) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, threadID)
	return nil
}

func (s *memSaver) Close() error { return nil }

// confirmGraph is agent -> (danger | End), danger -> agent. The agent
// requests "delete" on its first call and answers afterwards.
func confirmGraph(t *testing.T, dangerRuns *int) *Graph {
	t.Helper()
	agent := func(_ context.Context, s *State) (any, error) {
		if _, ok := s.LastMessage(); ok && s.Messages[len(s.Messages)-1].Role == model.RoleUser {
			return &Update{Messages: []model.Message{assistantCalls(call("c1", "delete", `{}`))}}, nil
		}
		return &Update{Messages: []model.Message{model.NewAssistantMessage("finished")}}, nil
	}
	danger := func(_ context.Context, s *State) (any, error) {
		*dangerRuns++
		return &Update{Messages: []model.Message{model.NewToolMessage("c1", "delete", "deleted")}}, nil
	}
	g, err := NewStateGraph().
		AddNode("agent", agent).
		AddNode("danger", danger, WithInterruptBefore()).
		AddConditionalEdges("agent", func(_ context.Context, s *State) (string, error) {
			if len(s.LastToolCalls()) > 0 {
				return "danger", nil
			}
			return End, nil
		}, map[string]string{"danger": "danger", End: End}).
		AddEdge("danger", "agent").
		SetEntryPoint("agent").
		Compile()
	require.NoError(t, err)
	return g
}

func newConfirmExecutor(t *testing.T) (*Executor, *memSaver, *int) {
	t.Helper()
	runs := new(int)
	saver := newMemSaver()
	e, err := NewExecutor(confirmGraph(t, runs), WithCheckpointSaver(saver))
	require.NoError(t, err)
	return e, saver, runs
}

func userState(text string) *State {
	s := NewState()
	s.Messages = []model.Message{model.NewUserMessage(text)}
	return s
}

func TestExecutorInterruptsBeforeSensitiveNode(t *testing.T) {
	ctx := context.Background()
	e, saver, runs := newConfirmExecutor(t)

	state, err := e.Invoke(ctx, "t1", userState("delete it"))
	interrupt, ok := GetInterruptError(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "danger", interrupt.NodeID)
	require.Len(t, interrupt.Value, 1)
	assert.Equal(t, "delete", interrupt.Value[0].Function.Name)
	assert.Equal(t, []string{"agent"}, interrupt.Path)
	assert.Zero(t, *runs, "the sensitive node must not run before approval")
	assert.True(t, state.Pending())

	cp, err := e.Checkpoint(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, cp.IsInterrupted())
	assert.Equal(t, "danger", cp.Next)
	assert.Equal(t, interrupt.TaskID, cp.ID)
	assert.Equal(t, 1, saver.puts)

	_, err = e.Invoke(ctx, "t1", state)
	assert.ErrorIs(t, err, ErrPendingInterrupt)
}

func TestExecutorResumeApproved(t *testing.T) {
	ctx := context.Background()
	e, _, runs := newConfirmExecutor(t)
	_, err := e.Invoke(ctx, "t1", userState("delete it"))
	require.True(t, IsInterruptError(err))

	state, err := e.Resume(ctx, "t1", NewResumeCommand())
	require.NoError(t, err)
	assert.Equal(t, 1, *runs)
	assert.False(t, state.Pending())
	assert.Equal(t, "finished", state.LastReply())

	cp, err := e.Checkpoint(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, cp.IsInterrupted())
	assert.Empty(t, cp.Next)
	assert.Len(t, cp.State.Messages, 4)

	_, err = e.Resume(ctx, "t1", nil)
	assert.ErrorIs(t, err, ErrNoInterrupt)
}

func TestExecutorResumeDenied(t *testing.T) {
	ctx := context.Background()
	e, _, runs := newConfirmExecutor(t)
	_, err := e.Invoke(ctx, "t1", userState("delete it"))
	require.True(t, IsInterruptError(err))

	denial := &Update{Messages: []model.Message{model.NewToolMessage("c1", "delete", "denied by user")}}
	state, err := e.Resume(ctx, "t1", NewResumeCommand().WithUpdate(denial).WithGoTo("agent"))
	require.NoError(t, err)
	assert.Zero(t, *runs)
	assert.Equal(t, "finished", state.LastReply())
	assert.Equal(t, "denied by user", state.Messages[2].Content)
}

func TestExecutorResumeWithoutCheckpoint(t *testing.T) {
	e, _, _ := newConfirmExecutor(t)
	_, err := e.Resume(context.Background(), "unknown", nil)
	assert.ErrorIs(t, err, ErrNoInterrupt)
}

func TestExecutorCheckpointFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	e, saver, runs := newConfirmExecutor(t)
	saver.putErr = errors.New("disk full")

	state, err := e.Invoke(ctx, "t1", userState("delete it"))
	assert.ErrorIs(t, err, ErrCheckpoint)
	assert.False(t, IsInterruptError(err))
	assert.False(t, state.Pending(), "no suspension without a durable checkpoint")
	assert.Zero(t, *runs)

	saver.putErr = nil
	saver.getErr = errors.New("connection reset")
	_, err = e.Resume(ctx, "t1", nil)
	assert.ErrorIs(t, err, ErrCheckpoint)
}

func TestExecutorMaxSteps(t *testing.T) {
	loop := func(context.Context, *State) (any, error) { return nil, nil }
	g, err := NewStateGraph().
		AddNode("a", loop).
		AddNode("b", loop).
		AddEdge("a", "b").
		AddEdge("b", "a").
		SetEntryPoint("a").
		Compile()
	require.NoError(t, err)
	e, err := NewExecutor(g, WithMaxSteps(5))
	require.NoError(t, err)
	_, err = e.Invoke(context.Background(), "t", nil)
	assert.ErrorIs(t, err, ErrMaxSteps)
}

func TestExecutorCommandGoTo(t *testing.T) {
	g, err := NewStateGraph().
		AddNode("a", func(context.Context, *State) (any, error) {
			return &Command{Update: &Update{Fields: map[string]any{"via": "a"}}, GoTo: "c"}, nil
		}).
		AddNode("b", func(context.Context, *State) (any, error) {
			return nil, errors.New("must be skipped")
		}).
		AddNode("c", func(context.Context, *State) (any, error) {
			return &Update{Messages: []model.Message{model.NewAssistantMessage("from c")}}, nil
		}).
		AddEdge("a", "b").
		SetEntryPoint("a").
		Compile()
	require.NoError(t, err)
	e, err := NewExecutor(g)
	require.NoError(t, err)
	state, err := e.Invoke(context.Background(), "t", nil)
	require.NoError(t, err)
	assert.Equal(t, "from c", state.LastReply())
	assert.Equal(t, "a", state.Fields["via"])
}

func TestExecutorNodeErrors(t *testing.T) {
	boom := errors.New("boom")
	g := NewStateGraph().
		AddNode("a", func(context.Context, *State) (any, error) { return nil, boom }).
		SetEntryPoint("a").
		MustCompile()
	e, err := NewExecutor(g)
	require.NoError(t, err)
	_, err = e.Invoke(context.Background(), "t", nil)
	assert.ErrorIs(t, err, boom)

	g = NewStateGraph().
		AddNode("a", func(context.Context, *State) (any, error) { return 42, nil }).
		SetEntryPoint("a").
		MustCompile()
	e, err = NewExecutor(g)
	require.NoError(t, err)
	_, err = e.Invoke(context.Background(), "t", nil)
	assert.ErrorContains(t, err, "invalid result type")
}

func TestNewExecutorRequiresSaverForInterrupts(t *testing.T) {
	runs := 0
	_, err := NewExecutor(confirmGraph(t, &runs))
	assert.Error(t, err)
	_, err = NewExecutor(nil)
	assert.Error(t, err)
}

func TestExecutorContextCancelled(t *testing.T) {
	e, _, _ := newConfirmExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Invoke(ctx, "t1", userState("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
