//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/confirm"
	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/inmemory"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/model/mock"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/function"
	"trpc.group/trpc-go/fptshop-assistant/tool/transfer"
)

type orderArgs struct {
	OrderID string `json:"order_id,omitempty"`
	UserID  string `json:"user_id"`
}

// spy records every invocation of a tool.
type spy struct {
	mu    sync.Mutex
	calls []orderArgs
	err   error
}

func (s *spy) fn(_ context.Context, a orderArgs) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, a)
	if s.err != nil {
		return "", s.err
	}
	return fmt.Sprintf("ok %s for %s", a.OrderID, a.UserID), nil
}

func (s *spy) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fixture struct {
	runner *Runner
	llm    *mock.Model
	saver  graph.CheckpointSaver
	reg    *tool.Registry
	cancel *spy
	list   *spy
	get    *spy
	track  *spy
}

func newFixture(t *testing.T, steps ...mock.Step) *fixture {
	t.Helper()
	f := &fixture{
		llm:    mock.New(steps...),
		saver:  inmemory.NewSaver(),
		reg:    tool.NewRegistry(),
		cancel: &spy{},
		list:   &spy{},
		get:    &spy{},
		track:  &spy{err: errors.New("carrier API timeout")},
	}
	require.NoError(t, f.reg.Register(function.NewFunctionTool(f.list.fn, function.WithName("list_orders")), tool.Safe))
	require.NoError(t, f.reg.Register(function.NewFunctionTool(f.get.fn, function.WithName("get_order")), tool.Safe))
	require.NoError(t, f.reg.Register(function.NewFunctionTool(f.track.fn, function.WithName("track_order")), tool.Safe))
	require.NoError(t, f.reg.Register(function.NewFunctionTool(f.cancel.fn, function.WithName("cancel_order")), tool.Sensitive))

	g, err := graph.Build(graph.BuildConfig{
		Model:    f.llm,
		Registry: f.reg,
		Primary:  graph.ScopeDescriptor{Instruction: "You are the FPT Shop host assistant."},
		Scopes: []graph.ScopeDescriptor{{
			Name:           dialog.Shop,
			Description:    "orders and products",
			Instruction:    "You are the FPT Shop shopping assistant.",
			SafeTools:      []string{"list_orders", "get_order", "track_order"},
			SensitiveTools: []string{"cancel_order"},
		}},
	})
	require.NoError(t, err)
	f.runner, err = NewRunner(g, f.saver, WithSensitivity(f.reg.IsSensitive))
	require.NoError(t, err)
	return f
}

var alice = AuthContext{UserID: "u1", Email: "alice@example.com"}

func transferToShop(id, request string) model.ToolCall {
	return mock.Call(id, transfer.Name(dialog.Shop), fmt.Sprintf(`{"request":%q}`, request))
}

func (f *fixture) run(t *testing.T, thread, text string) *TurnResult {
	t.Helper()
	res, err := f.runner.Run(context.Background(), thread, text, alice)
	require.NoError(t, err)
	return res
}

func (f *fixture) state(t *testing.T, thread string) *graph.State {
	t.Helper()
	s, err := f.runner.State(context.Background(), thread)
	require.NoError(t, err)
	return s
}

func TestScenariosABC(t *testing.T) {
	f := newFixture(t,
		mock.Calls(transferToShop("t1", "cancel order ORDER_abc123")),
		mock.Calls(mock.Call("c1", "cancel_order", `{"order_id":"ORDER_abc123","user_id":"mallory"}`)),
		mock.Reply("Your order ORDER_abc123 has been cancelled."),
	)

	// A: the sensitive call suspends the turn.
	res := f.run(t, "t1", "cancel order ORDER_abc123")
	assert.Equal(t, KindConfirmationRequired, res.Kind)
	assert.Equal(t, "cancel_order", res.ToolName)
	assert.Equal(t, map[string]any{"order_id": "ORDER_abc123", "user_id": "u1"}, res.ToolArgs)
	assert.Equal(t, dialog.Shop, res.Scope)
	assert.Zero(t, f.cancel.count())

	// B: approval runs the call exactly once.
	res = f.run(t, "t1", "y")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, "Your order ORDER_abc123 has been cancelled.", res.Text)
	require.Equal(t, 1, f.cancel.count())
	assert.Equal(t, orderArgs{OrderID: "ORDER_abc123", UserID: "u1"}, f.cancel.calls[0])
	assert.False(t, f.state(t, "t1").Pending())

	// C: a fresh suspension answered with feedback never runs the call.
	f.llm.Push(
		mock.Calls(mock.Call("c2", "cancel_order", `{"order_id":"ORDER_abc123"}`)),
		mock.Step{Respond: func(req *model.Request) model.Message {
			last := req.Messages[len(req.Messages)-1]
			if last.Role == model.RoleTool && strings.HasPrefix(last.Content, "API call denied by user") {
				return model.NewAssistantMessage("No problem, I kept your order ORDER_abc123.")
			}
			return model.NewAssistantMessage("unexpected")
		}},
	)
	res = f.run(t, "t1", "cancel order ORDER_abc123")
	require.Equal(t, KindConfirmationRequired, res.Kind)
	res = f.run(t, "t1", "actually keep it")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, "No problem, I kept your order ORDER_abc123.", res.Text)
	assert.Equal(t, 1, f.cancel.count())

	s := f.state(t, "t1")
	assert.False(t, s.Pending())
	denial := s.Messages[len(s.Messages)-2]
	assert.Equal(t, "c2", denial.ToolID)
	assert.Equal(t, confirm.DenialContent("actually keep it"), denial.Content)
	for _, m := range s.Messages {
		assert.NotEqual(t, "actually keep it", m.Content, "the answer is not a user message")
	}
}

func TestScenarioDTransferAndLeave(t *testing.T) {
	f := newFixture(t,
		mock.Calls(transferToShop("t1", "route to shop assistant")),
		mock.Calls(mock.Call("l1", transfer.LeaveToolName, `{"cancel":false,"reason":"user wants the host"}`)),
		mock.Reply("I'm back. How else can I help?"),
	)
	res := f.run(t, "t2", "route me to the shop assistant")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, dialog.Primary, res.Scope)

	s := f.state(t, "t2")
	assert.Equal(t, 1, s.DialogStack.Depth())
	assert.Equal(t, dialog.Primary, s.DialogStack.Top())
}

func TestSuspendBeforeMutate(t *testing.T) {
	// P2 for histories already inside the shop scope.
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		thread := fmt.Sprintf("p2-%d", i)
		f.llm.Push(
			mock.Calls(transferToShop("t", "cancel")),
			mock.Calls(mock.Call(fmt.Sprintf("c%d", i), "cancel_order", fmt.Sprintf(`{"order_id":"ORDER_%d"}`, i))),
		)
		res := f.run(t, thread, "cancel my order")
		assert.Equal(t, KindConfirmationRequired, res.Kind)
		assert.True(t, f.state(t, thread).Pending())
	}
	assert.Zero(t, f.cancel.count())
}

func TestApprovalResumesExactlyOnce(t *testing.T) {
	// P3: a second "y" without a new suspension is an ordinary message.
	f := newFixture(t,
		mock.Calls(transferToShop("t", "cancel")),
		mock.Calls(mock.Call("c1", "cancel_order", `{"order_id":"ORDER_1"}`)),
		mock.Reply("Cancelled."),
		mock.Reply("Is there anything else?"),
	)
	f.run(t, "p3", "cancel ORDER_1")
	res := f.run(t, "p3", "y")
	assert.Equal(t, KindReply, res.Kind)
	res = f.run(t, "p3", "y")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, "Is there anything else?", res.Text)
	assert.Equal(t, 1, f.cancel.count())
	assert.Equal(t, "y", f.state(t, "p3").Messages[len(f.state(t, "p3").Messages)-2].Content)
}

func TestApprovedBatchSurvivesLaterFailure(t *testing.T) {
	f := newFixture(t,
		mock.Calls(transferToShop("t", "cancel")),
		mock.Calls(mock.Call("c1", "cancel_order", `{"order_id":"ORDER_1"}`)),
		mock.Fail(errors.New("llm down")),
		mock.Reply("Order cancelled."),
	)
	f.run(t, "p3b", "cancel ORDER_1")
	_, err := f.runner.Run(context.Background(), "p3b", "y", alice)
	assert.ErrorContains(t, err, "llm down")
	assert.Equal(t, 1, f.cancel.count())
	assert.False(t, f.state(t, "p3b").Pending(), "the approved batch is no longer pending")

	res := f.run(t, "p3b", "y")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, "Order cancelled.", res.Text)
	assert.Equal(t, 1, f.cancel.count())

	var results int
	for _, m := range f.state(t, "p3b").Messages {
		if m.Role == model.RoleTool && m.ToolID == "c1" {
			results++
		}
	}
	assert.Equal(t, 1, results)
}

func TestDenialSurvivesLaterFailure(t *testing.T) {
	f := newFixture(t,
		mock.Calls(transferToShop("t", "cancel")),
		mock.Calls(mock.Call("c1", "cancel_order", `{"order_id":"ORDER_1"}`)),
		mock.Fail(errors.New("llm down")),
		mock.Reply("Okay."),
	)
	f.run(t, "p4b", "cancel ORDER_1")
	_, err := f.runner.Run(context.Background(), "p4b", "n", alice)
	require.Error(t, err)
	assert.False(t, f.state(t, "p4b").Pending())

	res := f.run(t, "p4b", "y")
	assert.Equal(t, KindReply, res.Kind)
	assert.Zero(t, f.cancel.count(), "a later y cannot approve a denied batch")
}

func TestResumeAfterScopeRemoved(t *testing.T) {
	f := newFixture(t,
		mock.Calls(transferToShop("t", "cancel")),
		mock.Calls(mock.Call("c1", "cancel_order", `{"order_id":"ORDER_1"}`)),
	)
	res := f.run(t, "stale", "cancel ORDER_1")
	require.Equal(t, KindConfirmationRequired, res.Kind)

	// Redeploy without the shop scope over the same store.
	llm := mock.New(mock.Reply("Orders are unavailable right now."), mock.Reply("Hello!"))
	g, err := graph.Build(graph.BuildConfig{
		Model:    llm,
		Registry: tool.NewRegistry(),
		Primary:  graph.ScopeDescriptor{Instruction: "You are the FPT Shop host assistant."},
	})
	require.NoError(t, err)
	r, err := NewRunner(g, f.saver)
	require.NoError(t, err)

	res, err = r.Run(context.Background(), "stale", "y", alice)
	require.NoError(t, err)
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, dialog.Primary, res.Scope)
	assert.Zero(t, f.cancel.count())

	s, err := r.State(context.Background(), "stale")
	require.NoError(t, err)
	assert.False(t, s.Pending())
	assert.Equal(t, 1, s.DialogStack.Depth())
	var failed bool
	for _, m := range s.Messages {
		if m.Role == model.RoleTool && m.ToolID == "c1" {
			failed = strings.Contains(m.Content, graph.ErrStaleInterrupt.Error())
		}
	}
	assert.True(t, failed, "the pending call is answered with an error result")

	res, err = r.Run(context.Background(), "stale", "hello", alice)
	require.NoError(t, err)
	assert.Equal(t, "Hello!", res.Text)
}

func TestDenialNeverInvokes(t *testing.T) {
	// P4: only the literal "y" approves.
	for _, answer := range []string{"n", "yes", "Yes please", "ok", ""} {
		t.Run(fmt.Sprintf("%q", answer), func(t *testing.T) {
			f := newFixture(t,
				mock.Calls(transferToShop("t", "cancel")),
				mock.Calls(mock.Call("c1", "cancel_order", `{"order_id":"ORDER_1"}`)),
				mock.Reply("Okay, I won't cancel it."),
			)
			f.run(t, "p4", "cancel ORDER_1")
			res := f.run(t, "p4", answer)
			assert.Equal(t, KindReply, res.Kind)
			assert.Zero(t, f.cancel.count())

			var denied bool
			for _, m := range f.state(t, "p4").Messages {
				if m.Role == model.RoleTool && m.ToolID == "c1" {
					denied = m.Content == confirm.DenialContent(answer)
				}
			}
			assert.True(t, denied, "denial tool result references the original call id")
		})
	}
}

func TestBatchFaultIsolation(t *testing.T) {
	// P6: the failing middle call is answered with an error result.
	f := newFixture(t,
		mock.Calls(transferToShop("t", "where are my orders")),
		mock.Calls(
			mock.Call("a", "list_orders", `{}`),
			mock.Call("b", "track_order", `{"order_id":"ORDER_1"}`),
			mock.Call("c", "get_order", `{"order_id":"ORDER_1"}`),
		),
		mock.Reply("Tracking is unavailable right now, but ORDER_1 is confirmed."),
	)
	res := f.run(t, "p6", "where are my orders")
	assert.Equal(t, KindReply, res.Kind)

	s := f.state(t, "p6")
	results := s.Messages[len(s.Messages)-4 : len(s.Messages)-1]
	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, model.RoleTool, results[i].Role)
		assert.Equal(t, id, results[i].ToolID)
	}
	assert.Equal(t, "ok  for u1", results[0].Content)
	assert.Contains(t, results[1].Content, "carrier API timeout")
	assert.Equal(t, "ok ORDER_1 for u1", results[2].Content)
}

func TestMixedBatchSuspendsWholly(t *testing.T) {
	// P7
	f := newFixture(t,
		mock.Calls(transferToShop("t", "cancel")),
		mock.Calls(
			mock.Call("a", "list_orders", `{}`),
			mock.Call("b", "cancel_order", `{"order_id":"ORDER_1"}`),
		),
		mock.Reply("Done."),
	)
	res := f.run(t, "p7", "cancel my latest order")
	require.Equal(t, KindConfirmationRequired, res.Kind)
	assert.Equal(t, "cancel_order", res.ToolName, "the sensitive call is shown")
	require.Len(t, res.ToolCalls, 2)
	assert.Zero(t, f.list.count())
	assert.Zero(t, f.cancel.count())

	f.run(t, "p7", "y")
	assert.Equal(t, 1, f.list.count())
	assert.Equal(t, 1, f.cancel.count())
}

func TestPartitionCoversScopeTools(t *testing.T) {
	// P1
	f := newFixture(t)
	names := []string{"list_orders", "get_order", "track_order", "cancel_order", transfer.LeaveToolName}
	safe, sensitive, err := f.reg.Partition(names...)
	require.NoError(t, err)
	assert.Len(t, append(safe, sensitive...), len(names))
	assert.Equal(t, []string{"cancel_order"}, sensitive)
}

func TestDegenerateOutputFallsBack(t *testing.T) {
	f := newFixture(t, mock.Degenerate(), mock.Degenerate(), mock.Degenerate())
	res := f.run(t, "d", "hello")
	assert.Equal(t, KindReply, res.Kind)
	assert.Equal(t, graph.FallbackReply, res.Text)
}

type brokenSaver struct{ graph.CheckpointSaver }

func (brokenSaver) Get(context.Context, string) (*graph.Checkpoint, error) {
	return nil, errors.New("connection refused")
}

func TestInfrastructureFailuresPropagate(t *testing.T) {
	f := newFixture(t, mock.Fail(errors.New("model unavailable")))
	_, err := f.runner.Run(context.Background(), "e", "hello", alice)
	assert.ErrorContains(t, err, "model unavailable")

	r, err := NewRunner(f.runner.Graph(), brokenSaver{inmemory.NewSaver()})
	require.NoError(t, err)
	_, err = r.Run(context.Background(), "e", "hello", alice)
	assert.ErrorIs(t, err, graph.ErrCheckpoint)

	_, err = f.runner.Run(context.Background(), "", "hello", alice)
	assert.ErrorIs(t, err, ErrEmptyThreadID)
}

func TestStateAndReset(t *testing.T) {
	f := newFixture(t, mock.Reply("hi"))
	_, err := f.runner.State(context.Background(), "r")
	assert.ErrorIs(t, err, ErrThreadNotFound)

	f.run(t, "r", "hello")
	s := f.state(t, "r")
	assert.Equal(t, graph.Identity{UserID: "u1", Email: "alice@example.com"}, s.Auth)
	require.NoError(t, f.runner.Reset(context.Background(), "r"))
	_, err = f.runner.State(context.Background(), "r")
	assert.ErrorIs(t, err, ErrThreadNotFound)
}

func TestSameThreadTurnsAreSerialized(t *testing.T) {
	f := newFixture(t)
	const turns = 8
	for i := 0; i < turns; i++ {
		f.llm.Push(mock.Reply("ack"))
	}
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.runner.Run(context.Background(), "same", fmt.Sprintf("msg %d", i), alice)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.Len(t, f.state(t, "same").Messages, 2*turns, "no turn overwrote another")
	assert.Empty(t, f.runner.locks.m)
}

func TestDecodeArgs(t *testing.T) {
	assert.Equal(t, map[string]any{}, decodeArgs(nil))
	assert.Equal(t, map[string]any{"raw": "{oops"}, decodeArgs([]byte("{oops")))
	assert.Equal(t, map[string]any{"raw": "null"}, decodeArgs([]byte("null")))
	assert.Equal(t, map[string]any{"a": 1.0}, decodeArgs([]byte(`{"a":1}`)))
}
