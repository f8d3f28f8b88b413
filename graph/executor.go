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
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"trpc.group/trpc-go/fptshop-assistant/dialog"
	itelemetry "trpc.group/trpc-go/fptshop-assistant/internal/telemetry"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/trace"
)

// DefaultMaxSteps is the default step limit of a single run.
const DefaultMaxSteps = 100

// Executor executes a graph against per-thread state.
type Executor struct {
	graph    *Graph
	saver    CheckpointSaver
	maxSteps int
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*ExecutorOptions)

// ExecutorOptions contains configuration options for creating an Executor.
type ExecutorOptions struct {
	// MaxSteps is the maximum number of steps for graph execution.
	MaxSteps int
	// CheckpointSaver persists state at suspension and at the end of a run.
	CheckpointSaver CheckpointSaver
}

// WithMaxSteps sets the maximum number of steps for graph execution.
func WithMaxSteps(maxSteps int) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.MaxSteps = maxSteps
	}
}

// WithCheckpointSaver sets the checkpoint saver.
func WithCheckpointSaver(saver CheckpointSaver) ExecutorOption {
	return func(opts *ExecutorOptions) {
		opts.CheckpointSaver = saver
	}
}

// NewExecutor creates a new graph executor. A graph with interrupt nodes
// requires a checkpoint saver.
func NewExecutor(graph *Graph, opts ...ExecutorOption) (*Executor, error) {
	if graph == nil {
		return nil, errors.New("graph is nil")
	}
	if err := graph.validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	options := ExecutorOptions{MaxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(&options)
	}
	if options.CheckpointSaver == nil && graph.HasInterrupts() {
		return nil, errors.New("graph has interrupt nodes but no checkpoint saver")
	}
	return &Executor{
		graph:    graph,
		saver:    options.CheckpointSaver,
		maxSteps: options.MaxSteps,
	}, nil
}

// Graph returns the executed graph.
func (e *Executor) Graph() *Graph {
	return e.graph
}

// Checkpoint returns the latest checkpoint of the thread, or nil.
func (e *Executor) Checkpoint(ctx context.Context, threadID string) (*Checkpoint, error) {
	if e.saver == nil {
		return nil, nil
	}
	cp, err := e.saver.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrCheckpoint, threadID, err)
	}
	return cp, nil
}

// Invoke runs the graph from its entry with the given state.
//
// When execution reaches a node marked WithInterruptBefore, the tool calls
// of the newest assistant message are recorded as pending, a checkpoint is
// persisted and the returned error is an *InterruptError. The node does not
// run. The returned state is valid in both cases.
func (e *Executor) Invoke(ctx context.Context, threadID string, state *State) (*State, error) {
	if state == nil {
		state = NewState()
	}
	if state.Pending() {
		return state, ErrPendingInterrupt
	}
	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameExecuteGraph)
	defer span.End()
	span.SetAttributes(attribute.String(itelemetry.KeyThreadID, threadID))

	run := &execution{threadID: threadID, state: state.Clone()}
	next, err := e.selectNextNode(ctx, run.state, Start)
	if err != nil {
		return run.state, err
	}
	return e.run(ctx, run, next)
}

// Resume continues a suspended thread.
func (e *Executor) Resume(ctx context.Context, threadID string, cmd *ResumeCommand) (*State, error) {
	if cmd == nil {
		cmd = NewResumeCommand()
	}
	ctx, span := trace.Tracer.Start(ctx, itelemetry.SpanNameResumeGraph)
	defer span.End()
	span.SetAttributes(attribute.String(itelemetry.KeyThreadID, threadID))

	cp, err := e.Checkpoint(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if !cp.IsInterrupted() {
		return nil, ErrNoInterrupt
	}
	pending := cp.State.PendingToolCalls
	run := &execution{threadID: threadID, state: cp.State.Clone(), step: cp.Step}
	run.state.PendingToolCalls = nil
	run.state.Apply(cmd.Update)

	next, approved := cmd.GoTo, cmd.GoTo == ""
	if approved {
		next = cp.Next
	}
	if _, ok := e.graph.Node(next); !ok {
		// The graph changed since the thread suspended.
		log.Warnf("graph: thread %s cannot resume at %s, restarting from the entry", threadID, next)
		if approved {
			stale := fmt.Errorf("%w: %s", ErrStaleInterrupt, next)
			msgs := make([]model.Message, 0, len(pending))
			for _, call := range pending {
				msgs = append(msgs, model.NewToolMessage(call.ID, call.Function.Name, ErrorContent(call, stale)))
			}
			run.state.Apply(&Update{Messages: msgs})
		}
		run.state.DialogStack = dialog.New()
		approved = false
		if next, err = e.selectNextNode(ctx, run.state, Start); err != nil {
			return run.state, err
		}
	}
	if approved {
		run.approved = next
	} else if err := e.put(ctx, NewCheckpoint(threadID, run.state, next, run.step)); err != nil {
		// The pending batch is answered; a failure later in the run must not
		// bring the confirmation back.
		return run.state, err
	}
	log.Debugf("graph: resuming thread %s at %s (interrupted at %s)", threadID, next, cp.Next)
	return e.run(ctx, run, next)
}

// execution is the bookkeeping of one Invoke or Resume call.
type execution struct {
	threadID string
	state    *State
	step     int
	path     []string
	// approved is the interrupted node allowed to run once without suspending.
	approved string
}

func (e *Executor) run(ctx context.Context, run *execution, currentNodeID string) (*State, error) {
	var stepCount int
	for {
		select {
		case <-ctx.Done():
			return run.state, ctx.Err()
		default:
		}
		stepCount++
		if stepCount > e.maxSteps {
			return run.state, fmt.Errorf("%w (%d)", ErrMaxSteps, e.maxSteps)
		}
		run.step++
		if currentNodeID == End {
			if err := e.put(ctx, NewCheckpoint(run.threadID, run.state, "", run.step)); err != nil {
				return run.state, err
			}
			return run.state, nil
		}
		node, exists := e.graph.Node(currentNodeID)
		if !exists {
			return run.state, fmt.Errorf("node %s not found", currentNodeID)
		}
		if node.interruptBefore && run.approved != node.ID {
			return run.state, e.suspend(ctx, run, node)
		}
		approved := run.approved == node.ID
		run.approved = ""
		run.path = append(run.path, node.ID)

		nextNodeID, err := e.executeNode(ctx, run, node)
		if err != nil {
			return run.state, fmt.Errorf("error executing node %s: %w", node.ID, err)
		}
		if approved {
			// Record that the approved batch ran so that no later failure
			// can make it run again.
			if err := e.put(ctx, NewCheckpoint(run.threadID, run.state, nextNodeID, run.step)); err != nil {
				return run.state, err
			}
		}
		currentNodeID = nextNodeID
	}
}

// suspend records the pending batch and persists a resumable checkpoint.
func (e *Executor) suspend(ctx context.Context, run *execution, node *Node) error {
	run.state.PendingToolCalls = append([]model.ToolCall(nil), run.state.LastToolCalls()...)
	cp := NewCheckpoint(run.threadID, run.state, node.ID, run.step)
	if err := e.put(ctx, cp); err != nil {
		run.state.PendingToolCalls = nil
		return err
	}
	interrupt := NewInterruptError(node.ID, run.state.PendingToolCalls)
	interrupt.TaskID = cp.ID
	interrupt.Step = run.step
	interrupt.Path = append([]string(nil), run.path...)
	log.Infof("graph: thread %s suspended before %s with %d pending call(s)",
		run.threadID, node.ID, len(interrupt.Value))
	return interrupt
}

func (e *Executor) put(ctx context.Context, cp *Checkpoint) error {
	if e.saver == nil {
		return nil
	}
	if err := e.saver.Put(ctx, cp); err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrCheckpoint, cp.ThreadID, err)
	}
	return nil
}

// executeNode executes a single node and returns the next node ID.
func (e *Executor) executeNode(ctx context.Context, run *execution, node *Node) (string, error) {
	ctx, span := trace.Tracer.Start(ctx, itelemetry.NewExecuteNodeSpanName(node.ID))
	defer span.End()
	span.SetAttributes(
		attribute.String(itelemetry.KeyNodeID, node.ID),
		attribute.String("trpc.go.agent.node_name", node.Name),
		attribute.String("trpc.go.agent.node_description", node.Description),
		attribute.String(itelemetry.KeyThreadID, run.threadID),
		attribute.Int("trpc.go.agent.step", run.step),
	)
	log.Debugf("graph: thread %s step %d executing %s", run.threadID, run.step, node.ID)

	result, err := node.Function(ctx, run.state)
	if err != nil {
		itelemetry.TraceError(span, err)
		return "", fmt.Errorf("node function execution failed: %w", err)
	}
	switch r := result.(type) {
	case nil:
	case *Update:
		run.state.Apply(r)
	case *Command:
		run.state.Apply(r.Update)
		if r.GoTo != "" {
			span.SetAttributes(attribute.String("trpc.go.agent.next_node", r.GoTo))
			return r.GoTo, nil
		}
	default:
		return "", fmt.Errorf("node function returned invalid result type: %T", result)
	}
	nextNode, err := e.selectNextNode(ctx, run.state, node.ID)
	if err == nil {
		span.SetAttributes(attribute.String("trpc.go.agent.next_node", nextNode))
	}
	return nextNode, err
}

// selectNextNode selects the next node based on edges and conditional logic.
func (e *Executor) selectNextNode(ctx context.Context, state *State, currentNodeID string) (string, error) {
	// Check for conditional edges first.
	if condEdge, exists := e.graph.ConditionalEdge(currentNodeID); exists {
		conditionResult, err := condEdge.Condition(ctx, state)
		if err != nil {
			return "", fmt.Errorf("conditional edge evaluation failed: %w", err)
		}
		if nextNode, exists := condEdge.PathMap[conditionResult]; exists {
			return nextNode, nil
		}
		return "", fmt.Errorf("condition result %s not found in path map", conditionResult)
	}
	edges := e.graph.Edges(currentNodeID)
	if len(edges) == 0 {
		if currentNodeID == Start {
			return "", errors.New("no entry point found")
		}
		// No outgoing edges, assume we should go to End.
		return End, nil
	}
	return edges[0].To, nil
}
