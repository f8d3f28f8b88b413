//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package graph provides the conversation state machine: a graph of agent,
// routing and tool nodes with interrupt-before-node and checkpoint resume.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Virtual node identifiers.
const (
	// Start is the source of entry edges.
	Start = "__start__"
	// End terminates the turn.
	End = "__end__"
)

var (
	// ErrCheckpoint wraps every checkpoint store failure. It is fatal to the turn.
	ErrCheckpoint = errors.New("graph: checkpoint store failure")
	// ErrMaxSteps is returned when a run exceeds the executor's step limit.
	ErrMaxSteps = errors.New("graph: maximum execution steps exceeded")
	// ErrNoInterrupt is returned when resuming a thread that is not suspended.
	ErrNoInterrupt = errors.New("graph: thread has no pending interrupt")
	// ErrPendingInterrupt is returned when invoking a thread that is suspended.
	ErrPendingInterrupt = errors.New("graph: thread is awaiting confirmation")
	// ErrStaleInterrupt is reported to the model for pending calls whose
	// tools node no longer exists.
	ErrStaleInterrupt = errors.New("graph: interrupted node no longer exists")
)

// NodeFunc runs a node. It returns an *Update, a *Command for combined
// update and routing, or nil.
type NodeFunc func(ctx context.Context, state *State) (any, error)

// ConditionalFunc picks the next branch from the state.
type ConditionalFunc func(ctx context.Context, state *State) (string, error)

// Node is a vertex of the graph.
type Node struct {
	ID          string
	Name        string
	Description string
	Function    NodeFunc

	interruptBefore bool
}

// InterruptBefore reports whether execution suspends before the node runs.
func (n *Node) InterruptBefore() bool {
	return n.interruptBefore
}

// Edge is an unconditional transition.
type Edge struct {
	From string
	To   string
}

// ConditionalEdge routes from a node through Condition. PathMap maps each
// branch name to its target node; an unmapped branch fails the run.
type ConditionalEdge struct {
	From      string
	Condition ConditionalFunc
	PathMap   map[string]string
}

// Command combines a state update with an explicit next node.
type Command struct {
	Update *Update
	GoTo   string
}

// Graph is the compiled structure produced by StateGraph.Compile. It is
// never modified afterwards and is safe for concurrent executors.
type Graph struct {
	nodes            map[string]*Node
	edges            map[string][]*Edge
	conditionalEdges map[string]*ConditionalEdge
	entryPoint       string
}

// Node returns a node by ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeIDs returns the IDs of all nodes in sorted order.
func (g *Graph) NodeIDs() []string {
	return sortedKeys(g.nodes)
}

// Edges returns the unconditional edges leaving a node.
func (g *Graph) Edges(nodeID string) []*Edge {
	return g.edges[nodeID]
}

// ConditionalEdge returns the conditional edge leaving a node.
func (g *Graph) ConditionalEdge(nodeID string) (*ConditionalEdge, bool) {
	ce, ok := g.conditionalEdges[nodeID]
	return ce, ok
}

// EntryPoint returns the static entry node, or "" when entry is conditional.
func (g *Graph) EntryPoint() string {
	return g.entryPoint
}

// HasInterrupts reports whether any node suspends before running.
func (g *Graph) HasInterrupts() bool {
	for _, n := range g.nodes {
		if n.interruptBefore {
			return true
		}
	}
	return false
}

func (g *Graph) validate() error {
	if _, ok := g.conditionalEdges[Start]; !ok && g.entryPoint == "" {
		return errors.New("graph must have an entry point")
	}
	if g.entryPoint != "" {
		if _, ok := g.nodes[g.entryPoint]; !ok {
			return fmt.Errorf("entry point node %s does not exist", g.entryPoint)
		}
	}
	for id, n := range g.nodes {
		if n.Function == nil {
			return fmt.Errorf("node %s has no function", id)
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
