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
	"errors"
	"fmt"
)

// StateGraph builds a Graph:
//
//	g, err := NewStateGraph().
//	  AddNode("agent", agentFunc).
//	  AddNode("tools", toolsFunc, WithInterruptBefore()).
//	  AddConditionalEdges("agent", route, map[string]string{"tools": "tools", End: End}).
//	  AddEdge("tools", "agent").
//	  SetEntryPoint("agent").
//	  Compile()
//
// Each call checks its references against the nodes added so far; failures
// are collected and reported together by Compile.
type StateGraph struct {
	g    *Graph
	errs []error
}

// NewStateGraph creates a new graph builder.
func NewStateGraph() *StateGraph {
	return &StateGraph{g: &Graph{
		nodes:            make(map[string]*Node),
		edges:            make(map[string][]*Edge),
		conditionalEdges: make(map[string]*ConditionalEdge),
	}}
}

// Option configures a Node.
type Option func(*Node)

// WithName sets the display name of the node.
func WithName(name string) Option {
	return func(node *Node) { node.Name = name }
}

// WithDescription sets the description of the node.
func WithDescription(description string) Option {
	return func(node *Node) { node.Description = description }
}

// WithInterruptBefore suspends execution before the node runs. The executor
// persists a checkpoint and returns an *InterruptError instead of running it.
func WithInterruptBefore() Option {
	return func(node *Node) { node.interruptBefore = true }
}

func (sg *StateGraph) failf(format string, args ...any) *StateGraph {
	sg.errs = append(sg.errs, fmt.Errorf(format, args...))
	return sg
}

// known reports whether id names an added node or one of the allowed
// virtual nodes.
func (sg *StateGraph) known(id string, virtual string) bool {
	if id == virtual {
		return true
	}
	_, ok := sg.g.nodes[id]
	return ok
}

// AddNode adds a node with the given ID and function.
func (sg *StateGraph) AddNode(id string, function NodeFunc, opts ...Option) *StateGraph {
	switch {
	case id == "":
		return sg.failf("node ID cannot be empty")
	case id == Start || id == End:
		return sg.failf("node ID %s is reserved", id)
	case sg.known(id, ""):
		return sg.failf("node with ID %s already exists", id)
	}
	node := &Node{ID: id, Name: id, Function: function}
	for _, opt := range opts {
		opt(node)
	}
	sg.g.nodes[id] = node
	return sg
}

// AddEdge adds an unconditional edge between two nodes.
func (sg *StateGraph) AddEdge(from, to string) *StateGraph {
	switch {
	case from == "" || to == "":
		return sg.failf("edge from and to cannot be empty")
	case !sg.known(from, Start):
		return sg.failf("source node %s does not exist", from)
	case !sg.known(to, End):
		return sg.failf("target node %s does not exist", to)
	}
	sg.g.edges[from] = append(sg.g.edges[from], &Edge{From: from, To: to})
	return sg
}

// AddConditionalEdges routes from a node through condition. Use Start as
// from to choose the entry node dynamically.
func (sg *StateGraph) AddConditionalEdges(
	from string,
	condition ConditionalFunc,
	pathMap map[string]string,
) *StateGraph {
	switch {
	case from == "":
		return sg.failf("conditional edge from cannot be empty")
	case condition == nil:
		return sg.failf("conditional edge from %s has no condition", from)
	case !sg.known(from, Start):
		return sg.failf("source node %s does not exist", from)
	}
	for _, to := range sortedValues(pathMap) {
		if !sg.known(to, End) {
			return sg.failf("target node %s does not exist", to)
		}
	}
	sg.g.conditionalEdges[from] = &ConditionalEdge{From: from, Condition: condition, PathMap: pathMap}
	return sg
}

// SetEntryPoint makes nodeID the static entry node.
func (sg *StateGraph) SetEntryPoint(nodeID string) *StateGraph {
	if !sg.known(nodeID, "") {
		return sg.failf("entry point node %s does not exist", nodeID)
	}
	sg.g.entryPoint = nodeID
	return sg.AddEdge(Start, nodeID)
}

// SetConditionalEntryPoint chooses the entry node with condition.
func (sg *StateGraph) SetConditionalEntryPoint(condition ConditionalFunc, pathMap map[string]string) *StateGraph {
	return sg.AddConditionalEdges(Start, condition, pathMap)
}

// SetFinishPoint adds an edge from the node to End.
func (sg *StateGraph) SetFinishPoint(nodeID string) *StateGraph {
	return sg.AddEdge(nodeID, End)
}

// Compile validates the graph and returns it for execution. The builder
// must not be used afterwards.
func (sg *StateGraph) Compile() (*Graph, error) {
	err := errors.Join(sg.errs...)
	if err == nil {
		err = sg.g.validate()
	}
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	return sg.g, nil
}

// MustCompile compiles the graph or panics if invalid.
func (sg *StateGraph) MustCompile() *Graph {
	g, err := sg.Compile()
	if err != nil {
		panic(err)
	}
	return g
}

func sortedValues(m map[string]string) []string {
	vals := make([]string, 0, len(m))
	for _, k := range sortedKeys(m) {
		vals = append(vals, m[k])
	}
	return vals
}
