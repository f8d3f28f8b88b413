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
	"fmt"
	"io"
	"strings"
)

const (
	// RankDirLR sets a left-to-right layout in Graphviz.
	RankDirLR = "LR"
	// RankDirTB sets a top-to-bottom layout in Graphviz.
	RankDirTB = "TB"
)

const (
	shapeBox     = "box"
	shapeOctagon = "octagon"
	shapeOval    = "oval"

	colorNodeFill      = "#e3f2fd"
	colorNodeBorder    = "#2196f3"
	colorConfirmFill   = "#fff3e0"
	colorConfirmBorder = "#ff9800"
	colorStartFill     = "#e1f5e1"
	colorStartBorder   = "#4caf50"
	colorEndFill       = "#ffe1e1"
	colorEndBorder     = "#f44336"

	colorConditionalEdge = "#999999"
)

// VizOptions configures DOT export.
type VizOptions struct {
	// RankDir sets DOT graph direction: "LR" (left-to-right) or "TB" (top-to-bottom).
	RankDir string
	// GraphLabel optionally labels the whole graph.
	GraphLabel string
}

// VizOption mutates VizOptions.
type VizOption func(*VizOptions)

// WithRankDir sets DOT graph direction. Valid values: "LR", "TB".
func WithRankDir(dir string) VizOption {
	return func(o *VizOptions) {
		if dir == RankDirLR || dir == RankDirTB {
			o.RankDir = dir
		}
	}
}

// WithGraphLabel sets an optional label for the graph.
func WithGraphLabel(label string) VizOption {
	return func(o *VizOptions) { o.GraphLabel = label }
}

// DOT returns a Graphviz DOT representation of the graph. Nodes that
// interrupt for confirmation are drawn as octagons and conditional edges are
// dashed and labeled by branch.
func (g *Graph) DOT(opts ...VizOption) string {
	o := &VizOptions{RankDir: RankDirLR}
	for _, fn := range opts {
		fn(o)
	}

	var b strings.Builder
	b.WriteString("digraph G {\n")
	fmt.Fprintf(&b, "  rankdir=%s;\n", o.RankDir)
	b.WriteString("  node [fontname=\"Helvetica\"];\n")
	if o.GraphLabel != "" {
		fmt.Fprintf(&b, "  label=\"%s\";\n  labelloc=t;\n", escapeLabel(o.GraphLabel))
	}
	fmt.Fprintf(&b, "  \"%s\" [label=\"start\", shape=%s, style=filled, fillcolor=\"%s\", color=\"%s\"];\n",
		Start, shapeOval, colorStartFill, colorStartBorder)
	fmt.Fprintf(&b, "  \"%s\" [label=\"finish\", shape=%s, style=filled, fillcolor=\"%s\", color=\"%s\"];\n",
		End, shapeOval, colorEndFill, colorEndBorder)

	for _, id := range sortedKeys(g.nodes) {
		n := g.nodes[id]
		shape, fill, color := shapeBox, colorNodeFill, colorNodeBorder
		if n.interruptBefore {
			shape, fill, color = shapeOctagon, colorConfirmFill, colorConfirmBorder
		}
		fmt.Fprintf(&b, "  \"%s\" [label=\"%s\", shape=%s, style=filled, fillcolor=\"%s\", color=\"%s\"];\n",
			escapeLabel(n.ID), escapeLabel(n.ID), shape, fill, color)
	}
	for _, from := range sortedKeys(g.edges) {
		for _, e := range g.edges[from] {
			fmt.Fprintf(&b, "  \"%s\" -> \"%s\";\n", escapeLabel(e.From), escapeLabel(e.To))
		}
	}
	for _, from := range sortedKeys(g.conditionalEdges) {
		ce := g.conditionalEdges[from]
		for _, k := range sortedKeys(ce.PathMap) {
			fmt.Fprintf(&b, "  \"%s\" -> \"%s\" [style=dashed, color=\"%s\", label=\"%s\"];\n",
				escapeLabel(from), escapeLabel(ce.PathMap[k]), colorConditionalEdge, escapeLabel(k))
		}
	}
	b.WriteString("}\n")
	return b.String()
}

// WriteDOT writes the DOT representation to the provided writer.
func (g *Graph) WriteDOT(w io.Writer, opts ...VizOption) error {
	_, err := io.WriteString(w, g.DOT(opts...))
	return err
}

// escapeLabel escapes label strings for DOT.
func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
