//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/fptshop-assistant/graph"
)

func newGraphCmd(flags *rootFlags) *cobra.Command {
	var rankDir string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the conversation graph in Graphviz DOT",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Graph.WriteDOT(cmd.OutOrStdout(),
				graph.WithRankDir(rankDir),
				graph.WithGraphLabel("FPT Shop assistant"),
			)
		},
	}
	cmd.Flags().StringVar(&rankDir, "rankdir", "TB", "Graphviz rank direction (TB or LR)")
	return cmd
}
