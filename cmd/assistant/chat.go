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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"trpc.group/trpc-go/fptshop-assistant/runner"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	var (
		threadID string
		auth     runner.AuthContext
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the assistant on stdin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.build(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if threadID == "" {
				threadID = uuid.NewString()
			}
			return repl(cmd.Context(), a.Runner, threadID, auth, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "Thread to continue, a new one by default")
	cmd.Flags().StringVar(&auth.UserID, "user", "demo-user", "Authenticated user id")
	cmd.Flags().StringVar(&auth.Email, "email", "", "Authenticated user email")
	return cmd
}

type turnRunner interface {
	Run(ctx context.Context, threadID, text string, auth runner.AuthContext) (*runner.TurnResult, error)
	Reset(ctx context.Context, threadID string) error
}

// repl reads one message per line. /reset forgets the thread and /quit ends
// the session.
func repl(ctx context.Context, r turnRunner, threadID string, auth runner.AuthContext, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Thread %s. Type /reset to start over, /quit to exit.\n", threadID)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := r.Reset(ctx, threadID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Conversation reset.")
			continue
		}
		res, err := r.Run(ctx, threadID, line, auth)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, render(res))
	}
}

func render(res *runner.TurnResult) string {
	if res.Kind == runner.KindConfirmationRequired {
		args, err := json.Marshal(res.ToolArgs)
		if err != nil {
			args = []byte("{}")
		}
		return fmt.Sprintf("Approve %s(%s)? [y/N]", res.ToolName, args)
	}
	return fmt.Sprintf("[%s] %s", res.Scope, res.Text)
}
