//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Command assistant runs the FPT Shop assistant.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"trpc.group/trpc-go/fptshop-assistant/config"
	"trpc.group/trpc-go/fptshop-assistant/internal/app"
	"trpc.group/trpc-go/fptshop-assistant/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	provider   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "assistant",
		Short:         "FPT Shop multi-scope customer assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.provider, "provider", "", "Override the model provider (openai, anthropic, gemini, mock)")

	root.AddCommand(
		newServeCmd(flags),
		newChatCmd(flags),
		newGraphCmd(flags),
	)
	return root
}

func (f *rootFlags) load() (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.provider != "" {
		cfg.Model.Provider = f.provider
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (f *rootFlags) build(ctx context.Context) (*app.App, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	log.SetOutput(cfg.Log.Format, os.Stderr)
	return app.New(ctx, cfg)
}
