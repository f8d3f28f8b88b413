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
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/server/chat"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := flags.build(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warnf("assistant: close: %v", err)
				}
			}()

			sc := a.Config.Server
			if addr != "" {
				sc.Addr = addr
			}
			srv := chat.New(a.Runner,
				chat.WithCORSOrigins(sc.CORSOrigins...),
				chat.WithRateLimit(sc.RateLimit.RPS, sc.RateLimit.Burst),
			)
			httpServer := &http.Server{
				Addr:         sc.Addr,
				Handler:      srv.Handler(),
				ReadTimeout:  sc.ReadTimeout,
				WriteTimeout: sc.WriteTimeout,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				log.Infof("assistant: listening on %s", sc.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), sc.ShutdownTimeout)
				defer cancel()
				log.Infof("assistant: shutting down")
				return httpServer.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address, overrides server.addr")
	return cmd
}
