//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package app assembles the assistant from its configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"trpc.group/trpc-go/fptshop-assistant/config"
	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/knowledge"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/runner"
	"trpc.group/trpc-go/fptshop-assistant/shop"
	"trpc.group/trpc-go/fptshop-assistant/tool"
	"trpc.group/trpc-go/fptshop-assistant/tool/webfetch"
)

// App is a fully wired assistant.
type App struct {
	Config   *config.Config
	Model    model.Model
	Registry *tool.Registry
	Shop     *shop.Service
	Policies *knowledge.BuiltinKnowledge
	Guides   *knowledge.BuiltinKnowledge
	Graph    *graph.Graph
	Runner   *runner.Runner

	saver   graph.CheckpointSaver
	closers []func() error
}

// Option overrides a component built from the configuration.
type Option func(*options)

type options struct {
	model      model.Model
	saver      graph.CheckpointSaver
	catalog    shop.Catalog
	mailer     shop.Mailer
	httpClient *http.Client
	audit      func(AuditRecord)
}

// WithModel uses m instead of the configured provider.
func WithModel(m model.Model) Option {
	return func(o *options) { o.model = m }
}

// WithSaver uses s instead of the configured checkpoint backend. The App
// does not close it.
func WithSaver(s graph.CheckpointSaver) Option {
	return func(o *options) { o.saver = s }
}

// WithCatalog uses c as the product catalog.
func WithCatalog(c shop.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithMailer uses m for customer notifications.
func WithMailer(m shop.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// WithHTTPClient is used by fetch_url.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithAuditSink receives a record for every executed sensitive call.
func WithAuditSink(fn func(AuditRecord)) Option {
	return func(o *options) { o.audit = fn }
}

// New builds every component named by cfg. On failure the components
// built so far are released.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (_ *App, err error) {
	if cfg == nil {
		return nil, errors.New("app: config is nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	log.SetLevel(cfg.Log.Level)

	a := &App{Config: cfg, Registry: tool.NewRegistry()}
	defer func() {
		if err != nil {
			if cerr := a.Close(); cerr != nil {
				log.Warnf("app: release after failed start: %v", cerr)
			}
		}
	}()

	if err := a.startTelemetry(ctx); err != nil {
		return nil, err
	}

	a.Model = o.model
	if a.Model == nil {
		if a.Model, err = newModel(ctx, cfg.Model); err != nil {
			return nil, err
		}
	}

	a.saver = o.saver
	if a.saver == nil {
		if a.saver, err = newSaver(ctx, cfg.Checkpoint); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, a.saver.Close)
	}

	if err := a.registerKnowledge(ctx); err != nil {
		return nil, err
	}
	if err := a.registerShop(o); err != nil {
		return nil, err
	}
	if err := a.registerWebFetch(o); err != nil {
		return nil, err
	}

	if a.Graph, err = graph.Build(a.buildConfig(o)); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a.Runner, err = runner.NewRunner(a.Graph, a.saver,
		runner.WithConfig(cfg.Runner),
		runner.WithSensitivity(a.Registry.IsSensitive),
	)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	log.Infof("app: assistant ready with model %s, %d tools and %d scopes",
		a.Model.Info().Name, len(a.Registry.Names()), len(cfg.Scopes)+1)
	return a, nil
}

func (a *App) registerShop(o options) error {
	catalog := o.catalog
	if catalog == nil {
		mc := shop.NewMemoryCatalog()
		if a.Config.Shop.DemoCatalog {
			for _, p := range shop.DemoProducts() {
				mc.Put(p)
			}
		}
		catalog = mc
	}
	a.Shop = shop.NewService(catalog)
	if o.mailer != nil {
		a.Shop.Mailer = o.mailer
	}
	if err := a.Shop.Register(a.Registry); err != nil {
		return fmt.Errorf("app: register shop tools: %w", err)
	}
	return nil
}

func (a *App) registerWebFetch(o options) error {
	fc := a.Config.Tools.Fetch
	fetchOpts := []webfetch.Option{webfetch.WithTimeout(fc.Timeout)}
	if o.httpClient != nil {
		fetchOpts = append(fetchOpts, webfetch.WithHTTPClient(o.httpClient))
	}
	if fc.UserAgent != "" {
		fetchOpts = append(fetchOpts, webfetch.WithUserAgent(fc.UserAgent))
	}
	if fc.MaxChars > 0 {
		fetchOpts = append(fetchOpts, webfetch.WithMaxChars(fc.MaxChars))
	}
	if err := a.Registry.Register(webfetch.NewTool(fetchOpts...), tool.Safe); err != nil {
		return fmt.Errorf("app: register %s: %w", webfetch.Name, err)
	}
	return nil
}

func (a *App) buildConfig(o options) graph.BuildConfig {
	cfg := a.Config
	gen := model.GenerationConfig{}
	if cfg.Model.MaxTokens > 0 {
		gen.MaxTokens = &cfg.Model.MaxTokens
	}
	temperature := cfg.Model.Temperature
	gen.Temperature = &temperature

	scopes := make([]graph.ScopeDescriptor, 0, len(cfg.Scopes))
	for _, s := range cfg.Scopes {
		scopes = append(scopes, descriptor(s))
	}
	primary := descriptor(cfg.Primary)
	primary.Name = dialog.Primary
	return graph.BuildConfig{
		Model:    a.Model,
		Registry: a.Registry,
		Primary:  primary,
		Scopes:   scopes,
		AgentOptions: []graph.AgentNodeOption{
			graph.WithRetryPolicy(graph.WithSimpleRetry(cfg.Model.MaxAttempts)),
			graph.WithGenerationConfig(gen),
		},
		ToolsOptions: []graph.ToolsNodeOption{
			graph.WithToolConcurrency(cfg.Tools.Concurrency),
			graph.WithToolCallbacks(auditCallbacks(a.Registry, o.audit)),
		},
	}
}

func descriptor(s config.ScopeConfig) graph.ScopeDescriptor {
	return graph.ScopeDescriptor{
		Name:           s.Name,
		Description:    s.Description,
		Instruction:    s.Instruction,
		SafeTools:      s.SafeTools,
		SensitiveTools: s.SensitiveTools,
		ContextFields:  s.ContextFields,
	}
}

// Close releases the saver and the telemetry exporters.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
