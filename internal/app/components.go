//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	// Registers the sqlite3 database/sql driver.
	_ "github.com/mattn/go-sqlite3"

	"trpc.group/trpc-go/fptshop-assistant/config"
	"trpc.group/trpc-go/fptshop-assistant/graph"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/badger"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/inmemory"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/postgres"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/redis"
	"trpc.group/trpc-go/fptshop-assistant/graph/checkpoint/sqlite"
	"trpc.group/trpc-go/fptshop-assistant/knowledge"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source/dir"
	knowledgetool "trpc.group/trpc-go/fptshop-assistant/knowledge/tool"
	"trpc.group/trpc-go/fptshop-assistant/log"
	"trpc.group/trpc-go/fptshop-assistant/model"
	"trpc.group/trpc-go/fptshop-assistant/model/anthropic"
	"trpc.group/trpc-go/fptshop-assistant/model/gemini"
	"trpc.group/trpc-go/fptshop-assistant/model/mock"
	"trpc.group/trpc-go/fptshop-assistant/model/openai"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/metric"
	"trpc.group/trpc-go/fptshop-assistant/telemetry/trace"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

// Names of the knowledge search tools.
const (
	ToolLookupPolicy   = "lookup_policy"
	ToolSearchITGuides = "search_it_guides"
)

func newModel(ctx context.Context, cfg config.ModelConfig) (model.Model, error) {
	key := cfg.APIKey()
	switch cfg.Provider {
	case config.ProviderOpenAI:
		opts := []openai.Option{}
		if key != "" {
			opts = append(opts, openai.WithAPIKey(key))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		return openai.New(cfg.Name, opts...), nil
	case config.ProviderAnthropic:
		opts := []anthropic.Option{}
		if key != "" {
			opts = append(opts, anthropic.WithAPIKey(key))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		if cfg.MaxTokens > 0 {
			opts = append(opts, anthropic.WithMaxTokens(cfg.MaxTokens))
		}
		return anthropic.New(cfg.Name, opts...), nil
	case config.ProviderGemini:
		opts := []gemini.Option{}
		if key != "" {
			opts = append(opts, gemini.WithAPIKey(key))
		}
		if cfg.BaseURL != "" {
			opts = append(opts, gemini.WithBaseURL(cfg.BaseURL))
		}
		m, err := gemini.New(ctx, cfg.Name, opts...)
		if err != nil {
			return nil, fmt.Errorf("app: %w", err)
		}
		return m, nil
	case config.ProviderMock:
		return mock.NewEcho(), nil
	default:
		return nil, fmt.Errorf("app: unknown model provider %q", cfg.Provider)
	}
}

func newSaver(ctx context.Context, cfg config.CheckpointConfig) (graph.CheckpointSaver, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return inmemory.NewSaver(), nil
	case config.BackendSQLite:
		db, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("app: open sqlite %s: %w", cfg.DSN, err)
		}
		s, err := sqlite.NewSaver(db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("app: sqlite saver: %w", err)
		}
		return s, nil
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("app: postgres saver: %w", err)
		}
		return s, nil
	case config.BackendRedis:
		opts := []redis.Option{redis.WithTTL(cfg.TTL)}
		if cfg.KeyPrefix != "" {
			opts = append(opts, redis.WithKeyPrefix(cfg.KeyPrefix))
		}
		s, err := redis.Open(cfg.DSN, opts...)
		if err != nil {
			return nil, fmt.Errorf("app: redis saver: %w", err)
		}
		return s, nil
	case config.BackendBadger:
		s, err := badger.Open(cfg.DSN, badger.WithTTL(cfg.TTL))
		if err != nil {
			return nil, fmt.Errorf("app: badger saver: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("app: unknown checkpoint backend %q", cfg.Backend)
	}
}

// registerKnowledge loads the policy and IT guide bases and registers
// their search tools. Missing directories leave the base empty.
func (a *App) registerKnowledge(ctx context.Context) error {
	kc := a.Config.Knowledge
	var err error
	if a.Policies, err = loadKnowledge(ctx, "policies", kc, kc.Policies); err != nil {
		return err
	}
	if a.Guides, err = loadKnowledge(ctx, "guides", kc, kc.Guides); err != nil {
		return err
	}
	tools := []tool.Tool{
		knowledgetool.NewKnowledgeSearchTool(a.Policies,
			knowledgetool.WithToolName(ToolLookupPolicy),
			knowledgetool.WithToolDescription("Search FPT Shop policies on warranty, returns, delivery, "+
				"payment and membership. Use it before answering any policy question."),
			knowledgetool.WithMaxResults(kc.MaxResults),
		),
		knowledgetool.NewKnowledgeSearchTool(a.Guides,
			knowledgetool.WithToolName(ToolSearchITGuides),
			knowledgetool.WithToolDescription("Search IT support guides for phones, laptops and accessories "+
				"sold at FPT Shop. Describe the device and the symptom."),
			knowledgetool.WithMaxResults(kc.MaxResults),
		),
	}
	for _, t := range tools {
		if err := a.Registry.Register(t, tool.Safe); err != nil {
			return fmt.Errorf("app: register %s: %w", t.Declaration().Name, err)
		}
	}
	return nil
}

func loadKnowledge(ctx context.Context, name string, kc config.KnowledgeConfig,
	base config.KnowledgeBaseConfig) (*knowledge.BuiltinKnowledge, error) {
	var dirs []string
	for _, d := range base.Dirs {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			log.Warnf("app: knowledge %s: skipping missing directory %s", name, d)
			continue
		}
		dirs = append(dirs, d)
	}
	var sources []source.Source
	if len(dirs) > 0 {
		opts := []dir.Option{dir.WithName(name), dir.WithPatterns(base.Patterns...)}
		if kc.ChunkSize > 0 {
			opts = append(opts, dir.WithChunking(kc.ChunkSize, kc.ChunkOverlap))
		}
		sources = append(sources, dir.New(dirs, opts...))
	}
	kb := knowledge.New(knowledge.WithSources(sources...), knowledge.WithMaxResults(kc.MaxResults))
	if err := kb.Load(ctx); err != nil {
		return nil, fmt.Errorf("app: load knowledge %s: %w", name, err)
	}
	log.Infof("app: knowledge %s has %d chunks", name, kb.Len())
	return kb, nil
}

func (a *App) startTelemetry(ctx context.Context) error {
	tc := a.Config.Telemetry
	if tc.Traces.Enabled {
		opts := []trace.Option{}
		if tc.Traces.Endpoint != "" {
			opts = append(opts, trace.WithEndpoint(tc.Traces.Endpoint))
		}
		if tc.Traces.Protocol != "" {
			opts = append(opts, trace.WithProtocol(tc.Traces.Protocol))
		}
		clean, err := trace.Start(ctx, opts...)
		if err != nil {
			return fmt.Errorf("app: start tracing: %w", err)
		}
		a.closers = append(a.closers, clean)
	}
	if tc.Metrics.Enabled {
		opts := []metric.Option{}
		if tc.Metrics.Endpoint != "" {
			opts = append(opts, metric.WithEndpoint(tc.Metrics.Endpoint))
		}
		if tc.Metrics.Protocol != "" {
			opts = append(opts, metric.WithProtocol(tc.Metrics.Protocol))
		}
		clean, err := metric.Start(ctx, opts...)
		if err != nil {
			return fmt.Errorf("app: start metrics: %w", err)
		}
		a.closers = append(a.closers, clean)
	}
	return nil
}
