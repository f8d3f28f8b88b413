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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/config"
	"trpc.group/trpc-go/fptshop-assistant/dialog"
	"trpc.group/trpc-go/fptshop-assistant/model/mock"
	"trpc.group/trpc-go/fptshop-assistant/runner"
	"trpc.group/trpc-go/fptshop-assistant/shop"
	"trpc.group/trpc-go/fptshop-assistant/tool"
)

const warrantyPolicy = `# Warranty policy

## Phones

Phones bought at FPT Shop carry a 12 month manufacturer warranty.
Screen damage caused by drops is not covered.

## Laptops

Laptops carry a 24 month warranty at authorized service centers.
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	policies := filepath.Join(root, "policies")
	require.NoError(t, os.MkdirAll(policies, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(policies, "warranty.md"), []byte(warrantyPolicy), 0o644))

	cfg := config.Default()
	cfg.Model.Provider = config.ProviderMock
	cfg.Knowledge.Policies.Dirs = []string{policies}
	cfg.Knowledge.Guides.Dirs = []string{filepath.Join(root, "missing")}
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...Option) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

func TestNewRegistersEveryScopeTool(t *testing.T) {
	cfg := testConfig(t)
	a := newTestApp(t, cfg)

	for _, s := range append(cfg.Scopes, cfg.Primary) {
		for _, name := range s.SafeTools {
			assert.False(t, a.Registry.IsSensitive(name), name)
		}
		for _, name := range s.SensitiveTools {
			assert.True(t, a.Registry.IsSensitive(name), name)
		}
	}
	_, ok := a.Registry.Lookup("transfer_to_shop")
	assert.True(t, ok)
	assert.Equal(t, "mock-echo", a.Model.Info().Name)
	assert.Positive(t, a.Policies.Len())
	assert.Zero(t, a.Guides.Len(), "missing directories leave the base empty")
}

func TestLookupPolicyTool(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	e, ok := a.Registry.Lookup(ToolLookupPolicy)
	require.True(t, ok)
	assert.Equal(t, tool.Safe, e.Sensitivity)
	out, err := e.Tool.(tool.CallableTool).Call(context.Background(), []byte(`{"query":"bảo hành điện thoại warranty phones"}`))
	require.NoError(t, err)
	assert.Contains(t, toJSON(t, out), "12 month")
}

func TestEndToEndOrder(t *testing.T) {
	llm := mock.New(
		mock.Calls(mock.Call("t1", "transfer_to_shop", `{"request":"buy an iPhone 15"}`)),
		mock.Calls(mock.Call("s1", shop.ToolSearchProducts, `{"query":"iphone 15"}`)),
		mock.Reply("iPhone 15 128GB is in stock."),
		mock.Calls(mock.Call("p1", shop.ToolPlaceOrder, `{"product_id":"IP15-128","quantity":1,"user_id":"mallory"}`)),
		mock.Reply("Your order is placed."),
	)
	outbox := shop.NewOutbox()
	var audits []AuditRecord
	a := newTestApp(t, testConfig(t), WithModel(llm), WithMailer(outbox),
		WithAuditSink(func(r AuditRecord) { audits = append(audits, r) }))
	ctx := context.Background()
	auth := runner.AuthContext{UserID: "u1", Email: "an@example.com"}

	res, err := a.Runner.Run(ctx, "th1", "I want an iPhone 15", auth)
	require.NoError(t, err)
	assert.Equal(t, runner.KindReply, res.Kind)
	assert.Equal(t, dialog.Shop, res.Scope)
	state, err := a.Runner.State(ctx, "th1")
	require.NoError(t, err)
	assert.Contains(t, state.Fields, shop.FieldRecommendedProducts)

	res, err = a.Runner.Run(ctx, "th1", "order the 128GB one", auth)
	require.NoError(t, err)
	require.Equal(t, runner.KindConfirmationRequired, res.Kind)
	assert.Equal(t, shop.ToolPlaceOrder, res.ToolName)
	assert.Equal(t, "u1", res.ToolArgs["user_id"])
	orders, err := a.Shop.Orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, orders)

	res, err = a.Runner.Run(ctx, "th1", "y", auth)
	require.NoError(t, err)
	assert.Equal(t, "Your order is placed.", res.Text)
	orders, err = a.Shop.Orders.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, shop.OrderPlaced, orders[0].Status)
	mallory, err := a.Shop.Orders.ListByUser(ctx, "mallory")
	require.NoError(t, err)
	assert.Empty(t, mallory)
	require.Len(t, audits, 1, "only the approved sensitive call is audited")
	assert.Equal(t, AuditRecord{CallID: "p1", Tool: shop.ToolPlaceOrder, UserID: "u1"}, audits[0])
	require.Len(t, outbox.Sent(), 1)
	assert.Equal(t, "an@example.com", outbox.Sent()[0].To)
}

func TestCheckpointBackends(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.CheckpointConfig
	}{
		{"memory", config.CheckpointConfig{Backend: config.BackendMemory}},
		{"sqlite", config.CheckpointConfig{Backend: config.BackendSQLite, DSN: filepath.Join(t.TempDir(), "cp.db")}},
		{"badger", config.CheckpointConfig{Backend: config.BackendBadger, DSN: t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Checkpoint = tt.cfg
			a := newTestApp(t, cfg)

			ctx := context.Background()
			res, err := a.Runner.Run(ctx, "th", "xin chào", runner.AuthContext{UserID: "u1"})
			require.NoError(t, err)
			assert.Equal(t, "You said: xin chào", res.Text)
			state, err := a.Runner.State(ctx, "th")
			require.NoError(t, err)
			assert.Len(t, state.Messages, 2)
		})
	}
}

func TestNewFailures(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Scopes[0].SafeTools = append(cfg.Scopes[0].SafeTools, "refund_everything")
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, tool.ErrUnknownTool)

	// A failed start releases what it opened: badger locks its directory.
	dir := t.TempDir()
	cfg = testConfig(t)
	cfg.Checkpoint = config.CheckpointConfig{Backend: config.BackendBadger, DSN: dir}
	cfg.Scopes[0].SensitiveTools = append(cfg.Scopes[0].SensitiveTools, "refund_everything")
	a, err := New(context.Background(), cfg)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, tool.ErrUnknownTool)
	saver, err := newSaver(context.Background(), cfg.Checkpoint)
	require.NoError(t, err, "the first saver was closed")
	require.NoError(t, saver.Close())

	_, err = newModel(context.Background(), config.ModelConfig{Provider: "llama"})
	assert.Error(t, err)
	_, err = newSaver(context.Background(), config.CheckpointConfig{Backend: "etcd"})
	assert.Error(t, err)
}
