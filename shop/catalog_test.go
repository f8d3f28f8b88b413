//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(products []Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestMemoryCatalog_Search(t *testing.T) {
	c := NewMemoryCatalog(DemoProducts()...)
	ctx := context.Background()

	tests := []struct {
		name     string
		query    string
		maxPrice int64
		limit    int
		want     []string
	}{
		{name: "keyword ranks by match then price", query: "iphone 15 pro", limit: 5, want: []string{"IP15PM-256", "IP15-128", "APP2-USBC"}},
		{name: "accent insensitive", query: "dien thoai", maxPrice: 10000000, limit: 5, want: []string{"XRN13-256", "SSA55-128"}},
		{name: "price bound", query: "laptop", maxPrice: 20000000, limit: 5, want: []string{"ASTUF-F15"}},
		{name: "empty query lists cheapest", query: "", limit: 2, want: []string{"SAC-20W", "XRN13-256"}},
		{name: "no match", query: "tivi", limit: 5, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Search(ctx, tt.query, tt.maxPrice, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestMemoryCatalog_ReserveRelease(t *testing.T) {
	c := NewMemoryCatalog(Product{ID: "P1", Name: "Phone", Price: 100, Stock: 2})
	ctx := context.Background()

	p, err := c.Reserve(ctx, "P1", 2)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)

	_, err = c.Reserve(ctx, "P1", 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	require.NoError(t, c.Release(ctx, "P1", 1))
	p, err = c.Get(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock)

	_, err = c.Reserve(ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, c.Release(ctx, "nope", 1), ErrNotFound)
	_, err = c.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAppointments(t *testing.T) {
	b := NewMemoryAppointments("09:00", "10:00")
	ctx := context.Background()

	a, err := b.Book(ctx, Appointment{UserID: "u1", Date: "2030-01-02", Slot: "09:00"})
	require.NoError(t, err)
	assert.Equal(t, AppointmentBooked, a.Status)

	free, err := b.Available(ctx, "2030-01-02")
	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, free)

	_, err = b.Book(ctx, Appointment{UserID: "u2", Date: "2030-01-02", Slot: "09:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	_, err = b.Book(ctx, Appointment{UserID: "u2", Date: "2030-01-02", Slot: "23:00"})
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	_, err = b.Cancel(ctx, a.ID)
	require.NoError(t, err)
	free, _ = b.Available(ctx, "2030-01-02")
	assert.Equal(t, []string{"09:00", "10:00"}, free)
	_, err = b.Cancel(ctx, a.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}
