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
	"fmt"
	"sort"
	"sync"
)

// OrderStore persists orders.
type OrderStore interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, id string) (Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	SetStatus(ctx context.Context, id string, status OrderStatus) (Order, error)
}

// MemoryOrders is an OrderStore held in memory.
type MemoryOrders struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryOrders creates an order store seeded with orders.
func NewMemoryOrders(orders ...Order) *MemoryOrders {
	s := &MemoryOrders{orders: make(map[string]Order, len(orders))}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

// Create stores o, assigning an ID when it has none.
func (s *MemoryOrders) Create(_ context.Context, o Order) (Order, error) {
	if o.ID == "" {
		o.ID = newID("ORD")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; ok {
		return Order{}, fmt.Errorf("%w: order %s already exists", ErrInvalidState, o.ID)
	}
	s.orders[o.ID] = o
	return o, nil
}

// Get returns the order with the given ID.
func (s *MemoryOrders) Get(_ context.Context, id string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	return o, nil
}

// ListByUser returns the user's orders, newest first.
func (s *MemoryOrders) ListByUser(_ context.Context, userID string) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Order
	for _, o := range s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SetStatus updates the order's status.
func (s *MemoryOrders) SetStatus(_ context.Context, id string, status OrderStatus) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	o.Status = status
	s.orders[id] = o
	return o, nil
}
