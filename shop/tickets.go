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
	"sync"
)

// TicketStore persists support tickets.
type TicketStore interface {
	Create(ctx context.Context, t Ticket) (Ticket, error)
}

// MemoryTickets is a TicketStore held in memory.
type MemoryTickets struct {
	mu      sync.Mutex
	tickets []Ticket
}

// NewMemoryTickets creates an empty ticket store.
func NewMemoryTickets() *MemoryTickets {
	return &MemoryTickets{}
}

// Create stores t, assigning an ID and the "open" status.
func (s *MemoryTickets) Create(_ context.Context, t Ticket) (Ticket, error) {
	t.ID = newID("TCK")
	t.Status = "open"
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, t)
	return t, nil
}

// All returns every ticket in creation order.
func (s *MemoryTickets) All() []Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Ticket(nil), s.tickets...)
}
