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
	"sync"
)

// DefaultSlots are the daily service slots offered by a store.
var DefaultSlots = []string{"09:00", "10:30", "13:30", "15:00", "16:30", "18:00"}

// AppointmentBook manages service appointments.
type AppointmentBook interface {
	// Available returns the free slots of date (YYYY-MM-DD), in order.
	Available(ctx context.Context, date string) ([]string, error)
	Book(ctx context.Context, a Appointment) (Appointment, error)
	Get(ctx context.Context, id string) (Appointment, error)
	Cancel(ctx context.Context, id string) (Appointment, error)
}

// MemoryAppointments is an AppointmentBook held in memory. Each slot takes
// one booking.
type MemoryAppointments struct {
	mu           sync.Mutex
	slots        []string
	appointments map[string]Appointment
	taken        map[string]string // date+slot -> appointment ID
}

// NewMemoryAppointments creates a book offering slots each day. No slots
// means DefaultSlots.
func NewMemoryAppointments(slots ...string) *MemoryAppointments {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	return &MemoryAppointments{
		slots:        append([]string(nil), slots...),
		appointments: make(map[string]Appointment),
		taken:        make(map[string]string),
	}
}

// Available returns the free slots of date, in order.
func (b *MemoryAppointments) Available(_ context.Context, date string) ([]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	free := make([]string, 0, len(b.slots))
	for _, s := range b.slots {
		if _, ok := b.taken[date+" "+s]; !ok {
			free = append(free, s)
		}
	}
	return free, nil
}

// Book reserves a.Slot on a.Date.
func (b *MemoryAppointments) Book(_ context.Context, a Appointment) (Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !contains(b.slots, a.Slot) {
		return Appointment{}, fmt.Errorf("%w: %s is not a service slot", ErrSlotUnavailable, a.Slot)
	}
	key := a.Date + " " + a.Slot
	if _, ok := b.taken[key]; ok {
		return Appointment{}, fmt.Errorf("%w: %s %s is already booked", ErrSlotUnavailable, a.Date, a.Slot)
	}
	a.ID = newID("APT")
	a.Status = AppointmentBooked
	b.appointments[a.ID] = a
	b.taken[key] = a.ID
	return a, nil
}

// Get returns the appointment with the given ID.
func (b *MemoryAppointments) Get(_ context.Context, id string) (Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.appointments[id]
	if !ok {
		return Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	return a, nil
}

// Cancel cancels the appointment and frees its slot.
func (b *MemoryAppointments) Cancel(_ context.Context, id string) (Appointment, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.appointments[id]
	if !ok {
		return Appointment{}, fmt.Errorf("%w: appointment %s", ErrNotFound, id)
	}
	if a.Status == AppointmentCancelled {
		return Appointment{}, fmt.Errorf("%w: appointment %s is already cancelled", ErrInvalidState, id)
	}
	a.Status = AppointmentCancelled
	b.appointments[id] = a
	delete(b.taken, a.Date+" "+a.Slot)
	return a, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
