//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package shop implements the store's domain collaborators (catalog, orders,
// support tickets, appointments and mail) and the tools that expose them to
// the assistant.
package shop

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when an order, product, ticket or appointment does not exist.
	ErrNotFound = errors.New("shop: not found")
	// ErrForbidden is returned when the caller does not own the record.
	ErrForbidden = errors.New("shop: record belongs to another customer")
	// ErrUnauthenticated is returned when a tool needs an identity and has none.
	ErrUnauthenticated = errors.New("shop: customer is not signed in")
	// ErrOutOfStock is returned when an order asks for more than is in stock.
	ErrOutOfStock = errors.New("shop: not enough stock")
	// ErrInvalidState is returned when a record cannot make the requested transition.
	ErrInvalidState = errors.New("shop: invalid state for this operation")
	// ErrSlotUnavailable is returned when an appointment slot is taken or unknown.
	ErrSlotUnavailable = errors.New("shop: slot is not available")
	// ErrInvalidArgument is returned for malformed tool input.
	ErrInvalidArgument = errors.New("shop: invalid argument")
)

// Product is a catalog item. Prices are in VND.
type Product struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Brand    string            `json:"brand"`
	Category string            `json:"category"`
	Price    int64             `json:"price"`
	Stock    int               `json:"stock"`
	Specs    map[string]string `json:"specs,omitempty"`
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses.
const (
	OrderPlaced    OrderStatus = "placed"
	OrderShipped   OrderStatus = "shipped"
	OrderCancelled OrderStatus = "cancelled"
)

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Order is a customer order.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email,omitempty"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Ticket is an IT support ticket.
type Ticket struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

// Appointment statuses.
const (
	AppointmentBooked    AppointmentStatus = "booked"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is an in-store service booking.
type Appointment struct {
	ID     string            `json:"id"`
	UserID string            `json:"user_id"`
	Email  string            `json:"email,omitempty"`
	Date   string            `json:"date"`
	Slot   string            `json:"slot"`
	Note   string            `json:"note,omitempty"`
	Status AppointmentStatus `json:"status"`
}

// newID returns a short upper-case identifier with the given prefix.
func newID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "-" + strings.ToUpper(id[:10])
}
