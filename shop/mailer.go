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

	"trpc.group/trpc-go/fptshop-assistant/log"
)

// Mail is an outgoing message.
type Mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer sends mail.
type Mailer interface {
	Send(ctx context.Context, m Mail) error
}

// Outbox is a Mailer that keeps sent mail in memory and logs it.
type Outbox struct {
	mu   sync.Mutex
	sent []Mail
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Send records m.
func (o *Outbox) Send(_ context.Context, m Mail) error {
	o.mu.Lock()
	o.sent = append(o.sent, m)
	o.mu.Unlock()
	log.Infof("shop: mail to %s: %s", m.To, m.Subject)
	return nil
}

// Sent returns every recorded mail in send order.
func (o *Outbox) Sent() []Mail {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Mail(nil), o.sent...)
}
