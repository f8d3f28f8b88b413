//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package model provides interfaces for working with LLMs.
package model

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoResponse is returned when a model closes its channel without a final response.
var ErrNoResponse = errors.New("model: no response")

// Model is the interface for all language models.
//
// Error Handling Strategy:
//
//  1. Function-level errors (returned as `error`) are system-level failures that
//     prevent communication, e.g. a nil request or a broken transport.
//  2. Response-level errors (Response.Error) are API-level errors returned by the
//     model service and delivered through the channel.
//
// The conversation graph treats both as hard failures of the turn.
type Model interface {
	// GenerateContent generates content from the given request.
	GenerateContent(ctx context.Context, request *Request) (<-chan *Response, error)

	// Info returns basic information about the model.
	Info() Info
}

// Info contains basic information about a Model.
type Info struct {
	Name string
}

// Await drains a response channel and returns the last complete response.
// Partial responses are skipped. A response carrying an Error is returned as error.
func Await(ctx context.Context, ch <-chan *Response) (*Response, error) {
	var final *Response
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case rsp, ok := <-ch:
			if !ok {
				if final == nil {
					return nil, ErrNoResponse
				}
				return final, nil
			}
			if rsp == nil {
				continue
			}
			if rsp.Error != nil {
				return nil, fmt.Errorf("model: %s: %s", rsp.Error.Type, rsp.Error.Message)
			}
			if rsp.IsPartial {
				continue
			}
			final = rsp
		}
	}
}
