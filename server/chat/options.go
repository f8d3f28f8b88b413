//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package chat

import "github.com/prometheus/client_golang/prometheus"

type options struct {
	origins  []string
	rps      float64
	burst    int
	registry *prometheus.Registry
}

// Option configures a Server.
type Option func(*options)

// WithCORSOrigins sets the allowed CORS origins. The default allows any origin.
func WithCORSOrigins(origins ...string) Option {
	return func(o *options) {
		if len(origins) > 0 {
			o.origins = origins
		}
	}
}

// WithRateLimit limits /v1 requests to rps with the given burst. Zero rps
// disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rps = rps
		o.burst = burst
	}
}

// WithRegistry registers the HTTP metrics in reg and serves it at /metrics.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}
