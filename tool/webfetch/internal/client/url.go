//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package client

import "strings"

// NormalizeURL adds an https scheme to links given without one, as users
// often paste "fptshop.com.vn/..." style links. Links that already carry a
// scheme are returned trimmed but otherwise unchanged.
//
// Examples:
//   - "fptshop.com.vn/dien-thoai" → "https://fptshop.com.vn/dien-thoai"
//   - "//cdn.example.com/a" → "https://cdn.example.com/a"
//   - "http://example.com" → "http://example.com" (no change)
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.Contains(raw, "://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	default:
		return "https://" + raw
	}
}
