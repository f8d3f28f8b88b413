//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  fptshop.com.vn/dien-thoai ", "https://fptshop.com.vn/dien-thoai"},
		{"//cdn.example.com/a", "https://cdn.example.com/a"},
		{"http://example.com", "http://example.com"},
		{"ftp://example.com/file", "ftp://example.com/file"},
		{"localhost:8080/page", "https://localhost:8080/page"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeURL(tt.in), tt.in)
	}
}
