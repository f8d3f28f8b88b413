//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package document defines the unit of text the knowledge base indexes.
package document

import (
	"strings"
	"time"
)

// Document is a piece of text with the metadata of where it came from.
type Document struct {
	// ID is unique within one knowledge base.
	ID string `json:"id"`
	// Name is the human readable source name, usually the file name without extension.
	Name string `json:"name"`
	// Content is the text of the document.
	Content string `json:"content"`
	// Metadata carries source and chunk information.
	Metadata map[string]any `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a document named name holding content.
func New(name, content string) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:        strings.ReplaceAll(name, " ", "_"),
		Name:      name,
		Content:   content,
		Metadata:  make(map[string]any),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsEmpty reports whether the document carries no text.
func (d *Document) IsEmpty() bool {
	return d == nil || strings.TrimSpace(d.Content) == ""
}

// Clone returns a copy with its own metadata map.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Metadata = make(map[string]any, len(d.Metadata))
	for k, v := range d.Metadata {
		out.Metadata[k] = v
	}
	return &out
}

// MetaString returns the string metadata value under key, or "".
func (d *Document) MetaString(key string) string {
	if d == nil {
		return ""
	}
	s, _ := d.Metadata[key].(string)
	return s
}
