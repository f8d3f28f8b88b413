//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package index implements the in-memory keyword index behind the knowledge base.
package index

import (
	"math"
	"sort"
	"sync"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
)

// saturation bounds how much a repeated term can add to a document's score.
const saturation = 1.2

// Hit is a scored document.
type Hit struct {
	Document *document.Document
	Score    float64
}

type entry struct {
	doc *document.Document
	tf  map[string]int
}

// Index is a concurrency-safe term-frequency index.
type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	df      map[string]int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		entries: make(map[string]*entry),
		df:      make(map[string]int),
	}
}

// Add indexes doc under its ID, replacing any document with the same ID.
func (ix *Index) Add(doc *document.Document) {
	if doc.IsEmpty() {
		return
	}
	tf := make(map[string]int)
	for _, tok := range Tokenize(doc.Name + " " + doc.Content) {
		tf[tok]++
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if old, ok := ix.entries[doc.ID]; ok {
		for term := range old.tf {
			ix.df[term]--
			if ix.df[term] <= 0 {
				delete(ix.df, term)
			}
		}
	}
	for term := range tf {
		ix.df[term]++
	}
	ix.entries[doc.ID] = &entry{doc: doc, tf: tf}
}

// Len returns the number of indexed documents.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Search returns up to limit documents scoring at least minScore, best first.
// Scores are in [0, 1): the idf-weighted share of query terms a document
// contains, damped by term frequency. Ties break on document ID.
func (ix *Index) Search(query string, limit int, minScore float64) []Hit {
	terms := uniq(Tokenize(query))
	if len(terms) == 0 || limit <= 0 {
		return nil
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	n := float64(len(ix.entries))
	idf := make(map[string]float64, len(terms))
	var total float64
	for _, t := range terms {
		df := float64(ix.df[t])
		idf[t] = math.Log(1 + (n-df+0.5)/(df+0.5))
		total += idf[t]
	}
	if total == 0 {
		return nil
	}

	var hits []Hit
	for _, e := range ix.entries {
		var score float64
		for _, t := range terms {
			if f := float64(e.tf[t]); f > 0 {
				score += idf[t] * f / (f + saturation)
			}
		}
		score /= total
		if score > 0 && score >= minScore {
			hits = append(hits, Hit{Document: e.doc, Score: score})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Document.ID < hits[j].Document.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func uniq(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
