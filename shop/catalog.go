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
	"sort"
	"strings"
	"sync"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/index"
)

// Catalog is the product catalog.
type Catalog interface {
	// Search returns up to limit products matching query and priced at most
	// maxPrice. A zero maxPrice means no price bound.
	Search(ctx context.Context, query string, maxPrice int64, limit int) ([]Product, error)
	// Get returns the product with the given ID.
	Get(ctx context.Context, id string) (Product, error)
	// Reserve takes quantity units out of stock.
	Reserve(ctx context.Context, id string, quantity int) (Product, error)
	// Release puts quantity units back into stock.
	Release(ctx context.Context, id string, quantity int) error
}

// MemoryCatalog is a Catalog held in memory.
type MemoryCatalog struct {
	mu       sync.RWMutex
	products map[string]*Product
	terms    map[string][]string
}

// NewMemoryCatalog creates a catalog holding products.
func NewMemoryCatalog(products ...Product) *MemoryCatalog {
	c := &MemoryCatalog{
		products: make(map[string]*Product, len(products)),
		terms:    make(map[string][]string, len(products)),
	}
	for _, p := range products {
		c.Put(p)
	}
	return c
}

// Put adds or replaces a product.
func (c *MemoryCatalog) Put(p Product) {
	text := []string{p.ID, p.Name, p.Brand, p.Category}
	for k, v := range p.Specs {
		text = append(text, k, v)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := p
	c.products[p.ID] = &cp
	c.terms[p.ID] = index.Tokenize(strings.Join(text, " "))
}

// Search ranks products by how many query terms they contain, then by price.
// An empty query lists the cheapest in-range products.
func (c *MemoryCatalog) Search(_ context.Context, query string, maxPrice int64, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 5
	}
	want := index.Tokenize(query)

	c.mu.RLock()
	defer c.mu.RUnlock()
	type scored struct {
		p     Product
		score int
	}
	var hits []scored
	for id, p := range c.products {
		if maxPrice > 0 && p.Price > maxPrice {
			continue
		}
		score := matchCount(want, c.terms[id])
		if len(want) > 0 && score == 0 {
			continue
		}
		hits = append(hits, scored{p: *p, score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		if hits[i].p.Price != hits[j].p.Price {
			return hits[i].p.Price < hits[j].p.Price
		}
		return hits[i].p.ID < hits[j].p.ID
	})
	out := make([]Product, 0, min(limit, len(hits)))
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].p)
	}
	return out, nil
}

func matchCount(want, have []string) int {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[t] = true
	}
	n := 0
	for _, t := range want {
		if set[t] {
			n++
		}
	}
	return n
}

// Get returns the product with the given ID.
func (c *MemoryCatalog) Get(_ context.Context, id string) (Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return *p, nil
}

// Reserve takes quantity units out of stock.
func (c *MemoryCatalog) Reserve(_ context.Context, id string, quantity int) (Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return Product{}, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	if p.Stock < quantity {
		return Product{}, fmt.Errorf("%w: %s has %d left", ErrOutOfStock, p.Name, p.Stock)
	}
	p.Stock -= quantity
	return *p, nil
}

// Release puts quantity units back into stock.
func (c *MemoryCatalog) Release(_ context.Context, id string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	p.Stock += quantity
	return nil
}
