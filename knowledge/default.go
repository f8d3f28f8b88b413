//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/index"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
	"trpc.group/trpc-go/fptshop-assistant/log"
)

var (
	// ErrEmptyQuery is returned when a search has no query text.
	ErrEmptyQuery = errors.New("knowledge: query cannot be empty")
)

// BuiltinKnowledge indexes documents from its sources in memory.
type BuiltinKnowledge struct {
	sources    []source.Source
	maxResults int
	minScore   float64
	index      *index.Index
}

// New creates a new BuiltinKnowledge instance with the given options.
func New(opts ...Option) *BuiltinKnowledge {
	dk := &BuiltinKnowledge{
		maxResults: defaultMaxResults,
		index:      index.New(),
	}
	for _, opt := range opts {
		opt(dk)
	}
	return dk
}

// Load reads every source and indexes its documents. Sources are read
// concurrently on an ants pool; the first failure is returned after all
// sources finish.
func (dk *BuiltinKnowledge) Load(ctx context.Context, opts ...LoadOption) error {
	if len(dk.sources) == 0 {
		return nil
	}
	config := buildLoadConfig(len(dk.sources), opts...)
	start := time.Now()
	log.Infof("Starting knowledge base loading with %d sources", len(dk.sources))

	pool, err := ants.NewPool(config.srcParallelism)
	if err != nil {
		return fmt.Errorf("knowledge: create source worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg    sync.WaitGroup
		errMu sync.Mutex
		first error
	)
	fail := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if first == nil {
			first = err
		}
	}
	for i, src := range dk.sources {
		wg.Add(1)
		srcIdx, src := i, src
		if err := pool.Submit(func() {
			defer wg.Done()
			log.Infof("Loading source %d/%d: %s (type: %s)", srcIdx+1, len(dk.sources), src.Name(), src.Type())
			docs, err := src.ReadDocuments(ctx)
			if err != nil {
				fail(fmt.Errorf("knowledge: read source %s: %w", src.Name(), err))
				return
			}
			dk.Add(docs...)
			log.Infof("Fetched %d document(s) from source %s", len(docs), src.Name())
		}); err != nil {
			wg.Done()
			fail(fmt.Errorf("knowledge: submit source task: %w", err))
		}
	}
	wg.Wait()
	if first != nil {
		return first
	}
	log.Infof("Knowledge base loaded: %d documents in %s", dk.index.Len(), time.Since(start).Round(time.Millisecond))
	return nil
}

// Add indexes documents directly, bypassing the sources.
func (dk *BuiltinKnowledge) Add(docs ...*document.Document) {
	for _, doc := range docs {
		dk.index.Add(doc)
	}
}

// Len returns the number of indexed documents.
func (dk *BuiltinKnowledge) Len() int {
	return dk.index.Len()
}

// Search returns the best matching passages, or nil when nothing matches.
func (dk *BuiltinKnowledge) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	if req == nil || strings.TrimSpace(req.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit := req.MaxResults
	if limit <= 0 {
		limit = dk.maxResults
	}
	minScore := req.MinScore
	if minScore <= 0 {
		minScore = dk.minScore
	}

	hits := dk.index.Search(req.Query, limit, minScore)
	if len(hits) == 0 {
		return nil, nil
	}
	result := &SearchResult{
		Document: hits[0].Document,
		Score:    hits[0].Score,
		Passages: make([]Passage, 0, len(hits)),
	}
	var text strings.Builder
	for i, h := range hits {
		result.Passages = append(result.Passages, Passage{Document: h.Document, Score: h.Score})
		if i > 0 {
			text.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&text, "[%s]\n%s", passageLabel(h.Document), h.Document.Content)
	}
	result.Text = text.String()
	return result, nil
}

func passageLabel(doc *document.Document) string {
	label := doc.MetaString(source.MetaFileName)
	if label == "" {
		label = doc.Name
	}
	if section := doc.MetaString(source.MetaChunkSection); section != "" {
		label += " > " + section
	}
	return label
}
