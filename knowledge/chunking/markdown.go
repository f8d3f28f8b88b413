//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package chunking

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/document"
	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
)

// MarkdownChunking splits markdown by heading, so each policy or guide
// section becomes its own chunk. Oversized sections are split by paragraph.
type MarkdownChunking struct {
	chunkSize int
	overlap   int
	md        goldmark.Markdown
}

// MarkdownOption represents a functional option for configuring MarkdownChunking.
type MarkdownOption func(*MarkdownChunking)

// WithMarkdownChunkSize sets the maximum size of each chunk in runes.
func WithMarkdownChunkSize(size int) MarkdownOption {
	return func(mc *MarkdownChunking) {
		mc.chunkSize = size
	}
}

// WithMarkdownOverlap sets the overlap used when a paragraph alone exceeds
// the chunk size and has to be cut.
func WithMarkdownOverlap(overlap int) MarkdownOption {
	return func(mc *MarkdownChunking) {
		mc.overlap = overlap
	}
}

// NewMarkdownChunking creates a new markdown chunking strategy with options.
func NewMarkdownChunking(opts ...MarkdownOption) *MarkdownChunking {
	mc := &MarkdownChunking{
		chunkSize: defaultChunkSize,
		overlap:   defaultOverlap,
		md:        goldmark.New(),
	}
	for _, opt := range opts {
		opt(mc)
	}
	if mc.chunkSize <= 0 {
		mc.chunkSize = defaultChunkSize
	}
	if mc.overlap < 0 {
		mc.overlap = 0
	}
	if mc.overlap >= mc.chunkSize {
		mc.overlap = min(defaultOverlap, mc.chunkSize-1)
	}
	return mc
}

type markdownSection struct {
	path  []string
	title string
	level int
	text  strings.Builder
}

// Chunk splits the document using markdown-aware chunking.
func (m *MarkdownChunking) Chunk(doc *document.Document) ([]*document.Document, error) {
	if doc == nil {
		return nil, ErrNilDocument
	}
	if doc.IsEmpty() {
		return nil, ErrEmptyDocument
	}

	content := cleanText(doc.Content)
	sections := m.parseSections([]byte(content))

	var chunks []*document.Document
	next := 1
	for _, sec := range sections {
		body := strings.TrimSpace(sec.text.String())
		if body == "" && sec.title == "" {
			continue
		}
		for _, part := range m.pack(sec, body) {
			if utf8.RuneCountInString(part) > m.chunkSize {
				cut := splitRunes(doc, []rune(part), m.chunkSize, m.overlap, next)
				for _, cc := range cut {
					m.annotate(cc, sec)
				}
				chunks = append(chunks, cut...)
				next += len(cut)
				continue
			}
			c := createChunk(doc, part, next)
			m.annotate(c, sec)
			chunks = append(chunks, c)
			next++
		}
	}
	if len(chunks) == 0 {
		return []*document.Document{createChunk(doc, content, 1)}, nil
	}
	return chunks, nil
}

func (m *MarkdownChunking) annotate(c *document.Document, sec *markdownSection) {
	if len(sec.path) > 0 {
		c.Metadata[source.MetaChunkSection] = strings.Join(sec.path, " > ")
	}
}

// pack groups paragraphs of one section into chunks that fit chunkSize,
// each prefixed with the section heading.
func (m *MarkdownChunking) pack(sec *markdownSection, body string) []string {
	header := ""
	if sec.level > 0 {
		header = strings.Repeat("#", sec.level) + " " + sec.title
	}
	if body == "" {
		return []string{header}
	}
	join := func(parts []string) string {
		s := strings.Join(parts, "\n\n")
		if header != "" {
			return header + "\n\n" + s
		}
		return s
	}

	headerSize := utf8.RuneCountInString(header)
	var out []string
	var cur []string
	size := headerSize
	for _, p := range strings.Split(body, "\n\n") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ps := utf8.RuneCountInString(p) + 2
		if len(cur) > 0 && size+ps > m.chunkSize {
			out = append(out, join(cur))
			cur = nil
			size = headerSize
		}
		cur = append(cur, p)
		size += ps
	}
	if len(cur) > 0 {
		out = append(out, join(cur))
	}
	return out
}

// parseSections walks the top-level blocks of the markdown AST and assigns
// each block to the most recent heading.
func (m *MarkdownChunking) parseSections(src []byte) []*markdownSection {
	root := m.md.Parser().Parse(text.NewReader(src))

	var (
		sections []*markdownSection
		path     []string
		levels   []int
	)
	cur := &markdownSection{}
	sections = append(sections, cur)

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok {
			title := strings.TrimSpace(string(nodeText(h, src)))
			for len(levels) > 0 && levels[len(levels)-1] >= h.Level {
				levels = levels[:len(levels)-1]
				path = path[:len(path)-1]
			}
			levels = append(levels, h.Level)
			path = append(path, title)
			cur = &markdownSection{
				path:  append([]string(nil), path...),
				title: title,
				level: h.Level,
			}
			sections = append(sections, cur)
			continue
		}
		block := strings.TrimSpace(string(blockSource(node, src)))
		if block == "" {
			continue
		}
		if cur.text.Len() > 0 {
			cur.text.WriteString("\n\n")
		}
		cur.text.WriteString(block)
	}
	return sections
}

// blockSource returns the raw markdown of a block node, so list markers and
// fenced code survive into the chunk.
func blockSource(node ast.Node, src []byte) []byte {
	start, stop := -1, -1
	var visit func(n ast.Node)
	visit = func(n ast.Node) {
		if n.Type() == ast.TypeBlock {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				if start == -1 || seg.Start < start {
					start = seg.Start
				}
				if seg.Stop > stop {
					stop = seg.Stop
				}
			}
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			visit(c)
		}
	}
	visit(node)
	if start == -1 {
		return nil
	}
	// Extend to the start of the line so list and quote markers are kept.
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	if fc, ok := node.(*ast.FencedCodeBlock); ok {
		return fencedSource(fc, src, start, stop)
	}
	return src[start:stop]
}

func fencedSource(n *ast.FencedCodeBlock, src []byte, start, stop int) []byte {
	var b bytes.Buffer
	b.WriteString("```")
	if n.Info != nil {
		b.Write(n.Info.Segment.Value(src))
	}
	b.WriteByte('\n')
	b.Write(src[start:stop])
	if !bytes.HasSuffix(b.Bytes(), []byte("\n")) {
		b.WriteByte('\n')
	}
	b.WriteString("```")
	return b.Bytes()
}

// nodeText concatenates the inline text under node.
func nodeText(node ast.Node, src []byte) []byte {
	var buf bytes.Buffer
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.Text:
			buf.Write(v.Segment.Value(src))
			if v.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.Bytes()
}
