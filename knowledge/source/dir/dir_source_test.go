//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package dir

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/fptshop-assistant/knowledge/source"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func newTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "returns.md"), "# Đổi trả\n\nĐổi mới trong 30 ngày.\n")
	writeFile(t, filepath.Join(root, "hours.txt"), strings.Repeat("0123456789", 5))
	writeFile(t, filepath.Join(root, "nested", "warranty.md"), "# Bảo hành\n\n12 tháng.\n")
	writeFile(t, filepath.Join(root, "image.png"), "binary")
	return root
}

func TestReadDocuments_Recursive(t *testing.T) {
	root := newTree(t)
	src := New([]string{root}, WithName("policies"), WithMetadataValue("category", "policy"))
	docs, err := src.ReadDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 3)

	names := []string{docs[0].Name, docs[1].Name, docs[2].Name}
	assert.ElementsMatch(t, []string{"hours", "returns", "warranty"}, names)
	for _, d := range docs {
		assert.Equal(t, "policy", d.Metadata["category"])
		assert.Equal(t, source.TypeDir, d.Metadata[source.MetaSource])
		assert.Equal(t, "policies", d.Metadata[source.MetaSourceName])
		assert.True(t, strings.HasPrefix(d.MetaString(source.MetaURI), "file://"))
		assert.NotEqual(t, ".png", d.Metadata[source.MetaFileExt])
	}
	assert.Equal(t, "policies", src.Name())
	assert.Equal(t, source.TypeDir, src.Type())
}

func TestReadDocuments_NonRecursive(t *testing.T) {
	root := newTree(t)
	docs, err := New([]string{root}, WithRecursive(false)).ReadDocuments(context.Background())
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestReadDocuments_PatternsAndExtensions(t *testing.T) {
	root := newTree(t)
	docs, err := New([]string{root}, WithPatterns("nested/**/*.md")).ReadDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "warranty", docs[0].Name)

	docs, err = New([]string{root}, WithFileExtensions("TXT")).ReadDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "hours", docs[0].Name)
}

func TestReadDocuments_CustomChunkSize(t *testing.T) {
	root := newTree(t)
	docs, err := New([]string{root},
		WithFileExtensions(".txt"),
		WithChunking(10, 2),
	).ReadDocuments(context.Background())
	require.NoError(t, err)
	assert.Greater(t, len(docs), 1)
	for _, d := range docs {
		assert.LessOrEqual(t, len(d.Content), 10)
	}
}

func TestReadDocuments_Errors(t *testing.T) {
	_, err := New(nil).ReadDocuments(context.Background())
	assert.Error(t, err)

	_, err = New([]string{filepath.Join(t.TempDir(), "missing")}).ReadDocuments(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New([]string{newTree(t)}).ReadDocuments(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
