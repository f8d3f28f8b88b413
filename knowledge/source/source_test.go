//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package source

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadataKeysArePrefixed(t *testing.T) {
	for _, key := range []string{
		MetaSource, MetaSourceName, MetaFilePath, MetaFileName, MetaFileExt, MetaURI,
		MetaChunkIndex, MetaChunkSize, MetaChunkSection,
	} {
		assert.True(t, strings.HasPrefix(key, metaPrefix), key)
	}
}
