//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics, so "Bảo hành" and "bao hanh"
// produce the same tokens. đ has no decomposition and is mapped by hand.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)
}

// Tokenize folds s and splits it into letter and digit runs.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if !stopwords[f] {
			out = append(out, f)
		}
	}
	return out
}

// stopwords are folded function words that carry no topic.
var stopwords = map[string]bool{
	"la": true, "va": true, "cua": true, "co": true, "cho": true, "cac": true,
	"nhung": true, "mot": true, "the": true, "nao": true, "thi": true, "toi": true,
	"a": true, "an": true, "and": true, "is": true, "of": true, "or": true, "to": true, "how": true,
	"what": true, "in": true, "for": true, "can": true, "do": true, "i": true,
}
