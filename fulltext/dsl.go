// Copyright 2024 The Nsdb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package fulltext implements the two full-text index variants of
// spec.md §4.8: a bluge-backed "fast" engine (BM25 scoring, typo
// tolerance through fuzzy queries) and a hand-rolled trigram "fuzzy"
// engine for percentage-scored approximate matching, sharing one query
// DSL (+required -forbidden "phrase" prefix* field:term term^boost).
package fulltext

import "strings"

// Term is one parsed DSL token.
type Term struct {
	Text      string
	Required  bool // leading '+'
	Forbidden bool // leading '-'
	Prefix    bool // trailing '*'
	Field     string
	Boost     float64
}

// Phrase is a quoted run of terms that must match contiguously.
type Phrase struct {
	Words     []string
	Required  bool
	Forbidden bool
}

// DSL is a parsed full-text query, shared by both engine variants.
type DSL struct {
	Terms   []Term
	Phrases []Phrase
}

// ParseDSL parses the query syntax of spec.md §4.8: required term (+),
// forbidden (-), phrase ("..."), prefix (word*), field restriction
// (field:word), and term boost (word^N).
func ParseDSL(query string) *DSL {
	d := &DSL{}
	i, n := 0, len(query)
	for i < n {
		for i < n && query[i] == ' ' {
			i++
		}
		if i >= n {
			break
		}
		if query[i] == '"' {
			end := strings.IndexByte(query[i+1:], '"')
			if end < 0 {
				end = n - i - 1
			}
			phraseText := query[i+1 : i+1+end]
			i = i + 1 + end + 1
			d.Phrases = append(d.Phrases, Phrase{Words: strings.Fields(phraseText)})
			continue
		}
		start := i
		for i < n && query[i] != ' ' {
			i++
		}
		d.Terms = append(d.Terms, parseTerm(query[start:i]))
	}
	return d
}

func parseTerm(tok string) Term {
	t := Term{Boost: 1}
	if strings.HasPrefix(tok, "+") {
		t.Required = true
		tok = tok[1:]
	} else if strings.HasPrefix(tok, "-") {
		t.Forbidden = true
		tok = tok[1:]
	}
	if idx := strings.IndexByte(tok, ':'); idx > 0 {
		t.Field = tok[:idx]
		tok = tok[idx+1:]
	}
	if idx := strings.IndexByte(tok, '^'); idx > 0 {
		if b := parseFloat(tok[idx+1:]); b > 0 {
			t.Boost = b
		}
		tok = tok[:idx]
	}
	if strings.HasSuffix(tok, "*") {
		t.Prefix = true
		tok = strings.TrimSuffix(tok, "*")
	}
	t.Text = strings.ToLower(tok)
	return t
}

func parseFloat(s string) float64 {
	var v float64
	var frac float64 = 1
	dot := false
	for _, c := range s {
		if c == '.' {
			dot = true
			continue
		}
		if c < '0' || c > '9' {
			return 0
		}
		d := float64(c - '0')
		if dot {
			frac /= 10
			v += d * frac
		} else {
			v = v*10 + d
		}
	}
	return v
}

// Tokenize normalizes text the way the fuzzy engine indexes it: lower-cased
// word runs, extended by extraWordSymbols (e.g. "-" for hyphenated
// compounds), matching AddData's extra_word_symbols parameter. The fast
// engine tokenizes with bluge's analyzer instead.
func Tokenize(text, extraWordSymbols string) []string {
	isWord := func(r rune) bool {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return true
		}
		return strings.ContainsRune(extraWordSymbols, r)
	}
	var words []string
	var cur strings.Builder
	for _, r := range text {
		if isWord(r) {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > 0 {
			words = append(words, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	if cur.Len() > 0 {
		words = append(words, strings.ToLower(cur.String()))
	}
	return words
}

// DocID is the opaque vdoc id full-text engines are indexed by; the index
// layer (index/text.go) translates it to/from an item table id.
type DocID = int

// Result is one scored hit, the common output of both engines.
type Result struct {
	DocID DocID
	Score float64
}
