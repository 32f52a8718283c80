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

package query

import "strings"

// SuggestKind classifies one candidate returned by Suggest, so a caller
// (e.g. a CLI or admin UI) can render them differently.
type SuggestKind int

const (
	SuggestKeyword SuggestKind = iota
	SuggestNamespace
	SuggestField
	SuggestOperator
	SuggestLiteral
)

type Suggestion struct {
	Kind SuggestKind
	Text string
}

// Schema lets Suggest offer namespace and field names without the query
// package importing namespace (which would cycle back here); the caller
// supplies a thin adapter over its own catalog.
type Schema interface {
	Namespaces() []string
	FieldsOf(namespace string) []string
}

var sqlKeywords = []string{
	"SELECT", "FROM", "WHERE", "AND", "OR", "NOT", "ORDER", "BY", "ASC",
	"DESC", "LIMIT", "OFFSET", "UPDATE", "SET", "DELETE", "IN", "BETWEEN",
	"LIKE", "IS", "NULL", "JOIN", "INNER", "LEFT", "ON", "FIELD",
}

var sqlOperators = []string{"=", "!=", "<>", "<", "<=", ">", ">="}

// Suggest implements spec.md §4.4's SQL-suggestion endpoint: given a query
// prefix and a byte offset into it, tokenize up to the cursor and propose
// what could legally follow -- the next keyword, a namespace name (right
// after FROM/UPDATE), a field name (inside a WHERE/SET/ORDER BY position),
// an operator, or a literal placeholder.
func Suggest(prefix string, offset int, schema Schema) []Suggestion {
	if offset < 0 {
		offset = 0
	}
	if offset > len(prefix) {
		offset = len(prefix)
	}
	head := prefix[:offset]
	toks := lex(head)
	// lex always appends a trailing tokEOF; drop it, and drop a partial
	// token under the cursor (the prefix being typed) so suggestions are
	// computed against the last *complete* token before the cursor.
	if len(toks) > 0 && toks[len(toks)-1].kind == tokEOF {
		toks = toks[:len(toks)-1]
	}
	typing := ""
	if len(head) > 0 && !isBoundaryByte(head[len(head)-1]) && len(toks) > 0 {
		last := toks[len(toks)-1]
		if last.line == lastLine(head) && tokenTouchesEnd(head, last) {
			typing = strings.ToUpper(last.text)
			toks = toks[:len(toks)-1]
		}
	}

	var stmt, prevKeyword, namespace string
	if len(toks) > 0 {
		stmt = toks[0].text
	}
	for i := len(toks) - 1; i >= 0; i-- {
		if toks[i].kind == tokKeyword {
			prevKeyword = toks[i].text
			break
		}
	}
	for i := 0; i < len(toks)-1; i++ {
		if (toks[i].text == "FROM" || toks[i].text == "UPDATE") && toks[i].kind == tokKeyword {
			namespace = toks[i+1].text
		}
	}

	var out []Suggestion
	switch {
	case len(toks) == 0:
		out = append(out, kw("SELECT"), kw("UPDATE"), kw("DELETE"))
	case prevKeyword == "FROM" || prevKeyword == "UPDATE":
		if schema != nil {
			for _, ns := range schema.Namespaces() {
				out = append(out, Suggestion{Kind: SuggestNamespace, Text: ns})
			}
		}
	case prevKeyword == "WHERE" || prevKeyword == "AND" || prevKeyword == "OR" || prevKeyword == "SET" || prevKeyword == "BY":
		if schema != nil && namespace != "" {
			for _, f := range schema.FieldsOf(namespace) {
				out = append(out, Suggestion{Kind: SuggestField, Text: f})
			}
		}
		if prevKeyword == "WHERE" || prevKeyword == "AND" || prevKeyword == "OR" {
			out = append(out, kw("NOT"))
		}
	case tokenIsField(toks, schema, namespace):
		for _, op := range sqlOperators {
			out = append(out, Suggestion{Kind: SuggestOperator, Text: op})
		}
		out = append(out, kw("IN"), kw("BETWEEN"), kw("LIKE"), kw("IS"))
	default:
		switch stmt {
		case "SELECT":
			out = append(out, kw("FROM"))
		}
		out = append(out, kw("WHERE"), kw("ORDER"), kw("LIMIT"), kw("OFFSET"), kw("AND"), kw("OR"))
	}

	if typing != "" {
		out = filterByPrefix(out, typing)
	}
	return out
}

func kw(s string) Suggestion { return Suggestion{Kind: SuggestKeyword, Text: s} }

func filterByPrefix(in []Suggestion, prefix string) []Suggestion {
	out := in[:0]
	for _, s := range in {
		if strings.HasPrefix(strings.ToUpper(s.Text), prefix) {
			out = append(out, s)
		}
	}
	return out
}

func tokenIsField(toks []token, schema Schema, namespace string) bool {
	if len(toks) == 0 {
		return false
	}
	last := toks[len(toks)-1]
	if last.kind != tokIdent {
		return false
	}
	if schema == nil || namespace == "" {
		return true
	}
	for _, f := range schema.FieldsOf(namespace) {
		if f == last.text {
			return true
		}
	}
	return false
}

func isBoundaryByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '(' || c == ')' || c == ','
}

func lastLine(s string) int {
	line := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line++
		}
	}
	return line
}

func tokenTouchesEnd(head string, t token) bool {
	return t.col+len(t.text) >= lastCol(head)
}

func lastCol(s string) int {
	col := 1
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			col = 1
		} else {
			col++
		}
	}
	return col
}
