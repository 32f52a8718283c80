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

// Package query is the parsed representation of spec.md §4.4: a filter
// tree, sort specs, aggregations, joins, and update set-lists, produced by
// either the SQL dialect (sql.go) or the JSON DSL (dsl.go) -- both parse to
// this one in-memory tree.
package query

import "github.com/nsdb/nsdb/value"

// LogicOp combines sibling filter entries.
type LogicOp int

const (
	OpAnd LogicOp = iota
	OpOr
	OpNot
)

// FilterEntry is one node of a flat, left-to-right filter list: either a
// leaf predicate (Field/Cond/Values set, SubEntries nil) or a bracket
// grouping (SubEntries set, Field empty). Op says how this entry combines
// into the running result as the list is folded left to right: OpAnd/OpOr
// combine normally, OpNot means "AND NOT this entry" (a bare leading NOT
// negates the first entry outright). The first entry's Op is only
// meaningful when it is OpNot; otherwise it is ignored.
type FilterEntry struct {
	Op         LogicOp
	Field      string
	Cond       Cond
	Values     []value.Value
	SubEntries []FilterEntry

	// FullText carries the raw DSL string for text-index leaves; Cond is
	// unused in that case (full text sits outside the Condition enum, see
	// index/text.go).
	FullText string

	// JoinIndex, when >= 0, marks this entry as the boolean contributed by
	// an orInner join (spec.md §4.5 "Join"); it does not produce join rows.
	JoinIndex int
}

// Cond mirrors index.Condition without importing the index package from
// query (keeps query free of the planner/index dependency graph); planner
// translates between the two with a 1:1 mapping.
type Cond int

const (
	CondEQ Cond = iota
	CondSET
	CondALLSET
	CondLT
	CondLE
	CondGT
	CondGE
	CondRANGE
	CondLIKE
	CondANY
	CondEMPTY
	CondDWITHIN
)

// SortEntry is one ORDER BY key.
type SortEntry struct {
	Field        string
	Desc         bool
	ForcedValues []value.Value // "ORDER BY FIELD(a, 3,1,2)" hoists these first
}

type AggKind int

const (
	AggSum AggKind = iota
	AggAvg
	AggMin
	AggMax
	AggCount
	AggDistinct
	AggFacet
)

type Aggregation struct {
	Kind       AggKind
	Fields     []string // facet/distinct may group by several fields
	Limit      int
	Offset     int
	SortField  string // "" = sort by count
	SortDesc   bool
}

type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinOrInner
)

type Join struct {
	Kind       JoinKind
	LeftField  string
	RightField string
	SubQuery   *Query
}

type SetExpr struct {
	Field string
	Value value.Value
	// Expr, if non-empty, is a small arithmetic expression over the
	// current field value (e.g. "field+1"), evaluated per item at apply
	// time -- the update-field-expression feature of SPEC_FULL §12.
	Expr string
}

// Query is the full parsed statement: target namespace, filter tree, sort,
// aggregation, join, merge (UNION-like), and, for UPDATE/DELETE, the
// mutation payload.
type Query struct {
	Namespace    string
	Entries      []FilterEntry
	Sort         []SortEntry
	Aggregations []Aggregation
	Joins        []Join
	Merged       []*Query // UNION-like sub-queries
	UpdateSet    []SetExpr
	IsDelete     bool
	IsUpdate     bool

	Limit, Offset int
	Explain       bool
	CacheEnabled  bool
	ReqTotal      bool
}

func New(ns string) *Query { return &Query{Namespace: ns, CacheEnabled: true} }
