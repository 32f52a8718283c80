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

// Package planner turns a parsed *query.Query into an execution plan over
// one namespace's indexes and item table, the way spec.md §4.5 describes:
// per-leaf iterator selection, AND/OR/NOT merge, sort, aggregation, join
// and EXPLAIN. Filter entries are merged in declaration order; they are not
// reordered by estimated selectivity.
//
// The package depends only on index/itable/value/query/fulltext, not on
// namespace, to avoid an import cycle -- namespace implements Source and
// calls into planner, not the other way around.
package planner

import (
	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// Source is the read view a namespace exposes to the planner: its item
// table plus, for each payload field, the index(es) built over it (a field
// may carry more than one index, e.g. both a hash PK index and a column
// fallback).
type Source interface {
	IndexesFor(field string) []index.Index
	AllIndexes() []index.Index
	Item(id itable.IdType) *itable.Item
	ItemCount() int
	ForEachItem(fn func(id itable.IdType, item *itable.Item) bool)
	FieldValue(item *itable.Item, field string) (value.Value, bool)
}

// JoinResolver lets the planner execute a sub-query against another
// namespace without importing namespace itself; the caller (namespace
// package) supplies the live registry of namespaces.
type JoinResolver interface {
	Resolve(namespace string) (Source, bool)
}
