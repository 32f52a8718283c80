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

package index

import (
	"strings"

	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// CompositeIndex keys on the concatenation of several component fields
// (spec.md §4.2 "Composite index", declared by the "f1+f2+...[=alias]"
// expression). It delegates storage to either a hash or tree index over
// value.Composite keys -- the planner only ever sees it as a single Index,
// exactly as spec.md §4.5 step 1 describes composite indexes covering a
// conjunction of equality predicates.
type CompositeIndex struct {
	alias  string
	fields []string
	inner  Index // HashIndex or TreeIndex, keyed by value.Composite
}

// ParseCompositeExpr parses "author+year=book_key" into its component
// field names and alias.
func ParseCompositeExpr(expr string) (fields []string, alias string) {
	if i := strings.IndexByte(expr, '='); i >= 0 {
		alias = expr[i+1:]
		expr = expr[:i]
	}
	fields = strings.Split(expr, "+")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if alias == "" {
		alias = strings.Join(fields, "+")
	}
	return fields, alias
}

func NewCompositeIndex(fields []string, alias string, ordered bool, strPool *StringPool) *CompositeIndex {
	var inner Index
	if ordered {
		inner = NewTreeIndex(alias, value.CollateNone, strPool)
	} else {
		inner = NewHashIndex(alias, false, strPool)
	}
	return &CompositeIndex{alias: alias, fields: fields, inner: inner}
}

func (c *CompositeIndex) Kind() Kind        { return KindComposite }
func (c *CompositeIndex) FieldName() string { return c.alias }
func (c *CompositeIndex) Fields() []string  { return c.fields }

func (c *CompositeIndex) Conditions() []Condition { return c.inner.Conditions() }

func (c *CompositeIndex) Upsert(keys []value.Value, id itable.IdType) error {
	return c.inner.Upsert(keys, id)
}

func (c *CompositeIndex) Delete(keys []value.Value, id itable.IdType) error {
	return c.inner.Delete(keys, id)
}

func (c *CompositeIndex) SelectKey(keys []value.Value, cond Condition, opts SelectOpts) (SelectKeyResults, error) {
	return c.inner.SelectKey(keys, cond, opts)
}

func (c *CompositeIndex) Commit() error { return c.inner.Commit() }

func (c *CompositeIndex) UpdateSortedIds(cancel <-chan struct{}) (bool, error) {
	return c.inner.UpdateSortedIds(cancel)
}

func (c *CompositeIndex) SortRank(id itable.IdType) (int, bool) { return c.inner.SortRank(id) }

func (c *CompositeIndex) Clone() Index {
	return &CompositeIndex{alias: c.alias, fields: append([]string{}, c.fields...), inner: c.inner.Clone()}
}

func (c *CompositeIndex) MemStat() MemStat { return c.inner.MemStat() }

func (c *CompositeIndex) RemoveExpiredStrings() { c.inner.RemoveExpiredStrings() }
