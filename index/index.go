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

// Package index implements the polymorphic index layer of spec.md §4.2: a
// single trait (Index) with one concrete type per access pattern
// (ordered-tree, hash, column-store, composite, geometry, bool, full-text),
// selected by the planner through a type switch rather than a deep virtual
// hierarchy, the way the design notes in spec.md §9 ask for.
package index

import (
	"sort"

	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// Condition is the predicate kind an index is asked to resolve.
type Condition int

const (
	CondEQ Condition = iota
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

func (c Condition) String() string {
	switch c {
	case CondEQ:
		return "EQ"
	case CondSET:
		return "SET"
	case CondALLSET:
		return "ALL_SET"
	case CondLT:
		return "LT"
	case CondLE:
		return "LE"
	case CondGT:
		return "GT"
	case CondGE:
		return "GE"
	case CondRANGE:
		return "RANGE"
	case CondLIKE:
		return "LIKE"
	case CondANY:
		return "ANY"
	case CondEMPTY:
		return "EMPTY"
	case CondDWITHIN:
		return "DWITHIN"
	default:
		return "UNKNOWN"
	}
}

// Kind tags the concrete index variant, used for the planner's tie-break
// ordering (ordered-tree > hash > comparator) in spec.md §4.5.
type Kind int

const (
	KindOrdered Kind = iota
	KindHash
	KindColumn
	KindComposite
	KindGeo
	KindBool
	KindFullTextFast
	KindFullTextFuzzy
)

// KeyEntry is the value an index maps a key to: a sorted id-set plus
// optional auxiliary scores (full-text relevancy), per spec.md's GLOSSARY.
type KeyEntry struct {
	Ids    []itable.IdType
	Scores map[itable.IdType]float64
}

func NewKeyEntry() *KeyEntry { return &KeyEntry{} }

// Insert keeps Ids sorted ascending, the layer's hard invariant (spec.md
// §3/§8.1).
func (e *KeyEntry) Insert(id itable.IdType) {
	i := sort.SearchInts(e.Ids, id)
	if i < len(e.Ids) && e.Ids[i] == id {
		return
	}
	e.Ids = append(e.Ids, 0)
	copy(e.Ids[i+1:], e.Ids[i:])
	e.Ids[i] = id
}

func (e *KeyEntry) Remove(id itable.IdType) {
	i := sort.SearchInts(e.Ids, id)
	if i < len(e.Ids) && e.Ids[i] == id {
		e.Ids = append(e.Ids[:i], e.Ids[i+1:]...)
	}
	if e.Scores != nil {
		delete(e.Scores, id)
	}
}

func (e *KeyEntry) Contains(id itable.IdType) bool {
	i := sort.SearchInts(e.Ids, id)
	return i < len(e.Ids) && e.Ids[i] == id
}

func (e *KeyEntry) Len() int { return len(e.Ids) }

// SelectKeyResults is the planner-facing output of SelectKey: zero or more
// id-sets (ANDed/ORed as KeyEntry.Ids, exactly as the Planner merges
// iterators in spec.md §4.5) plus whether the index actually handled the
// condition.
type SelectKeyResults struct {
	Entries   []*KeyEntry
	Supported bool
}

// SelectOpts carries per-request context the spec's planner threads through
// index calls: comparator forced sort, etc.
type SelectOpts struct {
	SortId int // current sort order id, 0 = none; see UpdateSortedIds
}

// MemStat reports approximate memory usage, used by the background
// optimizer and admin introspection.
type MemStat struct {
	KeysCount  int
	IdsCount   int
	ApproxSize int64
}

// Index is the one interface every index variant implements, matching the
// contract enumerated in spec.md §4.2.
type Index interface {
	Kind() Kind
	FieldName() string
	Conditions() []Condition

	// Upsert indexes id under key (or keys, for array fields). It returns
	// only an error; the key actually stored (e.g. the string pool's
	// interned instance) is not returned to the caller.
	Upsert(keys []value.Value, id itable.IdType) error
	Delete(keys []value.Value, id itable.IdType) error

	SelectKey(keys []value.Value, cond Condition, opts SelectOpts) (SelectKeyResults, error)

	// Commit finalizes any buffered mutation before a select may observe
	// it; most variants are immediately consistent and treat this as a
	// no-op, full-text indexes use it to (re)build.
	Commit() error

	// UpdateSortedIds (re)builds the dense id->rank permutation used by the
	// background optimizer (spec.md §4.9); ok=false if this variant does
	// not support sort orders (hash, full-text).
	UpdateSortedIds(cancel <-chan struct{}) (ok bool, err error)
	SortRank(id itable.IdType) (rank int, ok bool)

	Clone() Index
	MemStat() MemStat
	RemoveExpiredStrings()
}

// SupportsCondition answers whether the index variant accepts cond, so the
// planner can fall back to a row-wise comparator instead (spec.md §4.5.2).
func SupportsCondition(idx Index, cond Condition) bool {
	for _, c := range idx.Conditions() {
		if c == cond {
			return true
		}
	}
	return false
}
