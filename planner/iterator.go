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

package planner

import (
	"sort"

	"github.com/nsdb/nsdb/itable"
)

// iterKind tags which strategy produced a resultSet, used only for EXPLAIN
// output and tie-breaking (spec.md §4.5: ordered-tree > hash > comparator,
// then smaller expected result first, then declaration order).
type iterKind int

const (
	iterForward iterKind = iota // sorted id slice straight from an ordered-tree index
	iterHash                    // unordered id slice from a hash/bool/composite index
	iterComparator               // full item-table scan filtered by a row predicate
	iterFullText                 // id slice with relevance scores from a text engine
)

func (k iterKind) String() string {
	switch k {
	case iterForward:
		return "forward"
	case iterHash:
		return "hash"
	case iterComparator:
		return "comparator"
	case iterFullText:
		return "fulltext"
	default:
		return "unknown"
	}
}

// resultSet is the uniform output of evaluating one filter leaf or merge
// node: a list of item ids, sorted iff sorted is true, plus relevance
// scores when the leaf was a full-text search.
type resultSet struct {
	ids    []itable.IdType
	sorted bool
	scores map[itable.IdType]float64
	kind   iterKind
	cost   int // rows touched to produce this set, used for selectivity ordering
	field  string
	desc   string // human label for EXPLAIN
}

func (r *resultSet) ensureSorted() {
	if r.sorted {
		return
	}
	sort.Sort(idSlice(r.ids))
	r.sorted = true
}

type idSlice []itable.IdType

func (s idSlice) Len() int           { return len(s) }
func (s idSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s idSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// intersect merges two sorted id lists (the "Forward" merge strategy of
// spec.md §4.5), carrying over full-text scores by summation when both
// sides score the same id.
func intersect(a, b *resultSet) *resultSet {
	a.ensureSorted()
	b.ensureSorted()
	out := &resultSet{kind: iterForward, cost: a.cost + b.cost}
	i, j := 0, 0
	for i < len(a.ids) && j < len(b.ids) {
		switch {
		case a.ids[i] < b.ids[j]:
			i++
		case a.ids[i] > b.ids[j]:
			j++
		default:
			out.ids = append(out.ids, a.ids[i])
			out.sorted = true
			if s := mergedScore(a, b, a.ids[i]); s != 0 {
				out.scores = addScore(out.scores, a.ids[i], s)
			}
			i++
			j++
		}
	}
	return out
}

// union merges two id lists via a set (the "Unordered" merge strategy),
// used for OR combinators where neither side's order is worth preserving
// until the final sort pass.
func union(a, b *resultSet) *resultSet {
	seen := make(map[itable.IdType]bool, len(a.ids)+len(b.ids))
	out := &resultSet{kind: iterHash, cost: a.cost + b.cost}
	for _, id := range a.ids {
		if !seen[id] {
			seen[id] = true
			out.ids = append(out.ids, id)
		}
	}
	for _, id := range b.ids {
		if !seen[id] {
			seen[id] = true
			out.ids = append(out.ids, id)
		}
	}
	out.scores = mergeScores(a.scores, b.scores)
	return out
}

// subtract returns universe \ r.ids (the NOT combinator); it always costs
// a full scan of universe since there's no sparse complement structure.
func subtract(universe []itable.IdType, r *resultSet) *resultSet {
	r.ensureSorted()
	excluded := make(map[itable.IdType]bool, len(r.ids))
	for _, id := range r.ids {
		excluded[id] = true
	}
	out := &resultSet{kind: iterComparator, cost: len(universe)}
	for _, id := range universe {
		if !excluded[id] {
			out.ids = append(out.ids, id)
		}
	}
	out.sorted = true
	return out
}

func mergedScore(a, b *resultSet, id itable.IdType) float64 {
	var s float64
	if a.scores != nil {
		s += a.scores[id]
	}
	if b.scores != nil {
		s += b.scores[id]
	}
	return s
}

func addScore(m map[itable.IdType]float64, id itable.IdType, s float64) map[itable.IdType]float64 {
	if m == nil {
		m = make(map[itable.IdType]float64)
	}
	m[id] += s
	return m
}

func mergeScores(a, b map[itable.IdType]float64) map[itable.IdType]float64 {
	if a == nil && b == nil {
		return nil
	}
	out := make(map[itable.IdType]float64, len(a)+len(b))
	for k, v := range a {
		out[k] += v
	}
	for k, v := range b {
		out[k] += v
	}
	return out
}

// byCost orders leaves cheapest-first, with ties broken ordered-tree >
// hash > full-text > comparator, then declaration order (stable sort
// preserves the latter). Plan does not use it: evalEntries merges filter
// entries in declaration order.
type byCost []*planLeaf

func (b byCost) Len() int { return len(b) }
func (b byCost) Swap(i, j int) { b[i], b[j] = b[j], b[i] }
func (b byCost) Less(i, j int) bool {
	if b[i].set.cost != b[j].set.cost {
		return b[i].set.cost < b[j].set.cost
	}
	return rank(b[i].set.kind) < rank(b[j].set.kind)
}

func rank(k iterKind) int {
	switch k {
	case iterForward:
		return 0
	case iterHash:
		return 1
	case iterFullText:
		return 2
	default:
		return 3
	}
}
