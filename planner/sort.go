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
	"github.com/nsdb/nsdb/query"
	"github.com/nsdb/nsdb/value"
)

// sortIds orders rs.ids in place by the requested sort keys. For each key,
// rankCompare first asks every index built over that field for a
// precomputed sort rank (SortRank, built by the background optimizer per
// spec.md §4.9) for both ids; if the index has one for both, the rank
// difference settles the comparison in O(1) with no field decode. Only when
// no index has a built order for that field (or for those particular ids)
// does the key fall back to the per-id comparator stack spec.md §4.5
// describes as the default path. A SortEntry carrying ForcedValues (ORDER
// BY FIELD(...)) is always hoisted first regardless of its position in the
// key list.
func sortIds(rs *resultSet, keys []query.SortEntry, src Source) {
	forced := -1
	for i, k := range keys {
		if len(k.ForcedValues) > 0 {
			forced = i
			break
		}
	}

	less := func(a, b itable.IdType) bool {
		if forced >= 0 {
			ia, ib := forcedRank(keys[forced], a, src), forcedRank(keys[forced], b, src)
			if ia != ib {
				return ia < ib
			}
		}
		for i, k := range keys {
			if i == forced {
				continue
			}
			c, ok := rankCompare(a, b, k.Field, src)
			if !ok {
				c = compareByField(a, b, k.Field, src)
			}
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return a < b
	}
	sort.SliceStable(rs.ids, func(i, j int) bool { return less(rs.ids[i], rs.ids[j]) })
	rs.sorted = false // no longer the index's own order, just this query's order
}

// rankCompare looks for an index over field that has already built a dense
// sort-rank permutation (index.Index.SortRank, spec.md §4.9's two-phase
// optimizer output) covering both a and b, and if so orders them by rank --
// a direct walk of that permutation rather than decoding and comparing the
// field's value. Returns ok=false when no index over field has a built
// order for both ids, so the caller falls back to compareByField.
func rankCompare(a, b itable.IdType, field string, src Source) (int, bool) {
	for _, idx := range src.IndexesFor(field) {
		ra, oka := idx.SortRank(a)
		if !oka {
			continue
		}
		rb, okb := idx.SortRank(b)
		if !okb {
			continue
		}
		return ra - rb, true
	}
	return 0, false
}

func forcedRank(k query.SortEntry, id itable.IdType, src Source) int {
	item := src.Item(id)
	if item == nil {
		return len(k.ForcedValues)
	}
	v, ok := src.FieldValue(item, k.Field)
	if !ok {
		return len(k.ForcedValues)
	}
	for i, fv := range k.ForcedValues {
		if c, err := value.Compare(v, fv, value.CollateNone); err == nil && c == 0 {
			return i
		}
	}
	return len(k.ForcedValues) // values not named in FIELD(...) sort last
}

func compareByField(a, b itable.IdType, field string, src Source) int {
	ia, ib := src.Item(a), src.Item(b)
	if ia == nil || ib == nil {
		return 0
	}
	va, oka := src.FieldValue(ia, field)
	vb, okb := src.FieldValue(ib, field)
	if !oka || !okb {
		return 0
	}
	c, err := value.Compare(va, vb, fieldCollate(ia, field))
	if err != nil {
		return 0
	}
	return c
}

// fieldCollate looks up field's declared collation on item's payload type,
// so string sort keys honor CollateUTF8/CollateNumeric/etc. the way
// spec.md §4.5 requires instead of always comparing byte order. Fields
// outside the fixed prefix (dynamic body) carry no declared collation.
func fieldCollate(item *itable.Item, field string) value.Collate {
	if item == nil || item.Payload == nil || item.Payload.Type == nil {
		return value.CollateNone
	}
	i := item.Payload.Type.FieldIndex(field)
	if i < 0 {
		return value.CollateNone
	}
	return item.Payload.Type.Field(i).Collate
}

// sortByScore is the default order for a bare full-text query: highest
// relevance first.
func sortByScore(rs *resultSet) {
	sort.SliceStable(rs.ids, func(i, j int) bool {
		return rs.scores[rs.ids[i]] > rs.scores[rs.ids[j]]
	})
}
