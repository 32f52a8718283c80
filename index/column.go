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
	"sync"

	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// ColumnIndex is the "IndexStore<T>" fallback of spec.md §4.2: a dense
// vector of raw values keyed by item id, scanned row-by-row with a
// Comparator. It never resolves a condition itself (Conditions() is empty)
// -- the planner always drives it through Comparator, matching the spec's
// description of when the column store applies (scalar, non-sparse,
// non-array columns with no suitable tree/hash).
type ColumnIndex struct {
	field   string
	collate value.Collate
	mu      sync.RWMutex
	byId    map[itable.IdType]value.Value
}

func NewColumnIndex(field string, collate value.Collate) *ColumnIndex {
	return &ColumnIndex{field: field, collate: collate, byId: make(map[itable.IdType]value.Value)}
}

func (c *ColumnIndex) Kind() Kind              { return KindColumn }
func (c *ColumnIndex) FieldName() string       { return c.field }
func (c *ColumnIndex) Conditions() []Condition { return nil }

func (c *ColumnIndex) Upsert(keys []value.Value, id itable.IdType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) != 1 {
		// array/sparse values fall back to comparator-only mode and are
		// simply not tracked densely; Comparator re-reads the payload.
		delete(c.byId, id)
		return nil
	}
	c.byId[id] = keys[0]
	return nil
}

func (c *ColumnIndex) Delete(_ []value.Value, id itable.IdType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byId, id)
	return nil
}

func (c *ColumnIndex) SelectKey(_ []value.Value, _ Condition, _ SelectOpts) (SelectKeyResults, error) {
	return SelectKeyResults{Supported: false}, nil
}

func (c *ColumnIndex) Commit() error { return nil }

func (c *ColumnIndex) UpdateSortedIds(<-chan struct{}) (bool, error) { return false, nil }
func (c *ColumnIndex) SortRank(itable.IdType) (int, bool)            { return 0, false }

func (c *ColumnIndex) Clone() Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cp := &ColumnIndex{field: c.field, collate: c.collate, byId: make(map[itable.IdType]value.Value, len(c.byId))}
	for k, v := range c.byId {
		cp.byId[k] = v
	}
	return cp
}

func (c *ColumnIndex) MemStat() MemStat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return MemStat{KeysCount: len(c.byId), IdsCount: len(c.byId), ApproxSize: int64(len(c.byId)) * 24}
}

func (c *ColumnIndex) RemoveExpiredStrings() {}

// Comparator evaluates cond against the stored value for id, without going
// through an index id-set -- the row-wise fallback path of spec.md §4.5.2.
func (c *ColumnIndex) Comparator(id itable.IdType, cond Condition, keys []value.Value) (bool, error) {
	c.mu.RLock()
	v, ok := c.byId[id]
	c.mu.RUnlock()
	if !ok {
		return cond == CondEMPTY, nil
	}
	return Match(v, cond, keys, c.collate)
}

// Match evaluates a single value against a condition, shared by the column
// store's Comparator and the planner's residual-predicate evaluation over
// reconstructed payloads.
func Match(v value.Value, cond Condition, keys []value.Value, collate value.Collate) (bool, error) {
	switch cond {
	case CondEMPTY:
		return v.IsNull(), nil
	case CondEQ:
		c, err := value.Compare(v, keys[0], collate)
		return err == nil && c == 0, err
	case CondSET, CondANY:
		for _, k := range keys {
			c, err := value.Compare(v, k, collate)
			if err == nil && c == 0 {
				return true, nil
			}
		}
		return cond == CondANY && !v.IsNull() && len(keys) == 0, nil
	case CondLT, CondLE, CondGT, CondGE:
		c, err := value.Compare(v, keys[0], collate)
		if err != nil {
			return false, err
		}
		switch cond {
		case CondLT:
			return c < 0, nil
		case CondLE:
			return c <= 0, nil
		case CondGT:
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case CondRANGE:
		c1, err := value.Compare(v, keys[0], collate)
		if err != nil {
			return false, err
		}
		c2, err := value.Compare(v, keys[1], collate)
		if err != nil {
			return false, err
		}
		return c1 >= 0 && c2 <= 0, nil
	case CondLIKE:
		return matchLike(v.String(), keys[0].Str()), nil
	default:
		return false, nil
	}
}

// matchLike implements SQL LIKE with % and _ wildcards over a per-byte,
// ASCII case-insensitive comparison (strings.EqualFold on single bytes),
// matching the CondLIKE contract of spec.md §4.2.
func matchLike(s, pattern string) bool {
	return likeMatch(s, pattern)
}

func likeMatch(s, p string) bool {
	if p == "" {
		return s == ""
	}
	if p[0] == '%' {
		if likeMatch(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatch(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	}
	if s == "" {
		return false
	}
	if p[0] == '_' || strings.EqualFold(string(p[0]), string(s[0])) {
		return likeMatch(s[1:], p[1:])
	}
	return false
}
