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
	"sync"

	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// HashIndex supports equality and SET only (spec.md §4.2 "Hash index").
// For any other condition the planner skips it (SupportsCondition is
// false) and falls back to a comparator scan; no error is returned.
type HashIndex struct {
	field   string
	mu      sync.RWMutex
	entries map[string]*KeyEntry
	strings *StringPool
	isPK    bool
}

func NewHashIndex(field string, isPK bool, strPool *StringPool) *HashIndex {
	return &HashIndex{field: field, isPK: isPK, entries: make(map[string]*KeyEntry), strings: strPool}
}

func (h *HashIndex) Kind() Kind              { return KindHash }
func (h *HashIndex) FieldName() string       { return h.field }
func (h *HashIndex) Conditions() []Condition { return []Condition{CondEQ, CondSET} }
func (h *HashIndex) IsPK() bool              { return h.isPK }

func hashKey(v value.Value) string { return v.String() }

func (h *HashIndex) Upsert(keys []value.Value, id itable.IdType) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range keys {
		if h.strings != nil && k.Kind() == value.KindString {
			h.strings.Intern(k.Str())
		}
		key := hashKey(k)
		e, ok := h.entries[key]
		if !ok {
			e = NewKeyEntry()
			h.entries[key] = e
		}
		e.Insert(id)
	}
	return nil
}

func (h *HashIndex) Delete(keys []value.Value, id itable.IdType) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, k := range keys {
		key := hashKey(k)
		e, ok := h.entries[key]
		if !ok {
			continue
		}
		e.Remove(id)
		if h.strings != nil && k.Kind() == value.KindString {
			h.strings.Release(k.Str())
		}
		if e.Len() == 0 {
			delete(h.entries, key)
		}
	}
	return nil
}

func (h *HashIndex) SelectKey(keys []value.Value, cond Condition, _ SelectOpts) (SelectKeyResults, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch cond {
	case CondEQ:
		if e, ok := h.entries[hashKey(keys[0])]; ok {
			return SelectKeyResults{Entries: []*KeyEntry{e}, Supported: true}, nil
		}
		return SelectKeyResults{Supported: true}, nil
	case CondSET:
		res := SelectKeyResults{Supported: true}
		for _, k := range keys {
			if e, ok := h.entries[hashKey(k)]; ok {
				res.Entries = append(res.Entries, e)
			}
		}
		return res, nil
	default:
		return SelectKeyResults{Supported: false}, nil
	}
}

func (h *HashIndex) Commit() error { return nil }

func (h *HashIndex) UpdateSortedIds(<-chan struct{}) (bool, error) { return false, nil }
func (h *HashIndex) SortRank(itable.IdType) (int, bool)            { return 0, false }

func (h *HashIndex) Clone() Index {
	h.mu.RLock()
	defer h.mu.RUnlock()
	cp := &HashIndex{field: h.field, isPK: h.isPK, entries: make(map[string]*KeyEntry, len(h.entries)), strings: h.strings}
	for k, v := range h.entries {
		cp.entries[k] = &KeyEntry{Ids: append([]itable.IdType{}, v.Ids...)}
	}
	return cp
}

func (h *HashIndex) MemStat() MemStat {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := 0
	for _, e := range h.entries {
		ids += e.Len()
	}
	return MemStat{KeysCount: len(h.entries), IdsCount: ids, ApproxSize: int64(ids) * 16}
}

func (h *HashIndex) RemoveExpiredStrings() {
	if h.strings != nil {
		h.strings.RemoveExpiredStrings()
	}
}
