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

// BoolIndex is the two-bucket variant for boolean fields: EQ only, no
// range (there is no ordering finer than false<true worth maintaining a
// tree for).
type BoolIndex struct {
	field      string
	mu         sync.RWMutex
	yes, no    *KeyEntry
}

func NewBoolIndex(field string) *BoolIndex {
	return &BoolIndex{field: field, yes: NewKeyEntry(), no: NewKeyEntry()}
}

func (b *BoolIndex) Kind() Kind              { return KindBool }
func (b *BoolIndex) FieldName() string       { return b.field }
func (b *BoolIndex) Conditions() []Condition { return []Condition{CondEQ} }

func (b *BoolIndex) bucket(v bool) *KeyEntry {
	if v {
		return b.yes
	}
	return b.no
}

func (b *BoolIndex) Upsert(keys []value.Value, id itable.IdType) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		b.bucket(k.Bool()).Insert(id)
	}
	return nil
}

func (b *BoolIndex) Delete(keys []value.Value, id itable.IdType) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		b.bucket(k.Bool()).Remove(id)
	}
	return nil
}

func (b *BoolIndex) SelectKey(keys []value.Value, cond Condition, _ SelectOpts) (SelectKeyResults, error) {
	if cond != CondEQ {
		return SelectKeyResults{Supported: false}, nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return SelectKeyResults{Entries: []*KeyEntry{b.bucket(keys[0].Bool())}, Supported: true}, nil
}

func (b *BoolIndex) Commit() error                                { return nil }
func (b *BoolIndex) UpdateSortedIds(<-chan struct{}) (bool, error) { return false, nil }
func (b *BoolIndex) SortRank(itable.IdType) (int, bool)            { return 0, false }

func (b *BoolIndex) Clone() Index {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return &BoolIndex{
		field: b.field,
		yes:   &KeyEntry{Ids: append([]itable.IdType{}, b.yes.Ids...)},
		no:    &KeyEntry{Ids: append([]itable.IdType{}, b.no.Ids...)},
	}
}

func (b *BoolIndex) MemStat() MemStat {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return MemStat{KeysCount: 2, IdsCount: b.yes.Len() + b.no.Len(), ApproxSize: int64(b.yes.Len()+b.no.Len()) * 8}
}

func (b *BoolIndex) RemoveExpiredStrings() {}
