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

package itable

import (
	nsdberrors "github.com/nsdb/nsdb/errors"
)

// Table is the per-namespace item arena. It is not safe for concurrent use
// without the caller holding the namespace lock (see namespace.Namespace);
// mirrors the teacher's single-writer-under-lock shard data path.
type Table struct {
	items []*Item
	free  []IdType
	used  int
}

func New() *Table {
	return &Table{}
}

// Create reserves a slot for a new item, reusing a freed slot if one is
// available, else growing the dense vector. Invariant (spec.md §4.3): a
// slot in items_ is either free (nil here) or holds a payload whose LSN is
// >= every LSN previously written to that slot -- enforced by callers only
// ever raising LSN monotonically per namespace.
func (t *Table) Create() IdType {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		t.used++
		return id
	}
	id := len(t.items)
	t.items = append(t.items, nil)
	t.used++
	return id
}

// Set installs an item at an id previously returned by Create.
func (t *Table) Set(id IdType, item *Item) {
	item.Id = id
	item.free = false
	t.items[id] = item
}

// Get returns the item at id, or nil if the slot is free or out of range.
func (t *Table) Get(id IdType) *Item {
	if id < 0 || id >= len(t.items) {
		return nil
	}
	it := t.items[id]
	if it == nil || it.free {
		return nil
	}
	return it
}

// Delete clears a slot and pushes it onto the free list. Every index that
// touched this row must have id removed from its id-sets before or as part
// of the same write that calls Delete -- Table itself does not know about
// indexes (see design note: no back-pointers from items to the namespace).
func (t *Table) Delete(id IdType) error {
	if id < 0 || id >= len(t.items) || t.items[id] == nil || t.items[id].free {
		return nsdberrors.ErrItemDoesNotExist
	}
	t.items[id].free = true
	t.items[id] = nil
	t.free = append(t.free, id)
	t.used--
	return nil
}

// Len returns the number of live items.
func (t *Table) Len() int { return t.used }

// Cap returns the size of the dense vector, including freed-but-unreused
// slots; callers size dense id->rank arrays (sort orders) to this.
func (t *Table) Cap() int { return len(t.items) }

// IsFree reports whether id is on the free list (slot exists but holds no
// item), the second half of the item-table invariant in spec.md §8.2.
func (t *Table) IsFree(id IdType) bool {
	if id < 0 || id >= len(t.items) {
		return true
	}
	return t.items[id] == nil
}

// ForEach visits every live item in ascending id order. fn returning false
// stops iteration early.
func (t *Table) ForEach(fn func(id IdType, item *Item) bool) {
	for id, it := range t.items {
		if it == nil || it.free {
			continue
		}
		if !fn(id, it) {
			return
		}
	}
}
