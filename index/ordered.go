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

	"github.com/cubefs/cubefs/util/btree"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// treeNode is one btree.Item: a key plus the KeyEntry of ids indexed under
// it. Copy() gives the copy-on-write btree a cheap shallow clone, the same
// idiom the teacher uses for its shardRange items (shard/catalog/shard.go).
type treeNode struct {
	key   value.Value
	entry *KeyEntry
}

func (n *treeNode) Less(than btree.Item) bool {
	o := than.(*treeNode)
	c, err := value.Compare(n.key, o.key, CollateNone)
	if err != nil {
		// incomparable keys never occur within one ordered index: all
		// keys share the declared field's kind. Fall back to string order
		// defensively rather than panic.
		return n.key.String() < o.key.String()
	}
	return c < 0
}

func (n *treeNode) Copy() btree.Item {
	cp := *n
	return &cp
}

// CollateNone is re-exported at package scope. treeNode.Less orders every
// tree with it; a TreeIndex's own collate is applied only to the bound
// checks in selectRange.
const CollateNone = value.CollateNone

// TreeIndex is the ordered-tree variant: supports EQ and all range
// conditions, returns ids in key order so the planner can drive a Forward
// iterator without materializing first (spec.md §4.2 "Ordered index").
type TreeIndex struct {
	field   string
	collate value.Collate
	mu      sync.RWMutex
	tree    *btree.BTree
	ranks   map[itable.IdType]int
	strings *StringPool // non-nil only for string-keyed trees
}

func NewTreeIndex(field string, collate value.Collate, strPool *StringPool) *TreeIndex {
	return &TreeIndex{
		field:   field,
		collate: collate,
		tree:    btree.New(32),
		strings: strPool,
	}
}

func (t *TreeIndex) Kind() Kind         { return KindOrdered }
func (t *TreeIndex) FieldName() string  { return t.field }
func (t *TreeIndex) Conditions() []Condition {
	return []Condition{CondEQ, CondSET, CondLT, CondLE, CondGT, CondGE, CondRANGE}
}

func (t *TreeIndex) lookup(key value.Value) *treeNode {
	item := t.tree.Get(&treeNode{key: key})
	if item == nil {
		return nil
	}
	return item.(*treeNode)
}

func (t *TreeIndex) Upsert(keys []value.Value, id itable.IdType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		if t.strings != nil && k.Kind() == value.KindString {
			k = value.String(t.strings.Intern(k.Str()))
		}
		node := t.lookup(k)
		if node == nil {
			node = &treeNode{key: k, entry: NewKeyEntry()}
			t.tree.ReplaceOrInsert(node)
		}
		node.entry.Insert(id)
	}
	return nil
}

func (t *TreeIndex) Delete(keys []value.Value, id itable.IdType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, k := range keys {
		node := t.lookup(k)
		if node == nil {
			continue
		}
		node.entry.Remove(id)
		if t.strings != nil && k.Kind() == value.KindString {
			t.strings.Release(k.Str())
		}
		if node.entry.Len() == 0 {
			t.tree.Delete(node)
		}
	}
	return nil
}

func (t *TreeIndex) SelectKey(keys []value.Value, cond Condition, _ SelectOpts) (SelectKeyResults, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	switch cond {
	case CondEQ:
		node := t.lookup(keys[0])
		if node == nil {
			return SelectKeyResults{Supported: true}, nil
		}
		return SelectKeyResults{Entries: []*KeyEntry{node.entry}, Supported: true}, nil
	case CondSET:
		res := SelectKeyResults{Supported: true}
		for _, k := range keys {
			if node := t.lookup(k); node != nil {
				res.Entries = append(res.Entries, node.entry)
			}
		}
		return res, nil
	case CondLT, CondLE, CondGT, CondGE, CondRANGE:
		return t.selectRange(keys, cond)
	default:
		return SelectKeyResults{Supported: false}, nil
	}
}

func (t *TreeIndex) selectRange(keys []value.Value, cond Condition) (SelectKeyResults, error) {
	merged := NewKeyEntry()
	collect := func(n *treeNode) bool {
		for _, id := range n.entry.Ids {
			merged.Insert(id)
		}
		return true
	}

	switch cond {
	case CondGE:
		t.tree.AscendGreaterOrEqual(&treeNode{key: keys[0]}, func(it btree.Item) bool { return collect(it.(*treeNode)) })
	case CondGT:
		t.tree.AscendGreaterOrEqual(&treeNode{key: keys[0]}, func(it btree.Item) bool {
			n := it.(*treeNode)
			c, _ := value.Compare(n.key, keys[0], t.collate)
			if c == 0 {
				return true
			}
			return collect(n)
		})
	case CondLE:
		t.tree.Ascend(func(it btree.Item) bool {
			n := it.(*treeNode)
			c, _ := value.Compare(n.key, keys[0], t.collate)
			if c > 0 {
				return false
			}
			return collect(n)
		})
	case CondLT:
		t.tree.Ascend(func(it btree.Item) bool {
			n := it.(*treeNode)
			c, _ := value.Compare(n.key, keys[0], t.collate)
			if c >= 0 {
				return false
			}
			return collect(n)
		})
	case CondRANGE:
		t.tree.AscendGreaterOrEqual(&treeNode{key: keys[0]}, func(it btree.Item) bool {
			n := it.(*treeNode)
			c, _ := value.Compare(n.key, keys[1], t.collate)
			if c > 0 {
				return false
			}
			return collect(n)
		})
	}
	return SelectKeyResults{Entries: []*KeyEntry{merged}, Supported: true}, nil
}

func (t *TreeIndex) Commit() error { return nil }

// UpdateSortedIds walks the tree in key order and assigns a dense rank to
// every id, implementing the "Sort order" data model of spec.md §3: a
// permutation SortType -> id materialized once per optimizer pass.
func (t *TreeIndex) UpdateSortedIds(cancel <-chan struct{}) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ranks := make(map[itable.IdType]int)
	rank := 0
	const chunk = 2048
	since := 0
	canceled := false
	t.tree.Ascend(func(it btree.Item) bool {
		n := it.(*treeNode)
		for _, id := range n.entry.Ids {
			ranks[id] = rank
			rank++
			since++
			if since >= chunk {
				since = 0
				select {
				case <-cancel:
					canceled = true
					return false
				default:
				}
			}
		}
		return true
	})
	if canceled {
		return false, nil
	}
	t.ranks = ranks
	return true, nil
}

func (t *TreeIndex) SortRank(id itable.IdType) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.ranks == nil {
		return 0, false
	}
	r, ok := t.ranks[id]
	return r, ok
}

func (t *TreeIndex) Clone() Index {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &TreeIndex{
		field:   t.field,
		collate: t.collate,
		tree:    t.tree.Clone(),
		strings: t.strings,
	}
}

func (t *TreeIndex) MemStat() MemStat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := 0
	t.tree.Ascend(func(it btree.Item) bool {
		ids += it.(*treeNode).entry.Len()
		return true
	})
	return MemStat{KeysCount: t.tree.Len(), IdsCount: ids, ApproxSize: int64(ids) * 16}
}

func (t *TreeIndex) RemoveExpiredStrings() {
	if t.strings != nil {
		t.strings.RemoveExpiredStrings()
	}
}
