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

	"github.com/nsdb/nsdb/fulltext"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

type textEngine interface {
	AddData(text string, vdocID fulltext.DocID, fieldIndex int, extraWordSymbols string)
	Commit(cancel <-chan struct{}) error
	Search(dsl *fulltext.DSL) ([]fulltext.Result, error)
}

// TextIndex adapts one of the two full-text engines (fast, fuzzy) to the
// Index interface. Full-text queries do not travel through SelectKey's
// Condition enum -- spec.md §4.2 lists EQ/SET/.../DWITHIN as the
// conditions every index variant must support-or-reject, and full text is
// deliberately absent from that list. The planner recognizes
// KindFullTextFast/KindFullTextFuzzy and calls SearchText directly, the
// "planner matches on tags for fast paths" design note of spec.md §9.
type TextIndex struct {
	field  string
	kind   Kind
	mu     sync.Mutex
	engine textEngine
	extraWordSymbols string
}

func NewFastTextIndex(field string, cfg fulltext.FastConfig) (*TextIndex, error) {
	e, err := fulltext.NewFast(cfg)
	if err != nil {
		return nil, err
	}
	return &TextIndex{field: field, kind: KindFullTextFast, engine: e, extraWordSymbols: "-_"}, nil
}

func NewFuzzyTextIndex(field string, cfg fulltext.FuzzyConfig) *TextIndex {
	return &TextIndex{field: field, kind: KindFullTextFuzzy, engine: fulltext.NewFuzzy(cfg), extraWordSymbols: "-_"}
}

func (t *TextIndex) Kind() Kind              { return t.kind }
func (t *TextIndex) FieldName() string       { return t.field }
func (t *TextIndex) Conditions() []Condition { return nil }

func (t *TextIndex) Upsert(keys []value.Value, id itable.IdType) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, k := range keys {
		if k.Kind() != value.KindString {
			continue
		}
		t.engine.AddData(k.Str(), id, i, t.extraWordSymbols)
	}
	return nil
}

// Delete is a no-op: neither engine supports removing a document, so a
// deleted item's postings stay in the engine (the fuzzy engine indexes at
// AddData time, the fast engine re-indexes everything buffered on each
// Commit). The planner drops full-text hits whose id has no live item
// (planner.evalFullText).
func (t *TextIndex) Delete(keys []value.Value, id itable.IdType) error { return nil }

func (t *TextIndex) SelectKey([]value.Value, Condition, SelectOpts) (SelectKeyResults, error) {
	return SelectKeyResults{Supported: false}, nil
}

func (t *TextIndex) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Commit(nil)
}

// SearchText runs a full-text DSL query, the actual access path the
// planner uses for this index kind.
func (t *TextIndex) SearchText(dsl *fulltext.DSL) ([]fulltext.Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.engine.Search(dsl)
}

func (t *TextIndex) UpdateSortedIds(<-chan struct{}) (bool, error) { return false, nil }
func (t *TextIndex) SortRank(itable.IdType) (int, bool)            { return 0, false }

func (t *TextIndex) Clone() Index { return t } // full-text engines are rebuilt wholesale, not cloned

func (t *TextIndex) MemStat() MemStat { return MemStat{} }

func (t *TextIndex) RemoveExpiredStrings() {}
