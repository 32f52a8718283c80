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
	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// fakeSource is a minimal Source with no indexes at all, exercising the
// planner's row-wise comparator fallback (evalLeaf's "no index can resolve
// this condition" path) rather than any real index.Index implementation.
type fakeSource struct {
	items map[itable.IdType]*itable.Item
}

func newFakeSource(rows map[itable.IdType][2]interface{}) *fakeSource {
	s := &fakeSource{items: make(map[itable.IdType]*itable.Item)}
	pt := value.NewPayloadType("items",
		value.Field{Name: "name", Kind: value.KindString},
		value.Field{Name: "age", Kind: value.KindInt},
	)
	for id, row := range rows {
		p := value.NewPayload(pt)
		p.Set("name", value.String(row[0].(string)))
		p.Set("age", value.Int(row[1].(int)))
		s.items[id] = &itable.Item{Id: id, Payload: p}
	}
	return s
}

func (s *fakeSource) IndexesFor(field string) []index.Index { return nil }
func (s *fakeSource) AllIndexes() []index.Index              { return nil }
func (s *fakeSource) Item(id itable.IdType) *itable.Item     { return s.items[id] }
func (s *fakeSource) ItemCount() int                          { return len(s.items) }
func (s *fakeSource) ForEachItem(fn func(id itable.IdType, item *itable.Item) bool) {
	for id, it := range s.items {
		if !fn(id, it) {
			return
		}
	}
}
func (s *fakeSource) FieldValue(item *itable.Item, field string) (value.Value, bool) {
	return item.Payload.Get(field)
}
