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

package namespace

import (
	"time"

	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// Namespace implements planner.Source and optimizer.Source directly, so
// the planner and optimizer packages never import namespace (namespace
// imports them instead); this file is the seam.

func (ns *Namespace) IndexesFor(field string) []index.Index { return ns.indexes[field] }

func (ns *Namespace) AllIndexes() []index.Index {
	var out []index.Index
	for _, list := range ns.indexes {
		out = append(out, list...)
	}
	return out
}

func (ns *Namespace) Item(id itable.IdType) *itable.Item { return ns.items.Get(id) }

func (ns *Namespace) ItemCount() int { return ns.items.Len() }

func (ns *Namespace) ForEachItem(fn func(id itable.IdType, item *itable.Item) bool) {
	ns.items.ForEach(fn)
}

func (ns *Namespace) FieldValue(item *itable.Item, field string) (value.Value, bool) {
	if item == nil || item.Payload == nil {
		return value.Value{}, false
	}
	return item.Payload.Get(field)
}

// SweepExpired removes items whose TTL has passed. Per spec.md §8's Open
// Question on TTL-expiry races (see DESIGN.md): an expired row stays
// visible to any select already in flight and is only actually removed
// here, in the optimizer's quiescent sweep, mirroring the string pool's
// own deferred-reclamation invariant (index.StringPool.RemoveExpiredStrings).
func (ns *Namespace) SweepExpired(now time.Time) int {
	ns.lock.Lock()
	defer ns.lock.Unlock()
	ttlField := "_ttl"
	if ns.payloadType.FieldIndex(ttlField) < 0 {
		return 0
	}
	var expired []itable.IdType
	ns.items.ForEach(func(id itable.IdType, item *itable.Item) bool {
		v, ok := item.Payload.Get(ttlField)
		if ok && !v.IsNull() && v.Int64() > 0 && v.Int64() <= now.Unix() {
			expired = append(expired, id)
		}
		return true
	})
	for _, id := range expired {
		item := ns.items.Get(id)
		if item == nil {
			continue
		}
		ns.indexDelete(id, item.Payload)
		_ = ns.items.Delete(id)
	}
	ns.commitIndexes()
	return len(expired)
}
