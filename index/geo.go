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
	"math"
	"sync"

	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/value"
)

// gridCell is the side length of the uniform grid GeoIndex buckets points
// into; DWITHIN only ever needs to scan the query circle's bounding cells.
const gridCell = 1.0

// GeoIndex is a uniform-grid approximation of an R-Tree over (x,y) points,
// array-valued by contract (spec.md §4.2 "Geometry index"): only DWITHIN is
// supported. A true R-Tree is not in the retrieved example pack; the grid
// gives the same asymptotic behaviour for roughly uniform point densities
// and is a deliberate, documented simplification (see DESIGN.md).
type GeoIndex struct {
	field string
	mu    sync.RWMutex
	cells map[[2]int64]*KeyEntry
	point map[itable.IdType]value.Point
}

func NewGeoIndex(field string) *GeoIndex {
	return &GeoIndex{field: field, cells: make(map[[2]int64]*KeyEntry), point: make(map[itable.IdType]value.Point)}
}

func (g *GeoIndex) Kind() Kind              { return KindGeo }
func (g *GeoIndex) FieldName() string       { return g.field }
func (g *GeoIndex) Conditions() []Condition { return []Condition{CondDWITHIN} }

func cellOf(p value.Point) [2]int64 {
	return [2]int64{int64(math.Floor(p.X / gridCell)), int64(math.Floor(p.Y / gridCell))}
}

func (g *GeoIndex) Upsert(keys []value.Value, id itable.IdType) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		p := k.Point()
		cell := cellOf(p)
		e, ok := g.cells[cell]
		if !ok {
			e = NewKeyEntry()
			g.cells[cell] = e
		}
		e.Insert(id)
		g.point[id] = p
	}
	return nil
}

func (g *GeoIndex) Delete(keys []value.Value, id itable.IdType) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, k := range keys {
		cell := cellOf(k.Point())
		if e, ok := g.cells[cell]; ok {
			e.Remove(id)
			if e.Len() == 0 {
				delete(g.cells, cell)
			}
		}
	}
	delete(g.point, id)
	return nil
}

func (g *GeoIndex) SelectKey(keys []value.Value, cond Condition, _ SelectOpts) (SelectKeyResults, error) {
	if cond != CondDWITHIN {
		return SelectKeyResults{Supported: false}, nil
	}
	center := keys[0].Point()
	radius := keys[1].Float()

	g.mu.RLock()
	defer g.mu.RUnlock()

	minCell := cellOf(value.Point{X: center.X - radius, Y: center.Y - radius})
	maxCell := cellOf(value.Point{X: center.X + radius, Y: center.Y + radius})

	merged := NewKeyEntry()
	for cx := minCell[0]; cx <= maxCell[0]; cx++ {
		for cy := minCell[1]; cy <= maxCell[1]; cy++ {
			e, ok := g.cells[[2]int64{cx, cy}]
			if !ok {
				continue
			}
			for _, id := range e.Ids {
				p := g.point[id]
				dx, dy := p.X-center.X, p.Y-center.Y
				if dx*dx+dy*dy <= radius*radius {
					merged.Insert(id)
				}
			}
		}
	}
	return SelectKeyResults{Entries: []*KeyEntry{merged}, Supported: true}, nil
}

func (g *GeoIndex) Commit() error { return nil }

func (g *GeoIndex) UpdateSortedIds(<-chan struct{}) (bool, error) { return false, nil }
func (g *GeoIndex) SortRank(itable.IdType) (int, bool)            { return 0, false }

func (g *GeoIndex) Clone() Index {
	g.mu.RLock()
	defer g.mu.RUnlock()
	cp := &GeoIndex{field: g.field, cells: make(map[[2]int64]*KeyEntry, len(g.cells)), point: make(map[itable.IdType]value.Point, len(g.point))}
	for k, v := range g.cells {
		cp.cells[k] = &KeyEntry{Ids: append([]itable.IdType{}, v.Ids...)}
	}
	for k, v := range g.point {
		cp.point[k] = v
	}
	return cp
}

func (g *GeoIndex) MemStat() MemStat {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return MemStat{KeysCount: len(g.cells), IdsCount: len(g.point), ApproxSize: int64(len(g.point)) * 24}
}

func (g *GeoIndex) RemoveExpiredStrings() {}
