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
	"strings"

	"github.com/nsdb/nsdb/itable"
	"github.com/nsdb/nsdb/query"
	"github.com/nsdb/nsdb/value"
)

// computeAggregations runs every requested aggregation over the matched id
// set in a single pass per aggregation, per spec.md §4.6. Sum/Avg/Min/Max/
// Count reduce to one scalar; Distinct/Facet group by the tuple of
// requested fields, buffering one counter per distinct tuple (bounded by
// the cardinality of the data, not the result window).
func computeAggregations(specs []query.Aggregation, ids []itable.IdType, src Source) []AggResult {
	out := make([]AggResult, 0, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case query.AggSum, query.AggAvg, query.AggMin, query.AggMax, query.AggCount:
			out = append(out, scalarAgg(spec, ids, src))
		case query.AggDistinct, query.AggFacet:
			out = append(out, groupAgg(spec, ids, src))
		}
	}
	return out
}

func scalarAgg(spec query.Aggregation, ids []itable.IdType, src Source) AggResult {
	res := AggResult{Kind: spec.Kind, Fields: spec.Fields}
	if spec.Kind == query.AggCount {
		res.Value = float64(len(ids))
		return res
	}
	if len(spec.Fields) == 0 {
		return res
	}
	field := spec.Fields[0]
	var sum float64
	var min, max float64
	count := 0
	for _, id := range ids {
		item := src.Item(id)
		if item == nil {
			continue
		}
		v, ok := src.FieldValue(item, field)
		if !ok {
			continue
		}
		f := v.Float()
		sum += f
		if count == 0 || f < min {
			min = f
		}
		if count == 0 || f > max {
			max = f
		}
		count++
	}
	switch spec.Kind {
	case query.AggSum:
		res.Value = sum
	case query.AggAvg:
		if count > 0 {
			res.Value = sum / float64(count)
		}
	case query.AggMin:
		res.Value = min
	case query.AggMax:
		res.Value = max
	}
	return res
}

func groupAgg(spec query.Aggregation, ids []itable.IdType, src Source) AggResult {
	res := AggResult{Kind: spec.Kind, Fields: spec.Fields}
	counts := make(map[string]int)
	values := make(map[string][]value.Value)
	for _, id := range ids {
		item := src.Item(id)
		if item == nil {
			continue
		}
		tuple := make([]value.Value, 0, len(spec.Fields))
		parts := make([]string, 0, len(spec.Fields))
		for _, f := range spec.Fields {
			v, ok := src.FieldValue(item, f)
			if !ok {
				v = value.Null()
			}
			tuple = append(tuple, v)
			parts = append(parts, v.String())
		}
		key := strings.Join(parts, "\x00")
		counts[key]++
		if _, seen := values[key]; !seen {
			values[key] = tuple
		}
	}

	rows := make([]FacetRow, 0, len(counts))
	for key, c := range counts {
		rows = append(rows, FacetRow{Values: values[key], Count: c})
	}

	if spec.SortField == "" {
		sort.Slice(rows, func(i, j int) bool {
			if spec.SortDesc {
				return rows[i].Count > rows[j].Count
			}
			return rows[i].Count < rows[j].Count
		})
	} else {
		idx := fieldIndex(spec.Fields, spec.SortField)
		sort.Slice(rows, func(i, j int) bool {
			if idx < 0 || idx >= len(rows[i].Values) {
				return false
			}
			c, err := value.Compare(rows[i].Values[idx], rows[j].Values[idx], value.CollateNone)
			if err != nil {
				return false
			}
			if spec.SortDesc {
				return c > 0
			}
			return c < 0
		})
	}

	if spec.Offset > 0 && spec.Offset < len(rows) {
		rows = rows[spec.Offset:]
	} else if spec.Offset >= len(rows) {
		rows = nil
	}
	if spec.Limit > 0 && spec.Limit < len(rows) {
		rows = rows[:spec.Limit]
	}
	res.Facets = rows
	return res
}

func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
