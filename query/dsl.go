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

package query

import (
	"encoding/json"
	"strings"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/value"
)

// jsonQuery is the wire shape of the JSON DSL (spec.md §4.4's alternative
// to the SQL dialect). It decodes straight off encoding/json, the same
// approach the teacher's proto-adjacent request types use for REST bodies.
type jsonQuery struct {
	Namespace string        `json:"namespace"`
	Filters   []jsonFilter  `json:"filters"`
	Sort      []jsonSort    `json:"sort"`
	Limit     int           `json:"limit"`
	Offset    int           `json:"offset"`
	ReqTotal  bool          `json:"req_total"`
	Explain   bool          `json:"explain"`
	Aggs      []jsonAgg     `json:"aggregations"`
	Update    []jsonSetExpr `json:"update"`
	Delete    bool          `json:"delete"`
}

type jsonFilter struct {
	Op       string        `json:"op"` // "and" | "or" | "not", default "and"
	Field    string        `json:"field"`
	Cond     string        `json:"cond"`
	Values   []interface{} `json:"values"`
	FullText string        `json:"full_text"`
	Filters  []jsonFilter  `json:"filters"` // nested group
}

type jsonSort struct {
	Field        string        `json:"field"`
	Desc         bool          `json:"desc"`
	ForcedValues []interface{} `json:"forced_values"`
}

type jsonAgg struct {
	Kind      string   `json:"kind"`
	Fields    []string `json:"fields"`
	Limit     int      `json:"limit"`
	Offset    int      `json:"offset"`
	SortField string   `json:"sort_field"`
	SortDesc  bool     `json:"sort_desc"`
}

type jsonSetExpr struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
	Expr  string      `json:"expr"`
}

// ParseJSON parses the JSON DSL form of a query into the same *Query tree
// the SQL parser builds, per spec.md §4.4 "equivalent JSON request body".
func ParseJSON(data []byte) (*Query, error) {
	var jq jsonQuery
	if err := json.Unmarshal(data, &jq); err != nil {
		return nil, nsdberrors.Newf(nsdberrors.KindParse, "invalid query json: %v", err)
	}
	if jq.Namespace == "" {
		return nil, nsdberrors.New(nsdberrors.KindParse, "query json missing namespace")
	}

	q := New(jq.Namespace)
	q.Limit = jq.Limit
	q.Offset = jq.Offset
	q.ReqTotal = jq.ReqTotal
	q.Explain = jq.Explain
	q.IsDelete = jq.Delete
	q.IsUpdate = len(jq.Update) > 0

	entries, err := convertFilters(jq.Filters)
	if err != nil {
		return nil, err
	}
	q.Entries = entries

	for _, s := range jq.Sort {
		se := SortEntry{Field: s.Field, Desc: s.Desc}
		for _, raw := range s.ForcedValues {
			v, err := jsonLiteralToValue(raw)
			if err != nil {
				return nil, err
			}
			se.ForcedValues = append(se.ForcedValues, v)
		}
		q.Sort = append(q.Sort, se)
	}

	for _, a := range jq.Aggs {
		kind, ok := aggKindOf(strings.ToUpper(a.Kind))
		if !ok {
			return nil, nsdberrors.Newf(nsdberrors.KindParse, "unknown aggregation kind %q", a.Kind)
		}
		q.Aggregations = append(q.Aggregations, Aggregation{
			Kind: kind, Fields: a.Fields, Limit: a.Limit, Offset: a.Offset,
			SortField: a.SortField, SortDesc: a.SortDesc,
		})
	}

	for _, u := range jq.Update {
		set := SetExpr{Field: u.Field, Expr: u.Expr}
		if u.Expr == "" {
			v, err := jsonLiteralToValue(u.Value)
			if err != nil {
				return nil, err
			}
			set.Value = v
		}
		q.UpdateSet = append(q.UpdateSet, set)
	}

	return q, nil
}

func convertFilters(in []jsonFilter) ([]FilterEntry, error) {
	out := make([]FilterEntry, 0, len(in))
	for _, f := range in {
		entry := FilterEntry{Field: f.Field, FullText: f.FullText}
		switch strings.ToUpper(f.Op) {
		case "OR":
			entry.Op = OpOr
		case "NOT":
			entry.Op = OpNot
		default:
			entry.Op = OpAnd
		}
		if len(f.Filters) > 0 {
			sub, err := convertFilters(f.Filters)
			if err != nil {
				return nil, err
			}
			entry.SubEntries = sub
			out = append(out, entry)
			continue
		}
		if f.FullText == "" {
			cond, err := condFromString(f.Cond)
			if err != nil {
				return nil, err
			}
			entry.Cond = cond
			for _, raw := range f.Values {
				v, err := jsonLiteralToValue(raw)
				if err != nil {
					return nil, err
				}
				entry.Values = append(entry.Values, v)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func condFromString(s string) (Cond, error) {
	switch strings.ToUpper(s) {
	case "EQ", "":
		return CondEQ, nil
	case "SET":
		return CondSET, nil
	case "ALLSET":
		return CondALLSET, nil
	case "LT":
		return CondLT, nil
	case "LE":
		return CondLE, nil
	case "GT":
		return CondGT, nil
	case "GE":
		return CondGE, nil
	case "RANGE":
		return CondRANGE, nil
	case "LIKE":
		return CondLIKE, nil
	case "ANY":
		return CondANY, nil
	case "EMPTY":
		return CondEMPTY, nil
	case "DWITHIN":
		return CondDWITHIN, nil
	default:
		return 0, nsdberrors.Newf(nsdberrors.KindParse, "unknown condition %q", s)
	}
}

// jsonLiteralToValue converts one decoded JSON scalar (string, float64,
// bool, nil) into a value.Value. JSON has no int/float distinction, so
// whole-valued numbers become value.Int64 the way the teacher's REST
// decoders normalize numeric fields for storage.
func jsonLiteralToValue(raw interface{}) (value.Value, error) {
	switch t := raw.(type) {
	case nil:
		return value.Null(), nil
	case bool:
		return value.Bool(t), nil
	case string:
		return value.String(t), nil
	case float64:
		if t == float64(int64(t)) {
			return value.Int64(int64(t)), nil
		}
		return value.Double(t), nil
	case map[string]interface{}:
		x, okx := t["x"].(float64)
		y, oky := t["y"].(float64)
		if okx && oky {
			return value.PointVal(value.Point{X: x, Y: y}), nil
		}
		return value.Value{}, nsdberrors.New(nsdberrors.KindParse, "unsupported object literal in query json")
	default:
		return value.Value{}, nsdberrors.Newf(nsdberrors.KindParse, "unsupported literal type %T", raw)
	}
}
