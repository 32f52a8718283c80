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

// ExplainNode is one entry of the EXPLAIN tree spec.md §4.4 asks for: per
// filter node, the chosen iterator kind and its selectivity estimate.
type ExplainNode struct {
	Field    string        `json:"field,omitempty"`
	Method   string        `json:"method"`
	Matched  int           `json:"matched"`
	Cost     int           `json:"cost"`
	Children []ExplainNode `json:"children,omitempty"`
}

func leafExplain(l *planLeaf) ExplainNode {
	return ExplainNode{
		Field:   l.set.field,
		Method:  l.set.kind.String(),
		Matched: len(l.set.ids),
		Cost:    l.set.cost,
	}
}

func mergeExplain(op string, rs *resultSet, children ...ExplainNode) ExplainNode {
	return ExplainNode{
		Method:   op,
		Matched:  len(rs.ids),
		Cost:     rs.cost,
		Children: children,
	}
}
