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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeafExplainReportsMethodAndCounts(t *testing.T) {
	leaf := &planLeaf{set: &resultSet{field: "age", kind: iterComparator, ids: []int{1, 2}, cost: 5}}
	node := leafExplain(leaf)
	require.Equal(t, "age", node.Field)
	require.Equal(t, "comparator", node.Method)
	require.Equal(t, 2, node.Matched)
	require.Equal(t, 5, node.Cost)
}

func TestMergeExplainNestsChildren(t *testing.T) {
	rs := &resultSet{ids: []int{1}, cost: 3}
	child1 := ExplainNode{Method: "forward"}
	child2 := ExplainNode{Method: "hash"}
	node := mergeExplain("and", rs, child1, child2)
	require.Equal(t, "and", node.Method)
	require.Equal(t, 1, node.Matched)
	require.Equal(t, 2, len(node.Children))
}
