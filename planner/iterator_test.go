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

func TestIntersectSortedSets(t *testing.T) {
	a := &resultSet{ids: []int{1, 2, 3, 4}, sorted: true}
	b := &resultSet{ids: []int{2, 4, 6}, sorted: true}
	out := intersect(a, b)
	require.Equal(t, []int{2, 4}, out.ids)
}

func TestIntersectSumsFullTextScores(t *testing.T) {
	a := &resultSet{ids: []int{1, 2}, sorted: true, scores: map[int]float64{1: 0.5, 2: 1.0}}
	b := &resultSet{ids: []int{2, 3}, sorted: true, scores: map[int]float64{2: 2.0, 3: 0.1}}
	out := intersect(a, b)
	require.Equal(t, []int{2}, out.ids)
	require.InDelta(t, 3.0, out.scores[2], 0.0001)
}

func TestUnionDeduplicates(t *testing.T) {
	a := &resultSet{ids: []int{1, 2, 3}}
	b := &resultSet{ids: []int{2, 3, 4}}
	out := union(a, b)
	require.ElementsMatch(t, []int{1, 2, 3, 4}, out.ids)
}

func TestSubtractComplement(t *testing.T) {
	universe := []int{1, 2, 3, 4, 5}
	r := &resultSet{ids: []int{2, 4}, sorted: true}
	out := subtract(universe, r)
	require.Equal(t, []int{1, 3, 5}, out.ids)
}

func TestEnsureSortedIsIdempotent(t *testing.T) {
	r := &resultSet{ids: []int{3, 1, 2}}
	r.ensureSorted()
	require.Equal(t, []int{1, 2, 3}, r.ids)
	require.True(t, r.sorted)
	r.ensureSorted()
	require.Equal(t, []int{1, 2, 3}, r.ids)
}

func TestByCostOrdersCheapestAndRankFirst(t *testing.T) {
	leaves := byCost{
		{set: &resultSet{cost: 5, kind: iterHash}},
		{set: &resultSet{cost: 5, kind: iterForward}},
		{set: &resultSet{cost: 1, kind: iterComparator}},
	}
	require.True(t, leaves.Less(2, 0))
	require.True(t, leaves.Less(1, 0))
}

func TestIterKindString(t *testing.T) {
	require.Equal(t, "forward", iterForward.String())
	require.Equal(t, "fulltext", iterFullText.String())
}
