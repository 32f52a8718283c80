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

	"github.com/nsdb/nsdb/query"
	"github.com/nsdb/nsdb/value"
)

func TestSortIdsByField(t *testing.T) {
	src := sampleSource()
	rs := &resultSet{ids: []int{3, 1, 2}}
	sortIds(rs, []query.SortEntry{{Field: "age"}}, src)
	require.Equal(t, []int{1, 2, 3}, rs.ids)
}

func TestSortIdsDescending(t *testing.T) {
	src := sampleSource()
	rs := &resultSet{ids: []int{1, 2, 3}}
	sortIds(rs, []query.SortEntry{{Field: "age", Desc: true}}, src)
	require.Equal(t, []int{3, 2, 1}, rs.ids)
}

func TestSortIdsForcedValuesTakePriority(t *testing.T) {
	src := sampleSource()
	rs := &resultSet{ids: []int{1, 2, 3}}
	sortIds(rs, []query.SortEntry{
		{Field: "name", ForcedValues: []value.Value{value.String("carol"), value.String("alice")}},
	}, src)
	require.Equal(t, []int{3, 1, 2}, rs.ids)
}

func TestSortByScoreDescending(t *testing.T) {
	rs := &resultSet{ids: []int{1, 2, 3}, scores: map[int]float64{1: 0.1, 2: 0.9, 3: 0.5}}
	sortByScore(rs)
	require.Equal(t, []int{2, 3, 1}, rs.ids)
}
