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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/query"
	"github.com/nsdb/nsdb/value"
)

func sampleSource() *fakeSource {
	return newFakeSource(map[int][2]interface{}{
		1: {"alice", 20},
		2: {"bob", 30},
		3: {"carol", 40},
	})
}

func TestPlanSingleLeafFilter(t *testing.T) {
	src := sampleSource()
	q := query.New("items")
	q.Entries = []query.FilterEntry{{Field: "age", Cond: query.CondGT, Values: []value.Value{value.Int(25)}}}

	res, err := Plan(context.Background(), q, src, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{2, 3}, res.Ids)
}

func TestPlanCanceledContextReturnsTypedError(t *testing.T) {
	rows := make(map[int][2]interface{}, 2000)
	for i := 0; i < 2000; i++ {
		rows[i] = [2]interface{}{"row", i}
	}
	src := newFakeSource(rows)
	q := query.New("items")
	q.Entries = []query.FilterEntry{{Field: "age", Cond: query.CondGE, Values: []value.Value{value.Int(0)}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Plan(ctx, q, src, nil)
	require.Error(t, err)
	require.Equal(t, nsdberrors.KindCanceled, nsdberrors.KindOf(err))
}

func TestPlanDeadlineExceededReturnsTimeoutKind(t *testing.T) {
	rows := make(map[int][2]interface{}, 2000)
	for i := 0; i < 2000; i++ {
		rows[i] = [2]interface{}{"row", i}
	}
	src := newFakeSource(rows)
	q := query.New("items")
	q.Entries = []query.FilterEntry{{Field: "age", Cond: query.CondGE, Values: []value.Value{value.Int(0)}}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := Plan(ctx, q, src, nil)
	require.Error(t, err)
	require.Equal(t, nsdberrors.KindTimeout, nsdberrors.KindOf(err))
}

func TestPlanAndOrCombinators(t *testing.T) {
	src := sampleSource()
	q := query.New("items")
	q.Entries = []query.FilterEntry{
		{Field: "age", Cond: query.CondGT, Values: []value.Value{value.Int(25)}},
		{Op: query.OpOr, Field: "name", Cond: query.CondEQ, Values: []value.Value{value.String("alice")}},
	}

	res, err := Plan(context.Background(), q, src, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2, 3}, res.Ids)
}

func TestPlanNotCombinator(t *testing.T) {
	src := sampleSource()
	q := query.New("items")
	q.Entries = []query.FilterEntry{
		{Op: query.OpNot, Field: "name", Cond: query.CondEQ, Values: []value.Value{value.String("alice")}},
	}

	res, err := Plan(context.Background(), q, src, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{2, 3}, res.Ids)
}

func TestPlanPagination(t *testing.T) {
	src := sampleSource()
	q := query.New("items")
	q.Sort = []query.SortEntry{{Field: "age"}}
	q.Limit = 1
	q.Offset = 1
	q.ReqTotal = true

	res, err := Plan(context.Background(), q, src, nil)
	require.NoError(t, err)
	require.Equal(t, []int{2}, res.Ids)
	require.Equal(t, 3, res.Total)
}

func TestPlanExplainPopulatesTree(t *testing.T) {
	src := sampleSource()
	q := query.New("items")
	q.Entries = []query.FilterEntry{{Field: "age", Cond: query.CondGT, Values: []value.Value{value.Int(25)}}}
	q.Explain = true

	res, err := Plan(context.Background(), q, src, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Explain)
}

func TestPaginateBounds(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5}
	require.Equal(t, []int{2, 3}, paginate(ids, 1, 2))
	require.Nil(t, paginate(ids, 10, 2))
	require.Equal(t, []int{4, 5}, paginate(ids, 3, 0))
}
