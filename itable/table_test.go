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

package itable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/value"
)

func TestTableCreateSetGet(t *testing.T) {
	tbl := New()
	id := tbl.Create()
	require.Equal(t, 0, id)
	tbl.Set(id, &Item{Payload: value.NewPayload(value.NewPayloadType("items"))})

	got := tbl.Get(id)
	require.NotNil(t, got)
	require.Equal(t, id, got.Id)
	require.Equal(t, 1, tbl.Len())
	require.Equal(t, 1, tbl.Cap())
}

func TestTableDeleteReusesFreedSlot(t *testing.T) {
	tbl := New()
	id1 := tbl.Create()
	tbl.Set(id1, &Item{})
	require.NoError(t, tbl.Delete(id1))
	require.Nil(t, tbl.Get(id1))
	require.True(t, tbl.IsFree(id1))

	id2 := tbl.Create()
	require.Equal(t, id1, id2)
	require.Equal(t, 1, tbl.Cap())
}

func TestTableDeleteMissingErrors(t *testing.T) {
	tbl := New()
	require.Error(t, tbl.Delete(0))
	require.Error(t, tbl.Delete(5))
}

func TestTableGetOutOfRange(t *testing.T) {
	tbl := New()
	require.Nil(t, tbl.Get(-1))
	require.Nil(t, tbl.Get(99))
}

func TestTableForEachVisitsLiveItemsInOrder(t *testing.T) {
	tbl := New()
	var ids []IdType
	for i := 0; i < 3; i++ {
		id := tbl.Create()
		tbl.Set(id, &Item{})
		ids = append(ids, id)
	}
	require.NoError(t, tbl.Delete(ids[1]))

	var seen []IdType
	tbl.ForEach(func(id IdType, item *Item) bool {
		seen = append(seen, id)
		return true
	})
	require.Equal(t, []IdType{ids[0], ids[2]}, seen)
}

func TestTableForEachStopsEarly(t *testing.T) {
	tbl := New()
	for i := 0; i < 5; i++ {
		id := tbl.Create()
		tbl.Set(id, &Item{})
	}
	count := 0
	tbl.ForEach(func(id IdType, item *Item) bool {
		count++
		return count < 2
	})
	require.Equal(t, 2, count)
}
