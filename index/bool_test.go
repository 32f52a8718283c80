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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/value"
)

func TestBoolIndexEQBuckets(t *testing.T) {
	b := NewBoolIndex("vip")
	require.NoError(t, b.Upsert([]value.Value{value.Bool(true)}, 1))
	require.NoError(t, b.Upsert([]value.Value{value.Bool(false)}, 2))

	res, err := b.SelectKey([]value.Value{value.Bool(true)}, CondEQ, SelectOpts{})
	require.NoError(t, err)
	require.True(t, res.Supported)
	require.True(t, res.Entries[0].Contains(1))
	require.False(t, res.Entries[0].Contains(2))
}

func TestBoolIndexOnlySupportsEQ(t *testing.T) {
	b := NewBoolIndex("vip")
	res, err := b.SelectKey([]value.Value{value.Bool(true)}, CondGT, SelectOpts{})
	require.NoError(t, err)
	require.False(t, res.Supported)
}

func TestBoolIndexDelete(t *testing.T) {
	b := NewBoolIndex("vip")
	require.NoError(t, b.Upsert([]value.Value{value.Bool(true)}, 1))
	require.NoError(t, b.Delete([]value.Value{value.Bool(true)}, 1))

	res, _ := b.SelectKey([]value.Value{value.Bool(true)}, CondEQ, SelectOpts{})
	require.Equal(t, 0, res.Entries[0].Len())
}

func TestBoolIndexCloneIsIndependent(t *testing.T) {
	b := NewBoolIndex("vip")
	require.NoError(t, b.Upsert([]value.Value{value.Bool(true)}, 1))
	cloned := b.Clone().(*BoolIndex)
	require.NoError(t, b.Upsert([]value.Value{value.Bool(true)}, 2))

	res, _ := cloned.SelectKey([]value.Value{value.Bool(true)}, CondEQ, SelectOpts{})
	require.Equal(t, 1, res.Entries[0].Len())
}

func TestBoolIndexMemStat(t *testing.T) {
	b := NewBoolIndex("vip")
	require.NoError(t, b.Upsert([]value.Value{value.Bool(true)}, 1))
	stat := b.MemStat()
	require.Equal(t, 2, stat.KeysCount)
	require.Equal(t, 1, stat.IdsCount)
}
