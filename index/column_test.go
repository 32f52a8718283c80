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

func TestColumnIndexNeverSupportsSelectKey(t *testing.T) {
	c := NewColumnIndex("age", value.CollateNone)
	require.NoError(t, c.Upsert([]value.Value{value.Int(10)}, 1))
	res, err := c.SelectKey([]value.Value{value.Int(10)}, CondEQ, SelectOpts{})
	require.NoError(t, err)
	require.False(t, res.Supported)
	require.Empty(t, c.Conditions())
}

func TestColumnIndexComparatorEQ(t *testing.T) {
	c := NewColumnIndex("age", value.CollateNone)
	require.NoError(t, c.Upsert([]value.Value{value.Int(10)}, 1))
	require.NoError(t, c.Upsert([]value.Value{value.Int(20)}, 2))

	ok, err := c.Comparator(1, CondEQ, []value.Value{value.Int(10)})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.Comparator(2, CondEQ, []value.Value{value.Int(10)})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestColumnIndexComparatorMissingIsEmpty(t *testing.T) {
	c := NewColumnIndex("age", value.CollateNone)
	ok, err := c.Comparator(99, CondEMPTY, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestColumnIndexDeleteAndClone(t *testing.T) {
	c := NewColumnIndex("age", value.CollateNone)
	require.NoError(t, c.Upsert([]value.Value{value.Int(10)}, 1))
	cp := c.Clone().(*ColumnIndex)
	require.NoError(t, c.Delete(nil, 1))

	ok, _ := c.Comparator(1, CondEMPTY, nil)
	require.True(t, ok)
	ok, _ = cp.Comparator(1, CondEMPTY, nil)
	require.False(t, ok)
}

func TestMatchConditions(t *testing.T) {
	ok, err := Match(value.Int(5), CondGT, []value.Value{value.Int(3)}, value.CollateNone)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Match(value.Int(5), CondRANGE, []value.Value{value.Int(1), value.Int(10)}, value.CollateNone)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Match(value.Null(), CondEMPTY, nil, value.CollateNone)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMatchLikeWildcards(t *testing.T) {
	ok, err := Match(value.String("hello"), CondLIKE, []value.Value{value.String("h_l%")}, value.CollateNone)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Match(value.String("world"), CondLIKE, []value.Value{value.String("h%")}, value.CollateNone)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestColumnIndexArrayValueUntracked(t *testing.T) {
	c := NewColumnIndex("tags", value.CollateNone)
	require.NoError(t, c.Upsert([]value.Value{value.String("a"), value.String("b")}, 1))
	ok, _ := c.Comparator(1, CondEMPTY, nil)
	require.True(t, ok)
}
