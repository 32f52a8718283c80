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

func TestParseCompositeExprWithAlias(t *testing.T) {
	fields, alias := ParseCompositeExpr("author+year=book_key")
	require.Equal(t, []string{"author", "year"}, fields)
	require.Equal(t, "book_key", alias)
}

func TestParseCompositeExprDefaultAlias(t *testing.T) {
	fields, alias := ParseCompositeExpr("a + b")
	require.Equal(t, []string{"a", "b"}, fields)
	require.Equal(t, "a+b", alias)
}

func TestCompositeIndexHashBacked(t *testing.T) {
	c := NewCompositeIndex([]string{"author", "year"}, "book_key", false, NewStringPool())
	require.Equal(t, KindComposite, c.Kind())
	require.Equal(t, "book_key", c.FieldName())
	require.Equal(t, []string{"author", "year"}, c.Fields())

	key := value.Composite([]value.Value{value.String("tolkien"), value.Int(1954)})
	require.NoError(t, c.Upsert([]value.Value{key}, 1))

	res, err := c.SelectKey([]value.Value{key}, CondEQ, SelectOpts{})
	require.NoError(t, err)
	require.True(t, res.Supported)
	require.True(t, res.Entries[0].Contains(1))
}

func TestCompositeIndexOrderedBacked(t *testing.T) {
	c := NewCompositeIndex([]string{"a", "b"}, "ab", true, NewStringPool())
	ok, err := c.UpdateSortedIds(nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompositeIndexClone(t *testing.T) {
	c := NewCompositeIndex([]string{"author", "year"}, "book_key", false, NewStringPool())
	key := value.Composite([]value.Value{value.String("tolkien"), value.Int(1954)})
	require.NoError(t, c.Upsert([]value.Value{key}, 1))

	cloned := c.Clone().(*CompositeIndex)
	require.NoError(t, c.Delete([]value.Value{key}, 1))

	res, _ := cloned.SelectKey([]value.Value{key}, CondEQ, SelectOpts{})
	require.True(t, res.Entries[0].Contains(1))
}
