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

	"github.com/nsdb/nsdb/fulltext"
	"github.com/nsdb/nsdb/value"
)

func TestFastTextIndexSearchAfterCommit(t *testing.T) {
	ti, err := NewFastTextIndex("body", fulltext.DefaultFastConfig())
	require.NoError(t, err)
	require.Equal(t, KindFullTextFast, ti.Kind())

	require.NoError(t, ti.Upsert([]value.Value{value.String("the quick brown fox")}, 1))
	require.NoError(t, ti.Commit())

	results, err := ti.SearchText(fulltext.ParseDSL("fox"))
	require.NoError(t, err)
	require.Equal(t, 1, len(results))
	require.Equal(t, 1, results[0].DocID)
}

func TestFuzzyTextIndexSearch(t *testing.T) {
	ti := NewFuzzyTextIndex("body", fulltext.DefaultFuzzyConfig())
	require.Equal(t, KindFullTextFuzzy, ti.Kind())

	require.NoError(t, ti.Upsert([]value.Value{value.String("database engine")}, 1))
	require.NoError(t, ti.Commit())

	results, err := ti.SearchText(fulltext.ParseDSL("database"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
}

func TestTextIndexSelectKeyUnsupported(t *testing.T) {
	ti := NewFuzzyTextIndex("body", fulltext.DefaultFuzzyConfig())
	res, err := ti.SelectKey(nil, CondEQ, SelectOpts{})
	require.NoError(t, err)
	require.False(t, res.Supported)
	require.Empty(t, ti.Conditions())
}

func TestTextIndexIgnoresNonStringValues(t *testing.T) {
	ti := NewFuzzyTextIndex("body", fulltext.DefaultFuzzyConfig())
	require.NoError(t, ti.Upsert([]value.Value{value.Int(42)}, 1))
	require.NoError(t, ti.Commit())

	results, err := ti.SearchText(fulltext.ParseDSL("42"))
	require.NoError(t, err)
	require.Empty(t, results)
}
