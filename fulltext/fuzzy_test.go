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

package fulltext

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTrigramsPadsShortWords(t *testing.T) {
	tg := trigrams("ab")
	require.NotEmpty(t, tg)
}

func TestTrigramsOfWord(t *testing.T) {
	tg := trigrams("cat")
	require.Contains(t, tg, " ca")
	require.Contains(t, tg, "cat")
	require.Contains(t, tg, "at ")
}

func TestFuzzySearchExactMatchScoresTop(t *testing.T) {
	f := NewFuzzy(DefaultFuzzyConfig())
	f.AddData("hello world", 1, 0, "")
	f.AddData("goodbye moon", 2, 0, "")

	results, err := f.Search(ParseDSL("hello"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, 1, results[0].DocID)
	require.InDelta(t, 100, results[0].Score, 0.0001)
}

func TestFuzzySearchTypoStillMatches(t *testing.T) {
	f := NewFuzzy(FuzzyConfig{MinOkProc: 1})
	f.AddData("database", 1, 0, "")

	results, err := f.Search(ParseDSL("databse"))
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Equal(t, 1, results[0].DocID)
}

func TestFuzzySearchNoCandidatesReturnsNil(t *testing.T) {
	f := NewFuzzy(DefaultFuzzyConfig())
	f.AddData("something", 1, 0, "")

	results, err := f.Search(ParseDSL("zzz"))
	require.NoError(t, err)
	require.Nil(t, results)
}

func TestFuzzySearchFiltersBelowMinOkProc(t *testing.T) {
	f := NewFuzzy(FuzzyConfig{MinOkProc: 99})
	f.AddData("hello", 1, 0, "")
	f.AddData("help", 2, 0, "")

	results, err := f.Search(ParseDSL("hello"))
	require.NoError(t, err)
	for _, r := range results {
		require.GreaterOrEqual(t, r.Score, 99.0)
	}
}

func TestFuzzyCommitIsNoOp(t *testing.T) {
	f := NewFuzzy(DefaultFuzzyConfig())
	require.NoError(t, f.Commit(nil))
}
