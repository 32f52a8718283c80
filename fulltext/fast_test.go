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

func newCommittedFast(t *testing.T, docs map[DocID]string) *Fast {
	f, err := NewFast(DefaultFastConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	for id, text := range docs {
		f.AddData(text, id, 0, "")
	}
	require.NoError(t, f.Commit(nil))
	return f
}

func TestFastSearchMatchesIndexedTerm(t *testing.T) {
	f := newCommittedFast(t, map[DocID]string{
		1: "the quick brown fox",
		2: "a lazy dog sleeps",
	})

	results, err := f.Search(ParseDSL("fox"))
	require.NoError(t, err)
	require.Equal(t, 1, len(results))
	require.Equal(t, 1, results[0].DocID)
}

func TestFastSearchRequiredAndForbidden(t *testing.T) {
	f := newCommittedFast(t, map[DocID]string{
		1: "apple banana",
		2: "apple cherry",
	})

	results, err := f.Search(ParseDSL("+apple -banana"))
	require.NoError(t, err)
	require.Equal(t, 1, len(results))
	require.Equal(t, 2, results[0].DocID)
}

func TestFastCommitIsIncremental(t *testing.T) {
	f, err := NewFast(DefaultFastConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	f.AddData("first document", 1, 0, "")
	require.NoError(t, f.Commit(nil))

	f.AddData("second document", 2, 0, "")
	require.NoError(t, f.Commit(nil))

	results, err := f.Search(ParseDSL("document"))
	require.NoError(t, err)
	require.Equal(t, 2, len(results))
}

func TestFastSearchNoMatchesReturnsEmpty(t *testing.T) {
	f := newCommittedFast(t, map[DocID]string{1: "hello world"})
	results, err := f.Search(ParseDSL("nonexistentterm"))
	require.NoError(t, err)
	require.Empty(t, results)
}
