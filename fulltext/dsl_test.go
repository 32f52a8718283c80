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

func TestParseDSLPlainTerms(t *testing.T) {
	d := ParseDSL("hello world")
	require.Equal(t, 2, len(d.Terms))
	require.Equal(t, "hello", d.Terms[0].Text)
	require.Equal(t, "world", d.Terms[1].Text)
}

func TestParseDSLRequiredAndForbidden(t *testing.T) {
	d := ParseDSL("+must -avoid plain")
	require.True(t, d.Terms[0].Required)
	require.True(t, d.Terms[1].Forbidden)
	require.False(t, d.Terms[2].Required)
	require.False(t, d.Terms[2].Forbidden)
}

func TestParseDSLPhrase(t *testing.T) {
	d := ParseDSL(`"quick brown fox" jumps`)
	require.Equal(t, 1, len(d.Phrases))
	require.Equal(t, []string{"quick", "brown", "fox"}, d.Phrases[0].Words)
	require.Equal(t, 1, len(d.Terms))
	require.Equal(t, "jumps", d.Terms[0].Text)
}

func TestParseDSLFieldAndBoost(t *testing.T) {
	d := ParseDSL("title:hello^2.5")
	require.Equal(t, 1, len(d.Terms))
	require.Equal(t, "title", d.Terms[0].Field)
	require.Equal(t, "hello", d.Terms[0].Text)
	require.InDelta(t, 2.5, d.Terms[0].Boost, 0.0001)
}

func TestParseDSLPrefix(t *testing.T) {
	d := ParseDSL("wor*")
	require.Equal(t, 1, len(d.Terms))
	require.True(t, d.Terms[0].Prefix)
	require.Equal(t, "wor", d.Terms[0].Text)
}

func TestParseDSLDefaultBoostIsOne(t *testing.T) {
	d := ParseDSL("plain")
	require.InDelta(t, 1.0, d.Terms[0].Boost, 0.0001)
}

func TestTokenizeLowercasesAndSplitsOnPunctuation(t *testing.T) {
	words := Tokenize("Hello, World! foo-bar", "")
	require.Equal(t, []string{"hello", "world", "foo", "bar"}, words)
}

func TestTokenizeHonorsExtraWordSymbols(t *testing.T) {
	words := Tokenize("foo-bar baz", "-")
	require.Equal(t, []string{"foo-bar", "baz"}, words)
}
