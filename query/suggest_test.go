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

package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSchema struct {
	namespaces []string
	fields     map[string][]string
}

func (s *fakeSchema) Namespaces() []string { return s.namespaces }
func (s *fakeSchema) FieldsOf(ns string) []string { return s.fields[ns] }

func TestSuggestAtStart(t *testing.T) {
	sug := Suggest("", 0, nil)
	var texts []string
	for _, s := range sug {
		texts = append(texts, s.Text)
	}
	require.Contains(t, texts, "SELECT")
	require.Contains(t, texts, "DELETE")
}

func TestSuggestNamespaceAfterFrom(t *testing.T) {
	schema := &fakeSchema{namespaces: []string{"items", "orders"}}
	sug := Suggest("SELECT * FROM ", len("SELECT * FROM "), schema)
	var texts []string
	for _, s := range sug {
		require.Equal(t, SuggestNamespace, s.Kind)
		texts = append(texts, s.Text)
	}
	require.ElementsMatch(t, []string{"items", "orders"}, texts)
}

func TestSuggestFieldAfterWhere(t *testing.T) {
	schema := &fakeSchema{
		namespaces: []string{"items"},
		fields:     map[string][]string{"items": {"age", "name"}},
	}
	prefix := "SELECT * FROM items WHERE "
	sug := Suggest(prefix, len(prefix), schema)
	var texts []string
	for _, s := range sug {
		texts = append(texts, s.Text)
	}
	require.Contains(t, texts, "age")
	require.Contains(t, texts, "name")
	require.Contains(t, texts, "NOT")
}

func TestSuggestFiltersByTypedPrefix(t *testing.T) {
	sug := Suggest("SEL", 3, nil)
	for _, s := range sug {
		require.Contains(t, s.Text, "SEL")
	}
}

func TestSuggestClampsOutOfRangeOffset(t *testing.T) {
	require.NotPanics(t, func() {
		Suggest("SELECT", 100, nil)
		Suggest("SELECT", -5, nil)
	})
}
