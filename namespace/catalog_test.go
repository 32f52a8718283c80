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

package namespace

import (
	"testing"

	"github.com/stretchr/testify/require"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/value"
)

func newTestPayloadType() *value.PayloadType {
	return value.NewPayloadType("items",
		value.Field{Name: "id", Kind: value.KindInt},
		value.Field{Name: "name", Kind: value.KindString},
	)
}

func TestCatalogCreateAndDropNamespace(t *testing.T) {
	c := NewCatalog(nil, DefaultConfig())
	pt := newTestPayloadType()

	ns, err := c.CreateNamespace("items", pt, "id")
	require.NoError(t, err)
	require.NotNil(t, ns)

	_, err = c.CreateNamespace("items", pt, "id")
	require.ErrorIs(t, err, nsdberrors.ErrNamespaceAlreadyCreated)

	got, ok := c.Namespace("items")
	require.True(t, ok)
	require.Same(t, ns, got)

	require.NoError(t, c.DropNamespace("items"))
	_, ok = c.Namespace("items")
	require.False(t, ok)
}

func TestCatalogCreateNamespaceRejectsUnknownPK(t *testing.T) {
	c := NewCatalog(nil, DefaultConfig())
	pt := newTestPayloadType()

	_, err := c.CreateNamespace("items", pt, "nope")
	require.Error(t, err)
}

func TestNamespaceCreateIndexVariants(t *testing.T) {
	c := NewCatalog(nil, DefaultConfig())
	pt := newTestPayloadType()
	ns, err := c.CreateNamespace("items", pt, "id")
	require.NoError(t, err)

	require.NoError(t, ns.CreateIndex(IndexSpec{Field: "id", Kind: index.KindHash, PK: true}))
	require.NoError(t, ns.CreateIndex(IndexSpec{Field: "name", Kind: index.KindOrdered}))

	err = ns.CreateIndex(IndexSpec{Field: "id", Kind: index.KindHash, PK: true})
	require.ErrorIs(t, err, nsdberrors.ErrIndexAlreadyExists)
}

func TestNamespaceCreateIndexUnsupportedKind(t *testing.T) {
	c := NewCatalog(nil, DefaultConfig())
	pt := newTestPayloadType()
	ns, err := c.CreateNamespace("items", pt, "id")
	require.NoError(t, err)

	err = ns.CreateIndex(IndexSpec{Field: "name", Kind: index.Kind(99)})
	require.Error(t, err)
}
