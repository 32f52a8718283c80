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

package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPayloadType() *PayloadType {
	return NewPayloadType("items",
		Field{Name: "id", Kind: KindInt},
		Field{Name: "name", Kind: KindString},
	)
}

func TestPayloadGetSetFixed(t *testing.T) {
	pt := newTestPayloadType()
	p := NewPayload(pt)
	p.Set("id", Int(1))
	p.Set("name", String("alice"))

	v, ok := p.Get("id")
	require.True(t, ok)
	require.Equal(t, 1, v.Int())

	require.Equal(t, 0, pt.FieldIndex("id"))
	require.Equal(t, -1, pt.FieldIndex("missing"))
}

func TestPayloadDynamicField(t *testing.T) {
	pt := newTestPayloadType()
	p := NewPayload(pt)
	p.Set("tag", String("vip"))

	v, ok := p.Get("tag")
	require.True(t, ok)
	require.Equal(t, "vip", v.Str())
	require.True(t, p.Values[0].IsNull())
}

func TestPayloadComposite(t *testing.T) {
	pt := newTestPayloadType()
	p := NewPayload(pt)
	p.Set("id", Int(7))
	p.Set("name", String("bob"))

	c := p.Composite([]string{"id", "name"})
	require.Equal(t, KindComposite, c.Kind())
	require.Equal(t, 2, len(c.Fields()))
}

func TestPayloadEqual(t *testing.T) {
	pt := newTestPayloadType()
	a := NewPayload(pt)
	a.Set("id", Int(1))
	b := NewPayload(pt)
	b.Set("id", Int(1))
	require.True(t, a.Equal(b))

	b.Set("id", Int(2))
	require.False(t, a.Equal(b))
}

func TestPayloadTypeAddField(t *testing.T) {
	pt := newTestPayloadType()
	idx := pt.AddField(Field{Name: "age", Kind: KindInt})
	require.Equal(t, 2, idx)
	require.Equal(t, 2, pt.FieldIndex("age"))
}

func TestPayloadLen(t *testing.T) {
	pt := newTestPayloadType()
	p := NewPayload(pt)
	require.Equal(t, 0, p.Len("id"))
	p.Set("id", Int(1))
	require.Equal(t, 1, p.Len("id"))
	p.Set("id", Composite([]Value{Int(1), Int(2), Int(3)}))
	require.Equal(t, 3, p.Len("id"))
}
