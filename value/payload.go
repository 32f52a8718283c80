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
	"hash/fnv"
)

// Field describes one fixed-prefix column of a PayloadType.
type Field struct {
	Name    string
	Kind    Kind
	IsArray bool
	Collate Collate
}

// PayloadType is the ordered field list a Namespace declares for its fixed
// row prefix. Fields not declared here travel in an item's dynamic body
// instead (see item.Dynamic), the way the spec's CJSON tag-keyed body holds
// anything outside the fixed payload row.
type PayloadType struct {
	Name     string
	Fields   []Field
	fieldIdx map[string]int
}

func NewPayloadType(name string, fields ...Field) *PayloadType {
	pt := &PayloadType{Name: name, Fields: fields, fieldIdx: make(map[string]int, len(fields))}
	for i, f := range fields {
		pt.fieldIdx[f.Name] = i
	}
	return pt
}

// FieldIndex returns the offset of a declared field, or -1 if it is not
// part of the fixed prefix (and therefore lives in the dynamic body).
func (pt *PayloadType) FieldIndex(name string) int {
	if pt == nil {
		return -1
	}
	if i, ok := pt.fieldIdx[name]; ok {
		return i
	}
	return -1
}

func (pt *PayloadType) Field(i int) Field { return pt.Fields[i] }

// AddField extends the fixed prefix. Namespaces call this when a schema
// evolves; existing rows keep their shorter prefix and read missing fields
// as null until rewritten, mirroring the spec's tag-matcher extension story
// for transactions bound to an older payload-type version.
func (pt *PayloadType) AddField(f Field) int {
	pt.Fields = append(pt.Fields, f)
	idx := len(pt.Fields) - 1
	pt.fieldIdx[f.Name] = idx
	return idx
}

// Payload is a row view: a fixed-prefix Value slice (one per PayloadType
// field, in declared order) plus a dynamic tag-keyed body for fields outside
// the schema. This replaces the C++ byte-offset struct row with a Go slice
// of Values addressed by field index -- same external contract (O(1) access
// by declared field, dynamic fields keyed separately), idiomatic storage.
type Payload struct {
	Type    *PayloadType
	Values  []Value          // len == len(Type.Fields); array fields store Composite
	Dynamic map[string]Value // JSON-path -> value, for undeclared fields
}

func NewPayload(pt *PayloadType) *Payload {
	return &Payload{
		Type:    pt,
		Values:  make([]Value, len(pt.Fields)),
		Dynamic: make(map[string]Value),
	}
}

func (p *Payload) Get(name string) (Value, bool) {
	if idx := p.Type.FieldIndex(name); idx >= 0 {
		if idx >= len(p.Values) {
			return Null(), true
		}
		return p.Values[idx], true
	}
	v, ok := p.Dynamic[name]
	return v, ok
}

func (p *Payload) Set(name string, v Value) {
	if idx := p.Type.FieldIndex(name); idx >= 0 {
		p.Values[idx] = v
		return
	}
	p.Dynamic[name] = v
}

// Len returns the number of elements if the named field is an array
// (a composite of repeated scalars), else 1 for a present scalar and 0 for
// an absent field.
func (p *Payload) Len(name string) int {
	v, ok := p.Get(name)
	if !ok || v.IsNull() {
		return 0
	}
	if v.Kind() == KindComposite {
		return len(v.Fields())
	}
	return 1
}

// Composite materializes a concatenated key for a composite index
// expression by reading each named component field, in declared order.
func (p *Payload) Composite(fieldNames []string) Value {
	fs := make([]Value, len(fieldNames))
	for i, n := range fieldNames {
		v, _ := p.Get(n)
		fs[i] = v
	}
	return Composite(fs)
}

// Hash is a cheap structural hash used by the column store / distinct
// projections; it is not a cryptographic hash.
func (p *Payload) Hash() uint64 {
	h := fnv.New64a()
	for _, v := range p.Values {
		h.Write([]byte(v.String()))
		h.Write([]byte{byte(v.Kind())})
	}
	return h.Sum64()
}

// Equal compares two payloads of the same PayloadType field-by-field using
// byte-wise collation; used by Distinct projections and dedup.
func (p *Payload) Equal(o *Payload) bool {
	if len(p.Values) != len(o.Values) {
		return false
	}
	for i := range p.Values {
		c, err := Compare(p.Values[i], o.Values[i], CollateNone)
		if err != nil || c != 0 {
			return false
		}
	}
	return true
}
