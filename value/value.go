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

// Package value holds the scalar/array value model shared by the item
// table, the index layer and the query planner: a small tagged union
// (Kind) plus the collation rules used to order and compare it.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cubefs/cubefs/blobstore/util/errors"
)

// Kind tags the type carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindInt64
	KindDouble
	KindString
	KindComposite
	KindPoint
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindComposite:
		return "composite"
	case KindPoint:
		return "point"
	default:
		return "unknown"
	}
}

func (k Kind) numeric() bool {
	return k == KindInt || k == KindInt64 || k == KindDouble
}

// Collate is the ordering rule applied to string values. Non-string kinds
// ignore it.
type Collate int

const (
	CollateNone Collate = iota
	CollateASCII
	CollateUTF8
	CollateNumeric
	CollateCustom
)

// Point is a 2D coordinate used by the geometry index.
type Point struct {
	X, Y float64
}

// Value is a reference-counted-at-the-index-layer scalar, composite or
// point. String interning/refcounting lives in index.StringPool, not here:
// Value just carries the Go string by value, the pool is what makes repeated
// equal strings share one backing array and tracks liveness.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	pt     Point
	fields []Value // KindComposite
}

func Null() Value                { return Value{kind: KindNull} }
func Bool(v bool) Value          { return Value{kind: KindBool, b: v} }
func Int(v int) Value            { return Value{kind: KindInt, i: int64(v)} }
func Int64(v int64) Value        { return Value{kind: KindInt64, i: v} }
func Double(v float64) Value     { return Value{kind: KindDouble, f: v} }
func String(v string) Value      { return Value{kind: KindString, s: v} }
func PointVal(v Point) Value     { return Value{kind: KindPoint, pt: v} }
func Composite(fs []Value) Value { return Value{kind: KindComposite, fields: fs} }

func (v Value) Kind() Kind          { return v.kind }
func (v Value) IsNull() bool        { return v.kind == KindNull }
func (v Value) Bool() bool          { return v.b }
func (v Value) Int() int            { return int(v.i) }
func (v Value) Int64() int64        { return v.i }
func (v Value) Double() float64     { return v.f }
func (v Value) Str() string         { return v.s }
func (v Value) Point() Point        { return v.pt }
func (v Value) Fields() []Value     { return v.fields }

// Float returns the numeric value widened to float64, for any numeric kind.
func (v Value) Float() float64 {
	switch v.kind {
	case KindInt, KindInt64:
		return float64(v.i)
	case KindDouble:
		return v.f
	default:
		return 0
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindPoint:
		return fmt.Sprintf("(%g,%g)", v.pt.X, v.pt.Y)
	case KindComposite:
		parts := make([]string, len(v.fields))
		for i, f := range v.fields {
			parts[i] = f.String()
		}
		return strings.Join(parts, "|")
	default:
		return ""
	}
}

// ErrIncompatibleTypes is returned by Compare when two Values carry tags
// that cannot be ordered against each other (e.g. string vs point).
var ErrIncompatibleTypes = errors.New("value: incompatible types in comparison")

// Compare orders a against b under the given collation. Compatible numeric
// kinds widen to float64 before comparing; incompatible tags return
// ErrIncompatibleTypes. 0 means equal, <0 means a<b, >0 means a>b.
func Compare(a, b Value, collate Collate) (int, error) {
	if a.kind == KindNull || b.kind == KindNull {
		if a.kind == b.kind {
			return 0, nil
		}
		if a.kind == KindNull {
			return -1, nil
		}
		return 1, nil
	}

	if a.kind == KindString && b.kind == KindString {
		return compareStrings(a.s, b.s, collate), nil
	}

	if a.kind.numeric() && b.kind.numeric() {
		af, bf := a.Float(), b.Float()
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if a.kind == KindPoint && b.kind == KindPoint {
		if a.pt == b.pt {
			return 0, nil
		}
		// points have no total order; used only for equality/DWITHIN.
		return 1, nil
	}

	if a.kind == KindComposite && b.kind == KindComposite {
		return compareComposite(a.fields, b.fields, collate)
	}

	if a.kind == KindBool && b.kind == KindBool {
		if a.b == b.b {
			return 0, nil
		}
		if !a.b {
			return -1, nil
		}
		return 1, nil
	}

	return 0, errors.Info(ErrIncompatibleTypes, fmt.Sprintf("compare %s vs %s", a.kind, b.kind))
}

func compareComposite(a, b []Value, collate Collate) (int, error) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		c, err := Compare(a[i], b[i], collate)
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return len(a) - len(b), nil
}

func compareStrings(a, b string, collate Collate) int {
	switch collate {
	case CollateASCII:
		return strings.Compare(strings.ToUpper(a), strings.ToUpper(b))
	case CollateUTF8:
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	case CollateNumeric:
		return compareNumeric(a, b)
	default:
		return strings.Compare(a, b)
	}
}

// compareNumeric compares numeric substrings embedded in otherwise textual
// strings as numbers (e.g. "item9" < "item10"), matching CollateNumeric.
func compareNumeric(a, b string) int {
	ai, bi := 0, 0
	for ai < len(a) && bi < len(b) {
		ac, bc := a[ai], b[bi]
		aDigit, bDigit := isDigit(ac), isDigit(bc)
		switch {
		case aDigit && bDigit:
			as, ae := scanDigits(a, ai)
			bs, be := scanDigits(b, bi)
			an, _ := strconv.ParseInt(a[as:ae], 10, 64)
			bn, _ := strconv.ParseInt(b[bs:be], 10, 64)
			if an != bn {
				if an < bn {
					return -1
				}
				return 1
			}
			ai, bi = ae, be
		default:
			if ac != bc {
				if ac < bc {
					return -1
				}
				return 1
			}
			ai++
			bi++
		}
	}
	return (len(a) - ai) - (len(b) - bi)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func scanDigits(s string, start int) (int, int) {
	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return start, end
}
