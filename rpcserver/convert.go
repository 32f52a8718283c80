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

package rpcserver

import (
	"fmt"
	"math"

	"github.com/nsdb/nsdb/value"
)

// valueFromAny turns one decoded JSON value into the engine's Value union,
// the same widening encoding/json itself does (numbers always arrive as
// float64) reversed at the boundary: integral floats become KindInt64 so a
// round-tripped document doesn't silently turn every id into a double.
func valueFromAny(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null()
	case bool:
		return value.Bool(t)
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return value.Int64(int64(t))
		}
		return value.Double(t)
	case string:
		return value.String(t)
	case []interface{}:
		fs := make([]value.Value, len(t))
		for i, e := range t {
			fs[i] = valueFromAny(e)
		}
		return value.Composite(fs)
	default:
		return value.String(fmt.Sprint(t))
	}
}

func anyFromValue(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool()
	case value.KindInt, value.KindInt64:
		return v.Int64()
	case value.KindDouble:
		return v.Double()
	case value.KindString:
		return v.Str()
	case value.KindComposite:
		fs := v.Fields()
		out := make([]interface{}, len(fs))
		for i, f := range fs {
			out[i] = anyFromValue(f)
		}
		return out
	default:
		return v.String()
	}
}

// payloadFromDoc builds a Payload for pt out of a decoded JSON object,
// routing declared fields into the fixed prefix and everything else into
// the dynamic body, per value.Payload's contract.
func payloadFromDoc(pt *value.PayloadType, doc map[string]interface{}) *value.Payload {
	p := value.NewPayload(pt)
	for k, v := range doc {
		p.Set(k, valueFromAny(v))
	}
	return p
}

func docFromPayload(p *value.Payload) map[string]interface{} {
	out := make(map[string]interface{}, len(p.Type.Fields)+len(p.Dynamic))
	for i, f := range p.Type.Fields {
		out[f.Name] = anyFromValue(p.Values[i])
	}
	for k, v := range p.Dynamic {
		out[k] = anyFromValue(v)
	}
	return out
}
