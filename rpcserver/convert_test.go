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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/value"
)

func TestValueFromAnyIntegralFloatBecomesInt64(t *testing.T) {
	v := valueFromAny(float64(42))
	require.Equal(t, value.KindInt64, v.Kind())
	require.Equal(t, int64(42), v.Int64())
}

func TestValueFromAnyFractionalFloatStaysDouble(t *testing.T) {
	v := valueFromAny(3.5)
	require.Equal(t, value.KindDouble, v.Kind())
	require.InDelta(t, 3.5, v.Double(), 0.0001)
}

func TestValueFromAnyScalars(t *testing.T) {
	require.Equal(t, value.KindNull, valueFromAny(nil).Kind())
	require.True(t, valueFromAny(true).Bool())
	require.Equal(t, "hi", valueFromAny("hi").Str())
}

func TestValueFromAnyArrayBecomesComposite(t *testing.T) {
	v := valueFromAny([]interface{}{float64(1), "two"})
	require.Equal(t, value.KindComposite, v.Kind())
	require.Equal(t, 2, len(v.Fields()))
}

func TestAnyFromValueRoundTrip(t *testing.T) {
	require.Nil(t, anyFromValue(value.Null()))
	require.Equal(t, true, anyFromValue(value.Bool(true)))
	require.Equal(t, int64(7), anyFromValue(value.Int(7)))
	require.Equal(t, "x", anyFromValue(value.String("x")))
}

func TestPayloadFromDocRoutesDeclaredAndDynamicFields(t *testing.T) {
	pt := value.NewPayloadType("items", value.Field{Name: "id", Kind: value.KindInt})
	p := payloadFromDoc(pt, map[string]interface{}{
		"id":  float64(5),
		"vip": true,
	})

	v, ok := p.Get("id")
	require.True(t, ok)
	require.Equal(t, int64(5), v.Int64())

	v, ok = p.Get("vip")
	require.True(t, ok)
	require.True(t, v.Bool())
}

func TestDocFromPayloadIncludesDeclaredAndDynamicFields(t *testing.T) {
	pt := value.NewPayloadType("items", value.Field{Name: "id", Kind: value.KindInt})
	p := value.NewPayload(pt)
	p.Set("id", value.Int(5))
	p.Set("vip", value.Bool(true))

	doc := docFromPayload(p)
	require.Equal(t, int64(5), doc["id"])
	require.Equal(t, true, doc["vip"])
}
