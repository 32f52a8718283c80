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

func TestCompareNumeric(t *testing.T) {
	c, err := Compare(Int(1), Double(1.5), CollateNone)
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Compare(Int64(10), Int(10), CollateNone)
	require.NoError(t, err)
	require.Equal(t, 0, c)
}

func TestCompareNull(t *testing.T) {
	c, err := Compare(Null(), Int(1), CollateNone)
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Compare(Int(1), Null(), CollateNone)
	require.NoError(t, err)
	require.Equal(t, 1, c)

	c, err = Compare(Null(), Null(), CollateNone)
	require.NoError(t, err)
	require.Equal(t, 0, c)
}

func TestCompareStringCollation(t *testing.T) {
	c, err := Compare(String("a"), String("A"), CollateNone)
	require.NoError(t, err)
	require.NotEqual(t, 0, c)

	c, err = Compare(String("a"), String("A"), CollateUTF8)
	require.NoError(t, err)
	require.Equal(t, 0, c)

	c, err = Compare(String("item9"), String("item10"), CollateNumeric)
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Compare(String("item9"), String("item10"), CollateNone)
	require.NoError(t, err)
	require.Equal(t, 1, c)
}

func TestCompareIncompatible(t *testing.T) {
	_, err := Compare(String("a"), PointVal(Point{}), CollateNone)
	require.ErrorIs(t, err, ErrIncompatibleTypes)
}

func TestCompareComposite(t *testing.T) {
	a := Composite([]Value{Int(1), String("x")})
	b := Composite([]Value{Int(1), String("y")})
	c, err := Compare(a, b, CollateNone)
	require.NoError(t, err)
	require.Equal(t, -1, c)

	c, err = Compare(a, a, CollateNone)
	require.NoError(t, err)
	require.Equal(t, 0, c)
}

func TestValueStringFormatting(t *testing.T) {
	require.Equal(t, "true", Bool(true).String())
	require.Equal(t, "42", Int(42).String())
	require.Equal(t, "null", Null().String())
	require.Equal(t, "1|x", Composite([]Value{Int(1), String("x")}).String())
}

func TestValueFloatWidening(t *testing.T) {
	require.Equal(t, 3.0, Int(3).Float())
	require.Equal(t, 3.0, Int64(3).Float())
	require.Equal(t, 3.5, Double(3.5).Float())
	require.Equal(t, 0.0, String("x").Float())
}
