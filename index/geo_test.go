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

package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/value"
)

func TestGeoIndexDWithinFindsNearbyPoints(t *testing.T) {
	g := NewGeoIndex("loc")
	require.NoError(t, g.Upsert([]value.Value{value.PointVal(value.Point{X: 0, Y: 0})}, 1))
	require.NoError(t, g.Upsert([]value.Value{value.PointVal(value.Point{X: 10, Y: 10})}, 2))

	res, err := g.SelectKey([]value.Value{value.PointVal(value.Point{X: 0, Y: 0}), value.Double(2)}, CondDWITHIN, SelectOpts{})
	require.NoError(t, err)
	require.True(t, res.Supported)
	require.True(t, res.Entries[0].Contains(1))
	require.False(t, res.Entries[0].Contains(2))
}

func TestGeoIndexOnlySupportsDWithin(t *testing.T) {
	g := NewGeoIndex("loc")
	res, err := g.SelectKey([]value.Value{value.PointVal(value.Point{})}, CondEQ, SelectOpts{})
	require.NoError(t, err)
	require.False(t, res.Supported)
	require.Equal(t, []Condition{CondDWITHIN}, g.Conditions())
}

func TestGeoIndexDelete(t *testing.T) {
	g := NewGeoIndex("loc")
	pt := value.PointVal(value.Point{X: 1, Y: 1})
	require.NoError(t, g.Upsert([]value.Value{pt}, 1))
	require.NoError(t, g.Delete([]value.Value{pt}, 1))

	res, err := g.SelectKey([]value.Value{pt, value.Double(5)}, CondDWITHIN, SelectOpts{})
	require.NoError(t, err)
	require.Equal(t, 0, res.Entries[0].Len())
}

func TestGeoIndexCloneIsIndependent(t *testing.T) {
	g := NewGeoIndex("loc")
	pt := value.PointVal(value.Point{X: 0, Y: 0})
	require.NoError(t, g.Upsert([]value.Value{pt}, 1))

	cloned := g.Clone().(*GeoIndex)
	require.NoError(t, g.Delete([]value.Value{pt}, 1))

	res, _ := cloned.SelectKey([]value.Value{pt, value.Double(1)}, CondDWITHIN, SelectOpts{})
	require.True(t, res.Entries[0].Contains(1))
}
