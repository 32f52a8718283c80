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

package optimizer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nsdb/nsdb/index"
)

type fakeOptSource struct {
	indexes []index.Index
	swept   int32
}

func (s *fakeOptSource) AllIndexes() []index.Index { return s.indexes }
func (s *fakeOptSource) SweepExpired(now time.Time) int {
	atomic.AddInt32(&s.swept, 1)
	return 0
}

func TestOptimizerRunReachesCompletedPhase(t *testing.T) {
	src := &fakeOptSource{indexes: []index.Index{index.NewHashIndex("id", true, index.NewStringPool())}}
	o := New("items", src, Config{Interval: 5 * time.Millisecond, Concurrency: 2})
	o.Run()
	defer o.Stop()

	require.Eventually(t, func() bool {
		return o.Phase() == OptimizationCompleted
	}, time.Second, 2*time.Millisecond)
	require.True(t, atomic.LoadInt32(&src.swept) > 0)
}

func TestOptimizerInterruptWithNoPassRunningIsSafe(t *testing.T) {
	src := &fakeOptSource{}
	o := New("items", src, DefaultConfig())
	o.Run()
	defer o.Stop()
	require.NotPanics(t, func() { o.Interrupt() })
}

func TestOptimizerPhaseStringer(t *testing.T) {
	require.Equal(t, "not_optimized", NotOptimized.String())
	require.Equal(t, "optimizing_indexes", OptimizingIndexes.String())
	require.Equal(t, "optimizing_sort_orders", OptimizingSortOrders.String())
	require.Equal(t, "completed", OptimizationCompleted.String())
}

func TestOptimizerDefaultConfigFillsConcurrency(t *testing.T) {
	o := New("items", &fakeOptSource{}, Config{})
	require.Equal(t, 4, o.cfg.Concurrency)
}

func TestOptimizerStopWithoutRunIsSafe(t *testing.T) {
	o := New("items", &fakeOptSource{}, DefaultConfig())
	require.NotPanics(t, func() { o.Stop() })
}
