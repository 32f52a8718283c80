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

// Package optimizer runs the background index-optimization pass of
// spec.md §4.9: rebuilding every ordered index's dense sort-rank
// permutation and sweeping string-pool and TTL expiry, all cooperatively
// cancellable so a foreground write can interrupt it. Grounded on the
// teacher's errgroup-based fan-out in master/cluster/allocator.go (the
// closest the pack gets to a periodic maintenance sweep) and on
// golang.org/x/time/rate for pacing scans the way the WAL package paces
// flushes.
package optimizer

import (
	"context"
	"sync"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/nsdb/nsdb/index"
	"github.com/nsdb/nsdb/metrics"
)

// Phase is the two-phase state machine spec.md §4.9 describes.
type Phase int

const (
	NotOptimized Phase = iota
	OptimizingIndexes
	OptimizingSortOrders
	OptimizationCompleted
)

func (p Phase) String() string {
	switch p {
	case OptimizingIndexes:
		return "optimizing_indexes"
	case OptimizingSortOrders:
		return "optimizing_sort_orders"
	case OptimizationCompleted:
		return "completed"
	default:
		return "not_optimized"
	}
}

// Source is what the optimizer needs from a namespace: its full index
// list plus a TTL sweep hook, supplied without an import back to
// namespace (same pattern as planner.Source).
type Source interface {
	AllIndexes() []index.Index
	SweepExpired(now time.Time) (removed int)
}

// Optimizer drives one namespace's background maintenance loop.
type Optimizer struct {
	namespace string
	src       Source
	cfg       Config

	mu    sync.Mutex
	phase Phase

	cancelCurrent context.CancelFunc
	stopCh        chan struct{}
	wg            sync.WaitGroup
}

type Config struct {
	Interval       time.Duration
	ScanRatePerSec float64 // indexes scanned per second; 0 = unlimited
	Concurrency    int
}

func DefaultConfig() Config {
	return Config{Interval: 30 * time.Second, ScanRatePerSec: 0, Concurrency: 4}
}

func New(namespace string, src Source, cfg Config) *Optimizer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Optimizer{namespace: namespace, src: src, cfg: cfg, stopCh: make(chan struct{})}
}

func (o *Optimizer) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

func (o *Optimizer) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
	metrics.OptimizerPhase.WithLabelValues(o.namespace).Set(float64(p))
}

// Run starts the periodic loop; it returns immediately, the loop itself
// runs on a background goroutine until Stop is called.
func (o *Optimizer) Run() {
	o.wg.Add(1)
	go o.loop()
}

func (o *Optimizer) loop() {
	defer o.wg.Done()
	ticker := time.NewTicker(o.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			o.runOnce()
		case <-o.stopCh:
			return
		}
	}
}

// Interrupt cancels whatever pass is currently running, used when a
// foreground write needs the CPU/lock the optimizer was using; spec.md
// §4.9 requires the optimizer to be cooperatively preemptible, not to
// hold any lock across a whole pass.
func (o *Optimizer) Interrupt() {
	o.mu.Lock()
	cancel := o.cancelCurrent
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *Optimizer) runOnce() {
	span, ctx := trace.StartSpanFromContext(context.Background(), "optimizer")
	ctx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancelCurrent = cancel
	o.mu.Unlock()
	defer cancel()

	o.setPhase(OptimizingIndexes)
	if err := o.optimizeIndexes(ctx); err != nil {
		span.Warnf("optimizer %s: index pass interrupted: %s", o.namespace, err)
		o.setPhase(NotOptimized)
		return
	}

	o.setPhase(OptimizingSortOrders)
	if err := o.rebuildSortOrders(ctx); err != nil {
		span.Warnf("optimizer %s: sort-order pass interrupted: %s", o.namespace, err)
		o.setPhase(NotOptimized)
		return
	}

	removed := o.src.SweepExpired(time.Now())

	o.setPhase(OptimizationCompleted)
	span.Infof("optimizer %s: pass completed, swept %d expired items", o.namespace, removed)
	metrics.OptimizerRuns.WithLabelValues(o.namespace).Inc()
}

// optimizeIndexes drops expired interned strings from every index's
// string pool, bounded by the same rate limiter as the sort-order pass so
// a large namespace doesn't starve foreground work of CPU.
func (o *Optimizer) optimizeIndexes(ctx context.Context) error {
	return o.forEachIndex(ctx, func(idx index.Index) error {
		idx.RemoveExpiredStrings()
		return nil
	})
}

// rebuildSortOrders calls UpdateSortedIds on every index that supports a
// sort order (ordered-tree variants; hash/full-text report ok=false and
// are skipped), checking the cancel channel between chunks the way
// index/ordered.go's UpdateSortedIds already does internally.
func (o *Optimizer) rebuildSortOrders(ctx context.Context) error {
	return o.forEachIndex(ctx, func(idx index.Index) error {
		_, err := idx.UpdateSortedIds(ctx.Done())
		return err
	})
}

func (o *Optimizer) forEachIndex(ctx context.Context, fn func(index.Index) error) error {
	indexes := o.src.AllIndexes()
	var lim *rate.Limiter
	if o.cfg.ScanRatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(o.cfg.ScanRatePerSec), 1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Concurrency)
	for _, idx := range indexes {
		idx := idx
		g.Go(func() error {
			if lim != nil {
				if err := lim.Wait(gctx); err != nil {
					return err
				}
			}
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			return fn(idx)
		})
	}
	return g.Wait()
}

func (o *Optimizer) Stop() {
	close(o.stopCh)
	o.wg.Wait()
}
