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

package wal

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/cubefs/cubefs/blobstore/common/trace"
	"golang.org/x/time/rate"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/metrics"
)

const defaultRingSize = 4096

// Sink is the durable tail of the log, implemented by KVSink (segment.go)
// in production and by MemSink, which keeps records in memory, in tests.
type Sink interface {
	WriteBatch(records []Record) error
	Replay(apply func(Record) error) error
	Close() error
}

// Log is one namespace's write-ahead log: records are appended to an
// in-memory buffer guarded by the Log's own mutex and flushed to Sink in
// batches by a background goroutine. When FlushRatePerSec is set, flushes
// are rate-limited the way the background optimizer's scans are
// (golang.org/x/time/rate), so a write burst cannot monopolize disk I/O.
type Log struct {
	namespace string
	sink      Sink
	limiter   *rate.Limiter

	mu      sync.Mutex
	pending []Record
	lastLSN int64

	flushCh chan struct{}
	closeCh chan struct{}
	wg      sync.WaitGroup
}

type Config struct {
	FlushInterval   time.Duration
	MaxBatch        int
	FlushRatePerSec float64 // records/sec cap on disk flush; 0 = unlimited
}

func DefaultConfig() Config {
	return Config{FlushInterval: 50 * time.Millisecond, MaxBatch: 512, FlushRatePerSec: 0}
}

func Open(namespace string, sink Sink, cfg Config) *Log {
	var lim *rate.Limiter
	if cfg.FlushRatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(cfg.FlushRatePerSec), cfg.MaxBatch)
	}
	l := &Log{
		namespace: namespace,
		sink:      sink,
		limiter:   lim,
		flushCh:   make(chan struct{}, 1),
		closeCh:   make(chan struct{}),
	}
	l.wg.Add(1)
	go l.flushLoop(cfg)
	return l
}

// Replay reads every record back from the sink and applies it in order,
// used when a namespace is reopened from disk.
func (l *Log) Replay(apply func(Record) error) error {
	return l.sink.Replay(func(r Record) error {
		if r.LSN > l.lastLSN {
			l.lastLSN = r.LSN
		}
		return apply(r)
	})
}

// NextLSN returns the next log sequence number to assign, monotonic for
// the life of the Log (and across a Replay that ran first).
func (l *Log) NextLSN() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastLSN++
	return l.lastLSN
}

// Append buffers r for the next flush. The caller assigns r.LSN; Append
// neither assigns nor checks it.
func (l *Log) Append(r Record) {
	l.mu.Lock()
	l.pending = append(l.pending, r)
	l.mu.Unlock()

	select {
	case l.flushCh <- struct{}{}:
	default:
	}
}

// Flush blocks until every currently-buffered record has been handed to
// the sink. No write path in this module calls it; records otherwise
// reach the sink on the background loop's schedule.
func (l *Log) Flush(ctx context.Context) error {
	l.drain()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (l *Log) drain() {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()
	if len(batch) == 0 {
		return
	}
	if l.limiter != nil {
		_ = l.limiter.WaitN(context.Background(), len(batch))
	}
	start := time.Now()
	if err := l.sink.WriteBatch(batch); err != nil {
		span, _ := trace.StartSpanFromContext(context.Background(), "wal-flush")
		span.Errorf("wal %s: flush of %d records failed: %s", l.namespace, len(batch), err)
	} else {
		var sz int
		for _, r := range batch {
			sz += len(r.Payload) + binary.Size(r.LSN)
		}
		metrics.WALFlushBytes.WithLabelValues(l.namespace).Add(float64(sz))
	}
	metrics.WALAppendDuration.WithLabelValues(l.namespace).Observe(time.Since(start).Seconds())
}

func (l *Log) flushLoop(cfg Config) {
	defer l.wg.Done()
	ticker := time.NewTicker(cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-l.flushCh:
			l.drainIfBig(cfg.MaxBatch)
		case <-ticker.C:
			l.drain()
		case <-l.closeCh:
			l.drain()
			return
		}
	}
}

func (l *Log) drainIfBig(maxBatch int) {
	l.mu.Lock()
	n := len(l.pending)
	l.mu.Unlock()
	if n >= maxBatch {
		l.drain()
	}
}

func (l *Log) Close() error {
	close(l.closeCh)
	l.wg.Wait()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

// ErrClosed is returned by callers that try to use a Log past Close.
var ErrClosed = nsdberrors.New(nsdberrors.KindLogic, "wal: log is closed")
