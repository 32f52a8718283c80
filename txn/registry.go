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

package txn

import (
	"sync"
	"time"

	nsdberrors "github.com/nsdb/nsdb/errors"
	"github.com/nsdb/nsdb/metrics"
)

// Registry tracks every open transaction for one namespace and sweeps
// idle ones to StateExpired, mirroring the teacher's lease-timeout sweep
// in shard/catalog/shard.go but over transactions instead of shard leases.
type Registry struct {
	namespace   string
	idleTimeout time.Duration

	mu   sync.Mutex
	txns map[string]*Transaction

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRegistry(namespace string, idleTimeout time.Duration) *Registry {
	r := &Registry{
		namespace:   namespace,
		idleTimeout: idleTimeout,
		txns:        make(map[string]*Transaction),
		stopCh:      make(chan struct{}),
	}
	r.wg.Add(1)
	go r.sweepLoop()
	return r
}

func (r *Registry) Begin() *Transaction {
	t := New(r.namespace, r.idleTimeout)
	r.mu.Lock()
	r.txns[t.ID] = t
	r.mu.Unlock()
	metrics.TxnOpen.WithLabelValues(r.namespace).Inc()
	return t
}

func (r *Registry) Get(id string) (*Transaction, error) {
	r.mu.Lock()
	t, ok := r.txns[id]
	r.mu.Unlock()
	if !ok {
		return nil, nsdberrors.ErrTxnNotFound
	}
	return t, nil
}

// Forget drops a finished transaction from the registry; callers do this
// after Commit/Rollback so the map doesn't grow unbounded across a
// namespace's lifetime.
func (r *Registry) Forget(id string) {
	r.mu.Lock()
	delete(r.txns, id)
	r.mu.Unlock()
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()
	interval := r.idleTimeout
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stopCh:
			return
		}
	}
}

func (r *Registry) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.txns {
		if t.State() != StateOpen {
			delete(r.txns, id)
			continue
		}
		t.mu.Lock()
		expired := r.idleTimeout > 0 && time.Since(t.lastUsed) > r.idleTimeout
		if expired {
			t.state = StateExpired
		}
		t.mu.Unlock()
		if expired {
			delete(r.txns, id)
			metrics.TxnOpen.WithLabelValues(r.namespace).Dec()
		}
	}
}

func (r *Registry) Close() {
	close(r.stopCh)
	r.wg.Wait()
}
