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

import "sync"

// StringPool interns strings for string-keyed indexes: one shared map with
// refcounts, per namespace. On a refcount reaching zero the entry moves to
// expired (never freed in place), because a select holding the namespace's
// shared read lock may still carry raw string values read before the
// writer decremented it. Reclaiming only ever happens from
// RemoveExpiredStrings, invoked by the background optimizer once it knows
// no select predates the decrement (spec.md §4.2 "String deduplication",
// invariant 5 in spec.md §8).
type StringPool struct {
	mu       sync.Mutex
	entries  map[string]*pooledString
	expired  []*pooledString
}

type pooledString struct {
	value    string
	refcount int
}

func NewStringPool() *StringPool {
	return &StringPool{entries: make(map[string]*pooledString)}
}

// Intern returns the pool's canonical instance of s and bumps its refcount.
// Must be called under the namespace write lock.
func (p *StringPool) Intern(s string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[s]
	if !ok {
		e = &pooledString{value: s}
		p.entries[s] = e
	}
	e.refcount++
	return e.value
}

// Release decrements the refcount for s; at zero the entry is moved to the
// expired list rather than deleted, per the deferred-reclamation invariant.
// Must be called under the namespace write lock.
func (p *StringPool) Release(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[s]
	if !ok {
		return
	}
	e.refcount--
	if e.refcount <= 0 {
		delete(p.entries, s)
		p.expired = append(p.expired, e)
	}
}

// RemoveExpiredStrings reclaims entries that were moved to expired before
// the quiescent point the caller has established (no select in flight that
// started before the last Release on any of them). Only the optimizer's
// background pass, run with no select overlapping it, is a valid caller.
func (p *StringPool) RemoveExpiredStrings() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.expired)
	p.expired = p.expired[:0]
	return n
}

func (p *StringPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

func (p *StringPool) ExpiredLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.expired)
}
