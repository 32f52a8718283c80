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

// Package repl is the async, non-consensus replication fan-out spec.md's
// Non-goal of distributed consensus leaves in its place (SPEC_FULL §13):
// a per-namespace publish queue with a bounded per-subscriber buffer that
// drops the oldest entry and marks the subscriber for resync rather than
// blocking the writer, grounded on the teacher's proposalQueue
// (raft/proposal_queue.go) buffered-channel shape.
package repl

import (
	"sync"

	"github.com/nsdb/nsdb/itable"
)

// Event is one replicated WAL record, trimmed to what a subscriber needs
// to either apply or notice it fell behind.
type Event struct {
	LSN    int64
	Type   int
	ItemID itable.IdType
}

const defaultSubscriberBuffer = 1024

// subscriber is one consumer of a namespace's publish stream.
type subscriber struct {
	ch        chan Event
	resync    bool // set once this subscriber has dropped an event
	allowlist map[int]bool
}

// Publisher fans a namespace's write events out to every subscriber that
// has not asked to be removed.
type Publisher struct {
	namespace string

	mu   sync.Mutex
	subs map[int]*subscriber
	next int
}

func NewPublisher(namespace string) *Publisher {
	return &Publisher{namespace: namespace, subs: make(map[int]*subscriber)}
}

// Subscribe registers a new subscriber and returns its id (for
// Unsubscribe) and the channel to read events from. allowedTypes, if
// non-empty, filters which wal.RecordType values this subscriber receives
// -- the per-subscriber allow-list filter spec.md's replication design
// calls for.
func (p *Publisher) Subscribe(allowedTypes ...int) (int, <-chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.next
	p.next++
	sub := &subscriber{ch: make(chan Event, defaultSubscriberBuffer)}
	if len(allowedTypes) > 0 {
		sub.allowlist = make(map[int]bool, len(allowedTypes))
		for _, t := range allowedTypes {
			sub.allowlist[t] = true
		}
	}
	p.subs[id] = sub
	return id, sub.ch
}

func (p *Publisher) Unsubscribe(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if sub, ok := p.subs[id]; ok {
		close(sub.ch)
		delete(p.subs, id)
	}
}

// NeedsResync reports (and clears) whether id missed at least one event
// because its buffer filled up; the caller is expected to fetch a fresh
// snapshot before trusting the stream again.
func (p *Publisher) NeedsResync(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[id]
	if !ok {
		return false
	}
	r := sub.resync
	sub.resync = false
	return r
}

// Publish delivers ev to every subscriber whose allow-list accepts it.
// Delivery never blocks: a full buffer drops the oldest queued event (not
// ev itself, so the subscriber's view stays chronologically ordered) and
// marks the subscriber for resync.
func (p *Publisher) Publish(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		if sub.allowlist != nil && !sub.allowlist[ev.Type] {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
			sub.resync = true
		}
	}
}

func (p *Publisher) SubscriberCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subs)
}
