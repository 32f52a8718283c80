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

package repl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublishDeliversToSubscriber(t *testing.T) {
	p := NewPublisher("items")
	id, ch := p.Subscribe()
	defer p.Unsubscribe(id)

	p.Publish(Event{LSN: 1, Type: 1, ItemID: 42})
	ev := <-ch
	require.Equal(t, int64(1), ev.LSN)
	require.Equal(t, 42, ev.ItemID)
}

func TestPublishRespectsAllowlist(t *testing.T) {
	p := NewPublisher("items")
	id, ch := p.Subscribe(2)
	defer p.Unsubscribe(id)

	p.Publish(Event{LSN: 1, Type: 1})
	p.Publish(Event{LSN: 2, Type: 2})

	ev := <-ch
	require.Equal(t, int64(2), ev.LSN)
	select {
	case <-ch:
		t.Fatal("expected no further events")
	default:
	}
}

func TestPublishMarksResyncOnOverflow(t *testing.T) {
	p := NewPublisher("items")
	id, ch := p.Subscribe()
	defer p.Unsubscribe(id)

	for i := 0; i < defaultSubscriberBuffer+5; i++ {
		p.Publish(Event{LSN: int64(i)})
	}
	require.True(t, p.NeedsResync(id))
	require.False(t, p.NeedsResync(id))
	require.NotEmpty(t, ch)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	p := NewPublisher("items")
	id, ch := p.Subscribe()
	p.Unsubscribe(id)

	_, ok := <-ch
	require.False(t, ok)
	require.Equal(t, 0, p.SubscriberCount())
}

func TestNeedsResyncUnknownSubscriberIsFalse(t *testing.T) {
	p := NewPublisher("items")
	require.False(t, p.NeedsResync(999))
}

func TestSubscriberCountTracksLiveSubscribers(t *testing.T) {
	p := NewPublisher("items")
	id1, _ := p.Subscribe()
	_, _ = p.Subscribe()
	require.Equal(t, 2, p.SubscriberCount())
	p.Unsubscribe(id1)
	require.Equal(t, 1, p.SubscriberCount())
}
