// SPDX-License-Identifier: MPL-2.0

// Package notify delivers translation events to observers.
//
// Delivery is fire-and-forget: Publish never blocks, and a subscriber whose
// buffer is full misses the event.
package notify

import (
	"sync"
	"time"

	"github.com/pmswitch/pmswitch/pkg/pm"
)

// EventName is the name observers see translation events under.
const EventName = "command-translated"

type (
	// Event describes one rewrite of the shared buffer. Original and
	// Translated form the payload observers rely on; the remaining fields are
	// informational.
	Event struct {
		Original   string     `json:"original"`
		Translated string     `json:"translated"`
		From       pm.Manager `json:"from,omitempty"`
		To         pm.Manager `json:"to,omitempty"`
		Kind       pm.Kind    `json:"kind,omitempty"`
		At         time.Time  `json:"at"`
	}

	// Bus fans events out to subscribers.
	Bus struct {
		mu     sync.RWMutex
		nextID int
		subs   map[int]chan Event

		// dropped is called once per subscriber that missed an event.
		dropped func()
	}
)

// NewEvent builds an Event from a translation result. original is the buffer
// content exactly as read, before the engine trimmed it.
func NewEvent(original string, r pm.Result, at time.Time) Event {
	return Event{
		Original:   original,
		Translated: r.Command,
		From:       r.From,
		To:         r.To,
		Kind:       r.Kind,
		At:         at,
	}
}

// NewBus creates an empty Bus. onDrop, when non-nil, is called for every
// delivery skipped because a subscriber was not keeping up.
func NewBus(onDrop func()) *Bus {
	return &Bus{
		subs:    make(map[int]chan Event),
		dropped: onDrop,
	}
}

// Subscribe registers a listener with the given channel buffer. The returned
// function unsubscribes and closes the channel; it is safe to call twice.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish offers e to every subscriber without blocking and returns how many
// received it.
func (b *Bus) Publish(e Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for _, ch := range b.subs {
		select {
		case ch <- e:
			delivered++
		default:
			if b.dropped != nil {
				b.dropped()
			}
		}
	}
	return delivered
}

// Len returns the number of subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
