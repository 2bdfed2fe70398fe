// Package notify distributes change records to subscribers registered by key.
package notify

import (
	"context"
	"sync"

	"github.com/gammazero/channelqueue"
)

// AllKeys subscribes to changes for every key.
const AllKeys = ""

// Hub delivers values published for a key to every subscriber of that key,
// and to every AllKeys subscriber. Each subscriber has its own unbounded queue
// so that publishing never blocks on a slow reader.
type Hub[T any] struct {
	mu     sync.Mutex
	subs   map[string]map[*channelqueue.ChannelQueue[T]]struct{}
	closed bool
}

func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subs: make(map[string]map[*channelqueue.ChannelQueue[T]]struct{}),
	}
}

// Subscribe creates a channel that receives values published for key.
//
// Calling the returned cancel function removes the subscription and closes
// the channel, once any queued values are read, so that reading goroutines
// can stop waiting.
func (h *Hub[T]) Subscribe(key string) (<-chan T, context.CancelFunc) {
	cq := channelqueue.New[T](-1)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(cq.In())
		return cq.Out(), func() {}
	}

	set, ok := h.subs[key]
	if !ok {
		set = make(map[*channelqueue.ChannelQueue[T]]struct{})
		h.subs[key] = set
	}
	set[cq] = struct{}{}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[key]; ok {
				if _, ok = set[cq]; ok {
					delete(set, cq)
					if len(set) == 0 {
						delete(h.subs, key)
					}
					close(cq.In())
				}
			}
		})
	}
	return cq.Out(), cancel
}

// Publish sends v to the subscribers of key and to AllKeys subscribers.
func (h *Hub[T]) Publish(key string, v T) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for cq := range h.subs[key] {
		cq.In() <- v
	}
	if key == AllKeys {
		return
	}
	for cq := range h.subs[AllKeys] {
		cq.In() <- v
	}
}

// Len returns the number of active subscriptions.
func (h *Hub[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var n int
	for _, set := range h.subs {
		n += len(set)
	}
	return n
}

// Close ends all subscriptions. Subsequent subscriptions receive an already
// closed channel.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for key, set := range h.subs {
		for cq := range set {
			close(cq.In())
		}
		delete(h.subs, key)
	}
}
