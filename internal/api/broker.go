package api

import (
	"sync"
)

// toastFrame is pushed to stream clients as an SSE "toast" event.
type toastFrame struct {
	Title   string `json:"title,omitempty"`
	Message string `json:"message"`
	Variant string `json:"variant"`
}

// client is one open stream. wake coalesces state changes; toasts are
// buffered and dropped when the client falls behind.
type client struct {
	wake   chan struct{}
	toasts chan toastFrame
}

type updateBroker struct {
	mu   sync.Mutex
	subs map[*client]struct{}
}

func newUpdateBroker() *updateBroker {
	return &updateBroker{subs: make(map[*client]struct{})}
}

func (b *updateBroker) subscribe() *client {
	c := &client{wake: make(chan struct{}, 1), toasts: make(chan toastFrame, 10)}
	b.mu.Lock()
	b.subs[c] = struct{}{}
	b.mu.Unlock()
	return c
}

func (b *updateBroker) unsubscribe(c *client) {
	b.mu.Lock()
	delete(b.subs, c)
	b.mu.Unlock()
}

func (b *updateBroker) notify() {
	b.mu.Lock()
	for c := range b.subs {
		select {
		case c.wake <- struct{}{}:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *updateBroker) toast(t toastFrame) {
	b.mu.Lock()
	for c := range b.subs {
		select {
		case c.toasts <- t:
		default:
		}
	}
	b.mu.Unlock()
}

func (b *updateBroker) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
