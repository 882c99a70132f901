package canmux

import (
	"context"
	"log"
	"sync"
)

// handler pumps the adapter's incoming frames to subscribers. Delivery
// never blocks; a subscriber that falls behind loses frames.
type handler struct {
	adapter Adapter

	done     chan struct{}
	stopOnce sync.Once

	// mu is held for reading while pushing, so a subscriber channel cannot
	// be closed under a send.
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	closed bool
}

func newHandler(adapter Adapter) *handler {
	return &handler{
		adapter: adapter,
		done:    make(chan struct{}),
		subs:    make(map[*Subscriber]struct{}),
	}
}

func (h *handler) add(sub *Subscriber) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHandlerClosed
	}
	h.subs[sub] = struct{}{}
	return nil
}

func (h *handler) remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.responseChan)
}

func (h *handler) run(ctx context.Context) {
	defer h.drop()
	in := h.adapter.Recv()
	for {
		select {
		case <-h.done:
			return
		case <-ctx.Done():
			return
		case frame, ok := <-in:
			if !ok {
				log.Printf("%s: receive channel closed", h.adapter.Name())
				return
			}
			h.fanout(frame)
		}
	}
}

func (h *handler) fanout(frame CANFrame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if sub.wants(frame) {
			sub.push(frame)
		}
	}
}

// drop ends every subscription so readers see their channel close.
func (h *handler) drop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for sub := range h.subs {
		close(sub.responseChan)
	}
	h.subs = nil
}

func (h *handler) stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}
