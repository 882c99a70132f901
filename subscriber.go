package canmux

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Subscriber receives incoming frames from a Client. A subscriber without
// identifiers receives every frame.
type Subscriber struct {
	cl           *Client
	identifiers  map[uint32]struct{}
	responseChan chan CANFrame
	dropped      atomic.Uint64
	closeOnce    sync.Once
}

func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		s.cl.fh.remove(s)
	})
}

func (s *Subscriber) Chan() <-chan CANFrame {
	return s.responseChan
}

// Dropped returns the number of frames lost because the subscriber did not
// keep up.
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscriber) wants(f CANFrame) bool {
	if len(s.identifiers) == 0 {
		return true
	}
	_, ok := s.identifiers[f.Identifier]
	return ok
}

func (s *Subscriber) push(f CANFrame) {
	select {
	case s.responseChan <- f:
	default:
		s.dropped.Add(1)
	}
}

// Wait blocks until a frame arrives or ctx is done.
func (s *Subscriber) Wait(ctx context.Context) (CANFrame, error) {
	select {
	case <-ctx.Done():
		return CANFrame{}, fmt.Errorf("wait: %w", ctx.Err())
	case f, ok := <-s.responseChan:
		if !ok {
			return CANFrame{}, ErrClosed
		}
		return f, nil
	}
}
