package canmux

import (
	"context"
	"sync"
)

func init() {
	if err := RegisterAdapter(&AdapterInfo{
		Name:               "Loopback",
		Description:        "In-process loopback, sent frames are received again",
		RequiresSerialPort: false,
		New:                NewLoopback,
	}); err != nil {
		panic(err)
	}
}

// Loopback echoes every sent frame back as an incoming frame. Frames can
// also be injected directly, which is how tests and replays feed it.
type Loopback struct {
	*BaseAdapter
	mu      sync.RWMutex
	filters filterSet
	echo    bool
}

// Create a new Loopback adapter used for testing and simulation
func NewLoopback(cfg *AdapterConfig) (Adapter, error) {
	return &Loopback{
		BaseAdapter: NewBaseAdapter("Loopback", cfg),
		filters:     newFilterSet(cfg.CANFilter),
		echo:        true,
	}, nil
}

func (v *Loopback) Open(ctx context.Context) error {
	go v.sendManager(ctx)
	return nil
}

func (v *Loopback) Close() error {
	v.BaseAdapter.Close()
	return nil
}

// SetEcho turns echoing of sent frames on or off.
func (v *Loopback) SetEcho(on bool) {
	v.mu.Lock()
	v.echo = on
	v.mu.Unlock()
}

func (v *Loopback) SetFilter(ids []FilterID) error {
	v.mu.Lock()
	v.filters = newFilterSet(ids)
	v.mu.Unlock()
	return nil
}

// Inject delivers frame as if it was received from the bus.
func (v *Loopback) Inject(frame CANFrame) error {
	if err := frame.Validate(); err != nil {
		return err
	}
	if v.closed() {
		return ErrClosed
	}
	frame.FrameType = Incoming
	v.mu.RLock()
	ok := v.filters.accepts(frame)
	v.mu.RUnlock()
	if ok {
		v.deliver(frame)
	}
	return nil
}

func (v *Loopback) sendManager(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.closeChan:
			return
		case frame := <-v.sendChan:
			if v.cfg.Debug {
				v.cfg.OnMessage("loopback >> " + frame.String())
			}
			v.mu.RLock()
			echo := v.echo
			v.mu.RUnlock()
			if echo {
				_ = v.Inject(frame)
			}
		}
	}
}
