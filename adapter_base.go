package canmux

import (
	"log"
	"sync"
)

const (
	sendQueue  = 40
	recvQueue  = 1024
	eventQueue = 100
)

// BaseAdapter carries the channels every adapter exposes and reports
// frames, events and fatal errors through them. Adapters embed it.
type BaseAdapter struct {
	name string
	cfg  *AdapterConfig

	sendChan chan CANFrame
	recvChan chan CANFrame
	errChan  chan error
	evtChan  chan Event

	fatalOnce sync.Once
	closeOnce sync.Once
	closeChan chan struct{}
}

func NewBaseAdapter(name string, cfg *AdapterConfig) *BaseAdapter {
	if cfg == nil {
		cfg = &AdapterConfig{}
	}
	return &BaseAdapter{
		name:      name,
		cfg:       cfg,
		sendChan:  make(chan CANFrame, sendQueue),
		recvChan:  make(chan CANFrame, recvQueue),
		errChan:   make(chan error, 1),
		evtChan:   make(chan Event, eventQueue),
		closeChan: make(chan struct{}),
	}
}

func (b *BaseAdapter) Name() string {
	return b.name
}

// Send returns the queue of frames waiting to go out on the bus.
func (b *BaseAdapter) Send() chan<- CANFrame {
	return b.sendChan
}

// Recv returns the queue of frames received from the bus.
func (b *BaseAdapter) Recv() <-chan CANFrame {
	return b.recvChan
}

// Err yields at most one fatal error.
func (b *BaseAdapter) Err() <-chan error {
	return b.errChan
}

func (b *BaseAdapter) Event() <-chan Event {
	return b.evtChan
}

// Close marks the adapter closed. Embedding adapters release their own
// resources and call it.
func (b *BaseAdapter) Close() {
	b.closeOnce.Do(func() {
		close(b.closeChan)
	})
}

func (b *BaseAdapter) closed() bool {
	select {
	case <-b.closeChan:
		return true
	default:
		return false
	}
}

// Fatal reports an error after which the adapter cannot continue. Only the
// first one is kept.
func (b *BaseAdapter) Fatal(err error) {
	b.fatalOnce.Do(func() {
		b.errChan <- err
	})
}

// deliver queues an incoming frame, reporting ErrDroppedFrame when the
// receive queue is full.
func (b *BaseAdapter) deliver(f CANFrame) {
	select {
	case b.recvChan <- f:
	default:
		b.Error(ErrDroppedFrame)
	}
}

func (b *BaseAdapter) emit(t EventType, details string) {
	evt := Event{Type: t, Details: details}
	select {
	case b.evtChan <- evt:
	default:
		log.Printf("%s: event queue full, dropped %s", b.name, evt)
	}
}

func (b *BaseAdapter) Error(err error) {
	b.emit(EventTypeError, err.Error())
}

func (b *BaseAdapter) Warn(msg string) {
	b.emit(EventTypeWarning, msg)
}

func (b *BaseAdapter) Info(msg string) {
	b.emit(EventTypeInfo, msg)
}

// Debug events are only emitted when the adapter runs in debug mode.
func (b *BaseAdapter) Debug(msg string) {
	if b.cfg.Debug {
		b.emit(EventTypeDebug, msg)
	}
}
