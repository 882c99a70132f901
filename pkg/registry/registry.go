// Package registry holds the inbound message table and supervises the
// liveness of every registered message.
package registry

import (
	"errors"
	"fmt"

	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/signal"
)

var ErrDuplicate = errors.New("duplicate registry entry")

// Handler decodes one inbound message class.
type Handler interface {
	// Decode writes the frame's signals to the bus. It must not write
	// anything when it returns an error.
	Decode(canmux.CANFrame, signal.Bus) error
	// Timeout marks the message's signals stale.
	Timeout(signal.Bus)
}

// HandlerFuncs adapts a pair of functions to Handler. A nil OnTimeout is
// allowed.
type HandlerFuncs struct {
	OnDecode  func(canmux.CANFrame, signal.Bus) error
	OnTimeout func(signal.Bus)
}

func (h HandlerFuncs) Decode(f canmux.CANFrame, b signal.Bus) error {
	return h.OnDecode(f, b)
}

func (h HandlerFuncs) Timeout(b signal.Bus) {
	if h.OnTimeout != nil {
		h.OnTimeout(b)
	}
}

// Entry describes one inbound message class. Reload is the number of ticks
// the message may be absent before its timeout fires; a negative value
// disables supervision.
type Entry struct {
	ID       uint32
	Extended bool
	Reload   int32
	Handler  Handler

	counter int32
}

// Counter returns the ticks left before the timeout fires. -1 means the
// timeout already fired and the entry waits for the next frame.
func (e *Entry) Counter() int32 {
	return e.counter
}

func (e *Entry) String() string {
	if e.Extended {
		return fmt.Sprintf("0x%08X", e.ID)
	}
	return fmt.Sprintf("0x%03X", e.ID)
}

type entryKey struct {
	id       uint32
	extended bool
}

// Registry is the fixed set of inbound entries. Membership does not change
// after New.
type Registry struct {
	entries []*Entry
	index   map[entryKey]*Entry
}

// New builds a registry. Every counter starts at its reload value.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make([]*Entry, 0, len(entries)),
		index:   make(map[entryKey]*Entry, len(entries)),
	}
	for i := range entries {
		e := entries[i]
		if e.Handler == nil {
			return nil, fmt.Errorf("entry %s: nil handler", e.String())
		}
		k := entryKey{e.ID, e.Extended}
		if _, ok := r.index[k]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, e.String())
		}
		e.counter = e.Reload
		if e.counter < 0 {
			e.counter = -1
		}
		r.entries = append(r.entries, &e)
		r.index[k] = &e
	}
	return r, nil
}

// Lookup finds the entry registered for exactly this identifier and
// addressing mode.
func (r *Registry) Lookup(id uint32, extended bool) (*Entry, bool) {
	e, ok := r.index[entryKey{id, extended}]
	return e, ok
}

// Reset re-arms the entry's timeout. Entries with supervision disabled are
// left alone.
func (r *Registry) Reset(e *Entry) {
	if e.Reload < 0 {
		return
	}
	e.counter = e.Reload
}

// Supervise advances every counter by one tick and runs the timeout of each
// entry that reaches zero. A timeout fires once until the entry is reset.
// It returns the entries whose timeout fired, nil when none did.
func (r *Registry) Supervise(bus signal.Bus) []*Entry {
	var fired []*Entry
	for _, e := range r.entries {
		switch {
		case e.counter > 0:
			e.counter--
		case e.counter == 0:
			e.Handler.Timeout(bus)
			e.counter = -1
			fired = append(fired, e)
		}
	}
	return fired
}

// Entries returns the entries in registration order.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// FilterIDs returns the acceptance filter identifiers in registration
// order.
func (r *Registry) FilterIDs() []canmux.FilterID {
	ids := make([]canmux.FilterID, len(r.entries))
	for i, e := range r.entries {
		ids[i] = canmux.FilterID{ID: e.ID, Extended: e.Extended}
	}
	return ids
}
