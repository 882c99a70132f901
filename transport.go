package canmux

import (
	"fmt"
	"sort"
	"sync"
)

// Transport is the frame queue an engine polls once per tick. None of its
// methods block.
type Transport interface {
	// Receive returns the next queued frame, or false when the queue is
	// empty.
	Receive() (CANFrame, bool)
	// Send queues a frame. It returns ErrBufferFull when the queue cannot
	// take the frame and ErrInvalidValue for malformed frames.
	Send(CANFrame) error
	// ConfigureFilters assigns identifiers to an acceptance filter bank.
	ConfigureFilters(bank int, ids []FilterID) error
}

var _ Transport = (*ChannelTransport)(nil)

// ChannelTransport implements Transport over a pair of channels.
type ChannelTransport struct {
	rx        <-chan CANFrame
	tx        chan<- CANFrame
	setFilter func([]FilterID) error

	mu    sync.Mutex
	banks map[int][]FilterID
}

// NewChannelTransport builds a transport. setFilter receives the union of
// all configured banks and may be nil.
func NewChannelTransport(rx <-chan CANFrame, tx chan<- CANFrame, setFilter func([]FilterID) error) *ChannelTransport {
	return &ChannelTransport{
		rx:        rx,
		tx:        tx,
		setFilter: setFilter,
		banks:     make(map[int][]FilterID),
	}
}

func (t *ChannelTransport) Receive() (CANFrame, bool) {
	for {
		select {
		case f, ok := <-t.rx:
			if !ok {
				return CANFrame{}, false
			}
			if t.accepts(f) {
				return f, true
			}
		default:
			return CANFrame{}, false
		}
	}
}

func (t *ChannelTransport) accepts(f CANFrame) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.banks) == 0 {
		return true
	}
	for _, ids := range t.banks {
		for _, id := range ids {
			if id.Matches(f) {
				return true
			}
		}
	}
	return false
}

func (t *ChannelTransport) Send(f CANFrame) error {
	if err := f.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	f.FrameType = Outgoing
	select {
	case t.tx <- f:
		return nil
	default:
		return ErrBufferFull
	}
}

func (t *ChannelTransport) ConfigureFilters(bank int, ids []FilterID) error {
	if err := ValidateBank(bank, ids); err != nil {
		return err
	}
	t.mu.Lock()
	t.banks[bank] = append([]FilterID(nil), ids...)
	all := t.filterList()
	t.mu.Unlock()
	if t.setFilter != nil {
		return t.setFilter(all)
	}
	return nil
}

// Filters returns the configured identifiers ordered by bank.
func (t *ChannelTransport) Filters() []FilterID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.filterList()
}

func (t *ChannelTransport) filterList() []FilterID {
	banks := make([]int, 0, len(t.banks))
	for b := range t.banks {
		banks = append(banks, b)
	}
	sort.Ints(banks)
	var out []FilterID
	for _, b := range banks {
		out = append(out, t.banks[b]...)
	}
	return out
}
