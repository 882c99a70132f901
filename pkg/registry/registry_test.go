package registry

import (
	"testing"

	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	decoded  int
	timeouts int
}

func (h *countingHandler) Decode(canmux.CANFrame, signal.Bus) error {
	h.decoded++
	return nil
}

func (h *countingHandler) Timeout(signal.Bus) {
	h.timeouts++
}

func TestNewRejectsDuplicates(t *testing.T) {
	h := &countingHandler{}
	_, err := New(
		Entry{ID: 0x111, Reload: 200, Handler: h},
		Entry{ID: 0x111, Reload: 10, Handler: h},
	)
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = New(
		Entry{ID: 0x111, Reload: 200, Handler: h},
		Entry{ID: 0x111, Extended: true, Reload: 10, Handler: h},
	)
	assert.NoError(t, err)
}

func TestNewRejectsNilHandler(t *testing.T) {
	_, err := New(Entry{ID: 0x111, Reload: 200})
	assert.Error(t, err)
}

func TestLookupIsExact(t *testing.T) {
	h := &countingHandler{}
	r, err := New(
		Entry{ID: 0x111, Reload: 200, Handler: h},
		Entry{ID: 0x1B6, Reload: 200, Handler: h},
	)
	require.NoError(t, err)

	tests := []struct {
		id       uint32
		extended bool
		found    bool
	}{
		{0x111, false, true},
		{0x1B6, false, true},
		{0x111, true, false},
		{0x112, false, false},
		{0x000, false, false},
	}
	for _, tt := range tests {
		e, ok := r.Lookup(tt.id, tt.extended)
		assert.Equal(t, tt.found, ok, "0x%X extended=%v", tt.id, tt.extended)
		if ok {
			assert.Equal(t, tt.id, e.ID)
		}
	}
}

func TestSuperviseFiresOnce(t *testing.T) {
	h := &countingHandler{}
	r, err := New(Entry{ID: 0x111, Reload: 200, Handler: h})
	require.NoError(t, err)
	bus := signal.NewStore()
	e, _ := r.Lookup(0x111, false)

	// ticks 0..199 count the counter down to zero
	for tick := 0; tick < 200; tick++ {
		assert.Empty(t, r.Supervise(bus), "tick %d", tick)
	}
	assert.Equal(t, int32(0), e.Counter())
	assert.Equal(t, 0, h.timeouts)

	// tick 200 fires
	assert.Equal(t, []*Entry{e}, r.Supervise(bus))
	assert.Equal(t, 1, h.timeouts)
	assert.Equal(t, int32(-1), e.Counter())

	// tick 201 and later stay quiet
	for i := 0; i < 50; i++ {
		r.Supervise(bus)
	}
	assert.Equal(t, 1, h.timeouts)

	r.Reset(e)
	assert.Equal(t, int32(200), e.Counter())
	for i := 0; i < 201; i++ {
		r.Supervise(bus)
	}
	assert.Equal(t, 2, h.timeouts)
}

func TestResetSuppressesTimeout(t *testing.T) {
	h := &countingHandler{}
	r, err := New(Entry{ID: 0x50C, Reload: 3, Handler: h})
	require.NoError(t, err)
	bus := signal.NewStore()
	e, _ := r.Lookup(0x50C, false)

	for i := 0; i < 100; i++ {
		r.Reset(e)
		r.Supervise(bus)
	}
	assert.Equal(t, 0, h.timeouts)
	assert.Equal(t, int32(2), e.Counter())
}

func TestNegativeReloadDisablesSupervision(t *testing.T) {
	h := &countingHandler{}
	r, err := New(Entry{ID: 0x600, Reload: -1, Handler: h})
	require.NoError(t, err)
	bus := signal.NewStore()
	e, _ := r.Lookup(0x600, false)

	r.Reset(e)
	for i := 0; i < 10; i++ {
		r.Supervise(bus)
	}
	assert.Equal(t, 0, h.timeouts)
	assert.Less(t, e.Counter(), int32(0))
}

func TestFilterIDs(t *testing.T) {
	h := HandlerFuncs{OnDecode: func(canmux.CANFrame, signal.Bus) error { return nil }}
	r, err := New(
		Entry{ID: 0x171, Reload: 200, Handler: h},
		Entry{ID: 0x1FFFFF00, Extended: true, Reload: 200, Handler: h},
	)
	require.NoError(t, err)
	assert.Equal(t, []canmux.FilterID{
		{ID: 0x171},
		{ID: 0x1FFFFF00, Extended: true},
	}, r.FilterIDs())
	assert.Len(t, r.Entries(), 2)
	assert.Equal(t, "0x171", r.Entries()[0].String())
	assert.Equal(t, "0x1FFFFF00", r.Entries()[1].String())

	// nil OnTimeout is a no-op
	r.Entries()[0].Handler.Timeout(signal.NewStore())
}
