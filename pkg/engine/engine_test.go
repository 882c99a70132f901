package engine

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/metrics"
	"github.com/roffe/canmux/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	rx    []canmux.CANFrame
	sent  []canmux.CANFrame
	full  bool
	banks map[int][]canmux.FilterID
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{banks: make(map[int][]canmux.FilterID)}
}

func (f *fakeTransport) Receive() (canmux.CANFrame, bool) {
	if len(f.rx) == 0 {
		return canmux.CANFrame{}, false
	}
	frame := f.rx[0]
	f.rx = f.rx[1:]
	return frame, true
}

func (f *fakeTransport) Send(frame canmux.CANFrame) error {
	if f.full {
		return canmux.ErrBufferFull
	}
	f.sent = append(f.sent, frame)
	return nil
}

func (f *fakeTransport) ConfigureFilters(bank int, ids []canmux.FilterID) error {
	if err := canmux.ValidateBank(bank, ids); err != nil {
		return err
	}
	f.banks[bank] = ids
	return nil
}

func (f *fakeTransport) push(id uint32, data ...byte) {
	f.rx = append(f.rx, canmux.NewFrame(id, data, canmux.Incoming))
}

func sentIDs(frames []canmux.CANFrame) []uint32 {
	ids := make([]uint32, len(frames))
	for i, f := range frames {
		ids[i] = f.Identifier
	}
	return ids
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *fakeTransport, *signal.Store) {
	t.Helper()
	tr := newFakeTransport()
	bus := signal.NewStore()
	e, err := New(tr, bus, opts...)
	require.NoError(t, err)
	return e, tr, bus
}

func TestNewConfiguresFilterBanks(t *testing.T) {
	_, tr, _ := newEngine(t)
	std := func(ids ...uint32) []canmux.FilterID {
		out := make([]canmux.FilterID, len(ids))
		for i, id := range ids {
			out[i] = canmux.FilterID{ID: id}
		}
		return out
	}
	assert.Equal(t, map[int][]canmux.FilterID{
		0: std(0x111, 0x1B6, 0x171, 0x172),
		1: std(0x176, 0x178, 0x310, 0x521),
		2: std(0x50C, 0x600),
	}, tr.banks)
}

func TestNewRejectsNil(t *testing.T) {
	_, err := New(nil, signal.NewStore())
	assert.Error(t, err)
	_, err = New(newFakeTransport(), nil)
	assert.Error(t, err)
}

func TestFirstTickSendsEveryBucket(t *testing.T) {
	e, tr, _ := newEngine(t)
	require.NoError(t, e.Tick())
	assert.Equal(t, []uint32{
		0x160, 0x90, 0x1BA, 0x1BC, 0x2B9,
		0x1B5, 0x1B7, 0x1BF, 0x1F0, 0x1F4, 0x206, 0x207, 0x209, 0x305, 0x306,
		0x1BD, 0x1F1, 0x1F2, 0x601, 0x602, 0x603, 0x604, 0x1FFFFF00,
	}, sentIDs(tr.sent))
	assert.Equal(t, uint32(1), e.Ticks())

	tr.sent = nil
	for i := 1; i < 10; i++ {
		require.NoError(t, e.Tick())
	}
	assert.Empty(t, tr.sent)
	require.NoError(t, e.Tick())
	assert.Equal(t, []uint32{0x160, 0x90, 0x1BA, 0x1BC, 0x2B9}, sentIDs(tr.sent))
}

func TestTickDispatchesBeforeSending(t *testing.T) {
	e, tr, bus := newEngine(t)
	bus.SetStale(signal.BMSPackVoltage, true)
	tr.push(0x171, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	tr.push(0x123, 0x01)

	require.NoError(t, e.Tick())
	assert.Equal(t, float32(128), bus.Float(signal.BMSPackVoltage))
	assert.False(t, bus.Stale(signal.BMSPackVoltage))
	assert.Empty(t, tr.rx)
}

// counterValue sums every series of a counter family.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var sum float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
	}
	return sum
}

func TestTickCountsTraffic(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	require.NoError(t, m.Register())
	e, tr, _ := newEngine(t, WithMetrics(m))

	tr.push(0x171, 0, 0, 0, 0, 0, 0, 0, 0)
	tr.push(0x171, 0, 0)
	tr.push(0x7FF)
	require.NoError(t, e.Tick(), "length mismatch is not surfaced")

	assert.Equal(t, 3.0, counterValue(t, reg, "canmux_engine_frames_received_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "canmux_engine_frames_unregistered_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "canmux_engine_length_mismatch_total"))
	assert.Equal(t, 23.0, counterValue(t, reg, "canmux_engine_frames_sent_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "canmux_engine_ticks_total"))
}

func TestTickDropsOnBackpressure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	require.NoError(t, m.Register())
	e, tr, _ := newEngine(t, WithMetrics(m))
	tr.full = true

	err := e.Tick()
	require.Error(t, err)
	assert.ErrorIs(t, err, canmux.ErrBufferFull)
	assert.Equal(t, 23.0, counterValue(t, reg, "canmux_engine_frames_dropped_total"))

	// the next cycle is attempted again, nothing is queued for retry
	tr.full = false
	for i := 1; i < 10; i++ {
		require.NoError(t, e.Tick())
	}
	require.NoError(t, e.Tick())
	assert.Len(t, tr.sent, 5)
}

func TestTimeoutSupervision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	require.NoError(t, m.Register())
	e, tr, bus := newEngine(t, WithMetrics(m))

	// 0x171 keeps arriving, 0x111 never does
	for i := 0; i < 200; i++ {
		tr.push(0x171, 0, 0, 0, 0, 0, 0, 0, 0)
		require.NoError(t, e.Tick())
	}
	assert.False(t, bus.Stale(signal.ExtTorqueRequest))

	tr.push(0x171, 0, 0, 0, 0, 0, 0, 0, 0)
	require.NoError(t, e.Tick())
	assert.True(t, bus.Stale(signal.ExtTorqueRequest))
	assert.True(t, bus.Stale(signal.ImmoUnlockRequest))
	assert.False(t, bus.Stale(signal.BMSPackVoltage))

	entry, ok := e.Registry().Lookup(0x111, false)
	require.True(t, ok)
	assert.Equal(t, int32(-1), entry.Counter())

	// 0x111, 0x1B6, 0x310, 0x521 and 0x50C share reload 200
	assert.Equal(t, 5.0, counterValue(t, reg, "canmux_engine_timeouts_total"))

	require.NoError(t, e.Tick())
	assert.Equal(t, 5.0, counterValue(t, reg, "canmux_engine_timeouts_total"))

	// a valid frame clears the flags and re-arms the entry
	tr.push(0x111, 0, 0, 0, 0, 0, 0, 0, 0)
	require.NoError(t, e.Tick())
	assert.False(t, bus.Stale(signal.ExtTorqueRequest))
	assert.Equal(t, int32(199), entry.Counter())
}

func TestDisplayFollowsParams(t *testing.T) {
	e, tr, bus := newEngine(t)
	bus.SetFloat(signal.InfoOdoTotalKilometers, 1)
	bus.SetParam(signal.KilometerToMiles, 1)
	require.NoError(t, e.Tick())

	for _, f := range tr.sent {
		if f.Identifier == 0x1BF {
			assert.Equal(t, byte(0x6D), f.Data[0])
			assert.Equal(t, byte(0x02), f.Data[1])
			return
		}
	}
	t.Fatal("0x1BF not sent")
}

func TestWithTickBound(t *testing.T) {
	e, _, _ := newEngine(t, WithTickBound(2000))
	for i := 0; i < 2000; i++ {
		require.NoError(t, e.Tick())
	}
	assert.Zero(t, e.Ticks())

	_, err := New(newFakeTransport(), signal.NewStore(), WithTickBound(150))
	assert.Error(t, err)
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e, tr, _ := newEngine(t, WithLogger(logger))
	tr.push(0x50C, 1, 2)
	require.NoError(t, e.Tick())
	assert.Contains(t, buf.String(), "engine ready")
	assert.Contains(t, buf.String(), "frame rejected")
	assert.Contains(t, buf.String(), "id=0x50C")
}

func TestRunStopsOnCancel(t *testing.T) {
	e, tr, _ := newEngine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := e.Run(ctx, time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, tr.sent)

	assert.Error(t, e.Run(context.Background(), 0))
}
