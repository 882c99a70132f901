package canmux

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelTransport_ReceiveEmpty(t *testing.T) {
	rx := make(chan CANFrame, 4)
	tr := NewChannelTransport(rx, make(chan CANFrame, 1), nil)

	_, ok := tr.Receive()
	assert.False(t, ok)

	rx <- NewFrame(0x111, []byte{1}, Incoming)
	f, ok := tr.Receive()
	require.True(t, ok)
	assert.Equal(t, uint32(0x111), f.Identifier)

	_, ok = tr.Receive()
	assert.False(t, ok)
}

func TestChannelTransport_SendBackpressure(t *testing.T) {
	tx := make(chan CANFrame, 1)
	tr := NewChannelTransport(nil, tx, nil)

	require.NoError(t, tr.Send(NewFrame(0x90, []byte{1}, Incoming)))
	err := tr.Send(NewFrame(0x90, []byte{2}, Incoming))
	assert.True(t, errors.Is(err, ErrBufferFull))

	sent := <-tx
	assert.Equal(t, Outgoing, sent.FrameType)
	assert.Equal(t, []byte{1}, sent.Payload())

	err = tr.Send(CANFrame{Identifier: 0x900})
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestChannelTransport_ConfigureFilters(t *testing.T) {
	rx := make(chan CANFrame, 8)
	var pushed []FilterID
	tr := NewChannelTransport(rx, nil, func(ids []FilterID) error {
		pushed = ids
		return nil
	})

	require.NoError(t, tr.ConfigureFilters(1, []FilterID{{ID: 0x176}, {ID: 0x178}}))
	require.NoError(t, tr.ConfigureFilters(0, []FilterID{{ID: 0x111}}))
	assert.Equal(t, []FilterID{{ID: 0x111}, {ID: 0x176}, {ID: 0x178}}, pushed)
	assert.Equal(t, pushed, tr.Filters())

	err := tr.ConfigureFilters(MaxFilterBanks, []FilterID{{ID: 0x1}})
	assert.True(t, errors.Is(err, ErrInvalidValue))

	rx <- NewFrame(0x200, nil, Incoming)
	rx <- NewFrame(0x178, nil, Incoming)
	rx <- NewExtendedFrame(0x111, nil, Incoming)
	f, ok := tr.Receive()
	require.True(t, ok)
	assert.Equal(t, uint32(0x178), f.Identifier)
	_, ok = tr.Receive()
	assert.False(t, ok, "extended 0x111 does not match the standard filter")
}

func TestChannelTransport_ClosedReceive(t *testing.T) {
	rx := make(chan CANFrame)
	close(rx)
	tr := NewChannelTransport(rx, nil, nil)
	_, ok := tr.Receive()
	assert.False(t, ok)
}

func TestLoggedTransport(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	rx := make(chan CANFrame, 1)
	tx := make(chan CANFrame)
	inner := NewChannelTransport(rx, tx, nil)
	tr := NewLoggedTransport(inner, logger, slog.LevelDebug, LogAll)

	rx <- NewFrame(0x171, []byte{0, 0x40}, Incoming)
	_, ok := tr.Receive()
	require.True(t, ok)
	assert.Contains(t, buf.String(), "can receive")

	err := tr.Send(NewFrame(0x160, []byte{1}, Outgoing))
	assert.True(t, errors.Is(err, ErrBufferFull))
	assert.Contains(t, buf.String(), "can send error")

	buf.Reset()
	quiet := NewLoggedTransport(inner, logger, slog.LevelDebug, LogNone)
	rx <- NewFrame(0x171, nil, Incoming)
	_, ok = quiet.Receive()
	require.True(t, ok)
	assert.Empty(t, buf.String())
}
