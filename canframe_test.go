package canmux

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f := NewFrame(0x123, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, Incoming)
	assert.Equal(t, uint8(8), f.DLC)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, f.Payload())
	assert.False(t, f.Extended)

	e := NewExtendedFrame(0x1FFFFF00, []byte{0xAA}, Outgoing)
	assert.True(t, e.Extended)
	assert.Equal(t, []byte{0xAA}, e.Payload())
	assert.Equal(t, [8]byte{0xAA}, e.Data)
}

func TestCANFrame_Validate(t *testing.T) {
	tests := []struct {
		name    string
		frame   CANFrame
		wantErr bool
	}{
		{"standard max", CANFrame{Identifier: 0x7FF, DLC: 8}, false},
		{"standard too large", CANFrame{Identifier: 0x800}, true},
		{"extended max", CANFrame{Identifier: 0x1FFFFFFF, Extended: true}, false},
		{"extended too large", CANFrame{Identifier: 0x20000000, Extended: true}, true},
		{"dlc too large", CANFrame{Identifier: 0x100, DLC: 9}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.frame.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFrame))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCANFrame_Einride(t *testing.T) {
	f := NewExtendedFrame(0x18DAF110, []byte{0x02, 0x10, 0x03}, Outgoing)
	f.RTR = false
	ef := f.EinrideFrame()
	assert.Equal(t, uint32(0x18DAF110), ef.ID)
	assert.True(t, ef.IsExtended)
	assert.Equal(t, uint8(3), ef.Length)

	back := FromEinrideFrame(ef, Outgoing)
	assert.Equal(t, f, back)
}

func TestCANFrame_String(t *testing.T) {
	f := NewFrame(0x171, []byte{0x00, 0x40}, Incoming)
	s := f.String()
	assert.True(t, strings.HasPrefix(s, "<i> || 0x171 || 2 || 00 40"), s)

	rtr := CANFrame{Identifier: 0x1FFFFF00, Extended: true, RTR: true, FrameType: Outgoing}
	assert.Contains(t, rtr.String(), "<o> || 0x1FFFFF00 || 0 || RTR")
	assert.Contains(t, f.ColorString(), "0x171")
}
