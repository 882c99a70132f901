package candump

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/roffe/canmux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	tests := []struct {
		line     string
		id       uint32
		extended bool
		data     []byte
		sec      int64
		usec     int64
	}{
		{"(1436509052.249713) vcan0 171#0040000000000000", 0x171, false, []byte{0, 0x40, 0, 0, 0, 0, 0, 0}, 1436509052, 249713},
		{"(1.000001) can0 50C#01", 0x50C, false, []byte{0x01}, 1, 1},
		{"(0.5) can0 1FFFFF00#0102", 0x1FFFFF00, true, []byte{1, 2}, 0, 500000},
		{"(10.000000) can1 600#", 0x600, false, []byte{}, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			rec, err := ParseRecord(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.id, rec.Frame.Identifier)
			assert.Equal(t, tt.extended, rec.Frame.Extended)
			assert.Equal(t, tt.data, rec.Frame.Payload())
			assert.Equal(t, canmux.Incoming, rec.Frame.FrameType)
			assert.Equal(t, tt.sec, rec.Time.Unix())
			assert.Equal(t, tt.usec, int64(rec.Time.Nanosecond()/1000))
		})
	}
}

func TestParseRecordErrors(t *testing.T) {
	for _, line := range []string{
		"",
		"171#00",
		"1436509052.249713 vcan0 171#00",
		"(abc) vcan0 171#00",
		"(1.0) vcan0 171-00",
		"(1.0) vcan0 171#0 extra",
	} {
		_, err := ParseRecord(line)
		assert.ErrorIs(t, err, ErrSyntax, line)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, "can0")
	ts := time.Unix(1700000000, 123456000)
	frames := []canmux.CANFrame{
		canmux.NewFrame(0x90, []byte{1, 0xC0, 0xFF, 0, 0x0C, 0x21, 30, 30}, canmux.Outgoing),
		canmux.NewExtendedFrame(0x1FFFFF00, []byte{2, 1, 0, 0}, canmux.Outgoing),
		canmux.NewFrame(0x50C, []byte{1}, canmux.Outgoing),
	}
	for _, f := range frames {
		require.NoError(t, w.Write(ts, f))
	}
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "(1700000000.123456) can0 090#01C0FF000C211E1E", lines[0])

	recs, err := ReadAll(&buf)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, frames[i].Identifier, rec.Frame.Identifier)
		assert.Equal(t, frames[i].Extended, rec.Frame.Extended)
		assert.Equal(t, frames[i].Payload(), rec.Frame.Payload())
		assert.True(t, rec.Time.Equal(ts))
		assert.Equal(t, "can0", rec.Interface)
	}
}

func TestReaderSkipsCommentsAndReportsLine(t *testing.T) {
	in := "# header\n\n(1.0) can0 171#00\n(2.0) can0 bogus\n"
	r := NewReader(strings.NewReader(in))
	rec, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x171), rec.Frame.Identifier)

	_, err = r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 4")

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}
