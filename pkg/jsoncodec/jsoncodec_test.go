package jsoncodec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/roffe/canmux/pkg/signal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := signal.NewStore()
	s.SetFloat(signal.BMSPackVoltage, 128)
	s.SetUint(signal.BMSErrorcode, 3)
	s.SetStale(signal.ExtTorqueRequest, true)
	s.SetParam(signal.KilometerToMiles, 1)
	in := s.Snapshot()

	data, err := Marshal(in)
	require.NoError(t, err)

	var out signal.Snapshot
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestMarshalIndentSortsKeys(t *testing.T) {
	v := map[string]int{"b": 2, "a": 1}
	data, err := MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": 2\n}", string(data))
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, map[string]uint32{"SwitchDataInfo207": 2}))
	assert.Equal(t, `{"SwitchDataInfo207":2}`, strings.TrimSpace(buf.String()))
}
