package codec

import (
	"encoding/binary"
	"math"
)

// toI32 truncates toward zero and saturates at the int32 range. NaN maps
// to 0.
func toI32(v float32) int32 {
	switch {
	case math.IsNaN(float64(v)):
		return 0
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}
	return int32(v)
}

// toU32 truncates toward zero and saturates at the uint32 range. NaN and
// negative values map to 0.
func toU32(v float32) uint32 {
	switch {
	case math.IsNaN(float64(v)), v <= 0:
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(v)
}

// u8 is the low byte of the saturated unsigned conversion.
func u8(v float32) byte {
	return byte(toU32(v))
}

func flag(set bool) float32 {
	if set {
		return 1
	}
	return 0
}

func le16s(d []byte) int16 {
	return int16(binary.LittleEndian.Uint16(d))
}

func be16s(d []byte) int16 {
	return int16(binary.BigEndian.Uint16(d))
}

func putLE16(d []byte, v uint32) {
	binary.LittleEndian.PutUint16(d, uint16(v))
}

func putLE24(d []byte, v uint32) {
	d[0] = byte(v)
	d[1] = byte(v >> 8)
	d[2] = byte(v >> 16)
}

func putLE32(d []byte, v uint32) {
	binary.LittleEndian.PutUint32(d, v)
}

func le16(d []byte) uint16 {
	return binary.LittleEndian.Uint16(d)
}

func le32(d []byte) uint32 {
	return binary.LittleEndian.Uint32(d)
}
