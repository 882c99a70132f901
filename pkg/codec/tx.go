package codec

import (
	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/signal"
)

// Outbound identifiers.
const (
	IDBMSControl       = 0x160
	IDICSInfo          = 0x090
	IDMCCurrent        = 0x1BA
	IDMCErrorFlags     = 0x1BC
	IDMCState          = 0x2B9
	IDImmoChallenge    = 0x1B5
	IDBMSUnlockCode    = 0x1B7
	IDPEActOdometer    = 0x1BF
	IDMCTemperature    = 0x1BD
	IDMCProdData1      = 0x601
	IDMCProdData2      = 0x602
	IDMCProdData3      = 0x603
	IDMCProdData4      = 0x604
	IDAppInfo1         = 0x1F0
	IDAppInfo2         = 0x1F1
	IDAppInfo3         = 0x1F2
	IDAppInfo4         = 0x1F4
	IDOdometer         = 0x206
	IDDisplay1         = 0x207
	IDDisplayError     = 0x209
	IDDisplay2         = 0x305
	IDDisplay3         = 0x306
	IDFictionalDisplay = 0x1FFFFF00
)

// Encoder builds one outbound message from the bus.
type Encoder struct {
	ID       uint32
	Extended bool
	Encode   func(signal.Bus) canmux.CANFrame
}

// Bucket is a set of encoders sent together every Period ticks, in order.
type Bucket struct {
	Period   uint32
	Encoders []Encoder
}

// Outbound returns the transmit buckets, fastest first. Each call returns
// fresh encoders with their own rolling counters.
func Outbound() []Bucket {
	return []Bucket{
		{Period: 10, Encoders: []Encoder{
			{ID: IDBMSControl, Encode: encodeBMSControl},
			{ID: IDICSInfo, Encode: newICSInfo()},
			{ID: IDMCCurrent, Encode: encodeMCCurrent},
			{ID: IDMCErrorFlags, Encode: encodeMCErrorFlags},
			{ID: IDMCState, Encode: encodeMCState},
		}},
		{Period: 100, Encoders: []Encoder{
			{ID: IDImmoChallenge, Encode: encodeImmoChallenge},
			{ID: IDBMSUnlockCode, Encode: encodeBMSUnlockCode},
			{ID: IDPEActOdometer, Encode: encodePEActOdometer},
			{ID: IDAppInfo1, Encode: encodeAppInfo1},
			{ID: IDAppInfo4, Encode: encodeAppInfo4},
			{ID: IDOdometer, Encode: encodeOdometer},
			{ID: IDDisplay1, Encode: encodeDisplay1},
			{ID: IDDisplayError, Encode: encodeDisplayError},
			{ID: IDDisplay2, Encode: encodeDisplay2},
			{ID: IDDisplay3, Encode: encodeDisplay3},
		}},
		{Period: 1000, Encoders: []Encoder{
			{ID: IDMCTemperature, Encode: encodeMCTemperature},
			{ID: IDAppInfo2, Encode: encodeAppInfo2},
			{ID: IDAppInfo3, Encode: encodeAppInfo3},
			{ID: IDMCProdData1, Encode: encodeMCProdData1},
			{ID: IDMCProdData2, Encode: encodeMCProdData2},
			{ID: IDMCProdData3, Encode: encodeMCProdData3},
			{ID: IDMCProdData4, Encode: encodeMCProdData4},
			{ID: IDFictionalDisplay, Extended: true, Encode: encodeFictionalDisplay},
		}},
	}
}

func miles(b signal.Bus) bool {
	return b.Param(signal.KilometerToMiles) == 1
}

// encodeBMSControl: d0 BMS control state.
func encodeBMSControl(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDBMSControl, 8)
	f.Data[0] = u8(b.Float(signal.SMBMSControlState))
	return f
}

// newICSInfo returns the 0x90 encoder. d0 rolling counter 1..15,0,
// d1-2 DC current *-32, d3-4 DC-link voltage *64 (14 bits), d5 sensor
// status ready and type 2, d6-7 fixed 30.
func newICSInfo() func(signal.Bus) canmux.CANFrame {
	var counter uint8
	return func(b signal.Bus) canmux.CANFrame {
		counter = (counter + 1) % 16
		f := newFrame(IDICSInfo, 8)
		f.Data[0] = counter
		putLE16(f.Data[1:], uint32(toI32(b.Float(signal.InfoDCCurrent)*-32)))
		v := toI32(b.Float(signal.InfoVoltageDCLink) * 64)
		f.Data[3] = byte(v)
		f.Data[4] = byte(v>>8) & 0x3F
		f.Data[5] = 1 | 1<<5
		f.Data[6] = 30
		f.Data[7] = 30
		return f
	}
}

// encodeMCCurrent: Iq, Id and DC current in 0.01 A, DC-link voltage in
// 0.01 V, 16 bits each.
func encodeMCCurrent(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCCurrent, 8)
	putLE16(f.Data[0:], uint32(toI32(b.Float(signal.InfoMotorCurrentIq)/0.01)))
	putLE16(f.Data[2:], uint32(toI32(b.Float(signal.InfoMotorCurrentId)/0.01)))
	putLE16(f.Data[4:], uint32(toI32(b.Float(signal.InfoDCCurrent)/0.01)))
	putLE16(f.Data[6:], toU32(b.Float(signal.InfoVoltageDCLink)/0.01))
	return f
}

// encodeMCErrorFlags: d0-3 error code, d4-7 trace memory error code.
func encodeMCErrorFlags(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCErrorFlags, 8)
	putLE32(f.Data[0:], b.Uint(signal.ErrErrorcode))
	putLE32(f.Data[4:], b.Uint(signal.ErrMemTrace0))
	return f
}

var deratingBits = []signal.Key{
	signal.DeratingTempMCU,
	signal.DeratingMaxPositiveCurrent,
	signal.DeratingMaxNegativeCurrent,
	signal.DeratingDCLinkVoltageMax,
	signal.DeratingDCLinkVoltageMin,
	signal.DeratingTempMotor,
	signal.DeratingTempFET,
	signal.DeratingRotorSpeed,
}

// encodeMCState: d0-1 rotor speed /0.025, d2-3 motor current /0.01, d4
// state bits, d6 derating bits.
func encodeMCState(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCState, 8)
	putLE16(f.Data[0:], uint32(toI32(b.Float(signal.InfoRotorSpeed)/0.025)))
	putLE16(f.Data[2:], uint32(toI32(b.Float(signal.InfoMotorCurrent)/0.01)))

	var st byte
	st |= byte(toU32(b.Float(signal.SMTrqControl))) & 0x01
	if b.Uint(signal.ErrErrorcode) > 0 {
		st |= 0x02
	}
	st |= byte(toU32(b.Float(signal.DeratingActive))<<2) & 0x04
	roc := b.Float(signal.ROCResult)
	if roc == 1 {
		st |= 0x08
	}
	if roc == 2 {
		st |= 0x10
	}
	if b.Float(signal.SMPEModeReq) > 0 {
		st |= 0x20
	}
	st |= byte(toU32(b.Float(signal.AppDispRideMode))<<6) & 0xC0
	f.Data[4] = st

	var der byte
	for i, k := range deratingBits {
		der |= byte(toU32(b.Float(k))<<i) & (1 << i)
	}
	f.Data[6] = der
	return f
}

// encodeMCTemperature: FET, motor and MCU temperature, 16 bits each as the
// value in 1/16 degree shifted right by four.
func encodeMCTemperature(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCTemperature, 6)
	for i, k := range []signal.Key{signal.TempFETMax, signal.TempMotor, signal.TempMCU} {
		r := toU32(b.Float(k) * 16)
		f.Data[2*i] = byte(r >> 4)
		f.Data[2*i+1] = byte(r >> 12)
	}
	return f
}

// encodePEActOdometer: d0-3 total and d4-7 trip distance in meters, or in
// 1/1000 mile when imperial units are selected.
func encodePEActOdometer(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDPEActOdometer, 8)
	total := b.Float(signal.InfoOdoTotalKilometers)
	trip := b.Float(signal.InfoOdoTripKilometers)
	if miles(b) {
		putLE32(f.Data[0:], toU32(total*621.3711))
		putLE32(f.Data[4:], toU32(trip*621.3711))
	} else {
		putLE32(f.Data[0:], toU32(total*1000))
		putLE32(f.Data[4:], toU32(trip*1000))
	}
	return f
}

func encodeImmoChallenge(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDImmoChallenge, 8)
	putLE32(f.Data[0:], b.Uint(signal.BSWImmoChallengeLower))
	putLE32(f.Data[4:], b.Uint(signal.BSWImmoChallengeHigher))
	return f
}

func encodeBMSUnlockCode(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDBMSUnlockCode, 8)
	putLE32(f.Data[0:], b.Uint(signal.BSWBMSUnlockCodeLower))
	putLE32(f.Data[4:], b.Uint(signal.BSWBMSUnlockCodeHigher))
	return f
}

func encodeMCProdData1(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCProdData1, 8)
	putLE32(f.Data[0:], b.Uint(signal.ProdBSWVerRelease))
	putLE32(f.Data[4:], b.Uint(signal.ProdBSWVerRevision))
	return f
}

// encodeMCProdData2: d0-1 dataset ID1, d2-5 ID2, d6-7 ID3 in thousands.
func encodeMCProdData2(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCProdData2, 8)
	putLE16(f.Data[0:], b.Uint(signal.BSWDatasetID1))
	putLE32(f.Data[2:], b.Uint(signal.BSWDatasetID2))
	putLE16(f.Data[6:], b.Uint(signal.BSWDatasetID3)/1000)
	return f
}

func encodeMCProdData3(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCProdData3, 8)
	putLE32(f.Data[0:], b.Uint(signal.ProdHWProdInfo1))
	return f
}

func encodeMCProdData4(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDMCProdData4, 8)
	putLE32(f.Data[0:], b.Uint(signal.ProdHWID1))
	putLE32(f.Data[4:], b.Uint(signal.ProdHWID2))
	return f
}
