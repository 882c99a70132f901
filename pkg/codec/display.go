package codec

import (
	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/signal"
)

// encodeAppInfo1: d0-1 speed in 0.01 km/h (0.01 mph), d2 ride mode, d4-7
// trip in meters (1/1000 mile).
func encodeAppInfo1(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDAppInfo1, 8)
	speed := b.Float(signal.InfoVehicleSpeed)
	trip := b.Float(signal.InfoOdoTripKilometers)
	var v int32
	var t uint32
	if miles(b) {
		v = toI32(speed * 62.13711)
		t = toU32(trip * 621.3711)
	} else {
		v = toI32(speed * 100)
		t = toU32(trip * 1000)
	}
	putLE16(f.Data[0:], uint32(v))
	f.Data[2] = u8(b.Float(signal.AppDispRideMode))
	putLE32(f.Data[4:], t)
	return f
}

// encodeAppInfo2: d0-1 remaining distance, d2 state of charge, d3-5 total
// and d6-7 trip distance, whole km or miles.
func encodeAppInfo2(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDAppInfo2, 8)
	rem := b.Float(signal.InfoRemainingDistance)
	total := b.Float(signal.InfoOdoTotalKilometers)
	trip := b.Float(signal.InfoOdoTripKilometers)
	if miles(b) {
		rem *= 0.6213711
		total *= 0.6213711
		trip *= 0.6213711
	}
	putLE16(f.Data[0:], toU32(rem))
	f.Data[2] = u8(b.Float(signal.SOCStateOfCharge))
	putLE24(f.Data[3:], toU32(total))
	putLE16(f.Data[6:], toU32(trip))
	return f
}

// encodeAppInfo3: d0-1 average consumption, d2-4 and d5-7 charged and
// discharged capacity in 0.1 Ah.
func encodeAppInfo3(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDAppInfo3, 8)
	c := b.Float(signal.InfoConsumptionAveTrip)
	if miles(b) {
		putLE16(f.Data[0:], toU32(c*160.9344))
	} else {
		putLE16(f.Data[0:], toU32(c*100))
	}
	putLE24(f.Data[2:], toU32(b.Float(signal.InfoAhPos)*10))
	putLE24(f.Data[5:], toU32(b.Float(signal.InfoAhNeg)*10))
	return f
}

func encodeAppInfo4(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDAppInfo4, 8)
	f.Data[0] = byte(b.Uint(signal.AppBoostInfo))
	f.Data[1] = u8(b.Float(signal.AppBoostAvailRel))
	putLE16(f.Data[2:], toU32(b.Float(signal.AppBoostAvailAs)))
	return f
}

// encodeOdometer: d2-3 total distance modulo 65536, whole km or miles.
func encodeOdometer(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDOdometer, 8)
	v := toU32(b.Float(signal.InfoOdoTotalKilometers))
	if miles(b) {
		v = toU32(float32(v) * 0.6213711)
	}
	putLE16(f.Data[2:], v)
	return f
}

// encodeDisplay1: d1 fixed 8, d2 gear, d3 unit bit and boost bar, d4-5
// speed and d6-7 trip in tenths.
func encodeDisplay1(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDDisplay1, 8)

	gear := uint32(0xA)
	if b.Float(signal.SMTrqControl) != 0 {
		if b.Float(signal.DriverReverseGear) != 0 {
			gear = 0xB
		} else {
			gear = toU32(b.Float(signal.AppDispRideMode) + 1)
		}
	}

	speed := b.Float(signal.InfoVehicleSpeed)
	if speed < 0 {
		speed = -speed
	}
	trip := b.Float(signal.InfoOdoTripKilometers)
	var vref int32
	var odo uint32
	var boost byte
	if miles(b) {
		vref = toI32(speed * 6.213711)
		odo = toU32(trip * 6.213711)
	} else {
		vref = toI32(speed * 10)
		odo = toU32(trip * 10)
		switch b.Param(signal.SwitchDataInfo207) {
		case 1:
			boost = u8(b.Float(signal.InfoRelTorqueSetpoint))
		case 2:
			boost = u8(b.Float(signal.InfoRelTorqueMax))
		case 3:
			boost = u8(b.Float(signal.InfoRelTorqueMapping))
		default:
			boost = u8(b.Float(signal.AppBoostAvailRel))
		}
	}

	f.Data[1] = 8
	f.Data[2] = byte(gear)
	f.Data[3] = byte(b.Param(signal.KilometerToMiles))<<7&0x80 | boost&0x7F
	putLE16(f.Data[4:], uint32(vref))
	putLE16(f.Data[6:], odo)
	return f
}

// encodeDisplayError: d0 is n+1 when exactly bit n of the error code is
// set, otherwise 0.
func encodeDisplayError(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDDisplayError, 8)
	code := b.Uint(signal.ErrErrorcode)
	for n := 0; n < 31; n++ {
		if code == 1<<n {
			f.Data[0] = byte(n + 1)
			break
		}
	}
	return f
}

// encodeDisplay2: d0-1 combined relative temperature in 0.1 %.
func encodeDisplay2(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDDisplay2, 8)
	putLE16(f.Data[0:], uint32(toI32(b.Float(signal.TempCombinedMaxRel)/0.1)))
	return f
}

// encodeDisplay3: d2 state of charge, d5-6 DC-link voltage or remaining
// distance in hundredths depending on SwitchDataInfo306.
func encodeDisplay3(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDDisplay3, 8)
	f.Data[2] = u8(b.Float(signal.SOCStateOfCharge))
	if b.Param(signal.SwitchDataInfo306) == 0 {
		putLE16(f.Data[5:], uint32(toI32(b.Float(signal.InfoVoltageDCLink)*100)))
		return f
	}
	rem := b.Float(signal.InfoRemainingDistance)
	if miles(b) {
		putLE16(f.Data[5:], uint32(toI32(rem*62.13711)))
	} else {
		putLE16(f.Data[5:], uint32(toI32(rem*100)))
	}
	return f
}

// encodeFictionalDisplay: extended frame, d0-3 whole trip km, d4-7 whole
// speed as signed.
func encodeFictionalDisplay(b signal.Bus) canmux.CANFrame {
	f := newFrame(IDFictionalDisplay, 8)
	f.Extended = true
	putLE32(f.Data[0:], toU32(b.Float(signal.InfoOdoTripKilometers)))
	putLE32(f.Data[4:], uint32(toI32(b.Float(signal.InfoVehicleSpeed))))
	return f
}
