package codec

import (
	"fmt"

	"github.com/roffe/canmux"
	"github.com/roffe/canmux/pkg/registry"
	"github.com/roffe/canmux/pkg/signal"
)

// Inbound identifiers.
const (
	IDExtTorqueControl = 0x111
	IDExtImmoControl   = 0x1B6
	IDBMSInfo1         = 0x171
	IDBMSInfo2         = 0x172
	IDBMSInfo6         = 0x176
	IDBMSInfo8         = 0x178
	IDDynoAct          = 0x310
	IDCurrentSensor    = 0x521
	IDDisplayResetTrip = 0x50C
	IDTestData         = 0x600
)

// decoder implements registry.Handler for one message class.
type decoder struct {
	id      uint32
	dlc     uint8
	stale   []signal.Key
	decode  func(d []byte, b signal.Bus)
	timeout func(b signal.Bus)
}

func (m *decoder) Decode(f canmux.CANFrame, b signal.Bus) error {
	if f.DLC != m.dlc {
		return fmt.Errorf("%w: 0x%03X has %d bytes, want %d", ErrLength, m.id, f.DLC, m.dlc)
	}
	for _, k := range m.stale {
		b.SetStale(k, false)
	}
	m.decode(f.Data[:], b)
	return nil
}

func (m *decoder) Timeout(b signal.Bus) {
	for _, k := range m.stale {
		b.SetStale(k, true)
	}
	if m.timeout != nil {
		m.timeout(b)
	}
}

// Inbound returns the registry entries for every received message. Each
// call returns fresh entries.
func Inbound() []registry.Entry {
	return []registry.Entry{
		{ID: IDExtTorqueControl, Reload: 200, Handler: extTorqueControl()},
		{ID: IDExtImmoControl, Reload: 200, Handler: extImmoControl()},
		{ID: IDBMSInfo1, Reload: 200, Handler: bmsInfo1()},
		{ID: IDBMSInfo2, Reload: 2500, Handler: bmsInfo2()},
		{ID: IDBMSInfo6, Reload: 2500, Handler: bmsInfo6()},
		{ID: IDBMSInfo8, Reload: 2500, Handler: bmsInfo8()},
		{ID: IDDynoAct, Reload: 200, Handler: dynoAct()},
		{ID: IDCurrentSensor, Reload: 200, Handler: currentSensor()},
		{ID: IDDisplayResetTrip, Reload: 200, Handler: displayResetTrip()},
		{ID: IDTestData, Reload: 500, Handler: testData()},
	}
}

func extTorqueControl() *decoder {
	return &decoder{
		id:  IDExtTorqueControl,
		dlc: 8,
		stale: []signal.Key{
			signal.ExtAliveCounter,
			signal.ExtStateRequest,
			signal.ExtRideMode,
			signal.ExtROCStart,
			signal.ExtBoostEnable,
			signal.ExtReverseGear,
			signal.ExtSkipSignalChecks,
			signal.ExtTorqueRequest,
			signal.ExtRotorSpeedMax,
		},
		decode: func(d []byte, b signal.Bus) {
			b.SetUint(signal.ExtAliveCounter, uint32(d[0]&0x0F))
			b.SetFloat(signal.ExtStateRequest, flag(d[1]&0x01 > 0))
			b.SetFloat(signal.ExtRideMode, float32(d[2]&0x03))
			b.SetFloat(signal.ExtROCStart, flag(d[2]&0x04 > 0))
			b.SetFloat(signal.ExtBoostEnable, flag(d[2]&0x08 > 0))
			b.SetFloat(signal.ExtReverseGear, flag(d[2]&0x10 > 0))
			b.SetFloat(signal.ExtSkipSignalChecks, flag(d[2]&0x20 > 0))
			b.SetFloat(signal.ExtTorqueRequest, float32(le16s(d[4:]))/256)
			b.SetFloat(signal.ExtRotorSpeedMax, float32(le16s(d[6:]))/32)
		},
	}
}

func extImmoControl() *decoder {
	return &decoder{
		id:    IDExtImmoControl,
		dlc:   8,
		stale: []signal.Key{signal.ImmoUnlockRequest},
		decode: func(d []byte, b signal.Bus) {
			b.SetUint(signal.ImmoUnlockRequestLower, le32(d[0:]))
			b.SetUint(signal.ImmoUnlockRequestHigher, le32(d[4:]))
		},
	}
}

func bmsInfo1() *decoder {
	return &decoder{
		id:  IDBMSInfo1,
		dlc: 8,
		stale: []signal.Key{
			signal.BMSPackVoltage,
			signal.BMSPackCurrent,
			signal.BMSErrorcode,
			signal.BMSChargePlugDetection,
		},
		decode: func(d []byte, b signal.Bus) {
			b.SetFloat(signal.BMSPackVoltage, float32(le16s(d[0:]))/128)
			b.SetFloat(signal.BMSPackCurrent, float32(le16s(d[2:]))/32)
			// byte 7 carries the charge plug bits, not error bits
			b.SetUint(signal.BMSErrorcode, uint32(d[4])|uint32(d[5])<<8|uint32(d[6])<<16)
			b.SetFloat(signal.BMSChargePlugDetection, flag(d[7]&0xC0 > 0))
		},
	}
}

func bmsInfo2() *decoder {
	return &decoder{
		id:  IDBMSInfo2,
		dlc: 8,
		stale: []signal.Key{
			signal.BMSState,
			signal.BMSSOC,
			signal.BMSStateOfHealth,
			signal.BMSRemainingCapacity,
			signal.BMSFullchargeCapacity,
		},
		decode: func(d []byte, b signal.Bus) {
			b.SetFloat(signal.BMSState, float32(le16(d[0:])))
			b.SetFloat(signal.BMSSOC, float32(d[2]))
			b.SetFloat(signal.BMSStateOfHealth, float32(d[3]))
			remaining := float32(le16(d[4:]))
			full := float32(le16(d[6:]))
			// some packs report Ah instead of mAh
			if full < 10000 {
				remaining *= 1000
				full *= 1000
			}
			b.SetFloat(signal.BMSRemainingCapacity, remaining)
			b.SetFloat(signal.BMSFullchargeCapacity, full)
		},
	}
}

func bmsInfo6() *decoder {
	return &decoder{
		id:  IDBMSInfo6,
		dlc: 8,
		stale: []signal.Key{
			signal.BMSTempPowerstage1,
			signal.BMSTempPowerstage2,
			signal.BMSTempMCU,
			signal.BMSTempCell1,
			signal.BMSTempCell2,
		},
		decode: func(d []byte, b signal.Bus) {
			b.SetFloat(signal.BMSTempPowerstage1, float32(le16s(d[0:])))
			b.SetFloat(signal.BMSTempPowerstage2, float32(le16s(d[2:])))
			b.SetFloat(signal.BMSTempMCU, float32(le16s(d[4:])))
			b.SetFloat(signal.BMSTempCell1, float32(d[6]))
			b.SetFloat(signal.BMSTempCell2, float32(d[7]))
		},
	}
}

var bmsInfo8Bits = []signal.Key{
	signal.BMSWarningStatus,
	signal.BMSPendingHVShutdown,
	signal.BMSPendingBordnetShutdown,
	signal.BMSShortPressDetected,
	signal.BMSLongPressDetected,
	signal.BMSSuperLongPressDetected,
	signal.BMSSuperLongPressOngoing,
}

func bmsInfo8() *decoder {
	stale := append([]signal.Key{
		signal.BMSMaxCharge,
		signal.BMSMaxDischarge,
		signal.BMSMaxVoltage,
		signal.BMSMinVoltage,
	}, bmsInfo8Bits...)
	return &decoder{
		id:    IDBMSInfo8,
		dlc:   8,
		stale: stale,
		decode: func(d []byte, b signal.Bus) {
			// integer division, fractions are dropped
			b.SetFloat(signal.BMSMaxCharge, float32(le16(d[1:])/64))
			b.SetFloat(signal.BMSMaxDischarge, float32(le16(d[3:])/64))
			b.SetFloat(signal.BMSMaxVoltage, float32(d[5]))
			b.SetFloat(signal.BMSMinVoltage, float32(d[6]))
			for i, k := range bmsInfo8Bits {
				b.SetFloat(k, float32(d[7]>>i&1))
			}
		},
	}
}

func dynoAct() *decoder {
	return &decoder{
		id:    IDDynoAct,
		dlc:   8,
		stale: []signal.Key{signal.DynoTorque},
		decode: func(d []byte, b signal.Bus) {
			b.SetFloat(signal.DynoTorque, float32(le16s(d[0:]))/32)
		},
	}
}

// currentSensor decodes the big-endian ISA current sensor message.
func currentSensor() *decoder {
	return &decoder{
		id:  IDCurrentSensor,
		dlc: 8,
		stale: []signal.Key{
			signal.DynoDCCurrent,
			signal.DynoDCVoltage,
			signal.DynoElecPowerInput,
		},
		decode: func(d []byte, b signal.Bus) {
			b.SetFloat(signal.DynoDCCurrent, float32(be16s(d[0:]))*0.02)
			b.SetFloat(signal.DynoDCVoltage, float32(be16s(d[2:]))*0.036)
			b.SetFloat(signal.DynoElecPowerInput, float32(be16s(d[4:]))*0.01)
		},
	}
}

func displayResetTrip() *decoder {
	return &decoder{
		id:    IDDisplayResetTrip,
		dlc:   1,
		stale: []signal.Key{signal.DispResetTrip},
		decode: func(d []byte, b signal.Bus) {
			b.SetFloat(signal.DispResetTrip, flag(d[0] > 0))
		},
	}
}

// testData has no stale flag; a timeout clears the value instead.
func testData() *decoder {
	return &decoder{
		id:  IDTestData,
		dlc: 4,
		decode: func(d []byte, b signal.Bus) {
			b.SetUint(signal.ReceivedTestData, le32(d[0:]))
		},
		timeout: func(b signal.Bus) {
			b.SetUint(signal.ReceivedTestData, 0)
		},
	}
}
