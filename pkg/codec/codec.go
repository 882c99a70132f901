// Package codec converts between CAN payloads and signal bus quantities.
//
// Decoders check the data length first and write nothing on a mismatch.
// Encoders read the bus and persisted parameters and build one frame each.
package codec

import (
	"errors"

	"github.com/roffe/canmux"
)

var ErrLength = errors.New("unexpected data length")

func newFrame(id uint32, dlc uint8) canmux.CANFrame {
	return canmux.CANFrame{
		Identifier: id,
		DLC:        dlc,
		FrameType:  canmux.Outgoing,
	}
}
