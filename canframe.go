package canmux

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"go.einride.tech/can"
)

const (
	// MaxStandardID is the largest 11-bit identifier.
	MaxStandardID = 0x7FF
	// MaxExtendedID is the largest 29-bit identifier.
	MaxExtendedID = 0x1FFFFFFF
)

type CANFrameType struct {
	Type int
}

var (
	Incoming = CANFrameType{Type: 0}
	Outgoing = CANFrameType{Type: 1}
)

// CANFrame is a classic CAN frame. Only the first DLC bytes of Data are
// meaningful, the rest are zero.
type CANFrame struct {
	Identifier uint32
	Extended   bool
	RTR        bool
	DLC        uint8
	Data       [8]byte
	FrameType  CANFrameType
}

// NewFrame creates a standard frame and copies up to 8 bytes of data.
func NewFrame(identifier uint32, data []byte, frameType CANFrameType) CANFrame {
	f := CANFrame{
		Identifier: identifier,
		FrameType:  frameType,
	}
	f.DLC = uint8(copy(f.Data[:], data))
	return f
}

// NewExtendedFrame creates an extended frame and copies up to 8 bytes of data.
func NewExtendedFrame(identifier uint32, data []byte, frameType CANFrameType) CANFrame {
	f := NewFrame(identifier, data, frameType)
	f.Extended = true
	return f
}

// Payload returns the meaningful part of Data.
func (f CANFrame) Payload() []byte {
	n := min(int(f.DLC), len(f.Data))
	return f.Data[:n]
}

// Validate checks identifier range and DLC.
func (f CANFrame) Validate() error {
	if f.DLC > 8 {
		return fmt.Errorf("%w: dlc %d", ErrInvalidFrame, f.DLC)
	}
	if f.Extended {
		if f.Identifier > MaxExtendedID {
			return fmt.Errorf("%w: extended id 0x%X out of range", ErrInvalidFrame, f.Identifier)
		}
		return nil
	}
	if f.Identifier > MaxStandardID {
		return fmt.Errorf("%w: standard id 0x%X out of range", ErrInvalidFrame, f.Identifier)
	}
	return nil
}

// EinrideFrame converts the frame to the einride representation used by the
// socketcan and candump code.
func (f CANFrame) EinrideFrame() can.Frame {
	return can.Frame{
		ID:         f.Identifier,
		Length:     f.DLC,
		Data:       can.Data(f.Data),
		IsExtended: f.Extended,
		IsRemote:   f.RTR,
	}
}

// FromEinrideFrame converts an einride frame.
func FromEinrideFrame(ef can.Frame, frameType CANFrameType) CANFrame {
	return CANFrame{
		Identifier: ef.ID,
		Extended:   ef.IsExtended,
		RTR:        ef.IsRemote,
		DLC:        ef.Length,
		Data:       [8]byte(ef.Data),
		FrameType:  frameType,
	}
}

var (
	yellow = color.New(color.FgHiBlue).SprintfFunc()
	red    = color.New(color.FgRed).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
)

func (f CANFrame) idString() string {
	if f.Extended {
		return fmt.Sprintf("0x%08X", f.Identifier)
	}
	return fmt.Sprintf("0x%03X", f.Identifier)
}

func (f CANFrame) direction() string {
	switch f.FrameType.Type {
	case 1:
		return "<o> || "
	default:
		return "<i> || "
	}
}

func (f CANFrame) hexView() string {
	if f.RTR {
		return "RTR"
	}
	var hexView strings.Builder
	for i, b := range f.Payload() {
		hexView.WriteString(fmt.Sprintf("%02X", b))
		if i != int(f.DLC)-1 {
			hexView.WriteString(" ")
		}
	}
	return hexView.String()
}

func (f CANFrame) binView() string {
	var binView strings.Builder
	for i, b := range f.Payload() {
		binView.WriteString(fmt.Sprintf("%08b", b))
		if i != int(f.DLC)-1 {
			binView.WriteString(" ")
		}
	}
	return binView.String()
}

func (f CANFrame) String() string {
	var out strings.Builder
	out.WriteString(f.direction())
	out.WriteString(f.idString() + " || ")
	out.WriteString(strconv.Itoa(int(f.DLC)) + " || ")
	out.WriteString(fmt.Sprintf("%-23s", f.hexView()))
	out.WriteString(" || ")
	out.WriteString(fmt.Sprintf("%-71s", f.binView()))
	return out.String()
}

func (f CANFrame) ColorString() string {
	var out strings.Builder
	out.WriteString(f.direction())
	out.WriteString(green("%s", f.idString()) + " || ")
	out.WriteString(strconv.Itoa(int(f.DLC)) + " || ")
	out.WriteString(yellow("%-23s", f.hexView()))
	out.WriteString(" || ")
	out.WriteString(red("%-71s", f.binView()))
	return out.String()
}
