package signal

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownParam = errors.New("unknown parameter")

// Param names a persisted configuration value.
type Param uint8

const (
	// KilometerToMiles selects imperial units on the display messages.
	KilometerToMiles Param = iota
	// SwitchDataInfo207 selects the boost field of 0x207.
	SwitchDataInfo207
	// SwitchDataInfo306 selects the 0x306 payload, DC-link voltage or range.
	SwitchDataInfo306
)

// ParamInfo describes a parameter for listing and validation.
type ParamInfo struct {
	Param       Param
	Name        string
	Max         uint32
	Description string
}

var paramInfo = []ParamInfo{
	{KilometerToMiles, "KilometerToMiles", 1, "0 = kilometers, 1 = miles"},
	{SwitchDataInfo207, "SwitchDataInfo207", 3, "0x207 boost field: 0 boost available, 1 torque setpoint, 2 torque max, 3 torque mapping"},
	{SwitchDataInfo306, "SwitchDataInfo306", 1, "0x306 bytes 5-6: 0 DC-link voltage, 1 remaining distance"},
}

// Params returns the known parameters in declaration order.
func Params() []ParamInfo {
	out := make([]ParamInfo, len(paramInfo))
	copy(out, paramInfo)
	return out
}

func (p Param) String() string {
	if int(p) < len(paramInfo) {
		return paramInfo[p].Name
	}
	return fmt.Sprintf("Param(%d)", uint8(p))
}

// Info returns the metadata of p.
func (p Param) Info() (ParamInfo, error) {
	if int(p) < len(paramInfo) {
		return paramInfo[p], nil
	}
	return ParamInfo{}, fmt.Errorf("%w: %d", ErrUnknownParam, uint8(p))
}

// ParseParam resolves a parameter by name, ignoring case.
func ParseParam(name string) (Param, error) {
	for _, info := range paramInfo {
		if strings.EqualFold(info.Name, name) {
			return info.Param, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParam, name)
}
