package collector

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConnection is returned when the power-management service cannot be
	// reached or its devices cannot be enumerated.
	ErrConnection = errors.New("power service unavailable")
	// ErrUnknownState is returned for a charging-state code outside the
	// documented UPower range. It indicates a protocol mismatch.
	ErrUnknownState = errors.New("unknown charging state code")
)

// ChargingState mirrors the UPower Device.State enumeration.
type ChargingState uint32

const (
	StateUnknown ChargingState = iota
	StateCharging
	StateDischarging
	StateEmpty
	StateFullyCharged
	StatePendingCharge
	StatePendingDischarge
)

// StateFromCode maps a raw UPower state code to a ChargingState.
func StateFromCode(code uint32) (ChargingState, error) {
	if code > uint32(StatePendingDischarge) {
		return StateUnknown, fmt.Errorf("%w: %d", ErrUnknownState, code)
	}
	return ChargingState(code), nil
}

func (s ChargingState) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateCharging:
		return "Charging"
	case StateDischarging:
		return "Discharging"
	case StateEmpty:
		return "Empty"
	case StateFullyCharged:
		return "FullyCharged"
	case StatePendingCharge:
		return "PendingCharge"
	case StatePendingDischarge:
		return "PendingDischarge"
	default:
		return fmt.Sprintf("State(%d)", uint32(s))
	}
}

// Depleting reports whether the battery is draining (Discharging or Empty).
func (s ChargingState) Depleting() bool {
	return s == StateDischarging || s == StateEmpty
}

// Reading holds one battery's state at a point in time.
type Reading struct {
	Device      string        `json:"device"`
	Percentage  float64       `json:"percentage"`
	TimeToEmpty time.Duration `json:"time_to_empty"` // zero when unknown
	State       ChargingState `json:"state"`
}

// DeviceType values reported by UPower. Only batteries are sampled.
const (
	DeviceTypeUnknown   uint32 = 0
	DeviceTypeLinePower uint32 = 1
	DeviceTypeBattery   uint32 = 2
)

// DeviceProperties are the raw values read for one device.
type DeviceProperties struct {
	Type            uint32
	StateCode       uint32
	Percentage      float64
	TimeToEmptySecs int64
}
