package collector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// DeviceReader is the narrow view of the power-management service the
// Sampler depends on. UPower implements it.
type DeviceReader interface {
	// ListDevices enumerates every device the service knows about.
	ListDevices(ctx context.Context) ([]string, error)
	// ReadDevice reads the raw properties of one device.
	ReadDevice(ctx context.Context, device string) (DeviceProperties, error)
}

// Sampler turns raw device properties into battery Readings.
type Sampler struct {
	reader DeviceReader
	log    *slog.Logger
}

// NewSampler creates a Sampler reading from r.
func NewSampler(r DeviceReader, logger *slog.Logger) *Sampler {
	return &Sampler{reader: r, log: logger}
}

// Sample returns one Reading per battery device. A device that cannot be
// read is logged and skipped. A non-finite percentage is logged but the
// reading is kept, since its charging state still matters. Failing to
// enumerate devices is returned as ErrConnection, and an out-of-range state
// code as ErrUnknownState.
func (s *Sampler) Sample(ctx context.Context) ([]Reading, error) {
	devices, err := s.reader.ListDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: enumerate devices: %w", ErrConnection, err)
	}

	readings := make([]Reading, 0, len(devices))
	for _, dev := range devices {
		props, err := s.reader.ReadDevice(ctx, dev)
		if err != nil {
			s.log.Warn("skip device", "device", dev, "err", err)
			continue
		}
		if props.Type != DeviceTypeBattery {
			continue
		}

		state, err := StateFromCode(props.StateCode)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", dev, err)
		}
		if math.IsNaN(props.Percentage) || math.IsInf(props.Percentage, 0) {
			// Kept for its charging state; alert.Worst leaves it out of the minimum.
			s.log.Warn("battery has invalid percentage", "device", dev, "percentage", props.Percentage)
		}

		r := Reading{
			Device:     dev,
			Percentage: props.Percentage,
			State:      state,
		}
		if props.TimeToEmptySecs > 0 {
			r.TimeToEmpty = time.Duration(props.TimeToEmptySecs) * time.Second
		}
		readings = append(readings, r)
	}

	return readings, nil
}
