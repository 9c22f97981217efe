// Package alert classifies battery readings into severity levels and decides
// when a level warrants a (repeated) notification.
package alert

import (
	"fmt"
	"math"
	"time"

	"github.com/cptspacemanspiff/battery-alert/internal/collector"
)

// Level is the monitor's classification of battery health.
type Level int

const (
	Normal Level = iota
	Low
	Critical
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "Normal"
	case Low:
		return "Low"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	switch l {
	case Normal, Low, Critical:
		return []byte(l.String()), nil
	}
	return nil, fmt.Errorf("invalid level %d", int(l))
}

// UnmarshalText decodes a level name written by MarshalText.
func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Normal":
		*l = Normal
	case "Low":
		*l = Low
	case "Critical":
		*l = Critical
	default:
		return fmt.Errorf("invalid level %q", text)
	}
	return nil
}

// Never is the renewal interval of a level that is never re-notified.
const Never time.Duration = math.MaxInt64

// Policy holds the thresholds and renewal intervals.
type Policy struct {
	// CriticalBelow and LowBelow are exclusive upper bounds in percent.
	CriticalBelow float64
	LowBelow      float64

	LowRenewal      time.Duration
	CriticalRenewal time.Duration
}

// DefaultPolicy returns the stock policy: Critical below 10%, Low below 20%,
// re-alerting every 10 minutes while Low and every 5 minutes while Critical.
func DefaultPolicy() Policy {
	return Policy{
		CriticalBelow:   10,
		LowBelow:        20,
		LowRenewal:      10 * time.Minute,
		CriticalRenewal: 5 * time.Minute,
	}
}

// Worst returns the reading that should drive the alert: the battery with the
// lowest percentage. ok is false when there are no comparable readings or
// when any battery is not depleting (the machine is on mains).
func Worst(readings []collector.Reading) (worst collector.Reading, ok bool) {
	for _, r := range readings {
		if !r.State.Depleting() {
			return collector.Reading{}, false
		}
		if !finite(r.Percentage) {
			continue
		}
		if !ok || r.Percentage < worst.Percentage {
			worst, ok = r, true
		}
	}
	return worst, ok
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LevelFor maps a charge percentage to a level.
func (p Policy) LevelFor(percentage float64) Level {
	switch {
	case percentage < p.CriticalBelow:
		return Critical
	case percentage < p.LowBelow:
		return Low
	default:
		return Normal
	}
}

// Classify returns the level for one tick's readings.
func (p Policy) Classify(readings []collector.Reading) Level {
	worst, ok := Worst(readings)
	if !ok {
		return Normal
	}
	return p.LevelFor(worst.Percentage)
}

// RenewalInterval is the minimum time between notifications while staying at l.
func (p Policy) RenewalInterval(l Level) time.Duration {
	switch l {
	case Low:
		return p.LowRenewal
	case Critical:
		return p.CriticalRenewal
	default:
		return Never
	}
}

// ShouldNotify reports whether moving from prev to next at now requires a
// notification, given the time of the last one. Any level change qualifies;
// an unchanged level qualifies once the renewal interval of prev has elapsed.
func (p Policy) ShouldNotify(prev, next Level, lastNotified, now time.Time) bool {
	if next != prev {
		return true
	}
	interval := p.RenewalInterval(prev)
	if interval == Never {
		return false
	}
	return now.Sub(lastNotified) >= interval
}
