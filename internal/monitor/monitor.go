// Package monitor drives the sample, classify, notify cycle.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
	"github.com/cptspacemanspiff/battery-alert/internal/collector"
)

// Sampler produces the battery readings for one tick.
type Sampler interface {
	Sample(ctx context.Context) ([]collector.Reading, error)
}

// Notifier shows an alert for a level.
type Notifier interface {
	Notify(ctx context.Context, level alert.Level, r collector.Reading) error
}

// Reporter receives a status snapshot after every tick.
type Reporter interface {
	Publish(s Status)
}

// State is what the monitor remembers between ticks.
type State struct {
	Level        alert.Level
	LastNotified time.Time
}

// Status is the externally visible result of the latest tick.
type Status struct {
	Level           alert.Level `json:"level"`
	OnBattery       bool        `json:"on_battery"`
	Percentage      float64     `json:"percentage"`
	TimeToEmptySecs int64       `json:"time_to_empty_secs"`
	State           string      `json:"state"`
	Batteries       int         `json:"batteries"`
	LastNotified    time.Time   `json:"last_notified"`
	Updated         time.Time   `json:"updated"`
}

// Monitor owns the severity state and runs ticks on a fixed interval.
type Monitor struct {
	sampler  Sampler
	notifier Notifier
	policy   alert.Policy
	interval time.Duration
	reporter Reporter
	wake     <-chan struct{}
	now      func() time.Time

	state State

	sampleLog *slog.Logger
	alertLog  *slog.Logger
	notifyLog *slog.Logger
}

// New creates a Monitor starting at Normal with the notification clock set to now.
func New(s Sampler, n Notifier, policy alert.Policy, interval time.Duration, logger *slog.Logger) *Monitor {
	m := &Monitor{
		sampler:   s,
		notifier:  n,
		policy:    policy,
		interval:  interval,
		now:       time.Now,
		sampleLog: logger.With("topic", "sample"),
		alertLog:  logger.With("topic", "alert"),
		notifyLog: logger.With("topic", "notify"),
	}
	m.state = State{Level: alert.Normal, LastNotified: m.now()}
	return m
}

// SetReporter registers r to receive a Status after every tick.
func (m *Monitor) SetReporter(r Reporter) {
	m.reporter = r
}

// SetWake makes the monitor tick immediately whenever ch receives.
func (m *Monitor) SetWake(ch <-chan struct{}) {
	m.wake = ch
}

// State returns the current state.
func (m *Monitor) State() State {
	return m.state
}

// Run ticks until ctx is cancelled or sampling fails. Cancellation returns nil;
// a sampling failure is returned as is.
func (m *Monitor) Run(ctx context.Context) error {
	timer := time.NewTimer(m.interval)
	defer timer.Stop()

	for {
		if err := m.Tick(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				return nil
			}
			return err
		}

		timer.Reset(m.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case <-m.wake:
			m.sampleLog.Info("resampling after wake")
		}
	}
}

// Tick runs one sample, classify, notify step. Notification failures are
// logged; only sampling errors are returned.
func (m *Monitor) Tick(ctx context.Context) error {
	readings, err := m.sampler.Sample(ctx)
	if err != nil {
		return err
	}

	next := m.policy.Classify(readings)
	worst, onBattery := alert.Worst(readings)
	shown := worst
	if !onBattery {
		shown = lowest(readings)
	}
	now := m.now()

	m.sampleLog.Debug("sample",
		"batteries", len(readings),
		"on_battery", onBattery,
		"percentage", shown.Percentage,
		"level", next)

	prev := m.state.Level
	if m.policy.ShouldNotify(prev, next, m.state.LastNotified, now) {
		if next != alert.Normal {
			m.alertLog.Info("notify", "from", prev, "to", next, "percentage", worst.Percentage)
			if err := m.notifier.Notify(ctx, next, worst); err != nil {
				m.notifyLog.Error("notification failed", "level", next, "err", err)
			}
		} else {
			m.alertLog.Info("back to normal", "from", prev)
		}
		m.state.LastNotified = now
	}
	m.state.Level = next

	if m.reporter != nil {
		m.reporter.Publish(m.status(readings, shown, onBattery, now))
	}
	return nil
}

func (m *Monitor) status(readings []collector.Reading, shown collector.Reading, onBattery bool, now time.Time) Status {
	s := Status{
		Level:        m.state.Level,
		OnBattery:    onBattery,
		Batteries:    len(readings),
		LastNotified: m.state.LastNotified,
		Updated:      now,
	}
	if len(readings) > 0 {
		// JSON cannot carry NaN or Inf.
		if !math.IsNaN(shown.Percentage) && !math.IsInf(shown.Percentage, 0) {
			s.Percentage = shown.Percentage
		}
		s.TimeToEmptySecs = int64(shown.TimeToEmpty / time.Second)
		s.State = shown.State.String()
	}
	return s
}

// lowest returns the battery with the lowest finite percentage, or the first
// reading when none is finite.
func lowest(readings []collector.Reading) collector.Reading {
	var low collector.Reading
	found := false
	for _, r := range readings {
		if math.IsNaN(r.Percentage) || math.IsInf(r.Percentage, 0) {
			continue
		}
		if !found || r.Percentage < low.Percentage {
			low, found = r, true
		}
	}
	if !found && len(readings) > 0 {
		return readings[0]
	}
	return low
}
