package collector

import (
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	logindManagerIface = "org.freedesktop.login1.Manager"
	prepareForSleep    = logindManagerIface + ".PrepareForSleep"
)

// SleepMonitor listens for systemd-logind PrepareForSleep signals and reports
// each resume on its Wake channel, so the monitor can resample right away
// instead of waiting out the rest of its interval.
type SleepMonitor struct {
	conn *dbus.Conn
	sigs chan *dbus.Signal
	done chan struct{}
	wake chan struct{}
	log  *slog.Logger
}

// NewSleepMonitor creates a new sleep monitor connected to the system bus.
func NewSleepMonitor(logger *slog.Logger) (*SleepMonitor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}

	err = conn.AddMatchSignal(
		dbus.WithMatchInterface(logindManagerIface),
		dbus.WithMatchMember("PrepareForSleep"),
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	m := &SleepMonitor{
		conn: conn,
		sigs: make(chan *dbus.Signal, 16),
		done: make(chan struct{}),
		wake: make(chan struct{}, 1),
		log:  logger,
	}
	conn.Signal(m.sigs)
	go m.listen()
	return m, nil
}

// Wake returns a channel that receives a value each time the system wakes from sleep.
func (m *SleepMonitor) Wake() <-chan struct{} {
	return m.wake
}

// Close stops the monitor and closes its bus connection.
func (m *SleepMonitor) Close() {
	close(m.done)
	m.conn.RemoveSignal(m.sigs)
	m.conn.Close()
}

func (m *SleepMonitor) listen() {
	for {
		select {
		case sig, ok := <-m.sigs:
			if !ok {
				return
			}
			sleeping, ok := sleepTransition(sig)
			if !ok {
				continue
			}
			if sleeping {
				m.log.Info("system going to sleep")
				continue
			}
			m.log.Info("system woke up")
			select {
			case m.wake <- struct{}{}:
			default:
			}
		case <-m.done:
			return
		}
	}
}

// sleepTransition decodes a PrepareForSleep signal. sleeping is true when
// the system is about to suspend and false on resume.
func sleepTransition(sig *dbus.Signal) (sleeping, ok bool) {
	if sig == nil || sig.Name != prepareForSleep || len(sig.Body) < 1 {
		return false, false
	}
	active, ok := sig.Body[0].(bool)
	return active, ok
}
