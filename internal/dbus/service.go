package dbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	godbus "github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/cptspacemanspiff/battery-alert/internal/monitor"
)

const (
	busName   = "org.gnome.BatteryAlert"
	objPath   = "/org/gnome/BatteryAlert"
	ifaceName = "org.gnome.BatteryAlert"
)

const introspectXML = `
<node>
  <interface name="` + ifaceName + `">
    <method name="GetStatus">
      <arg direction="out" type="s" name="json"/>
    </method>
  </interface>
` + introspect.IntrospectDataString + `
</node>`

// ErrNoStatus is returned before the monitor has completed its first tick.
var ErrNoStatus = errors.New("no sample taken yet")

// Service exposes the monitor's latest status over D-Bus. Publish is called
// from the monitor loop and GetStatus from the bus dispatcher.
type Service struct {
	mu     sync.Mutex
	status *monitor.Status
}

// NewService creates a new D-Bus service.
func NewService() *Service {
	return &Service{}
}

// Export registers the service on the session bus.
func (s *Service) Export() (*godbus.Conn, error) {
	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	if err := conn.Export(s, objPath, ifaceName); err != nil {
		conn.Close()
		return nil, fmt.Errorf("export object: %w", err)
	}
	if err := conn.Export(introspect.Introspectable(introspectXML), objPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(busName, godbus.NameFlagDoNotQueue)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("request name: %w", err)
	}
	if reply != godbus.RequestNameReplyPrimaryOwner {
		conn.Close()
		return nil, fmt.Errorf("name %s already taken", busName)
	}

	return conn, nil
}

// Publish stores the latest status.
func (s *Service) Publish(st monitor.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = &st
}

// GetStatus returns the latest status as JSON.
func (s *Service) GetStatus() (string, *godbus.Error) {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()

	if st == nil {
		return "", godbus.MakeFailedError(ErrNoStatus)
	}
	data, err := json.Marshal(st)
	if err != nil {
		return "", godbus.MakeFailedError(err)
	}
	return string(data), nil
}
