package collector

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	upowerName        = "org.freedesktop.UPower"
	upowerPath        = "/org/freedesktop/UPower"
	upowerIface       = "org.freedesktop.UPower"
	upowerDeviceIface = "org.freedesktop.UPower.Device"
)

// UPower reads battery devices from org.freedesktop.UPower on the system bus.
type UPower struct {
	conn *dbus.Conn
}

// NewUPower connects to the system bus.
func NewUPower() (*UPower, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("%w: connect system bus: %w", ErrConnection, err)
	}
	return &UPower{conn: conn}, nil
}

// Close closes the bus connection.
func (u *UPower) Close() error {
	return u.conn.Close()
}

// ListDevices calls UPower.EnumerateDevices.
func (u *UPower) ListDevices(ctx context.Context) ([]string, error) {
	var paths []dbus.ObjectPath
	obj := u.conn.Object(upowerName, upowerPath)
	if err := obj.CallWithContext(ctx, upowerIface+".EnumerateDevices", 0).Store(&paths); err != nil {
		return nil, err
	}
	devices := make([]string, 0, len(paths))
	for _, p := range paths {
		devices = append(devices, string(p))
	}
	return devices, nil
}

// ReadDevice fetches all UPower.Device properties of one device in a single call.
func (u *UPower) ReadDevice(ctx context.Context, device string) (DeviceProperties, error) {
	path := dbus.ObjectPath(device)
	if !path.IsValid() {
		return DeviceProperties{}, fmt.Errorf("invalid object path %q", device)
	}

	var props map[string]dbus.Variant
	obj := u.conn.Object(upowerName, path)
	if err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.GetAll", 0, upowerDeviceIface).Store(&props); err != nil {
		return DeviceProperties{}, fmt.Errorf("get properties: %w", err)
	}
	return parseDeviceProperties(props)
}

func parseDeviceProperties(props map[string]dbus.Variant) (DeviceProperties, error) {
	var p DeviceProperties
	var err error
	if p.Type, err = variantValue[uint32](props, "Type"); err != nil {
		return p, err
	}
	// Non-battery devices may not carry the remaining properties.
	if p.Type != DeviceTypeBattery {
		return p, nil
	}
	if p.StateCode, err = variantValue[uint32](props, "State"); err != nil {
		return p, err
	}
	if p.Percentage, err = variantValue[float64](props, "Percentage"); err != nil {
		return p, err
	}
	if p.TimeToEmptySecs, err = variantValue[int64](props, "TimeToEmpty"); err != nil {
		return p, err
	}
	return p, nil
}

func variantValue[T any](props map[string]dbus.Variant, name string) (T, error) {
	var zero T
	v, ok := props[name]
	if !ok {
		return zero, fmt.Errorf("property %s missing", name)
	}
	val, ok := v.Value().(T)
	if !ok {
		return zero, fmt.Errorf("property %s has type %s, want %T", name, v.Signature(), zero)
	}
	return val, nil
}
