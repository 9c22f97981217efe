package notify

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
)

// Freedesktop shows notifications through org.freedesktop.Notifications on
// the session bus.
type Freedesktop struct {
	conn    *dbus.Conn
	appName string
	replace bool
	lastID  uint32
}

// NewFreedesktop connects to the session bus. When replace is set, each new
// notification replaces the previous one instead of stacking.
func NewFreedesktop(appName string, replace bool) (*Freedesktop, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Freedesktop{conn: conn, appName: appName, replace: replace}, nil
}

// Close closes the bus connection.
func (f *Freedesktop) Close() error {
	return f.conn.Close()
}

// Show calls Notifications.Notify.
func (f *Freedesktop) Show(ctx context.Context, m Message) error {
	var id uint32
	obj := f.conn.Object(notificationsName, notificationsPath)
	call := obj.CallWithContext(ctx, notificationsIface+".Notify", 0, notifyArgs(f.appName, replacesID(f.replace, f.lastID), m)...)
	if err := call.Store(&id); err != nil {
		return err
	}
	f.lastID = id
	return nil
}

// replacesID is the replaces_id argument for the next Notify call. Zero asks
// the server for a new notification.
func replacesID(replace bool, lastID uint32) uint32 {
	if !replace {
		return 0
	}
	return lastID
}

func notifyArgs(appName string, replacesID uint32, m Message) []interface{} {
	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(m.Urgency)),
	}
	return []interface{}{
		appName,
		replacesID,
		m.Icon,
		m.Summary,
		m.Body,
		[]string{},
		hints,
		int32(m.Timeout),
	}
}

type unavailable struct {
	err error
}

// Unavailable returns a Display whose Show always fails with err. It stands
// in when no notification server could be reached at startup.
func Unavailable(err error) Display {
	return unavailable{err: err}
}

func (u unavailable) Show(context.Context, Message) error {
	return fmt.Errorf("notification server unavailable: %w", u.err)
}
