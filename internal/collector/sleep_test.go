package collector

import (
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestSleepTransition(t *testing.T) {
	tests := []struct {
		name         string
		sig          *dbus.Signal
		wantSleeping bool
		wantOK       bool
	}{
		{"going to sleep", &dbus.Signal{Name: prepareForSleep, Body: []interface{}{true}}, true, true},
		{"resumed", &dbus.Signal{Name: prepareForSleep, Body: []interface{}{false}}, false, true},
		{"other member", &dbus.Signal{Name: logindManagerIface + ".PrepareForShutdown", Body: []interface{}{true}}, false, false},
		{"empty body", &dbus.Signal{Name: prepareForSleep}, false, false},
		{"non-bool body", &dbus.Signal{Name: prepareForSleep, Body: []interface{}{"yes"}}, false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeping, ok := sleepTransition(tt.sig)
			if sleeping != tt.wantSleeping || ok != tt.wantOK {
				t.Fatalf("sleepTransition() = (%v, %v), want (%v, %v)", sleeping, ok, tt.wantSleeping, tt.wantOK)
			}
		})
	}
}
