// Package notify renders battery alerts and shows them as desktop notifications.
package notify

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cptspacemanspiff/battery-alert/internal/alert"
	"github.com/cptspacemanspiff/battery-alert/internal/collector"
)

// Urgency levels of the org.freedesktop.Notifications "urgency" hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Timeout is the expire timeout in milliseconds.
type Timeout int32

const (
	TimeoutDefault Timeout = -1 // server decides
	TimeoutNever   Timeout = 0  // stays until dismissed
)

// Message is one notification ready to be displayed.
type Message struct {
	Summary string
	Icon    string
	Body    string
	Urgency Urgency
	Timeout Timeout
}

// Display shows a notification.
type Display interface {
	Show(ctx context.Context, m Message) error
}

// Notifier turns a level and reading into a Message for its Display.
type Notifier struct {
	display Display
	summary string
	icon    string
}

// New creates a Notifier. Empty summary or icon fall back to "Low Battery"
// and "battery".
func New(d Display, summary, icon string) *Notifier {
	if summary == "" {
		summary = "Low Battery"
	}
	if icon == "" {
		icon = "battery"
	}
	return &Notifier{display: d, summary: summary, icon: icon}
}

// Notify shows an alert for level. Normal never produces a notification.
func (n *Notifier) Notify(ctx context.Context, level alert.Level, r collector.Reading) error {
	m, ok := n.Format(level, r)
	if !ok {
		return nil
	}
	if err := n.display.Show(ctx, m); err != nil {
		return fmt.Errorf("show %s notification: %w", level, err)
	}
	return nil
}

// Format builds the message for level. ok is false for Normal.
func (n *Notifier) Format(level alert.Level, r collector.Reading) (m Message, ok bool) {
	m = Message{
		Summary: n.summary,
		Icon:    n.icon,
		Body:    body(r),
	}
	switch level {
	case alert.Low:
		m.Urgency, m.Timeout = UrgencyNormal, TimeoutDefault
	case alert.Critical:
		m.Urgency, m.Timeout = UrgencyCritical, TimeoutNever
	default:
		return Message{}, false
	}
	return m, true
}

func body(r collector.Reading) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Battery capacity is %d%%", int(math.Round(r.Percentage)))
	if r.TimeToEmpty > 0 {
		fmt.Fprintf(&b, " (remaining: %s)", Remaining(r.TimeToEmpty))
	}
	return b.String()
}

// Remaining renders a time-to-empty estimate in whole minutes.
func Remaining(d time.Duration) string {
	if d < time.Minute {
		return "<1 min"
	}
	return fmt.Sprintf("%d min", int(d/time.Minute))
}
