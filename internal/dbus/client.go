package dbus

import (
	"context"
	"encoding/json"
	"fmt"

	godbus "github.com/godbus/dbus/v5"

	"github.com/cptspacemanspiff/battery-alert/internal/monitor"
)

// Client queries a running daemon's status service.
type Client struct {
	conn *godbus.Conn
	obj  godbus.BusObject
}

// NewClient connects to the session bus.
func NewClient() (*Client, error) {
	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &Client{conn: conn, obj: conn.Object(busName, objPath)}, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Status calls GetStatus.
func (c *Client) Status(ctx context.Context) (*monitor.Status, error) {
	var jsonStr string
	err := c.obj.CallWithContext(ctx, ifaceName+".GetStatus", 0).Store(&jsonStr)
	if err != nil {
		return nil, err
	}
	return decodeStatus(jsonStr)
}

func decodeStatus(jsonStr string) (*monitor.Status, error) {
	var st monitor.Status
	if err := json.Unmarshal([]byte(jsonStr), &st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}
