// Package reader owns the card reader connection: discovery, card-presence
// events, disconnection and reconnection policy. The Manager depends only
// on the Driver/Device capability interfaces; hardware (PC/SC) and mock
// variants plug in underneath.
package reader

import (
	"context"
	"time"
)

// EventKind classifies a Device notification.
type EventKind int

const (
	// EventCard reports a card presented to the reader.
	EventCard EventKind = iota
	// EventError reports a reader-level failure; the device is unusable
	// afterwards and the manager schedules a reconnect.
	EventError
	// EventClosed reports that the device ended cleanly.
	EventClosed
)

// Event is one notification from a Device. UID carries the card identifier
// as an uppercase hex string for EventCard; Err is set for EventError.
type Event struct {
	Kind EventKind
	UID  string
	Err  error
}

// DeviceInfo describes a connected device.
type DeviceInfo struct {
	Name         string   `json:"name"`
	Mock         bool     `json:"mock"`
	Capabilities []string `json:"capabilities"`
}

// Device is one logical reader connection. Events() is closed after Close
// or after a terminal EventError/EventClosed.
type Device interface {
	Info() DeviceInfo
	Events() <-chan Event
	Close() error
}

// Driver discovers and opens a Device. family is a case-insensitive
// substring the advertised reader name must contain; readers that do not
// match are ignored without error.
type Driver interface {
	Discover(ctx context.Context, family string) (Device, error)
}

// Config controls the Manager's connection policy.
type Config struct {
	Mock            bool          // skip hardware discovery entirely
	Family          string        // device family to accept, e.g. "ACR1252"
	AutoReconnect   bool          // retry after drops
	ErrorRetryDelay time.Duration // backoff after an errored transition
	ReconnectDelay  time.Duration // backoff after a clean end or failed attempt
	PollInterval    time.Duration // hardware presence-poll interval
}

// withDefaults fills unset delays with the policy the terminal ships with.
func (c Config) withDefaults() Config {
	if c.Family == "" {
		c.Family = "ACR1252"
	}
	if c.ErrorRetryDelay <= 0 {
		c.ErrorRetryDelay = 5 * time.Second
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	return c
}
