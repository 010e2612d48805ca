package reader

import (
	"context"
	"sync"
)

// MockDriver synthesizes an always-connected reader for development and
// tests. Scans are injected through the manager's TriggerScan entry point.
type MockDriver struct{}

func (MockDriver) Discover(ctx context.Context, family string) (Device, error) {
	return newMockDevice(family), nil
}

type mockDevice struct {
	name      string
	events    chan Event
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func newMockDevice(family string) *mockDevice {
	name := "Mock " + family
	if family == "" {
		name = "Mock Reader"
	}
	return &mockDevice{name: name, events: make(chan Event, 8)}
}

func (d *mockDevice) Info() DeviceInfo {
	return DeviceInfo{
		Name:         d.name,
		Mock:         true,
		Capabilities: []string{"ISO14443A", "ISO14443B", "MIFARE", "NTAG"},
	}
}

func (d *mockDevice) Events() <-chan Event { return d.events }

// Inject emits a synthetic card-presence event. Safe after Close.
func (d *mockDevice) Inject(uid string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.events <- Event{Kind: EventCard, UID: uid}
}

func (d *mockDevice) Close() error {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		d.events <- Event{Kind: EventClosed}
		close(d.events)
		d.mu.Unlock()
	})
	return nil
}
