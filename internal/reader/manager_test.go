package reader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// chanHub feeds broadcast events into a channel so tests can wait on the
// manager's asynchronous transitions.
type chanHub struct {
	events chan hubEvent
}

type hubEvent struct {
	Event string
	Data  any
}

func newChanHub() *chanHub {
	return &chanHub{events: make(chan hubEvent, 32)}
}

func (h *chanHub) Broadcast(event string, data any) {
	h.events <- hubEvent{Event: event, Data: data}
}

func (h *chanHub) wait(t *testing.T, event string) hubEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-h.events:
			if ev.Event == event {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q", event)
		}
	}
}

var _ service.Broadcaster = (*chanHub)(nil)

func mockManager(hub *chanHub, onScan func(uid string)) *Manager {
	if onScan == nil {
		onScan = func(string) {}
	}
	return NewManager(Config{
		Mock:          true,
		Family:        "ACR1252",
		AutoReconnect: false,
	}, hub, service.NewScanHistory(10), onScan)
}

func TestInitializeMockBroadcastsConnected(t *testing.T) {
	hub := newChanHub()
	m := mockManager(hub, nil)

	m.Initialize(context.Background())
	defer m.Disconnect()

	if m.Status() != StatusConnected || !m.Connected() {
		t.Fatalf("status = %q, want connected", m.Status())
	}

	ev := hub.wait(t, "rfidConnected")
	data := ev.Data.(map[string]any)
	if data["mock_mode"] != true {
		t.Errorf("rfidConnected = %v, want mock_mode true", data)
	}
	if data["reader_type"] != "Mock ACR1252" {
		t.Errorf("reader_type = %v", data["reader_type"])
	}
}

func TestTriggerScanDeliversUID(t *testing.T) {
	hub := newChanHub()
	scans := make(chan string, 1)
	m := mockManager(hub, func(uid string) { scans <- uid })

	m.Initialize(context.Background())
	defer m.Disconnect()
	hub.wait(t, "rfidConnected")

	if err := m.TriggerScan("04A1B2C3"); err != nil {
		t.Fatalf("TriggerScan: %v", err)
	}
	select {
	case uid := <-scans:
		if uid != "04A1B2C3" {
			t.Fatalf("scanned uid = %q", uid)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scan callback never fired")
	}
}

func TestTriggerScanRejectedOutsideMockMode(t *testing.T) {
	hub := newChanHub()
	m := NewManager(Config{Mock: false}, hub, service.NewScanHistory(10), func(string) {})

	err := m.TriggerScan("04A1B2C3")
	if !errors.Is(err, ErrNotMockMode) {
		t.Fatalf("error = %v, want ErrNotMockMode", err)
	}
}

func TestDisconnectIsDeliberate(t *testing.T) {
	hub := newChanHub()
	m := mockManager(hub, nil)

	m.Initialize(context.Background())
	hub.wait(t, "rfidConnected")

	m.Disconnect()
	hub.wait(t, "rfidDisconnected")

	// Deliberate disconnects never schedule a reconnect, so no further
	// rfidConnected may arrive.
	select {
	case ev := <-hub.events:
		if ev.Event == "rfidConnected" {
			t.Fatalf("unexpected reconnect after deliberate disconnect")
		}
	case <-time.After(100 * time.Millisecond):
	}

	if m.Connected() {
		t.Fatal("still connected after Disconnect")
	}
	if err := m.TriggerScan("04A1B2C3"); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("TriggerScan after disconnect = %v, want ErrNotConnected", err)
	}
}

func TestReconnectAttachesFreshDevice(t *testing.T) {
	hub := newChanHub()
	m := mockManager(hub, nil)

	m.Initialize(context.Background())
	hub.wait(t, "rfidConnected")

	m.Reconnect(context.Background())
	defer m.Disconnect()

	hub.wait(t, "rfidConnected")
	if m.Status() != StatusConnected {
		t.Fatalf("status = %q after reconnect", m.Status())
	}
	if err := m.TriggerScan("AA"); err != nil {
		t.Fatalf("TriggerScan on fresh device: %v", err)
	}
}

// scriptedDriver stands in for the hardware driver so tests can force
// device failures without PC/SC.
type scriptedDriver struct {
	mu      sync.Mutex
	devices []*scriptedDevice
}

func (d *scriptedDriver) Discover(context.Context, string) (Device, error) {
	dev := &scriptedDevice{events: make(chan Event, 8)}
	d.mu.Lock()
	d.devices = append(d.devices, dev)
	d.mu.Unlock()
	return dev, nil
}

func (d *scriptedDriver) discoveries() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.devices)
}

func (d *scriptedDriver) device(i int) *scriptedDevice {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.devices[i]
}

type scriptedDevice struct {
	events    chan Event
	closeOnce sync.Once
}

func (d *scriptedDevice) Info() DeviceInfo {
	return DeviceInfo{Name: "Scripted ACR1252", Capabilities: []string{"ISO14443A"}}
}

func (d *scriptedDevice) Events() <-chan Event { return d.events }

func (d *scriptedDevice) fail(err error) {
	d.events <- Event{Kind: EventError, Err: err}
}

func (d *scriptedDevice) Close() error {
	d.closeOnce.Do(func() {
		d.events <- Event{Kind: EventClosed}
		close(d.events)
	})
	return nil
}

func TestAutoReconnectAfterDeviceError(t *testing.T) {
	hub := newChanHub()
	m := NewManager(Config{
		Family:          "ACR1252",
		AutoReconnect:   true,
		ErrorRetryDelay: 20 * time.Millisecond,
		ReconnectDelay:  20 * time.Millisecond,
	}, hub, service.NewScanHistory(10), func(string) {})
	drv := &scriptedDriver{}
	m.hardware = drv

	m.Initialize(context.Background())
	defer m.Disconnect()
	hub.wait(t, "rfidConnected")

	drv.device(0).fail(errors.New("reader unplugged"))

	ev := hub.wait(t, "rfidError")
	data := ev.Data.(map[string]any)
	if data["error"] != "reader unplugged" {
		t.Errorf("rfidError = %v", data)
	}
	hub.wait(t, "rfidDisconnected")
	hub.wait(t, "rfidConnected")

	if m.Status() != StatusConnected {
		t.Fatalf("status = %q after auto-reconnect, want connected", m.Status())
	}
	if got := drv.discoveries(); got != 2 {
		t.Errorf("discovery attempts = %d, want 2", got)
	}
}

func TestInfoSnapshot(t *testing.T) {
	hub := newChanHub()
	history := service.NewScanHistory(10)
	m := NewManager(Config{Mock: true, Family: "ACR1252", AutoReconnect: true}, hub, history, func(string) {})

	info := m.Info()
	if info.Status != StatusUninitialized || info.Connected {
		t.Fatalf("pre-init info = %+v", info)
	}

	m.Initialize(context.Background())
	defer m.Disconnect()
	hub.wait(t, "rfidConnected")

	history.Add("04A1B2C3", time.Now().UTC())
	info = m.Info()
	if !info.Connected || !info.MockMode || !info.AutoReconnect {
		t.Fatalf("info = %+v", info)
	}
	if info.Type != "Mock ACR1252" {
		t.Errorf("type = %q", info.Type)
	}
	if len(info.Capabilities) == 0 {
		t.Error("capabilities missing from attached device")
	}
	if info.LastScan == nil {
		t.Error("last scan missing")
	}
}
