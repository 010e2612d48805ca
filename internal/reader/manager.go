package reader

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/service"
)

// Status is the manager's externally visible connection state.
type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusDiscovering   Status = "discovering"
	StatusConnected     Status = "connected"
	StatusDisconnected  Status = "disconnected"
	StatusReconnecting  Status = "reconnecting"
)

// ErrNotMockMode is returned when a manual scan is triggered against a
// hardware reader.
var ErrNotMockMode = errors.New("manual scan only available in mock mode")

// ErrNotConnected is returned when no device is attached.
var ErrNotConnected = errors.New("reader not connected")

// Manager owns exactly one logical reader connection and keeps the terminal
// usable through hardware drops: errors and clean ends both schedule a
// reconnect (with distinct backoffs) when auto-reconnect is on, and a
// hardware failure at startup degrades to the mock driver instead of
// aborting the process.
type Manager struct {
	cfg      Config
	hub      service.Broadcaster
	history  *service.ScanHistory
	onScan   func(uid string)
	hardware Driver
	mockDrv  Driver

	mu           sync.Mutex
	status       Status
	device       Device
	mock         bool
	closing      bool
	reconnecting bool
}

// NewManager builds a Manager. onScan receives each normalized UID on its
// own goroutine; hub receives reader lifecycle events.
func NewManager(cfg Config, hub service.Broadcaster, history *service.ScanHistory, onScan func(uid string)) *Manager {
	return &Manager{
		cfg:      cfg.withDefaults(),
		hub:      hub,
		history:  history,
		onScan:   onScan,
		hardware: &PCSCDriver{PollInterval: cfg.PollInterval},
		mockDrv:  MockDriver{},
		status:   StatusUninitialized,
	}
}

// Initialize selects hardware or mock mode from configuration and connects.
// Hardware discovery failure is recoverable: the manager logs it and falls
// back to the mock driver so the terminal stays functional.
func (m *Manager) Initialize(ctx context.Context) {
	m.mu.Lock()
	m.status = StatusDiscovering
	m.mock = m.cfg.Mock
	m.mu.Unlock()

	if !m.cfg.Mock {
		dev, err := m.hardware.Discover(ctx, m.cfg.Family)
		if err == nil {
			m.attach(dev)
			return
		}
		log.Printf("reader: hardware init failed, falling back to mock mode: %v", err)
		m.mu.Lock()
		m.mock = true
		m.mu.Unlock()
	}

	dev, err := m.mockDrv.Discover(ctx, m.cfg.Family)
	if err != nil {
		// The mock driver cannot fail discovery; guard anyway.
		log.Printf("reader: mock init failed: %v", err)
		m.mu.Lock()
		m.status = StatusDisconnected
		m.mu.Unlock()
		return
	}
	m.attach(dev)
}

func (m *Manager) attach(dev Device) {
	info := dev.Info()
	m.mu.Lock()
	m.device = dev
	m.status = StatusConnected
	m.closing = false
	m.mu.Unlock()

	log.Printf("reader: connected to %s (mock=%v)", info.Name, info.Mock)
	m.hub.Broadcast("rfidConnected", map[string]any{
		"reader_type": info.Name,
		"connected":   true,
		"mock_mode":   info.Mock,
		"timestamp":   time.Now().UTC(),
	})
	go m.watch(dev)
}

// watch consumes one device's event stream until it terminates.
func (m *Manager) watch(dev Device) {
	for ev := range dev.Events() {
		switch ev.Kind {
		case EventCard:
			uid := ev.UID
			go m.onScan(uid)
		case EventError:
			log.Printf("reader: device error: %v", ev.Err)
			m.hub.Broadcast("rfidError", map[string]any{
				"error":     ev.Err.Error(),
				"timestamp": time.Now().UTC(),
			})
			m.drop(dev, true)
			return
		case EventClosed:
			m.drop(dev, false)
			return
		}
	}
	m.drop(dev, false)
}

// drop records the disconnection of dev and, unless it was deliberate,
// schedules a reconnect. errored transitions use the shorter backoff.
func (m *Manager) drop(dev Device, errored bool) {
	m.mu.Lock()
	if m.device != dev {
		m.mu.Unlock()
		return
	}
	m.device = nil
	deliberate := m.closing
	m.status = StatusDisconnected
	m.mu.Unlock()

	_ = dev.Close()
	m.hub.Broadcast("rfidDisconnected", map[string]any{
		"timestamp": time.Now().UTC(),
	})
	if deliberate || !m.cfg.AutoReconnect {
		return
	}
	delay := m.cfg.ReconnectDelay
	if errored {
		delay = m.cfg.ErrorRetryDelay
	}
	log.Printf("reader: reconnecting in %s", delay)
	time.AfterFunc(delay, func() { m.Reconnect(context.Background()) })
}

// Reconnect tears down any existing connection and re-runs discovery in the
// current mode. Concurrent calls coalesce: a call while an attempt is in
// flight is a no-op. A failed attempt reschedules itself rather than giving
// up when auto-reconnect is on.
func (m *Manager) Reconnect(ctx context.Context) {
	m.mu.Lock()
	if m.reconnecting {
		m.mu.Unlock()
		return
	}
	m.reconnecting = true
	dev := m.device
	m.device = nil
	m.closing = true
	m.status = StatusReconnecting
	mock := m.mock
	m.mu.Unlock()

	if dev != nil {
		_ = dev.Close()
	}

	drv := m.hardware
	if mock {
		drv = m.mockDrv
	}
	next, err := drv.Discover(ctx, m.cfg.Family)
	if err != nil {
		log.Printf("reader: reconnect failed: %v", err)
		m.mu.Lock()
		m.reconnecting = false
		m.status = StatusDisconnected
		m.mu.Unlock()
		if m.cfg.AutoReconnect {
			time.AfterFunc(m.cfg.ReconnectDelay, func() { m.Reconnect(context.Background()) })
		}
		return
	}
	m.mu.Lock()
	m.reconnecting = false
	m.mu.Unlock()
	m.attach(next)
}

// Disconnect releases the device and reports disconnected. Safe to call
// when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	dev := m.device
	m.closing = true
	m.mu.Unlock()
	if dev != nil {
		_ = dev.Close()
		return
	}
	m.mu.Lock()
	m.status = StatusDisconnected
	m.mu.Unlock()
}

// TriggerScan injects a synthetic card-presence event. Rejected outside
// mock mode.
func (m *Manager) TriggerScan(uid string) error {
	m.mu.Lock()
	dev := m.device
	mock := m.mock
	m.mu.Unlock()
	if !mock {
		return ErrNotMockMode
	}
	inj, ok := dev.(*mockDevice)
	if !ok || dev == nil {
		return ErrNotConnected
	}
	inj.Inject(uid)
	return nil
}

// Status returns the current connection state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Connected reports whether a device is attached.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status == StatusConnected
}

// Info is the reader descriptor exposed over HTTP and the realtime channel.
type Info struct {
	Type          string     `json:"type"`
	Status        Status     `json:"status"`
	Connected     bool       `json:"connected"`
	MockMode      bool       `json:"mock_mode"`
	Capabilities  []string   `json:"capabilities"`
	AutoReconnect bool       `json:"auto_reconnect"`
	LastScan      *time.Time `json:"last_scan"`
}

// Info snapshots the manager state and device capabilities.
func (m *Manager) Info() Info {
	m.mu.Lock()
	dev := m.device
	info := Info{
		Type:          m.cfg.Family,
		Status:        m.status,
		Connected:     m.status == StatusConnected,
		MockMode:      m.mock,
		AutoReconnect: m.cfg.AutoReconnect,
	}
	m.mu.Unlock()

	if dev != nil {
		di := dev.Info()
		info.Type = di.Name
		info.Capabilities = di.Capabilities
	}
	if last, ok := m.history.Last(); ok {
		t := last.Timestamp
		info.LastScan = &t
	}
	return info
}
