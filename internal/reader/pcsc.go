package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ebfe/scard"
)

// apduGetUID is the PC/SC GET DATA command returning the card UID.
var apduGetUID = []byte{0xFF, 0xCA, 0x00, 0x00, 0x00}

// cardDebounce is how long the poll loop waits after a successful read to
// avoid reporting the same card repeatedly while it rests on the reader.
const cardDebounce = 2 * time.Second

// PCSCDriver opens contactless readers through the platform PC/SC stack.
type PCSCDriver struct {
	PollInterval time.Duration
}

// Discover lists attached readers and connects to the first one whose name
// contains family (case-insensitive). Unmatched readers are skipped; if
// none match, Discover fails and the manager falls back to mock mode.
func (d *PCSCDriver) Discover(ctx context.Context, family string) (Device, error) {
	sctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("pcsc: establish context: %w", err)
	}
	names, err := sctx.ListReaders()
	if err != nil {
		_ = sctx.Release()
		return nil, fmt.Errorf("pcsc: list readers: %w", err)
	}
	want := strings.ToLower(family)
	var name string
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			name = n
			break
		}
	}
	if name == "" {
		_ = sctx.Release()
		return nil, fmt.Errorf("pcsc: no reader matching %q among %d attached", family, len(names))
	}

	poll := d.PollInterval
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	dev := &pcscDevice{
		name:   name,
		sctx:   sctx,
		poll:   poll,
		events: make(chan Event, 8),
		done:   make(chan struct{}),
	}
	go dev.loop()
	return dev, nil
}

// pcscDevice polls one reader for card presence and emits UID events.
type pcscDevice struct {
	name      string
	sctx      *scard.Context
	poll      time.Duration
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func (d *pcscDevice) Info() DeviceInfo {
	return DeviceInfo{
		Name:         d.name,
		Capabilities: []string{"ISO14443A", "ISO14443B", "MIFARE", "NTAG", "FeliCa"},
	}
}

func (d *pcscDevice) Events() <-chan Event { return d.events }

func (d *pcscDevice) Close() error {
	d.closeOnce.Do(func() {
		close(d.done)
		// Unblocks a pending GetStatusChange.
		_ = d.sctx.Cancel()
	})
	return nil
}

func (d *pcscDevice) loop() {
	defer func() {
		_ = d.sctx.Release()
		close(d.events)
	}()
	states := []scard.ReaderState{{Reader: d.name, CurrentState: scard.StateUnaware}}
	for {
		select {
		case <-d.done:
			d.events <- Event{Kind: EventClosed}
			return
		default:
		}

		if err := d.sctx.GetStatusChange(states, d.poll); err != nil {
			if errors.Is(err, scard.ErrTimeout) {
				continue
			}
			select {
			case <-d.done:
				d.events <- Event{Kind: EventClosed}
			default:
				d.events <- Event{Kind: EventError, Err: fmt.Errorf("pcsc: status change: %w", err)}
			}
			return
		}
		states[0].CurrentState = states[0].EventState
		if states[0].EventState&scard.StatePresent == 0 {
			continue
		}

		uid, err := d.readUID()
		if err != nil {
			// No card by the time we connected, or a transient transmit
			// failure; both are normal between polls.
			log.Printf("pcsc: uid read skipped: %v", err)
			continue
		}
		d.events <- Event{Kind: EventCard, UID: uid}
		time.Sleep(cardDebounce)
	}
}

// readUID connects to the present card and issues the GET DATA APDU. The
// response trailer must be 90 00; the UID precedes it.
func (d *pcscDevice) readUID() (string, error) {
	card, err := d.sctx.Connect(d.name, scard.ShareShared, scard.ProtocolAny)
	if err != nil {
		return "", err
	}
	defer func() { _ = card.Disconnect(scard.LeaveCard) }()

	rsp, err := card.Transmit(apduGetUID)
	if err != nil {
		return "", err
	}
	if len(rsp) < 2 || rsp[len(rsp)-2] != 0x90 || rsp[len(rsp)-1] != 0x00 {
		return "", fmt.Errorf("pcsc: unexpected status %X", rsp)
	}
	return fmt.Sprintf("%X", rsp[:len(rsp)-2]), nil
}
