package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

type fakeReservationSource struct {
	reservations []model.MealReservation
	err          error
}

func (f *fakeReservationSource) TodayFor(context.Context, uint64) ([]model.MealReservation, error) {
	return f.reservations, f.err
}

func testPipeline(persons *fakePersonStore, src ReservationSource, hub *recordingHub) *ScanPipeline {
	p := NewScanPipeline(NewUserDirectory(persons), src, hub, NewScanHistory(10), testStation)
	p.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	return p
}

func lastScanResult(t *testing.T, hub *recordingHub) scanResult {
	t.Helper()
	ev, ok := hub.last()
	if !ok || ev.Event != "scanResult" {
		t.Fatalf("last event = %+v, want scanResult", ev)
	}
	res, ok := ev.Data.(scanResult)
	if !ok {
		t.Fatalf("scanResult payload type %T", ev.Data)
	}
	return res
}

func TestProcessSuccess(t *testing.T) {
	persons := newFakePersonStore(activePerson(1, "04A1B2C3"))
	hub := &recordingHub{}
	p := testPipeline(persons, &fakeReservationSource{}, hub)

	p.Process(context.Background(), " 04a1b2c3 ")

	names := hub.names()
	if len(names) != 2 || names[0] != "cardScanned" || names[1] != "scanResult" {
		t.Fatalf("events = %v, want [cardScanned scanResult]", names)
	}

	res := lastScanResult(t, hub)
	if !res.Success || res.Error != "" {
		t.Fatalf("result = %+v, want success", res)
	}
	if res.UID != "04A1B2C3" {
		t.Errorf("uid = %q, want normalized 04A1B2C3", res.UID)
	}
	if res.Reservations == nil || len(res.Reservations) != 0 {
		t.Errorf("reservations = %v, want empty non-nil list", res.Reservations)
	}
	if res.Cafeteria == nil || res.Cafeteria.ID != testStation.ID {
		t.Errorf("cafeteria = %+v", res.Cafeteria)
	}

	entries := p.History().Recent(0)
	if len(entries) != 1 || !entries[0].Processed {
		t.Errorf("history = %+v, want one processed entry", entries)
	}
	if got := persons.scanCount(1); got != 1 {
		t.Errorf("scan bookkeeping calls = %d, want 1", got)
	}
}

func TestProcessUnknownUID(t *testing.T) {
	persons := newFakePersonStore()
	hub := &recordingHub{}
	p := testPipeline(persons, &fakeReservationSource{}, hub)

	p.Process(context.Background(), "FFFFFFFF")

	names := hub.names()
	if len(names) != 2 || names[1] != "scanResult" {
		t.Fatalf("events = %v", names)
	}
	res := lastScanResult(t, hub)
	if res.Success {
		t.Fatal("unknown uid reported success")
	}
	if res.Error != "User not found" || res.Message != "This card is not registered in the system" {
		t.Errorf("result = %+v", res)
	}

	entries := p.History().Recent(0)
	if len(entries) != 1 || entries[0].Processed {
		t.Errorf("history = %+v, want one unprocessed entry", entries)
	}
	if len(persons.scanCalls) != 0 {
		t.Error("unknown uid must not bump scan bookkeeping")
	}
}

func TestProcessDeniedBlocked(t *testing.T) {
	person := activePerson(1, "04A1B2C3")
	person.IsBlocked = true
	person.Block = model.BlockInfo{Reason: "Unpaid balance"}
	persons := newFakePersonStore(person)
	hub := &recordingHub{}
	p := testPipeline(persons, &fakeReservationSource{}, hub)

	p.Process(context.Background(), "04A1B2C3")

	res := lastScanResult(t, hub)
	if res.Success || res.Error != "Access denied" {
		t.Fatalf("result = %+v, want access denied", res)
	}
	user, ok := res.User.(map[string]any)
	if !ok {
		t.Fatalf("user payload type %T", res.User)
	}
	if user["status"] != "Account is blocked" || user["name"] != "Jamie Doe" {
		t.Errorf("user = %v", user)
	}
	if len(persons.scanCalls) != 0 {
		t.Error("denied scan must not bump bookkeeping")
	}
}

func TestProcessReservationLookupFailureDegrades(t *testing.T) {
	persons := newFakePersonStore(activePerson(1, "04A1B2C3"))
	hub := &recordingHub{}
	p := testPipeline(persons, &fakeReservationSource{err: errors.New("db down")}, hub)

	p.Process(context.Background(), "04A1B2C3")

	res := lastScanResult(t, hub)
	if !res.Success {
		t.Fatalf("result = %+v, want success despite reservation failure", res)
	}
	if res.Reservations == nil || len(res.Reservations) != 0 {
		t.Errorf("reservations = %v, want empty list", res.Reservations)
	}
}

func TestProcessCardScannedPayload(t *testing.T) {
	persons := newFakePersonStore()
	hub := &recordingHub{}
	p := testPipeline(persons, &fakeReservationSource{}, hub)

	p.Process(context.Background(), "04a1b2c3")

	first := hub.events[0]
	if first.Event != "cardScanned" {
		t.Fatalf("first event = %q", first.Event)
	}
	data, ok := first.Data.(map[string]any)
	if !ok {
		t.Fatalf("cardScanned payload type %T", first.Data)
	}
	if data["uid"] != "04A1B2C3" || data["status"] != "processing" {
		t.Errorf("cardScanned = %v", data)
	}
}
