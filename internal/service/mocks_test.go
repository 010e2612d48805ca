package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
	"github.com/iliyamo/cafeteria-pos/internal/queue"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
)

// In-memory store fakes shared by the service tests.

type fakePersonStore struct {
	mu         sync.Mutex
	nextID     uint64
	persons    map[uint64]*model.Person
	scanCalls  []uint64
	clearCalls []uint64
	scanErr    error
	clearErr   error
}

func newFakePersonStore(persons ...*model.Person) *fakePersonStore {
	s := &fakePersonStore{persons: make(map[uint64]*model.Person), nextID: 1}
	for _, p := range persons {
		if p.ID == 0 {
			p.ID = s.nextID
		}
		if p.ID >= s.nextID {
			s.nextID = p.ID + 1
		}
		s.persons[p.ID] = p
	}
	return s
}

func (s *fakePersonStore) GetByUID(_ context.Context, uid string) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.persons {
		if p.UID == uid && p.IsActive {
			return p, nil
		}
	}
	return nil, repository.ErrPersonNotFound
}

func (s *fakePersonStore) GetByID(_ context.Context, id uint64) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.persons[id]; ok {
		return p, nil
	}
	return nil, repository.ErrPersonNotFound
}

func (s *fakePersonStore) Create(_ context.Context, p *model.Person) (*model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.persons {
		if q.UID == p.UID {
			return nil, repository.ErrUIDExists
		}
		if q.Email == p.Email {
			return nil, repository.ErrEmailExists
		}
	}
	p.ID = s.nextID
	s.nextID++
	p.IsActive = true
	s.persons[p.ID] = p
	return p, nil
}

func (s *fakePersonStore) Search(_ context.Context, query string, limit int) ([]model.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Person
	for _, p := range s.persons {
		if len(out) == limit {
			break
		}
		if strings.Contains(p.Name, query) || strings.Contains(p.UID, query) || strings.Contains(p.Email, query) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePersonStore) RecordScan(_ context.Context, id uint64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scanErr != nil {
		return s.scanErr
	}
	s.scanCalls = append(s.scanCalls, id)
	if p, ok := s.persons[id]; ok {
		p.ScanCount++
		t := at
		p.LastScanAt = &t
	}
	return nil
}

func (s *fakePersonStore) ClearBlock(_ context.Context, id uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.clearCalls = append(s.clearCalls, id)
	if p, ok := s.persons[id]; ok {
		p.IsBlocked = false
		p.Block = model.BlockInfo{}
	}
	return nil
}

func (s *fakePersonStore) scanCount(id uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.scanCalls {
		if c == id {
			n++
		}
	}
	return n
}

type fakeFoodStore struct {
	foods map[uint64]*model.Food
}

func newFakeFoodStore(foods ...*model.Food) *fakeFoodStore {
	s := &fakeFoodStore{foods: make(map[uint64]*model.Food)}
	for _, f := range foods {
		s.foods[f.ID] = f
	}
	return s
}

func (s *fakeFoodStore) GetByID(_ context.Context, id uint64) (*model.Food, error) {
	if f, ok := s.foods[id]; ok {
		return f, nil
	}
	return nil, repository.ErrFoodNotFound
}

func (s *fakeFoodStore) ListAvailable(_ context.Context) ([]model.Food, error) {
	var out []model.Food
	for _, f := range s.foods {
		if f.IsAvailable && f.IsActive {
			out = append(out, *f)
		}
	}
	return out, nil
}

type fakePurchaseStore struct {
	mu        sync.Mutex
	nextID    uint64
	created   []*model.Purchase
	createErr error
}

func (s *fakePurchaseStore) Create(_ context.Context, p *model.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	p.ID = s.nextID
	s.created = append(s.created, p)
	return nil
}

func (s *fakePurchaseStore) ListByPerson(_ context.Context, personID uint64, limit int) ([]model.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Purchase
	for i := len(s.created) - 1; i >= 0 && len(out) < limit; i-- {
		if s.created[i].PersonID == personID {
			out = append(out, *s.created[i])
		}
	}
	return out, nil
}

func (s *fakePurchaseStore) Stats(_ context.Context, _ time.Time) (repository.PurchaseStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st repository.PurchaseStats
	st.TotalPurchases = int64(len(s.created))
	for _, p := range s.created {
		st.TotalRevenue += p.TotalAmount
	}
	return st, nil
}

func (s *fakePurchaseStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.created)
}

type fakeReservationStore struct {
	mu           sync.Mutex
	reservations map[uint64]*model.MealReservation
	markErr      error
	listErr      error
}

func newFakeReservationStore(rs ...*model.MealReservation) *fakeReservationStore {
	s := &fakeReservationStore{reservations: make(map[uint64]*model.MealReservation)}
	for _, r := range rs {
		s.reservations[r.ID] = r
	}
	return s
}

func (s *fakeReservationStore) GetByID(_ context.Context, id uint64) (*model.MealReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.reservations[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrReservationNotFound
}

func (s *fakeReservationStore) ListForDay(_ context.Context, personID uint64, from, to time.Time) ([]model.MealReservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []model.MealReservation
	for _, r := range s.reservations {
		if r.PersonID != personID || r.Date.Before(from) || !r.Date.Before(to) {
			continue
		}
		switch r.Status {
		case model.ReservationPending, model.ReservationConfirmed, model.ReservationPrepared:
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := model.MealSlotRank(out[i].MealSlot), model.MealSlotRank(out[j].MealSlot)
		if ri != rj {
			return ri < rj
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (s *fakeReservationStore) MarkServed(_ context.Context, id uint64, station string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	r, ok := s.reservations[id]
	if !ok {
		return repository.ErrReservationNotFound
	}
	if r.Status == model.ReservationServed || r.Status == model.ReservationCancelled {
		return repository.ErrConflict
	}
	r.Status = model.ReservationServed
	r.Station = station
	t := at
	r.ServedAt = &t
	return nil
}

func (s *fakeReservationStore) Stats(_ context.Context, _, _ time.Time) (repository.ReservationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var st repository.ReservationStats
	st.TotalReservations = int64(len(s.reservations))
	return st, nil
}

// recordingHub captures broadcast events in order.
type recordingHub struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	Event string
	Data  any
}

func (h *recordingHub) Broadcast(event string, data any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, recordedEvent{Event: event, Data: data})
}

func (h *recordingHub) names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Event
	}
	return out
}

func (h *recordingHub) last() (recordedEvent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return recordedEvent{}, false
	}
	return h.events[len(h.events)-1], true
}

type fakeBilling struct {
	mu     sync.Mutex
	events []queue.PurchaseRecordedEvent
	err    error
}

func (b *fakeBilling) PublishPurchaseRecorded(_ context.Context, ev queue.PurchaseRecordedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.events = append(b.events, ev)
	return nil
}

func (b *fakeBilling) published() []queue.PurchaseRecordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]queue.PurchaseRecordedEvent, len(b.events))
	copy(out, b.events)
	return out
}
