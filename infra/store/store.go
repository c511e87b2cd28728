// Package store provides the in-memory record store the service runs
// against. The engine itself never touches it; handlers fetch a snapshot,
// hand it to the engine, and apply any resulting writes back here. Writes
// in a batch succeed or fail per record, with no transactional atomicity.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rvadriving/scheduler/core/model"
	"github.com/rvadriving/scheduler/core/sequence"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("record not found")

// MemoryStore keeps bookings, availability records and reference data in
// memory behind a single mutex. Reads return copies so callers always work
// on a consistent snapshot.
type MemoryStore struct {
	mu           sync.Mutex
	bookings     map[string]model.Booking
	availability map[string]model.AvailabilityRecord
	ref          model.RefData
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings:     map[string]model.Booking{},
		availability: map[string]model.AvailabilityRecord{},
	}
}

// SetRefData replaces the reference lookup maps.
func (s *MemoryStore) SetRefData(ref model.RefData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ref = ref
}

// RefData returns the reference lookup maps.
func (s *MemoryStore) RefData() model.RefData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ref
}

// CreateBooking stores a new booking and returns its generated id.
func (s *MemoryStore) CreateBooking(b model.Booking) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if _, exists := s.bookings[b.ID]; exists {
		return "", fmt.Errorf("booking %s already exists", b.ID)
	}
	s.bookings[b.ID] = b
	return b.ID, nil
}

// GetBooking fetches one booking by id.
func (s *MemoryStore) GetBooking(id string) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return model.Booking{}, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return b, nil
}

// UpdateBooking replaces a booking, returning the previous state so callers
// can feed the reindexer.
func (s *MemoryStore) UpdateBooking(b model.Booking) (model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.bookings[b.ID]
	if !ok {
		return model.Booking{}, fmt.Errorf("booking %s: %w", b.ID, ErrNotFound)
	}
	s.bookings[b.ID] = b
	return prev, nil
}

// DeleteBooking removes a booking.
func (s *MemoryStore) DeleteBooking(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[id]; !ok {
		return fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	delete(s.bookings, id)
	return nil
}

// Bookings returns all bookings sorted by start time then id.
func (s *MemoryStore) Bookings() []model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// BookingsBetween returns bookings starting within [from, to).
func (s *MemoryStore) BookingsBetween(from, to time.Time) []model.Booking {
	var out []model.Booking
	for _, b := range s.Bookings() {
		if !b.Start.Before(from) && b.Start.Before(to) {
			out = append(out, b)
		}
	}
	return out
}

// CreateAvailability stores a new availability record and returns its id.
func (s *MemoryStore) CreateAvailability(rec model.AvailabilityRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, exists := s.availability[rec.ID]; exists {
		return "", fmt.Errorf("availability %s already exists", rec.ID)
	}
	s.availability[rec.ID] = rec
	return rec.ID, nil
}

// GetAvailability fetches one availability record by id.
func (s *MemoryStore) GetAvailability(id string) (model.AvailabilityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.availability[id]
	if !ok {
		return model.AvailabilityRecord{}, fmt.Errorf("availability %s: %w", id, ErrNotFound)
	}
	return rec, nil
}

// UpdateAvailability replaces an availability record.
func (s *MemoryStore) UpdateAvailability(rec model.AvailabilityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.availability[rec.ID]; !ok {
		return fmt.Errorf("availability %s: %w", rec.ID, ErrNotFound)
	}
	s.availability[rec.ID] = rec
	return nil
}

// DeleteAvailability removes an availability record.
func (s *MemoryStore) DeleteAvailability(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.availability[id]; !ok {
		return fmt.Errorf("availability %s: %w", id, ErrNotFound)
	}
	delete(s.availability, id)
	return nil
}

// Availability returns all availability records sorted by anchor then id.
func (s *MemoryStore) Availability() []model.AvailabilityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.AvailabilityRecord, 0, len(s.availability))
	for _, rec := range s.availability {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AnchorStart.Equal(out[j].AnchorStart) {
			return out[i].AnchorStart.Before(out[j].AnchorStart)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SplitAvailability ends a recurring record on cutoff (inclusive) and
// creates a successor anchored at newAnchor carrying the same resources,
// status, cadence and shift length. It returns the successor's id.
func (s *MemoryStore) SplitAvailability(id string, cutoff, newAnchor time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.availability[id]
	if !ok {
		return "", fmt.Errorf("availability %s: %w", id, ErrNotFound)
	}
	if newAnchor.Before(cutoff) {
		return "", fmt.Errorf("split: successor anchor %v precedes cutoff %v", newAnchor, cutoff)
	}
	rec.RepeatUntil = cutoff
	successor := rec
	successor.ID = uuid.NewString()
	successor.AnchorStart = newAnchor
	successor.RepeatUntil = time.Time{}
	s.availability[rec.ID] = rec
	s.availability[successor.ID] = successor
	return successor.ID, nil
}

// ApplyClassNumbers applies a reindex diff one record at a time. Failures
// are collected per record id; a missing record does not abort the rest of
// the batch. When the diff targets one record twice, the latest-computed
// number wins.
func (s *MemoryStore) ApplyClassNumbers(changes []sequence.Change) map[string]error {
	s.mu.Lock()
	defer s.mu.Unlock()
	failures := map[string]error{}
	for _, c := range changes {
		b, ok := s.bookings[c.RecordID]
		if !ok {
			failures[c.RecordID] = fmt.Errorf("booking %s: %w", c.RecordID, ErrNotFound)
			continue
		}
		b.ClassNumber = c.NewNumber
		s.bookings[c.RecordID] = b
	}
	return failures
}
