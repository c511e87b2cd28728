package model

import "time"

// AvailabilityStatus distinguishes working shifts from blocked-off time.
type AvailabilityStatus string

const (
	StatusScheduled  AvailabilityStatus = "Scheduled"
	StatusBlockedOff AvailabilityStatus = "Blocked Off"
)

// Cadence is the repeat interval of a recurring availability record.
type Cadence string

const (
	CadenceWeekly   Cadence = "Weekly"
	CadenceBiWeekly Cadence = "Bi-Weekly"
)

// AvailabilityRecord is one recurring availability rule. AnchorStart fixes
// both the first occurrence and the day-of-week/time-of-day of every later
// occurrence.
type AvailabilityRecord struct {
	ID           string             `json:"id"`
	Status       AvailabilityStatus `json:"status"`
	InstructorID string             `json:"instructor_id,omitempty"` // empty when the record is vehicle-scoped only
	VehicleID    string             `json:"vehicle_id,omitempty"`    // empty when the record is instructor-scoped only
	Location     string             `json:"location,omitempty"`
	AnchorStart  time.Time          `json:"anchor_start"`
	ShiftLength  int                `json:"shift_length"` // seconds, must be positive
	Cadence      Cadence            `json:"cadence"`
	RepeatUntil  time.Time          `json:"repeat_until"` // zero value means no end date
}

// HasEnd reports whether the recurrence has an end date.
func (r AvailabilityRecord) HasEnd() bool { return !r.RepeatUntil.IsZero() }

// Valid reports whether the record can ever produce an occurrence.
// A record missing both resources or with a non-positive shift length is
// inert and is skipped rather than rejected.
func (r AvailabilityRecord) Valid() bool {
	if r.ShiftLength <= 0 || r.AnchorStart.IsZero() {
		return false
	}
	return r.InstructorID != "" || r.VehicleID != ""
}

// Occurrence is one concrete realized window of an AvailabilityRecord on a
// specific date. It is derived on every read and never persisted.
type Occurrence struct {
	RecordID     string    `json:"record_id"`
	InstructorID string    `json:"instructor_id,omitempty"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	Location     string    `json:"location,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

// Covers reports whether the occurrence fully contains [start, end).
func (o Occurrence) Covers(start, end time.Time) bool {
	return !o.Start.After(start) && !o.End.Before(end)
}
