package model

import "time"

// Booking is one appointment between a student and an instructor, optionally
// holding a vehicle or a classroom.
type Booking struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	InstructorID string    `json:"instructor_id"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	ClassroomID  string    `json:"classroom_id,omitempty"`
	CourseID     string    `json:"course_id"`
	Start        time.Time `json:"start"`
	Duration     int       `json:"duration"` // course length in seconds
	PUDO         int       `json:"pudo"`     // pick-up/drop-off time each way in seconds (0, 1800 or 3600)
	Location     string    `json:"location,omitempty"`
	Tier         string    `json:"tier,omitempty"`
	Spanish      bool      `json:"spanish,omitempty"`
	ClassNumber  int       `json:"class_number,omitempty"` // 0 when unset; otherwise dense 1..N per (student, course)
	Canceled     bool      `json:"canceled,omitempty"`
	NoShow       bool      `json:"no_show,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// End returns the booking's end time: start plus course length plus the
// pick-up/drop-off buffer on both sides.
func (b Booking) End() time.Time {
	return b.Start.Add(time.Duration(b.Duration+2*b.PUDO) * time.Second)
}

// Active reports whether the booking still holds its resources. Canceled and
// no-show bookings never participate in conflict or layout computations.
func (b Booking) Active() bool { return !b.Canceled && !b.NoShow }
