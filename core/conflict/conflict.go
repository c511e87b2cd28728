// Package conflict validates a proposed booking against the full booking
// snapshot. Hard conflicts (double-booked student, instructor or vehicle)
// must block the save; soft warnings (coverage, mismatch, travel buffer,
// capability) are advisory. The two sets are computed independently so the
// form can show both at once.
package conflict

import (
	"time"

	"github.com/rvadriving/scheduler/core/interval"
	"github.com/rvadriving/scheduler/core/model"
)

// Proposal is the form state being validated. ExcludeID is the id of the
// record under edit, excluded from all checks against the snapshot.
type Proposal struct {
	ExcludeID    string    `json:"exclude_id,omitempty"`
	StudentID    string    `json:"student_id"`
	InstructorID string    `json:"instructor_id"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	CourseID     string    `json:"course_id"`
	Start        time.Time `json:"start"`
	Duration     int       `json:"duration"` // course length in seconds
	PUDO         int       `json:"pudo"`     // pick-up/drop-off seconds each way
	Location     string    `json:"location,omitempty"`
	Tier         string    `json:"tier,omitempty"`
	Spanish      bool      `json:"spanish,omitempty"`
	// RequiresVehicle mirrors the course type: the vehicle overlap check
	// only runs for in-car courses.
	RequiresVehicle bool `json:"requires_vehicle,omitempty"`
}

// End returns the proposed end time, pick-up/drop-off buffer included.
func (p Proposal) End() time.Time {
	return p.Start.Add(time.Duration(p.Duration+2*p.PUDO) * time.Second)
}

func clock(t time.Time) string { return t.Format("3:04 PM") }

// overlapping returns the active bookings (other than the excluded record)
// whose window overlaps the proposal, preserving snapshot order.
func overlapping(all []model.Booking, p Proposal) []model.Booking {
	var out []model.Booking
	end := p.End()
	for _, b := range all {
		if b.ID == p.ExcludeID || !b.Active() {
			continue
		}
		if interval.Overlaps(p.Start, end, b.Start, b.End()) {
			out = append(out, b)
		}
	}
	return out
}

// Detect runs all hard double-booking checks and returns every conflict
// found. An empty result means the proposal may be committed.
func Detect(all []model.Booking, p Proposal, ref model.RefData) []model.Conflict {
	if p.Start.IsZero() || p.Duration <= 0 {
		return nil
	}
	overlaps := overlapping(all, p)

	var out []model.Conflict
	if c, ok := checkStudent(overlaps, p, ref); ok {
		out = append(out, c)
	}
	if c, ok := checkInstructor(overlaps, p, ref); ok {
		out = append(out, c)
	}
	if p.RequiresVehicle {
		if c, ok := checkVehicle(overlaps, p, ref); ok {
			out = append(out, c)
		}
	}
	return out
}

func checkStudent(overlaps []model.Booking, p Proposal, ref model.RefData) (model.Conflict, bool) {
	if p.StudentID == "" {
		return model.Conflict{}, false
	}
	for _, b := range overlaps {
		if b.StudentID != p.StudentID {
			continue
		}
		return model.Conflict{
			Kind:   model.ConflictStudent,
			Fields: []string{"student", "start_date", "start_time"},
			Message: "Already booked " + clock(b.Start) + "–" + clock(b.End()) +
				" with " + ref.InstructorName(b.InstructorID),
		}, true
	}
	return model.Conflict{}, false
}

func checkInstructor(overlaps []model.Booking, p Proposal, ref model.RefData) (model.Conflict, bool) {
	if p.InstructorID == "" {
		return model.Conflict{}, false
	}
	for _, b := range overlaps {
		if b.InstructorID != p.InstructorID {
			continue
		}
		return model.Conflict{
			Kind:   model.ConflictInstructor,
			Fields: []string{"instructor", "start_date", "start_time"},
			Message: "Already scheduled " + clock(b.Start) + "–" + clock(b.End()) +
				" with " + ref.StudentName(b.StudentID),
		}, true
	}
	return model.Conflict{}, false
}

func checkVehicle(overlaps []model.Booking, p Proposal, ref model.RefData) (model.Conflict, bool) {
	if p.VehicleID == "" {
		return model.Conflict{}, false
	}
	for _, b := range overlaps {
		if b.VehicleID != p.VehicleID {
			continue
		}
		return model.Conflict{
			Kind:   model.ConflictVehicle,
			Fields: []string{"vehicle", "start_date", "start_time"},
			Message: "Car already in use " + clock(b.Start) + "–" + clock(b.End()) +
				" (" + ref.InstructorName(b.InstructorID) + " / " + ref.StudentName(b.StudentID) + ")",
		}, true
	}
	return model.Conflict{}, false
}
