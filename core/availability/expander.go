// Package availability turns recurring availability records into the net
// (block-subtracted) time windows a resource can actually be booked in.
package availability

import (
	"time"

	"github.com/rvadriving/scheduler/core/interval"
	"github.com/rvadriving/scheduler/core/model"
	"github.com/rvadriving/scheduler/core/recurrence"
)

// ExpandDay computes the net available occurrences for a calendar date.
//
// Every record is evaluated against the date; scheduled occurrences are then
// whittled down by the blocked occurrences whose scope applies to them. A
// scheduled window fully inside a block disappears, a partially overlapping
// block truncates it, and a block punching a hole splits it in two. Blocks
// are merged before subtraction so overlapping blocks cannot make the result
// depend on record order.
func ExpandDay(records []model.AvailabilityRecord, date time.Time) []model.Occurrence {
	scheduled, blocked := occurrencesOn(records, date)

	var out []model.Occurrence
	for _, s := range scheduled {
		var cutters []interval.Interval
		for _, b := range blocked {
			if blockApplies(b, s) {
				cutters = append(cutters, interval.Interval{Start: b.Start, End: b.End})
			}
		}
		whole := interval.Interval{Start: s.Start, End: s.End}
		for _, seg := range interval.SubtractAll(whole, cutters) {
			occ := s
			occ.Start = seg.Start
			occ.End = seg.End
			out = append(out, occ)
		}
	}
	return out
}

// BlockedOn returns the raw blocked occurrences landing on a date, without
// any subtraction. The calendar renders these as an overlay on top of the
// net availability strips.
func BlockedOn(records []model.AvailabilityRecord, date time.Time) []model.Occurrence {
	_, blocked := occurrencesOn(records, date)
	return blocked
}

// RecurringOn filters scheduled records whose anchor day-of-week matches
// weekday. The recurring-schedule editor shows the rules themselves rather
// than dated occurrences.
func RecurringOn(records []model.AvailabilityRecord, weekday time.Weekday) []model.AvailabilityRecord {
	var out []model.AvailabilityRecord
	for _, rec := range records {
		if rec.Status != model.StatusScheduled || !rec.Valid() {
			continue
		}
		if rec.AnchorStart.Weekday() == weekday {
			out = append(out, rec)
		}
	}
	return out
}

func occurrencesOn(records []model.AvailabilityRecord, date time.Time) (scheduled, blocked []model.Occurrence) {
	for _, rec := range records {
		occ, ok := recurrence.OccurrenceOn(rec, date)
		if !ok {
			continue
		}
		switch rec.Status {
		case model.StatusScheduled:
			scheduled = append(scheduled, occ)
		case model.StatusBlockedOff:
			blocked = append(blocked, occ)
		}
	}
	return scheduled, blocked
}

// blockApplies implements the block scope precedence:
// both resources set requires an exact pair match, a single resource matches
// that resource regardless of the other, and a block with neither resource
// is inert.
func blockApplies(block, scheduled model.Occurrence) bool {
	hasInstructor := block.InstructorID != ""
	hasVehicle := block.VehicleID != ""

	switch {
	case hasInstructor && hasVehicle:
		return block.InstructorID == scheduled.InstructorID && block.VehicleID == scheduled.VehicleID
	case hasInstructor:
		return block.InstructorID == scheduled.InstructorID
	case hasVehicle:
		return block.VehicleID == scheduled.VehicleID
	default:
		return false
	}
}
