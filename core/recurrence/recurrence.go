// Package recurrence evaluates recurring availability records against
// concrete calendar dates. Evaluation is a pure function: the same record
// and date always produce the same result.
package recurrence

import (
	"math"
	"time"

	"github.com/rvadriving/scheduler/core/model"
)

const weekHours = 7 * 24

// OccurrenceOn returns the concrete occurrence of rec on the calendar date
// of target, or false when the recurrence does not land on that date.
//
// The recurrence repeats on the anchor's day-of-week at the anchor's
// time-of-day, weekly or bi-weekly, from the anchor date through RepeatUntil
// (inclusive) when set. Malformed records never match.
func OccurrenceOn(rec model.AvailabilityRecord, target time.Time) (model.Occurrence, bool) {
	if !rec.Valid() {
		return model.Occurrence{}, false
	}

	anchor := rec.AnchorStart
	loc := anchor.Location()
	day := startOfDay(target.In(loc))
	anchorDay := startOfDay(anchor)

	if day.Weekday() != anchor.Weekday() {
		return model.Occurrence{}, false
	}
	if day.Before(anchorDay) {
		return model.Occurrence{}, false
	}
	if rec.HasEnd() && day.After(startOfDay(rec.RepeatUntil.In(loc))) {
		return model.Occurrence{}, false
	}
	if rec.Cadence == model.CadenceBiWeekly {
		// Rounding absorbs the ±1h a DST transition adds to a week span.
		weeks := math.Round(day.Sub(anchorDay).Hours() / weekHours)
		if int64(weeks)%2 != 0 {
			return model.Occurrence{}, false
		}
	}

	start := time.Date(day.Year(), day.Month(), day.Day(),
		anchor.Hour(), anchor.Minute(), 0, 0, loc)
	return model.Occurrence{
		RecordID:     rec.ID,
		InstructorID: rec.InstructorID,
		VehicleID:    rec.VehicleID,
		Location:     rec.Location,
		Start:        start,
		End:          start.Add(time.Duration(rec.ShiftLength) * time.Second),
	}, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
