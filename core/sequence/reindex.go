// Package sequence keeps class numbers dense and chronological. Every
// (student, course) pair numbers its active bookings 1..N by start time;
// editing a booking's time, student or course can silently renumber its
// neighbours, so the engine computes the diff and the caller confirms it
// before any write happens.
package sequence

import (
	"sort"
	"time"

	"github.com/rvadriving/scheduler/core/model"
)

// Key identifies one numbering sequence.
type Key struct {
	StudentID string
	CourseID  string
}

// Change is one booking whose class number must move.
type Change struct {
	RecordID  string `json:"record_id"`
	OldNumber int    `json:"old_number"`
	NewNumber int    `json:"new_number"`
}

// Reindex computes the class-number changes needed after an edit.
//
// all is the post-edit snapshot; editedID names the booking that changed and
// before is its pre-edit state (nil for a newly created booking; an edited
// booking absent from all is treated as deleted). Both the old and the new
// (student, course) pair are renumbered, but only bookings starting at or
// after the pivot — the earlier of the old and new start relevant to each
// pair — are touched, so past bookings keep their history.
func Reindex(all []model.Booking, editedID string, before *model.Booking) []Change {
	var after *model.Booking
	for i := range all {
		if all[i].ID == editedID {
			after = &all[i]
			break
		}
	}
	if after == nil && before == nil {
		return nil
	}

	keys, pivots := affectedKeys(after, before)
	var out []Change
	for _, key := range keys {
		out = append(out, renumber(all, key, pivots[key])...)
	}
	return out
}

// affectedKeys returns the old and new sequence keys in a stable order,
// with the pivot start time for each.
func affectedKeys(after, before *model.Booking) ([]Key, map[Key]time.Time) {
	pivots := map[Key]time.Time{}
	var keys []Key
	add := func(k Key, start time.Time) {
		if k.StudentID == "" || k.CourseID == "" {
			return
		}
		if existing, ok := pivots[k]; !ok {
			pivots[k] = start
			keys = append(keys, k)
		} else if start.Before(existing) {
			pivots[k] = start
		}
	}
	if before != nil {
		add(Key{StudentID: before.StudentID, CourseID: before.CourseID}, before.Start)
	}
	if after != nil {
		add(Key{StudentID: after.StudentID, CourseID: after.CourseID}, after.Start)
	}
	return keys, pivots
}

// renumber sorts the key's active bookings chronologically, numbers them
// 1..N, and reports the ones at or after the pivot whose number changed.
func renumber(all []model.Booking, key Key, pivot time.Time) []Change {
	var members []model.Booking
	for _, b := range all {
		if !b.Active() || b.StudentID != key.StudentID || b.CourseID != key.CourseID {
			continue
		}
		members = append(members, b)
	}
	sort.SliceStable(members, func(i, j int) bool {
		if !members[i].Start.Equal(members[j].Start) {
			return members[i].Start.Before(members[j].Start)
		}
		return members[i].ID < members[j].ID
	})

	var out []Change
	for i, b := range members {
		want := i + 1
		if b.ClassNumber == want || b.Start.Before(pivot) {
			continue
		}
		out = append(out, Change{RecordID: b.ID, OldNumber: b.ClassNumber, NewNumber: want})
	}
	return out
}
