package conflict

import (
	"fmt"
	"time"

	"github.com/rvadriving/scheduler/core/availability"
	"github.com/rvadriving/scheduler/core/interval"
	"github.com/rvadriving/scheduler/core/model"
)

// DefaultTravelBuffer is the minimum gap expected between an instructor's
// bookings at different locations.
const DefaultTravelBuffer = 30 * time.Minute

// SoftInput is the snapshot the advisory checks run against.
type SoftInput struct {
	Bookings     []model.Booking
	Availability []model.AvailabilityRecord
	Ref          model.RefData
	// TravelBuffer overrides DefaultTravelBuffer when positive.
	TravelBuffer time.Duration
}

// Warnings runs every advisory check against the proposal and returns all
// findings in detection order. Warnings never block a save and are computed
// without consulting the hard-conflict results.
func Warnings(in SoftInput, p Proposal) []model.Warning {
	if p.Start.IsZero() || p.Duration <= 0 || p.InstructorID == "" {
		return nil
	}

	var out []model.Warning
	covering, occs := coveringOccurrence(in.Availability, p)
	if covering == nil {
		out = append(out, model.Warning{
			Kind:   model.WarnCoverageGap,
			Fields: []string{"instructor", "start_date", "start_time"},
			Message: in.Ref.InstructorName(p.InstructorID) + " has no availability covering " +
				clock(p.Start) + "–" + clock(p.End()),
		})
	} else {
		if w, ok := vehicleMismatch(in, p, *covering, occs); ok {
			out = append(out, w)
		}
		if w, ok := locationMismatch(in, p, *covering); ok {
			out = append(out, w)
		}
	}
	out = append(out, travelBuffer(in, p)...)
	out = append(out, capabilityMismatch(in, p)...)
	return out
}

// coveringOccurrence expands the proposal's date and returns the net
// occurrence for the proposed instructor that fully contains the window,
// along with the full day expansion for further checks.
func coveringOccurrence(records []model.AvailabilityRecord, p Proposal) (*model.Occurrence, []model.Occurrence) {
	occs := availability.ExpandDay(records, p.Start)
	end := p.End()
	for i, occ := range occs {
		if occ.InstructorID == p.InstructorID && occ.Covers(p.Start, end) {
			return &occs[i], occs
		}
	}
	return nil, occs
}

// vehicleMismatch fires when the availability that covers the proposal names
// a different vehicle than the one selected. When the selected vehicle is
// covering another instructor at the same time, the message says so.
func vehicleMismatch(in SoftInput, p Proposal, covering model.Occurrence, occs []model.Occurrence) (model.Warning, bool) {
	if !p.RequiresVehicle || p.VehicleID == "" || covering.VehicleID == "" || covering.VehicleID == p.VehicleID {
		return model.Warning{}, false
	}
	msg := fmt.Sprintf("%s is scheduled with %s, not %s",
		in.Ref.InstructorName(p.InstructorID),
		in.Ref.VehicleName(covering.VehicleID),
		in.Ref.VehicleName(p.VehicleID))
	end := p.End()
	for _, occ := range occs {
		if occ.VehicleID == p.VehicleID && occ.InstructorID != p.InstructorID && occ.Covers(p.Start, end) {
			msg += fmt.Sprintf("; %s is covering %s",
				in.Ref.VehicleName(p.VehicleID), in.Ref.InstructorName(occ.InstructorID))
			break
		}
	}
	return model.Warning{
		Kind:    model.WarnVehicleMismatch,
		Fields:  []string{"vehicle"},
		Message: msg,
	}, true
}

func locationMismatch(in SoftInput, p Proposal, covering model.Occurrence) (model.Warning, bool) {
	if p.Location == "" || covering.Location == "" || covering.Location == p.Location {
		return model.Warning{}, false
	}
	return model.Warning{
		Kind:   model.WarnLocationMismatch,
		Fields: []string{"location"},
		Message: fmt.Sprintf("%s is scheduled at %s, booking is at %s",
			in.Ref.InstructorName(p.InstructorID), covering.Location, p.Location),
	}, true
}

// travelBuffer flags bookings for the same instructor on the same calendar
// day at a different location closer than the buffer on either side.
// Overlapping bookings are the hard checks' concern and are skipped here.
func travelBuffer(in SoftInput, p Proposal) []model.Warning {
	buffer := in.TravelBuffer
	if buffer <= 0 {
		buffer = DefaultTravelBuffer
	}
	pEnd := p.End()

	var out []model.Warning
	for _, b := range in.Bookings {
		if b.ID == p.ExcludeID || !b.Active() || b.InstructorID != p.InstructorID {
			continue
		}
		if !sameDay(b.Start, p.Start) {
			continue
		}
		if b.Location == "" || p.Location == "" || b.Location == p.Location {
			continue
		}
		if interval.Overlaps(p.Start, pEnd, b.Start, b.End()) {
			continue
		}
		gap := p.Start.Sub(b.End())
		if b.Start.After(p.Start) {
			gap = b.Start.Sub(pEnd)
		}
		if gap < buffer {
			out = append(out, model.Warning{
				Kind:   model.WarnTravelBuffer,
				Fields: []string{"location", "start_time"},
				Message: fmt.Sprintf("Only %d min before/after a booking at %s; %d min travel buffer expected",
					int(gap.Minutes()), b.Location, int(buffer.Minutes())),
			})
		}
	}
	return out
}

func capabilityMismatch(in SoftInput, p Proposal) []model.Warning {
	inst, ok := in.Ref.Instructors[p.InstructorID]
	if !ok {
		return nil
	}
	var out []model.Warning
	if p.Spanish && !inst.Spanish {
		out = append(out, model.Warning{
			Kind:    model.WarnCapability,
			Fields:  []string{"instructor", "spanish"},
			Message: inst.FullName() + " does not teach in Spanish",
		})
	}
	if p.Tier != "" && !inst.HasTier(p.Tier) {
		out = append(out, model.Warning{
			Kind:    model.WarnCapability,
			Fields:  []string{"instructor", "tier"},
			Message: inst.FullName() + " does not teach tier " + p.Tier,
		})
	}
	return out
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
