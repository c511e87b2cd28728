package schedule

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rvadriving/scheduler/config"
	"github.com/rvadriving/scheduler/core/conflict"
	"github.com/rvadriving/scheduler/core/logger"
	"github.com/rvadriving/scheduler/core/model"
	"github.com/rvadriving/scheduler/infra/store"
)

func testEngine() config.EngineConfig {
	return config.EngineConfig{
		TravelBufferMinutes: 30,
		DayStartHour:        8,
		DayEndHour:          21,
		Classrooms:          []string{"Class Room 1"},
		InstructorOrder:     []string{"i1", "i2"},
	}
}

func testRef() model.RefData {
	return model.RefData{
		Instructors: map[string]model.Instructor{
			"i1": {ID: "i1", FirstName: "Mari", LastName: "Lopez", Spanish: true, Tiers: []string{"EL"}},
			"i2": {ID: "i2", FirstName: "Mason", LastName: "Hill"},
		},
		Vehicles: map[string]model.Vehicle{
			"v1": {ID: "v1", Name: "Car 1"},
			"v2": {ID: "v2", Name: "Car 2"},
		},
		Students: map[string]model.Student{
			"s1": {ID: "s1", FirstName: "Ava", LastName: "Reed"},
			"s2": {ID: "s2", FirstName: "Ben", LastName: "Cole"},
		},
		Courses: map[string]model.Course{
			"c1": {ID: "c1", Name: "Drive 1", Length: 3600, Type: model.CourseInCar},
			"c2": {ID: "c2", Name: "Classroom A", Length: 7200, Type: model.CourseClassroom},
		},
	}
}

func newTestMux(t *testing.T) (*http.ServeMux, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.SetRefData(testRef())
	h := New(st, testEngine(), nil, logger.Nop{})
	mux := http.NewServeMux()
	h.Register(mux)
	return mux, st
}

func do(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func at(t *testing.T, day time.Time, hour, min int) time.Time {
	t.Helper()
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.Local)
}

func TestDayView(t *testing.T) {
	mux, st := newTestMux(t)
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local) // Monday

	if _, err := st.CreateAvailability(model.AvailabilityRecord{
		Status: model.StatusScheduled, InstructorID: "i1", VehicleID: "v1",
		Location: "CH", AnchorStart: at(t, day, 8, 0), ShiftLength: 8 * 3600,
		Cadence: model.CadenceWeekly,
	}); err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	if _, err := st.CreateAvailability(model.AvailabilityRecord{
		Status: model.StatusBlockedOff, InstructorID: "i1",
		AnchorStart: at(t, day, 12, 0), ShiftLength: 3600,
		Cadence: model.CadenceWeekly,
	}); err != nil {
		t.Fatalf("seed block: %v", err)
	}
	if _, err := st.CreateAvailability(model.AvailabilityRecord{
		Status: model.StatusScheduled, InstructorID: "i2",
		AnchorStart: at(t, day, 9, 0), ShiftLength: 4 * 3600,
		Cadence: model.CadenceWeekly,
	}); err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	for _, b := range []model.Booking{
		{ID: "b1", StudentID: "s1", InstructorID: "i1", VehicleID: "v1", CourseID: "c1", Start: at(t, day, 9, 0), Duration: 3600},
		{ID: "b2", StudentID: "s2", InstructorID: "i2", VehicleID: "v1", CourseID: "c1", Start: at(t, day, 9, 30), Duration: 3600},
		{ID: "b3", StudentID: "s1", InstructorID: "i2", ClassroomID: "Class Room 1", CourseID: "c2", Start: at(t, day, 13, 0), Duration: 7200},
	} {
		if _, err := st.CreateBooking(b); err != nil {
			t.Fatalf("seed booking: %v", err)
		}
	}

	rr := do(t, mux, http.MethodGet, "/api/schedule/day?date=2025-03-03", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	view := decode[DayView](t, rr)

	if len(view.Bookings) != 3 {
		t.Fatalf("expected 3 bookings, got %d", len(view.Bookings))
	}
	// The block splits the first shift in two; the i2 shift stays whole.
	if len(view.Availability) != 3 {
		t.Fatalf("expected 3 availability windows, got %+v", view.Availability)
	}
	if len(view.Blocked) != 1 {
		t.Fatalf("expected 1 blocked window, got %+v", view.Blocked)
	}

	// One vehicle lane, one classroom lane, and the remainder lane holding
	// the instructor sub-lane for the vehicle-less i2 shift.
	lanes := view.Layout.Lanes
	if len(lanes) != 3 {
		t.Fatalf("expected 3 lanes, got %+v", lanes)
	}
	if lanes[0].Key != "v1" || lanes[1].Key != "Class Room 1" || lanes[2].Key != "" {
		t.Fatalf("unexpected lane order: %+v", lanes)
	}
	if len(lanes[2].Sub) != 1 || lanes[2].Sub[0].Key != "i2" {
		t.Fatalf("expected an i2 sub-lane, got %+v", lanes[2].Sub)
	}

	byID := map[string]float64{}
	for _, a := range view.Layout.Assignments {
		byID[a.ItemID] = a.Width
	}
	// b1 and b2 overlap inside the v1 lane and split it in half.
	if byID["b1"] != lanes[0].Width/2 || byID["b2"] != lanes[0].Width/2 {
		t.Fatalf("expected half-lane widths, got %+v", view.Layout.Assignments)
	}
	if byID["b3"] != lanes[1].Width {
		t.Fatalf("expected b3 to fill the classroom lane, got %+v", view.Layout.Assignments)
	}
	if len(view.InstructorOrder) != 2 {
		t.Fatalf("instructor order missing: %+v", view.InstructorOrder)
	}
}

func TestDayViewBadDate(t *testing.T) {
	mux, _ := newTestMux(t)
	if rr := do(t, mux, http.MethodGet, "/api/schedule/day?date=03/03/2025", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRecurringView(t *testing.T) {
	mux, st := newTestMux(t)
	monday := time.Date(2025, 3, 3, 8, 0, 0, 0, time.Local)
	tuesday := monday.AddDate(0, 0, 1)
	for _, rec := range []model.AvailabilityRecord{
		{Status: model.StatusScheduled, InstructorID: "i1", AnchorStart: monday, ShiftLength: 3600, Cadence: model.CadenceWeekly},
		{Status: model.StatusScheduled, InstructorID: "i2", AnchorStart: tuesday, ShiftLength: 3600, Cadence: model.CadenceWeekly},
	} {
		if _, err := st.CreateAvailability(rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rr := do(t, mux, http.MethodGet, "/api/schedule/recurring?weekday=1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	view := decode[RecurringView](t, rr)
	if len(view.Records) != 1 || view.Records[0].InstructorID != "i1" {
		t.Fatalf("expected only the Monday rule, got %+v", view.Records)
	}

	if rr := do(t, mux, http.MethodGet, "/api/schedule/recurring?weekday=7", nil); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for weekday 7, got %d", rr.Code)
	}
}

func TestValidateConflictAndWarnings(t *testing.T) {
	mux, st := newTestMux(t)
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local)
	if _, err := st.CreateBooking(model.Booking{
		ID: "b1", StudentID: "s1", InstructorID: "i1", VehicleID: "v1", CourseID: "c1",
		Start: at(t, day, 9, 0), Duration: 3600,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	// Duration omitted on purpose: it must come from the course.
	rr := do(t, mux, http.MethodPost, "/api/schedule/validate", conflict.Proposal{
		StudentID: "s1", InstructorID: "i2", VehicleID: "v2", CourseID: "c1",
		Start: at(t, day, 9, 30),
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[ValidateResponse](t, rr)
	if resp.Valid {
		t.Fatalf("expected invalid proposal")
	}
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].Kind != model.ConflictStudent {
		t.Fatalf("expected a student conflict, got %+v", resp.Conflicts)
	}
	want := "Already booked 9:00 AM–10:00 AM with Mari Lopez"
	if resp.Conflicts[0].Message != want {
		t.Fatalf("message %q, want %q", resp.Conflicts[0].Message, want)
	}
	// No availability exists, so a coverage warning rides along.
	found := false
	for _, w := range resp.Warnings {
		if w.Kind == model.WarnCoverageGap {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a coverage warning, got %+v", resp.Warnings)
	}
}

func TestValidateClean(t *testing.T) {
	mux, st := newTestMux(t)
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local)
	if _, err := st.CreateAvailability(model.AvailabilityRecord{
		Status: model.StatusScheduled, InstructorID: "i1", VehicleID: "v1",
		AnchorStart: at(t, day, 8, 0), ShiftLength: 8 * 3600, Cadence: model.CadenceWeekly,
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rr := do(t, mux, http.MethodPost, "/api/schedule/validate", conflict.Proposal{
		StudentID: "s1", InstructorID: "i1", VehicleID: "v1", CourseID: "c1",
		Start: at(t, day, 9, 0),
	})
	resp := decode[ValidateResponse](t, rr)
	if !resp.Valid || len(resp.Conflicts) != 0 || len(resp.Warnings) != 0 {
		t.Fatalf("expected a clean proposal, got %+v", resp)
	}
}

func TestReindexPreviewThenApply(t *testing.T) {
	mux, st := newTestMux(t)
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local)
	for _, b := range []model.Booking{
		{ID: "b1", StudentID: "s1", CourseID: "c1", InstructorID: "i1", Start: at(t, day, 9, 0), Duration: 3600, ClassNumber: 1},
		{ID: "b2", StudentID: "s1", CourseID: "c1", InstructorID: "i1", Start: at(t, day, 13, 0), Duration: 3600, ClassNumber: 2},
		{ID: "b3", StudentID: "s1", CourseID: "c1", InstructorID: "i1", Start: at(t, day, 11, 0), Duration: 3600},
	} {
		if _, err := st.CreateBooking(b); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rr := do(t, mux, http.MethodPost, "/api/schedule/reindex", ReindexRequest{RecordID: "b3"})
	resp := decode[ReindexResponse](t, rr)
	if resp.Applied || len(resp.Changes) != 2 {
		t.Fatalf("expected a 2-change preview, got %+v", resp)
	}
	if b, _ := st.GetBooking("b2"); b.ClassNumber != 2 {
		t.Fatalf("preview must not write, got %+v", b)
	}

	rr = do(t, mux, http.MethodPost, "/api/schedule/reindex", ReindexRequest{RecordID: "b3", Apply: true})
	resp = decode[ReindexResponse](t, rr)
	if !resp.Applied || len(resp.Failures) != 0 {
		t.Fatalf("apply failed: %+v", resp)
	}
	if b, _ := st.GetBooking("b3"); b.ClassNumber != 2 {
		t.Fatalf("b3 should take slot 2, got %d", b.ClassNumber)
	}
	if b, _ := st.GetBooking("b2"); b.ClassNumber != 3 {
		t.Fatalf("b2 should shift to slot 3, got %d", b.ClassNumber)
	}
}

func TestReindexMissingRecordID(t *testing.T) {
	mux, _ := newTestMux(t)
	if rr := do(t, mux, http.MethodPost, "/api/schedule/reindex", ReindexRequest{}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestBookingLifecycleRenumbers(t *testing.T) {
	mux, st := newTestMux(t)
	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local)
	for _, b := range []model.Booking{
		{ID: "b1", StudentID: "s1", CourseID: "c1", InstructorID: "i1", Start: at(t, day, 9, 0), Duration: 3600, ClassNumber: 1},
		{ID: "b2", StudentID: "s1", CourseID: "c1", InstructorID: "i1", Start: at(t, day, 13, 0), Duration: 3600, ClassNumber: 2},
	} {
		if _, err := st.CreateBooking(b); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	rr := do(t, mux, http.MethodPost, "/api/bookings", model.Booking{
		StudentID: "s1", CourseID: "c1", InstructorID: "i1", Start: at(t, day, 11, 0),
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	created := decode[BookingResponse](t, rr)
	if created.Booking.ID == "" || created.Booking.Duration != 3600 {
		t.Fatalf("course length not applied: %+v", created.Booking)
	}
	if created.Booking.ClassNumber != 2 {
		t.Fatalf("inserted booking should take slot 2, got %d", created.Booking.ClassNumber)
	}
	if b, _ := st.GetBooking("b2"); b.ClassNumber != 3 {
		t.Fatalf("b2 should shift to slot 3, got %d", b.ClassNumber)
	}

	rr = do(t, mux, http.MethodDelete, "/api/bookings/"+created.Booking.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status %d: %s", rr.Code, rr.Body.String())
	}
	if b, _ := st.GetBooking("b2"); b.ClassNumber != 2 {
		t.Fatalf("b2 should return to slot 2, got %d", b.ClassNumber)
	}
}

func TestBookingNotFound(t *testing.T) {
	mux, _ := newTestMux(t)
	if rr := do(t, mux, http.MethodGet, "/api/bookings/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr := do(t, mux, http.MethodDelete, "/api/bookings/nope", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAvailabilitySplit(t *testing.T) {
	mux, st := newTestMux(t)
	monday := time.Date(2025, 3, 3, 8, 0, 0, 0, time.Local)
	id, err := st.CreateAvailability(model.AvailabilityRecord{
		Status: model.StatusScheduled, InstructorID: "i1", VehicleID: "v1",
		AnchorStart: monday, ShiftLength: 8 * 3600, Cadence: model.CadenceWeekly,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	cutoff := monday.AddDate(0, 0, 21)
	anchor := monday.AddDate(0, 0, 28).Add(time.Hour) // shift starts an hour later from then on
	rr := do(t, mux, http.MethodPost, "/api/availability/"+id+"/split", SplitRequest{Cutoff: cutoff, NewAnchor: anchor})
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	resp := decode[map[string]model.AvailabilityRecord](t, rr)
	if !resp["original"].RepeatUntil.Equal(cutoff) {
		t.Fatalf("original not capped: %+v", resp["original"])
	}
	succ := resp["successor"]
	if !succ.AnchorStart.Equal(anchor) || succ.HasEnd() {
		t.Fatalf("unexpected successor: %+v", succ)
	}
	if succ.InstructorID != "i1" || succ.VehicleID != "v1" || succ.ShiftLength != 8*3600 {
		t.Fatalf("successor lost fields: %+v", succ)
	}
}

func TestAvailabilityCreateRejectsInertRecord(t *testing.T) {
	mux, _ := newTestMux(t)
	rr := do(t, mux, http.MethodPost, "/api/availability", model.AvailabilityRecord{
		Status: model.StatusScheduled, AnchorStart: time.Now(), ShiftLength: 3600,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for resource-less record, got %d", rr.Code)
	}
}
