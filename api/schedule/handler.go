// Package schedule exposes the scheduling engine over HTTP: calendar day and
// recurring views, booking validation, class-number reindexing, and CRUD for
// bookings and availability records.
package schedule

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/rvadriving/scheduler/config"
	"github.com/rvadriving/scheduler/core/availability"
	"github.com/rvadriving/scheduler/core/conflict"
	"github.com/rvadriving/scheduler/core/layout"
	"github.com/rvadriving/scheduler/core/logger"
	"github.com/rvadriving/scheduler/core/model"
	"github.com/rvadriving/scheduler/core/sequence"
	"github.com/rvadriving/scheduler/infra/metrics"
	"github.com/rvadriving/scheduler/infra/store"
)

// Store is the record access the handlers run against. Reads return
// snapshots; handlers feed those to the engine and apply any resulting
// writes back.
type Store interface {
	RefData() model.RefData
	Bookings() []model.Booking
	BookingsBetween(from, to time.Time) []model.Booking
	CreateBooking(model.Booking) (string, error)
	GetBooking(id string) (model.Booking, error)
	UpdateBooking(model.Booking) (model.Booking, error)
	DeleteBooking(id string) error
	Availability() []model.AvailabilityRecord
	CreateAvailability(model.AvailabilityRecord) (string, error)
	GetAvailability(id string) (model.AvailabilityRecord, error)
	UpdateAvailability(model.AvailabilityRecord) error
	DeleteAvailability(id string) error
	SplitAvailability(id string, cutoff, newAnchor time.Time) (string, error)
	ApplyClassNumbers([]sequence.Change) map[string]error
}

// Handler serves the schedule API.
type Handler struct {
	store   Store
	engine  config.EngineConfig
	metrics *metrics.Collector
	log     logger.Logger
}

// New returns a Handler. metrics may be nil.
func New(st Store, engine config.EngineConfig, m *metrics.Collector, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop{}
	}
	return &Handler{store: st, engine: engine, metrics: m, log: log}
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("GET /api/schedule/day", h.wrap("schedule_day", h.day))
	mux.Handle("GET /api/schedule/recurring", h.wrap("schedule_recurring", h.recurring))
	mux.Handle("POST /api/schedule/validate", h.wrap("validate", h.validate))
	mux.Handle("POST /api/schedule/reindex", h.wrap("reindex", h.reindex))

	mux.Handle("GET /api/bookings", h.wrap("bookings_list", h.listBookings))
	mux.Handle("POST /api/bookings", h.wrap("bookings_create", h.createBooking))
	mux.Handle("GET /api/bookings/{id}", h.wrap("bookings_get", h.getBooking))
	mux.Handle("PUT /api/bookings/{id}", h.wrap("bookings_update", h.updateBooking))
	mux.Handle("DELETE /api/bookings/{id}", h.wrap("bookings_delete", h.deleteBooking))

	mux.Handle("GET /api/availability", h.wrap("availability_list", h.listAvailability))
	mux.Handle("POST /api/availability", h.wrap("availability_create", h.createAvailability))
	mux.Handle("GET /api/availability/{id}", h.wrap("availability_get", h.getAvailability))
	mux.Handle("PUT /api/availability/{id}", h.wrap("availability_update", h.updateAvailability))
	mux.Handle("DELETE /api/availability/{id}", h.wrap("availability_delete", h.deleteAvailability))
	mux.Handle("POST /api/availability/{id}/split", h.wrap("availability_split", h.splitAvailability))

	mux.Handle("GET /api/refdata", h.wrap("refdata", h.refData))
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (h *Handler) wrap(endpoint string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		fn(sw, r)
		h.metrics.ObserveRequest(endpoint, strconv.Itoa(sw.status))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// DayView is the full payload the calendar needs to render one date.
type DayView struct {
	Date            string             `json:"date"`
	Bookings        []model.Booking    `json:"bookings"`
	Layout          layout.Result      `json:"layout"`
	Availability    []model.Occurrence `json:"availability"`
	Blocked         []model.Occurrence `json:"blocked"`
	InstructorOrder []string           `json:"instructor_order"`
	DayStartHour    int                `json:"day_start_hour"`
	DayEndHour      int                `json:"day_end_hour"`
}

func (h *Handler) day(w http.ResponseWriter, r *http.Request) {
	date, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("date"), time.Local)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	bookings := h.store.BookingsBetween(date, date.AddDate(0, 0, 1))
	records := h.store.Availability()

	start := time.Now()
	var active []model.Booking
	for _, b := range bookings {
		if b.Active() {
			active = append(active, b)
		}
	}
	occs := availability.ExpandDay(records, date)
	res := layout.Resolve(active, h.laneLevels(active, occs))
	blocked := availability.BlockedOn(records, date)
	h.metrics.ObserveEngine("day_view", time.Since(start))

	view := DayView{
		Date:            date.Format("2006-01-02"),
		Bookings:        bookings,
		Layout:          res,
		Availability:    occs,
		Blocked:         blocked,
		InstructorOrder: h.engine.InstructorOrder,
		DayStartHour:    h.engine.DayStartHour,
		DayEndHour:      h.engine.DayEndHour,
	}
	if view.Bookings == nil {
		view.Bookings = []model.Booking{}
	}
	if view.Availability == nil {
		view.Availability = []model.Occurrence{}
	}
	if view.Blocked == nil {
		view.Blocked = []model.Occurrence{}
	}
	writeJSON(w, http.StatusOK, view)
}

// laneLevels builds the lane grouping for the day view. Vehicle lanes come
// from the vehicles with availability on the date, classroom lanes from the
// classrooms the day's bookings use, and the remainder is subdivided by the
// instructors whose availability names no vehicle. Lanes with nothing behind
// them take no space.
func (h *Handler) laneLevels(bookings []model.Booking, occs []model.Occurrence) []layout.Level {
	ref := h.store.RefData()

	vset := map[string]bool{}
	iset := map[string]bool{}
	for _, o := range occs {
		if o.VehicleID != "" {
			vset[o.VehicleID] = true
		} else if o.InstructorID != "" {
			iset[o.InstructorID] = true
		}
	}
	vids := make([]string, 0, len(vset))
	for id := range vset {
		vids = append(vids, id)
	}
	sort.Slice(vids, func(i, j int) bool {
		a, b := ref.VehicleName(vids[i]), ref.VehicleName(vids[j])
		if a != b {
			return a < b
		}
		return vids[i] < vids[j]
	})

	cset := map[string]bool{}
	for _, b := range bookings {
		if b.ClassroomID != "" {
			cset[b.ClassroomID] = true
		}
	}
	seeds := vids
	for _, room := range h.engine.Classrooms {
		if cset[room] {
			seeds = append(seeds, room)
		}
	}

	var insts []string
	for _, id := range h.engine.InstructorOrder {
		if iset[id] {
			insts = append(insts, id)
			delete(iset, id)
		}
	}
	extra := make([]string, 0, len(iset))
	for id := range iset {
		extra = append(extra, id)
	}
	sort.Strings(extra)
	insts = append(insts, extra...)

	return []layout.Level{
		{
			Key: func(b model.Booking) string {
				if b.ClassroomID != "" {
					return b.ClassroomID
				}
				return b.VehicleID
			},
			Seeds: seeds,
		},
		{
			Key:   func(b model.Booking) string { return b.InstructorID },
			Seeds: insts,
		},
	}
}

// RecurringView lists the availability rules anchored on one weekday.
type RecurringView struct {
	Weekday int                        `json:"weekday"`
	Records []model.AvailabilityRecord `json:"records"`
}

func (h *Handler) recurring(w http.ResponseWriter, r *http.Request) {
	wd, err := strconv.Atoi(r.URL.Query().Get("weekday"))
	if err != nil || wd < 0 || wd > 6 {
		http.Error(w, "weekday must be 0 (Sunday) through 6", http.StatusBadRequest)
		return
	}
	records := availability.RecurringOn(h.store.Availability(), time.Weekday(wd))
	if records == nil {
		records = []model.AvailabilityRecord{}
	}
	writeJSON(w, http.StatusOK, RecurringView{Weekday: wd, Records: records})
}

// ValidateResponse reports the hard conflicts and soft warnings for a
// proposal. Valid is false only when a hard conflict exists; warnings alone
// never block a save.
type ValidateResponse struct {
	Valid     bool             `json:"valid"`
	Conflicts []model.Conflict `json:"conflicts"`
	Warnings  []model.Warning  `json:"warnings"`
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var p conflict.Proposal
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ref := h.store.RefData()
	h.applyCourse(&p, ref)

	bookings := h.store.Bookings()
	start := time.Now()
	conflicts := conflict.Detect(bookings, p, ref)
	warnings := conflict.Warnings(conflict.SoftInput{
		Bookings:     bookings,
		Availability: h.store.Availability(),
		Ref:          ref,
		TravelBuffer: time.Duration(h.engine.TravelBufferMinutes) * time.Minute,
	}, p)
	h.metrics.ObserveEngine("validate", time.Since(start))

	for _, c := range conflicts {
		h.metrics.CountConflict(string(c.Kind))
	}
	for _, warn := range warnings {
		h.metrics.CountWarning(string(warn.Kind))
	}

	resp := ValidateResponse{Valid: len(conflicts) == 0, Conflicts: conflicts, Warnings: warnings}
	if resp.Conflicts == nil {
		resp.Conflicts = []model.Conflict{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []model.Warning{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// applyCourse fills course-derived proposal fields the client may omit.
func (h *Handler) applyCourse(p *conflict.Proposal, ref model.RefData) {
	course, ok := ref.Courses[p.CourseID]
	if !ok {
		return
	}
	if p.Duration == 0 {
		p.Duration = course.Length
	}
	p.RequiresVehicle = course.RequiresVehicle()
}

// ReindexRequest names the edited booking; Apply commits the diff instead of
// just previewing it.
type ReindexRequest struct {
	RecordID string `json:"record_id"`
	Apply    bool   `json:"apply"`
}

// ReindexResponse carries the class-number diff and, when applied, the
// per-record failures.
type ReindexResponse struct {
	Changes  []sequence.Change `json:"changes"`
	Applied  bool              `json:"applied"`
	Failures map[string]string `json:"failures,omitempty"`
}

func (h *Handler) reindex(w http.ResponseWriter, r *http.Request) {
	var req ReindexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.RecordID == "" {
		http.Error(w, "record_id is required", http.StatusBadRequest)
		return
	}

	start := time.Now()
	changes := sequence.Reindex(h.store.Bookings(), req.RecordID, nil)
	h.metrics.ObserveEngine("reindex", time.Since(start))

	resp := ReindexResponse{Changes: changes, Applied: req.Apply}
	if req.Apply {
		resp.Failures = failureStrings(h.store.ApplyClassNumbers(changes))
	}
	if resp.Changes == nil {
		resp.Changes = []sequence.Change{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func failureStrings(failures map[string]error) map[string]string {
	if len(failures) == 0 {
		return nil
	}
	out := make(map[string]string, len(failures))
	for id, err := range failures {
		out[id] = err.Error()
	}
	return out
}

// BookingResponse is the write-endpoint payload: the saved booking plus the
// class-number renumbering the write triggered.
type BookingResponse struct {
	Booking  model.Booking     `json:"booking"`
	Changes  []sequence.Change `json:"class_number_changes"`
	Failures map[string]string `json:"failures,omitempty"`
}

func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
	bookings := h.store.Bookings()
	if bookings == nil {
		bookings = []model.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.store.GetBooking(r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var b model.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if course, ok := h.store.RefData().Courses[b.CourseID]; ok && b.Duration == 0 {
		b.Duration = course.Length
	}
	if b.Start.IsZero() || b.Duration <= 0 {
		http.Error(w, "start and duration are required", http.StatusBadRequest)
		return
	}
	id, err := h.store.CreateBooking(b)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	resp := h.renumberAfterWrite(id, nil)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) updateBooking(w http.ResponseWriter, r *http.Request) {
	var b model.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	b.ID = r.PathValue("id")
	prev, err := h.store.UpdateBooking(b)
	if err != nil {
		storeError(w, err)
		return
	}
	resp := h.renumberAfterWrite(b.ID, &prev)
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) deleteBooking(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	prev, err := h.store.GetBooking(id)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := h.store.DeleteBooking(id); err != nil {
		storeError(w, err)
		return
	}
	changes := sequence.Reindex(h.store.Bookings(), id, &prev)
	failures := failureStrings(h.store.ApplyClassNumbers(changes))
	if changes == nil {
		changes = []sequence.Change{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":              id,
		"class_number_changes": changes,
		"failures":             failures,
	})
}

// renumberAfterWrite recomputes class numbers around a saved booking, applies
// the diff, and returns the refreshed booking with it.
func (h *Handler) renumberAfterWrite(id string, before *model.Booking) BookingResponse {
	changes := sequence.Reindex(h.store.Bookings(), id, before)
	failures := failureStrings(h.store.ApplyClassNumbers(changes))
	for recordID, msg := range failures {
		h.log.Warnf("class number update failed for %s: %s", recordID, msg)
	}
	b, err := h.store.GetBooking(id)
	if err != nil {
		h.log.Errorf("reload booking %s: %v", id, err)
	}
	if changes == nil {
		changes = []sequence.Change{}
	}
	return BookingResponse{Booking: b, Changes: changes, Failures: failures}
}

func (h *Handler) listAvailability(w http.ResponseWriter, r *http.Request) {
	records := h.store.Availability()
	if records == nil {
		records = []model.AvailabilityRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) getAvailability(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.GetAvailability(r.PathValue("id"))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) createAvailability(w http.ResponseWriter, r *http.Request) {
	var rec model.AvailabilityRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !rec.Valid() {
		http.Error(w, "record needs an anchor, a positive shift length and at least one resource", http.StatusBadRequest)
		return
	}
	id, err := h.store.CreateAvailability(rec)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	rec.ID = id
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) updateAvailability(w http.ResponseWriter, r *http.Request) {
	var rec model.AvailabilityRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec.ID = r.PathValue("id")
	if err := h.store.UpdateAvailability(rec); err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) deleteAvailability(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteAvailability(r.PathValue("id")); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SplitRequest ends a recurring rule on Cutoff and re-anchors a successor at
// NewAnchor, so one side of the split can be edited without rewriting
// history.
type SplitRequest struct {
	Cutoff    time.Time `json:"cutoff"`
	NewAnchor time.Time `json:"new_anchor"`
}

func (h *Handler) splitAvailability(w http.ResponseWriter, r *http.Request) {
	var req SplitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Cutoff.IsZero() || req.NewAnchor.IsZero() {
		http.Error(w, "cutoff and new_anchor are required", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	successorID, err := h.store.SplitAvailability(id, req.Cutoff, req.NewAnchor)
	if err != nil {
		storeError(w, err)
		return
	}
	original, err := h.store.GetAvailability(id)
	if err != nil {
		storeError(w, err)
		return
	}
	successor, err := h.store.GetAvailability(successorID)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]model.AvailabilityRecord{
		"original":  original,
		"successor": successor,
	})
}

func (h *Handler) refData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.RefData())
}
