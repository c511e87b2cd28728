package model

// ConflictKind identifies a hard double-booking condition.
type ConflictKind string

const (
	ConflictStudent    ConflictKind = "student_overlap"
	ConflictInstructor ConflictKind = "instructor_overlap"
	ConflictVehicle    ConflictKind = "vehicle_overlap"
)

// Conflict is a blocking double-booking result. The caller must resolve it
// before committing the proposed booking.
type Conflict struct {
	Kind    ConflictKind `json:"kind"`
	Fields  []string     `json:"fields"`
	Message string       `json:"message"`
}

// WarningKind identifies an advisory mismatch.
type WarningKind string

const (
	WarnCoverageGap      WarningKind = "coverage_gap"
	WarnVehicleMismatch  WarningKind = "vehicle_mismatch"
	WarnLocationMismatch WarningKind = "location_mismatch"
	WarnTravelBuffer     WarningKind = "travel_buffer"
	WarnCapability       WarningKind = "capability_mismatch"
)

// Warning is an advisory result. It is shown to the scheduler but never
// blocks a save.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Fields  []string    `json:"fields"`
	Message string      `json:"message"`
}

// LaneAssignment places one item in a horizontal rendering slot. Left and
// Width are percentages of the containing column. Recomputed on every read,
// never persisted.
type LaneAssignment struct {
	ItemID string  `json:"item_id"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
}
