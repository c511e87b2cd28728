package model

// CourseType determines which resources a booking of the course requires.
type CourseType string

const (
	CourseInCar     CourseType = "In Car"
	CourseClassroom CourseType = "Classroom"
)

// Instructor reference data, including the capability set used by the
// advisory mismatch checks.
type Instructor struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Role      string   `json:"role,omitempty"`
	Spanish   bool     `json:"spanish,omitempty"`
	Tiers     []string `json:"tiers,omitempty"`
}

// FullName returns "First Last" for display in conflict messages.
func (i Instructor) FullName() string {
	if i.FirstName == "" {
		return i.LastName
	}
	if i.LastName == "" {
		return i.FirstName
	}
	return i.FirstName + " " + i.LastName
}

// HasTier reports whether the instructor teaches the given tier.
func (i Instructor) HasTier(tier string) bool {
	for _, t := range i.Tiers {
		if t == tier {
			return true
		}
	}
	return false
}

// Vehicle reference data.
type Vehicle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Student reference data. Only identity fields matter to the engine.
type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// FullName returns "First Last" for display in conflict messages.
func (s Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Course reference data, including the option lookups that drive form
// behaviour and the advisory capability checks.
type Course struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Length         int        `json:"length"` // seconds
	Type           CourseType `json:"type"`
	TierOptions    []string   `json:"tier_options,omitempty"`
	LocationCodes  []string   `json:"location_codes,omitempty"`
	SpanishOffered bool       `json:"spanish_offered,omitempty"`
	PUDOOffered    bool       `json:"pudo_offered,omitempty"`
}

// RequiresVehicle reports whether bookings of this course hold a vehicle
// exclusively.
func (c Course) RequiresVehicle() bool { return c.Type == CourseInCar }

// RefData bundles the lookup maps the engine receives from the caller.
// All maps are keyed by opaque record id.
type RefData struct {
	Instructors map[string]Instructor `json:"instructors"`
	Vehicles    map[string]Vehicle    `json:"vehicles"`
	Students    map[string]Student    `json:"students"`
	Courses     map[string]Course     `json:"courses"`
}

// InstructorName returns the instructor's display name or "?" when unknown.
func (r RefData) InstructorName(id string) string {
	if i, ok := r.Instructors[id]; ok {
		return i.FullName()
	}
	return "?"
}

// StudentName returns the student's display name or "?" when unknown.
func (r RefData) StudentName(id string) string {
	if s, ok := r.Students[id]; ok {
		return s.FullName()
	}
	return "?"
}

// VehicleName returns the vehicle's display name or "?" when unknown.
func (r RefData) VehicleName(id string) string {
	if v, ok := r.Vehicles[id]; ok {
		return v.Name
	}
	return "?"
}
