package config

import "fmt"

// EngineConfig carries the scheduling constants the UI and the advisory
// checks share. The instructor order drives consistent color assignment in
// the rendering layer; it is configuration, not engine state.
type EngineConfig struct {
	// TravelBufferMinutes is the minimum gap expected between an
	// instructor's bookings at different locations.
	TravelBufferMinutes int `json:"travel_buffer_minutes"`
	// DayStartHour / DayEndHour bound the rendered calendar day.
	DayStartHour int `json:"day_start_hour"`
	DayEndHour   int `json:"day_end_hour"`
	// Classrooms lists classroom lane keys in display order.
	Classrooms []string `json:"classrooms"`
	// Locations maps location codes to display labels.
	Locations map[string]string `json:"locations"`
	// InstructorOrder fixes the instructor id ordering used for color
	// assignment so colors stay stable across sessions.
	InstructorOrder []string `json:"instructor_order"`
}

// SetDefaults applies sane defaults.
func (c *EngineConfig) SetDefaults() {
	if c.TravelBufferMinutes == 0 {
		c.TravelBufferMinutes = 30
	}
	if c.DayStartHour == 0 && c.DayEndHour == 0 {
		c.DayStartHour = 8
		c.DayEndHour = 21
	}
	if len(c.Classrooms) == 0 {
		c.Classrooms = []string{"Class Room 1", "Class Room 2"}
	}
}

// Validate checks mandatory fields.
func (c EngineConfig) Validate() error {
	if c.TravelBufferMinutes < 0 {
		return fmt.Errorf("travel_buffer_minutes must not be negative")
	}
	if c.DayStartHour < 0 || c.DayEndHour > 24 || c.DayStartHour >= c.DayEndHour {
		return fmt.Errorf("day bounds [%d, %d) are invalid", c.DayStartHour, c.DayEndHour)
	}
	return nil
}
