package model

import (
	"slices"
	"time"
)

// Unit is an academic unit that owns modules and sessions
type Unit struct {
	ID   string
	Code string
	Name string
}

// Module is a recurring teaching activity within a unit and the unit of skill declaration
type Module struct {
	ID     string `validate:"required"`
	UnitID string
	Name   string
}

// Preferences are a facilitator's declared soft preferences
type Preferences struct {
	TimesOfDay   []TimeOfDay
	SessionTypes []string
}

// Facilitator is a staff member eligible to be assigned to sessions
type Facilitator struct {
	ID    string `validate:"required"`
	Name  string
	Email string `validate:"omitempty,email"`

	// MinHours and MaxHours are the target workload band. MaxHours of 0 means unbounded.
	MinHours int `validate:"min=0"`
	MaxHours int `validate:"min=0"`

	// Skills maps module ID to the declared tier. Modules absent from the map are "not declared".
	Skills map[string]SkillLevel

	// SkillTags are the specific skills held, matched against a session's RequiredSkills
	SkillTags []string

	Preferences Preferences

	// HistoricalAssignmentCount is the number of assignments held before this run
	HistoricalAssignmentCount int `validate:"min=0"`

	Unavailability []Unavailability `validate:"dive"`
}

// SkillFor returns the declared tier for a module and whether one was declared
func (f *Facilitator) SkillFor(moduleID string) (SkillLevel, bool) {
	level, ok := f.Skills[moduleID]
	return level, ok
}

// HasSkillTag returns true if the facilitator holds the given tag
func (f *Facilitator) HasSkillTag(tag string) bool {
	return slices.Contains(f.SkillTags, tag)
}

// Session is one scheduled occurrence of a module
type Session struct {
	ID          string `validate:"required"`
	ModuleID    string `validate:"required"`
	UnitID      string
	SessionType string

	Start time.Time `validate:"required"`
	End   time.Time `validate:"required,gtfield=Start"`

	LeadStaffRequired    int `validate:"min=0"`
	SupportStaffRequired int `validate:"min=0"`

	// RequiredSkills are tags a facilitator should hold; empty means no specific requirement
	RequiredSkills []string
	Location       string
}

// Window returns the half-open time window of the session
func (s *Session) Window() TimeWindow {
	return TimeWindow{Start: s.Start, End: s.End}
}

// Duration returns the length of the session
func (s *Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Hours returns the length of the session in hours
func (s *Session) Hours() float64 {
	return s.Duration().Hours()
}

// Required returns the headcount quota for a role
func (s *Session) Required(role Role) int {
	switch role {
	case RoleLead:
		return s.LeadStaffRequired
	case RoleSupport:
		return s.SupportStaffRequired
	}
	return 0
}

// Assignment links a facilitator to a session in a role
type Assignment struct {
	ID            string
	SessionID     string `validate:"required"`
	FacilitatorID string `validate:"required"`
	Role          Role   `validate:"required,oneof=lead support"`
	IsConfirmed   bool
}
