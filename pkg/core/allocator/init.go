package allocator

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

var validate = validator.New()

// SessionOverride customises sessions whose date matches
type SessionOverride struct {
	// AppliesTo returns true if this override applies to the given session
	AppliesTo func(session model.Session) bool

	// LeadStaffRequired overrides the lead quota (if set)
	LeadStaffRequired *int

	// SupportStaffRequired overrides the support quota (if set)
	SupportStaffRequired *int

	// Closed skips the session entirely
	Closed bool
}

// ValidateInput checks every record of an allocation config and returns a single
// *model.ValidationError listing all problems, or nil.
func ValidateInput(config AllocationConfig) error {
	verr := &model.ValidationError{}

	knownModules := make(map[string]bool, len(config.Modules))
	for _, module := range config.Modules {
		knownModules[module.ID] = true
	}
	checkModule := func(moduleID, context string) {
		if len(knownModules) > 0 && moduleID != "" && !knownModules[moduleID] {
			verr.Add("%s references unknown module %q", context, moduleID)
		}
	}

	facilitatorIDs := make(map[string]bool, len(config.Facilitators))
	for i, f := range config.Facilitators {
		context := fmt.Sprintf("facilitator[%d] %q", i, f.ID)
		addStructErrors(verr, context, validate.Struct(f))
		if f.ID != "" && facilitatorIDs[f.ID] {
			verr.Add("%s is duplicated", context)
		}
		facilitatorIDs[f.ID] = true

		if f.MaxHours > 0 && f.MinHours > f.MaxHours {
			verr.Add("%s has min_hours %d above max_hours %d", context, f.MinHours, f.MaxHours)
		}
		for moduleID, level := range f.Skills {
			if moduleID == "" {
				verr.Add("%s declares a skill with no module", context)
			}
			if !level.IsValid() {
				verr.Add("%s declares invalid skill level %d for module %q", context, int(level), moduleID)
			}
			checkModule(moduleID, context+" skill")
		}
		for j, u := range f.Unavailability {
			validateUnavailability(verr, fmt.Sprintf("%s unavailability[%d]", context, j), u)
		}
	}

	sessionIDs := make(map[string]bool, len(config.Sessions)+len(config.ContextSessions))
	for i, s := range config.Sessions {
		context := fmt.Sprintf("session[%d] %q", i, s.ID)
		validateSession(verr, context, s, sessionIDs)
		checkModule(s.ModuleID, context)
		if s.LeadStaffRequired+s.SupportStaffRequired == 0 && !isClosed(s, config.Overrides) {
			verr.Add("%s requires no staff", context)
		}
	}
	for i, s := range config.ContextSessions {
		validateSession(verr, fmt.Sprintf("context session[%d] %q", i, s.ID), s, sessionIDs)
	}

	for i, a := range config.ExistingAssignments {
		context := fmt.Sprintf("existing assignment[%d] %q", i, a.ID)
		addStructErrors(verr, context, validate.Struct(a))
		if a.SessionID != "" && !sessionIDs[a.SessionID] {
			verr.Add("%s references unknown session %q", context, a.SessionID)
		}
		if a.FacilitatorID != "" && !facilitatorIDs[a.FacilitatorID] {
			verr.Add("%s references unknown facilitator %q", context, a.FacilitatorID)
		}
	}

	for _, c := range config.Criteria {
		if c.Weight() < 0 {
			verr.Add("criterion %s has negative weight", c.Name())
		}
		if t := c.Threshold(); t < 0 || t > 1 {
			verr.Add("criterion %s has threshold %.2f outside [0,1]", c.Name(), t)
		}
	}
	if config.Selection.TopFraction < 0 || config.Selection.TopFraction > 1 {
		verr.Add("top fraction %.2f outside [0,1]", config.Selection.TopFraction)
	}

	return verr.ErrOrNil()
}

func validateSession(verr *model.ValidationError, context string, s model.Session, seen map[string]bool) {
	addStructErrors(verr, context, validate.Struct(s))
	if s.ID != "" && seen[s.ID] {
		verr.Add("%s is duplicated", context)
	}
	seen[s.ID] = true
}

// validateUnavailability checks what struct tags cannot. Tags are checked by the
// facilitator's dive.
func validateUnavailability(verr *model.ValidationError, context string, u model.Unavailability) {
	if !u.IsFullDay {
		if u.StartTime < 0 || u.EndTime > 24*time.Hour || u.EndTime <= u.StartTime {
			verr.Add("%s has malformed time range %s-%s", context, u.StartTime, u.EndTime)
		}
	}
}

// addStructErrors flattens validator output into problem strings
func addStructErrors(verr *model.ValidationError, context string, err error) {
	if err == nil {
		return
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		verr.Add("%s: %v", context, err)
		return
	}
	for _, fe := range fieldErrs {
		verr.Add("%s: field %s failed %q check", context, fe.Namespace(), fe.Tag())
	}
}

func isClosed(session model.Session, overrides []SessionOverride) bool {
	for _, o := range overrides {
		if o.Closed && o.AppliesTo(session) {
			return true
		}
	}
	return false
}

// InitRunState builds the run state snapshot for a validated config.
//
// Sessions are ordered by priority: longer duration first, then more required
// skills, then session ID. Existing assignments are preloaded into facilitator
// schedules, hour tallies and session role fills.
func InitRunState(config AllocationConfig) (*RunState, error) {
	state := &RunState{
		facilitatorsByID: make(map[string]*FacilitatorState, len(config.Facilitators)),
		sessionsByID:     make(map[string]*SessionState, len(config.Sessions)),
	}

	horizon := runHorizon(config)

	for _, f := range config.Facilitators {
		blocked, err := model.ExpandUnavailability(f.Unavailability, horizon)
		if err != nil {
			return nil, fmt.Errorf("failed to expand unavailability for facilitator %s: %w", f.ID, err)
		}
		fs := &FacilitatorState{
			Facilitator: f,
			Blocked:     blocked,
		}
		state.Facilitators = append(state.Facilitators, fs)
		state.facilitatorsByID[f.ID] = fs
	}
	sort.Slice(state.Facilitators, func(i, j int) bool {
		return state.Facilitators[i].ID() < state.Facilitators[j].ID()
	})

	for _, s := range config.Sessions {
		ss := &SessionState{Session: applyOverrides(s, config.Overrides)}
		ss.Closed = isClosed(s, config.Overrides)
		state.Sessions = append(state.Sessions, ss)
		state.sessionsByID[s.ID] = ss
	}
	SortSessionsByPriority(state.Sessions)
	for i, ss := range state.Sessions {
		ss.Index = i
	}

	windows := make(map[string]model.Session, len(config.Sessions)+len(config.ContextSessions))
	for _, s := range config.ContextSessions {
		windows[s.ID] = s
	}
	for _, s := range config.Sessions {
		windows[s.ID] = s
	}

	for _, a := range config.ExistingAssignments {
		session, ok := windows[a.SessionID]
		if !ok {
			return nil, fmt.Errorf("existing assignment %s references unknown session %s", a.ID, a.SessionID)
		}
		fs := state.facilitatorsByID[a.FacilitatorID]
		if fs == nil {
			return nil, fmt.Errorf("existing assignment %s references unknown facilitator %s", a.ID, a.FacilitatorID)
		}

		fs.Schedule = append(fs.Schedule, ScheduledSession{SessionID: session.ID, Window: session.Window()})
		fs.AssignedHours += session.Hours()

		if ss := state.sessionsByID[a.SessionID]; ss != nil {
			ss.addFacilitator(a.FacilitatorID, a.Role)
		}
		state.Preloaded = append(state.Preloaded, a)
	}

	return state, nil
}

// runHorizon is the latest session end in the config
func runHorizon(config AllocationConfig) time.Time {
	var horizon time.Time
	for _, sessions := range [][]model.Session{config.Sessions, config.ContextSessions} {
		for _, s := range sessions {
			if s.End.After(horizon) {
				horizon = s.End
			}
		}
	}
	return horizon
}

func applyOverrides(session model.Session, overrides []SessionOverride) model.Session {
	for _, o := range overrides {
		if !o.AppliesTo(session) {
			continue
		}
		if o.LeadStaffRequired != nil {
			session.LeadStaffRequired = *o.LeadStaffRequired
		}
		if o.SupportStaffRequired != nil {
			session.SupportStaffRequired = *o.SupportStaffRequired
		}
	}
	return session
}

// SortSessionsByPriority orders sessions longest first, then by number of required
// skills (descending), then by ID for reproducibility.
func SortSessionsByPriority(sessions []*SessionState) {
	sort.SliceStable(sessions, func(i, j int) bool {
		a, b := sessions[i].Session, sessions[j].Session
		if a.Duration() != b.Duration() {
			return a.Duration() > b.Duration()
		}
		if len(a.RequiredSkills) != len(b.RequiredSkills) {
			return len(a.RequiredSkills) > len(b.RequiredSkills)
		}
		return a.ID < b.ID
	})
}
