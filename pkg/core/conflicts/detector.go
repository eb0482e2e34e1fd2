// Package conflicts finds double-bookings and unavailability violations in a
// set of committed assignments. It never modifies the assignments it inspects.
package conflicts

import (
	"fmt"
	"sort"
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Kind classifies a detected conflict
type Kind string

const (
	KindScheduleOverlap        Kind = "schedule_overlap"
	KindUnavailabilityConflict Kind = "unavailability_conflict"
)

// Conflict is a single consistency violation
type Conflict struct {
	Kind          Kind
	FacilitatorID string

	// SessionIDs holds both sessions for an overlap, or the one session for an unavailability conflict
	SessionIDs []string

	// AssignmentIDs mirrors SessionIDs
	AssignmentIDs []string

	// UnavailabilityID is set for unavailability conflicts
	UnavailabilityID string

	// Window is the offending session window (the later session for overlaps)
	Window      model.TimeWindow
	Description string
}

// Involves returns true if the conflict names the given assignment
func (c *Conflict) Involves(assignmentID string) bool {
	for _, id := range c.AssignmentIDs {
		if id == assignmentID {
			return true
		}
	}
	return false
}

// Detector answers conflict queries over a fixed set of sessions and facilitators
type Detector struct {
	sessions       map[string]*model.Session
	unavailability map[string][]model.BlockedDates
}

// NewDetector prepares a detector. Recurring unavailability is expanded up to the
// end of the latest session.
func NewDetector(sessions []model.Session, facilitators []model.Facilitator) (*Detector, error) {
	d := &Detector{
		sessions:       make(map[string]*model.Session, len(sessions)),
		unavailability: make(map[string][]model.BlockedDates, len(facilitators)),
	}

	var horizon time.Time
	for i := range sessions {
		session := &sessions[i]
		d.sessions[session.ID] = session
		if session.End.After(horizon) {
			horizon = session.End
		}
	}

	for _, facilitator := range facilitators {
		blocked, err := model.ExpandUnavailability(facilitator.Unavailability, horizon)
		if err != nil {
			return nil, fmt.Errorf("failed to expand unavailability for facilitator %s: %w", facilitator.ID, err)
		}
		d.unavailability[facilitator.ID] = blocked
	}

	return d, nil
}

// placed is an assignment resolved against its session
type placed struct {
	assignment model.Assignment
	session    *model.Session
}

// group resolves assignments to sessions and groups them by facilitator.
// Assignments that reference an unknown session are skipped.
func (d *Detector) group(assignments []model.Assignment) (map[string][]placed, []string) {
	byFacilitator := make(map[string][]placed)
	for _, a := range assignments {
		session, ok := d.sessions[a.SessionID]
		if !ok {
			continue
		}
		byFacilitator[a.FacilitatorID] = append(byFacilitator[a.FacilitatorID], placed{assignment: a, session: session})
	}

	facilitatorIDs := make([]string, 0, len(byFacilitator))
	for id := range byFacilitator {
		facilitatorIDs = append(facilitatorIDs, id)
	}
	sort.Strings(facilitatorIDs)

	return byFacilitator, facilitatorIDs
}

// DoubleBookings flags every pair of assignments held by one facilitator whose
// session windows overlap. Each facilitator's assignments are sorted by start
// time and each one is checked against every assignment starting before it, so
// a long session overlapping several later ones yields one conflict per pair.
func (d *Detector) DoubleBookings(assignments []model.Assignment) []Conflict {
	byFacilitator, facilitatorIDs := d.group(assignments)

	var conflicts []Conflict
	for _, facilitatorID := range facilitatorIDs {
		schedule := byFacilitator[facilitatorID]
		sort.SliceStable(schedule, func(i, j int) bool {
			si, sj := schedule[i].session, schedule[j].session
			if !si.Start.Equal(sj.Start) {
				return si.Start.Before(sj.Start)
			}
			if si.ID != sj.ID {
				return si.ID < sj.ID
			}
			return schedule[i].assignment.ID < schedule[j].assignment.ID
		})

		for i := 1; i < len(schedule); i++ {
			current := schedule[i]
			for j := 0; j < i; j++ {
				earlier := schedule[j]
				if earlier.session.End.After(current.session.Start) {
					conflicts = append(conflicts, overlapConflict(facilitatorID, earlier, current))
				}
			}
		}
	}

	return conflicts
}

func overlapConflict(facilitatorID string, earlier, later placed) Conflict {
	return Conflict{
		Kind:          KindScheduleOverlap,
		FacilitatorID: facilitatorID,
		SessionIDs:    []string{earlier.session.ID, later.session.ID},
		AssignmentIDs: []string{earlier.assignment.ID, later.assignment.ID},
		Window:        later.session.Window(),
		Description: fmt.Sprintf("facilitator %s is booked on session %s (%s-%s) and session %s (%s-%s)",
			facilitatorID,
			earlier.session.ID, earlier.session.Start.Format(time.DateTime), earlier.session.End.Format(time.TimeOnly),
			later.session.ID, later.session.Start.Format(time.DateTime), later.session.End.Format(time.TimeOnly)),
	}
}

// UnavailabilityViolations flags every assignment whose session intersects an
// unavailability record of its facilitator.
func (d *Detector) UnavailabilityViolations(assignments []model.Assignment) []Conflict {
	byFacilitator, facilitatorIDs := d.group(assignments)

	var conflicts []Conflict
	for _, facilitatorID := range facilitatorIDs {
		blocked := d.unavailability[facilitatorID]
		if len(blocked) == 0 {
			continue
		}

		for _, p := range byFacilitator[facilitatorID] {
			for i := range blocked {
				if !blocked[i].Blocks(p.session) {
					continue
				}
				record := blocked[i].Unavailability
				conflicts = append(conflicts, Conflict{
					Kind:             KindUnavailabilityConflict,
					FacilitatorID:    facilitatorID,
					SessionIDs:       []string{p.session.ID},
					AssignmentIDs:    []string{p.assignment.ID},
					UnavailabilityID: record.ID,
					Window:           p.session.Window(),
					Description: fmt.Sprintf("facilitator %s is unavailable (%s) during session %s at %s",
						facilitatorID, describeUnavailability(record), p.session.ID, p.session.Start.Format(time.DateTime)),
				})
			}
		}
	}

	return conflicts
}

func describeUnavailability(u model.Unavailability) string {
	if u.IsFullDay {
		return "full day " + u.Date.Format(time.DateOnly)
	}
	midnight := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	return fmt.Sprintf("%s %s-%s", u.Date.Format(time.DateOnly),
		midnight.Add(u.StartTime).Format("15:04"), midnight.Add(u.EndTime).Format("15:04"))
}

// Detect runs both checks: overlaps first, then unavailability violations
func (d *Detector) Detect(assignments []model.Assignment) []Conflict {
	conflicts := d.DoubleBookings(assignments)
	return append(conflicts, d.UnavailabilityViolations(assignments)...)
}

// Session returns a known session by ID
func (d *Detector) Session(id string) (*model.Session, bool) {
	session, ok := d.sessions[id]
	return session, ok
}
