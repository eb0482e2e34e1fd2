package model

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Frequency is the repeat cadence of a recurring unavailability
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) rrule() (rrule.Frequency, error) {
	switch f {
	case FrequencyDaily:
		return rrule.DAILY, nil
	case FrequencyWeekly:
		return rrule.WEEKLY, nil
	case FrequencyMonthly:
		return rrule.MONTHLY, nil
	}
	return 0, fmt.Errorf("unknown recurrence frequency %q", f)
}

// Recurrence repeats an unavailability record on further dates
type Recurrence struct {
	Frequency Frequency `validate:"required,oneof=daily weekly monthly"`

	// Interval between occurrences in units of Frequency (0 is treated as 1)
	Interval int `validate:"min=0"`

	// Until is the last date the recurrence may fall on. Zero means open-ended.
	Until time.Time
}

// Unavailability is a facilitator-declared exclusion window
type Unavailability struct {
	ID            string
	FacilitatorID string

	// UnitID scopes the record to one unit. Empty applies to every unit.
	UnitID string

	// Date is the calendar date of the first occurrence; the clock part is ignored
	Date      time.Time `validate:"required"`
	IsFullDay bool

	// StartTime and EndTime are offsets from midnight, used when IsFullDay is false
	StartTime time.Duration
	EndTime   time.Duration

	Recurrence *Recurrence `validate:"omitempty"`
	Reason     string
}

// Occurrences returns the calendar dates (as UTC midnights) on which the record
// applies, from Date up to and including until.
func (u *Unavailability) Occurrences(until time.Time) ([]time.Time, error) {
	start := CivilDate(u.Date)
	if u.Recurrence == nil {
		return []time.Time{start}, nil
	}

	limit := CivilDate(until)
	if !u.Recurrence.Until.IsZero() && CivilDate(u.Recurrence.Until).Before(limit) {
		limit = CivilDate(u.Recurrence.Until)
	}
	if limit.Before(start) {
		return []time.Time{start}, nil
	}

	freq, err := u.Recurrence.Frequency.rrule()
	if err != nil {
		return nil, err
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     freq,
		Interval: max(u.Recurrence.Interval, 1),
		Dtstart:  start,
		Until:    limit,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid recurrence for unavailability %s: %w", u.ID, err)
	}

	return rule.All(), nil
}

// BlockedWindow returns the interval blocked on the given calendar date, in loc
func (u *Unavailability) BlockedWindow(date time.Time, loc *time.Location) TimeWindow {
	y, m, d := date.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if u.IsFullDay {
		return TimeWindow{Start: midnight, End: midnight.AddDate(0, 0, 1)}
	}
	return TimeWindow{Start: midnight.Add(u.StartTime), End: midnight.Add(u.EndTime)}
}

// AppliesToUnit returns true if the record is unscoped or scoped to unitID
func (u *Unavailability) AppliesToUnit(unitID string) bool {
	return u.UnitID == "" || u.UnitID == unitID
}

// BlockedDates is an unavailability record with its recurrence expanded
type BlockedDates struct {
	Unavailability Unavailability
	Dates          []time.Time
}

// Blocks reports whether any occurrence intersects the session. Full-day
// occurrences block the whole calendar date in the session's location;
// partial-day occurrences block only on half-open overlap.
func (b *BlockedDates) Blocks(session *Session) bool {
	if !b.Unavailability.AppliesToUnit(session.UnitID) {
		return false
	}
	window := session.Window()
	loc := session.Start.Location()
	for _, date := range b.Dates {
		if b.Unavailability.BlockedWindow(date, loc).Overlaps(window) {
			return true
		}
	}
	return false
}

// ExpandUnavailability expands every record up to until
func ExpandUnavailability(records []Unavailability, until time.Time) ([]BlockedDates, error) {
	expanded := make([]BlockedDates, 0, len(records))
	for _, record := range records {
		dates, err := record.Occurrences(until)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, BlockedDates{Unavailability: record, Dates: dates})
	}
	return expanded, nil
}
