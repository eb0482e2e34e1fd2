package model

import "time"

// TimeWindow is a half-open interval [Start, End)
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open windows intersect.
// Windows that only touch at an endpoint do not overlap.
func (w TimeWindow) Overlaps(other TimeWindow) bool {
	return w.Start.Before(other.End) && w.End.After(other.Start)
}

// IsValid returns true if End is strictly after Start
func (w TimeWindow) IsValid() bool {
	return w.End.After(w.Start)
}

// TimeOfDayOf buckets the clock time of t: before 12:00 is morning,
// before 17:00 is afternoon, anything later is evening.
func TimeOfDayOf(t time.Time) TimeOfDay {
	switch hour := t.Hour(); {
	case hour < 12:
		return TimeOfDayMorning
	case hour < 17:
		return TimeOfDayAfternoon
	default:
		return TimeOfDayEvening
	}
}

// CivilDate truncates t to midnight UTC of its calendar date in t's own location
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
