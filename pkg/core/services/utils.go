package services

import (
	"time"

	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
	"github.com/jakechorley/facilitator-allocator/pkg/db"
)

// localizeSessions returns copies of sessions with times in loc
func localizeSessions(sessions []model.Session, loc *time.Location) []model.Session {
	result := make([]model.Session, len(sessions))
	for i, s := range sessions {
		s.Start = s.Start.In(loc)
		s.End = s.End.In(loc)
		result[i] = s
	}
	return result
}

// assignmentsOf strips store metadata from assignment records
func assignmentsOf(records []db.AssignmentRecord) []model.Assignment {
	result := make([]model.Assignment, len(records))
	for i, r := range records {
		result[i] = r.Assignment
	}
	return result
}

// facilitatorsByID indexes facilitators for lookup
func facilitatorsByID(facilitators []model.Facilitator) map[string]model.Facilitator {
	byID := make(map[string]model.Facilitator, len(facilitators))
	for _, f := range facilitators {
		byID[f.ID] = f
	}
	return byID
}
