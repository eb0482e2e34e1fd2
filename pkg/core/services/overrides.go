package services

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/facilitator-allocator/internal/config"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

const dateLayout = "2006-01-02"

// convertSessionOverrides converts config overrides to allocator overrides.
// Each rrule is expanded once over the sessions' date range (in loc) and sessions
// match on their local calendar date.
func convertSessionOverrides(configOverrides []config.SessionOverride, sessions []model.Session, loc *time.Location, logger *zap.Logger) ([]allocator.SessionOverride, error) {
	result := make([]allocator.SessionOverride, 0, len(configOverrides))
	if len(sessions) == 0 {
		return result, nil
	}

	first, last := sessions[0].Start, sessions[0].Start
	for _, s := range sessions[1:] {
		if s.Start.Before(first) {
			first = s.Start
		}
		if s.Start.After(last) {
			last = s.Start
		}
	}
	y, m, d := first.In(loc).Date()
	searchStart := time.Date(y, m, d-7, 0, 0, 0, 0, loc)
	searchEnd := last.In(loc).AddDate(0, 0, 7)

	for i, override := range configOverrides {
		rule, err := rrule.StrToRRule(override.RRule)
		if err != nil {
			return nil, fmt.Errorf("failed to parse rrule for override %d: %w", i, err)
		}
		rule.DTStart(searchStart)

		dates := map[string]bool{}
		for _, occurrence := range rule.Between(searchStart, searchEnd, true) {
			dates[occurrence.In(loc).Format(dateLayout)] = true
		}

		result = append(result, allocator.SessionOverride{
			AppliesTo: func(session model.Session) bool {
				return dates[session.Start.In(loc).Format(dateLayout)]
			},
			LeadStaffRequired:    override.LeadStaffRequired,
			SupportStaffRequired: override.SupportStaffRequired,
			Closed:               override.Closed,
		})

		logger.Debug("Converted override",
			zap.Int("index", i),
			zap.String("rrule", override.RRule),
			zap.Int("matching_dates", len(dates)),
			zap.Bool("closed", override.Closed))
	}

	return result, nil
}
