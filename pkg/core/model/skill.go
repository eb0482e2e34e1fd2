package model

import (
	"fmt"
	"strings"
)

// SkillLevel is the ordered tier a facilitator declares for a module.
// The zero value is the lowest tier.
type SkillLevel int

const (
	SkillNoInterest SkillLevel = iota
	SkillHasSomeSkill
	SkillHasRunBefore
	SkillProficient
)

// skillLevels maps each tier to its canonical name and its numeric scale.
var skillLevels = [...]struct {
	name  string
	scale float64
}{
	SkillNoInterest:   {"no_interest", 0.0},
	SkillHasSomeSkill: {"has_some_skill", 0.5},
	SkillHasRunBefore: {"has_run_before", 0.8},
	SkillProficient:   {"proficient", 1.0},
}

// uiSkillLevels is the vocabulary used by the facilitator-facing forms.
// It is positional: each UI term names the tier at the same rank.
var uiSkillLevels = map[string]SkillLevel{
	"uninterested": SkillNoInterest,
	"interested":   SkillHasSomeSkill,
	"proficient":   SkillHasRunBefore,
	"leader":       SkillProficient,
}

// AllSkillLevels lists every tier from lowest to highest.
func AllSkillLevels() []SkillLevel {
	return []SkillLevel{SkillNoInterest, SkillHasSomeSkill, SkillHasRunBefore, SkillProficient}
}

func (l SkillLevel) IsValid() bool {
	return l >= SkillNoInterest && l <= SkillProficient
}

func (l SkillLevel) String() string {
	if !l.IsValid() {
		return fmt.Sprintf("SkillLevel(%d)", int(l))
	}
	return skillLevels[l].name
}

// Scale returns the fixed numeric value of the tier in [0,1].
func (l SkillLevel) Scale() float64 {
	if !l.IsValid() {
		return 0
	}
	return skillLevels[l].scale
}

// ParseSkillLevel parses a canonical tier name. The unambiguous UI terms
// (uninterested, interested, leader) are accepted as synonyms; "proficient"
// always resolves to the canonical tier.
func ParseSkillLevel(s string) (SkillLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, level := range AllSkillLevels() {
		if skillLevels[level].name == normalized {
			return level, nil
		}
	}
	if normalized != "proficient" {
		if level, ok := uiSkillLevels[normalized]; ok {
			return level, nil
		}
	}
	return 0, fmt.Errorf("unknown skill level %q", s)
}

// ParseUISkillLevel parses a term from the UI vocabulary.
func ParseUISkillLevel(s string) (SkillLevel, error) {
	level, ok := uiSkillLevels[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown UI skill level %q", s)
	}
	return level, nil
}

// Role is a staffing role on a session
type Role string

const (
	RoleLead    Role = "lead"
	RoleSupport Role = "support"
)

// Roles lists the staffing roles in the order they are filled.
var Roles = []Role{RoleLead, RoleSupport}

func (r Role) IsValid() bool {
	return r == RoleLead || r == RoleSupport
}

// TimeOfDay buckets a clock time for preference matching
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
)

func (t TimeOfDay) IsValid() bool {
	return t == TimeOfDayMorning || t == TimeOfDayAfternoon || t == TimeOfDayEvening
}
