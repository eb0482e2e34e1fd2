package e2e

import (
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator"
	"github.com/jakechorley/facilitator-allocator/pkg/core/allocator/criteria"
	"github.com/jakechorley/facilitator-allocator/pkg/core/model"
)

// Type aliases to avoid prefixing everything with allocator.
type (
	AllocationConfig = allocator.AllocationConfig
	Criterion        = allocator.Criterion
	Facilitator      = model.Facilitator
	Session          = model.Session
	Unavailability   = model.Unavailability
	SkillLevel       = model.SkillLevel
)

// Function aliases
var (
	Allocate      = allocator.Allocate
	DefaultPolicy = criteria.DefaultPolicy
)
