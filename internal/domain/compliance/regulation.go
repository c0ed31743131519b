package compliance

import "github.com/google/uuid"

// Regulation is a market rule attached to a record at build time. Regulations
// are immutable once attached; satisfaction is tracked via checklist items
// that reference their requirements.
type Regulation struct {
	ID           uuid.UUID               `json:"id"`
	Code         string                  `json:"code"`
	Title        string                  `json:"title"`
	Authority    string                  `json:"authority"`
	Market       string                  `json:"market"`
	Requirements []RegulationRequirement `json:"requirements"`
}

// RegulationRequirement is a single obligation within a regulation.
type RegulationRequirement struct {
	ID          uuid.UUID        `json:"id"`
	Description string           `json:"description"`
	Enforcement EnforcementLevel `json:"enforcement"`
}

type EnforcementLevel int

const (
	EnforcementAdvisory EnforcementLevel = iota
	EnforcementMandatory
	EnforcementCritical
)

func (l EnforcementLevel) String() string {
	switch l {
	case EnforcementAdvisory:
		return "advisory"
	case EnforcementMandatory:
		return "mandatory"
	case EnforcementCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// IsBinding reports whether a requirement at this level must be satisfied
// before export.
func (l EnforcementLevel) IsBinding() bool {
	switch l {
	case EnforcementMandatory, EnforcementCritical:
		return true
	case EnforcementAdvisory:
		return false
	default:
		return false
	}
}

// BindingRequirements returns the mandatory and critical requirements.
func (r Regulation) BindingRequirements() []RegulationRequirement {
	var binding []RegulationRequirement
	for _, req := range r.Requirements {
		if req.Enforcement.IsBinding() {
			binding = append(binding, req)
		}
	}
	return binding
}
