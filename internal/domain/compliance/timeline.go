package compliance

import (
	"time"

	"github.com/google/uuid"
)

// Timeline is the milestone graph for a record. Milestone dependencies form a
// DAG seeded at build time; the scheduler never deletes milestones, a missed
// milestone accrues delay records instead.
type Timeline struct {
	Milestones   []Milestone       `json:"milestones"`
	CriticalPath []uuid.UUID       `json:"critical_path"`
	Delays       []ComplianceDelay `json:"delays"`
	Completion   float64           `json:"overall_completion_percentage"`
}

// Milestone is one scheduled step toward export readiness.
type Milestone struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Kind         MilestoneKind   `json:"kind"`
	RefID        uuid.UUID       `json:"ref_id,omitempty"`
	DependsOn    []uuid.UUID     `json:"depends_on,omitempty"`
	DurationDays int             `json:"duration_days"`
	PlannedDate  time.Time       `json:"planned_date"`
	ActualDate   *time.Time      `json:"actual_date,omitempty"`
	Status       MilestoneStatus `json:"status"`
	Critical     bool            `json:"critical"`
}

// ComplianceDelay records a milestone slipping past its planned date.
type ComplianceDelay struct {
	MilestoneID uuid.UUID `json:"milestone_id"`
	Milestone   string    `json:"milestone"`
	PlannedDate time.Time `json:"planned_date"`
	DetectedAt  time.Time `json:"detected_at"`
	DelayDays   int       `json:"delay_days"`
}

type MilestoneKind int

const (
	MilestonePreparation MilestoneKind = iota
	MilestoneCertification
	MilestoneTesting
	MilestoneDocumentation
	MilestoneClearance
)

func (k MilestoneKind) String() string {
	switch k {
	case MilestonePreparation:
		return "preparation"
	case MilestoneCertification:
		return "certification"
	case MilestoneTesting:
		return "testing"
	case MilestoneDocumentation:
		return "documentation"
	case MilestoneClearance:
		return "clearance"
	default:
		return "unknown"
	}
}

type MilestoneStatus int

const (
	MilestoneUpcoming MilestoneStatus = iota
	MilestoneInProgress
	MilestoneCompleted
	MilestoneDelayed
	MilestoneAtRisk
)

func (s MilestoneStatus) String() string {
	switch s {
	case MilestoneUpcoming:
		return "upcoming"
	case MilestoneInProgress:
		return "in_progress"
	case MilestoneCompleted:
		return "completed"
	case MilestoneDelayed:
		return "delayed"
	case MilestoneAtRisk:
		return "at_risk"
	default:
		return "unknown"
	}
}

// Milestone returns a pointer to the milestone with the given id.
func (t *Timeline) Milestone(id uuid.UUID) *Milestone {
	for i := range t.Milestones {
		if t.Milestones[i].ID == id {
			return &t.Milestones[i]
		}
	}
	return nil
}

// HasDelay reports whether a delay has already been recorded for a milestone
// at a given planned date, so refresh passes stay idempotent.
func (t *Timeline) HasDelay(milestoneID uuid.UUID) bool {
	for _, d := range t.Delays {
		if d.MilestoneID == milestoneID {
			return true
		}
	}
	return false
}
