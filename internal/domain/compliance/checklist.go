package compliance

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
)

// ChecklistItem is the atomic unit of manual compliance work, generated
// deterministically at build time: one item per binding regulation requirement
// and one per certification. The item set never grows or shrinks afterwards.
type ChecklistItem struct {
	ID             uuid.UUID       `json:"id"`
	Description    string          `json:"description"`
	Source         ChecklistSource `json:"source"`
	SourceID       uuid.UUID       `json:"source_id"`
	Mandatory      bool            `json:"mandatory"`
	Status         ChecklistStatus `json:"status"`
	AssignedTo     string          `json:"assigned_to,omitempty"`
	VerifiedBy     string          `json:"verified_by,omitempty"`
	CompletionDate *time.Time      `json:"completion_date,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

type ChecklistSource int

const (
	ChecklistSourceRegulation ChecklistSource = iota
	ChecklistSourceCertification
	ChecklistSourceBuyer
)

func (s ChecklistSource) String() string {
	switch s {
	case ChecklistSourceRegulation:
		return "regulation"
	case ChecklistSourceCertification:
		return "certification"
	case ChecklistSourceBuyer:
		return "buyer"
	default:
		return "unknown"
	}
}

type ChecklistStatus int

const (
	ChecklistNotStarted ChecklistStatus = iota
	ChecklistInProgress
	ChecklistCompleted
	ChecklistVerified
	ChecklistFailed
)

func (s ChecklistStatus) String() string {
	switch s {
	case ChecklistNotStarted:
		return "not_started"
	case ChecklistInProgress:
		return "in_progress"
	case ChecklistCompleted:
		return "completed"
	case ChecklistVerified:
		return "verified"
	case ChecklistFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// checklistTransitions enforces forward-only movement through the work states.
var checklistTransitions = map[ChecklistStatus][]ChecklistStatus{
	ChecklistNotStarted: {ChecklistInProgress},
	ChecklistInProgress: {ChecklistCompleted, ChecklistFailed},
	ChecklistCompleted:  {ChecklistVerified},
	ChecklistVerified:   {},
	ChecklistFailed:     {},
}

// Transition advances the item, setting the completion date only on
// completed/verified. Verification requires a verifier identity different
// from the assignee.
func (i *ChecklistItem) Transition(target ChecklistStatus, actor string, now time.Time) error {
	if target == i.Status {
		return nil
	}

	allowed := false
	for _, next := range checklistTransitions[i.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return domainerrors.NewInvalidTransitionError("checklist", i.Status.String(), target.String())
	}

	switch target {
	case ChecklistInProgress:
		if actor != "" {
			i.AssignedTo = actor
		}
	case ChecklistCompleted:
		i.CompletionDate = &now
	case ChecklistVerified:
		if actor == "" || actor == i.AssignedTo {
			return domainerrors.NewInvalidTransitionError("checklist", i.Status.String(), target.String()).
				WithDetails(map[string]interface{}{"reason": "verifier must differ from assignee"})
		}
		i.VerifiedBy = actor
		if i.CompletionDate == nil {
			i.CompletionDate = &now
		}
	}

	i.Status = target
	return nil
}

// IsComplete reports whether the item counts toward the compliance score.
func (i *ChecklistItem) IsComplete() bool {
	return i.Status == ChecklistCompleted || i.Status == ChecklistVerified
}
