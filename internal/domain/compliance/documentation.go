package compliance

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// DocumentationRequirement is one export paper the batch needs, e.g. a
// phytosanitary certificate or certificate of origin.
type DocumentationRequirement struct {
	ID                             uuid.UUID           `json:"id"`
	Name                           string              `json:"name"`
	IssuedBy                       string              `json:"issued_by"`
	Status                         DocumentationStatus `json:"status"`
	RequiresThirdPartyVerification bool                `json:"requires_third_party_verification"`
	VerificationStatus             VerificationStatus  `json:"verification_status"`
	EstimatedPrepDays              int                 `json:"estimated_prep_days"`
	EstimatedCost                  values.Money        `json:"estimated_cost"`
	ActualCost                     values.Money        `json:"actual_cost"`
	ApprovedAt                     *time.Time          `json:"approved_at,omitempty"`
	UpdatedAt                      time.Time           `json:"updated_at"`
}

type DocumentationStatus int

const (
	DocumentationNotStarted DocumentationStatus = iota
	DocumentationDraft
	DocumentationUnderReview
	DocumentationSubmitted
	DocumentationApproved
	DocumentationRejected
)

func (s DocumentationStatus) String() string {
	switch s {
	case DocumentationNotStarted:
		return "not_started"
	case DocumentationDraft:
		return "draft"
	case DocumentationUnderReview:
		return "under_review"
	case DocumentationSubmitted:
		return "submitted"
	case DocumentationApproved:
		return "approved"
	case DocumentationRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type VerificationStatus int

const (
	VerificationNone VerificationStatus = iota
	VerificationPending
	VerificationVerified
)

func (s VerificationStatus) String() string {
	switch s {
	case VerificationNone:
		return "none"
	case VerificationPending:
		return "pending"
	case VerificationVerified:
		return "verified"
	default:
		return "unknown"
	}
}

var documentationTransitions = map[DocumentationStatus][]DocumentationStatus{
	DocumentationNotStarted:  {DocumentationDraft},
	DocumentationDraft:       {DocumentationUnderReview, DocumentationSubmitted},
	DocumentationUnderReview: {DocumentationApproved, DocumentationRejected, DocumentationSubmitted},
	DocumentationSubmitted:   {DocumentationUnderReview, DocumentationApproved, DocumentationRejected},
	DocumentationRejected:    {DocumentationDraft},
	DocumentationApproved:    {},
}

// Transition moves the document through its lifecycle. Approval requires that
// the document either needs no third-party verification or has already been
// verified; verification itself only sticks on approved documents.
func (d *DocumentationRequirement) Transition(target DocumentationStatus, now time.Time) error {
	if target == d.Status {
		return nil
	}

	allowed := false
	for _, next := range documentationTransitions[d.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return domainerrors.NewInvalidTransitionError("documentation", d.Status.String(), target.String())
	}

	if target == DocumentationApproved {
		if d.RequiresThirdPartyVerification && d.VerificationStatus != VerificationVerified {
			return domainerrors.NewInvalidTransitionError("documentation", d.Status.String(), target.String()).
				WithDetails(map[string]interface{}{"reason": "third-party verification required before approval"})
		}
		d.ApprovedAt = &now
	}

	d.Status = target
	d.UpdatedAt = now
	return nil
}

// MarkVerified records third-party verification. Verification only applies to
// a document that has reached review or later; drafts and rejected documents
// cannot be verified.
func (d *DocumentationRequirement) MarkVerified(now time.Time) error {
	switch d.Status {
	case DocumentationUnderReview, DocumentationSubmitted, DocumentationApproved:
		d.VerificationStatus = VerificationVerified
		d.UpdatedAt = now
		return nil
	default:
		return domainerrors.NewInvalidTransitionError("documentation", d.Status.String(), "verified")
	}
}

// IsApproved reports whether the document counts as satisfied, honoring the
// invariant that verified implies approved at rest.
func (d *DocumentationRequirement) IsApproved() bool {
	return d.Status == DocumentationApproved
}
