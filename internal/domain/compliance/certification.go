package compliance

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// Certification tracks the lifecycle of one required certification scheme
// (e.g. GlobalGAP, HACCP, organic) for a record.
type Certification struct {
	ID                uuid.UUID           `json:"id"`
	Scheme            string              `json:"scheme"`
	IssuingBody       string              `json:"issuing_body"`
	Status            CertificationStatus `json:"status"`
	Mandatory         bool                `json:"mandatory"`
	ValidityMonths    int                 `json:"validity_months"`
	EstimatedLeadDays int                 `json:"estimated_lead_days"`
	EstimatedCost     values.Money        `json:"estimated_cost"`
	ActualCost        values.Money        `json:"actual_cost"`
	CertificateNumber string              `json:"certificate_number,omitempty"`
	IssueDate         *time.Time          `json:"issue_date,omitempty"`
	ExpiryDate        *time.Time          `json:"expiry_date,omitempty"`
	RejectionReason   string              `json:"rejection_reason,omitempty"`
	AppliedAt         *time.Time          `json:"applied_at,omitempty"`
	LastTransitionAt  time.Time           `json:"last_transition_at"`
}

type CertificationStatus int

const (
	CertificationNotStarted CertificationStatus = iota
	CertificationApplied
	CertificationUnderReview
	CertificationApproved
	CertificationRejected
	CertificationExpired
)

func (s CertificationStatus) String() string {
	switch s {
	case CertificationNotStarted:
		return "not_started"
	case CertificationApplied:
		return "applied"
	case CertificationUnderReview:
		return "under_review"
	case CertificationApproved:
		return "approved"
	case CertificationRejected:
		return "rejected"
	case CertificationExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// certificationTransitions is the allowed forward transition table. Expiry is
// time-driven and never reached through a command; rejected certifications may
// be resubmitted.
var certificationTransitions = map[CertificationStatus][]CertificationStatus{
	CertificationNotStarted:  {CertificationApplied},
	CertificationApplied:     {CertificationUnderReview, CertificationRejected},
	CertificationUnderReview: {CertificationApproved, CertificationRejected},
	CertificationRejected:    {CertificationApplied},
	CertificationApproved:    {},
	CertificationExpired:     {},
}

func (s CertificationStatus) canTransitionTo(target CertificationStatus) bool {
	for _, next := range certificationTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition moves the certification to a new status, enforcing the state
// table and the approval invariant: certificate number, issue date and expiry
// date are set only on approval, with expiry = issue + validity months.
func (c *Certification) Transition(target CertificationStatus, certificateNumber string, now time.Time) error {
	if target == c.Status {
		// Idempotent re-application: a matching no-op never double-counts.
		if target == CertificationApproved && certificateNumber != "" && certificateNumber != c.CertificateNumber {
			return domainerrors.NewInvalidTransitionError("certification", c.Status.String(), target.String())
		}
		return nil
	}

	if !c.Status.canTransitionTo(target) {
		return domainerrors.NewInvalidTransitionError("certification", c.Status.String(), target.String())
	}

	switch target {
	case CertificationApplied:
		c.AppliedAt = &now
		c.RejectionReason = ""
	case CertificationApproved:
		if certificateNumber == "" {
			return domainerrors.NewInvalidTransitionError("certification", c.Status.String(), target.String()).
				WithDetails(map[string]interface{}{"reason": "certificate number is required for approval"})
		}
		issue := now
		expiry := issue.AddDate(0, c.ValidityMonths, 0)
		c.CertificateNumber = certificateNumber
		c.IssueDate = &issue
		c.ExpiryDate = &expiry
	}

	c.Status = target
	c.LastTransitionAt = now
	return nil
}

// Reject records a rejection with a reason.
func (c *Certification) Reject(reason string, now time.Time) error {
	if err := c.Transition(CertificationRejected, "", now); err != nil {
		return err
	}
	c.RejectionReason = reason
	return nil
}

// RefreshExpiry lazily expires an approved certification whose expiry date has
// passed. Returns true if the status changed.
func (c *Certification) RefreshExpiry(now time.Time) bool {
	if c.Status != CertificationApproved || c.ExpiryDate == nil {
		return false
	}
	if now.After(*c.ExpiryDate) {
		c.Status = CertificationExpired
		c.LastTransitionAt = now
		return true
	}
	return false
}

// IsApproved reports whether the certification currently counts as satisfied.
func (c *Certification) IsApproved() bool {
	return c.Status == CertificationApproved
}
