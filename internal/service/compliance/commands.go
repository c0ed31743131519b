package compliance

import (
	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// UpdateRequest carries the per-ledger commands of one atomic update. Each
// command names its target item and required fields explicitly; invalid
// combinations are unrepresentable instead of caught at runtime.
type UpdateRequest struct {
	ChecklistUpdates     []ChecklistUpdate      `json:"checklist_updates,omitempty"`
	CertificationUpdates []CertificationUpdate  `json:"certification_updates,omitempty"`
	TestStageUpdates     []TestStageUpdate      `json:"test_stage_updates,omitempty"`
	TestResults          []TestResultSubmission `json:"test_results,omitempty"`
	DocumentUpdates      []DocumentUpdate       `json:"document_updates,omitempty"`
}

// IsEmpty reports whether the request carries no commands at all.
func (r UpdateRequest) IsEmpty() bool {
	return len(r.ChecklistUpdates) == 0 &&
		len(r.CertificationUpdates) == 0 &&
		len(r.TestStageUpdates) == 0 &&
		len(r.TestResults) == 0 &&
		len(r.DocumentUpdates) == 0
}

// ChecklistUpdate advances one checklist item. Actor is the person doing the
// work; for a transition to verified it must differ from the assignee.
type ChecklistUpdate struct {
	ItemID uuid.UUID                  `json:"item_id"`
	Status compliance.ChecklistStatus `json:"status"`
	Actor  string                     `json:"actor,omitempty"`
	Notes  string                     `json:"notes,omitempty"`
}

// CertificationUpdate moves one certification through its lifecycle. A
// transition to approved requires a certificate number; a rejection may carry
// a reason. ActualCost, when set, records the real spend on the item.
type CertificationUpdate struct {
	CertificationID   uuid.UUID                      `json:"certification_id"`
	Status            compliance.CertificationStatus `json:"status"`
	CertificateNumber string                         `json:"certificate_number,omitempty"`
	Reason            string                         `json:"reason,omitempty"`
	ActualCost        *values.Money                  `json:"actual_cost,omitempty"`
}

// TestStageUpdate advances a testing requirement through its pre-result
// stages (scheduled, sampling, testing). Completion and failure are reached
// only through result submission.
type TestStageUpdate struct {
	RequirementID uuid.UUID                `json:"requirement_id"`
	Stage         compliance.TestingStatus `json:"stage"`
}

// TestResultSubmission records one measured parameter value for a testing
// requirement. Validation against the regulatory limit happens at insertion.
type TestResultSubmission struct {
	RequirementID uuid.UUID     `json:"requirement_id"`
	Parameter     string        `json:"parameter"`
	Value         float64       `json:"value"`
	ReportedBy    string        `json:"reported_by,omitempty"`
	ActualCost    *values.Money `json:"actual_cost,omitempty"`
}

// DocumentUpdate moves one documentation requirement. Verify records
// third-party verification; it may be combined with a status transition, in
// which case verification is applied first.
type DocumentUpdate struct {
	DocumentID uuid.UUID                       `json:"document_id"`
	Status     *compliance.DocumentationStatus `json:"status,omitempty"`
	Verify     bool                            `json:"verify,omitempty"`
	ActualCost *values.Money                   `json:"actual_cost,omitempty"`
}
