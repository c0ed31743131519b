package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
	service "github.com/harvestlane/agri-export-compliance-backend/internal/service/compliance"
)

// createRecordRequest is the intake payload for initializing a record.
type createRecordRequest struct {
	Batch struct {
		ID         string  `json:"id" validate:"required"`
		CropType   string  `json:"crop_type" validate:"required,oneof=cashew groundnut sesame cocoa coffee ginger"`
		QuantityKg float64 `json:"quantity_kg" validate:"required,gt=0"`
		Organic    bool    `json:"organic"`
		FarmerID   string  `json:"farmer_id,omitempty"`
		Region     string  `json:"region,omitempty"`
	} `json:"batch" validate:"required"`
	Market       string   `json:"market" validate:"required,oneof=EU US UK UAE JP"`
	BuyerID      string   `json:"buyer_id" validate:"required"`
	Requirements []string `json:"requirements,omitempty" validate:"dive,min=1"`
}

func (r createRecordRequest) toService() service.InitializeRequest {
	return service.InitializeRequest{
		Batch: compliance.Batch{
			ID:         r.Batch.ID,
			CropType:   r.Batch.CropType,
			QuantityKg: r.Batch.QuantityKg,
			Organic:    r.Batch.Organic,
			FarmerID:   r.Batch.FarmerID,
			Region:     r.Batch.Region,
		},
		Market:       r.Market,
		BuyerID:      r.BuyerID,
		Requirements: r.Requirements,
	}
}

// updateRecordRequest carries the mutation commands of one update call.
// Statuses arrive as the wire names of the lifecycle stages.
type updateRecordRequest struct {
	ChecklistUpdates []struct {
		ItemID uuid.UUID `json:"item_id" validate:"required"`
		Status string    `json:"status" validate:"required,oneof=not_started in_progress completed verified failed"`
		Actor  string    `json:"actor,omitempty"`
		Notes  string    `json:"notes,omitempty"`
	} `json:"checklist_updates,omitempty" validate:"dive"`
	CertificationUpdates []struct {
		CertificationID   uuid.UUID     `json:"certification_id" validate:"required"`
		Status            string        `json:"status" validate:"required,oneof=not_started applied under_review approved rejected expired"`
		CertificateNumber string        `json:"certificate_number,omitempty"`
		Reason            string        `json:"reason,omitempty"`
		ActualCost        *values.Money `json:"actual_cost,omitempty"`
	} `json:"certification_updates,omitempty" validate:"dive"`
	TestStageUpdates []struct {
		RequirementID uuid.UUID `json:"requirement_id" validate:"required"`
		Stage         string    `json:"stage" validate:"required,oneof=scheduled sampling testing"`
	} `json:"test_stage_updates,omitempty" validate:"dive"`
	TestResults []struct {
		RequirementID uuid.UUID     `json:"requirement_id" validate:"required"`
		Parameter     string        `json:"parameter" validate:"required"`
		Value         float64       `json:"value"`
		ReportedBy    string        `json:"reported_by,omitempty"`
		ActualCost    *values.Money `json:"actual_cost,omitempty"`
	} `json:"test_results,omitempty" validate:"dive"`
	DocumentUpdates []struct {
		DocumentID uuid.UUID     `json:"document_id" validate:"required"`
		Status     *string       `json:"status,omitempty" validate:"omitempty,oneof=not_started draft under_review submitted approved rejected"`
		Verify     bool          `json:"verify,omitempty"`
		ActualCost *values.Money `json:"actual_cost,omitempty"`
	} `json:"document_updates,omitempty" validate:"dive"`
}

func (r updateRecordRequest) toService() service.UpdateRequest {
	var out service.UpdateRequest
	for _, u := range r.ChecklistUpdates {
		out.ChecklistUpdates = append(out.ChecklistUpdates, service.ChecklistUpdate{
			ItemID: u.ItemID,
			Status: checklistStatusFromString(u.Status),
			Actor:  u.Actor,
			Notes:  u.Notes,
		})
	}
	for _, u := range r.CertificationUpdates {
		out.CertificationUpdates = append(out.CertificationUpdates, service.CertificationUpdate{
			CertificationID:   u.CertificationID,
			Status:            certificationStatusFromString(u.Status),
			CertificateNumber: u.CertificateNumber,
			Reason:            u.Reason,
			ActualCost:        u.ActualCost,
		})
	}
	for _, u := range r.TestStageUpdates {
		out.TestStageUpdates = append(out.TestStageUpdates, service.TestStageUpdate{
			RequirementID: u.RequirementID,
			Stage:         testingStatusFromString(u.Stage),
		})
	}
	for _, u := range r.TestResults {
		out.TestResults = append(out.TestResults, service.TestResultSubmission{
			RequirementID: u.RequirementID,
			Parameter:     u.Parameter,
			Value:         u.Value,
			ReportedBy:    u.ReportedBy,
			ActualCost:    u.ActualCost,
		})
	}
	for _, u := range r.DocumentUpdates {
		du := service.DocumentUpdate{
			DocumentID: u.DocumentID,
			Verify:     u.Verify,
			ActualCost: u.ActualCost,
		}
		if u.Status != nil {
			status := documentationStatusFromString(*u.Status)
			du.Status = &status
		}
		out.DocumentUpdates = append(out.DocumentUpdates, du)
	}
	return out
}

// recordResponse is the wire form of a record. Lifecycle stages render as
// their wire names; ledger items carry the ids update calls target.
type recordResponse struct {
	ID      uuid.UUID        `json:"id"`
	Batch   compliance.Batch `json:"batch"`
	Market  string           `json:"market"`
	BuyerID string           `json:"buyer_id"`
	Status  string           `json:"status"`
	Score   int              `json:"score"`

	Certifications      []certificationResponse `json:"certifications"`
	TestingRequirements []testingResponse       `json:"testing_requirements"`
	Documentation       []documentResponse      `json:"documentation"`
	Checklist           []checklistResponse     `json:"checklist"`

	Risk     riskResponse             `json:"risk"`
	Timeline timelineResponse         `json:"timeline"`
	Costs    compliance.CostBreakdown `json:"costs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type certificationResponse struct {
	ID                uuid.UUID    `json:"id"`
	Scheme            string       `json:"scheme"`
	IssuingBody       string       `json:"issuing_body"`
	Status            string       `json:"status"`
	Mandatory         bool         `json:"mandatory"`
	CertificateNumber string       `json:"certificate_number,omitempty"`
	ExpiryDate        *time.Time   `json:"expiry_date,omitempty"`
	EstimatedCost     values.Money `json:"estimated_cost"`
	ActualCost        values.Money `json:"actual_cost"`
}

type testingResponse struct {
	ID            uuid.UUID                  `json:"id"`
	Analysis      string                     `json:"analysis"`
	LabName       string                     `json:"lab_name"`
	Status        string                     `json:"status"`
	ComplianceMet bool                       `json:"compliance_met"`
	Parameters    []compliance.TestParameter `json:"parameters"`
	Results       []compliance.TestResult    `json:"results"`
}

type documentResponse struct {
	ID                             uuid.UUID `json:"id"`
	Name                           string    `json:"name"`
	IssuedBy                       string    `json:"issued_by"`
	Status                         string    `json:"status"`
	VerificationStatus             string    `json:"verification_status"`
	RequiresThirdPartyVerification bool      `json:"requires_third_party_verification"`
}

type checklistResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Mandatory   bool      `json:"mandatory"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assigned_to,omitempty"`
}

type riskResponse struct {
	OverallLevel string               `json:"overall_level"`
	Factors      []riskFactorResponse `json:"factors"`
	AssessedAt   time.Time            `json:"assessed_at"`
}

type riskFactorResponse struct {
	Name        string   `json:"name"`
	Probability float64  `json:"probability"`
	Impact      float64  `json:"impact"`
	Score       float64  `json:"score"`
	Level       string   `json:"level"`
	Mitigations []string `json:"mitigations,omitempty"`
}

type timelineResponse struct {
	Milestones   []milestoneResponse `json:"milestones"`
	CriticalPath []uuid.UUID         `json:"critical_path"`
	DelayCount   int                 `json:"delay_count"`
	Completion   float64             `json:"completion_percentage"`
}

type milestoneResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Kind        string     `json:"kind"`
	Status      string     `json:"status"`
	Critical    bool       `json:"critical"`
	PlannedDate time.Time  `json:"planned_date"`
	ActualDate  *time.Time `json:"actual_date,omitempty"`
}

func newRecordResponse(record *compliance.ComplianceRecord) recordResponse {
	resp := recordResponse{
		ID:        record.ID,
		Batch:     record.Batch,
		Market:    record.Market,
		BuyerID:   record.BuyerID,
		Status:    record.Status.String(),
		Score:     record.Score,
		Costs:     record.Costs,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
		ExpiresAt: record.ExpiresAt,
	}

	for _, c := range record.Certifications {
		resp.Certifications = append(resp.Certifications, certificationResponse{
			ID:                c.ID,
			Scheme:            c.Scheme,
			IssuingBody:       c.IssuingBody,
			Status:            c.Status.String(),
			Mandatory:         c.Mandatory,
			CertificateNumber: c.CertificateNumber,
			ExpiryDate:        c.ExpiryDate,
			EstimatedCost:     c.EstimatedCost,
			ActualCost:        c.ActualCost,
		})
	}
	for _, tr := range record.TestingRequirements {
		resp.TestingRequirements = append(resp.TestingRequirements, testingResponse{
			ID:            tr.ID,
			Analysis:      tr.Analysis,
			LabName:       tr.LabName,
			Status:        tr.Status.String(),
			ComplianceMet: tr.ComplianceMet,
			Parameters:    tr.Parameters,
			Results:       tr.Results,
		})
	}
	for _, d := range record.Documentation {
		resp.Documentation = append(resp.Documentation, documentResponse{
			ID:                             d.ID,
			Name:                           d.Name,
			IssuedBy:                       d.IssuedBy,
			Status:                         d.Status.String(),
			VerificationStatus:             d.VerificationStatus.String(),
			RequiresThirdPartyVerification: d.RequiresThirdPartyVerification,
		})
	}
	for _, item := range record.Checklist {
		resp.Checklist = append(resp.Checklist, checklistResponse{
			ID:          item.ID,
			Description: item.Description,
			Source:      item.Source.String(),
			Mandatory:   item.Mandatory,
			Status:      item.Status.String(),
			AssignedTo:  item.AssignedTo,
		})
	}

	resp.Risk = riskResponse{
		OverallLevel: record.Risk.OverallLevel.String(),
		AssessedAt:   record.Risk.AssessedAt,
	}
	for _, f := range record.Risk.Factors {
		resp.Risk.Factors = append(resp.Risk.Factors, riskFactorResponse{
			Name:        f.Name,
			Probability: f.Probability,
			Impact:      f.Impact,
			Score:       f.Score,
			Level:       f.Level.String(),
			Mitigations: f.Mitigations,
		})
	}

	resp.Timeline = timelineResponse{
		CriticalPath: record.Timeline.CriticalPath,
		DelayCount:   len(record.Timeline.Delays),
		Completion:   record.Timeline.Completion,
	}
	for _, m := range record.Timeline.Milestones {
		resp.Timeline.Milestones = append(resp.Timeline.Milestones, milestoneResponse{
			ID:          m.ID,
			Name:        m.Name,
			Kind:        m.Kind.String(),
			Status:      m.Status.String(),
			Critical:    m.Critical,
			PlannedDate: m.PlannedDate,
			ActualDate:  m.ActualDate,
		})
	}

	return resp
}

func checklistStatusFromString(s string) compliance.ChecklistStatus {
	switch s {
	case "in_progress":
		return compliance.ChecklistInProgress
	case "completed":
		return compliance.ChecklistCompleted
	case "verified":
		return compliance.ChecklistVerified
	case "failed":
		return compliance.ChecklistFailed
	default:
		return compliance.ChecklistNotStarted
	}
}

func certificationStatusFromString(s string) compliance.CertificationStatus {
	switch s {
	case "applied":
		return compliance.CertificationApplied
	case "under_review":
		return compliance.CertificationUnderReview
	case "approved":
		return compliance.CertificationApproved
	case "rejected":
		return compliance.CertificationRejected
	case "expired":
		return compliance.CertificationExpired
	default:
		return compliance.CertificationNotStarted
	}
}

func testingStatusFromString(s string) compliance.TestingStatus {
	switch s {
	case "scheduled":
		return compliance.TestingScheduled
	case "sampling":
		return compliance.TestingSampling
	case "testing":
		return compliance.TestingInProgress
	default:
		return compliance.TestingNotScheduled
	}
}

func documentationStatusFromString(s string) compliance.DocumentationStatus {
	switch s {
	case "draft":
		return compliance.DocumentationDraft
	case "under_review":
		return compliance.DocumentationUnderReview
	case "submitted":
		return compliance.DocumentationSubmitted
	case "approved":
		return compliance.DocumentationApproved
	case "rejected":
		return compliance.DocumentationRejected
	default:
		return compliance.DocumentationNotStarted
	}
}
