package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// RecordBuilder builds test ComplianceRecord entities with one entry in each
// sub-ledger by default.
type RecordBuilder struct {
	record compliance.ComplianceRecord
}

// NewRecordBuilder creates a RecordBuilder with defaults: a groundnut batch
// bound for the EU with one certification, one testing requirement, one
// document and one checklist item.
func NewRecordBuilder() *RecordBuilder {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	batchID := fmt.Sprintf("BATCH-%s", uuid.NewString()[:8])

	regulationID := uuid.New()
	requirementID := uuid.New()
	cert := NewCertification()
	test := NewTestingRequirement()
	doc := NewDocument()

	item := compliance.ChecklistItem{
		ID:          uuid.New(),
		Description: "Maintain pesticide application records",
		Source:      compliance.ChecklistSourceRegulation,
		SourceID:    requirementID,
		Mandatory:   true,
		Status:      compliance.ChecklistNotStarted,
		AssignedTo:  "field-officer",
	}

	return &RecordBuilder{
		record: compliance.ComplianceRecord{
			ID: uuid.New(),
			Batch: compliance.Batch{
				ID:         batchID,
				CropType:   "groundnut",
				QuantityKg: 18000,
				FarmerID:   "FARM-042",
				Region:     "Northern",
			},
			Market:  "EU",
			BuyerID: "BUYER-001",
			Status:  compliance.StatusPending,
			Regulations: []compliance.Regulation{
				{
					ID:        regulationID,
					Code:      "EC-1881-2006",
					Title:     "Maximum levels for contaminants in foodstuffs",
					Authority: "European Commission",
					Market:    "EU",
					Requirements: []compliance.RegulationRequirement{
						{
							ID:          requirementID,
							Description: "Aflatoxin B1 below 2.0 ug/kg",
							Enforcement: compliance.EnforcementCritical,
						},
					},
				},
			},
			Certifications:      []compliance.Certification{cert},
			TestingRequirements: []compliance.TestingRequirement{test},
			Documentation:       []compliance.DocumentationRequirement{doc},
			Checklist:           []compliance.ChecklistItem{item},
			Costs: compliance.CostBreakdown{
				Currency: "USD",
				Estimated: compliance.CostCategories{
					CertificationFees: values.MustNewMoneyFromFloat(1200, "USD"),
					Testing:           values.MustNewMoneyFromFloat(450, "USD"),
					Documentation:     values.MustNewMoneyFromFloat(80, "USD"),
				},
				TotalEstimated: values.MustNewMoneyFromFloat(1730, "USD"),
				TotalActual:    values.Zero("USD"),
				BudgetVariance: values.MustNewMoneyFromFloat(-1730, "USD"),
			},
			CreatedAt: now,
			UpdatedAt: now,
			ExpiresAt: now.AddDate(1, 0, 0),
		},
	}
}

func (b *RecordBuilder) WithID(id uuid.UUID) *RecordBuilder {
	b.record.ID = id
	return b
}

func (b *RecordBuilder) WithBatch(batch compliance.Batch) *RecordBuilder {
	b.record.Batch = batch
	return b
}

func (b *RecordBuilder) WithMarket(market string) *RecordBuilder {
	b.record.Market = market
	return b
}

func (b *RecordBuilder) WithBuyer(buyerID string) *RecordBuilder {
	b.record.BuyerID = buyerID
	return b
}

func (b *RecordBuilder) WithStatus(status compliance.Status) *RecordBuilder {
	b.record.Status = status
	return b
}

func (b *RecordBuilder) WithScore(score int) *RecordBuilder {
	b.record.Score = score
	return b
}

func (b *RecordBuilder) WithCertifications(certs ...compliance.Certification) *RecordBuilder {
	b.record.Certifications = certs
	return b
}

func (b *RecordBuilder) WithTestingRequirements(tests ...compliance.TestingRequirement) *RecordBuilder {
	b.record.TestingRequirements = tests
	return b
}

func (b *RecordBuilder) WithDocumentation(docs ...compliance.DocumentationRequirement) *RecordBuilder {
	b.record.Documentation = docs
	return b
}

func (b *RecordBuilder) WithChecklist(items ...compliance.ChecklistItem) *RecordBuilder {
	b.record.Checklist = items
	return b
}

func (b *RecordBuilder) WithExpiresAt(t time.Time) *RecordBuilder {
	b.record.ExpiresAt = t
	return b
}

func (b *RecordBuilder) Build() *compliance.ComplianceRecord {
	clone, err := b.record.Clone()
	if err != nil {
		panic(fmt.Sprintf("building record fixture: %v", err))
	}
	return clone
}

// NewCertification returns a not-started mandatory organic certification.
func NewCertification() compliance.Certification {
	return compliance.Certification{
		ID:                uuid.New(),
		Scheme:            "EU Organic",
		IssuingBody:       "Ecocert",
		Status:            compliance.CertificationNotStarted,
		Mandatory:         true,
		ValidityMonths:    12,
		EstimatedLeadDays: 45,
		EstimatedCost:     values.MustNewMoneyFromFloat(1200, "USD"),
		ActualCost:        values.Zero("USD"),
	}
}

// NewTestingRequirement returns an unscheduled aflatoxin analysis with a
// critical B1 parameter and a non-critical total parameter.
func NewTestingRequirement() compliance.TestingRequirement {
	return compliance.TestingRequirement{
		ID:               uuid.New(),
		Analysis:         "aflatoxin",
		LabName:          "EuroLab Accra",
		LabAccreditation: "ISO 17025",
		Status:           compliance.TestingNotScheduled,
		Parameters: []compliance.TestParameter{
			{Name: "aflatoxin_b1", Unit: "ug/kg", RegulatoryLimit: 2.0, Critical: true},
			{Name: "aflatoxin_total", Unit: "ug/kg", RegulatoryLimit: 4.0, Critical: false},
		},
		TurnaroundDays: 5,
		EstimatedCost:  values.MustNewMoneyFromFloat(450, "USD"),
		ActualCost:     values.Zero("USD"),
	}
}

// NewDocument returns a not-started phytosanitary certificate requiring
// third-party verification.
func NewDocument() compliance.DocumentationRequirement {
	return compliance.DocumentationRequirement{
		ID:                             uuid.New(),
		Name:                           "Phytosanitary Certificate",
		IssuedBy:                       "National Plant Protection Organization",
		Status:                         compliance.DocumentationNotStarted,
		RequiresThirdPartyVerification: true,
		VerificationStatus:             compliance.VerificationNone,
		EstimatedPrepDays:              7,
		EstimatedCost:                  values.MustNewMoneyFromFloat(80, "USD"),
		ActualCost:                     values.Zero("USD"),
	}
}

// NewChecklistItem returns a not-started mandatory item from a regulation.
func NewChecklistItem(sourceID uuid.UUID) compliance.ChecklistItem {
	return compliance.ChecklistItem{
		ID:          uuid.New(),
		Description: "Verify traceability records for the batch",
		Source:      compliance.ChecklistSourceRegulation,
		SourceID:    sourceID,
		Mandatory:   true,
		Status:      compliance.ChecklistNotStarted,
		AssignedTo:  "field-officer",
	}
}
