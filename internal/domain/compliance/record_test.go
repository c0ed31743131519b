package compliance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

func TestTripleKey(t *testing.T) {
	record := &ComplianceRecord{
		Batch:   Batch{ID: "BATCH-7", CropType: "sesame"},
		Market:  "UAE",
		BuyerID: "BUYER-3",
	}
	assert.Equal(t, TripleKey("BATCH-7", "UAE", "BUYER-3"), record.TripleKey())
	assert.NotEqual(t, record.TripleKey(), TripleKey("BATCH-7", "UAE", "BUYER-4"))
}

func TestRecord_IsExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	record := &ComplianceRecord{ExpiresAt: now}

	assert.False(t, record.IsExpired(now))
	assert.False(t, record.IsExpired(now.Add(-time.Hour)))
	assert.True(t, record.IsExpired(now.Add(time.Second)))
}

func TestRecord_RefreshExpiries(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(-1, 0, 0)
	expiry := past.AddDate(0, 6, 0)

	record := &ComplianceRecord{
		Certifications: []Certification{
			{ID: uuid.New(), Status: CertificationApproved, ExpiryDate: &expiry},
			{ID: uuid.New(), Status: CertificationApplied},
		},
	}

	assert.True(t, record.RefreshExpiries(now))
	assert.Equal(t, CertificationExpired, record.Certifications[0].Status)
	assert.Equal(t, CertificationApplied, record.Certifications[1].Status)

	assert.False(t, record.RefreshExpiries(now))
}

func TestRecord_Finders(t *testing.T) {
	certID := uuid.New()
	testID := uuid.New()
	docID := uuid.New()
	itemID := uuid.New()

	record := &ComplianceRecord{
		Certifications:      []Certification{{ID: certID, Scheme: "HACCP"}},
		TestingRequirements: []TestingRequirement{{ID: testID, Analysis: "moisture"}},
		Documentation:       []DocumentationRequirement{{ID: docID, Name: "Invoice"}},
		Checklist:           []ChecklistItem{{ID: itemID}},
	}

	require.NotNil(t, record.FindCertification(certID))
	require.NotNil(t, record.FindTestingRequirement(testID))
	require.NotNil(t, record.FindDocument(docID))
	require.NotNil(t, record.FindChecklistItem(itemID))

	assert.Nil(t, record.FindCertification(uuid.New()))
	assert.Nil(t, record.FindTestingRequirement(uuid.New()))
	assert.Nil(t, record.FindDocument(uuid.New()))
	assert.Nil(t, record.FindChecklistItem(uuid.New()))

	// Finders return pointers into the ledgers, not copies.
	record.FindCertification(certID).Scheme = "ISO 22000"
	assert.Equal(t, "ISO 22000", record.Certifications[0].Scheme)
}

func TestRecord_Clone(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	record := &ComplianceRecord{
		ID:      uuid.New(),
		Batch:   Batch{ID: "BATCH-1", CropType: "cocoa", QuantityKg: 2500, Organic: true},
		Market:  "EU",
		BuyerID: "BUYER-1",
		Status:  StatusInProgress,
		Score:   42,
		Certifications: []Certification{
			{ID: uuid.New(), Scheme: "UTZ", Status: CertificationApplied, EstimatedCost: values.MustNewMoneyFromFloat(800, "USD")},
		},
		Checklist: []ChecklistItem{{ID: uuid.New(), Description: "trace lots", Mandatory: true}},
		Costs: CostBreakdown{
			Currency:       "USD",
			TotalEstimated: values.MustNewMoneyFromFloat(800, "USD"),
			TotalActual:    values.Zero("USD"),
			BudgetVariance: values.MustNewMoneyFromFloat(800, "USD"),
		},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.AddDate(1, 0, 0),
	}

	clone, err := record.Clone()
	require.NoError(t, err)

	assert.Equal(t, record.ID, clone.ID)
	assert.Equal(t, record.Batch, clone.Batch)
	assert.Equal(t, record.Score, clone.Score)
	assert.True(t, record.Costs.TotalEstimated.Equal(clone.Costs.TotalEstimated))

	// Deep copy: mutating the clone leaves the original untouched.
	clone.Certifications[0].Scheme = "Rainforest Alliance"
	clone.Checklist[0].Mandatory = false
	assert.Equal(t, "UTZ", record.Certifications[0].Scheme)
	assert.True(t, record.Checklist[0].Mandatory)
}
