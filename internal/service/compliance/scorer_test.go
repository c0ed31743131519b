package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/testutil/fixtures"
)

// ledgerState builds a record with the given counts of completed items per
// ledger out of fixed totals.
func ledgerState(checklistDone, certsDone, testsDone, docsDone int) *compliance.ComplianceRecord {
	now := time.Now().UTC()
	record := fixtures.NewRecordBuilder().Build()

	record.Checklist = nil
	for i := 0; i < 4; i++ {
		item := fixtures.NewChecklistItem(record.Regulations[0].ID)
		if i < checklistDone {
			item.Status = compliance.ChecklistCompleted
			item.CompletionDate = &now
		}
		record.Checklist = append(record.Checklist, item)
	}

	record.Certifications = nil
	for i := 0; i < 2; i++ {
		cert := fixtures.NewCertification()
		if i < certsDone {
			cert.Status = compliance.CertificationApproved
		}
		record.Certifications = append(record.Certifications, cert)
	}

	record.TestingRequirements = nil
	for i := 0; i < 2; i++ {
		req := fixtures.NewTestingRequirement()
		if i < testsDone {
			req.Status = compliance.TestingCompleted
			req.ComplianceMet = true
		}
		record.TestingRequirements = append(record.TestingRequirements, req)
	}

	record.Documentation = nil
	for i := 0; i < 2; i++ {
		doc := fixtures.NewDocument()
		if i < docsDone {
			doc.Status = compliance.DocumentationApproved
		}
		record.Documentation = append(record.Documentation, doc)
	}

	return record
}

func TestComputeScore(t *testing.T) {
	policy := DefaultPolicies().Scoring

	tests := []struct {
		name   string
		record *compliance.ComplianceRecord
		want   int
	}{
		{
			name:   "nothing done scores zero",
			record: ledgerState(0, 0, 0, 0),
			want:   0,
		},
		{
			name:   "everything done scores 100",
			record: ledgerState(4, 2, 2, 2),
			want:   100,
		},
		{
			name: "half of everything scores 50",
			// 20 + 15 + 10 + 5
			record: ledgerState(2, 1, 1, 1),
			want:   50,
		},
		{
			name:   "checklist only",
			record: ledgerState(4, 0, 0, 0),
			want:   40,
		},
		{
			name: "certifications and documents",
			// 30 + 10
			record: ledgerState(0, 2, 0, 2),
			want: 40,
		},
		{
			name: "uneven partial progress",
			// 3/4*40 + 1/2*30 = 45
			record: ledgerState(3, 1, 0, 0),
			want:   45,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeScore(tt.record, policy))
		})
	}
}

func TestComputeScore_Idempotent(t *testing.T) {
	policy := DefaultPolicies().Scoring
	record := ledgerState(2, 1, 2, 0)

	first := computeScore(record, policy)
	second := computeScore(record, policy)
	assert.Equal(t, first, second)
}

func TestComputeScore_EmptyLedgers(t *testing.T) {
	record := ledgerState(4, 2, 2, 2)
	record.TestingRequirements = nil
	record.Documentation = nil

	conservative := DefaultPolicies().Scoring
	assert.Equal(t, 70, computeScore(record, conservative))

	generous := conservative
	generous.FullCreditEmptyLedgers = true
	assert.Equal(t, 100, computeScore(record, generous))
}

func TestComputeScore_FailedItemsStopCounting(t *testing.T) {
	policy := DefaultPolicies().Scoring
	record := ledgerState(0, 0, 2, 0)

	// A failed test no longer contributes even with ComplianceMet stale.
	record.TestingRequirements[0].Status = compliance.TestingFailed
	assert.Equal(t, 10, computeScore(record, policy))

	// An expired certification does not count as approved.
	record = ledgerState(0, 2, 0, 0)
	record.Certifications[1].Status = compliance.CertificationExpired
	assert.Equal(t, 15, computeScore(record, policy))
}

func TestStatusForScore(t *testing.T) {
	policy := DefaultPolicies().Scoring

	tests := []struct {
		score int
		want  compliance.Status
	}{
		{score: 100, want: compliance.StatusCompliant},
		{score: 95, want: compliance.StatusCompliant},
		{score: 94, want: compliance.StatusConditional},
		{score: 80, want: compliance.StatusConditional},
		{score: 79, want: compliance.StatusInProgress},
		{score: 50, want: compliance.StatusInProgress},
		{score: 49, want: compliance.StatusNonCompliant},
		{score: 0, want: compliance.StatusNonCompliant},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForScore(tt.score, policy), "score %d", tt.score)
	}
}
