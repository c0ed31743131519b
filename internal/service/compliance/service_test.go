package compliance

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/harvestlane/agri-export-compliance-backend/internal/catalog"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
	"github.com/harvestlane/agri-export-compliance-backend/internal/infrastructure/repository"
)

func newTestEngine(t *testing.T) (*Engine, *repository.MemoryStore, *compliance.MockClock) {
	t.Helper()
	clock := &compliance.MockClock{CurrentTime: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
	store := repository.NewMemoryStore()
	engine := NewEngine(zap.NewNop(), catalog.NewStaticCatalog(), store, clock, DefaultPolicies(), nil)
	return engine, store, clock
}

func initRequest() InitializeRequest {
	return InitializeRequest{
		Batch: compliance.Batch{
			ID:         "BATCH-2025-0042",
			CropType:   "groundnut",
			QuantityKg: 18000,
			Region:     "Kano",
		},
		Market:  "EU",
		BuyerID: "BUYER-001",
	}
}

func TestEngine_Initialize(t *testing.T) {
	engine, store, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	assert.Equal(t, compliance.StatusPending, record.Status)
	assert.Zero(t, record.Score)
	assert.Equal(t, "EU", record.Market)
	assert.Equal(t, clock.Now(), record.CreatedAt)
	assert.Equal(t, clock.Now().Add(DefaultPolicies().Record.Validity), record.ExpiresAt)

	assert.NotEmpty(t, record.Regulations)
	assert.NotEmpty(t, record.Certifications)
	assert.NotEmpty(t, record.TestingRequirements)
	assert.NotEmpty(t, record.Documentation)
	assert.NotEmpty(t, record.Checklist)
	assert.NotEmpty(t, record.Timeline.Milestones)
	assert.NotEmpty(t, record.Risk.Factors)
	assert.True(t, record.Costs.TotalEstimated.IsPositive())

	stored, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)
}

func TestEngine_Initialize_ChecklistCoversSources(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := initRequest()
	req.Requirements = []string{"Pre-shipment fumigation certificate", "  "}
	record, err := engine.Initialize(context.Background(), req)
	require.NoError(t, err)

	counts := map[compliance.ChecklistSource]int{}
	for _, item := range record.Checklist {
		counts[item.Source]++
	}

	binding := 0
	for _, reg := range record.Regulations {
		binding += len(reg.BindingRequirements())
	}
	assert.Equal(t, binding, counts[compliance.ChecklistSourceRegulation])
	assert.Equal(t, len(record.Certifications), counts[compliance.ChecklistSourceCertification])
	// The blank buyer requirement is dropped.
	assert.Equal(t, 1, counts[compliance.ChecklistSourceBuyer])
}

func TestEngine_Initialize_OrganicAddsCertifications(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	conventional, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	req := initRequest()
	req.Batch.ID = "BATCH-2025-0043"
	req.Batch.Organic = true
	organic, err := engine.Initialize(ctx, req)
	require.NoError(t, err)

	assert.Greater(t, len(organic.Certifications), len(conventional.Certifications))
}

func TestEngine_Initialize_MissingFields(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := initRequest()
	req.BuyerID = ""
	_, err := engine.Initialize(context.Background(), req)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, "MISSING_FIELDS"))
}

func TestEngine_Initialize_CatalogMissFailsClosed(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	req := initRequest()
	req.Market = "CN"
	_, err := engine.Initialize(ctx, req)
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, "CATALOG_DATA_UNAVAILABLE"))

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "nothing persisted on a catalog miss")
}

func TestEngine_Initialize_DuplicateTriple(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	first, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	_, err = engine.Initialize(ctx, initRequest())
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeConflict))

	// Once the record expires the triple may be re-initialized.
	clock.Advance(DefaultPolicies().Record.Validity + time.Hour)
	replacement, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, replacement.ID)
}

func TestEngine_ApplyUpdate_EmptyRequest(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.ApplyUpdate(context.Background(), uuid.New(), UpdateRequest{})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, "EMPTY_UPDATE"))
}

func TestEngine_ApplyUpdate_UnknownRecord(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	_, err := engine.ApplyUpdate(context.Background(), uuid.New(), UpdateRequest{
		ChecklistUpdates: []ChecklistUpdate{{ItemID: uuid.New(), Status: compliance.ChecklistInProgress}},
	})
	require.Error(t, err)
	assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeNotFound))
}

func TestEngine_ApplyUpdate_ChecklistProgress(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	clock.Advance(24 * time.Hour)
	updated, err := engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		ChecklistUpdates: []ChecklistUpdate{{
			ItemID: record.Checklist[0].ID,
			Status: compliance.ChecklistInProgress,
			Actor:  "amina",
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, compliance.ChecklistInProgress, updated.Checklist[0].Status)
	assert.Equal(t, "amina", updated.Checklist[0].AssignedTo)
	assert.Equal(t, clock.Now(), updated.UpdatedAt)

	updated, err = engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		ChecklistUpdates: []ChecklistUpdate{{
			ItemID: record.Checklist[0].ID,
			Status: compliance.ChecklistCompleted,
			Actor:  "amina",
		}},
	})
	require.NoError(t, err)
	assert.Greater(t, updated.Score, 0)
	assert.Equal(t, compliance.StatusNonCompliant, updated.Status)
}

func TestEngine_ApplyUpdate_AtomicRejection(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	// A valid checklist command followed by an unknown certification id:
	// the whole batch is rejected and nothing sticks.
	_, err = engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		ChecklistUpdates: []ChecklistUpdate{{
			ItemID: record.Checklist[0].ID,
			Status: compliance.ChecklistInProgress,
			Actor:  "amina",
		}},
		CertificationUpdates: []CertificationUpdate{{
			CertificationID: uuid.New(),
			Status:          compliance.CertificationApplied,
		}},
	})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, "UNKNOWN_ITEM"))

	stored, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.ChecklistNotStarted, stored.Checklist[0].Status)
	assert.Zero(t, stored.Score)
}

func TestEngine_ApplyUpdate_InvalidTransitionRejected(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	_, err = engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		CertificationUpdates: []CertificationUpdate{{
			CertificationID:   record.Certifications[0].ID,
			Status:            compliance.CertificationApproved,
			CertificateNumber: "CERT-001",
		}},
	})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, "INVALID_TRANSITION"))
}

func TestEngine_ApplyUpdate_ExpiredRecord(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	clock.Advance(DefaultPolicies().Record.Validity + time.Hour)
	_, err = engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		ChecklistUpdates: []ChecklistUpdate{{
			ItemID: record.Checklist[0].ID,
			Status: compliance.ChecklistInProgress,
		}},
	})
	require.Error(t, err)
	assert.True(t, domainerrors.HasCode(err, "EXPIRED_RECORD"))
}

// driveToCompliant walks every sub-ledger of a freshly built record through
// its successful path using engine commands only.
func driveToCompliant(t *testing.T, engine *Engine, record *compliance.ComplianceRecord) *compliance.ComplianceRecord {
	t.Helper()
	ctx := context.Background()
	spend := values.MustNewMoneyFromFloat(100, values.USD)

	var checklist []ChecklistUpdate
	for _, item := range record.Checklist {
		checklist = append(checklist,
			ChecklistUpdate{ItemID: item.ID, Status: compliance.ChecklistInProgress, Actor: "amina"},
			ChecklistUpdate{ItemID: item.ID, Status: compliance.ChecklistCompleted, Actor: "amina"},
		)
	}

	var certs []CertificationUpdate
	for _, cert := range record.Certifications {
		certs = append(certs,
			CertificationUpdate{CertificationID: cert.ID, Status: compliance.CertificationApplied},
			CertificationUpdate{CertificationID: cert.ID, Status: compliance.CertificationUnderReview},
			CertificationUpdate{
				CertificationID:   cert.ID,
				Status:            compliance.CertificationApproved,
				CertificateNumber: "CERT-" + uuid.NewString()[:8],
				ActualCost:        &spend,
			},
		)
	}

	var stages []TestStageUpdate
	var results []TestResultSubmission
	for _, req := range record.TestingRequirements {
		stages = append(stages,
			TestStageUpdate{RequirementID: req.ID, Stage: compliance.TestingScheduled},
			TestStageUpdate{RequirementID: req.ID, Stage: compliance.TestingSampling},
			TestStageUpdate{RequirementID: req.ID, Stage: compliance.TestingInProgress},
		)
		for _, p := range req.Parameters {
			results = append(results, TestResultSubmission{
				RequirementID: req.ID,
				Parameter:     p.Name,
				Value:         p.RegulatoryLimit / 2,
				ReportedBy:    "lab",
				ActualCost:    &spend,
			})
		}
	}

	var docs []DocumentUpdate
	for _, doc := range record.Documentation {
		draft := compliance.DocumentationDraft
		review := compliance.DocumentationUnderReview
		submitted := compliance.DocumentationSubmitted
		approved := compliance.DocumentationApproved
		docs = append(docs,
			DocumentUpdate{DocumentID: doc.ID, Status: &draft},
			DocumentUpdate{DocumentID: doc.ID, Status: &review},
			DocumentUpdate{DocumentID: doc.ID, Status: &submitted},
			DocumentUpdate{
				DocumentID: doc.ID,
				Status:     &approved,
				Verify:     doc.RequiresThirdPartyVerification,
				ActualCost: &spend,
			},
		)
	}

	updated, err := engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		ChecklistUpdates:     checklist,
		CertificationUpdates: certs,
		TestStageUpdates:     stages,
		TestResults:          results,
		DocumentUpdates:      docs,
	})
	require.NoError(t, err)
	return updated
}

func TestEngine_FullComplianceLifecycle(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	updated := driveToCompliant(t, engine, record)

	assert.Equal(t, 100, updated.Score)
	assert.Equal(t, compliance.StatusCompliant, updated.Status)
	assert.True(t, updated.Costs.TotalActual.IsPositive())
	assert.InDelta(t, 100.0, updated.Timeline.Completion, 1e-9)
	for _, m := range updated.Timeline.Milestones {
		assert.Equal(t, compliance.MilestoneCompleted, m.Status, m.Name)
	}

	result, err := engine.ValidateExportReadiness(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, result.Ready)
	assert.Equal(t, 100, result.Points)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, "compliant", result.Status)
	require.NotNil(t, result.Authorization)
	assert.Equal(t, record.ID, result.Authorization.RecordID)
	assert.Equal(t, clock.Now().AddDate(0, 0, 180), result.Authorization.ValidUntil)
}

func TestEngine_CriticalExceedanceFailsTesting(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	var checklist []ChecklistUpdate
	for _, item := range record.Checklist {
		checklist = append(checklist,
			ChecklistUpdate{ItemID: item.ID, Status: compliance.ChecklistInProgress, Actor: "amina"},
			ChecklistUpdate{ItemID: item.ID, Status: compliance.ChecklistCompleted, Actor: "amina"},
		)
	}
	var certs []CertificationUpdate
	for _, cert := range record.Certifications {
		certs = append(certs,
			CertificationUpdate{CertificationID: cert.ID, Status: compliance.CertificationApplied},
			CertificationUpdate{CertificationID: cert.ID, Status: compliance.CertificationUnderReview},
			CertificationUpdate{
				CertificationID:   cert.ID,
				Status:            compliance.CertificationApproved,
				CertificateNumber: "CERT-" + uuid.NewString()[:8],
			},
		)
	}

	// One critical parameter measured above its regulatory limit fails the
	// whole requirement immediately.
	target := record.TestingRequirements[0]
	var critical *compliance.TestParameter
	for i := range target.Parameters {
		if target.Parameters[i].Critical {
			critical = &target.Parameters[i]
		}
	}
	require.NotNil(t, critical, "fixture requirement carries a critical parameter")

	updated, err := engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
		ChecklistUpdates:     checklist,
		CertificationUpdates: certs,
		TestStageUpdates: []TestStageUpdate{
			{RequirementID: target.ID, Stage: compliance.TestingScheduled},
			{RequirementID: target.ID, Stage: compliance.TestingSampling},
			{RequirementID: target.ID, Stage: compliance.TestingInProgress},
		},
		TestResults: []TestResultSubmission{{
			RequirementID: target.ID,
			Parameter:     critical.Name,
			Value:         critical.RegulatoryLimit * 2,
			ReportedBy:    "lab",
		}},
	})
	require.NoError(t, err)

	failed := updated.FindTestingRequirement(target.ID)
	assert.Equal(t, compliance.TestingFailed, failed.Status)
	assert.False(t, failed.ComplianceMet)
	assert.LessOrEqual(t, updated.Status, compliance.StatusInProgress)

	result, err := engine.ValidateExportReadiness(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, result.Ready)
	assert.Nil(t, result.Authorization)
}

func TestEngine_ApplyUpdate_Idempotent(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	req := record.TestingRequirements[0]
	update := UpdateRequest{
		TestStageUpdates: []TestStageUpdate{{RequirementID: req.ID, Stage: compliance.TestingScheduled}},
	}
	first, err := engine.ApplyUpdate(ctx, record.ID, update)
	require.NoError(t, err)

	// Re-sending the same stage is a no-op, not a transition error.
	second, err := engine.ApplyUpdate(ctx, record.ID, update)
	require.NoError(t, err)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, compliance.TestingScheduled, second.TestingRequirements[0].Status)
}

func TestEngine_GetRecord_LazyCertificationExpiry(t *testing.T) {
	engine, store, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)
	updated := driveToCompliant(t, engine, record)
	require.Equal(t, compliance.StatusCompliant, updated.Status)

	shortest := updated.Certifications[0]
	for _, cert := range updated.Certifications {
		if cert.ValidityMonths < shortest.ValidityMonths {
			shortest = cert
		}
	}
	clock.Advance(time.Duration(shortest.ValidityMonths)*31*24*time.Hour + time.Hour)

	fetched, err := engine.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	expired := fetched.FindCertification(shortest.ID)
	require.NotNil(t, expired)
	assert.Equal(t, compliance.CertificationExpired, expired.Status)
	assert.Less(t, fetched.Score, 100)

	// The lazy refresh is read-side only; the stored record still carries
	// the approval.
	stored, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.CertificationApproved, stored.FindCertification(shortest.ID).Status)
}

func TestEngine_RecomputeRisk(t *testing.T) {
	engine, store, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	clock.Advance(72 * time.Hour)
	updated, err := engine.RecomputeRisk(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), updated.Risk.AssessedAt)

	stored, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), stored.Risk.AssessedAt)
}

func TestEngine_GenerateComplianceReport(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)

	report, err := engine.GenerateComplianceReport(ctx, record.ID)
	require.NoError(t, err)

	assert.Equal(t, record.ID, report.RecordID)
	assert.Equal(t, "BATCH-2025-0042", report.BatchID)
	assert.Equal(t, clock.Now(), report.GeneratedAt)
	assert.False(t, report.Expired)
	require.Len(t, report.Ledgers, 4)
	assert.NotEmpty(t, report.ExecutiveSummary)
	assert.NotEmpty(t, report.NextSteps)
	assert.NotEmpty(t, report.Timeline.CriticalPath)

	// An expired record still reports, flagged.
	clock.Advance(DefaultPolicies().Record.Validity + time.Hour)
	report, err = engine.GenerateComplianceReport(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, report.Expired)
	assert.Contains(t, report.ExecutiveSummary, "EXPIRED")
}

func TestEngine_ConcurrentUpdatesStayConsistent(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	record, err := engine.Initialize(ctx, initRequest())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(record.Checklist), 2)

	for _, status := range []compliance.ChecklistStatus{compliance.ChecklistInProgress, compliance.ChecklistCompleted} {
		var wg sync.WaitGroup
		for _, item := range record.Checklist {
			wg.Add(1)
			go func(itemID uuid.UUID) {
				defer wg.Done()
				_, err := engine.ApplyUpdate(ctx, record.ID, UpdateRequest{
					ChecklistUpdates: []ChecklistUpdate{{ItemID: itemID, Status: status, Actor: "amina"}},
				})
				assert.NoError(t, err)
			}(item.ID)
		}
		wg.Wait()
	}

	final, err := engine.GetRecord(ctx, record.ID)
	require.NoError(t, err)
	for _, item := range final.Checklist {
		assert.Equal(t, compliance.ChecklistCompleted, item.Status)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	engineA, _, _ := newTestEngine(t)
	engineB, _, _ := newTestEngine(t)
	ctx := context.Background()

	a, err := engineA.Initialize(ctx, initRequest())
	require.NoError(t, err)
	b, err := engineB.Initialize(ctx, initRequest())
	require.NoError(t, err)

	assert.Equal(t, a.Regulations, b.Regulations)
	assert.Equal(t, len(a.Checklist), len(b.Checklist))
	assert.True(t, a.Costs.TotalEstimated.Equal(b.Costs.TotalEstimated))

	schemes := func(r *compliance.ComplianceRecord) []string {
		var out []string
		for _, c := range r.Certifications {
			out = append(out, c.Scheme)
		}
		return out
	}
	assert.Equal(t, schemes(a), schemes(b))
}
