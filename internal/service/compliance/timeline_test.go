package compliance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/testutil/fixtures"
)

func milestoneByKind(t *testing.T, timeline *compliance.Timeline, kind compliance.MilestoneKind) *compliance.Milestone {
	t.Helper()
	for i := range timeline.Milestones {
		if timeline.Milestones[i].Kind == kind {
			return &timeline.Milestones[i]
		}
	}
	require.Failf(t, "milestone missing", "no milestone of kind %s", kind)
	return nil
}

func TestBuildTimeline_Shape(t *testing.T) {
	policy := DefaultPolicies().Timeline
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().Build()

	timeline := buildTimeline(record, policy, now)
	require.Len(t, timeline.Milestones, 5)

	prep := milestoneByKind(t, &timeline, compliance.MilestonePreparation)
	cert := milestoneByKind(t, &timeline, compliance.MilestoneCertification)
	lab := milestoneByKind(t, &timeline, compliance.MilestoneTesting)
	docs := milestoneByKind(t, &timeline, compliance.MilestoneDocumentation)
	clearance := milestoneByKind(t, &timeline, compliance.MilestoneClearance)

	assert.Empty(t, prep.DependsOn)
	assert.Equal(t, []uuid.UUID{prep.ID}, cert.DependsOn)
	assert.Equal(t, []uuid.UUID{prep.ID}, lab.DependsOn)
	assert.Equal(t, []uuid.UUID{prep.ID}, docs.DependsOn)
	assert.ElementsMatch(t, []uuid.UUID{cert.ID, lab.ID, docs.ID}, clearance.DependsOn)

	assert.Equal(t, record.Certifications[0].ID, cert.RefID)
	assert.True(t, cert.Critical, "mandatory certification is critical")
	assert.True(t, lab.Critical)
	assert.False(t, docs.Critical)
	assert.True(t, clearance.Critical)

	for _, m := range timeline.Milestones {
		assert.Equal(t, compliance.MilestoneUpcoming, m.Status)
	}
	assert.Zero(t, timeline.Completion)
}

func TestBuildTimeline_PlannedDates(t *testing.T) {
	policy := DefaultPolicies().Timeline
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().Build()

	timeline := buildTimeline(record, policy, now)

	prep := milestoneByKind(t, &timeline, compliance.MilestonePreparation)
	cert := milestoneByKind(t, &timeline, compliance.MilestoneCertification)
	lab := milestoneByKind(t, &timeline, compliance.MilestoneTesting)
	docs := milestoneByKind(t, &timeline, compliance.MilestoneDocumentation)
	clearance := milestoneByKind(t, &timeline, compliance.MilestoneClearance)

	assert.Equal(t, now.AddDate(0, 0, 7), prep.PlannedDate)
	assert.Equal(t, now.AddDate(0, 0, 7+45), cert.PlannedDate)
	// Turnaround plus sampling buffer behind preparation.
	assert.Equal(t, now.AddDate(0, 0, 7+5+5), lab.PlannedDate)
	assert.Equal(t, now.AddDate(0, 0, 7+7), docs.PlannedDate)
	// Clearance waits for the slowest work stream.
	assert.Equal(t, now.AddDate(0, 0, 7+45+3), clearance.PlannedDate)
}

func TestBuildTimeline_CriticalPath(t *testing.T) {
	policy := DefaultPolicies().Timeline
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().Build()

	timeline := buildTimeline(record, policy, now)

	prep := milestoneByKind(t, &timeline, compliance.MilestonePreparation)
	cert := milestoneByKind(t, &timeline, compliance.MilestoneCertification)
	clearance := milestoneByKind(t, &timeline, compliance.MilestoneClearance)

	// The 45-day certification dominates the 10-day testing and 7-day
	// documentation branches.
	assert.Equal(t, []uuid.UUID{prep.ID, cert.ID, clearance.ID}, timeline.CriticalPath)
}

func TestBuildTimeline_NoWorkStreams(t *testing.T) {
	policy := DefaultPolicies().Timeline
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().
		WithCertifications().
		WithTestingRequirements().
		WithDocumentation().
		Build()

	timeline := buildTimeline(record, policy, now)
	require.Len(t, timeline.Milestones, 2)

	prep := milestoneByKind(t, &timeline, compliance.MilestonePreparation)
	clearance := milestoneByKind(t, &timeline, compliance.MilestoneClearance)
	assert.Equal(t, []uuid.UUID{prep.ID}, clearance.DependsOn)
	assert.Equal(t, []uuid.UUID{prep.ID, clearance.ID}, timeline.CriticalPath)
}

func TestRefreshTimeline_CompletionAndDelays(t *testing.T) {
	policy := DefaultPolicies().Timeline
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().Build()
	record.Timeline = buildTimeline(record, policy, start)

	// Finishing every mandatory regulation checklist item completes
	// preparation.
	done := start.AddDate(0, 0, 3)
	for i := range record.Checklist {
		record.Checklist[i].Status = compliance.ChecklistCompleted
		record.Checklist[i].CompletionDate = &done
	}
	refreshTimeline(record, policy, done)

	prep := milestoneByKind(t, &record.Timeline, compliance.MilestonePreparation)
	assert.Equal(t, compliance.MilestoneCompleted, prep.Status)
	require.NotNil(t, prep.ActualDate)
	assert.Equal(t, done, *prep.ActualDate)
	assert.Greater(t, record.Timeline.Completion, 0.0)
	assert.Empty(t, record.Timeline.Delays)

	// A started documentation stream shows as in progress.
	record.Documentation[0].Status = compliance.DocumentationDraft
	refreshTimeline(record, policy, done)
	docs := milestoneByKind(t, &record.Timeline, compliance.MilestoneDocumentation)
	assert.Equal(t, compliance.MilestoneInProgress, docs.Status)
}

func TestRefreshTimeline_DelayDetection(t *testing.T) {
	policy := DefaultPolicies().Timeline
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().Build()
	record.Timeline = buildTimeline(record, policy, start)

	docs := milestoneByKind(t, &record.Timeline, compliance.MilestoneDocumentation)
	late := docs.PlannedDate.AddDate(0, 0, 4)
	refreshTimeline(record, policy, late)

	docs = milestoneByKind(t, &record.Timeline, compliance.MilestoneDocumentation)
	assert.Equal(t, compliance.MilestoneDelayed, docs.Status)

	var delay *compliance.ComplianceDelay
	for i := range record.Timeline.Delays {
		if record.Timeline.Delays[i].MilestoneID == docs.ID {
			delay = &record.Timeline.Delays[i]
		}
	}
	require.NotNil(t, delay)
	assert.Equal(t, 4, delay.DelayDays)
	assert.Equal(t, late, delay.DetectedAt)

	// Re-running at a later instant does not duplicate the delay record.
	before := len(record.Timeline.Delays)
	refreshTimeline(record, policy, late.AddDate(0, 0, 2))
	assert.Len(t, record.Timeline.Delays, before)

	// A completed milestone stops being delayed.
	for i := range record.Documentation {
		record.Documentation[i].Status = compliance.DocumentationApproved
	}
	refreshTimeline(record, policy, late.AddDate(0, 0, 2))
	docs = milestoneByKind(t, &record.Timeline, compliance.MilestoneDocumentation)
	assert.Equal(t, compliance.MilestoneCompleted, docs.Status)
}

func TestCompletionPercentage_CriticalWeighting(t *testing.T) {
	policy := DefaultPolicies().Timeline
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	record := fixtures.NewRecordBuilder().Build()
	timeline := buildTimeline(record, policy, start)

	// Fixture timeline: prep(1) + cert(2) + testing(2) + docs(1) +
	// clearance(2) = 8 weight units.
	docs := milestoneByKind(t, &timeline, compliance.MilestoneDocumentation)
	docs.Status = compliance.MilestoneCompleted
	assert.InDelta(t, 12.5, completionPercentage(&timeline, policy), 1e-9)

	cert := milestoneByKind(t, &timeline, compliance.MilestoneCertification)
	cert.Status = compliance.MilestoneCompleted
	assert.InDelta(t, 37.5, completionPercentage(&timeline, policy), 1e-9)
}
