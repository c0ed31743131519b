package compliance

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// Report is the derived compliance report for one record. It is computed on
// demand and never stored.
type Report struct {
	RecordID    uuid.UUID `json:"record_id"`
	BatchID     string    `json:"batch_id"`
	CropType    string    `json:"crop_type"`
	Market      string    `json:"market"`
	BuyerID     string    `json:"buyer_id"`
	GeneratedAt time.Time `json:"generated_at"`

	Status  string `json:"status"`
	Score   int    `json:"score"`
	Expired bool   `json:"expired"`

	ExecutiveSummary string `json:"executive_summary"`

	Ledgers  []LedgerSummary `json:"ledgers"`
	Risk     RiskSummary     `json:"risk"`
	Costs    CostSummary     `json:"costs"`
	Timeline TimelineSummary `json:"timeline"`

	Recommendations []string `json:"recommendations"`
	NextSteps       []string `json:"next_steps"`
}

// LedgerSummary is the completion ratio of one sub-ledger.
type LedgerSummary struct {
	Name      string  `json:"name"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Ratio     float64 `json:"ratio"`
}

type RiskSummary struct {
	OverallLevel string   `json:"overall_level"`
	FactorCount  int      `json:"factor_count"`
	TopFactor    string   `json:"top_factor,omitempty"`
	Mitigations  []string `json:"mitigations,omitempty"`
}

type CostSummary struct {
	TotalEstimated values.Money `json:"total_estimated"`
	TotalActual    values.Money `json:"total_actual"`
	BudgetVariance values.Money `json:"budget_variance"`
	OverBudget     bool         `json:"over_budget"`
}

type TimelineSummary struct {
	Completion     float64  `json:"completion_percentage"`
	CriticalPath   []string `json:"critical_path"`
	DelayedCount   int      `json:"delayed_count"`
	TotalDelayDays int      `json:"total_delay_days"`
	MilestoneCount int      `json:"milestone_count"`
	CompletedCount int      `json:"completed_count"`
}

// buildReport derives the report from an already-refreshed record.
func buildReport(record *compliance.ComplianceRecord, policies Policies, now time.Time) *Report {
	score := computeScore(record, policies.Scoring)
	status := statusForScore(score, policies.Scoring)
	expired := record.IsExpired(now)

	ledgers := []LedgerSummary{
		ledgerSummary("checklist", checklistCompleted(record), len(record.Checklist)),
		ledgerSummary("certifications", certificationsApproved(record), len(record.Certifications)),
		ledgerSummary("testing", testsCompliant(record), len(record.TestingRequirements)),
		ledgerSummary("documentation", documentsApproved(record), len(record.Documentation)),
	}

	report := &Report{
		RecordID:    record.ID,
		BatchID:     record.Batch.ID,
		CropType:    record.Batch.CropType,
		Market:      record.Market,
		BuyerID:     record.BuyerID,
		GeneratedAt: now,
		Status:      status.String(),
		Score:       score,
		Expired:     expired,
		Ledgers:     ledgers,
		Risk:        riskSummary(record),
		Costs:       costSummary(record),
		Timeline:    timelineSummary(record),
	}

	report.ExecutiveSummary = executiveSummary(record, score, status, expired)
	report.Recommendations = recommendations(record, expired)
	report.NextSteps = nextSteps(record, expired)
	return report
}

func ledgerSummary(name string, completed, total int) LedgerSummary {
	ratio := 0.0
	if total > 0 {
		ratio = float64(completed) / float64(total)
	}
	return LedgerSummary{Name: name, Completed: completed, Total: total, Ratio: ratio}
}

func riskSummary(record *compliance.ComplianceRecord) RiskSummary {
	summary := RiskSummary{
		OverallLevel: record.Risk.OverallLevel.String(),
		FactorCount:  len(record.Risk.Factors),
	}

	top := compliance.RiskFactor{}
	for _, f := range record.Risk.Factors {
		if f.Score > top.Score {
			top = f
		}
	}
	if top.Name != "" {
		summary.TopFactor = top.Name
		summary.Mitigations = top.Mitigations
	}
	return summary
}

func costSummary(record *compliance.ComplianceRecord) CostSummary {
	return CostSummary{
		TotalEstimated: record.Costs.TotalEstimated,
		TotalActual:    record.Costs.TotalActual,
		BudgetVariance: record.Costs.BudgetVariance,
		OverBudget:     record.Costs.BudgetVariance.IsPositive(),
	}
}

func timelineSummary(record *compliance.ComplianceRecord) TimelineSummary {
	summary := TimelineSummary{
		Completion:     record.Timeline.Completion,
		MilestoneCount: len(record.Timeline.Milestones),
		DelayedCount:   len(record.Timeline.Delays),
	}
	for _, d := range record.Timeline.Delays {
		summary.TotalDelayDays += d.DelayDays
	}
	for _, id := range record.Timeline.CriticalPath {
		if m := record.Timeline.Milestone(id); m != nil {
			summary.CriticalPath = append(summary.CriticalPath, m.Name)
		}
	}
	for _, m := range record.Timeline.Milestones {
		if m.Status == compliance.MilestoneCompleted {
			summary.CompletedCount++
		}
	}
	return summary
}

func executiveSummary(record *compliance.ComplianceRecord, score int, status compliance.Status, expired bool) string {
	if expired {
		return fmt.Sprintf("Compliance record for batch %s to %s has EXPIRED and must be rebuilt before any export decision.",
			record.Batch.ID, record.Market)
	}
	return fmt.Sprintf("Batch %s (%s) for %s is %s with a compliance score of %d/100; timeline %.0f%% complete, overall risk %s.",
		record.Batch.ID, record.Batch.CropType, record.Market, status.String(), score,
		record.Timeline.Completion, record.Risk.OverallLevel.String())
}

func recommendations(record *compliance.ComplianceRecord, expired bool) []string {
	var recs []string

	if expired {
		recs = append(recs, "Rebuild the compliance record; the current one is past its validity window.")
	}

	for _, cert := range record.Certifications {
		switch cert.Status {
		case compliance.CertificationRejected:
			recs = append(recs, fmt.Sprintf("Re-apply for %s; the previous application was rejected (%s).", cert.Scheme, cert.RejectionReason))
		case compliance.CertificationExpired:
			recs = append(recs, fmt.Sprintf("Renew the expired %s certification.", cert.Scheme))
		}
	}

	for _, t := range record.TestingRequirements {
		if t.Status == compliance.TestingFailed {
			recs = append(recs, fmt.Sprintf("Investigate the failed %s analysis; re-test after corrective action at %s.", t.Analysis, t.LabName))
		}
	}

	for _, d := range record.Documentation {
		if d.Status == compliance.DocumentationRejected {
			recs = append(recs, fmt.Sprintf("Revise and resubmit the rejected document %q.", d.Name))
		}
	}

	if len(record.Timeline.Delays) > 0 {
		recs = append(recs, fmt.Sprintf("Recover schedule: %d milestone(s) are delayed.", len(record.Timeline.Delays)))
	}

	if record.Costs.BudgetVariance.IsPositive() {
		recs = append(recs, "Actual spend exceeds the estimate; review the cost ledger before committing further work.")
	}

	if record.Risk.OverallLevel == compliance.RiskHigh || record.Risk.OverallLevel == compliance.RiskCritical {
		recs = append(recs, "Execute the documented mitigation strategies; overall risk is "+record.Risk.OverallLevel.String()+".")
	}

	return recs
}

func nextSteps(record *compliance.ComplianceRecord, expired bool) []string {
	if expired {
		return []string{"Re-initialize the compliance record for this batch, market and buyer."}
	}

	var steps []string

	if n := incompleteMandatoryChecklist(record); n > 0 {
		steps = append(steps, fmt.Sprintf("Work through the %d open mandatory checklist item(s).", n))
	}
	for _, cert := range record.Certifications {
		if cert.Status == compliance.CertificationNotStarted {
			steps = append(steps, fmt.Sprintf("Start the %s application with %s.", cert.Scheme, cert.IssuingBody))
		}
	}
	for _, t := range record.TestingRequirements {
		if t.Status == compliance.TestingNotScheduled {
			steps = append(steps, fmt.Sprintf("Schedule %s analysis with %s.", t.Analysis, t.LabName))
		}
	}
	for _, d := range record.Documentation {
		if d.Status == compliance.DocumentationNotStarted {
			steps = append(steps, fmt.Sprintf("Draft %q for %s.", d.Name, d.IssuedBy))
		}
	}

	if len(steps) == 0 {
		steps = append(steps, "Run the export readiness validation to obtain authorization.")
	}
	return steps
}
