package compliance

import (
	"math"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
)

// computeScore is the weighted compliance score: each sub-ledger contributes
// its completion ratio times its weight. A pure function of sub-ledger state,
// so recomputation is idempotent regardless of update order.
func computeScore(record *compliance.ComplianceRecord, policy ScoringPolicy) int {
	total := 0.0
	total += bucket(checklistCompleted(record), len(record.Checklist), policy.ChecklistWeight, policy)
	total += bucket(certificationsApproved(record), len(record.Certifications), policy.CertificationWeight, policy)
	total += bucket(testsCompliant(record), len(record.TestingRequirements), policy.TestingWeight, policy)
	total += bucket(documentsApproved(record), len(record.Documentation), policy.DocumentationWeight, policy)

	score := int(math.Round(total))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// bucket returns the weighted contribution of one sub-ledger. An empty ledger
// contributes zero by default; policy can award it full credit instead.
func bucket(completed, total, weight int, policy ScoringPolicy) float64 {
	if total == 0 {
		if policy.FullCreditEmptyLedgers {
			return float64(weight)
		}
		return 0
	}
	return float64(completed) / float64(total) * float64(weight)
}

// statusForScore is the deterministic score-to-status table. No manual
// override exists and status is never sticky: a regression in the ledgers
// moves status backward on the next recompute.
func statusForScore(score int, policy ScoringPolicy) compliance.Status {
	switch {
	case score >= policy.CompliantMin:
		return compliance.StatusCompliant
	case score >= policy.ConditionalMin:
		return compliance.StatusConditional
	case score >= policy.InProgressMin:
		return compliance.StatusInProgress
	default:
		return compliance.StatusNonCompliant
	}
}

func checklistCompleted(record *compliance.ComplianceRecord) int {
	n := 0
	for _, item := range record.Checklist {
		if item.IsComplete() {
			n++
		}
	}
	return n
}

func certificationsApproved(record *compliance.ComplianceRecord) int {
	n := 0
	for _, cert := range record.Certifications {
		if cert.IsApproved() {
			n++
		}
	}
	return n
}

func testsCompliant(record *compliance.ComplianceRecord) int {
	n := 0
	for _, t := range record.TestingRequirements {
		if t.IsCompliant() {
			n++
		}
	}
	return n
}

func documentsApproved(record *compliance.ComplianceRecord) int {
	n := 0
	for _, d := range record.Documentation {
		if d.IsApproved() {
			n++
		}
	}
	return n
}
