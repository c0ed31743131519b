package compliance

import (
	"strings"
	"time"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
)

// assessRisk derives the risk assessment from the regulation set and batch
// attributes. Deterministic for the same inputs; re-run on demand rather than
// on every tracker update.
func assessRisk(record *compliance.ComplianceRecord, policy RiskPolicy, now time.Time) compliance.RiskAssessment {
	var factors []compliance.RiskFactor

	bindingCount := 0
	criticalCount := 0
	for _, reg := range record.Regulations {
		for _, req := range reg.Requirements {
			if req.Enforcement.IsBinding() {
				bindingCount++
			}
			if req.Enforcement == compliance.EnforcementCritical {
				criticalCount++
			}
		}
	}

	complexityProb := 0.3 + 0.05*float64(bindingCount)
	if complexityProb > 0.9 {
		complexityProb = 0.9
	}
	factors = append(factors, newFactor("regulatory complexity", complexityProb, 4, policy,
		"Engage an export compliance consultant for the destination market",
		"Track regulation changes through the destination authority bulletins",
	))

	if criticalCount > 0 {
		factors = append(factors, newFactor("critical requirement exposure", 0.35+0.05*float64(criticalCount), 5, policy,
			"Sequence critical requirements first in the work plan",
		))
	}

	if hasAnalysisParameter(record, "aflatoxin") || hasAnalysisParameter(record, "ochratoxin") {
		factors = append(factors, newFactor("mycotoxin contamination", 0.45, 5, policy,
			"Enforce drying and storage controls below the moisture limit",
			"Pre-test a composite sample before booking the export consignment",
		))
	}

	if hasAnalysis(record, "pesticide_residue") {
		factors = append(factors, newFactor("pesticide residue exceedance", 0.5, 4, policy,
			"Collect spray records from all contributing farms",
			"Screen for the destination market's lowest MRLs before shipment",
		))
	}

	if record.Batch.Organic {
		factors = append(factors, newFactor("organic integrity", 0.45, 5, policy,
			"Segregate organic lots through the full chain of custody",
		))
	}

	factors = append(factors, newFactor("documentation burden", 0.6, 2, policy,
		"Assign a single document owner per requirement",
	))

	assessment := compliance.RiskAssessment{
		Factors:    factors,
		AssessedAt: now,
	}
	assessment.OverallLevel = levelFor(assessment.MaxScore(), policy)
	return assessment
}

func newFactor(name string, probability, impact float64, policy RiskPolicy, mitigations ...string) compliance.RiskFactor {
	if probability > 1 {
		probability = 1
	}
	score := probability * impact
	return compliance.RiskFactor{
		Name:        name,
		Probability: probability,
		Impact:      impact,
		Score:       score,
		Level:       levelFor(score, policy),
		Mitigations: mitigations,
	}
}

func levelFor(score float64, policy RiskPolicy) compliance.RiskLevel {
	switch {
	case score >= policy.CriticalMin:
		return compliance.RiskCritical
	case score >= policy.HighMin:
		return compliance.RiskHigh
	case score >= policy.MediumMin:
		return compliance.RiskMedium
	default:
		return compliance.RiskLow
	}
}

func hasAnalysis(record *compliance.ComplianceRecord, analysis string) bool {
	for _, t := range record.TestingRequirements {
		if t.Analysis == analysis {
			return true
		}
	}
	return false
}

func hasAnalysisParameter(record *compliance.ComplianceRecord, prefix string) bool {
	for _, t := range record.TestingRequirements {
		if strings.HasPrefix(t.Analysis, prefix) {
			return true
		}
		for _, p := range t.Parameters {
			if strings.HasPrefix(p.Name, prefix) {
				return true
			}
		}
	}
	return false
}
