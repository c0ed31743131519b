package compliance

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
)

// ReadinessResult is the outcome of the export readiness gate. The gate is
// point-based and weighted independently from the display score.
type ReadinessResult struct {
	Ready           bool                 `json:"ready"`
	Points          int                  `json:"points"`
	Score           int                  `json:"score"`
	Status          string               `json:"status"`
	Expired         bool                 `json:"expired"`
	CriticalIssues  []string             `json:"critical_issues"`
	Warnings        []string             `json:"warnings"`
	RequiredActions []string             `json:"required_actions"`
	Authorization   *ExportAuthorization `json:"authorization,omitempty"`
}

// ExportAuthorization is advisory output data issued when a record passes the
// gate. It carries no cryptographic guarantee and is not a security credential.
type ExportAuthorization struct {
	Number     string    `json:"number"`
	RecordID   uuid.UUID `json:"record_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ValidUntil time.Time `json:"valid_until"`
	Conditions []string  `json:"conditions,omitempty"`
}

// validateReadiness runs the point gate over an already-refreshed record.
func validateReadiness(record *compliance.ComplianceRecord, policies Policies, now time.Time) *ReadinessResult {
	result := &ReadinessResult{
		CriticalIssues:  []string{},
		Warnings:        []string{},
		RequiredActions: []string{},
	}
	policy := policies.Readiness

	if record.IsExpired(now) {
		result.Expired = true
		result.CriticalIssues = append(result.CriticalIssues,
			"compliance record has expired and must be rebuilt before export")
		result.RequiredActions = append(result.RequiredActions,
			"re-initialize the compliance record for this batch, market and buyer")
	}

	if pending := pendingMandatoryCertifications(record); len(pending) == 0 {
		result.Points += policy.CertificationPoints
	} else {
		result.CriticalIssues = append(result.CriticalIssues,
			fmt.Sprintf("%d mandatory certification(s) not approved: %s", len(pending), strings.Join(pending, ", ")))
		result.RequiredActions = append(result.RequiredActions,
			"complete certification applications: "+strings.Join(pending, ", "))
	}

	if pending := nonCompliantTests(record); len(pending) == 0 {
		result.Points += policy.TestingPoints
	} else {
		result.CriticalIssues = append(result.CriticalIssues,
			fmt.Sprintf("%d testing requirement(s) not compliant: %s", len(pending), strings.Join(pending, ", ")))
		result.RequiredActions = append(result.RequiredActions,
			"complete compliant lab results for: "+strings.Join(pending, ", "))
	}

	if pending := unapprovedDocuments(record); len(pending) == 0 {
		result.Points += policy.DocumentationPoints
	} else {
		// Documents alone don't block; they surface as warnings.
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d document(s) not approved: %s", len(pending), strings.Join(pending, ", ")))
		result.RequiredActions = append(result.RequiredActions,
			"obtain approval for documents: "+strings.Join(pending, ", "))
	}

	if pending := incompleteMandatoryChecklist(record); pending == 0 {
		result.Points += policy.ChecklistPoints
	} else {
		result.CriticalIssues = append(result.CriticalIssues,
			fmt.Sprintf("%d mandatory checklist item(s) incomplete", pending))
		result.RequiredActions = append(result.RequiredActions,
			"complete the remaining mandatory checklist items")
	}

	if record.Risk.OverallLevel != compliance.RiskCritical {
		result.Points += policy.RiskPoints
	} else {
		result.CriticalIssues = append(result.CriticalIssues,
			"overall risk level is critical; mitigate before export")
		result.RequiredActions = append(result.RequiredActions,
			"execute mitigation strategies for the critical risk factors")
	}

	if result.Points < policy.ReadyThreshold {
		result.CriticalIssues = append(result.CriticalIssues,
			fmt.Sprintf("readiness score %d is below the export threshold %d", result.Points, policy.ReadyThreshold))
	}

	result.Ready = result.Points >= policy.ReadyThreshold && len(result.CriticalIssues) == 0

	if result.Ready {
		result.Authorization = &ExportAuthorization{
			Number:     authorizationNumber(record.Market),
			RecordID:   record.ID,
			IssuedAt:   now,
			ValidUntil: now.AddDate(0, 0, policy.AuthorizationValidityDays),
			Conditions: append([]string{}, result.Warnings...),
		}
	}

	return result
}

func authorizationNumber(market string) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("EXP-%s-%s", market, token[:10])
}

func pendingMandatoryCertifications(record *compliance.ComplianceRecord) []string {
	var pending []string
	for _, cert := range record.Certifications {
		if cert.Mandatory && !cert.IsApproved() {
			pending = append(pending, cert.Scheme)
		}
	}
	return pending
}

func nonCompliantTests(record *compliance.ComplianceRecord) []string {
	var pending []string
	for _, t := range record.TestingRequirements {
		if !t.IsCompliant() {
			pending = append(pending, t.Analysis)
		}
	}
	return pending
}

func unapprovedDocuments(record *compliance.ComplianceRecord) []string {
	var pending []string
	for _, d := range record.Documentation {
		if !d.IsApproved() {
			pending = append(pending, d.Name)
		}
	}
	return pending
}

func incompleteMandatoryChecklist(record *compliance.ComplianceRecord) int {
	n := 0
	for _, item := range record.Checklist {
		if item.Mandatory && !item.IsComplete() {
			n++
		}
	}
	return n
}
