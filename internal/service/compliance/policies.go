package compliance

import "time"

// Policies bundles the tunable policy tables of the engine. Values are
// deployment configuration, not hard-coded constants, so markets can tune
// thresholds without code changes.
type Policies struct {
	Scoring   ScoringPolicy   `json:"scoring"`
	Risk      RiskPolicy      `json:"risk"`
	Readiness ReadinessPolicy `json:"readiness"`
	Timeline  TimelinePolicy  `json:"timeline"`
	Record    RecordPolicy    `json:"record"`
}

// ScoringPolicy drives the weighted compliance score and the status buckets.
type ScoringPolicy struct {
	ChecklistWeight     int `json:"checklist_weight"`
	CertificationWeight int `json:"certification_weight"`
	TestingWeight       int `json:"testing_weight"`
	DocumentationWeight int `json:"documentation_weight"`

	CompliantMin   int `json:"compliant_min"`
	ConditionalMin int `json:"conditional_min"`
	InProgressMin  int `json:"in_progress_min"`

	// FullCreditEmptyLedgers awards an empty sub-ledger its full weight
	// bucket instead of zero. Default false: an empty bucket contributes
	// nothing, which is deliberately conservative for low-regulation markets.
	FullCreditEmptyLedgers bool `json:"full_credit_empty_ledgers"`
}

// RiskPolicy holds the thresholds mapping a factor score to a risk level.
type RiskPolicy struct {
	MediumMin   float64 `json:"medium_min"`
	HighMin     float64 `json:"high_min"`
	CriticalMin float64 `json:"critical_min"`
}

// ReadinessPolicy drives the point-based export readiness gate, weighted
// independently from the display score.
type ReadinessPolicy struct {
	CertificationPoints int `json:"certification_points"`
	TestingPoints       int `json:"testing_points"`
	DocumentationPoints int `json:"documentation_points"`
	ChecklistPoints     int `json:"checklist_points"`
	RiskPoints          int `json:"risk_points"`

	ReadyThreshold            int `json:"ready_threshold"`
	AuthorizationValidityDays int `json:"authorization_validity_days"`
}

// TimelinePolicy tunes milestone scheduling and completion weighting.
type TimelinePolicy struct {
	// CriticalWeight is the completion weight of a critical milestone
	// relative to weight 1.0 for the rest.
	CriticalWeight float64 `json:"critical_weight"`

	PreparationDays int `json:"preparation_days"`
	ClearanceDays   int `json:"clearance_days"`
	SamplingBuffer  int `json:"sampling_buffer_days"`
}

// RecordPolicy covers record lifecycle.
type RecordPolicy struct {
	Validity time.Duration `json:"validity"`
}

// DefaultPolicies returns the production defaults.
func DefaultPolicies() Policies {
	return Policies{
		Scoring: ScoringPolicy{
			ChecklistWeight:     40,
			CertificationWeight: 30,
			TestingWeight:       20,
			DocumentationWeight: 10,
			CompliantMin:        95,
			ConditionalMin:      80,
			InProgressMin:       50,
		},
		Risk: RiskPolicy{
			MediumMin:   2.0,
			HighMin:     3.0,
			CriticalMin: 4.0,
		},
		Readiness: ReadinessPolicy{
			CertificationPoints:       30,
			TestingPoints:             25,
			DocumentationPoints:       20,
			ChecklistPoints:           15,
			RiskPoints:                10,
			ReadyThreshold:            90,
			AuthorizationValidityDays: 180,
		},
		Timeline: TimelinePolicy{
			CriticalWeight:  2.0,
			PreparationDays: 7,
			ClearanceDays:   3,
			SamplingBuffer:  5,
		},
		Record: RecordPolicy{
			Validity: 365 * 24 * time.Hour,
		},
	}
}
