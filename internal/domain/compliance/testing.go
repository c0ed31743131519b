package compliance

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// TestingRequirement is one lab analysis a batch must pass, sourced from the
// regulations of the destination market and an accredited lab that can run it.
type TestingRequirement struct {
	ID               uuid.UUID       `json:"id"`
	Analysis         string          `json:"analysis"`
	LabName          string          `json:"lab_name"`
	LabAccreditation string          `json:"lab_accreditation"`
	Status           TestingStatus   `json:"status"`
	Parameters       []TestParameter `json:"parameters"`
	Results          []TestResult    `json:"results"`
	ComplianceMet    bool            `json:"compliance_met"`
	TurnaroundDays   int             `json:"turnaround_days"`
	EstimatedCost    values.Money    `json:"estimated_cost"`
	ActualCost       values.Money    `json:"actual_cost"`
	ScheduledAt      *time.Time      `json:"scheduled_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
}

// TestParameter defines one measured value and its regulatory limit. Critical
// parameters fail the whole requirement immediately when exceeded.
type TestParameter struct {
	Name            string  `json:"name"`
	Unit            string  `json:"unit"`
	RegulatoryLimit float64 `json:"regulatory_limit"`
	Critical        bool    `json:"critical"`
}

// TestResult is one submitted measurement for a parameter.
type TestResult struct {
	Parameter   string    `json:"parameter"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit"`
	WithinLimit bool      `json:"within_limit"`
	ReportedBy  string    `json:"reported_by,omitempty"`
	ReportedAt  time.Time `json:"reported_at"`
}

type TestingStatus int

const (
	TestingNotScheduled TestingStatus = iota
	TestingScheduled
	TestingSampling
	TestingInProgress
	TestingCompleted
	TestingFailed
)

func (s TestingStatus) String() string {
	switch s {
	case TestingNotScheduled:
		return "not_scheduled"
	case TestingScheduled:
		return "scheduled"
	case TestingSampling:
		return "sampling"
	case TestingInProgress:
		return "testing"
	case TestingCompleted:
		return "completed"
	case TestingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var testingTransitions = map[TestingStatus][]TestingStatus{
	TestingNotScheduled: {TestingScheduled},
	TestingScheduled:    {TestingSampling},
	TestingSampling:     {TestingInProgress},
	TestingInProgress:   {},
	TestingCompleted:    {},
	TestingFailed:       {},
}

// Advance moves the requirement through its pre-result stages. Completed and
// failed are reached only through result submission.
func (t *TestingRequirement) Advance(target TestingStatus, now time.Time) error {
	if target == t.Status {
		return nil
	}

	allowed := false
	for _, next := range testingTransitions[t.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return domainerrors.NewInvalidTransitionError("testing", t.Status.String(), target.String())
	}

	if target == TestingScheduled {
		t.ScheduledAt = &now
	}
	t.Status = target
	return nil
}

func (t *TestingRequirement) parameter(name string) (TestParameter, bool) {
	for _, p := range t.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return TestParameter{}, false
}

// SubmitResult records a measurement for one parameter. The value is validated
// against the parameter's regulatory limit at insertion time. A critical
// parameter over its limit flips the requirement to failed immediately, even
// while other results are pending. Resubmitting the same parameter replaces
// the earlier result, which keeps repeated payloads idempotent.
func (t *TestingRequirement) SubmitResult(parameter string, value float64, reportedBy string, now time.Time) error {
	if t.Status == TestingCompleted {
		return domainerrors.NewInvalidTransitionError("testing", t.Status.String(), "result submission")
	}

	param, ok := t.parameter(parameter)
	if !ok {
		return domainerrors.NewUnknownItemError("testing parameter", parameter)
	}

	result := TestResult{
		Parameter:   parameter,
		Value:       value,
		Unit:        param.Unit,
		WithinLimit: value <= param.RegulatoryLimit,
		ReportedBy:  reportedBy,
		ReportedAt:  now,
	}

	replaced := false
	for i := range t.Results {
		if t.Results[i].Parameter == parameter {
			t.Results[i] = result
			replaced = true
			break
		}
	}
	if !replaced {
		t.Results = append(t.Results, result)
	}

	if param.Critical && !result.WithinLimit {
		t.Status = TestingFailed
		t.ComplianceMet = false
		return nil
	}

	t.refreshCompletion(now)
	return nil
}

// refreshCompletion settles status once every expected result is in:
// completed when all results are within limits, failed otherwise.
func (t *TestingRequirement) refreshCompletion(now time.Time) {
	if len(t.Results) < len(t.Parameters) {
		t.ComplianceMet = false
		return
	}

	allWithin := true
	for _, r := range t.Results {
		if !r.WithinLimit {
			allWithin = false
			break
		}
	}

	t.ComplianceMet = allWithin
	if allWithin {
		t.Status = TestingCompleted
	} else {
		t.Status = TestingFailed
	}
	t.CompletedAt = &now
}

// IsCompliant reports whether the requirement is fully satisfied.
func (t *TestingRequirement) IsCompliant() bool {
	return t.Status == TestingCompleted && t.ComplianceMet
}
