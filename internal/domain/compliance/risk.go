package compliance

import "time"

// RiskAssessment aggregates RiskFactor entries for a record. The overall level
// is the bucket of the maximum factor score, thresholded by market policy.
type RiskAssessment struct {
	OverallLevel RiskLevel    `json:"overall_level"`
	Factors      []RiskFactor `json:"factors"`
	AssessedAt   time.Time    `json:"assessed_at"`
}

// RiskFactor is one identified exposure. Score is always probability times
// impact severity.
type RiskFactor struct {
	Name        string    `json:"name"`
	Probability float64   `json:"probability"`
	Impact      float64   `json:"impact"`
	Score       float64   `json:"score"`
	Level       RiskLevel `json:"level"`
	Mitigations []string  `json:"mitigations"`
}

type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MaxScore returns the highest factor score in the assessment.
func (a RiskAssessment) MaxScore() float64 {
	max := 0.0
	for _, f := range a.Factors {
		if f.Score > max {
			max = f.Score
		}
	}
	return max
}
