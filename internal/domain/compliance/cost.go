package compliance

import (
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// CostBreakdown is the record's budget ledger. Category estimates are frozen
// at build time; actuals are recomputed from what the sub-ledgers report, so
// re-applying an update never double-counts spend.
type CostBreakdown struct {
	Currency string `json:"currency"`

	Estimated CostCategories `json:"estimated"`
	Actual    CostCategories `json:"actual"`

	TotalEstimated values.Money `json:"total_estimated"`
	TotalActual    values.Money `json:"total_actual"`
	BudgetVariance values.Money `json:"budget_variance"`
}

// CostCategories holds the per-category amounts.
type CostCategories struct {
	CertificationFees values.Money `json:"certification_fees"`
	Testing           values.Money `json:"testing"`
	Documentation     values.Money `json:"documentation"`
	Inspection        values.Money `json:"inspection"`
	Consulting        values.Money `json:"consulting"`
	Training          values.Money `json:"training"`
	Contingency       values.Money `json:"contingency"`
}

// Total sums all categories.
func (c CostCategories) Total(currency string) values.Money {
	total := values.Zero(currency)
	for _, m := range []values.Money{
		c.CertificationFees, c.Testing, c.Documentation,
		c.Inspection, c.Consulting, c.Training, c.Contingency,
	} {
		if !m.IsZero() {
			total = total.MustAdd(m)
		}
	}
	return total
}

// Refresh recomputes actual totals and variance from the record's sub-ledgers.
// Estimates are never touched after build.
func (c *CostBreakdown) Refresh(record *ComplianceRecord) {
	currency := c.Currency

	certActual := values.Zero(currency)
	for _, cert := range record.Certifications {
		if !cert.ActualCost.IsZero() {
			certActual = certActual.MustAdd(cert.ActualCost)
		}
	}

	testActual := values.Zero(currency)
	for _, test := range record.TestingRequirements {
		if !test.ActualCost.IsZero() {
			testActual = testActual.MustAdd(test.ActualCost)
		}
	}

	docActual := values.Zero(currency)
	for _, doc := range record.Documentation {
		if !doc.ActualCost.IsZero() {
			docActual = docActual.MustAdd(doc.ActualCost)
		}
	}

	c.Actual.CertificationFees = certActual
	c.Actual.Testing = testActual
	c.Actual.Documentation = docActual

	c.TotalActual = c.Actual.Total(currency)
	c.BudgetVariance = c.TotalActual.MustSub(c.TotalEstimated)
}
