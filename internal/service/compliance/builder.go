package compliance

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/harvestlane/agri-export-compliance-backend/internal/catalog"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// InitializeRequest is the input to record construction.
type InitializeRequest struct {
	Batch        compliance.Batch `json:"batch"`
	Market       string           `json:"market"`
	BuyerID      string           `json:"buyer_id"`
	Requirements []string         `json:"requirements,omitempty"`
}

// buildRecord assembles a complete record from catalog data in dependency
// order: regulations, certifications, documents, tests, checklist, risk,
// timeline, costs. Fail-closed: any catalog miss aborts the whole build and
// nothing is persisted.
func (e *Engine) buildRecord(ctx context.Context, req InitializeRequest, now time.Time) (*compliance.ComplianceRecord, error) {
	market := strings.ToUpper(req.Market)

	regulations, err := e.catalog.Regulations(ctx, market, req.Batch.CropType, req.Batch.Organic)
	if err != nil {
		return nil, err
	}

	defaults, err := e.catalog.MarketDefaults(ctx, market)
	if err != nil {
		return nil, err
	}

	labs, err := e.catalog.AccreditedLabs(ctx, market)
	if err != nil {
		return nil, err
	}

	analyses, err := e.catalog.RequiredAnalyses(ctx, market, req.Batch.CropType)
	if err != nil {
		return nil, err
	}

	record := &compliance.ComplianceRecord{
		ID:          uuid.New(),
		Batch:       req.Batch,
		Market:      market,
		BuyerID:     req.BuyerID,
		Status:      compliance.StatusPending,
		Score:       0,
		Regulations: regulations,
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(e.policies.Record.Validity),
	}

	record.Certifications = buildCertifications(defaults, req.Batch.Organic, now)
	record.Documentation = buildDocumentation(defaults, now)

	record.TestingRequirements, err = buildTestingRequirements(analyses, labs, market)
	if err != nil {
		return nil, err
	}

	record.Checklist = buildChecklist(record, req.Requirements)
	record.Risk = assessRisk(record, e.policies.Risk, now)
	record.Timeline = buildTimeline(record, e.policies.Timeline, now)
	record.Costs = buildCosts(record)

	e.logger.Info("compliance record built",
		zap.String("record_id", record.ID.String()),
		zap.String("batch_id", req.Batch.ID),
		zap.String("market", market),
		zap.Int("regulations", len(record.Regulations)),
		zap.Int("certifications", len(record.Certifications)),
		zap.Int("tests", len(record.TestingRequirements)),
		zap.Int("documents", len(record.Documentation)),
		zap.Int("checklist_items", len(record.Checklist)),
	)

	return record, nil
}

func buildCertifications(defaults catalog.MarketDefaults, organic bool, now time.Time) []compliance.Certification {
	var certs []compliance.Certification
	for _, spec := range defaults.Certifications {
		if spec.OrganicOnly && !organic {
			continue
		}
		certs = append(certs, compliance.Certification{
			ID:                uuid.New(),
			Scheme:            spec.Scheme,
			IssuingBody:       spec.IssuingBody,
			Status:            compliance.CertificationNotStarted,
			Mandatory:         spec.Mandatory,
			ValidityMonths:    spec.ValidityMonths,
			EstimatedLeadDays: spec.LeadDays,
			EstimatedCost:     spec.Cost,
			ActualCost:        values.Zero(values.USD),
			LastTransitionAt:  now,
		})
	}
	return certs
}

func buildDocumentation(defaults catalog.MarketDefaults, now time.Time) []compliance.DocumentationRequirement {
	var docs []compliance.DocumentationRequirement
	for _, spec := range defaults.Documents {
		docs = append(docs, compliance.DocumentationRequirement{
			ID:                             uuid.New(),
			Name:                           spec.Name,
			IssuedBy:                       spec.IssuedBy,
			Status:                         compliance.DocumentationNotStarted,
			RequiresThirdPartyVerification: spec.RequiresThirdPartyVerification,
			VerificationStatus:             compliance.VerificationNone,
			EstimatedPrepDays:              spec.PrepDays,
			EstimatedCost:                  spec.Cost,
			ActualCost:                     values.Zero(values.USD),
			UpdatedAt:                      now,
		})
	}
	return docs
}

// buildTestingRequirements pairs each required analysis with the accredited
// lab offering the shortest turnaround for it.
func buildTestingRequirements(analyses []string, labs []catalog.AccreditedLab, market string) ([]compliance.TestingRequirement, error) {
	var tests []compliance.TestingRequirement
	for _, analysis := range analyses {
		var (
			bestLab  *catalog.AccreditedLab
			bestTest catalog.LabTest
			found    bool
		)
		for i := range labs {
			for _, lt := range labs[i].Analyses {
				if lt.Analysis != analysis {
					continue
				}
				if !found || lt.TurnaroundDays < bestTest.TurnaroundDays {
					bestLab = &labs[i]
					bestTest = lt
					found = true
				}
			}
		}
		if !found {
			return nil, domainerrors.NewCatalogUnavailableError(market, analysis)
		}

		tests = append(tests, compliance.TestingRequirement{
			ID:               uuid.New(),
			Analysis:         analysis,
			LabName:          bestLab.Name,
			LabAccreditation: bestLab.Accreditation,
			Status:           compliance.TestingNotScheduled,
			Parameters:       bestTest.Parameters,
			TurnaroundDays:   bestTest.TurnaroundDays,
			EstimatedCost:    bestTest.Cost,
			ActualCost:       values.Zero(values.USD),
		})
	}
	return tests, nil
}

// buildChecklist generates the fixed item set: one item per binding
// regulation requirement, one per certification, one per buyer requirement.
func buildChecklist(record *compliance.ComplianceRecord, buyerRequirements []string) []compliance.ChecklistItem {
	var items []compliance.ChecklistItem

	for _, reg := range record.Regulations {
		for _, req := range reg.BindingRequirements() {
			items = append(items, compliance.ChecklistItem{
				ID:          uuid.New(),
				Description: reg.Code + ": " + req.Description,
				Source:      compliance.ChecklistSourceRegulation,
				SourceID:    req.ID,
				Mandatory:   true,
				Status:      compliance.ChecklistNotStarted,
			})
		}
	}

	for _, cert := range record.Certifications {
		items = append(items, compliance.ChecklistItem{
			ID:          uuid.New(),
			Description: "Obtain " + cert.Scheme + " certification",
			Source:      compliance.ChecklistSourceCertification,
			SourceID:    cert.ID,
			Mandatory:   cert.Mandatory,
			Status:      compliance.ChecklistNotStarted,
		})
	}

	for _, req := range buyerRequirements {
		req = strings.TrimSpace(req)
		if req == "" {
			continue
		}
		items = append(items, compliance.ChecklistItem{
			ID:          uuid.New(),
			Description: "Buyer requirement: " + req,
			Source:      compliance.ChecklistSourceBuyer,
			Mandatory:   true,
			Status:      compliance.ChecklistNotStarted,
		})
	}

	return items
}

// buildCosts freezes category estimates from the sub-ledgers. Inspection,
// consulting and training are flat allowances; contingency is 10% of the
// subtotal.
func buildCosts(record *compliance.ComplianceRecord) compliance.CostBreakdown {
	currency := values.USD

	certEst := values.Zero(currency)
	for _, c := range record.Certifications {
		certEst = certEst.MustAdd(c.EstimatedCost)
	}

	testEst := values.Zero(currency)
	for _, t := range record.TestingRequirements {
		testEst = testEst.MustAdd(t.EstimatedCost)
	}

	docEst := values.Zero(currency)
	for _, d := range record.Documentation {
		docEst = docEst.MustAdd(d.EstimatedCost)
	}

	estimated := compliance.CostCategories{
		CertificationFees: certEst,
		Testing:           testEst,
		Documentation:     docEst,
		Inspection:        values.MustNewMoneyFromFloat(150, currency),
		Consulting:        values.MustNewMoneyFromFloat(300, currency),
		Training:          values.MustNewMoneyFromFloat(200, currency),
	}

	subtotal := estimated.Total(currency)
	estimated.Contingency = values.MustNewMoney(subtotal.Amount().Mul(decimal.NewFromFloat(0.10)), currency)

	costs := compliance.CostBreakdown{
		Currency:  currency,
		Estimated: estimated,
		Actual: compliance.CostCategories{
			CertificationFees: values.Zero(currency),
			Testing:           values.Zero(currency),
			Documentation:     values.Zero(currency),
			Inspection:        values.Zero(currency),
			Consulting:        values.Zero(currency),
			Training:          values.Zero(currency),
			Contingency:       values.Zero(currency),
		},
		TotalEstimated: estimated.Total(currency),
		TotalActual:    values.Zero(currency),
	}
	costs.BudgetVariance = costs.TotalActual.MustSub(costs.TotalEstimated)
	return costs
}
