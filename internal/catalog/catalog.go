package catalog

import (
	"context"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// Catalog is the read-only source of per-market regulation and lab data used
// at record build time. Implementations are pure and deterministic for the
// same inputs and never return partial results: an unknown market yields a
// CATALOG_DATA_UNAVAILABLE error, never an empty list, so callers can tell
// "compliant with zero rules" from "data unavailable".
type Catalog interface {
	// Regulations returns the applicable regulations for a crop shipped to a
	// market, ordered by regulation code.
	Regulations(ctx context.Context, market, crop string, organic bool) ([]compliance.Regulation, error)

	// AccreditedLabs returns the labs accredited for a market with their
	// per-analysis turnaround and cost tables.
	AccreditedLabs(ctx context.Context, market string) ([]AccreditedLab, error)

	// MarketDefaults returns the certification and documentation baseline a
	// market expects regardless of individual regulations.
	MarketDefaults(ctx context.Context, market string) (MarketDefaults, error)

	// RequiredAnalyses returns the lab analyses a crop needs for a market:
	// the market baseline plus crop-specific additions.
	RequiredAnalyses(ctx context.Context, market, crop string) ([]string, error)
}

// AccreditedLab is an external testing facility recognized by an
// accreditation body, with the analyses it can run.
type AccreditedLab struct {
	Name          string    `json:"name"`
	Accreditation string    `json:"accreditation"`
	Country       string    `json:"country"`
	Analyses      []LabTest `json:"analyses"`
}

// LabTest is one analysis offered by a lab.
type LabTest struct {
	Analysis       string                     `json:"analysis"`
	TurnaroundDays int                        `json:"turnaround_days"`
	Cost           values.Money               `json:"cost"`
	Parameters     []compliance.TestParameter `json:"parameters"`
}

// MarketDefaults is the baseline requirement set of a destination market.
type MarketDefaults struct {
	Certifications []CertificationSpec `json:"certifications"`
	Documents      []DocumentSpec      `json:"documents"`
	Analyses       []string            `json:"analyses"`
}

// CertificationSpec describes one certification scheme a market expects.
type CertificationSpec struct {
	Scheme         string       `json:"scheme"`
	IssuingBody    string       `json:"issuing_body"`
	Mandatory      bool         `json:"mandatory"`
	OrganicOnly    bool         `json:"organic_only"`
	ValidityMonths int          `json:"validity_months"`
	LeadDays       int          `json:"lead_days"`
	Cost           values.Money `json:"cost"`
}

// DocumentSpec describes one export document a market requires.
type DocumentSpec struct {
	Name                           string       `json:"name"`
	IssuedBy                       string       `json:"issued_by"`
	RequiresThirdPartyVerification bool         `json:"requires_third_party_verification"`
	PrepDays                       int          `json:"prep_days"`
	Cost                           values.Money `json:"cost"`
}
