package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	domainerrors "github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/values"
)

// StaticCatalog serves regulation and lab data from in-memory tables built
// once at construction. Entity ids are generated at construction, so repeated
// lookups on the same instance are identical.
type StaticCatalog struct {
	markets map[string]*marketData
	crops   map[string]cropProfile
}

type marketData struct {
	regulations []compliance.Regulation
	organicRegs []compliance.Regulation
	labs        []AccreditedLab
	defaults    MarketDefaults
}

type cropProfile struct {
	// analyses the crop needs on top of the market baseline
	extraAnalyses []string
}

// NewStaticCatalog builds the default market tables.
func NewStaticCatalog() *StaticCatalog {
	c := &StaticCatalog{
		markets: make(map[string]*marketData),
		crops: map[string]cropProfile{
			"cashew":    {extraAnalyses: []string{"aflatoxin"}},
			"groundnut": {extraAnalyses: []string{"aflatoxin"}},
			"sesame":    {extraAnalyses: []string{"aflatoxin", "salmonella"}},
			"cocoa":     {extraAnalyses: []string{"ochratoxin_a", "cadmium"}},
			"coffee":    {extraAnalyses: []string{"ochratoxin_a"}},
			"ginger":    {extraAnalyses: []string{"aflatoxin"}},
		},
	}

	c.markets["EU"] = euMarket()
	c.markets["US"] = usMarket()
	c.markets["UK"] = ukMarket()
	c.markets["UAE"] = uaeMarket()
	c.markets["JP"] = jpMarket()

	return c
}

// SupportedMarkets lists the markets the catalog has data for.
func (c *StaticCatalog) SupportedMarkets() []string {
	markets := make([]string, 0, len(c.markets))
	for m := range c.markets {
		markets = append(markets, m)
	}
	sort.Strings(markets)
	return markets
}

func (c *StaticCatalog) market(market string) (*marketData, error) {
	data, ok := c.markets[strings.ToUpper(market)]
	if !ok {
		return nil, domainerrors.NewCatalogUnavailableError(market, "")
	}
	return data, nil
}

// Regulations implements Catalog.
func (c *StaticCatalog) Regulations(ctx context.Context, market, crop string, organic bool) ([]compliance.Regulation, error) {
	data, err := c.market(market)
	if err != nil {
		return nil, err
	}

	if _, ok := c.crops[strings.ToLower(crop)]; !ok {
		return nil, domainerrors.NewCatalogUnavailableError(market, crop)
	}

	regs := make([]compliance.Regulation, 0, len(data.regulations)+len(data.organicRegs))
	regs = append(regs, data.regulations...)
	if organic {
		regs = append(regs, data.organicRegs...)
	}

	sort.Slice(regs, func(i, j int) bool { return regs[i].Code < regs[j].Code })
	return regs, nil
}

// AccreditedLabs implements Catalog.
func (c *StaticCatalog) AccreditedLabs(ctx context.Context, market string) ([]AccreditedLab, error) {
	data, err := c.market(market)
	if err != nil {
		return nil, err
	}
	labs := make([]AccreditedLab, len(data.labs))
	copy(labs, data.labs)
	return labs, nil
}

// MarketDefaults implements Catalog.
func (c *StaticCatalog) MarketDefaults(ctx context.Context, market string) (MarketDefaults, error) {
	data, err := c.market(market)
	if err != nil {
		return MarketDefaults{}, err
	}
	return data.defaults, nil
}

// RequiredAnalyses implements Catalog: the market baseline plus crop-specific
// additions, deduplicated and sorted.
func (c *StaticCatalog) RequiredAnalyses(ctx context.Context, market, crop string) ([]string, error) {
	data, err := c.market(market)
	if err != nil {
		return nil, err
	}

	profile, ok := c.crops[strings.ToLower(crop)]
	if !ok {
		return nil, domainerrors.NewCatalogUnavailableError(market, crop)
	}

	seen := make(map[string]bool)
	var analyses []string
	for _, a := range append(append([]string{}, data.defaults.Analyses...), profile.extraAnalyses...) {
		if !seen[a] {
			seen[a] = true
			analyses = append(analyses, a)
		}
	}
	sort.Strings(analyses)
	return analyses, nil
}

func usd(amount float64) values.Money {
	return values.MustNewMoneyFromFloat(amount, values.USD)
}

func regulation(code, title, authority, market string, reqs ...compliance.RegulationRequirement) compliance.Regulation {
	return compliance.Regulation{
		ID:           uuid.New(),
		Code:         code,
		Title:        title,
		Authority:    authority,
		Market:       market,
		Requirements: reqs,
	}
}

func requirement(description string, enforcement compliance.EnforcementLevel) compliance.RegulationRequirement {
	return compliance.RegulationRequirement{
		ID:          uuid.New(),
		Description: description,
		Enforcement: enforcement,
	}
}

func pesticideParams(mrl float64) []compliance.TestParameter {
	return []compliance.TestParameter{
		{Name: "chlorpyrifos", Unit: "mg/kg", RegulatoryLimit: mrl, Critical: true},
		{Name: "glyphosate", Unit: "mg/kg", RegulatoryLimit: 0.1, Critical: true},
		{Name: "cypermethrin", Unit: "mg/kg", RegulatoryLimit: 0.05, Critical: false},
	}
}

func aflatoxinParams(totalLimit, b1Limit float64) []compliance.TestParameter {
	return []compliance.TestParameter{
		{Name: "aflatoxin_total", Unit: "ug/kg", RegulatoryLimit: totalLimit, Critical: true},
		{Name: "aflatoxin_b1", Unit: "ug/kg", RegulatoryLimit: b1Limit, Critical: true},
	}
}

func heavyMetalParams() []compliance.TestParameter {
	return []compliance.TestParameter{
		{Name: "lead", Unit: "mg/kg", RegulatoryLimit: 0.1, Critical: true},
		{Name: "cadmium", Unit: "mg/kg", RegulatoryLimit: 0.2, Critical: false},
	}
}

func moistureParams(limit float64) []compliance.TestParameter {
	return []compliance.TestParameter{
		{Name: "moisture", Unit: "%", RegulatoryLimit: limit, Critical: false},
	}
}

func euMarket() *marketData {
	return &marketData{
		regulations: []compliance.Regulation{
			regulation("EU-2023-915", "Maximum levels for contaminants in food", "European Commission", "EU",
				requirement("Aflatoxin and ochratoxin levels within Annex I limits", compliance.EnforcementCritical),
				requirement("Heavy metal levels within Annex I limits", compliance.EnforcementMandatory),
			),
			regulation("EU-396-2005", "Maximum residue levels of pesticides", "European Commission", "EU",
				requirement("All pesticide residues below applicable MRLs", compliance.EnforcementCritical),
				requirement("Residue testing by an ISO 17025 accredited lab", compliance.EnforcementMandatory),
			),
			regulation("EU-2017-625", "Official controls on food and feed", "European Commission", "EU",
				requirement("Operator registered with competent authority", compliance.EnforcementMandatory),
				requirement("Traceability records kept for one step back, one step forward", compliance.EnforcementMandatory),
				requirement("Voluntary pre-export inspection", compliance.EnforcementAdvisory),
			),
		},
		organicRegs: []compliance.Regulation{
			regulation("EU-2018-848", "Organic production and labelling", "European Commission", "EU",
				requirement("Valid organic certificate from an EU-recognized control body", compliance.EnforcementCritical),
				requirement("Certificate of inspection in TRACES before arrival", compliance.EnforcementMandatory),
			),
		},
		labs: []AccreditedLab{
			{
				Name:          "Eurofins Food Testing",
				Accreditation: "ISO 17025 (DAkkS)",
				Country:       "DE",
				Analyses: []LabTest{
					{Analysis: "pesticide_residue", TurnaroundDays: 7, Cost: usd(320), Parameters: pesticideParams(0.01)},
					{Analysis: "aflatoxin", TurnaroundDays: 5, Cost: usd(180), Parameters: aflatoxinParams(4, 2)},
					{Analysis: "ochratoxin_a", TurnaroundDays: 5, Cost: usd(150), Parameters: []compliance.TestParameter{
						{Name: "ochratoxin_a", Unit: "ug/kg", RegulatoryLimit: 5, Critical: true},
					}},
					{Analysis: "heavy_metals", TurnaroundDays: 6, Cost: usd(210), Parameters: heavyMetalParams()},
					{Analysis: "cadmium", TurnaroundDays: 6, Cost: usd(120), Parameters: []compliance.TestParameter{
						{Name: "cadmium", Unit: "mg/kg", RegulatoryLimit: 0.8, Critical: true},
					}},
					{Analysis: "salmonella", TurnaroundDays: 4, Cost: usd(95), Parameters: []compliance.TestParameter{
						{Name: "salmonella_25g", Unit: "cfu/25g", RegulatoryLimit: 0, Critical: true},
					}},
					{Analysis: "moisture", TurnaroundDays: 2, Cost: usd(40), Parameters: moistureParams(8)},
				},
			},
		},
		defaults: MarketDefaults{
			Certifications: []CertificationSpec{
				{Scheme: "GlobalGAP", IssuingBody: "GlobalGAP Secretariat", Mandatory: true, ValidityMonths: 12, LeadDays: 60, Cost: usd(1400)},
				{Scheme: "HACCP", IssuingBody: "Accredited certification body", Mandatory: true, ValidityMonths: 36, LeadDays: 45, Cost: usd(2200)},
				{Scheme: "EU Organic", IssuingBody: "EU-recognized control body", Mandatory: true, OrganicOnly: true, ValidityMonths: 12, LeadDays: 90, Cost: usd(1800)},
			},
			Documents: []DocumentSpec{
				{Name: "Phytosanitary certificate", IssuedBy: "National plant protection organization", RequiresThirdPartyVerification: true, PrepDays: 5, Cost: usd(60)},
				{Name: "Certificate of origin", IssuedBy: "Chamber of commerce", PrepDays: 3, Cost: usd(45)},
				{Name: "Commercial invoice", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
				{Name: "Packing list", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
				{Name: "Health certificate", IssuedBy: "Competent food authority", RequiresThirdPartyVerification: true, PrepDays: 7, Cost: usd(90)},
			},
			Analyses: []string{"pesticide_residue", "heavy_metals", "moisture"},
		},
	}
}

func usMarket() *marketData {
	return &marketData{
		regulations: []compliance.Regulation{
			regulation("US-FSMA-204", "Food traceability rule", "FDA", "US",
				requirement("Traceability lot codes assigned and recorded", compliance.EnforcementMandatory),
			),
			regulation("US-FSVP", "Foreign supplier verification program", "FDA", "US",
				requirement("US importer holds a verified FSVP file for the supplier", compliance.EnforcementCritical),
				requirement("Hazard analysis available on request", compliance.EnforcementMandatory),
			),
			regulation("US-EPA-MRL", "Pesticide tolerances", "EPA", "US",
				requirement("Residues within EPA tolerance for the commodity", compliance.EnforcementCritical),
			),
		},
		organicRegs: []compliance.Regulation{
			regulation("US-NOP", "National organic program", "USDA", "US",
				requirement("NOP organic certificate from an accredited certifier", compliance.EnforcementCritical),
			),
		},
		labs: []AccreditedLab{
			{
				Name:          "SGS North America",
				Accreditation: "ISO 17025 (A2LA)",
				Country:       "US",
				Analyses: []LabTest{
					{Analysis: "pesticide_residue", TurnaroundDays: 8, Cost: usd(290), Parameters: pesticideParams(0.05)},
					{Analysis: "aflatoxin", TurnaroundDays: 6, Cost: usd(160), Parameters: aflatoxinParams(20, 20)},
					{Analysis: "ochratoxin_a", TurnaroundDays: 6, Cost: usd(140), Parameters: []compliance.TestParameter{
						{Name: "ochratoxin_a", Unit: "ug/kg", RegulatoryLimit: 10, Critical: true},
					}},
					{Analysis: "heavy_metals", TurnaroundDays: 7, Cost: usd(200), Parameters: heavyMetalParams()},
					{Analysis: "cadmium", TurnaroundDays: 7, Cost: usd(110), Parameters: []compliance.TestParameter{
						{Name: "cadmium", Unit: "mg/kg", RegulatoryLimit: 1.0, Critical: true},
					}},
					{Analysis: "salmonella", TurnaroundDays: 4, Cost: usd(90), Parameters: []compliance.TestParameter{
						{Name: "salmonella_25g", Unit: "cfu/25g", RegulatoryLimit: 0, Critical: true},
					}},
					{Analysis: "moisture", TurnaroundDays: 2, Cost: usd(35), Parameters: moistureParams(10)},
				},
			},
		},
		defaults: MarketDefaults{
			Certifications: []CertificationSpec{
				{Scheme: "HACCP", IssuingBody: "Accredited certification body", Mandatory: true, ValidityMonths: 36, LeadDays: 45, Cost: usd(2200)},
				{Scheme: "USDA Organic", IssuingBody: "USDA-accredited certifier", Mandatory: true, OrganicOnly: true, ValidityMonths: 12, LeadDays: 75, Cost: usd(1600)},
			},
			Documents: []DocumentSpec{
				{Name: "Phytosanitary certificate", IssuedBy: "National plant protection organization", RequiresThirdPartyVerification: true, PrepDays: 5, Cost: usd(60)},
				{Name: "FDA prior notice confirmation", IssuedBy: "Importer/broker", PrepDays: 2, Cost: usd(30)},
				{Name: "Commercial invoice", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
				{Name: "Packing list", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
			},
			Analyses: []string{"pesticide_residue", "moisture"},
		},
	}
}

func ukMarket() *marketData {
	return &marketData{
		regulations: []compliance.Regulation{
			regulation("UK-MRL", "Retained pesticide MRL regime", "HSE", "UK",
				requirement("Residues within GB MRLs", compliance.EnforcementCritical),
			),
			regulation("UK-CONTAM", "Retained contaminant limits", "FSA", "UK",
				requirement("Mycotoxin levels within retained EU limits", compliance.EnforcementCritical),
				requirement("Heavy metal levels within retained EU limits", compliance.EnforcementMandatory),
			),
		},
		organicRegs: []compliance.Regulation{
			regulation("UK-ORG", "GB organic regime", "Defra", "UK",
				requirement("GB organic certificate or recognized equivalence", compliance.EnforcementCritical),
			),
		},
		labs: []AccreditedLab{
			{
				Name:          "Fera Science",
				Accreditation: "ISO 17025 (UKAS)",
				Country:       "GB",
				Analyses: []LabTest{
					{Analysis: "pesticide_residue", TurnaroundDays: 7, Cost: usd(300), Parameters: pesticideParams(0.01)},
					{Analysis: "aflatoxin", TurnaroundDays: 5, Cost: usd(170), Parameters: aflatoxinParams(4, 2)},
					{Analysis: "ochratoxin_a", TurnaroundDays: 5, Cost: usd(145), Parameters: []compliance.TestParameter{
						{Name: "ochratoxin_a", Unit: "ug/kg", RegulatoryLimit: 5, Critical: true},
					}},
					{Analysis: "heavy_metals", TurnaroundDays: 6, Cost: usd(205), Parameters: heavyMetalParams()},
					{Analysis: "cadmium", TurnaroundDays: 6, Cost: usd(115), Parameters: []compliance.TestParameter{
						{Name: "cadmium", Unit: "mg/kg", RegulatoryLimit: 0.8, Critical: true},
					}},
					{Analysis: "salmonella", TurnaroundDays: 4, Cost: usd(92), Parameters: []compliance.TestParameter{
						{Name: "salmonella_25g", Unit: "cfu/25g", RegulatoryLimit: 0, Critical: true},
					}},
					{Analysis: "moisture", TurnaroundDays: 2, Cost: usd(38), Parameters: moistureParams(8)},
				},
			},
		},
		defaults: MarketDefaults{
			Certifications: []CertificationSpec{
				{Scheme: "GlobalGAP", IssuingBody: "GlobalGAP Secretariat", Mandatory: true, ValidityMonths: 12, LeadDays: 60, Cost: usd(1400)},
				{Scheme: "BRCGS Food Safety", IssuingBody: "BRCGS-approved body", Mandatory: false, ValidityMonths: 12, LeadDays: 60, Cost: usd(3000)},
				{Scheme: "GB Organic", IssuingBody: "Defra-approved control body", Mandatory: true, OrganicOnly: true, ValidityMonths: 12, LeadDays: 90, Cost: usd(1700)},
			},
			Documents: []DocumentSpec{
				{Name: "Phytosanitary certificate", IssuedBy: "National plant protection organization", RequiresThirdPartyVerification: true, PrepDays: 5, Cost: usd(60)},
				{Name: "Certificate of origin", IssuedBy: "Chamber of commerce", PrepDays: 3, Cost: usd(45)},
				{Name: "Commercial invoice", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
			},
			Analyses: []string{"pesticide_residue", "heavy_metals", "moisture"},
		},
	}
}

func uaeMarket() *marketData {
	return &marketData{
		regulations: []compliance.Regulation{
			regulation("GSO-CAC-193", "GSO contaminant standard", "GCC Standardization Organization", "UAE",
				requirement("Contaminant levels within GSO limits", compliance.EnforcementCritical),
			),
			regulation("UAE-FOOD-LAW", "Federal food safety law", "MOCCAE", "UAE",
				requirement("Consignment registered in the UAE food import system", compliance.EnforcementMandatory),
				requirement("Halal conformity where applicable", compliance.EnforcementAdvisory),
			),
		},
		organicRegs: []compliance.Regulation{
			regulation("UAE-ORG", "UAE organic input standard", "MOCCAE", "UAE",
				requirement("Recognized organic certificate", compliance.EnforcementMandatory),
			),
		},
		labs: []AccreditedLab{
			{
				Name:          "Dubai Central Laboratory",
				Accreditation: "ISO 17025 (EIAC)",
				Country:       "AE",
				Analyses: []LabTest{
					{Analysis: "pesticide_residue", TurnaroundDays: 6, Cost: usd(260), Parameters: pesticideParams(0.05)},
					{Analysis: "aflatoxin", TurnaroundDays: 5, Cost: usd(150), Parameters: aflatoxinParams(10, 5)},
					{Analysis: "ochratoxin_a", TurnaroundDays: 5, Cost: usd(130), Parameters: []compliance.TestParameter{
						{Name: "ochratoxin_a", Unit: "ug/kg", RegulatoryLimit: 10, Critical: true},
					}},
					{Analysis: "heavy_metals", TurnaroundDays: 6, Cost: usd(190), Parameters: heavyMetalParams()},
					{Analysis: "cadmium", TurnaroundDays: 6, Cost: usd(105), Parameters: []compliance.TestParameter{
						{Name: "cadmium", Unit: "mg/kg", RegulatoryLimit: 1.0, Critical: true},
					}},
					{Analysis: "salmonella", TurnaroundDays: 4, Cost: usd(85), Parameters: []compliance.TestParameter{
						{Name: "salmonella_25g", Unit: "cfu/25g", RegulatoryLimit: 0, Critical: true},
					}},
					{Analysis: "moisture", TurnaroundDays: 2, Cost: usd(30), Parameters: moistureParams(10)},
				},
			},
		},
		defaults: MarketDefaults{
			Certifications: []CertificationSpec{
				{Scheme: "HACCP", IssuingBody: "Accredited certification body", Mandatory: true, ValidityMonths: 36, LeadDays: 45, Cost: usd(2200)},
			},
			Documents: []DocumentSpec{
				{Name: "Phytosanitary certificate", IssuedBy: "National plant protection organization", RequiresThirdPartyVerification: true, PrepDays: 5, Cost: usd(60)},
				{Name: "Certificate of origin", IssuedBy: "Chamber of commerce", PrepDays: 3, Cost: usd(45)},
				{Name: "Halal certificate", IssuedBy: "Recognized halal body", RequiresThirdPartyVerification: true, PrepDays: 10, Cost: usd(250)},
				{Name: "Commercial invoice", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
			},
			Analyses: []string{"pesticide_residue", "moisture"},
		},
	}
}

func jpMarket() *marketData {
	return &marketData{
		regulations: []compliance.Regulation{
			regulation("JP-POSITIVE-LIST", "Positive list system for agricultural chemicals", "MHLW", "JP",
				requirement("All residues within positive-list limits; default 0.01 mg/kg", compliance.EnforcementCritical),
			),
			regulation("JP-FOOD-SANITATION", "Food sanitation act", "MHLW", "JP",
				requirement("Import notification filed with quarantine station", compliance.EnforcementMandatory),
			),
		},
		organicRegs: []compliance.Regulation{
			regulation("JP-JAS", "Japanese agricultural standard for organic", "MAFF", "JP",
				requirement("JAS organic certification or recognized equivalence", compliance.EnforcementCritical),
			),
		},
		labs: []AccreditedLab{
			{
				Name:          "Japan Food Research Laboratories",
				Accreditation: "ISO 17025 (IAJapan)",
				Country:       "JP",
				Analyses: []LabTest{
					{Analysis: "pesticide_residue", TurnaroundDays: 9, Cost: usd(340), Parameters: pesticideParams(0.01)},
					{Analysis: "aflatoxin", TurnaroundDays: 6, Cost: usd(175), Parameters: aflatoxinParams(10, 10)},
					{Analysis: "ochratoxin_a", TurnaroundDays: 6, Cost: usd(150), Parameters: []compliance.TestParameter{
						{Name: "ochratoxin_a", Unit: "ug/kg", RegulatoryLimit: 10, Critical: true},
					}},
					{Analysis: "heavy_metals", TurnaroundDays: 7, Cost: usd(215), Parameters: heavyMetalParams()},
					{Analysis: "cadmium", TurnaroundDays: 7, Cost: usd(120), Parameters: []compliance.TestParameter{
						{Name: "cadmium", Unit: "mg/kg", RegulatoryLimit: 0.4, Critical: true},
					}},
					{Analysis: "salmonella", TurnaroundDays: 4, Cost: usd(95), Parameters: []compliance.TestParameter{
						{Name: "salmonella_25g", Unit: "cfu/25g", RegulatoryLimit: 0, Critical: true},
					}},
					{Analysis: "moisture", TurnaroundDays: 2, Cost: usd(42), Parameters: moistureParams(9)},
				},
			},
		},
		defaults: MarketDefaults{
			Certifications: []CertificationSpec{
				{Scheme: "HACCP", IssuingBody: "Accredited certification body", Mandatory: true, ValidityMonths: 36, LeadDays: 45, Cost: usd(2200)},
				{Scheme: "JAS Organic", IssuingBody: "MAFF-registered certifier", Mandatory: true, OrganicOnly: true, ValidityMonths: 12, LeadDays: 100, Cost: usd(2000)},
			},
			Documents: []DocumentSpec{
				{Name: "Phytosanitary certificate", IssuedBy: "National plant protection organization", RequiresThirdPartyVerification: true, PrepDays: 5, Cost: usd(60)},
				{Name: "Import notification", IssuedBy: "Importer/broker", PrepDays: 3, Cost: usd(40)},
				{Name: "Commercial invoice", IssuedBy: "Exporter", PrepDays: 1, Cost: usd(0)},
			},
			Analyses: []string{"pesticide_residue", "moisture"},
		},
	}
}
