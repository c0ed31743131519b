package compliance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Batch describes the product batch a record is built for. Supplied by the
// intake surfaces; the engine never mutates it.
type Batch struct {
	ID         string  `json:"id"`
	CropType   string  `json:"crop_type"`
	QuantityKg float64 `json:"quantity_kg"`
	Organic    bool    `json:"organic"`
	FarmerID   string  `json:"farmer_id,omitempty"`
	Region     string  `json:"region,omitempty"`
}

// ComplianceRecord is the root entity: the living compliance state for one
// (batch, destination market, buyer) triple. It is the unit of update
// atomicity; all mutation entry points operate on one record id.
type ComplianceRecord struct {
	ID      uuid.UUID `json:"id"`
	Batch   Batch     `json:"batch"`
	Market  string    `json:"market"`
	BuyerID string    `json:"buyer_id"`

	Status Status `json:"status"`
	Score  int    `json:"score"`

	Regulations         []Regulation               `json:"regulations"`
	Certifications      []Certification            `json:"certifications"`
	TestingRequirements []TestingRequirement       `json:"testing_requirements"`
	Documentation       []DocumentationRequirement `json:"documentation"`
	Checklist           []ChecklistItem            `json:"checklist"`
	Risk                RiskAssessment             `json:"risk"`
	Timeline            Timeline                   `json:"timeline"`
	Costs               CostBreakdown              `json:"costs"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Status int

const (
	StatusPending Status = iota
	StatusNonCompliant
	StatusInProgress
	StatusConditional
	StatusCompliant
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusNonCompliant:
		return "non_compliant"
	case StatusInProgress:
		return "in_progress"
	case StatusConditional:
		return "conditional"
	case StatusCompliant:
		return "compliant"
	default:
		return "unknown"
	}
}

// TripleKey identifies the (batch, market, buyer) a record is built for.
// Exactly one live record exists per triple.
func (r *ComplianceRecord) TripleKey() string {
	return TripleKey(r.Batch.ID, r.Market, r.BuyerID)
}

func TripleKey(batchID, market, buyerID string) string {
	return fmt.Sprintf("%s|%s|%s", batchID, market, buyerID)
}

// IsExpired reports whether the record is past its validity window. Evaluated
// lazily on read; expired records are rebuilt, never reused.
func (r *ComplianceRecord) IsExpired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// RefreshExpiries lazily expires approved certifications whose expiry dates
// have passed. Returns true if anything changed.
func (r *ComplianceRecord) RefreshExpiries(now time.Time) bool {
	changed := false
	for i := range r.Certifications {
		if r.Certifications[i].RefreshExpiry(now) {
			changed = true
		}
	}
	return changed
}

// FindCertification returns the certification with the given id, or nil.
func (r *ComplianceRecord) FindCertification(id uuid.UUID) *Certification {
	for i := range r.Certifications {
		if r.Certifications[i].ID == id {
			return &r.Certifications[i]
		}
	}
	return nil
}

// FindTestingRequirement returns the testing requirement with the given id, or nil.
func (r *ComplianceRecord) FindTestingRequirement(id uuid.UUID) *TestingRequirement {
	for i := range r.TestingRequirements {
		if r.TestingRequirements[i].ID == id {
			return &r.TestingRequirements[i]
		}
	}
	return nil
}

// FindDocument returns the documentation requirement with the given id, or nil.
func (r *ComplianceRecord) FindDocument(id uuid.UUID) *DocumentationRequirement {
	for i := range r.Documentation {
		if r.Documentation[i].ID == id {
			return &r.Documentation[i]
		}
	}
	return nil
}

// FindChecklistItem returns the checklist item with the given id, or nil.
func (r *ComplianceRecord) FindChecklistItem(id uuid.UUID) *ChecklistItem {
	for i := range r.Checklist {
		if r.Checklist[i].ID == id {
			return &r.Checklist[i]
		}
	}
	return nil
}

// Clone returns a deep copy of the record via its JSON form. Stores hand out
// clones so callers can never mutate shared state outside ApplyUpdate.
func (r *ComplianceRecord) Clone() (*ComplianceRecord, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("clone compliance record: %w", err)
	}
	var copied ComplianceRecord
	if err := json.Unmarshal(raw, &copied); err != nil {
		return nil, fmt.Errorf("clone compliance record: %w", err)
	}
	return &copied, nil
}
