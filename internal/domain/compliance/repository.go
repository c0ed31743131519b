package compliance

import (
	"context"

	"github.com/google/uuid"
)

// RecordStore is the persistence boundary for compliance records. It is
// constructed once at process start and passed by reference into the engine;
// the engine serializes mutation per record id on top of it.
type RecordStore interface {
	// Get retrieves a record by id. Returns a RECORD_NOT_FOUND error when
	// the id is unknown.
	Get(ctx context.Context, id uuid.UUID) (*ComplianceRecord, error)

	// GetByTriple retrieves the record for a (batch, market, buyer) triple,
	// or a RECORD_NOT_FOUND error.
	GetByTriple(ctx context.Context, batchID, market, buyerID string) (*ComplianceRecord, error)

	// Put creates or replaces a record.
	Put(ctx context.Context, record *ComplianceRecord) error

	// List returns all stored records.
	List(ctx context.Context) ([]*ComplianceRecord, error)
}
