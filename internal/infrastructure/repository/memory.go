package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
)

// MemoryStore is an in-process RecordStore. Records are deep-copied on both
// read and write so callers can never alias stored state.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*compliance.ComplianceRecord
	triples map[string]uuid.UUID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[uuid.UUID]*compliance.ComplianceRecord),
		triples: make(map[string]uuid.UUID),
	}
}

func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (*compliance.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, errors.NewRecordNotFoundError(id.String())
	}
	return record.Clone()
}

func (s *MemoryStore) GetByTriple(ctx context.Context, batchID, market, buyerID string) (*compliance.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.triples[compliance.TripleKey(batchID, market, buyerID)]
	if !ok {
		return nil, errors.NewRecordNotFoundError(batchID + "/" + market + "/" + buyerID)
	}
	record, ok := s.records[id]
	if !ok {
		return nil, errors.NewRecordNotFoundError(id.String())
	}
	return record.Clone()
}

func (s *MemoryStore) Put(ctx context.Context, record *compliance.ComplianceRecord) error {
	clone, err := record.Clone()
	if err != nil {
		return errors.NewInternalError("cloning record for storage").WithCause(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.records[clone.ID]; ok {
		delete(s.triples, prev.TripleKey())
	}
	s.records[clone.ID] = clone
	s.triples[clone.TripleKey()] = clone.ID
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*compliance.ComplianceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*compliance.ComplianceRecord, 0, len(s.records))
	for _, record := range s.records {
		clone, err := record.Clone()
		if err != nil {
			return nil, errors.NewInternalError("cloning record for listing").WithCause(err)
		}
		out = append(out, clone)
	}
	return out, nil
}
