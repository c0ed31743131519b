package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/compliance"
	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
)

const (
	recordKeyPrefix = "compliance:record:"
	tripleKeyPrefix = "compliance:triple:"
	recordIndexKey  = "compliance:records"
)

// RedisStore persists records as JSON values keyed by record id, with a
// secondary key per (batch, market, buyer) triple and a set of all ids for
// listing. Writes are not transactional across the three keys; the engine's
// per-record serialization keeps them consistent.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, id uuid.UUID) (*compliance.ComplianceRecord, error) {
	data, err := s.client.Get(ctx, recordKeyPrefix+id.String()).Bytes()
	if err == redis.Nil {
		return nil, errors.NewRecordNotFoundError(id.String())
	}
	if err != nil {
		return nil, errors.NewInternalError("reading record").WithCause(err)
	}
	return decodeRecord(data)
}

func (s *RedisStore) GetByTriple(ctx context.Context, batchID, market, buyerID string) (*compliance.ComplianceRecord, error) {
	key := compliance.TripleKey(batchID, market, buyerID)
	raw, err := s.client.Get(ctx, tripleKeyPrefix+key).Result()
	if err == redis.Nil {
		return nil, errors.NewRecordNotFoundError(batchID + "/" + market + "/" + buyerID)
	}
	if err != nil {
		return nil, errors.NewInternalError("resolving record triple").WithCause(err)
	}

	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, errors.NewInternalError("corrupt triple index").WithCause(err)
	}
	return s.Get(ctx, id)
}

func (s *RedisStore) Put(ctx context.Context, record *compliance.ComplianceRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return errors.NewInternalError("encoding record").WithCause(err)
	}

	prevTriple := ""
	if prev, err := s.client.Get(ctx, recordKeyPrefix+record.ID.String()).Bytes(); err == nil {
		if prevRecord, decErr := decodeRecord(prev); decErr == nil {
			prevTriple = prevRecord.TripleKey()
		}
	}

	pipe := s.client.TxPipeline()
	if prevTriple != "" && prevTriple != record.TripleKey() {
		pipe.Del(ctx, tripleKeyPrefix+prevTriple)
	}
	pipe.Set(ctx, recordKeyPrefix+record.ID.String(), data, 0)
	pipe.Set(ctx, tripleKeyPrefix+record.TripleKey(), record.ID.String(), 0)
	pipe.SAdd(ctx, recordIndexKey, record.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.NewInternalError("writing record").WithCause(err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]*compliance.ComplianceRecord, error) {
	ids, err := s.client.SMembers(ctx, recordIndexKey).Result()
	if err != nil {
		return nil, errors.NewInternalError("listing records").WithCause(err)
	}

	out := make([]*compliance.ComplianceRecord, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.NewInternalError(fmt.Sprintf("corrupt record index entry %q", raw)).WithCause(err)
		}
		record, err := s.Get(ctx, id)
		if err != nil {
			if errors.HasCode(err, "RECORD_NOT_FOUND") {
				continue
			}
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func decodeRecord(data []byte) (*compliance.ComplianceRecord, error) {
	var record compliance.ComplianceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, errors.NewInternalError("decoding record").WithCause(err)
	}
	return &record, nil
}
