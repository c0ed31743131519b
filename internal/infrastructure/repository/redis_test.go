package repository

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harvestlane/agri-export-compliance-backend/internal/domain/errors"
	"github.com/harvestlane/agri-export-compliance-backend/internal/testutil/fixtures"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)
	record := fixtures.NewRecordBuilder().Build()

	require.NoError(t, store.Put(ctx, record))

	got, err := store.Get(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, record.Batch.ID, got.Batch.ID)
	assert.Len(t, got.TestingRequirements, 1)
	assert.True(t, got.Costs.TotalEstimated.Equal(record.Costs.TotalEstimated))
}

func TestRedisStore_GetMissing(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "RECORD_NOT_FOUND"))
}

func TestRedisStore_GetByTriple(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)
	record := fixtures.NewRecordBuilder().Build()
	require.NoError(t, store.Put(ctx, record))

	got, err := store.GetByTriple(ctx, record.Batch.ID, record.Market, record.BuyerID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = store.GetByTriple(ctx, "no-such-batch", record.Market, record.BuyerID)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, "RECORD_NOT_FOUND"))
}

func TestRedisStore_PutReplacesAndReindexes(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)
	record := fixtures.NewRecordBuilder().Build()
	require.NoError(t, store.Put(ctx, record))

	updated, err := record.Clone()
	require.NoError(t, err)
	updated.Market = "UK"
	require.NoError(t, store.Put(ctx, updated))

	got, err := store.GetByTriple(ctx, record.Batch.ID, "UK", record.BuyerID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)

	_, err = store.GetByTriple(ctx, record.Batch.ID, record.Market, record.BuyerID)
	require.Error(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestRedisStore_List(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	first := fixtures.NewRecordBuilder().Build()
	second := fixtures.NewRecordBuilder().WithBuyer("BUYER-777").Build()
	require.NoError(t, store.Put(ctx, first))
	require.NoError(t, store.Put(ctx, second))

	records, err = store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
