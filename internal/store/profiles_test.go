package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"student-records/internal/matching"
)

func newTestProfileStore(t *testing.T, ttl time.Duration) (*ProfileStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewProfileStore(client, ttl), mr
}

func TestProfileStoreRoundTrip(t *testing.T) {
	store, _ := newTestProfileStore(t, 0)
	ctx := context.Background()

	threshold := 0.9
	overrides := matching.Overrides{
		OverallThreshold: &threshold,
		FieldRules: []matching.FieldRule{
			{Field: matching.FieldPhoneNumber, Threshold: 1, Weight: 2, Enabled: true, MatchType: matching.MatchTypeNormalized},
		},
	}

	require.NoError(t, store.Save(ctx, "admissions", overrides))

	loaded, found, err := store.Get(ctx, "admissions")
	require.NoError(t, err)
	assert.True(t, found)
	require.NotNil(t, loaded.OverallThreshold)
	assert.Equal(t, 0.9, *loaded.OverallThreshold)
	require.Len(t, loaded.FieldRules, 1)
	assert.Equal(t, matching.FieldPhoneNumber, loaded.FieldRules[0].Field)
	assert.Equal(t, 2.0, loaded.FieldRules[0].Weight)
}

func TestProfileStoreGetMissing(t *testing.T) {
	store, _ := newTestProfileStore(t, 0)

	_, found, err := store.Get(context.Background(), "no-such-profile")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileStoreDelete(t *testing.T) {
	store, _ := newTestProfileStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "temp", matching.Overrides{}))
	require.NoError(t, store.Delete(ctx, "temp"))

	_, found, err := store.Get(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestProfileStoreGetBackendError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewProfileStore(client, 0)

	mock.ExpectGet("matching:profile:broken").SetErr(assert.AnError)

	_, found, err := store.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStoreGetCorruptPayload(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewProfileStore(client, 0)

	mock.ExpectGet("matching:profile:corrupt").SetVal("{not json")

	_, found, err := store.Get(context.Background(), "corrupt")
	require.Error(t, err)
	assert.False(t, found)
}

func TestProfileStoreTTL(t *testing.T) {
	store, mr := newTestProfileStore(t, 5*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "expiring", matching.Overrides{}))

	mr.FastForward(6 * time.Minute)

	_, found, err := store.Get(ctx, "expiring")
	require.NoError(t, err)
	assert.False(t, found)
}
