package surrealdb

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionStoreUpsertAndGet(t *testing.T) {
	db := testDB(t)
	store := NewConnectionStore(db, testLogger())
	ctx := context.Background()

	saved, err := store.Upsert(ctx, "u1", "enc-access-1", "enc-refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", saved.OwnerID)
	assert.False(t, saved.UpdatedAt.IsZero())

	got, err := store.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.OwnerID)
	assert.Equal(t, "enc-access-1", got.EncryptedAccessToken)
	assert.Equal(t, "enc-refresh-1", got.EncryptedRefreshToken)
}

func TestConnectionStoreGetAbsent(t *testing.T) {
	db := testDB(t)
	store := NewConnectionStore(db, testLogger())
	ctx := context.Background()

	got, err := store.GetByOwner(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestConnectionStoreRelinkReplaces(t *testing.T) {
	db := testDB(t)
	store := NewConnectionStore(db, testLogger())
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1", "enc-access-old", "enc-refresh-old")
	require.NoError(t, err)

	_, err = store.Upsert(ctx, "u1", "enc-access-new", "enc-refresh-new")
	require.NoError(t, err)

	got, err := store.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "enc-access-new", got.EncryptedAccessToken)
	assert.Equal(t, "enc-refresh-new", got.EncryptedRefreshToken)
}

func TestConnectionStoreOnePerOwner(t *testing.T) {
	db := testDB(t)
	store := NewConnectionStore(db, testLogger())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			store.Upsert(ctx, "u1", fmt.Sprintf("enc-access-%d", n), fmt.Sprintf("enc-refresh-%d", n))
		}(i)
	}
	wg.Wait()

	got, err := store.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)

	// Whichever writer won, the record must be one writer's complete pair.
	assert.Equal(t,
		got.EncryptedAccessToken[len("enc-access-"):],
		got.EncryptedRefreshToken[len("enc-refresh-"):],
		"access and refresh tokens must come from the same write")
}

func TestConnectionStoreOwnersIsolated(t *testing.T) {
	db := testDB(t)
	store := NewConnectionStore(db, testLogger())
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1", "enc-a-u1", "enc-r-u1")
	require.NoError(t, err)
	_, err = store.Upsert(ctx, "u2", "enc-a-u2", "enc-r-u2")
	require.NoError(t, err)

	got1, err := store.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	got2, err := store.GetByOwner(ctx, "u2")
	require.NoError(t, err)

	assert.Equal(t, "enc-a-u1", got1.EncryptedAccessToken)
	assert.Equal(t, "enc-a-u2", got2.EncryptedAccessToken)
}

func TestConnectionStoreDelete(t *testing.T) {
	db := testDB(t)
	store := NewConnectionStore(db, testLogger())
	ctx := context.Background()

	_, err := store.Upsert(ctx, "u1", "enc-a", "enc-r")
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, "u1"))

	got, err := store.GetByOwner(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting again is a no-op
	require.NoError(t, store.Delete(ctx, "u1"))
}
