package repository

import (
	"context"
	"testing"

	"osintbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemCodeRepository_GetByCode(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewRedeemCodeRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing code is nil", func(t *testing.T) {
		rc, err := repo.GetByCode(ctx, "NOPE")
		require.NoError(t, err)
		assert.Nil(t, rc)
	})

	t.Run("existing code round-trips", func(t *testing.T) {
		id := testutil.InsertRedeemCode(t, testDB.DB, "WELCOME100", 10, 3, nil)

		rc, err := repo.GetByCode(ctx, "WELCOME100")
		require.NoError(t, err)
		require.NotNil(t, rc)
		assert.Equal(t, id, rc.ID)
		assert.Equal(t, int64(10), rc.Credits)
		assert.Equal(t, int64(3), rc.MaxUses)
		assert.Equal(t, int64(0), rc.CurrentUses)
		assert.Nil(t, rc.ExpiresAt)
	})
}

func TestRedeemCodeRepository_IncrementUsesStopsAtMax(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewRedeemCodeRepository(testDB.DB)
	ctx := context.Background()

	id := testutil.InsertRedeemCode(t, testDB.DB, "LIMITED", 5, 2, nil)

	ok, err := repo.IncrementUses(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IncrementUses(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	// Counter reached max_uses; a third attempt must refuse.
	ok, err = repo.IncrementUses(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	rc, err := repo.GetByCode(ctx, "LIMITED")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rc.CurrentUses)
}

func TestRedeemCodeRepository_RecordRedemptionOncePerUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	userRepo := NewUserRepository(testDB.DB)
	repo := NewRedeemCodeRepository(testDB.DB)
	ctx := context.Background()

	_, err := userRepo.Upsert(ctx, 42, nil, nil)
	require.NoError(t, err)
	_, err = userRepo.Upsert(ctx, 43, nil, nil)
	require.NoError(t, err)

	id := testutil.InsertRedeemCode(t, testDB.DB, "ONCE", 5, 10, nil)

	ok, err := repo.RecordRedemption(ctx, 42, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.RecordRedemption(ctx, 42, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// A different user is unaffected by the first user's redemption.
	ok, err = repo.RecordRedemption(ctx, 43, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
