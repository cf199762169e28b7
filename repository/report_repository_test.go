package repository

import (
	"context"
	"testing"
	"time"

	"osintbot/models"
	"osintbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRepository_StoreAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewReportRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing report is nil", func(t *testing.T) {
		report, err := repo.Get(ctx, "missing-token")
		require.NoError(t, err)
		assert.Nil(t, report)
	})

	t.Run("pages round-trip in order", func(t *testing.T) {
		stored := &models.Report{
			QueryID: "tok-1",
			UserID:  42,
			Pages:   []string{"<b>🔍 Source: alpha</b>", "<b>🔍 Source: beta</b>"},
		}
		require.NoError(t, repo.Store(ctx, stored))

		report, err := repo.Get(ctx, "tok-1")
		require.NoError(t, err)
		require.NotNil(t, report)
		assert.Equal(t, int64(42), report.UserID)
		assert.Equal(t, stored.Pages, report.Pages)
		assert.False(t, report.CreatedAt.IsZero())
	})

	t.Run("same token replaces the report", func(t *testing.T) {
		replacement := &models.Report{
			QueryID: "tok-1",
			UserID:  42,
			Pages:   []string{"only page"},
		}
		require.NoError(t, repo.Store(ctx, replacement))

		report, err := repo.Get(ctx, "tok-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"only page"}, report.Pages)
	})
}

func TestReportRepository_DeleteOlderThan(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewReportRepository(testDB.DB)
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, &models.Report{QueryID: "old", UserID: 1, Pages: []string{"p"}}))
	require.NoError(t, repo.Store(ctx, &models.Report{QueryID: "fresh", UserID: 2, Pages: []string{"p"}}))

	// Both rows were just created; a cutoff in the past removes nothing.
	evicted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(0), evicted)

	// Backdate one row, then sweep it.
	_, err = testDB.DB.Pool.Exec(ctx,
		`UPDATE search_results SET created_at = NOW() - INTERVAL '2 days' WHERE query_id = 'old'`)
	require.NoError(t, err)

	evicted, err = repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), evicted)

	report, err := repo.Get(ctx, "old")
	require.NoError(t, err)
	assert.Nil(t, report)

	report, err = repo.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestStateRepository_SetAndConsume(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testDB := testutil.SetupTestDatabase(t)
	repo := NewStateRepository(testDB.DB)
	ctx := context.Background()

	t.Run("consume without a prompt", func(t *testing.T) {
		_, found, err := repo.Consume(ctx, 42)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("later prompt replaces the earlier one", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, 42, models.StateWaitingForNumber))
		require.NoError(t, repo.Set(ctx, 42, models.StateAwaitingRedeemCode))

		state, found, err := repo.Consume(ctx, 42)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, models.StateAwaitingRedeemCode, state)
	})

	t.Run("consume clears the prompt", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, 42, models.StateWaitingForUsername))

		_, found, err := repo.Consume(ctx, 42)
		require.NoError(t, err)
		assert.True(t, found)

		_, found, err = repo.Consume(ctx, 42)
		require.NoError(t, err)
		assert.False(t, found)
	})
}
