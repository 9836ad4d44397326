package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"ecolink/internal/adapters/repository/postgres"
	"ecolink/internal/core/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlFingerprintRepository(t *testing.T) {
	dbConnection, cleanup, truncate := postgres.NewTestDB(t)
	defer cleanup()
	ctx := context.Background()
	assets := postgres.NewSqlFileAssetRepository(dbConnection)
	repo := postgres.NewSqlFingerprintRepository(dbConnection)

	t.Run("ClaimCanonical - First claimer wins", func(t *testing.T) {
		// Arrange
		truncate()
		owner := uuid.New()
		first, second := newPendingAsset(owner), newPendingAsset(owner)
		require.NoError(t, assets.Create(ctx, first))
		require.NoError(t, assets.Create(ctx, second))
		hash := hashOf("payload")

		// Act
		got1, err1 := repo.ClaimCanonical(ctx, owner, hash, first.ID)
		got2, err2 := repo.ClaimCanonical(ctx, owner, hash, second.ID)

		// Assert
		require.NoError(t, err1)
		require.NoError(t, err2)
		assert.Equal(t, first.ID, got1)
		assert.Equal(t, first.ID, got2)
	})

	t.Run("ClaimCanonical - Scoped per owner", func(t *testing.T) {
		// Arrange
		truncate()
		a, b := newPendingAsset(uuid.New()), newPendingAsset(uuid.New())
		require.NoError(t, assets.Create(ctx, a))
		require.NoError(t, assets.Create(ctx, b))
		hash := hashOf("payload")

		// Act
		gotA, _ := repo.ClaimCanonical(ctx, a.OwnerID, hash, a.ID)
		gotB, _ := repo.ClaimCanonical(ctx, b.OwnerID, hash, b.ID)

		// Assert
		assert.Equal(t, a.ID, gotA)
		assert.Equal(t, b.ID, gotB)
	})

	t.Run("ClaimCanonical - Concurrent transactions agree on one canonical", func(t *testing.T) {
		// Arrange
		truncate()
		owner := uuid.New()
		hash := hashOf("race")
		const racers = 8
		ids := make([]uuid.UUID, racers)
		for i := range ids {
			asset := newPendingAsset(owner)
			require.NoError(t, assets.Create(ctx, asset))
			ids[i] = asset.ID
		}
		uow := postgres.NewUnitOfWork(dbConnection)

		// Act
		results := make([]uuid.UUID, racers)
		errs := make([]error, racers)
		start := make(chan struct{})
		var wg sync.WaitGroup
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				errs[i] = uow.Execute(ctx, func(u port.UnitOfWork) error {
					var err error
					results[i], err = u.FingerprintRepo().ClaimCanonical(ctx, owner, hash, ids[i])
					time.Sleep(20 * time.Millisecond)
					return err
				})
			}(i)
		}
		close(start)
		wg.Wait()

		// Assert
		for i := range ids {
			require.NoError(t, errs[i])
			assert.Equal(t, results[0], results[i])
		}
		assert.Contains(t, ids, results[0])
	})

	t.Run("ClaimCanonical - Rolled back claim frees the slot", func(t *testing.T) {
		// Arrange
		truncate()
		owner := uuid.New()
		loser, winner := newPendingAsset(owner), newPendingAsset(owner)
		require.NoError(t, assets.Create(ctx, loser))
		require.NoError(t, assets.Create(ctx, winner))
		hash := hashOf("rollback")
		uow := postgres.NewUnitOfWork(dbConnection)

		err := uow.Execute(ctx, func(u port.UnitOfWork) error {
			_, err := u.FingerprintRepo().ClaimCanonical(ctx, owner, hash, loser.ID)
			require.NoError(t, err)
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		// Act
		got, err := repo.ClaimCanonical(ctx, owner, hash, winner.ID)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, winner.ID, got)
	})
}
