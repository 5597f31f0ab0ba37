package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
	"github.com/saifulislam80/r2-manager/pkg/r2manager/repo/memory"
)

func TestUserRepository(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	user := &r2manager.User{
		ID:        uuid.New(),
		Name:      "Alice",
		Email:     "alice@example.com",
		CreatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateUser(ctx, user))

	t.Run("GetUser", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := repo.CreateUser(ctx, &r2manager.User{
			ID:    uuid.New(),
			Email: "alice@example.com",
		})
		assert.ErrorIs(t, err, r2manager.ErrEmailTaken)
	})

	t.Run("unknown lookups", func(t *testing.T) {
		_, err := repo.GetUser(ctx, uuid.New())
		assert.ErrorIs(t, err, r2manager.ErrUserNotFound)

		_, err = repo.GetUserByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, r2manager.ErrUserNotFound)
	})

	t.Run("returned values are copies", func(t *testing.T) {
		got, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		got.Name = "Mallory"

		again, err := repo.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", again.Name)
	})
}

func TestStorageAccountRepository(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	ownerID := uuid.New()

	account := &r2manager.StorageAccount{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		CFAccountID: "cf-account-1",
		Name:        "Main",
		CreatedAt:   time.Now(),
	}
	require.NoError(t, repo.CreateStorageAccount(ctx, account))

	t.Run("GetStorageAccount scopes by owner", func(t *testing.T) {
		got, err := repo.GetStorageAccount(ctx, ownerID, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Main", got.Name)

		_, err = repo.GetStorageAccount(ctx, uuid.New(), account.ID)
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)
	})

	t.Run("GetStorageAccountByCFAccountID scopes by owner", func(t *testing.T) {
		got, err := repo.GetStorageAccountByCFAccountID(ctx, ownerID, "cf-account-1")
		require.NoError(t, err)
		assert.Equal(t, account.ID, got.ID)

		_, err = repo.GetStorageAccountByCFAccountID(ctx, uuid.New(), "cf-account-1")
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)
	})

	t.Run("ListStorageAccounts ordered by creation", func(t *testing.T) {
		second := &r2manager.StorageAccount{
			ID:          uuid.New(),
			OwnerID:     ownerID,
			CFAccountID: "cf-account-2",
			Name:        "Backup",
			CreatedAt:   account.CreatedAt.Add(time.Second),
		}
		require.NoError(t, repo.CreateStorageAccount(ctx, second))

		accounts, err := repo.ListStorageAccounts(ctx, ownerID)
		require.NoError(t, err)
		require.Len(t, accounts, 2)
		assert.Equal(t, "Main", accounts[0].Name)
		assert.Equal(t, "Backup", accounts[1].Name)
	})

	t.Run("DeleteStorageAccount", func(t *testing.T) {
		require.NoError(t, repo.DeleteStorageAccount(ctx, account.ID))
		_, err := repo.GetStorageAccount(ctx, ownerID, account.ID)
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)

		err = repo.DeleteStorageAccount(ctx, account.ID)
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)
	})
}

func TestUploadLinkRepository(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	now := time.Now()

	live := &r2manager.UploadLink{
		ID:         uuid.New(),
		OwnerID:    uuid.New(),
		AccountID:  uuid.New(),
		BucketName: "bucket",
		TokenHash:  "live-hash",
		ExpiresAt:  now.Add(time.Hour),
		CreatedAt:  now,
	}
	expired := &r2manager.UploadLink{
		ID:        uuid.New(),
		TokenHash: "expired-hash",
		ExpiresAt: now.Add(-time.Hour),
		CreatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, repo.CreateUploadLink(ctx, live))
	require.NoError(t, repo.CreateUploadLink(ctx, expired))

	t.Run("live link found", func(t *testing.T) {
		got, err := repo.GetUploadLinkByTokenHash(ctx, "live-hash", now)
		require.NoError(t, err)
		assert.Equal(t, live.ID, got.ID)
	})

	t.Run("expired link excluded", func(t *testing.T) {
		_, err := repo.GetUploadLinkByTokenHash(ctx, "expired-hash", now)
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		_, err := repo.GetUploadLinkByTokenHash(ctx, "live-hash", live.ExpiresAt)
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)
	})

	t.Run("unknown hash", func(t *testing.T) {
		_, err := repo.GetUploadLinkByTokenHash(ctx, "missing-hash", now)
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)
	})
}
