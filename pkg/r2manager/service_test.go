package r2manager_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
	"github.com/saifulislam80/r2-manager/pkg/r2manager/cryptox"
	repomemory "github.com/saifulislam80/r2-manager/pkg/r2manager/repo/memory"
	memorystorage "github.com/saifulislam80/r2-manager/pkg/r2manager/storage/memory"
)

func TestServiceCreation(t *testing.T) {
	cipher, err := cryptox.NewCipher("test-secret")
	require.NoError(t, err)

	tests := []struct {
		name        string
		options     []r2manager.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []r2manager.Option{},
			expectError: true,
		},
		{
			name: "missing store factory should fail",
			options: []r2manager.Option{
				r2manager.WithRepository(repomemory.New()),
				r2manager.WithCredentialCipher(cipher),
				r2manager.WithPasswordHasher(cryptox.Argon2Hasher{}),
			},
			expectError: true,
		},
		{
			name: "all dependencies should succeed",
			options: []r2manager.Option{
				r2manager.WithRepository(repomemory.New()),
				r2manager.WithStoreFactory(memorystorage.NewFactory(memorystorage.New())),
				r2manager.WithCredentialCipher(cipher),
				r2manager.WithPasswordHasher(cryptox.Argon2Hasher{}),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := r2manager.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

type testEnv struct {
	svc     r2manager.Service
	repo    *repomemory.Repository
	store   *memorystorage.Store
	factory *memorystorage.Factory
}

func setupTestService(t *testing.T, buckets ...string) *testEnv {
	repo := repomemory.New()
	store := memorystorage.New(buckets...)
	factory := memorystorage.NewFactory(store)

	cipher, err := cryptox.NewCipher("test-secret")
	require.NoError(t, err)

	svc, err := r2manager.New(
		r2manager.WithRepository(repo),
		r2manager.WithStoreFactory(factory),
		r2manager.WithCredentialCipher(cipher),
		r2manager.WithPasswordHasher(cryptox.Argon2Hasher{}),
		r2manager.WithBaseURL("http://localhost:3000"),
	)
	require.NoError(t, err)

	return &testEnv{svc: svc, repo: repo, store: store, factory: factory}
}

// registerTestUser creates a user and returns it.
func registerTestUser(t *testing.T, svc r2manager.Service) *r2manager.User {
	user, err := svc.RegisterUser(context.Background(), r2manager.RegisterUserRequest{
		Name:     "Test User",
		Email:    "test@example.com",
		Password: "correct horse battery staple",
	})
	require.NoError(t, err)
	return user
}

// addTestAccount links a storage account for the user and returns it.
func addTestAccount(t *testing.T, svc r2manager.Service, ownerID uuid.UUID) *r2manager.StorageAccount {
	account, err := svc.AddStorageAccount(context.Background(), r2manager.AddStorageAccountRequest{
		OwnerID:         ownerID,
		CFAccountID:     "abc123def456",
		Name:            "Production",
		AccessKeyID:     "AKIA-TEST",
		SecretAccessKey: "secret-key-material",
	})
	require.NoError(t, err)
	return account
}

func TestUserOperations(t *testing.T) {
	env := setupTestService(t)
	ctx := context.Background()

	t.Run("RegisterUser", func(t *testing.T) {
		user := registerTestUser(t, env.svc)
		assert.NotEqual(t, uuid.Nil, user.ID)
		assert.Equal(t, "test@example.com", user.Email)
		assert.NotEqual(t, "correct horse battery staple", user.PasswordHash)
		assert.False(t, user.CreatedAt.IsZero())
	})

	t.Run("RegisterUser rejects duplicate email", func(t *testing.T) {
		_, err := env.svc.RegisterUser(ctx, r2manager.RegisterUserRequest{
			Name:     "Other User",
			Email:    "test@example.com",
			Password: "another password",
		})
		assert.ErrorIs(t, err, r2manager.ErrEmailTaken)
	})

	t.Run("RegisterUser rejects missing fields", func(t *testing.T) {
		_, err := env.svc.RegisterUser(ctx, r2manager.RegisterUserRequest{Email: "x@example.com"})
		var verr *r2manager.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("AuthenticateUser", func(t *testing.T) {
		user, err := env.svc.AuthenticateUser(ctx, "test@example.com", "correct horse battery staple")
		require.NoError(t, err)
		assert.Equal(t, "test@example.com", user.Email)
	})

	t.Run("AuthenticateUser is case-insensitive on email", func(t *testing.T) {
		_, err := env.svc.AuthenticateUser(ctx, "TEST@Example.COM", "correct horse battery staple")
		assert.NoError(t, err)
	})

	t.Run("AuthenticateUser rejects wrong password", func(t *testing.T) {
		_, err := env.svc.AuthenticateUser(ctx, "test@example.com", "wrong")
		assert.ErrorIs(t, err, r2manager.ErrInvalidLogin)
	})

	t.Run("AuthenticateUser rejects unknown email with same error", func(t *testing.T) {
		_, err := env.svc.AuthenticateUser(ctx, "nobody@example.com", "whatever")
		assert.ErrorIs(t, err, r2manager.ErrInvalidLogin)
	})
}

func TestStorageAccountOperations(t *testing.T) {
	env := setupTestService(t, "my-bucket")
	ctx := context.Background()
	user := registerTestUser(t, env.svc)

	t.Run("AddStorageAccount encrypts credentials at rest", func(t *testing.T) {
		account := addTestAccount(t, env.svc, user.ID)

		assert.Equal(t, "abc123def456", account.CFAccountID)
		assert.NotEqual(t, "AKIA-TEST", account.AccessKeyID)
		assert.NotEqual(t, "secret-key-material", account.SecretAccessKey)
	})

	t.Run("GetCredentials round-trips", func(t *testing.T) {
		accounts, err := env.svc.ListStorageAccounts(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, accounts, 1)

		creds, err := env.svc.GetCredentials(ctx, user.ID, accounts[0].ID)
		require.NoError(t, err)
		assert.Equal(t, "abc123def456", creds.AccountID)
		assert.Equal(t, "AKIA-TEST", creds.AccessKeyID)
		assert.Equal(t, "secret-key-material", creds.SecretAccessKey)
	})

	t.Run("AddStorageAccount rejects duplicate account ID", func(t *testing.T) {
		_, err := env.svc.AddStorageAccount(ctx, r2manager.AddStorageAccountRequest{
			OwnerID:         user.ID,
			CFAccountID:     "abc123def456",
			Name:            "Duplicate",
			AccessKeyID:     "AKIA-OTHER",
			SecretAccessKey: "other-secret",
		})
		assert.ErrorIs(t, err, r2manager.ErrAccountExists)
	})

	t.Run("AddStorageAccount probes credentials before saving", func(t *testing.T) {
		env.store.FailOps["list_buckets"] = errors.New("AccessDenied")
		defer delete(env.store.FailOps, "list_buckets")

		_, err := env.svc.AddStorageAccount(ctx, r2manager.AddStorageAccountRequest{
			OwnerID:         user.ID,
			CFAccountID:     "badaccount",
			Name:            "Bad",
			AccessKeyID:     "AKIA-BAD",
			SecretAccessKey: "bad-secret",
		})
		var verr *r2manager.ValidationError
		assert.ErrorAs(t, err, &verr)

		_, err = env.repo.GetStorageAccountByCFAccountID(ctx, user.ID, "badaccount")
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)
	})

	t.Run("GetCredentials scopes by owner", func(t *testing.T) {
		accounts, err := env.svc.ListStorageAccounts(ctx, user.ID)
		require.NoError(t, err)

		_, err = env.svc.GetCredentials(ctx, uuid.New(), accounts[0].ID)
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)
	})

	t.Run("DeleteStorageAccount", func(t *testing.T) {
		accounts, err := env.svc.ListStorageAccounts(ctx, user.ID)
		require.NoError(t, err)
		require.Len(t, accounts, 1)

		require.NoError(t, env.svc.DeleteStorageAccount(ctx, user.ID, accounts[0].ID))

		accounts, err = env.svc.ListStorageAccounts(ctx, user.ID)
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})
}

func TestObjectOperations(t *testing.T) {
	env := setupTestService(t, "my-bucket")
	ctx := context.Background()
	user := registerTestUser(t, env.svc)
	account := addTestAccount(t, env.svc, user.ID)

	require.NoError(t, env.svc.PutObject(ctx, r2manager.PutObjectRequest{
		OwnerID:     user.ID,
		AccountID:   account.ID,
		BucketName:  "my-bucket",
		Key:         "docs/report.pdf",
		Data:        []byte("pdf bytes"),
		ContentType: "application/pdf",
	}))

	t.Run("ListBuckets uses decrypted credentials", func(t *testing.T) {
		buckets, err := env.svc.ListBuckets(ctx, user.ID, account.ID)
		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, "my-bucket", buckets[0].Name)
		assert.Equal(t, "AKIA-TEST", env.factory.LastCreds.AccessKeyID)
	})

	t.Run("ListObjects filters by prefix", func(t *testing.T) {
		listing, err := env.svc.ListObjects(ctx, r2manager.ListObjectsRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Prefix:     "docs/",
		})
		require.NoError(t, err)
		require.Len(t, listing.Objects, 1)
		assert.Equal(t, "docs/report.pdf", listing.Objects[0].Key)

		listing, err = env.svc.ListObjects(ctx, r2manager.ListObjectsRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Prefix:     "images/",
		})
		require.NoError(t, err)
		assert.Empty(t, listing.Objects)
	})

	t.Run("PresignDownload defaults expiry", func(t *testing.T) {
		url, err := env.svc.PresignDownload(ctx, r2manager.PresignDownloadRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "docs/report.pdf",
		})
		require.NoError(t, err)
		assert.Contains(t, url, "expires=3600")
	})

	t.Run("PublicURL requires the object to exist", func(t *testing.T) {
		url, err := env.svc.PublicURL(ctx, user.ID, account.ID, "my-bucket", "docs/report.pdf")
		require.NoError(t, err)
		assert.Equal(t, "https://my-bucket.abc123def456.r2.dev/docs/report.pdf", url)

		_, err = env.svc.PublicURL(ctx, user.ID, account.ID, "my-bucket", "missing.txt")
		assert.ErrorIs(t, err, r2manager.ErrObjectNotFound)
	})

	t.Run("DeleteObject", func(t *testing.T) {
		require.NoError(t, env.svc.DeleteObject(ctx, user.ID, account.ID, "my-bucket", "docs/report.pdf"))
		_, _, ok := env.store.Object("my-bucket", "docs/report.pdf")
		assert.False(t, ok)
	})
}

func TestMultipartUploadOperations(t *testing.T) {
	env := setupTestService(t, "my-bucket")
	ctx := context.Background()
	user := registerTestUser(t, env.svc)
	account := addTestAccount(t, env.svc, user.ID)

	t.Run("full multipart round trip", func(t *testing.T) {
		uploadID, err := env.svc.InitiateMultipartUpload(ctx, r2manager.InitiateMultipartRequest{
			OwnerID:     user.ID,
			AccountID:   account.ID,
			BucketName:  "my-bucket",
			Key:         "big.bin",
			ContentType: "application/octet-stream",
		})
		require.NoError(t, err)
		require.NotEmpty(t, uploadID)

		var parts []r2manager.CompletedPart
		for partNumber := int32(1); partNumber <= 3; partNumber++ {
			etag, err := env.svc.UploadPart(ctx, r2manager.UploadPartRequest{
				OwnerID:    user.ID,
				AccountID:  account.ID,
				BucketName: "my-bucket",
				Key:        "big.bin",
				UploadID:   uploadID,
				PartNumber: partNumber,
				Data:       []byte{byte(partNumber), byte(partNumber)},
			})
			require.NoError(t, err)
			parts = append(parts, r2manager.CompletedPart{PartNumber: partNumber, ETag: etag})
		}

		location, err := env.svc.CompleteMultipartUpload(ctx, r2manager.CompleteMultipartRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "big.bin",
			UploadID:   uploadID,
			Parts:      parts,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, location)

		data, contentType, ok := env.store.Object("my-bucket", "big.bin")
		require.True(t, ok)
		assert.Equal(t, []byte{1, 1, 2, 2, 3, 3}, data)
		assert.Equal(t, "application/octet-stream", contentType)
		assert.Equal(t, 0, env.store.OpenSessions())
	})

	t.Run("abort discards the session", func(t *testing.T) {
		uploadID, err := env.svc.InitiateMultipartUpload(ctx, r2manager.InitiateMultipartRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "discard.bin",
		})
		require.NoError(t, err)

		_, err = env.svc.UploadPart(ctx, r2manager.UploadPartRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "discard.bin",
			UploadID:   uploadID,
			PartNumber: 1,
			Data:       []byte("chunk"),
		})
		require.NoError(t, err)

		require.NoError(t, env.svc.AbortMultipartUpload(ctx, r2manager.AbortMultipartRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "discard.bin",
			UploadID:   uploadID,
		}))

		assert.Equal(t, 0, env.store.OpenSessions())
		_, _, ok := env.store.Object("my-bucket", "discard.bin")
		assert.False(t, ok)
	})

	t.Run("validations", func(t *testing.T) {
		var verr *r2manager.ValidationError

		_, err := env.svc.InitiateMultipartUpload(ctx, r2manager.InitiateMultipartRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
		})
		assert.ErrorAs(t, err, &verr)

		_, err = env.svc.UploadPart(ctx, r2manager.UploadPartRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "big.bin",
			UploadID:   "some-upload",
			PartNumber: 0,
			Data:       []byte("chunk"),
		})
		assert.ErrorAs(t, err, &verr)

		err = env.svc.PutObject(ctx, r2manager.PutObjectRequest{
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			Key:        "empty.bin",
		})
		assert.ErrorAs(t, err, &verr)
	})
}
