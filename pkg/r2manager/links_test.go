package r2manager_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// issueTestLink issues a link and returns the raw token from its URL.
func issueTestLink(t *testing.T, svc r2manager.Service, ownerID, accountID uuid.UUID, prefix string, hours float64) (string, *r2manager.IssuedLink) {
	link, err := svc.IssueUploadLink(context.Background(), r2manager.IssueUploadLinkRequest{
		OwnerID:      ownerID,
		AccountID:    accountID,
		BucketName:   "my-bucket",
		Prefix:       prefix,
		ExpiresHours: hours,
	})
	require.NoError(t, err)

	idx := strings.LastIndex(link.URL, "/")
	require.Greater(t, idx, 0)
	return link.URL[idx+1:], link
}

func TestIssueUploadLink(t *testing.T) {
	env := setupTestService(t, "my-bucket")
	ctx := context.Background()
	user := registerTestUser(t, env.svc)
	account := addTestAccount(t, env.svc, user.ID)

	t.Run("issues a redemption URL with a hex token", func(t *testing.T) {
		token, link := issueTestLink(t, env.svc, user.ID, account.ID, "drop", 0)

		assert.True(t, strings.HasPrefix(link.URL, "http://localhost:3000/upload/"))
		assert.Len(t, token, 48)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), link.ExpiresAt, time.Minute)
	})

	t.Run("tokens are stored hashed", func(t *testing.T) {
		token, _ := issueTestLink(t, env.svc, user.ID, account.ID, "", 1)

		stored, err := env.repo.GetUploadLinkByTokenHash(ctx, r2manager.HashToken(token), time.Now())
		require.NoError(t, err)
		assert.NotEqual(t, token, stored.TokenHash)
		assert.Equal(t, r2manager.HashToken(token), stored.TokenHash)
	})

	t.Run("honours custom expiry", func(t *testing.T) {
		_, link := issueTestLink(t, env.svc, user.ID, account.ID, "", 0.5)
		assert.WithinDuration(t, time.Now().Add(30*time.Minute), link.ExpiresAt, time.Minute)
	})

	t.Run("rejects non-positive expiry", func(t *testing.T) {
		_, err := env.svc.IssueUploadLink(ctx, r2manager.IssueUploadLinkRequest{
			OwnerID:      user.ID,
			AccountID:    account.ID,
			BucketName:   "my-bucket",
			ExpiresHours: -1,
		})
		var verr *r2manager.ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects prefixes with parent segments", func(t *testing.T) {
		for _, prefix := range []string{"../escape", "a/../b", "..\\escape"} {
			_, err := env.svc.IssueUploadLink(ctx, r2manager.IssueUploadLinkRequest{
				OwnerID:    user.ID,
				AccountID:  account.ID,
				BucketName: "my-bucket",
				Prefix:     prefix,
			})
			var verr *r2manager.ValidationError
			assert.ErrorAs(t, err, &verr, "prefix %q", prefix)
		}
	})

	t.Run("requires ownership of the account", func(t *testing.T) {
		_, err := env.svc.IssueUploadLink(ctx, r2manager.IssueUploadLinkRequest{
			OwnerID:    uuid.New(),
			AccountID:  account.ID,
			BucketName: "my-bucket",
		})
		assert.ErrorIs(t, err, r2manager.ErrAccountNotFound)
	})
}

func TestResolveUploadLink(t *testing.T) {
	env := setupTestService(t, "my-bucket")
	ctx := context.Background()
	user := registerTestUser(t, env.svc)
	account := addTestAccount(t, env.svc, user.ID)

	t.Run("resolves a live link", func(t *testing.T) {
		token, _ := issueTestLink(t, env.svc, user.ID, account.ID, "incoming/photos", 2)

		info, err := env.svc.ResolveUploadLink(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "my-bucket", info.BucketName)
		assert.Equal(t, "incoming/photos/", info.Prefix)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, err := env.svc.ResolveUploadLink(ctx, "deadbeef")
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)
	})

	t.Run("expired token yields the same error as unknown", func(t *testing.T) {
		raw, err := r2manager.GenerateToken()
		require.NoError(t, err)

		require.NoError(t, env.repo.CreateUploadLink(ctx, &r2manager.UploadLink{
			ID:         uuid.New(),
			OwnerID:    user.ID,
			AccountID:  account.ID,
			BucketName: "my-bucket",
			TokenHash:  r2manager.HashToken(raw),
			ExpiresAt:  time.Now().Add(-time.Minute),
			CreatedAt:  time.Now().Add(-time.Hour),
		}))

		_, err = env.svc.ResolveUploadLink(ctx, raw)
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)
	})
}

func TestPublicUploads(t *testing.T) {
	env := setupTestService(t, "my-bucket")
	ctx := context.Background()
	user := registerTestUser(t, env.svc)
	account := addTestAccount(t, env.svc, user.ID)
	token, _ := issueTestLink(t, env.svc, user.ID, account.ID, "drop", 1)

	t.Run("single-shot upload lands under the prefix", func(t *testing.T) {
		err := env.svc.PublicPutObject(ctx, r2manager.PublicPutObjectRequest{
			Token:       token,
			Key:         "photo.jpg",
			Data:        []byte("jpeg bytes"),
			ContentType: "image/jpeg",
		})
		require.NoError(t, err)

		data, contentType, ok := env.store.Object("my-bucket", "drop/photo.jpg")
		require.True(t, ok)
		assert.Equal(t, []byte("jpeg bytes"), data)
		assert.Equal(t, "image/jpeg", contentType)
	})

	t.Run("traversal keys are rejected", func(t *testing.T) {
		err := env.svc.PublicPutObject(ctx, r2manager.PublicPutObjectRequest{
			Token: token,
			Key:   "../outside.txt",
			Data:  []byte("nope"),
		})
		var verr *r2manager.ValidationError
		assert.ErrorAs(t, err, &verr)

		_, _, ok := env.store.Object("my-bucket", "outside.txt")
		assert.False(t, ok)
	})

	t.Run("invalid token rejects every operation", func(t *testing.T) {
		err := env.svc.PublicPutObject(ctx, r2manager.PublicPutObjectRequest{
			Token: "bogus",
			Key:   "a.txt",
			Data:  []byte("x"),
		})
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)

		_, err = env.svc.PublicInitiateMultipartUpload(ctx, r2manager.PublicInitiateMultipartRequest{
			Token: "bogus",
			Key:   "a.txt",
		})
		assert.ErrorIs(t, err, r2manager.ErrUploadLinkNotFound)
	})

	t.Run("multipart through a link", func(t *testing.T) {
		uploadID, err := env.svc.PublicInitiateMultipartUpload(ctx, r2manager.PublicInitiateMultipartRequest{
			Token:       token,
			Key:         "video.mp4",
			ContentType: "video/mp4",
		})
		require.NoError(t, err)

		etag1, err := env.svc.PublicUploadPart(ctx, r2manager.PublicUploadPartRequest{
			Token:      token,
			Key:        "video.mp4",
			UploadID:   uploadID,
			PartNumber: 1,
			Data:       []byte("aaaa"),
		})
		require.NoError(t, err)
		etag2, err := env.svc.PublicUploadPart(ctx, r2manager.PublicUploadPartRequest{
			Token:      token,
			Key:        "video.mp4",
			UploadID:   uploadID,
			PartNumber: 2,
			Data:       []byte("bbbb"),
		})
		require.NoError(t, err)

		_, err = env.svc.PublicCompleteMultipartUpload(ctx, r2manager.PublicCompleteMultipartRequest{
			Token:    token,
			Key:      "video.mp4",
			UploadID: uploadID,
			Parts: []r2manager.CompletedPart{
				{PartNumber: 1, ETag: etag1},
				{PartNumber: 2, ETag: etag2},
			},
		})
		require.NoError(t, err)

		data, _, ok := env.store.Object("my-bucket", "drop/video.mp4")
		require.True(t, ok)
		assert.Equal(t, []byte("aaaabbbb"), data)
	})

	t.Run("abort through a link", func(t *testing.T) {
		uploadID, err := env.svc.PublicInitiateMultipartUpload(ctx, r2manager.PublicInitiateMultipartRequest{
			Token: token,
			Key:   "cancelled.bin",
		})
		require.NoError(t, err)

		require.NoError(t, env.svc.PublicAbortMultipartUpload(ctx, r2manager.PublicAbortMultipartRequest{
			Token:    token,
			Key:      "cancelled.bin",
			UploadID: uploadID,
		}))
		assert.Contains(t, env.store.AbortedUploads, uploadID)
	})
}
