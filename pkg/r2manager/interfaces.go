package r2manager

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ObjectStore is one authenticated session against an S3-compatible
// endpoint. Sessions are built per request from freshly decrypted
// credentials and are never shared or cached.
type ObjectStore interface {
	// ListBuckets lists all buckets in the account
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListObjects lists one page of objects under a prefix
	ListObjects(ctx context.Context, bucket, prefix string, maxKeys int32, continuationToken string) (*ObjectListing, error)

	// PutObject writes body to the given key in a single request
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error

	// DeleteObject removes the object at key
	DeleteObject(ctx context.Context, bucket, key string) error

	// HeadObject reports whether the object exists. A missing object is
	// ErrObjectNotFound.
	HeadObject(ctx context.Context, bucket, key string) error

	// PresignGetObject returns a presigned download URL
	PresignGetObject(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, error)

	// CreateMultipartUpload starts a multipart session and returns its uploadId
	CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error)

	// UploadPart uploads one part and returns its ETag
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, error)

	// CompleteMultipartUpload assembles the object from the ordered part list
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) (string, error)

	// AbortMultipartUpload discards the session and any uploaded parts
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
}

// StoreFactory builds an ObjectStore session for a set of credentials.
type StoreFactory interface {
	New(creds Credentials) (ObjectStore, error)
}

// Repository defines persistence for users, storage accounts and upload links
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// Storage account operations
	CreateStorageAccount(ctx context.Context, account *StorageAccount) error
	GetStorageAccount(ctx context.Context, ownerID, id uuid.UUID) (*StorageAccount, error)
	GetStorageAccountByCFAccountID(ctx context.Context, ownerID uuid.UUID, cfAccountID string) (*StorageAccount, error)
	ListStorageAccounts(ctx context.Context, ownerID uuid.UUID) ([]*StorageAccount, error)
	DeleteStorageAccount(ctx context.Context, id uuid.UUID) error

	// Upload link operations. Lookup by token hash must exclude links whose
	// expiry is at or before now.
	CreateUploadLink(ctx context.Context, link *UploadLink) error
	GetUploadLinkByTokenHash(ctx context.Context, tokenHash string, now time.Time) (*UploadLink, error)
}
