package r2manager

import (
	"context"

	"github.com/google/uuid"
)

// Service is the main interface for the R2 Manager core.
type Service interface {
	// User operations
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)

	// Storage account operations
	AddStorageAccount(ctx context.Context, req AddStorageAccountRequest) (*StorageAccount, error)
	ListStorageAccounts(ctx context.Context, ownerID uuid.UUID) ([]*StorageAccount, error)
	DeleteStorageAccount(ctx context.Context, ownerID, accountID uuid.UUID) error

	// GetCredentials returns decrypted credentials for a storage account
	// owned by ownerID, or ErrAccountNotFound.
	GetCredentials(ctx context.Context, ownerID, accountID uuid.UUID) (*Credentials, error)

	// Bucket and object operations
	ListBuckets(ctx context.Context, ownerID, accountID uuid.UUID) ([]BucketInfo, error)
	ListObjects(ctx context.Context, req ListObjectsRequest) (*ObjectListing, error)
	DeleteObject(ctx context.Context, ownerID, accountID uuid.UUID, bucket, key string) error
	PresignDownload(ctx context.Context, req PresignDownloadRequest) (string, error)
	PublicURL(ctx context.Context, ownerID, accountID uuid.UUID, bucket, key string) (string, error)

	// Upload operations, authenticated surface
	PutObject(ctx context.Context, req PutObjectRequest) error
	InitiateMultipartUpload(ctx context.Context, req InitiateMultipartRequest) (string, error)
	UploadPart(ctx context.Context, req UploadPartRequest) (string, error)
	CompleteMultipartUpload(ctx context.Context, req CompleteMultipartRequest) (string, error)
	AbortMultipartUpload(ctx context.Context, req AbortMultipartRequest) error

	// Upload link operations
	IssueUploadLink(ctx context.Context, req IssueUploadLinkRequest) (*IssuedLink, error)
	ResolveUploadLink(ctx context.Context, rawToken string) (*LinkInfo, error)

	// Upload operations, public surface (gated by a link token)
	PublicPutObject(ctx context.Context, req PublicPutObjectRequest) error
	PublicInitiateMultipartUpload(ctx context.Context, req PublicInitiateMultipartRequest) (string, error)
	PublicUploadPart(ctx context.Context, req PublicUploadPartRequest) (string, error)
	PublicCompleteMultipartUpload(ctx context.Context, req PublicCompleteMultipartRequest) (string, error)
	PublicAbortMultipartUpload(ctx context.Context, req PublicAbortMultipartRequest) error
}
