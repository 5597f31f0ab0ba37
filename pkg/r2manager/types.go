package r2manager

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered console user.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StorageAccount is a linked Cloudflare R2 account. AccessKeyID and
// SecretAccessKey are stored encrypted; they are only decrypted on the way
// into an ObjectStore session.
type StorageAccount struct {
	ID              uuid.UUID
	OwnerID         uuid.UUID
	CFAccountID     string
	Name            string
	AccessKeyID     string
	SecretAccessKey string
	CreatedAt       time.Time
}

// Credentials are decrypted, ready-to-use R2 access credentials.
type Credentials struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
}

// UploadLink is a persisted capability token granting anonymous upload
// rights into one bucket/prefix until ExpiresAt. Only the hash of the
// random secret is stored; the raw secret is embedded in the redemption
// URL returned at issuance and never seen again.
type UploadLink struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	AccountID  uuid.UUID
	BucketName string
	Prefix     string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// IssuedLink is returned when an upload link is created.
type IssuedLink struct {
	URL       string
	ExpiresAt time.Time
}

// LinkInfo is the public view of an upload link. The owner and account
// references are deliberately absent.
type LinkInfo struct {
	BucketName string
	Prefix     string
	ExpiresAt  time.Time
}

// BucketInfo describes a bucket in a storage account.
type BucketInfo struct {
	Name      string
	CreatedAt *time.Time
}

// ObjectInfo describes an object in a bucket listing.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// ObjectListing is one page of a bucket listing.
type ObjectListing struct {
	Objects           []ObjectInfo
	ContinuationToken string
}

// CompletedPart pairs a part number with the ETag returned by UploadPart.
// The full ordered list must be submitted verbatim at completion time.
type CompletedPart struct {
	PartNumber int32  `json:"PartNumber"`
	ETag       string `json:"ETag"`
}
