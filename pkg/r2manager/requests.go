package r2manager

import "github.com/google/uuid"

// Request DTOs

// RegisterUserRequest contains parameters for registering a new user
type RegisterUserRequest struct {
	Name     string
	Email    string
	Password string
}

// AddStorageAccountRequest contains parameters for linking an R2 account
type AddStorageAccountRequest struct {
	OwnerID         uuid.UUID
	CFAccountID     string
	Name            string
	AccessKeyID     string
	SecretAccessKey string
}

// ListObjectsRequest contains parameters for listing objects in a bucket
type ListObjectsRequest struct {
	OwnerID           uuid.UUID
	AccountID         uuid.UUID
	BucketName        string
	Prefix            string
	MaxKeys           int32
	ContinuationToken string
}

// PresignDownloadRequest contains parameters for generating a download URL
type PresignDownloadRequest struct {
	OwnerID    uuid.UUID
	AccountID  uuid.UUID
	BucketName string
	Key        string
	ExpiresIn  int
}

// PutObjectRequest contains parameters for a single-shot authenticated upload
type PutObjectRequest struct {
	OwnerID     uuid.UUID
	AccountID   uuid.UUID
	BucketName  string
	Key         string
	Data        []byte
	ContentType string
}

// InitiateMultipartRequest starts a multipart session on the authenticated surface
type InitiateMultipartRequest struct {
	OwnerID     uuid.UUID
	AccountID   uuid.UUID
	BucketName  string
	Key         string
	ContentType string
}

// UploadPartRequest uploads one part on the authenticated surface
type UploadPartRequest struct {
	OwnerID    uuid.UUID
	AccountID  uuid.UUID
	BucketName string
	Key        string
	UploadID   string
	PartNumber int32
	Data       []byte
}

// CompleteMultipartRequest finishes a multipart session on the authenticated surface
type CompleteMultipartRequest struct {
	OwnerID    uuid.UUID
	AccountID  uuid.UUID
	BucketName string
	Key        string
	UploadID   string
	Parts      []CompletedPart
}

// AbortMultipartRequest discards a multipart session on the authenticated surface
type AbortMultipartRequest struct {
	OwnerID    uuid.UUID
	AccountID  uuid.UUID
	BucketName string
	Key        string
	UploadID   string
}

// IssueUploadLinkRequest contains parameters for creating a public upload link
type IssueUploadLinkRequest struct {
	OwnerID      uuid.UUID
	AccountID    uuid.UUID
	BucketName   string
	Prefix       string
	ExpiresHours float64
}

// PublicPutObjectRequest is a single-shot upload redeemed through a link token
type PublicPutObjectRequest struct {
	Token       string
	Key         string
	Data        []byte
	ContentType string
}

// PublicInitiateMultipartRequest starts a multipart session through a link token
type PublicInitiateMultipartRequest struct {
	Token       string
	Key         string
	ContentType string
}

// PublicUploadPartRequest uploads one part through a link token
type PublicUploadPartRequest struct {
	Token      string
	Key        string
	UploadID   string
	PartNumber int32
	Data       []byte
}

// PublicCompleteMultipartRequest finishes a multipart session through a link token
type PublicCompleteMultipartRequest struct {
	Token    string
	Key      string
	UploadID string
	Parts    []CompletedPart
}

// PublicAbortMultipartRequest discards a multipart session through a link token
type PublicAbortMultipartRequest struct {
	Token    string
	Key      string
	UploadID string
}
