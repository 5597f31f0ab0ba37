package r2manager

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUserNotFound indicates a user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email is already registered
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidLogin indicates the email/password pair did not match
	ErrInvalidLogin = errors.New("invalid email or password")

	// ErrAccountNotFound indicates a storage account was not found
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists indicates the R2 account is already linked by this user
	ErrAccountExists = errors.New("this R2 account is already added")

	// ErrUploadLinkNotFound covers both unknown and expired upload links.
	// The two cases are deliberately indistinguishable.
	ErrUploadLinkNotFound = errors.New("invalid or expired upload link")

	// ErrObjectNotFound indicates an object was not found in the bucket
	ErrObjectNotFound = errors.New("object not found")
)

// ValidationError reports malformed or missing input, detected before any
// remote call is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(message string) error {
	return &ValidationError{Message: message}
}

// StorageError wraps a failure from the object storage client.
type StorageError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s in bucket %s: %v", e.Op, e.Key, e.Bucket, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
