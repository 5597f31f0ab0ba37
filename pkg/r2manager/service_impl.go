package r2manager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultPresignExpiry is the presigned download URL lifetime, in seconds,
// used when a request does not specify one.
const DefaultPresignExpiry = 3600

// CredentialCipher encrypts and decrypts credential strings at rest.
type CredentialCipher interface {
	EncryptString(plaintext string) (string, error)
	DecryptString(encoded string) (string, error)
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
}

// service implements the Service interface
type service struct {
	repository Repository
	stores     StoreFactory
	cipher     CredentialCipher
	passwords  PasswordHasher
	baseURL    string
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithStoreFactory sets the object store factory for the service
func WithStoreFactory(factory StoreFactory) Option {
	return func(s *service) {
		s.stores = factory
	}
}

// WithCredentialCipher sets the cipher used for credentials at rest
func WithCredentialCipher(cipher CredentialCipher) Option {
	return func(s *service) {
		s.cipher = cipher
	}
}

// WithPasswordHasher sets the password hasher
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(s *service) {
		s.passwords = hasher
	}
}

// WithBaseURL sets the base URL embedded in upload link redemption URLs
func WithBaseURL(baseURL string) Option {
	return func(s *service) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		baseURL: "http://localhost:3000",
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.stores == nil {
		return nil, fmt.Errorf("store factory is required")
	}
	if s.cipher == nil {
		return nil, fmt.Errorf("credential cipher is required")
	}
	if s.passwords == nil {
		return nil, fmt.Errorf("password hasher is required")
	}

	return s, nil
}

// User operations

func (s *service) RegisterUser(ctx context.Context, req RegisterUserRequest) (*User, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, NewValidationError("please provide name, email and password")
	}

	if _, err := s.repository.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        strings.ToLower(req.Email),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repository.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (s *service) AuthenticateUser(ctx context.Context, email, password string) (*User, error) {
	if email == "" || password == "" {
		return nil, NewValidationError("please provide email and password")
	}

	user, err := s.repository.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, ErrInvalidLogin
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		return nil, ErrInvalidLogin
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repository.GetUser(ctx, id)
}

// Storage account operations

func (s *service) AddStorageAccount(ctx context.Context, req AddStorageAccountRequest) (*StorageAccount, error) {
	if req.CFAccountID == "" || req.Name == "" || req.AccessKeyID == "" || req.SecretAccessKey == "" {
		return nil, NewValidationError("please provide all required fields")
	}

	if _, err := s.repository.GetStorageAccountByCFAccountID(ctx, req.OwnerID, req.CFAccountID); err == nil {
		return nil, ErrAccountExists
	}

	// Probe the remote endpoint before persisting anything.
	store, err := s.stores.New(Credentials{
		AccountID:       req.CFAccountID,
		AccessKeyID:     req.AccessKeyID,
		SecretAccessKey: req.SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}
	if _, err := store.ListBuckets(ctx); err != nil {
		return nil, NewValidationError("invalid R2 credentials or account ID")
	}

	encryptedKeyID, err := s.cipher.EncryptString(req.AccessKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}
	encryptedSecret, err := s.cipher.EncryptString(req.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	account := &StorageAccount{
		ID:              uuid.New(),
		OwnerID:         req.OwnerID,
		CFAccountID:     req.CFAccountID,
		Name:            req.Name,
		AccessKeyID:     encryptedKeyID,
		SecretAccessKey: encryptedSecret,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.repository.CreateStorageAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create storage account: %w", err)
	}

	return account, nil
}

func (s *service) ListStorageAccounts(ctx context.Context, ownerID uuid.UUID) ([]*StorageAccount, error) {
	return s.repository.ListStorageAccounts(ctx, ownerID)
}

func (s *service) DeleteStorageAccount(ctx context.Context, ownerID, accountID uuid.UUID) error {
	account, err := s.repository.GetStorageAccount(ctx, ownerID, accountID)
	if err != nil {
		return err
	}
	return s.repository.DeleteStorageAccount(ctx, account.ID)
}

func (s *service) GetCredentials(ctx context.Context, ownerID, accountID uuid.UUID) (*Credentials, error) {
	account, err := s.repository.GetStorageAccount(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}

	accessKeyID, err := s.cipher.DecryptString(account.AccessKeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}
	secret, err := s.cipher.DecryptString(account.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	return &Credentials{
		AccountID:       account.CFAccountID,
		AccessKeyID:     accessKeyID,
		SecretAccessKey: secret,
	}, nil
}

// storeFor builds a fresh object store session for a storage account.
func (s *service) storeFor(ctx context.Context, ownerID, accountID uuid.UUID) (ObjectStore, *Credentials, error) {
	creds, err := s.GetCredentials(ctx, ownerID, accountID)
	if err != nil {
		return nil, nil, err
	}
	store, err := s.stores.New(*creds)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create storage session: %w", err)
	}
	return store, creds, nil
}

// Bucket and object operations

func (s *service) ListBuckets(ctx context.Context, ownerID, accountID uuid.UUID) ([]BucketInfo, error) {
	store, _, err := s.storeFor(ctx, ownerID, accountID)
	if err != nil {
		return nil, err
	}
	return store.ListBuckets(ctx)
}

func (s *service) ListObjects(ctx context.Context, req ListObjectsRequest) (*ObjectListing, error) {
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return nil, err
	}
	maxKeys := req.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}
	return store.ListObjects(ctx, req.BucketName, req.Prefix, maxKeys, req.ContinuationToken)
}

func (s *service) DeleteObject(ctx context.Context, ownerID, accountID uuid.UUID, bucket, key string) error {
	if key == "" {
		return NewValidationError("object key is required")
	}
	store, _, err := s.storeFor(ctx, ownerID, accountID)
	if err != nil {
		return err
	}
	return store.DeleteObject(ctx, bucket, key)
}

func (s *service) PresignDownload(ctx context.Context, req PresignDownloadRequest) (string, error) {
	if req.Key == "" {
		return "", NewValidationError("object key is required")
	}
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return "", err
	}
	expiresIn := req.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = DefaultPresignExpiry
	}
	return store.PresignGetObject(ctx, req.BucketName, req.Key, time.Duration(expiresIn)*time.Second)
}

// PublicURL returns the r2.dev development URL for an object. The URL only
// serves content when public access is enabled on the bucket.
func (s *service) PublicURL(ctx context.Context, ownerID, accountID uuid.UUID, bucket, key string) (string, error) {
	if key == "" {
		return "", NewValidationError("object key is required")
	}
	store, creds, err := s.storeFor(ctx, ownerID, accountID)
	if err != nil {
		return "", err
	}
	if err := store.HeadObject(ctx, bucket, key); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://%s.%s.r2.dev/%s", bucket, creds.AccountID, key), nil
}
