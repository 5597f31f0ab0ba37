// Package memory provides an in-memory r2manager.ObjectStore used in tests
// and development. It keeps live multipart session state and supports
// failure injection for exercising abort paths.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// multipartSession tracks one in-progress multipart upload.
type multipartSession struct {
	bucket      string
	key         string
	contentType string
	parts       map[int32][]byte
	etags       map[int32]string
}

// Store is an in-memory implementation of the r2manager.ObjectStore interface
type Store struct {
	mu       sync.RWMutex
	buckets  map[string]time.Time
	objects  map[string][]byte            // "bucket/key" -> data
	mimes    map[string]string            // "bucket/key" -> content type
	sessions map[string]*multipartSession // uploadID -> session

	// FailOps lists operation names that should fail with an injected
	// error. Supported names match the StorageError Op values of the s3
	// adapter, e.g. "upload_part", "complete_multipart", "abort_multipart".
	FailOps map[string]error

	// AbortedUploads records uploadIDs passed to AbortMultipartUpload,
	// including calls that were failed by injection.
	AbortedUploads []string
}

// New creates a new in-memory object store with a single default bucket.
func New(buckets ...string) *Store {
	s := &Store{
		buckets:  make(map[string]time.Time),
		objects:  make(map[string][]byte),
		mimes:    make(map[string]string),
		sessions: make(map[string]*multipartSession),
		FailOps:  make(map[string]error),
	}
	for _, b := range buckets {
		s.buckets[b] = time.Now().UTC()
	}
	return s
}

// Object returns the stored bytes and content type for a key.
func (s *Store) Object(bucket, key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, "", false
	}
	return data, s.mimes[bucket+"/"+key], true
}

// OpenSessions returns the number of multipart sessions that are neither
// completed nor aborted.
func (s *Store) OpenSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) failure(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.FailOps[op]
}

func (s *Store) ListBuckets(ctx context.Context) ([]r2manager.BucketInfo, error) {
	if err := s.failure("list_buckets"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	buckets := make([]r2manager.BucketInfo, 0, len(s.buckets))
	for name, created := range s.buckets {
		createdAt := created
		buckets = append(buckets, r2manager.BucketInfo{Name: name, CreatedAt: &createdAt})
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Name < buckets[j].Name })
	return buckets, nil
}

func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, maxKeys int32, continuationToken string) (*r2manager.ObjectListing, error) {
	if err := s.failure("list_objects"); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	listing := &r2manager.ObjectListing{}
	for storedKey, data := range s.objects {
		key, ok := strings.CutPrefix(storedKey, bucket+"/")
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		listing.Objects = append(listing.Objects, r2manager.ObjectInfo{
			Key:  key,
			Size: int64(len(data)),
		})
	}
	sort.Slice(listing.Objects, func(i, j int) bool { return listing.Objects[i].Key < listing.Objects[j].Key })
	if maxKeys > 0 && int32(len(listing.Objects)) > maxKeys {
		listing.Objects = listing.Objects[:maxKeys]
	}
	return listing, nil
}

func (s *Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	if err := s.failure("put_object"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := make([]byte, len(body))
	copy(data, body)
	s.objects[bucket+"/"+key] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.mimes[bucket+"/"+key] = contentType
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := s.failure("delete_object"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+key)
	delete(s.mimes, bucket+"/"+key)
	return nil
}

func (s *Store) HeadObject(ctx context.Context, bucket, key string) error {
	if err := s.failure("head_object"); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[bucket+"/"+key]; !ok {
		return r2manager.ErrObjectNotFound
	}
	return nil
}

func (s *Store) PresignGetObject(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, error) {
	if err := s.failure("presign_get"); err != nil {
		return "", err
	}
	return fmt.Sprintf("memory://%s/%s?expires=%d", bucket, key, int(expiresIn.Seconds())), nil
}

func (s *Store) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	if err := s.failure("initiate_multipart"); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uploadID := uuid.NewString()
	s.sessions[uploadID] = &multipartSession{
		bucket:      bucket,
		key:         key,
		contentType: contentType,
		parts:       make(map[int32][]byte),
		etags:       make(map[int32]string),
	}
	return uploadID, nil
}

func (s *Store) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, error) {
	if err := s.failure("upload_part"); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[uploadID]
	if !ok {
		return "", fmt.Errorf("no such upload: %s", uploadID)
	}

	data := make([]byte, len(body))
	copy(data, body)
	session.parts[partNumber] = data
	etag := fmt.Sprintf("etag-%s-%d", uploadID[:8], partNumber)
	session.etags[partNumber] = etag
	return etag, nil
}

func (s *Store) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []r2manager.CompletedPart) (string, error) {
	if err := s.failure("complete_multipart"); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[uploadID]
	if !ok {
		return "", fmt.Errorf("no such upload: %s", uploadID)
	}

	// The remote service rejects incomplete, misordered or mismatched part
	// lists at completion time; mirror that here.
	if len(parts) != len(session.parts) {
		return "", fmt.Errorf("part list does not match uploaded parts")
	}
	var assembled []byte
	for i, p := range parts {
		if p.PartNumber != int32(i+1) {
			return "", fmt.Errorf("part numbers must be contiguous ascending from 1")
		}
		if session.etags[p.PartNumber] != p.ETag {
			return "", fmt.Errorf("etag mismatch for part %d", p.PartNumber)
		}
		assembled = append(assembled, session.parts[p.PartNumber]...)
	}

	s.objects[bucket+"/"+key] = assembled
	contentType := session.contentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.mimes[bucket+"/"+key] = contentType
	delete(s.sessions, uploadID)

	return fmt.Sprintf("memory://%s/%s", bucket, key), nil
}

func (s *Store) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	s.mu.Lock()
	s.AbortedUploads = append(s.AbortedUploads, uploadID)
	s.mu.Unlock()

	if err := s.failure("abort_multipart"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[uploadID]; !ok {
		return fmt.Errorf("no such upload: %s", uploadID)
	}
	delete(s.sessions, uploadID)
	return nil
}

// Factory returns this same store for any credentials. It records the last
// credentials it was asked for.
type Factory struct {
	mu        sync.Mutex
	store     *Store
	LastCreds r2manager.Credentials
}

// NewFactory wraps a store in a r2manager.StoreFactory.
func NewFactory(store *Store) *Factory {
	return &Factory{store: store}
}

func (f *Factory) New(creds r2manager.Credentials) (r2manager.ObjectStore, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastCreds = creds
	return f.store, nil
}
