package r2manager

import (
	"context"
)

// Upload operations, authenticated surface. Keys are used verbatim; no
// prefix injection happens here.

func (s *service) PutObject(ctx context.Context, req PutObjectRequest) error {
	if req.Key == "" || len(req.Data) == 0 {
		return NewValidationError("key and data are required")
	}
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return err
	}
	return store.PutObject(ctx, req.BucketName, req.Key, req.Data, req.ContentType)
}

func (s *service) InitiateMultipartUpload(ctx context.Context, req InitiateMultipartRequest) (string, error) {
	if req.Key == "" {
		return "", NewValidationError("key is required")
	}
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return "", err
	}
	return store.CreateMultipartUpload(ctx, req.BucketName, req.Key, req.ContentType)
}

func (s *service) UploadPart(ctx context.Context, req UploadPartRequest) (string, error) {
	if req.Key == "" || req.UploadID == "" || req.PartNumber < 1 || len(req.Data) == 0 {
		return "", NewValidationError("all fields are required")
	}
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return "", err
	}
	return store.UploadPart(ctx, req.BucketName, req.Key, req.UploadID, req.PartNumber, req.Data)
}

func (s *service) CompleteMultipartUpload(ctx context.Context, req CompleteMultipartRequest) (string, error) {
	if req.Key == "" || req.UploadID == "" || len(req.Parts) == 0 {
		return "", NewValidationError("all fields are required")
	}
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return "", err
	}
	return store.CompleteMultipartUpload(ctx, req.BucketName, req.Key, req.UploadID, req.Parts)
}

func (s *service) AbortMultipartUpload(ctx context.Context, req AbortMultipartRequest) error {
	if req.Key == "" || req.UploadID == "" {
		return NewValidationError("key and uploadId are required")
	}
	store, _, err := s.storeFor(ctx, req.OwnerID, req.AccountID)
	if err != nil {
		return err
	}
	return store.AbortMultipartUpload(ctx, req.BucketName, req.Key, req.UploadID)
}

// Upload operations, public surface. Every call re-resolves the token and
// confines the client key to the link's prefix before touching storage.

// publicStore resolves the token, the effective key, and a storage session
// bound to the link owner's credentials.
func (s *service) publicStore(ctx context.Context, rawToken, key string) (ObjectStore, *UploadLink, string, error) {
	link, err := s.resolveLink(ctx, rawToken)
	if err != nil {
		return nil, nil, "", err
	}
	resolvedKey, err := ResolveKey(link.Prefix, key)
	if err != nil {
		return nil, nil, "", err
	}
	store, _, err := s.storeFor(ctx, link.OwnerID, link.AccountID)
	if err != nil {
		return nil, nil, "", err
	}
	return store, link, resolvedKey, nil
}

func (s *service) PublicPutObject(ctx context.Context, req PublicPutObjectRequest) error {
	if req.Key == "" || len(req.Data) == 0 {
		return NewValidationError("key and data are required")
	}
	store, link, key, err := s.publicStore(ctx, req.Token, req.Key)
	if err != nil {
		return err
	}
	return store.PutObject(ctx, link.BucketName, key, req.Data, req.ContentType)
}

func (s *service) PublicInitiateMultipartUpload(ctx context.Context, req PublicInitiateMultipartRequest) (string, error) {
	if req.Key == "" {
		return "", NewValidationError("key is required")
	}
	store, link, key, err := s.publicStore(ctx, req.Token, req.Key)
	if err != nil {
		return "", err
	}
	return store.CreateMultipartUpload(ctx, link.BucketName, key, req.ContentType)
}

func (s *service) PublicUploadPart(ctx context.Context, req PublicUploadPartRequest) (string, error) {
	if req.Key == "" || req.UploadID == "" || req.PartNumber < 1 || len(req.Data) == 0 {
		return "", NewValidationError("all fields are required")
	}
	store, link, key, err := s.publicStore(ctx, req.Token, req.Key)
	if err != nil {
		return "", err
	}
	return store.UploadPart(ctx, link.BucketName, key, req.UploadID, req.PartNumber, req.Data)
}

func (s *service) PublicCompleteMultipartUpload(ctx context.Context, req PublicCompleteMultipartRequest) (string, error) {
	if req.Key == "" || req.UploadID == "" || len(req.Parts) == 0 {
		return "", NewValidationError("all fields are required")
	}
	store, link, key, err := s.publicStore(ctx, req.Token, req.Key)
	if err != nil {
		return "", err
	}
	return store.CompleteMultipartUpload(ctx, link.BucketName, key, req.UploadID, req.Parts)
}

func (s *service) PublicAbortMultipartUpload(ctx context.Context, req PublicAbortMultipartRequest) error {
	if req.Key == "" || req.UploadID == "" {
		return NewValidationError("key and uploadId are required")
	}
	store, link, key, err := s.publicStore(ctx, req.Token, req.Key)
	if err != nil {
		return err
	}
	return store.AbortMultipartUpload(ctx, link.BucketName, key, req.UploadID)
}
