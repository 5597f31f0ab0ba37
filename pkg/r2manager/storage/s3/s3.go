// Package s3 implements r2manager.ObjectStore against Cloudflare R2 or any
// other S3-compatible endpoint using the AWS SDK.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// DefaultEndpointTemplate is the Cloudflare R2 S3 endpoint pattern. The
// single %s is the Cloudflare account ID.
const DefaultEndpointTemplate = "https://%s.r2.cloudflarestorage.com"

// Config options for the S3 store factory
type Config struct {
	// EndpointTemplate builds the endpoint from the account ID. Defaults
	// to the Cloudflare R2 pattern. Set Endpoint to bypass it entirely.
	EndpointTemplate string
	// Endpoint, when non-empty, is used verbatim for every account. Useful
	// for MinIO in development.
	Endpoint string
	// Region defaults to "auto", which is what R2 expects.
	Region string
}

// Factory builds ObjectStore sessions from decrypted credentials.
type Factory struct {
	config Config
}

// NewFactory creates an S3 store factory.
func NewFactory(config Config) *Factory {
	if config.EndpointTemplate == "" {
		config.EndpointTemplate = DefaultEndpointTemplate
	}
	if config.Region == "" {
		config.Region = "auto"
	}
	return &Factory{config: config}
}

// New builds a session for one set of credentials. Nothing is cached; a
// fresh client is cheap and avoids shared mutable credential state.
func (f *Factory) New(creds r2manager.Credentials) (r2manager.ObjectStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(f.config.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			creds.AccessKeyID,
			creds.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := f.config.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(f.config.EndpointTemplate, creds.AccountID)
	}

	// Path-style addressing works for both R2 and local S3-compatible
	// endpoints; virtual hosting does not.
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &Store{
		client:        client,
		presignClient: s3.NewPresignClient(client),
	}, nil
}

// Store is an ObjectStore backed by one S3 client session.
type Store struct {
	client        *s3.Client
	presignClient *s3.PresignClient
}

func (s *Store) ListBuckets(ctx context.Context) ([]r2manager.BucketInfo, error) {
	result, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, &r2manager.StorageError{Op: "list_buckets", Err: err}
	}

	buckets := make([]r2manager.BucketInfo, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		buckets = append(buckets, r2manager.BucketInfo{
			Name:      aws.ToString(b.Name),
			CreatedAt: b.CreationDate,
		})
	}
	return buckets, nil
}

func (s *Store) ListObjects(ctx context.Context, bucket, prefix string, maxKeys int32, continuationToken string) (*r2manager.ObjectListing, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(maxKeys),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	result, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, &r2manager.StorageError{Op: "list_objects", Bucket: bucket, Err: err}
	}

	listing := &r2manager.ObjectListing{
		Objects:           make([]r2manager.ObjectInfo, 0, len(result.Contents)),
		ContinuationToken: aws.ToString(result.NextContinuationToken),
	}
	for _, obj := range result.Contents {
		listing.Objects = append(listing.Objects, r2manager.ObjectInfo{
			Key:          aws.ToString(obj.Key),
			Size:         aws.ToInt64(obj.Size),
			ETag:         strings.Trim(aws.ToString(obj.ETag), "\""),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}
	return listing, nil
}

func (s *Store) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	uploader := manager.NewUploader(s.client)

	input := &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := uploader.Upload(ctx, input); err != nil {
		return &r2manager.StorageError{Op: "put_object", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return &r2manager.StorageError{Op: "delete_object", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (s *Store) HeadObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return r2manager.ErrObjectNotFound
		}
		return &r2manager.StorageError{Op: "head_object", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

func (s *Store) PresignGetObject(ctx context.Context, bucket, key string, expiresIn time.Duration) (string, error) {
	result, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiresIn
	})
	if err != nil {
		return "", &r2manager.StorageError{Op: "presign_get", Bucket: bucket, Key: key, Err: err}
	}
	return result.URL, nil
}

func (s *Store) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	result, err := s.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", &r2manager.StorageError{Op: "initiate_multipart", Bucket: bucket, Key: key, Err: err}
	}
	return aws.ToString(result.UploadId), nil
}

func (s *Store) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, error) {
	result, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
		Body:       bytes.NewReader(body),
	})
	if err != nil {
		return "", &r2manager.StorageError{Op: "upload_part", Bucket: bucket, Key: key, Err: err}
	}
	return aws.ToString(result.ETag), nil
}

func (s *Store) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []r2manager.CompletedPart) (string, error) {
	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	result, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return "", &r2manager.StorageError{Op: "complete_multipart", Bucket: bucket, Key: key, Err: err}
	}
	return aws.ToString(result.Location), nil
}

func (s *Store) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return &r2manager.StorageError{Op: "abort_multipart", Bucket: bucket, Key: key, Err: err}
	}
	return nil
}

// isNotFound detects the missing-object responses S3-compatible services
// return for HeadObject, which vary between NotFound and 404 API errors.
func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchKey"
	}
	return false
}
