package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

const (
	// DefaultChunkSize is the size of each multipart part.
	DefaultChunkSize = 10 * 1024 * 1024

	// DefaultMultipartThreshold is the file size at which uploads switch
	// from single-shot to multipart.
	DefaultMultipartThreshold = 50 * 1024 * 1024
)

// Progress reports upload progress after each completed part. For single-shot
// uploads it is called once with sent == total.
type Progress func(sent, total int64)

// Uploader drives file uploads against an upload API, splitting large files
// into sequential multipart chunks.
type Uploader struct {
	api       uploadAPI
	chunkSize int64
	threshold int64
	progress  Progress
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithChunkSize overrides the part size for multipart uploads.
func WithChunkSize(size int64) Option {
	return func(u *Uploader) { u.chunkSize = size }
}

// WithMultipartThreshold overrides the size at which multipart kicks in.
func WithMultipartThreshold(size int64) Option {
	return func(u *Uploader) { u.threshold = size }
}

// WithProgress registers a progress callback.
func WithProgress(fn Progress) Option {
	return func(u *Uploader) { u.progress = fn }
}

// New creates an Uploader over an authenticated client.
func New(client *Client, options ...Option) *Uploader {
	return newUploader(client, options...)
}

// NewForLink creates an Uploader over a public link client.
func NewForLink(client *LinkClient, options ...Option) *Uploader {
	return newUploader(client, options...)
}

func newUploader(api uploadAPI, options ...Option) *Uploader {
	u := &Uploader{
		api:       api,
		chunkSize: DefaultChunkSize,
		threshold: DefaultMultipartThreshold,
	}
	for _, opt := range options {
		opt(u)
	}
	return u
}

// Upload stores size bytes read from r under key. Files below the multipart
// threshold go up in one request; files at or above it are split into
// sequential parts. If any part fails the session is aborted and the part's
// error is returned.
func (u *Uploader) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if key == "" {
		return errors.New("key is required")
	}
	if size < 0 {
		return errors.New("size must be non-negative")
	}

	if size < u.threshold {
		return u.uploadSingle(ctx, key, r, size, contentType)
	}
	return u.uploadMultipart(ctx, key, r, size, contentType)
}

func (u *Uploader) uploadSingle(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data := make([]byte, size)
	if _, err := io.ReadFull(r, data); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	if err := u.api.put(ctx, key, data, contentType); err != nil {
		return err
	}
	u.report(size, size)
	return nil
}

func (u *Uploader) uploadMultipart(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	uploadID, err := u.api.initiate(ctx, key, contentType)
	if err != nil {
		return err
	}

	var (
		parts []r2manager.CompletedPart
		sent  int64
	)
	buf := make([]byte, u.chunkSize)

	for partNumber := int32(1); sent < size; partNumber++ {
		chunk := buf
		if remaining := size - sent; remaining < u.chunkSize {
			chunk = buf[:remaining]
		}
		if _, err := io.ReadFull(r, chunk); err != nil {
			u.abortSession(ctx, key, uploadID)
			return fmt.Errorf("failed to read input: %w", err)
		}

		etag, err := u.api.uploadPart(ctx, key, uploadID, partNumber, chunk)
		if err != nil {
			u.abortSession(ctx, key, uploadID)
			return err
		}

		parts = append(parts, r2manager.CompletedPart{PartNumber: partNumber, ETag: etag})
		sent += int64(len(chunk))
		u.report(sent, size)
	}

	if _, err := u.api.complete(ctx, key, uploadID, parts); err != nil {
		u.abortSession(ctx, key, uploadID)
		return err
	}
	return nil
}

// abortSession discards the session. The original failure is what the caller
// cares about, so an abort error is logged but never surfaced.
func (u *Uploader) abortSession(ctx context.Context, key, uploadID string) {
	if err := u.api.abort(ctx, key, uploadID); err != nil {
		slog.Warn("Failed to abort multipart upload", "upload_id", uploadID, "key", key, "error", err)
	}
}

func (u *Uploader) report(sent, total int64) {
	if u.progress != nil {
		u.progress(sent, total)
	}
}
