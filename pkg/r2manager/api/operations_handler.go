package api

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// OperationsHandler handles bucket, object and upload operations on the
// authenticated surface. Keys are passed through verbatim.
type OperationsHandler struct {
	service r2manager.Service
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service r2manager.Service) *OperationsHandler {
	return &OperationsHandler{service: service}
}

// Routes returns the routes for R2 operations. The caller must mount them
// behind RequireAuth.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{accountID}", func(r chi.Router) {
		r.Get("/buckets", h.ListBuckets)
		r.Route("/buckets/{bucketName}", func(r chi.Router) {
			r.Get("/objects", h.ListObjects)
			r.Delete("/objects", h.DeleteObject)
			r.Post("/presigned-url", h.PresignedURL)
			r.Get("/public-url", h.PublicURL)
			r.Post("/upload", h.Upload)
			r.Post("/multipart/initiate", h.InitiateMultipart)
			r.Post("/multipart/upload-part", h.UploadPart)
			r.Post("/multipart/complete", h.CompleteMultipart)
			r.Post("/multipart/abort", h.AbortMultipart)
			r.Post("/upload-links", h.CreateUploadLink)
		})
	})

	return r
}

// scope extracts the authenticated user and the account/bucket path params.
func (h *OperationsHandler) scope(w http.ResponseWriter, r *http.Request) (userID, accountID uuid.UUID, bucket string, ok bool) {
	userID, authed := UserIDFromContext(r.Context())
	if !authed {
		unauthorized(w, r, "not authenticated")
		return uuid.Nil, uuid.Nil, "", false
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid account ID"))
		return uuid.Nil, uuid.Nil, "", false
	}

	return userID, accountID, chi.URLParam(r, "bucketName"), true
}

// BucketResponse describes one bucket
type BucketResponse struct {
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// ObjectResponse describes one object in a listing
type ObjectResponse struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"lastModified"`
}

// ObjectListResponse is one page of objects
type ObjectListResponse struct {
	Objects           []ObjectResponse `json:"objects"`
	ContinuationToken string           `json:"continuationToken,omitempty"`
}

// ListBuckets lists buckets in the storage account
func (h *OperationsHandler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	userID, accountID, _, ok := h.scope(w, r)
	if !ok {
		return
	}

	buckets, err := h.service.ListBuckets(r.Context(), userID, accountID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		result = append(result, BucketResponse{Name: b.Name, CreatedAt: b.CreatedAt})
	}
	respond(w, r, http.StatusOK, result)
}

// ListObjects lists one page of objects in a bucket
func (h *OperationsHandler) ListObjects(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	maxKeys := int64(1000)
	if v := r.URL.Query().Get("maxKeys"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			respondError(w, r, r2manager.NewValidationError("maxKeys must be a number"))
			return
		}
		maxKeys = parsed
	}

	listing, err := h.service.ListObjects(r.Context(), r2manager.ListObjectsRequest{
		OwnerID:           userID,
		AccountID:         accountID,
		BucketName:        bucket,
		Prefix:            r.URL.Query().Get("prefix"),
		MaxKeys:           int32(maxKeys),
		ContinuationToken: r.URL.Query().Get("continuationToken"),
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	result := ObjectListResponse{
		Objects:           make([]ObjectResponse, 0, len(listing.Objects)),
		ContinuationToken: listing.ContinuationToken,
	}
	for _, obj := range listing.Objects {
		result.Objects = append(result.Objects, ObjectResponse{
			Key:          obj.Key,
			Size:         obj.Size,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	respond(w, r, http.StatusOK, result)
}

// DeleteObject removes one object, identified by the key query parameter
func (h *OperationsHandler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteObject(r.Context(), userID, accountID, bucket, r.URL.Query().Get("key")); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, struct{}{})
}

// PresignedURLRequest is the request body for generating a download URL
type PresignedURLRequest struct {
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

// PresignedURL generates a presigned download URL for an object
func (h *OperationsHandler) PresignedURL(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req PresignedURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	url, err := h.service.PresignDownload(r.Context(), r2manager.PresignDownloadRequest{
		OwnerID:    userID,
		AccountID:  accountID,
		BucketName: bucket,
		Key:        req.Key,
		ExpiresIn:  req.ExpiresIn,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"url": url})
}

// PublicURL returns the r2.dev development URL for an object
func (h *OperationsHandler) PublicURL(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	url, err := h.service.PublicURL(r.Context(), userID, accountID, bucket, r.URL.Query().Get("key"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{
		"publicUrl": url,
		"note":      "This URL only works if Public Access is enabled for this bucket in Cloudflare dashboard",
	})
}

// UploadRequest is the request body for a single-shot upload. Data is
// base64-encoded file content.
type UploadRequest struct {
	Key         string `json:"key"`
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
}

// decodeData converts base64 request payloads into bytes at the boundary.
func decodeData(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, r2manager.NewValidationError("data must be base64 encoded")
	}
	return decoded, nil
}

// Upload stores a small file in a single request
func (h *OperationsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	data, err := decodeData(req.Data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.service.PutObject(r.Context(), r2manager.PutObjectRequest{
		OwnerID:     userID,
		AccountID:   accountID,
		BucketName:  bucket,
		Key:         req.Key,
		Data:        data,
		ContentType: req.ContentType,
	}); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, struct{}{})
}

// InitiateMultipartRequest is the request body for starting a multipart upload
type InitiateMultipartRequest struct {
	Key         string `json:"key"`
	ContentType string `json:"contentType"`
}

// InitiateMultipart starts a multipart upload session
func (h *OperationsHandler) InitiateMultipart(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req InitiateMultipartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	uploadID, err := h.service.InitiateMultipartUpload(r.Context(), r2manager.InitiateMultipartRequest{
		OwnerID:     userID,
		AccountID:   accountID,
		BucketName:  bucket,
		Key:         req.Key,
		ContentType: req.ContentType,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"uploadId": uploadID})
}

// UploadPartRequest is the request body for uploading one part
type UploadPartRequest struct {
	Key        string `json:"key"`
	UploadID   string `json:"uploadId"`
	PartNumber int32  `json:"partNumber"`
	Data       string `json:"data"`
}

// UploadPart uploads one chunk of a multipart session
func (h *OperationsHandler) UploadPart(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req UploadPartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	data, err := decodeData(req.Data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	etag, err := h.service.UploadPart(r.Context(), r2manager.UploadPartRequest{
		OwnerID:    userID,
		AccountID:  accountID,
		BucketName: bucket,
		Key:        req.Key,
		UploadID:   req.UploadID,
		PartNumber: req.PartNumber,
		Data:       data,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"ETag": etag})
}

// CompleteMultipartRequest is the request body for finishing a multipart upload
type CompleteMultipartRequest struct {
	Key      string                    `json:"key"`
	UploadID string                    `json:"uploadId"`
	Parts    []r2manager.CompletedPart `json:"parts"`
}

// CompleteMultipart assembles the final object from uploaded parts
func (h *OperationsHandler) CompleteMultipart(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req CompleteMultipartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	location, err := h.service.CompleteMultipartUpload(r.Context(), r2manager.CompleteMultipartRequest{
		OwnerID:    userID,
		AccountID:  accountID,
		BucketName: bucket,
		Key:        req.Key,
		UploadID:   req.UploadID,
		Parts:      req.Parts,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"location": location})
}

// AbortMultipartRequest is the request body for aborting a multipart upload
type AbortMultipartRequest struct {
	Key      string `json:"key"`
	UploadID string `json:"uploadId"`
}

// AbortMultipart discards a multipart session and its uploaded parts
func (h *OperationsHandler) AbortMultipart(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req AbortMultipartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	if err := h.service.AbortMultipartUpload(r.Context(), r2manager.AbortMultipartRequest{
		OwnerID:    userID,
		AccountID:  accountID,
		BucketName: bucket,
		Key:        req.Key,
		UploadID:   req.UploadID,
	}); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, struct{}{})
}

// CreateUploadLinkRequest is the request body for issuing a public upload link
type CreateUploadLinkRequest struct {
	ExpiresInHours float64 `json:"expiresInHours"`
	Prefix         string  `json:"prefix"`
}

// UploadLinkResponse carries the one-time redemption URL and expiry
type UploadLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateUploadLink issues a time-limited public upload link for the bucket
func (h *OperationsHandler) CreateUploadLink(w http.ResponseWriter, r *http.Request) {
	userID, accountID, bucket, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req CreateUploadLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	link, err := h.service.IssueUploadLink(r.Context(), r2manager.IssueUploadLinkRequest{
		OwnerID:      userID,
		AccountID:    accountID,
		BucketName:   bucket,
		Prefix:       req.Prefix,
		ExpiresHours: req.ExpiresInHours,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("Upload link issued", "user_id", userID, "bucket", bucket)
	respond(w, r, http.StatusCreated, UploadLinkResponse{URL: link.URL, ExpiresAt: link.ExpiresAt})
}
