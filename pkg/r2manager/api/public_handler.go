package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// PublicHandler handles uploads through capability tokens. No authentication
// is required; the token itself is the credential.
type PublicHandler struct {
	service r2manager.Service
}

// NewPublicHandler creates a new public upload handler
func NewPublicHandler(service r2manager.Service) *PublicHandler {
	return &PublicHandler{service: service}
}

// Routes returns the routes for public link uploads
func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/{token}", func(r chi.Router) {
		r.Get("/info", h.Info)
		r.Post("/upload", h.Upload)
		r.Post("/multipart/initiate", h.InitiateMultipart)
		r.Post("/multipart/upload-part", h.UploadPart)
		r.Post("/multipart/complete", h.CompleteMultipart)
		r.Post("/multipart/abort", h.AbortMultipart)
	})

	return r
}

// LinkInfoResponse describes where a valid upload link points
type LinkInfoResponse struct {
	BucketName string    `json:"bucketName"`
	Prefix     string    `json:"prefix"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Info validates the token and returns the link's destination
func (h *PublicHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.ResolveUploadLink(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, LinkInfoResponse{
		BucketName: info.BucketName,
		Prefix:     info.Prefix,
		ExpiresAt:  info.ExpiresAt,
	})
}

// Upload stores a small file through an upload link
func (h *PublicHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.PublicPutObject(r.Context(), r2manager.PublicPutObjectRequest{
		Token:       chi.URLParam(r, "token"),
		Key:         req.Key,
		Data:        data,
		ContentType: req.ContentType,
	}); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, struct{}{})
}

// InitiateMultipart starts a multipart upload through an upload link
func (h *PublicHandler) InitiateMultipart(w http.ResponseWriter, r *http.Request) {
	var req InitiateMultipartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	uploadID, err := h.service.PublicInitiateMultipartUpload(r.Context(), r2manager.PublicInitiateMultipartRequest{
		Token:       chi.URLParam(r, "token"),
		Key:         req.Key,
		ContentType: req.ContentType,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"uploadId": uploadID})
}

// UploadPart uploads one chunk of a multipart session through an upload link
func (h *PublicHandler) UploadPart(w http.ResponseWriter, r *http.Request) {
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

	etag, err := h.service.PublicUploadPart(r.Context(), r2manager.PublicUploadPartRequest{
		Token:      chi.URLParam(r, "token"),
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

// CompleteMultipart finishes a multipart upload through an upload link
func (h *PublicHandler) CompleteMultipart(w http.ResponseWriter, r *http.Request) {
	var req CompleteMultipartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	location, err := h.service.PublicCompleteMultipartUpload(r.Context(), r2manager.PublicCompleteMultipartRequest{
		Token:    chi.URLParam(r, "token"),
		Key:      req.Key,
		UploadID: req.UploadID,
		Parts:    req.Parts,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, map[string]string{"location": location})
}

// AbortMultipart discards a multipart session through an upload link
func (h *PublicHandler) AbortMultipart(w http.ResponseWriter, r *http.Request) {
	var req AbortMultipartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	if err := h.service.PublicAbortMultipartUpload(r.Context(), r2manager.PublicAbortMultipartRequest{
		Token:    chi.URLParam(r, "token"),
		Key:      req.Key,
		UploadID: req.UploadID,
	}); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, struct{}{})
}
