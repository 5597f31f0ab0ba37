package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// AccountsHandler handles linked R2 storage accounts.
type AccountsHandler struct {
	service r2manager.Service
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(service r2manager.Service) *AccountsHandler {
	return &AccountsHandler{service: service}
}

// Routes returns the routes for storage accounts. The caller must mount
// them behind RequireAuth.
func (h *AccountsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListAccounts)
	r.Post("/", h.AddAccount)
	r.Delete("/{id}", h.DeleteAccount)

	return r
}

// AddAccountRequest is the request body for linking an R2 account
type AddAccountRequest struct {
	AccountID       string `json:"accountId"`
	Name            string `json:"name"`
	AccessKeyID     string `json:"accessKeyId"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// AccountResponse is the safe view of a storage account. Credentials are
// never included, encrypted or otherwise.
type AccountResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func accountResponse(account *r2manager.StorageAccount) AccountResponse {
	return AccountResponse{
		ID:        account.ID.String(),
		AccountID: account.CFAccountID,
		Name:      account.Name,
		CreatedAt: account.CreatedAt,
	}
}

// ListAccounts lists the user's linked accounts
func (h *AccountsHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authenticated")
		return
	}

	accounts, err := h.service.ListStorageAccounts(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	result := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		result = append(result, accountResponse(account))
	}
	respond(w, r, http.StatusOK, result)
}

// AddAccount verifies and links a new R2 account
func (h *AccountsHandler) AddAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authenticated")
		return
	}

	var req AddAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	account, err := h.service.AddStorageAccount(r.Context(), r2manager.AddStorageAccountRequest{
		OwnerID:         userID,
		CFAccountID:     req.AccountID,
		Name:            req.Name,
		AccessKeyID:     req.AccessKeyID,
		SecretAccessKey: req.SecretAccessKey,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	slog.Info("Storage account linked", "user_id", userID, "account_id", account.ID)
	respond(w, r, http.StatusCreated, accountResponse(account))
}

// DeleteAccount unlinks a storage account owned by the user
func (h *AccountsHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authenticated")
		return
	}

	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid account ID"))
		return
	}

	if err := h.service.DeleteStorageAccount(r.Context(), userID, accountID); err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, struct{}{})
}
