package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// AuthHandler handles registration and login.
type AuthHandler struct {
	service r2manager.Service
	auth    *Authenticator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service r2manager.Service, auth *Authenticator) *AuthHandler {
	return &AuthHandler{service: service, auth: auth}
}

// Routes returns the routes for authentication
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.RequireAuth)
		r.Get("/me", h.Me)
	})

	return r
}

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the safe view of a user
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenResponse carries a bearer token plus the user it identifies
type TokenResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func userResponse(user *r2manager.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

// Register creates a new user and returns a bearer token
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	user, err := h.service.RegisterUser(r.Context(), r2manager.RegisterUserRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		slog.Error("Failed to issue token", "user_id", user.ID, "error", err)
		respondError(w, r, err)
		return
	}

	slog.Info("User registered", "user_id", user.ID)
	respond(w, r, http.StatusCreated, TokenResponse{Token: token, User: userResponse(user)})
}

// Login authenticates a user and returns a bearer token
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, r2manager.NewValidationError("invalid request body"))
		return
	}

	user, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	token, err := h.auth.IssueToken(user.ID)
	if err != nil {
		slog.Error("Failed to issue token", "user_id", user.ID, "error", err)
		respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, TokenResponse{Token: token, User: userResponse(user)})
}

// Me returns the authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "not authenticated")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respond(w, r, http.StatusOK, userResponse(user))
}
