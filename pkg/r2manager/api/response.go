package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/saifulislam80/r2-manager/pkg/r2manager"
)

// Envelope is the uniform response body for every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	render.Status(r, statusFor(err))
	render.JSON(w, r, Envelope{Success: false, Error: err.Error()})
}

// statusFor maps the service error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var validation *r2manager.ValidationError
	switch {
	case errors.As(err, &validation),
		errors.Is(err, r2manager.ErrEmailTaken),
		errors.Is(err, r2manager.ErrAccountExists):
		return http.StatusBadRequest
	case errors.Is(err, r2manager.ErrInvalidLogin):
		return http.StatusUnauthorized
	case errors.Is(err, r2manager.ErrUserNotFound),
		errors.Is(err, r2manager.ErrAccountNotFound),
		errors.Is(err, r2manager.ErrUploadLinkNotFound),
		errors.Is(err, r2manager.ErrObjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
