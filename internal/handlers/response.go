package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/AnshRaj112/profiledir-backend/internal/services"
	"github.com/AnshRaj112/profiledir-backend/pkg/httpx"
	"github.com/AnshRaj112/profiledir-backend/pkg/utils"
)

// respond writes env as JSON. A nil toast list is sent as [].
func respond(w http.ResponseWriter, status int, env httpx.Envelope, toasts *services.Toasts) {
	if toasts != nil {
		env.Notifications = toasts.List()
	} else {
		env.Notifications = []services.Toast{}
	}
	httpx.WriteJSON(w, status, env)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case services.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrBlobStoreDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// userMessage is the text shown for err: the store's own message, without
// the workflow step prefix.
func userMessage(err error) string {
	var stepErr *services.StepError
	if errors.As(err, &stepErr) {
		return stepErr.Err.Error()
	}
	var fe utils.FieldErrors
	if errors.As(err, &fe) {
		return "Please correct the highlighted fields"
	}
	return err.Error()
}

// writeError answers a failed request. Validation errors carry the
// per-field messages; everything else carries the verbatim error message.
func writeError(w http.ResponseWriter, log *zap.Logger, err error, toasts *services.Toasts) {
	status := statusFor(err)
	env := httpx.Envelope{Success: false, Message: userMessage(err)}

	var fe utils.FieldErrors
	if errors.As(err, &fe) {
		env.Errors = fe
	}
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	respond(w, status, env, toasts)
}
