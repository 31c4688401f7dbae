package handlers

import (
	"errors"
	"net/http"

	"github.com/dankotyt/Bank-REST/internal/apperrors"
	"github.com/dankotyt/Bank-REST/internal/handlers/render"
	"github.com/dankotyt/Bank-REST/internal/logger"
)

// serviceError maps domain errors to HTTP statuses (spoken statuses only,
// messages stay generic where leaking would help user enumeration)
func serviceError(w http.ResponseWriter, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidToken):
		render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrCardNotFound):
		render.ServiceError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
	case errors.Is(err, apperrors.ErrEmailBusy):
		render.ServiceError(w, "Email already taken", http.StatusConflict)
	case errors.Is(err, apperrors.ErrAmountNotPositive),
		errors.Is(err, apperrors.ErrSameCardTransfer),
		errors.Is(err, apperrors.ErrCardNotActive),
		errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrCardAlreadyBlocked),
		errors.Is(err, apperrors.ErrCardAlreadyActive):
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
	default:
		l.Error("Unexpected service error", "error", err)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
