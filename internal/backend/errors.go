package backend

import (
	"errors"
	"net/http"

	apperrors "github.com/frahmantamala/construction-dashboard/internal"
)

// ToAppError maps a backend failure onto the application taxonomy. fallback
// is the message shown when the backend gave no detail.
func ToAppError(err error, fallback string) *apperrors.AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, ErrNoToken) {
			return apperrors.NewUnauthorizedError("Not signed in", apperrors.ErrCodeNotAuthenticated).WithCause(err)
		}
		if errors.Is(err, ErrMalformedResponse) {
			return apperrors.NewExternalError("Unexpected response from backend", apperrors.ErrCodeBackendRejected, err)
		}
		return apperrors.NewExternalError("Backend is unavailable", apperrors.ErrCodeBackendUnavailable, err)
	}

	message := apiErr.Detail
	if message == "" {
		message = fallback
	}

	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(message, apperrors.ErrCodeInvalidToken).WithCause(err)
	case apiErr.StatusCode == http.StatusForbidden:
		return apperrors.NewForbiddenError(message, apperrors.ErrCodeInsufficientRole).WithCause(err)
	case apiErr.StatusCode == http.StatusNotFound:
		return apperrors.NewNotFoundError(message, apperrors.ErrCodeResourceNotFound).WithCause(err)
	case apiErr.StatusCode == http.StatusBadRequest, apiErr.StatusCode == http.StatusUnprocessableEntity:
		appErr := apperrors.NewValidationError(message, apperrors.ErrCodeBackendRejected).WithCause(err)
		appErr.StatusCode = apiErr.StatusCode
		return appErr
	case apiErr.StatusCode == http.StatusConflict:
		return apperrors.NewConflictError(message, apperrors.ErrCodeBackendRejected).WithCause(err)
	}
	return apperrors.NewExternalError(fallback, apperrors.ErrCodeBackendRejected, err)
}

// Message returns the text to show inline for a failed form submission.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	if appErr, ok := apperrors.IsAppError(err); ok {
		return appErr.GetDetailedMessage()
	}
	return fallback
}
