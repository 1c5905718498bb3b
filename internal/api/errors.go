package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/jobscout-api/internal/api/shared"
	"github.com/phrazzld/jobscout-api/internal/domain"
	"github.com/phrazzld/jobscout-api/internal/events"
	"github.com/phrazzld/jobscout-api/internal/service"
	"github.com/phrazzld/jobscout-api/internal/task"
)

var (
	// ErrInvalidForm is returned for bodies that are not a multipart form.
	ErrInvalidForm = errors.New("invalid signup form")
	// ErrResumeMissing is returned when no résumé file was uploaded.
	ErrResumeMissing = errors.New("résumé file is required")
	// ErrResumeTooLarge is returned for uploads above the size limit.
	ErrResumeTooLarge = errors.New("résumé exceeds the upload limit")
	// ErrResumeNotPDF is returned when the upload is not a PDF document.
	ErrResumeNotPDF = errors.New("résumé must be a PDF")
)

// MapErrorToStatusCode maps internal errors to HTTP status codes.
func MapErrorToStatusCode(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrResumeTooLarge):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, ErrInvalidForm),
		errors.Is(err, ErrResumeMissing),
		errors.Is(err, ErrResumeNotPDF),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrInvalidUnsubscribeLink),
		errors.As(err, &validationErrs):
		return http.StatusBadRequest

	// The pipeline cannot take more work right now.
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, events.ErrNoHandlers):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a message for err that is safe to show to
// clients.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return SanitizeValidationError(validationErrs)
	case errors.Is(err, ErrResumeTooLarge):
		return "Résumé file is too large"
	case errors.Is(err, ErrResumeMissing):
		return "Résumé file is required"
	case errors.Is(err, ErrResumeNotPDF):
		return "Résumé must be a PDF file"
	case errors.Is(err, ErrInvalidForm):
		return "Invalid signup form"
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrEmptyEmail):
		return "Invalid email address"
	case errors.Is(err, domain.ErrEmptyUsername):
		return "Username is required"
	case errors.Is(err, service.ErrInvalidUnsubscribeLink):
		return "Invalid or expired unsubscribe link"
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed),
		errors.Is(err, events.ErrNoHandlers):
		return "Service is busy, please try again later"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError describes the first failed field without
// exposing struct names.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	return fmt.Sprintf("Invalid %s: %s", fe.Field(), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the JSON error for err and logs it.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
}
