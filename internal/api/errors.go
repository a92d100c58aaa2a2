package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wordrill/wordrill-api/internal/service/auth"
	"github.com/wordrill/wordrill-api/internal/service/review"
	"github.com/wordrill/wordrill-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized

	// Not found errors
	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, store.ErrWordNotFound),
		errors.Is(err, review.ErrCardNotFound):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, review.ErrInvalidRating):
		return http.StatusBadRequest

	// Quota exhaustion
	case errors.Is(err, review.ErrQuotaExceeded):
		return http.StatusTooManyRequests

	// Concurrent modification of the same card
	case errors.Is(err, store.ErrConcurrentModification):
		return http.StatusConflict

	// Store connectivity problems
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken):
		return "Invalid token"

	// Not found errors
	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, review.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrWordNotFound):
		return "Word not found"

	// Bad request errors
	case errors.Is(err, review.ErrInvalidRating):
		return "Invalid rating"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	// Quota exhaustion
	case errors.Is(err, review.ErrQuotaExceeded):
		return "Daily new-card quota exceeded"

	// Concurrency conflicts
	case errors.Is(err, store.ErrConcurrentModification):
		return "Card was modified concurrently, please retry"

	// Store connectivity problems
	case errors.Is(err, store.ErrUnavailable):
		return "Service temporarily unavailable"

	// Default case for unknown errors
	default:
		if strings.Contains(err.Error(), "submit rating") {
			return "Failed to submit rating"
		} else if strings.Contains(err.Error(), "start session") {
			return "Failed to start review session"
		}
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	if strings.Contains(errMsg, "Field validation") {
		// Example format: "Key: 'SubmitRatingRequest.Rating' Error:Field validation for 'Rating' failed on the 'oneof' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too small"
	case "max":
		return "too large"
	case "oneof":
		return "invalid value"
	case "uuid":
		return "invalid identifier"
	default:
		return "validation failed"
	}
}
