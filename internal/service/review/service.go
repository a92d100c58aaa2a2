// Package review implements the session orchestrator: it composes bounded
// review batches, applies ratings through the scheduler, persists the
// resulting card states, and gates new-word admission on the daily quota.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
)

// CardType distinguishes batch entries: "new" cards consume quota when
// first rated, "extend" cards are previously-seen material and are never
// gated.
type CardType string

// Possible card types in a review batch
const (
	CardTypeNew    CardType = "new"
	CardTypeExtend CardType = "extend"
)

// CardSummary is one entry of a review batch: the card joined with its
// word metadata. Summaries are ephemeral; they exist only for the
// response and are never persisted.
type CardSummary struct {
	ID            uuid.UUID `json:"id"`
	WordID        uuid.UUID `json:"word_id"`
	Term          string    `json:"word"`
	Pronunciation string    `json:"pronunciation,omitempty"`
	PartOfSpeech  string    `json:"pos,omitempty"`
	Meaning       string    `json:"meaning"`
	Sentence      string    `json:"sentence,omitempty"`
	Type          CardType  `json:"type"`
	DueAt         time.Time `json:"due_at"`
}

// ReviewBatch is a bounded, ordered set of cards for one review session,
// together with the quota snapshot the batch was composed against.
type ReviewBatch struct {
	Cards []CardSummary        `json:"cards"`
	Quota domain.QuotaSnapshot `json:"quota"`
}

// Service provides review session orchestration.
type Service interface {
	// StartSession composes a review batch for the user. Due Learning and
	// Reviewing cards are never quota-gated; reviewing previously-seen
	// material is always free. Only New cards consume new-word slots,
	// bounded by min(requested free slots, RemainingToday). A user with an
	// exhausted quota degrades to review-only mode rather than being
	// locked out.
	//
	// now is server-observed time; it defines both due-ness and the quota
	// day. requested is clamped to the configured batch bounds by the
	// caller.
	StartSession(
		ctx context.Context,
		userID uuid.UUID,
		requested int,
		now time.Time,
	) (*ReviewBatch, error)

	// SubmitRating applies a rating to the user's card for the given word:
	// it loads the card state, runs the scheduler, persists the result as
	// a versioned full-record replace, and records one unit of quota usage
	// if this was the card's first exposure.
	//
	// Returns ErrCardNotFound if no card exists, ErrInvalidRating for a
	// value outside the four-member rating set, ErrQuotaExceeded when a
	// New card is rated with no remaining allowance, and
	// store.ErrConcurrentModification when the card changed since it was
	// read (the caller reloads and retries; the write is never applied
	// over newer state).
	SubmitRating(
		ctx context.Context,
		userID uuid.UUID,
		wordID uuid.UUID,
		rating domain.Rating,
		now time.Time,
	) (*domain.CardState, error)
}

// Common error types for the review service
var (
	// ErrCardNotFound indicates that no card state exists for the word.
	ErrCardNotFound = errors.New("card not found")

	// ErrInvalidRating indicates a rating outside the defined set.
	ErrInvalidRating = errors.New("invalid rating")

	// ErrQuotaExceeded indicates that new-word admission was denied. It is
	// never raised for review of previously-seen cards.
	ErrQuotaExceeded = errors.New("daily new-word quota exceeded")
)

// ServiceError wraps errors from the review service with additional
// context. This allows consumers to differentiate failure sites using
// errors.As instead of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start_session", "submit_rating")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewStartSessionError returns a new ServiceError for the start_session operation.
func NewStartSessionError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "start_session",
		Message:   message,
		Err:       err,
	}
}

// NewSubmitRatingError returns a new ServiceError for the submit_rating operation.
func NewSubmitRatingError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_rating",
		Message:   message,
		Err:       err,
	}
}
