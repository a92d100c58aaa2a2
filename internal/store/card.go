package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
)

// CardStateStore defines the interface for card state persistence.
type CardStateStore interface {
	// Create saves a new card state for a user's first exposure to a word.
	// It handles domain validation internally. Rows are created by the
	// content pipeline when a word enters a user's deck; this service only
	// reads and reschedules them.
	// Returns ErrDuplicate if a state already exists for (userID, wordID).
	Create(ctx context.Context, state *domain.CardState) error

	// Get retrieves a card state by the combination of user ID and word ID.
	// Returns ErrCardNotFound if the state does not exist.
	Get(ctx context.Context, userID, wordID uuid.UUID) (*domain.CardState, error)

	// DueBefore retrieves up to limit card states with DueAt <= now,
	// ordered by DueAt ascending with ties broken by ID ascending for
	// determinism. New cards are included; callers partition and gate them.
	DueBefore(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.CardState, error)

	// Update performs an atomic full-record replace guarded by the state's
	// Version field. The stored row is replaced only if its version still
	// matches; otherwise ErrConcurrentModification is returned and the
	// caller must reload and retry. On success the persisted version is
	// state.Version+1 and the passed state is updated to match.
	Update(ctx context.Context, state *domain.CardState) error

	// WithTx returns a new CardStateStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller
	// (typically a service).
	WithTx(tx *sql.Tx) CardStateStore
}
