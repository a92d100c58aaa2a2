package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
)

// WordStore defines read access to word metadata. Word authoring happens
// in the external content system; this service only decorates review
// batches with it.
type WordStore interface {
	// GetByID retrieves a word by its unique ID.
	// Returns ErrWordNotFound if the word does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error)

	// GetByIDs retrieves the words for the given IDs, keyed by ID.
	// IDs with no matching word are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.Word, error)
}
