package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// QuotaUsageStore defines the interface for the per-user, per-day usage
// counter rows. Increment is an unconditional counter so the audit count
// stays accurate; IncrementWithin is the atomic claim the review
// orchestrator gates new-word admission on.
type QuotaUsageStore interface {
	// UsedOn returns the usage recorded for the given calendar day key.
	// A day with no row reads as zero; rows are created lazily on first
	// increment of a new day.
	UsedOn(ctx context.Context, userID uuid.UUID, dayKey string) (int, error)

	// Increment atomically adds n to the counter for the given day key,
	// creating the row if it does not exist yet. Callers always derive
	// dayKey from server-observed time so a stale client clock can never
	// touch a past day's row.
	Increment(ctx context.Context, userID uuid.UUID, dayKey string, n int) error

	// IncrementWithin adds n to the day's counter only if the result
	// stays at or below limit, reporting whether the increment was
	// applied. Check and add are a single atomic statement, so two
	// writers racing for the last slot can never both claim it.
	IncrementWithin(ctx context.Context, userID uuid.UUID, dayKey string, n, limit int) (bool, error)

	// WithTx returns a new QuotaUsageStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) QuotaUsageStore
}
