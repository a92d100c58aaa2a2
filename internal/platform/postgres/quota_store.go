package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/store"
)

// PostgresQuotaUsageStore implements the store.QuotaUsageStore interface
// using a PostgreSQL database as the storage backend. Rows are keyed by
// (user_id, day_key) and the increment is a single upsert, so concurrent
// writers for the same day serialize on the row without application locks.
type PostgresQuotaUsageStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuotaUsageStore creates a new PostgreSQL implementation of the
// QuotaUsageStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresQuotaUsageStore(db store.DBTX, logger *slog.Logger) *PostgresQuotaUsageStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuotaUsageStore{
		db:     db,
		logger: logger.With(slog.String("component", "quota_usage_store")),
	}
}

// Ensure PostgresQuotaUsageStore implements store.QuotaUsageStore interface
var _ store.QuotaUsageStore = (*PostgresQuotaUsageStore)(nil)

// WithTx implements store.QuotaUsageStore.WithTx
func (s *PostgresQuotaUsageStore) WithTx(tx *sql.Tx) store.QuotaUsageStore {
	return &PostgresQuotaUsageStore{
		db:     tx,
		logger: s.logger,
	}
}

// UsedOn implements store.QuotaUsageStore.UsedOn
// A day with no row reads as zero usage.
func (s *PostgresQuotaUsageStore) UsedOn(
	ctx context.Context,
	userID uuid.UUID,
	dayKey string,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT used
		FROM quota_usage
		WHERE user_id = $1 AND day_key = $2
	`

	var used int
	err := s.db.QueryRowContext(ctx, query, userID, dayKey).Scan(&used)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		log.Error("failed to read quota usage",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("day_key", dayKey))
		return 0, MapError(err)
	}

	return used, nil
}

// Increment implements store.QuotaUsageStore.Increment
// The upsert creates the day's row lazily on first use and adds n
// atomically afterwards. The counter is never clamped to a limit here;
// the admission policy lives in the review orchestrator, and an accurate
// audit count is worth more than a capped one.
func (s *PostgresQuotaUsageStore) Increment(
	ctx context.Context,
	userID uuid.UUID,
	dayKey string,
	n int,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if n <= 0 {
		return fmt.Errorf("%w: increment must be positive, got %d", store.ErrInvalidEntity, n)
	}

	query := `
		INSERT INTO quota_usage (user_id, day_key, used, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		ON CONFLICT (user_id, day_key)
		DO UPDATE SET used = quota_usage.used + EXCLUDED.used, updated_at = now()
	`

	_, err := s.db.ExecContext(ctx, query, userID, dayKey, n)
	if err != nil {
		log.Error("failed to increment quota usage",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("day_key", dayKey),
			slog.Int("n", n))
		return MapError(err)
	}

	log.Debug("quota usage incremented",
		slog.String("user_id", userID.String()),
		slog.String("day_key", dayKey),
		slog.Int("n", n))
	return nil
}

// IncrementWithin implements store.QuotaUsageStore.IncrementWithin
// The check and the add run as one statement: the upsert's WHERE clause
// reads the row version the update locks, so two writers racing for the
// last slot serialize on the row and only one sees a count under the
// limit. Zero rows affected means the increment was denied.
func (s *PostgresQuotaUsageStore) IncrementWithin(
	ctx context.Context,
	userID uuid.UUID,
	dayKey string,
	n, limit int,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if n <= 0 {
		return false, fmt.Errorf("%w: increment must be positive, got %d", store.ErrInvalidEntity, n)
	}

	query := `
		INSERT INTO quota_usage (user_id, day_key, used, created_at, updated_at)
		SELECT $1, $2, $3, now(), now()
		WHERE $3 <= $4
		ON CONFLICT (user_id, day_key)
		DO UPDATE SET used = quota_usage.used + EXCLUDED.used, updated_at = now()
		WHERE quota_usage.used + EXCLUDED.used <= $4
	`

	result, err := s.db.ExecContext(ctx, query, userID, dayKey, n, limit)
	if err != nil {
		log.Error("failed to conditionally increment quota usage",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("day_key", dayKey),
			slog.Int("n", n),
			slog.Int("limit", limit))
		return false, MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, MapError(err)
	}

	applied := rows > 0
	log.Debug("quota usage conditionally incremented",
		slog.String("user_id", userID.String()),
		slog.String("day_key", dayKey),
		slog.Int("n", n),
		slog.Int("limit", limit),
		slog.Bool("applied", applied))
	return applied, nil
}
