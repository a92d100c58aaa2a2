package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/store"
)

// psql builds queries with PostgreSQL-style positional placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// cardStateColumns is the scan order shared by every SELECT in this store.
const cardStateColumns = "id, user_id, word_id, queue_state, interval_days, ease_factor, due_at, lapses, version, created_at, updated_at"

// PostgresCardStateStore implements the store.CardStateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStateStore creates a new PostgreSQL implementation of the
// CardStateStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStateStore(db store.DBTX, logger *slog.Logger) *PostgresCardStateStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStateStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_state_store")),
	}
}

// Ensure PostgresCardStateStore implements store.CardStateStore interface
var _ store.CardStateStore = (*PostgresCardStateStore)(nil)

// WithTx implements store.CardStateStore.WithTx
func (s *PostgresCardStateStore) WithTx(tx *sql.Tx) store.CardStateStore {
	return &PostgresCardStateStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.CardStateStore.Create
// It saves a new card state row, handling domain validation.
// Returns store.ErrDuplicate if a state already exists for (userID, wordID).
func (s *PostgresCardStateStore) Create(ctx context.Context, state *domain.CardState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("card state validation failed during create",
			slog.String("error", err.Error()),
			slog.String("card_id", state.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO card_states
			(id, user_id, word_id, queue_state, interval_days, ease_factor, due_at, lapses, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		state.ID,
		state.UserID,
		state.WordID,
		state.Queue,
		state.IntervalDays,
		state.EaseFactor,
		state.DueAt,
		state.Lapses,
		state.Version,
		state.CreatedAt,
		state.UpdatedAt,
	)

	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Warn("card state already exists",
				slog.String("user_id", state.UserID.String()),
				slog.String("word_id", state.WordID.String()))
			return mapped
		}

		log.Error("failed to create card state",
			slog.String("error", err.Error()),
			slog.String("user_id", state.UserID.String()),
			slog.String("word_id", state.WordID.String()))
		return mapped
	}

	log.Debug("card state created",
		slog.String("card_id", state.ID.String()),
		slog.String("user_id", state.UserID.String()),
		slog.String("word_id", state.WordID.String()))
	return nil
}

// Get implements store.CardStateStore.Get
// It retrieves a card state by the combination of user ID and word ID.
// Returns store.ErrCardNotFound if the state does not exist.
func (s *PostgresCardStateStore) Get(
	ctx context.Context,
	userID, wordID uuid.UUID,
) (*domain.CardState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM card_states
		WHERE user_id = $1 AND word_id = $2
	`, cardStateColumns)

	row := s.db.QueryRowContext(ctx, query, userID, wordID)
	state, err := scanCardState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card state not found",
				slog.String("user_id", userID.String()),
				slog.String("word_id", wordID.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card state",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, MapError(err)
	}

	return state, nil
}

// DueBefore implements store.CardStateStore.DueBefore
// It retrieves up to limit card states due at or before now, ordered by
// (due_at, id) ascending so batch composition is deterministic.
func (s *PostgresCardStateStore) DueBefore(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.CardState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []*domain.CardState{}, nil
	}

	query, args, err := psql.
		Select(cardStateColumns).
		From("card_states").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.LtOrEq{"due_at": now}).
		OrderBy("due_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build due query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query due card states",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Error("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	states := []*domain.CardState{}
	for rows.Next() {
		state, err := scanCardState(rows)
		if err != nil {
			log.Error("failed to scan card state row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		states = append(states, state)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("fetched due card states",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(states)))
	return states, nil
}

// Update implements store.CardStateStore.Update
// It performs an atomic full-record replace guarded by the version column.
// Returns store.ErrConcurrentModification if the row exists but its
// version no longer matches, and store.ErrCardNotFound if it is absent.
func (s *PostgresCardStateStore) Update(ctx context.Context, state *domain.CardState) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := state.Validate(); err != nil {
		log.Warn("card state validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", state.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE card_states
		SET queue_state = $1,
		    interval_days = $2,
		    ease_factor = $3,
		    due_at = $4,
		    lapses = $5,
		    version = version + 1,
		    updated_at = $6
		WHERE user_id = $7 AND word_id = $8 AND version = $9
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		state.Queue,
		state.IntervalDays,
		state.EaseFactor,
		state.DueAt,
		state.Lapses,
		state.UpdatedAt,
		state.UserID,
		state.WordID,
		state.Version,
	)
	if err != nil {
		log.Error("failed to update card state",
			slog.String("error", err.Error()),
			slog.String("card_id", state.ID.String()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("card_id", state.ID.String()))
		return MapError(err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing row from a version conflict so callers
		// know whether to retry or report not-found.
		var exists bool
		checkQuery := `SELECT EXISTS (SELECT 1 FROM card_states WHERE user_id = $1 AND word_id = $2)`
		if err := s.db.QueryRowContext(ctx, checkQuery, state.UserID, state.WordID).Scan(&exists); err != nil {
			return MapError(err)
		}
		if exists {
			log.Warn("version conflict updating card state",
				slog.String("card_id", state.ID.String()),
				slog.Int64("expected_version", state.Version))
			return store.ErrConcurrentModification
		}
		log.Debug("card state not found for update",
			slog.String("card_id", state.ID.String()))
		return store.ErrCardNotFound
	}

	state.Version++

	log.Debug("card state updated",
		slog.String("card_id", state.ID.String()),
		slog.Int64("version", state.Version))
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCardState reads one card state row in cardStateColumns order.
func scanCardState(row rowScanner) (*domain.CardState, error) {
	var state domain.CardState
	var queue string

	err := row.Scan(
		&state.ID,
		&state.UserID,
		&state.WordID,
		&queue,
		&state.IntervalDays,
		&state.EaseFactor,
		&state.DueAt,
		&state.Lapses,
		&state.Version,
		&state.CreatedAt,
		&state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	state.Queue = domain.QueueState(queue)
	return &state, nil
}
