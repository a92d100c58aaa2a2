package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/store"
)

const wordColumns = "id, term, pronunciation, part_of_speech, meaning, sentence"

// PostgresWordStore implements the store.WordStore interface using a
// PostgreSQL database as the storage backend. The words table is written
// by the external content pipeline; this store only reads it.
type PostgresWordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresWordStore creates a new PostgreSQL implementation of the
// WordStore interface. If logger is nil, a default logger will be used.
func NewPostgresWordStore(db store.DBTX, logger *slog.Logger) *PostgresWordStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresWordStore{
		db:     db,
		logger: logger.With(slog.String("component", "word_store")),
	}
}

// Ensure PostgresWordStore implements store.WordStore interface
var _ store.WordStore = (*PostgresWordStore)(nil)

// GetByID implements store.WordStore.GetByID
// Returns store.ErrWordNotFound if the word does not exist.
func (s *PostgresWordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := fmt.Sprintf(`
		SELECT %s
		FROM words
		WHERE id = $1
	`, wordColumns)

	word, err := scanWord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("word not found", slog.String("word_id", id.String()))
			return nil, store.ErrWordNotFound
		}
		log.Error("failed to get word",
			slog.String("error", err.Error()),
			slog.String("word_id", id.String()))
		return nil, MapError(err)
	}

	return word, nil
}

// GetByIDs implements store.WordStore.GetByIDs
// IDs with no matching word are absent from the returned map.
func (s *PostgresWordStore) GetByIDs(
	ctx context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]*domain.Word, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	words := make(map[uuid.UUID]*domain.Word, len(ids))
	if len(ids) == 0 {
		return words, nil
	}

	query, args, err := psql.
		Select(wordColumns).
		From("words").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build words query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query words",
			slog.String("error", err.Error()),
			slog.Int("count", len(ids)))
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Error("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	for rows.Next() {
		word, err := scanWord(rows)
		if err != nil {
			log.Error("failed to scan word row",
				slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		words[word.ID] = word
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return words, nil
}

// scanWord reads one word row in wordColumns order. Optional columns are
// nullable in the schema and collapse to empty strings in the domain type.
func scanWord(row rowScanner) (*domain.Word, error) {
	var word domain.Word
	var pronunciation, partOfSpeech, sentence sql.NullString

	err := row.Scan(
		&word.ID,
		&word.Term,
		&pronunciation,
		&partOfSpeech,
		&word.Meaning,
		&sentence,
	)
	if err != nil {
		return nil, err
	}

	word.Pronunciation = pronunciation.String
	word.PartOfSpeech = partOfSpeech.String
	word.Sentence = sentence.String
	return &word, nil
}
