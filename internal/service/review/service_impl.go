package review

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/domain/scheduler"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/service/quota"
	"github.com/wordrill/wordrill-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the Service interface.
type reviewServiceImpl struct {
	db        *sql.DB
	cards     store.CardStateStore
	words     store.WordStore
	quota     *quota.Service
	scheduler scheduler.Service
	logger    *slog.Logger

	// runTx executes fn inside a transaction. Unit tests substitute a
	// runner that invokes fn directly, letting fake stores stand in for
	// the database.
	runTx func(ctx context.Context, fn store.TxFn) error
}

// NewService creates a new review Service implementation.
func NewService(
	db *sql.DB,
	cards store.CardStateStore,
	words store.WordStore,
	quotaService *quota.Service,
	schedulerService scheduler.Service,
	log *slog.Logger,
) Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("cards store cannot be nil")
	}
	if words == nil {
		panic("words store cannot be nil")
	}
	if quotaService == nil {
		panic("quota service cannot be nil")
	}
	if schedulerService == nil {
		panic("scheduler service cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &reviewServiceImpl{
		db:        db,
		cards:     cards,
		words:     words,
		quota:     quotaService,
		scheduler: schedulerService,
		logger:    log.With(slog.String("component", "review_service")),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return store.RunInTransaction(ctx, db, fn)
		},
	}
}

// StartSession implements Service.StartSession.
func (s *reviewServiceImpl) StartSession(
	ctx context.Context,
	userID uuid.UUID,
	requested int,
	now time.Time,
) (*ReviewBatch, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("starting review session",
		slog.String("user_id", userID.String()),
		slog.Int("requested", requested))

	snapshot, err := s.quota.CurrentUsage(ctx, userID, now)
	if err != nil {
		log.Error("failed to get quota snapshot",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewStartSessionError("failed to get quota snapshot", err)
	}

	due, err := s.cards.DueBefore(ctx, userID, now, requested)
	if err != nil {
		log.Error("failed to fetch due cards",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, NewStartSessionError("failed to fetch due cards", err)
	}

	// Partition in store order: due Learning/Reviewing cards always get a
	// slot; New cards only while the new-word budget lasts. The store
	// order (due_at, id) is preserved so batches are deterministic.
	newBudget := snapshot.RemainingToday
	selected := make([]*domain.CardState, 0, len(due))
	for _, state := range due {
		if state.Queue == domain.QueueNew {
			if newBudget <= 0 {
				continue
			}
			newBudget--
		}
		selected = append(selected, state)
	}

	batch, err := s.summarize(ctx, selected)
	if err != nil {
		return nil, NewStartSessionError("failed to load word metadata", err)
	}

	log.Debug("composed review batch",
		slog.String("user_id", userID.String()),
		slog.Int("cards", len(batch)),
		slog.Int("new_slots_remaining", newBudget))

	return &ReviewBatch{
		Cards: batch,
		Quota: *snapshot,
	}, nil
}

// summarize joins card states with their word metadata, preserving order.
// A card whose word is missing is dropped with a warning rather than
// failing the whole batch.
func (s *reviewServiceImpl) summarize(
	ctx context.Context,
	states []*domain.CardState,
) ([]CardSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	ids := make([]uuid.UUID, 0, len(states))
	for _, state := range states {
		ids = append(ids, state.WordID)
	}

	words, err := s.words.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	summaries := make([]CardSummary, 0, len(states))
	for _, state := range states {
		word, ok := words[state.WordID]
		if !ok {
			log.Warn("card references missing word",
				slog.String("card_id", state.ID.String()),
				slog.String("word_id", state.WordID.String()))
			continue
		}

		cardType := CardTypeExtend
		if state.Queue == domain.QueueNew {
			cardType = CardTypeNew
		}

		summaries = append(summaries, CardSummary{
			ID:            state.ID,
			WordID:        word.ID,
			Term:          word.Term,
			Pronunciation: word.Pronunciation,
			PartOfSpeech:  word.PartOfSpeech,
			Meaning:       word.Meaning,
			Sentence:      word.Sentence,
			Type:          cardType,
			DueAt:         state.DueAt,
		})
	}

	return summaries, nil
}

// SubmitRating implements Service.SubmitRating.
// The card update and the quota increment happen inside one transaction
// so a first exposure is never counted without its schedule change, and
// vice versa.
func (s *reviewServiceImpl) SubmitRating(
	ctx context.Context,
	userID uuid.UUID,
	wordID uuid.UUID,
	rating domain.Rating,
	now time.Time,
) (*domain.CardState, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("processing rating",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()),
		slog.String("rating", string(rating)))

	// Out-of-enum ratings are a caller contract violation; reject before
	// touching the store.
	if !rating.IsValid() {
		log.Warn("invalid rating",
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()),
			slog.String("rating", string(rating)))
		return nil, ErrInvalidRating
	}

	var updated *domain.CardState
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		cards := s.cards.WithTx(tx)
		quotaSvc := s.quota.WithTx(tx)

		state, err := cards.Get(ctx, userID, wordID)
		if err != nil {
			if errors.Is(err, store.ErrCardNotFound) {
				log.Warn("card not found for rating",
					slog.String("user_id", userID.String()),
					slog.String("word_id", wordID.String()))
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to get card state: %w", err)
		}

		// A rating on a New card is a new-word admission: claim a slot
		// before touching the schedule. The claim is a conditional
		// increment, so two raters racing for the last slot cannot both
		// pass; a claimed slot is released by the transaction rollback if
		// the card update fails. Known cards are never gated.
		if state.Queue == domain.QueueNew {
			admitted, err := quotaSvc.TryRecord(ctx, userID, now, 1)
			if err != nil {
				return fmt.Errorf("failed to record quota usage: %w", err)
			}
			if !admitted {
				log.Debug("new-word admission denied",
					slog.String("user_id", userID.String()),
					slog.String("word_id", wordID.String()))
				return ErrQuotaExceeded
			}
		}

		next, err := s.scheduler.Next(state, rating, now)
		if err != nil {
			return fmt.Errorf("failed to compute next state: %w", err)
		}

		if err := cards.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to persist card state: %w", err)
		}

		updated = next
		return nil
	})

	if err != nil {
		// Pass sentinel errors through untouched so callers can map them.
		if errors.Is(err, ErrCardNotFound) ||
			errors.Is(err, ErrQuotaExceeded) ||
			errors.Is(err, store.ErrConcurrentModification) {
			return nil, err
		}

		log.Error("failed to submit rating",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("word_id", wordID.String()))
		return nil, NewSubmitRatingError("failed to submit rating", err)
	}

	log.Debug("rating applied",
		slog.String("user_id", userID.String()),
		slog.String("word_id", wordID.String()),
		slog.String("rating", string(rating)),
		slog.String("queue_state", string(updated.Queue)),
		slog.Float64("interval_days", updated.IntervalDays),
		slog.Time("due_at", updated.DueAt))

	return updated, nil
}
