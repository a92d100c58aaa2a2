// Package quota implements the per-user, per-day usage accounting that
// gates new-word introduction. The ledger itself only counts; the review
// orchestrator decides admission, reading snapshots for batch budgets and
// claiming slots through the atomic conditional record.
package quota

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/platform/logger"
	"github.com/wordrill/wordrill-api/internal/store"
)

// Service computes quota snapshots and records usage. Day boundaries are
// derived lazily from wall-clock time on every call; there is no reset
// job to fail; a new calendar day simply reads an absent counter row.
type Service struct {
	usage  store.QuotaUsageStore
	tiers  TierSource
	zones  ZoneSource
	limits LimitsPolicy
	logger *slog.Logger
}

// NewService creates a quota Service.
func NewService(
	usage store.QuotaUsageStore,
	tiers TierSource,
	zones ZoneSource,
	limits LimitsPolicy,
	log *slog.Logger,
) *Service {
	if usage == nil {
		panic("usage store cannot be nil")
	}
	if tiers == nil {
		panic("tier source cannot be nil")
	}
	if zones == nil {
		panic("zone source cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		usage:  usage,
		tiers:  tiers,
		zones:  zones,
		limits: limits,
		logger: log.With(slog.String("component", "quota_service")),
	}
}

// WithTx returns a copy of the service whose usage store runs on the
// given transaction. Tier and zone lookups are reads against external
// collaborators and stay outside the transaction.
func (s *Service) WithTx(tx *sql.Tx) *Service {
	clone := *s
	clone.usage = s.usage.WithTx(tx)
	return &clone
}

// CurrentUsage computes the user's quota snapshot for the calendar day
// containing now in the user's time zone. The tier is looked up per call,
// so an upgrade is visible immediately; RemainingToday is always derived,
// never stored.
func (s *Service) CurrentUsage(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*domain.QuotaSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tier, err := s.tiers.Tier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tier: %w", err)
	}

	limits, err := s.limits.Limits(tier)
	if err != nil {
		return nil, err
	}

	dayKey, err := s.dayKeyFor(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	used, err := s.usage.UsedOn(ctx, userID, dayKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage: %w", err)
	}

	remaining := limits.DailyLimit - used
	if remaining < 0 {
		remaining = 0
	}

	log.Debug("computed quota snapshot",
		slog.String("user_id", userID.String()),
		slog.String("day_key", dayKey),
		slog.String("tier", string(tier)),
		slog.Int("used", used),
		slog.Int("remaining", remaining))

	return &domain.QuotaSnapshot{
		Tier:            tier,
		DailyLimit:      limits.DailyLimit,
		UsedToday:       used,
		RemainingToday:  remaining,
		MaxArticleWords: limits.MaxArticleWords,
	}, nil
}

// Record adds n to the user's counter for the day containing now. Callers
// always pass server-observed time, so a slow client can never increment
// a past day's row. The counter accepts increments past the limit; the
// gate lives in the orchestrator and the audit count must stay accurate.
func (s *Service) Record(ctx context.Context, userID uuid.UUID, now time.Time, n int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	dayKey, err := s.dayKeyFor(ctx, userID, now)
	if err != nil {
		return err
	}

	if err := s.usage.Increment(ctx, userID, dayKey, n); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}

	log.Debug("recorded quota usage",
		slog.String("user_id", userID.String()),
		slog.String("day_key", dayKey),
		slog.Int("n", n))
	return nil
}

// TryRecord adds n to the user's counter for the day containing now only
// if the result stays within the tier's daily limit, reporting whether
// the usage was recorded. The check and the add are a single atomic
// store operation, so concurrent callers cannot both claim the last
// slot. Callers always pass server-observed time.
func (s *Service) TryRecord(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	n int,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	tier, err := s.tiers.Tier(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to look up tier: %w", err)
	}

	limits, err := s.limits.Limits(tier)
	if err != nil {
		return false, err
	}

	dayKey, err := s.dayKeyFor(ctx, userID, now)
	if err != nil {
		return false, err
	}

	admitted, err := s.usage.IncrementWithin(ctx, userID, dayKey, n, limits.DailyLimit)
	if err != nil {
		return false, fmt.Errorf("failed to record usage: %w", err)
	}

	log.Debug("conditionally recorded quota usage",
		slog.String("user_id", userID.String()),
		slog.String("day_key", dayKey),
		slog.String("tier", string(tier)),
		slog.Int("n", n),
		slog.Int("daily_limit", limits.DailyLimit),
		slog.Bool("admitted", admitted))
	return admitted, nil
}

// dayKeyFor resolves the user's zone and computes the calendar-day key.
func (s *Service) dayKeyFor(ctx context.Context, userID uuid.UUID, now time.Time) (string, error) {
	loc, err := s.zones.Zone(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to look up time zone: %w", err)
	}
	return domain.DayKey(now, loc), nil
}
