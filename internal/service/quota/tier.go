package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wordrill/wordrill-api/internal/config"
	"github.com/wordrill/wordrill-api/internal/domain"
)

// TierSource looks up a user's current subscription tier. It is an
// injected capability (backed by the billing system in production) and is
// consulted on every quota read, so a tier change is visible on the very
// next CurrentUsage call without touching stored counters.
type TierSource interface {
	Tier(ctx context.Context, userID uuid.UUID) (domain.Tier, error)
}

// ZoneSource looks up a user's configured time zone, which defines the
// calendar-day boundary for that user's quota.
type ZoneSource interface {
	Zone(ctx context.Context, userID uuid.UUID) (*time.Location, error)
}

// LimitsPolicy maps a tier to its daily allowances. Keeping the mapping
// injected rather than hard-coded lets product change limits without
// touching scheduling or counting logic.
type LimitsPolicy map[domain.Tier]domain.TierLimits

// Limits returns the allowances for the given tier.
func (p LimitsPolicy) Limits(tier domain.Tier) (domain.TierLimits, error) {
	limits, ok := p[tier]
	if !ok {
		return domain.TierLimits{}, fmt.Errorf("no limits configured for tier %q", tier)
	}
	return limits, nil
}

// LimitsFromConfig builds the tier limits policy from application
// configuration.
func LimitsFromConfig(cfg config.QuotaConfig) LimitsPolicy {
	return LimitsPolicy{
		domain.TierFree: {
			DailyLimit:      cfg.FreeDailyLimit,
			MaxArticleWords: cfg.FreeMaxArticleWords,
		},
		domain.TierPremium: {
			DailyLimit:      cfg.PremiumDailyLimit,
			MaxArticleWords: cfg.PremiumMaxArticleWords,
		},
	}
}

// StaticTierSource is a TierSource backed by an in-memory map with a
// fallback tier. It serves tests and single-tenant deployments; the
// production wiring substitutes the billing system's client.
type StaticTierSource struct {
	mu      sync.RWMutex
	tiers   map[uuid.UUID]domain.Tier
	defTier domain.Tier
}

// NewStaticTierSource creates a StaticTierSource with the given fallback tier.
func NewStaticTierSource(defaultTier domain.Tier) *StaticTierSource {
	return &StaticTierSource{
		tiers:   make(map[uuid.UUID]domain.Tier),
		defTier: defaultTier,
	}
}

// Set assigns a tier to a user.
func (s *StaticTierSource) Set(userID uuid.UUID, tier domain.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tiers[userID] = tier
}

// Tier implements TierSource.
func (s *StaticTierSource) Tier(_ context.Context, userID uuid.UUID) (domain.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if tier, ok := s.tiers[userID]; ok {
		return tier, nil
	}
	return s.defTier, nil
}

// FixedZoneSource is a ZoneSource that returns the same zone for every
// user. It serves deployments without per-user zone preferences.
type FixedZoneSource struct {
	loc *time.Location
}

// NewFixedZoneSource creates a FixedZoneSource for the named zone.
func NewFixedZoneSource(name string) (*FixedZoneSource, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", name, err)
	}
	return &FixedZoneSource{loc: loc}, nil
}

// Zone implements ZoneSource.
func (s *FixedZoneSource) Zone(_ context.Context, _ uuid.UUID) (*time.Location, error) {
	return s.loc, nil
}
