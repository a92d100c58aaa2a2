package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Tier identifies a user's subscription level. Limits are derived from
// the tier at read time, never stored, so an upgrade takes effect on the
// very next quota lookup without backfilling history.
type Tier string

// Known subscription tiers
const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
)

// IsValid reports whether the tier is one of the defined values.
func (t Tier) IsValid() bool {
	switch t {
	case TierFree, TierPremium:
		return true
	default:
		return false
	}
}

// TierLimits holds the per-day allowances derived from a tier.
type TierLimits struct {
	DailyLimit      int // New-word introductions allowed per calendar day
	MaxArticleWords int // Ceiling on single-document size
}

// Common validation errors for QuotaUsage
var (
	ErrEmptyQuotaUserID = errors.New("quota usage user ID cannot be empty")
	ErrEmptyDayKey      = errors.New("quota usage day key cannot be empty")
	ErrNegativeUsage    = errors.New("quota usage must be greater than or equal to 0")
)

// DayKeyLayout is the calendar-day key format for quota usage rows.
const DayKeyLayout = "2006-01-02"

// DayKey computes the calendar-day key for an instant in the given zone.
// The quota ledger is keyed by (user, day key); rollover needs no timer
// because a fresh day key simply reads an absent row.
func DayKey(at time.Time, loc *time.Location) string {
	return at.In(loc).Format(DayKeyLayout)
}

// QuotaUsage is one per-user, per-calendar-day usage counter. Rows are
// append-only by day key: once a day has passed its row is never touched
// again, preserving an accurate audit trail.
type QuotaUsage struct {
	UserID    uuid.UUID `json:"user_id"`
	DayKey    string    `json:"day_key"`
	Used      int       `json:"used"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the QuotaUsage has valid data.
func (q *QuotaUsage) Validate() error {
	if q.UserID == uuid.Nil {
		return ErrEmptyQuotaUserID
	}

	if q.DayKey == "" {
		return ErrEmptyDayKey
	}

	if q.Used < 0 {
		return ErrNegativeUsage
	}

	return nil
}

// QuotaSnapshot is the derived view of a user's allowance for the current
// day. RemainingToday is always computed from the counter and the
// tier-derived limit; it is never stored, avoiding stale-field drift.
type QuotaSnapshot struct {
	Tier            Tier `json:"tier"`
	DailyLimit      int  `json:"daily_limit"`
	UsedToday       int  `json:"used_today"`
	RemainingToday  int  `json:"remaining_today"`
	MaxArticleWords int  `json:"max_article_words"`
}
