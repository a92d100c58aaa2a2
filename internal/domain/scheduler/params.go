package scheduler

import (
	"github.com/wordrill/wordrill-api/internal/domain"
)

// Params defines all configurable parameters for the scheduling algorithm.
type Params struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Per-rating adjustments applied to the ease factor
	EaseAdjustment map[domain.Rating]float64

	// Interval controls
	RelearnStepDays        float64 // Interval after an "again" rating, as a day fraction
	GraduationIntervalDays float64 // First interval when a card graduates to Reviewing
	HardIntervalMultiplier float64
	EasyBonus              float64 // Extra multiplier applied on "easy" ratings
	MaxIntervalDays        float64 // Scheduling horizon ceiling
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
type ParamsConfig struct {
	// Core limits
	MinEaseFactor float64
	MaxEaseFactor float64

	// Ease factor adjustments
	AgainEaseAdjustment float64
	HardEaseAdjustment  float64
	GoodEaseAdjustment  float64
	EasyEaseAdjustment  float64

	// Interval controls
	RelearnStepMinutes     int
	GraduationIntervalDays float64
	HardIntervalMultiplier float64
	EasyBonus              float64
	MaxIntervalDays        float64
}

const minutesPerDay = 24 * 60

// NewDefaultParams creates a new Params instance with default values.
func NewDefaultParams() *Params {
	return &Params{
		MinEaseFactor: 1.3,
		MaxEaseFactor: 2.5,

		// Default ease factor adjustments
		EaseAdjustment: map[domain.Rating]float64{
			domain.RatingAgain: -0.20,
			domain.RatingHard:  -0.15,
			domain.RatingGood:  0.0,
			domain.RatingEasy:  0.15,
		},

		// Relearn in 10 minutes, expressed as a day fraction
		RelearnStepDays: 10.0 / minutesPerDay,

		GraduationIntervalDays: 1.0,
		HardIntervalMultiplier: 1.2,
		EasyBonus:              1.3,
		MaxIntervalDays:        365.0,
	}
}

// NewParams creates a new Params instance with custom configuration.
// Zero-valued fields keep their defaults.
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Override core limits if provided
	if config.MinEaseFactor > 0 {
		params.MinEaseFactor = config.MinEaseFactor
	}
	if config.MaxEaseFactor > 0 {
		params.MaxEaseFactor = config.MaxEaseFactor
	}

	// Override ease factor adjustments if provided
	if config.AgainEaseAdjustment != 0 {
		params.EaseAdjustment[domain.RatingAgain] = config.AgainEaseAdjustment
	}
	if config.HardEaseAdjustment != 0 {
		params.EaseAdjustment[domain.RatingHard] = config.HardEaseAdjustment
	}
	if config.GoodEaseAdjustment != 0 {
		params.EaseAdjustment[domain.RatingGood] = config.GoodEaseAdjustment
	}
	if config.EasyEaseAdjustment != 0 {
		params.EaseAdjustment[domain.RatingEasy] = config.EasyEaseAdjustment
	}

	// Override interval controls if provided
	if config.RelearnStepMinutes > 0 {
		params.RelearnStepDays = float64(config.RelearnStepMinutes) / minutesPerDay
	}
	if config.GraduationIntervalDays > 0 {
		params.GraduationIntervalDays = config.GraduationIntervalDays
	}
	if config.HardIntervalMultiplier > 0 {
		params.HardIntervalMultiplier = config.HardIntervalMultiplier
	}
	if config.EasyBonus > 0 {
		params.EasyBonus = config.EasyBonus
	}
	if config.MaxIntervalDays > 0 {
		params.MaxIntervalDays = config.MaxIntervalDays
	}

	return params
}
