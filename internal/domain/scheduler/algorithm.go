package scheduler

import (
	"math"
	"time"

	"github.com/wordrill/wordrill-api/internal/domain"
)

// clampEaseFactor keeps the ease factor within the configured limits.
// The floor prevents runaway short intervals from long "again" streaks;
// the ceiling bounds interval growth.
func clampEaseFactor(ef float64, params *Params) float64 {
	if ef < params.MinEaseFactor {
		return params.MinEaseFactor
	}
	if ef > params.MaxEaseFactor {
		return params.MaxEaseFactor
	}
	return ef
}

// nextIntervalDays computes the post-rating interval for a card.
//
// The interval calculation uses the pre-rating ease factor; the ease
// adjustment for the rating is applied separately afterwards. Rules:
//   - "again" resets to the relearn step regardless of the current interval.
//   - "hard" grows the interval by a small fixed multiplier. Cards that
//     have not yet earned a real interval (New/Learning below the relearn
//     step) are seeded at the relearn step so a zero interval cannot
//     multiply into zero forever.
//   - "good" graduates New/Learning cards to the graduation interval, or
//     keeps the current interval when it is already longer; Reviewing
//     cards grow by the ease factor.
//   - "easy" grows by ease factor times the easy bonus; a graduating card
//     gets at least the graduation interval times the bonus.
func nextIntervalDays(state *domain.CardState, rating domain.Rating, params *Params) float64 {
	inLearning := state.Queue == domain.QueueNew || state.Queue == domain.QueueLearning

	switch rating {
	case domain.RatingAgain:
		return params.RelearnStepDays

	case domain.RatingHard:
		interval := state.IntervalDays * params.HardIntervalMultiplier
		if inLearning && interval < params.RelearnStepDays {
			interval = params.RelearnStepDays
		}
		return interval

	case domain.RatingGood:
		if inLearning {
			// Repeated "hard" ratings can push a Learning interval past
			// the graduation interval; graduating must never shrink it.
			if state.IntervalDays > params.GraduationIntervalDays {
				return state.IntervalDays
			}
			return params.GraduationIntervalDays
		}
		return state.IntervalDays * state.EaseFactor

	case domain.RatingEasy:
		interval := state.IntervalDays * state.EaseFactor * params.EasyBonus
		if inLearning {
			if floor := params.GraduationIntervalDays * params.EasyBonus; interval < floor {
				interval = floor
			}
		}
		return interval
	}

	// Unreachable for ratings validated by the Service wrapper.
	return state.IntervalDays
}

// nextQueue determines the card's queue after a rating. Any "again"
// rating sends the card back to Learning, from any state. A "good" or
// "easy" rating graduates New/Learning cards to Reviewing; "hard" keeps
// a card in Learning (moving it out of New, since it has now been rated).
func nextQueue(current domain.QueueState, rating domain.Rating) domain.QueueState {
	if rating == domain.RatingAgain {
		return domain.QueueLearning
	}

	if current == domain.QueueReviewing {
		return domain.QueueReviewing
	}

	if rating == domain.RatingHard {
		return domain.QueueLearning
	}

	// good or easy from New/Learning graduates
	return domain.QueueReviewing
}

// roundIntervalDays applies the rounding policy: intervals of a day or
// more are whole days; sub-day intervals are kept only while the card is
// in Learning.
func roundIntervalDays(interval float64, queue domain.QueueState, params *Params) float64 {
	if interval >= 1 {
		interval = math.Round(interval)
	} else if queue == domain.QueueReviewing && interval < 1 {
		// A Reviewing card never carries a sub-day interval.
		interval = 1
	}

	if interval > params.MaxIntervalDays {
		interval = params.MaxIntervalDays
	}
	return interval
}

// dueAtFor converts an interval in days (possibly fractional) into the
// next due timestamp.
func dueAtFor(now time.Time, intervalDays float64) time.Time {
	return now.Add(time.Duration(intervalDays * float64(24*time.Hour)))
}

// nextCardState computes the full post-rating card state. It never
// mutates the input: a new state is returned, following the immutable
// update pattern, and the caller persists it as a full-record replace.
func nextCardState(
	state *domain.CardState,
	rating domain.Rating,
	now time.Time,
	params *Params,
) *domain.CardState {
	next := state.Clone()

	if rating == domain.RatingAgain {
		next.Lapses++
	}

	next.Queue = nextQueue(state.Queue, rating)
	next.IntervalDays = roundIntervalDays(
		nextIntervalDays(state, rating, params),
		next.Queue,
		params,
	)
	next.EaseFactor = clampEaseFactor(state.EaseFactor+params.EaseAdjustment[rating], params)
	next.DueAt = dueAtFor(now, next.IntervalDays)
	next.UpdatedAt = now

	return next
}
