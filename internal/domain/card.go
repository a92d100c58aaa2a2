package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rating represents the difficulty the user reported for a review.
type Rating string

// Possible rating values
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// IsValid reports whether the rating is one of the four defined values.
func (r Rating) IsValid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// QueueState represents where a card sits in its learning lifecycle.
type QueueState string

// Possible queue states. A card moves New -> Learning -> Reviewing and
// re-enters Learning whenever it is rated "again". There is no terminal
// state; cards are reviewed indefinitely.
const (
	QueueNew       QueueState = "new"
	QueueLearning  QueueState = "learning"
	QueueReviewing QueueState = "reviewing"
)

// IsValid reports whether the queue state is one of the defined values.
func (q QueueState) IsValid() bool {
	switch q {
	case QueueNew, QueueLearning, QueueReviewing:
		return true
	default:
		return false
	}
}

// Common validation errors for CardState
var (
	ErrEmptyCardUserID   = errors.New("card state user ID cannot be empty")
	ErrEmptyCardWordID   = errors.New("card state word ID cannot be empty")
	ErrInvalidQueueState = errors.New("invalid queue state")
	ErrNegativeInterval  = errors.New("interval days must be greater than or equal to 0")
	ErrNegativeLapses    = errors.New("lapses must be greater than or equal to 0")
	ErrInvalidEaseFactor = errors.New("ease factor must be greater than 1.0")
	ErrInvalidRating     = errors.New("invalid review rating")
)

// CardState tracks a user's spaced repetition schedule for a single word.
// One record exists per (UserID, WordID); it is created on first exposure
// and never deleted. Writes are always full-record replaces guarded by
// Version so concurrent updates cannot be silently lost.
type CardState struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	WordID       uuid.UUID  `json:"word_id"`
	Queue        QueueState `json:"queue_state"`
	IntervalDays float64    `json:"interval_days"` // Time until next due date in days
	EaseFactor   float64    `json:"ease_factor"`   // Multiplier controlling interval growth
	DueAt        time.Time  `json:"due_at"`
	Lapses       int        `json:"lapses"` // "again" ratings since last graduation
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewCardState creates the learning record for a user's first exposure to
// a word. The card starts in the New queue and is due immediately.
func NewCardState(userID, wordID uuid.UUID) (*CardState, error) {
	now := time.Now().UTC()
	state := &CardState{
		ID:           uuid.New(),
		UserID:       userID,
		WordID:       wordID,
		Queue:        QueueNew,
		IntervalDays: 0,
		EaseFactor:   2.5, // Default ease factor
		DueAt:        now, // Available for review immediately
		Lapses:       0,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	return state, nil
}

// Validate checks if the CardState has valid data.
// Returns an error if any field fails validation.
func (s *CardState) Validate() error {
	if s.UserID == uuid.Nil {
		return ErrEmptyCardUserID
	}

	if s.WordID == uuid.Nil {
		return ErrEmptyCardWordID
	}

	if !s.Queue.IsValid() {
		return ErrInvalidQueueState
	}

	if s.IntervalDays < 0 {
		return ErrNegativeInterval
	}

	if s.Lapses < 0 {
		return ErrNegativeLapses
	}

	if s.EaseFactor <= 1.0 {
		return ErrInvalidEaseFactor
	}

	return nil
}

// Clone returns a deep copy of the card state. The scheduler mutates
// copies only; callers persist the returned state as a full replace.
func (s *CardState) Clone() *CardState {
	c := *s
	return &c
}
