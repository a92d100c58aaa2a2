package scheduler

import (
	"errors"
	"time"

	"github.com/wordrill/wordrill-api/internal/domain"
)

// Common errors
var (
	ErrNilState      = errors.New("card state cannot be nil")
	ErrInvalidRating = errors.New("invalid review rating")
)

// Service defines the interface for scheduling operations.
type Service interface {
	// Next computes the post-rating card state. The returned state is a
	// new value; the input is never modified.
	Next(
		state *domain.CardState,
		rating domain.Rating,
		now time.Time,
	) (*domain.CardState, error)
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduler service with default parameters.
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduler service with custom parameters.
func NewServiceWithParams(params *Params) Service {
	return &defaultService{
		params: params,
	}
}

// Next implements the Service interface. Out-of-enum ratings are a caller
// contract violation and are rejected here, before the pure calculation.
func (s *defaultService) Next(
	state *domain.CardState,
	rating domain.Rating,
	now time.Time,
) (*domain.CardState, error) {
	if state == nil {
		return nil, ErrNilState
	}

	if !rating.IsValid() {
		return nil, ErrInvalidRating
	}

	return nextCardState(state, rating, now, s.params), nil
}
