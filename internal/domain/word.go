package domain

import (
	"errors"

	"github.com/google/uuid"
)

// Common validation errors for Word
var (
	ErrEmptyWordTerm    = errors.New("word term cannot be empty")
	ErrEmptyWordMeaning = errors.New("word meaning cannot be empty")
)

// Word is the vocabulary metadata attached to review cards. Authoring and
// definition generation happen in an external content system; this service
// only reads words to decorate review batches.
type Word struct {
	ID            uuid.UUID `json:"id"`
	Term          string    `json:"term"`
	Pronunciation string    `json:"pronunciation,omitempty"`
	PartOfSpeech  string    `json:"pos,omitempty"`
	Meaning       string    `json:"meaning"`
	Sentence      string    `json:"sentence,omitempty"`
}

// Validate checks if the Word has valid data.
func (w *Word) Validate() error {
	if w.Term == "" {
		return ErrEmptyWordTerm
	}

	if w.Meaning == "" {
		return ErrEmptyWordMeaning
	}

	return nil
}
