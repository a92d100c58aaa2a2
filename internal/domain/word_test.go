package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestWordValidate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	word := &Word{
		ID:      uuid.New(),
		Term:    "ubiquitous",
		Meaning: "present everywhere",
	}

	if err := word.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	word.Term = ""
	if err := word.Validate(); err != ErrEmptyWordTerm {
		t.Errorf("Expected error %v, got %v", ErrEmptyWordTerm, err)
	}

	word.Term = "ubiquitous"
	word.Meaning = ""
	if err := word.Validate(); err != ErrEmptyWordMeaning {
		t.Errorf("Expected error %v, got %v", ErrEmptyWordMeaning, err)
	}
}
