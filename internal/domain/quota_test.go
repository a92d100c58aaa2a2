package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDayKey(t *testing.T) {
	t.Parallel() // Enable parallel execution
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("Failed to load location: %v", err)
	}

	// 2025-03-01 23:30 UTC is already 2025-03-02 in Tokyo (UTC+9).
	at := time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)

	if got := DayKey(at, time.UTC); got != "2025-03-01" {
		t.Errorf("Expected UTC day key 2025-03-01, got %s", got)
	}

	if got := DayKey(at, tokyo); got != "2025-03-02" {
		t.Errorf("Expected Tokyo day key 2025-03-02, got %s", got)
	}
}

func TestDayKeyAdjacentInstants(t *testing.T) {
	t.Parallel() // Enable parallel execution
	// Two instants two seconds apart straddling midnight must land in
	// different day buckets.
	before := time.Date(2025, 6, 10, 23, 59, 59, 0, time.UTC)
	after := time.Date(2025, 6, 11, 0, 0, 1, 0, time.UTC)

	keyBefore := DayKey(before, time.UTC)
	keyAfter := DayKey(after, time.UTC)

	if keyBefore == keyAfter {
		t.Errorf("Expected different day keys across midnight, got %s for both", keyBefore)
	}
	if keyBefore != "2025-06-10" {
		t.Errorf("Expected 2025-06-10, got %s", keyBefore)
	}
	if keyAfter != "2025-06-11" {
		t.Errorf("Expected 2025-06-11, got %s", keyAfter)
	}
}

func TestQuotaUsageValidate(t *testing.T) {
	t.Parallel() // Enable parallel execution
	valid := func() *QuotaUsage {
		return &QuotaUsage{
			UserID: uuid.New(),
			DayKey: "2025-03-01",
			Used:   5,
		}
	}

	testCases := []struct {
		name     string
		mutate   func(*QuotaUsage)
		expected error
	}{
		{
			name:     "valid usage passes",
			mutate:   func(q *QuotaUsage) {},
			expected: nil,
		},
		{
			name:     "empty user ID",
			mutate:   func(q *QuotaUsage) { q.UserID = uuid.Nil },
			expected: ErrEmptyQuotaUserID,
		},
		{
			name:     "empty day key",
			mutate:   func(q *QuotaUsage) { q.DayKey = "" },
			expected: ErrEmptyDayKey,
		},
		{
			name:     "negative usage",
			mutate:   func(q *QuotaUsage) { q.Used = -1 },
			expected: ErrNegativeUsage,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			usage := valid()
			tc.mutate(usage)
			if err := usage.Validate(); err != tc.expected {
				t.Errorf("Expected error %v, got %v", tc.expected, err)
			}
		})
	}
}

func TestTierIsValid(t *testing.T) {
	t.Parallel() // Enable parallel execution
	if !TierFree.IsValid() || !TierPremium.IsValid() {
		t.Error("Expected defined tiers to be valid")
	}
	if Tier("gold").IsValid() {
		t.Error("Expected unknown tier to be invalid")
	}
}
