package review

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wordrill/wordrill-api/internal/domain"
	"github.com/wordrill/wordrill-api/internal/domain/scheduler"
	"github.com/wordrill/wordrill-api/internal/service/quota"
	"github.com/wordrill/wordrill-api/internal/store"
)

// fakeCardStore is an in-memory CardStateStore keyed by (user, word).
type fakeCardStore struct {
	mu     sync.Mutex
	states map[string]*domain.CardState
}

func newFakeCardStore() *fakeCardStore {
	return &fakeCardStore{states: make(map[string]*domain.CardState)}
}

func (f *fakeCardStore) key(userID, wordID uuid.UUID) string {
	return userID.String() + "/" + wordID.String()
}

func (f *fakeCardStore) put(state *domain.CardState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[f.key(state.UserID, state.WordID)] = state.Clone()
}

func (f *fakeCardStore) Create(_ context.Context, state *domain.CardState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(state.UserID, state.WordID)
	if _, exists := f.states[k]; exists {
		return store.ErrDuplicate
	}
	f.states[k] = state.Clone()
	return nil
}

func (f *fakeCardStore) Get(_ context.Context, userID, wordID uuid.UUID) (*domain.CardState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[f.key(userID, wordID)]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	return state.Clone(), nil
}

func (f *fakeCardStore) DueBefore(
	_ context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.CardState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*domain.CardState
	for _, state := range f.states {
		if state.UserID == userID && !state.DueAt.After(now) {
			due = append(due, state.Clone())
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueAt.Equal(due[j].DueAt) {
			return due[i].DueAt.Before(due[j].DueAt)
		}
		return due[i].ID.String() < due[j].ID.String()
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeCardStore) Update(_ context.Context, state *domain.CardState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := f.key(state.UserID, state.WordID)
	current, ok := f.states[k]
	if !ok {
		return store.ErrCardNotFound
	}
	if current.Version != state.Version {
		return store.ErrConcurrentModification
	}
	state.Version++
	f.states[k] = state.Clone()
	return nil
}

func (f *fakeCardStore) WithTx(_ *sql.Tx) store.CardStateStore {
	return f
}

// conflictingCardStore simulates a concurrent writer winning the race:
// reads succeed, but every update arrives with a stale version.
type conflictingCardStore struct {
	*fakeCardStore
}

func (c *conflictingCardStore) Update(_ context.Context, _ *domain.CardState) error {
	return store.ErrConcurrentModification
}

func (c *conflictingCardStore) WithTx(_ *sql.Tx) store.CardStateStore {
	return c
}

// fakeWordStore serves word metadata from a map.
type fakeWordStore struct {
	words map[uuid.UUID]*domain.Word
}

func newFakeWordStore() *fakeWordStore {
	return &fakeWordStore{words: make(map[uuid.UUID]*domain.Word)}
}

func (f *fakeWordStore) put(word *domain.Word) {
	f.words[word.ID] = word
}

func (f *fakeWordStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Word, error) {
	word, ok := f.words[id]
	if !ok {
		return nil, store.ErrWordNotFound
	}
	return word, nil
}

func (f *fakeWordStore) GetByIDs(
	_ context.Context,
	ids []uuid.UUID,
) (map[uuid.UUID]*domain.Word, error) {
	result := make(map[uuid.UUID]*domain.Word, len(ids))
	for _, id := range ids {
		if word, ok := f.words[id]; ok {
			result[id] = word
		}
	}
	return result, nil
}

// fakeUsageStore is an in-memory QuotaUsageStore.
type fakeUsageStore struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeUsageStore() *fakeUsageStore {
	return &fakeUsageStore{counts: make(map[string]int)}
}

func (f *fakeUsageStore) UsedOn(_ context.Context, userID uuid.UUID, dayKey string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[userID.String()+"/"+dayKey], nil
}

func (f *fakeUsageStore) Increment(_ context.Context, userID uuid.UUID, dayKey string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[userID.String()+"/"+dayKey] += n
	return nil
}

func (f *fakeUsageStore) IncrementWithin(
	_ context.Context,
	userID uuid.UUID,
	dayKey string,
	n, limit int,
) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID.String() + "/" + dayKey
	if f.counts[key]+n > limit {
		return false, nil
	}
	f.counts[key] += n
	return true, nil
}

func (f *fakeUsageStore) WithTx(_ *sql.Tx) store.QuotaUsageStore {
	return f
}

// testHarness bundles the service under test with its fakes.
type testHarness struct {
	svc    *reviewServiceImpl
	cards  *fakeCardStore
	words  *fakeWordStore
	usage  *fakeUsageStore
	tiers  *quota.StaticTierSource
	userID uuid.UUID
	now    time.Time
}

func newTestHarness(t *testing.T, dailyLimit int) *testHarness {
	t.Helper()

	cards := newFakeCardStore()
	words := newFakeWordStore()
	usage := newFakeUsageStore()
	tiers := quota.NewStaticTierSource(domain.TierFree)

	zones, err := quota.NewFixedZoneSource("UTC")
	require.NoError(t, err)

	limits := quota.LimitsPolicy{
		domain.TierFree:    {DailyLimit: dailyLimit, MaxArticleWords: 600},
		domain.TierPremium: {DailyLimit: dailyLimit * 10, MaxArticleWords: 5000},
	}
	quotaSvc := quota.NewService(usage, tiers, zones, limits, nil)

	svc := &reviewServiceImpl{
		cards:     cards,
		words:     words,
		quota:     quotaSvc,
		scheduler: scheduler.NewDefaultService(),
		logger:    slog.Default(),
		runTx: func(ctx context.Context, fn store.TxFn) error {
			return fn(ctx, nil)
		},
	}

	return &testHarness{
		svc:    svc,
		cards:  cards,
		words:  words,
		usage:  usage,
		tiers:  tiers,
		userID: uuid.New(),
		now:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// addCard seeds a card plus its word, due at the given offset from now.
func (h *testHarness) addCard(
	t *testing.T,
	queue domain.QueueState,
	dueOffset time.Duration,
	term string,
) *domain.CardState {
	t.Helper()

	word := &domain.Word{ID: uuid.New(), Term: term, Meaning: "meaning of " + term}
	h.words.put(word)

	state := &domain.CardState{
		ID:           uuid.New(),
		UserID:       h.userID,
		WordID:       word.ID,
		Queue:        queue,
		IntervalDays: 0,
		EaseFactor:   2.5,
		DueAt:        h.now.Add(dueOffset),
		Version:      1,
	}
	if queue == domain.QueueReviewing {
		state.IntervalDays = 10
	}
	h.cards.put(state)
	return state
}

func TestStartSessionPartitionsNewAndReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)

	h.addCard(t, domain.QueueReviewing, -3*time.Hour, "alpha")
	h.addCard(t, domain.QueueNew, -2*time.Hour, "beta")
	h.addCard(t, domain.QueueLearning, -1*time.Hour, "gamma")

	batch, err := h.svc.StartSession(context.Background(), h.userID, 10, h.now)
	require.NoError(t, err)
	require.Len(t, batch.Cards, 3)

	// Store order (due_at ascending) is preserved.
	assert.Equal(t, "alpha", batch.Cards[0].Term)
	assert.Equal(t, CardTypeExtend, batch.Cards[0].Type)
	assert.Equal(t, "beta", batch.Cards[1].Term)
	assert.Equal(t, CardTypeNew, batch.Cards[1].Type)
	assert.Equal(t, "gamma", batch.Cards[2].Term)
	assert.Equal(t, CardTypeExtend, batch.Cards[2].Type)

	assert.Equal(t, 20, batch.Quota.RemainingToday)
}

func TestStartSessionExhaustedQuotaDegradesToReviewOnly(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 5)

	h.addCard(t, domain.QueueNew, -3*time.Hour, "alpha")
	h.addCard(t, domain.QueueReviewing, -2*time.Hour, "beta")
	h.addCard(t, domain.QueueNew, -1*time.Hour, "gamma")

	// Burn the whole day's allowance.
	require.NoError(t, h.svc.quota.Record(context.Background(), h.userID, h.now, 5))

	batch, err := h.svc.StartSession(context.Background(), h.userID, 10, h.now)
	require.NoError(t, err)

	// New cards are skipped entirely; review cards still flow.
	require.Len(t, batch.Cards, 1)
	assert.Equal(t, "beta", batch.Cards[0].Term)
	assert.Equal(t, CardTypeExtend, batch.Cards[0].Type)
	assert.Equal(t, 0, batch.Quota.RemainingToday)
}

func TestStartSessionLimitsNewCardsToRemainingBudget(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 2)

	h.addCard(t, domain.QueueNew, -4*time.Hour, "alpha")
	h.addCard(t, domain.QueueNew, -3*time.Hour, "beta")
	h.addCard(t, domain.QueueNew, -2*time.Hour, "gamma")
	h.addCard(t, domain.QueueReviewing, -1*time.Hour, "delta")

	batch, err := h.svc.StartSession(context.Background(), h.userID, 10, h.now)
	require.NoError(t, err)

	// Only the two earliest-due new cards fit the budget.
	require.Len(t, batch.Cards, 3)
	assert.Equal(t, "alpha", batch.Cards[0].Term)
	assert.Equal(t, "beta", batch.Cards[1].Term)
	assert.Equal(t, "delta", batch.Cards[2].Term)
}

func TestStartSessionExcludesFutureCards(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)

	h.addCard(t, domain.QueueReviewing, -time.Hour, "due")
	h.addCard(t, domain.QueueReviewing, 48*time.Hour, "future")

	batch, err := h.svc.StartSession(context.Background(), h.userID, 10, h.now)
	require.NoError(t, err)

	require.Len(t, batch.Cards, 1)
	assert.Equal(t, "due", batch.Cards[0].Term)
}

func TestStartSessionDropsCardWithMissingWord(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)

	h.addCard(t, domain.QueueReviewing, -2*time.Hour, "kept")
	orphan := h.addCard(t, domain.QueueReviewing, -time.Hour, "orphan")
	delete(h.words.words, orphan.WordID)

	batch, err := h.svc.StartSession(context.Background(), h.userID, 10, h.now)
	require.NoError(t, err)

	require.Len(t, batch.Cards, 1)
	assert.Equal(t, "kept", batch.Cards[0].Term)
}

func TestSubmitRatingInvalidRating(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)
	state := h.addCard(t, domain.QueueReviewing, -time.Hour, "alpha")

	_, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.Rating("great"), h.now)
	assert.ErrorIs(t, err, ErrInvalidRating)

	// The card must be untouched.
	stored, getErr := h.cards.Get(context.Background(), h.userID, state.WordID)
	require.NoError(t, getErr)
	assert.Equal(t, int64(1), stored.Version)
}

func TestSubmitRatingCardNotFound(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)

	_, err := h.svc.SubmitRating(
		context.Background(), h.userID, uuid.New(), domain.RatingGood, h.now)
	assert.ErrorIs(t, err, ErrCardNotFound)
}

func TestSubmitRatingNewCardConsumesQuota(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)
	state := h.addCard(t, domain.QueueNew, -time.Hour, "alpha")

	updated, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingGood, h.now)
	require.NoError(t, err)

	assert.Equal(t, domain.QueueReviewing, updated.Queue)
	assert.Equal(t, float64(1), updated.IntervalDays)
	assert.Equal(t, int64(2), updated.Version, "Update must bump the version")

	dayKey := domain.DayKey(h.now, time.UTC)
	used, err := h.usage.UsedOn(context.Background(), h.userID, dayKey)
	require.NoError(t, err)
	assert.Equal(t, 1, used, "First exposure must record exactly one unit of quota")
}

func TestSubmitRatingKnownCardNeverConsumesQuota(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 5)
	state := h.addCard(t, domain.QueueReviewing, -time.Hour, "alpha")

	// Even with the allowance exhausted, reviewing known material works.
	require.NoError(t, h.svc.quota.Record(context.Background(), h.userID, h.now, 5))

	updated, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingGood, h.now)
	require.NoError(t, err)
	assert.Equal(t, domain.QueueReviewing, updated.Queue)

	dayKey := domain.DayKey(h.now, time.UTC)
	used, err := h.usage.UsedOn(context.Background(), h.userID, dayKey)
	require.NoError(t, err)
	assert.Equal(t, 5, used, "Review of a known card must not touch the ledger")
}

func TestSubmitRatingQuotaOnlyOnFirstExposure(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)
	state := h.addCard(t, domain.QueueNew, -time.Hour, "alpha")

	// First rating admits the word and counts it.
	_, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingAgain, h.now)
	require.NoError(t, err)

	// The card is now in Learning; rating it again is free.
	later := h.now.Add(15 * time.Minute)
	_, err = h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingGood, later)
	require.NoError(t, err)

	dayKey := domain.DayKey(h.now, time.UTC)
	used, usedErr := h.usage.UsedOn(context.Background(), h.userID, dayKey)
	require.NoError(t, usedErr)
	assert.Equal(t, 1, used)
}

func TestSubmitRatingQuotaExceeded(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 3)
	state := h.addCard(t, domain.QueueNew, -time.Hour, "alpha")

	require.NoError(t, h.svc.quota.Record(context.Background(), h.userID, h.now, 3))

	_, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingGood, h.now)
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	// Denied admission leaves both the card and the ledger untouched.
	stored, getErr := h.cards.Get(context.Background(), h.userID, state.WordID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.QueueNew, stored.Queue)
	assert.Equal(t, int64(1), stored.Version)

	dayKey := domain.DayKey(h.now, time.UTC)
	used, usedErr := h.usage.UsedOn(context.Background(), h.userID, dayKey)
	require.NoError(t, usedErr)
	assert.Equal(t, 3, used)
}

func TestSubmitRatingConcurrentAdmissionsRespectLimit(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 1)

	alpha := h.addCard(t, domain.QueueNew, -2*time.Hour, "alpha")
	beta := h.addCard(t, domain.QueueNew, -time.Hour, "beta")

	// Two raters race for the last new-word slot. The admission claim is
	// an atomic conditional increment, so exactly one may win.
	results := make(chan error, 2)
	var wg sync.WaitGroup
	for _, wordID := range []uuid.UUID{alpha.WordID, beta.WordID} {
		wg.Add(1)
		go func(wordID uuid.UUID) {
			defer wg.Done()
			_, err := h.svc.SubmitRating(
				context.Background(), h.userID, wordID, domain.RatingGood, h.now)
			results <- err
		}(wordID)
	}
	wg.Wait()
	close(results)

	admitted, denied := 0, 0
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrQuotaExceeded):
			denied++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, 1, denied)

	dayKey := domain.DayKey(h.now, time.UTC)
	used, err := h.usage.UsedOn(context.Background(), h.userID, dayKey)
	require.NoError(t, err)
	assert.Equal(t, 1, used, "Usage must never pass the daily limit at admission")
}

func TestSubmitRatingConcurrentModification(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)
	state := h.addCard(t, domain.QueueReviewing, -time.Hour, "alpha")

	// Another writer lands between this request's read and write, so the
	// version check fails at update time.
	h.svc.cards = &conflictingCardStore{fakeCardStore: h.cards}

	_, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingGood, h.now)
	assert.ErrorIs(t, err, store.ErrConcurrentModification)

	// The stale write was rejected; the stored card is unchanged.
	stored, getErr := h.cards.Get(context.Background(), h.userID, state.WordID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.QueueReviewing, stored.Queue)
	assert.Equal(t, int64(1), stored.Version)
}

func TestSubmitRatingAgainIncrementsLapses(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)
	state := h.addCard(t, domain.QueueReviewing, -time.Hour, "alpha")

	updated, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingAgain, h.now)
	require.NoError(t, err)

	assert.Equal(t, domain.QueueLearning, updated.Queue)
	assert.Equal(t, 1, updated.Lapses)
	assert.Less(t, updated.IntervalDays, state.IntervalDays,
		"A lapse must strictly shrink the interval")
	assert.True(t, updated.DueAt.After(h.now) || updated.DueAt.Equal(h.now))
}

func TestSubmitRatingWrapsUnknownErrors(t *testing.T) {
	t.Parallel() // Enable parallel execution
	h := newTestHarness(t, 20)
	state := h.addCard(t, domain.QueueReviewing, -time.Hour, "alpha")

	boom := errors.New("connection reset")
	h.svc.runTx = func(ctx context.Context, fn store.TxFn) error {
		return boom
	}

	_, err := h.svc.SubmitRating(
		context.Background(), h.userID, state.WordID, domain.RatingGood, h.now)
	require.Error(t, err)

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "submit_rating", svcErr.Operation)
	assert.ErrorIs(t, err, boom)
}
