package session

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/example/flashdeck/internal/srs"
	"github.com/example/flashdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

var errBoom = errors.New("boom")

// fakeStore is an in-memory CardStore.
type fakeStore struct {
	mu       sync.Mutex
	cards    map[string]models.Card
	failAll  bool
	failDue  bool
	failSave bool
	dueDelay time.Duration
	dueCalls int
}

func newFakeStore(cards ...models.Card) *fakeStore {
	f := &fakeStore{cards: make(map[string]models.Card)}
	for _, c := range cards {
		f.cards[c.ID] = c
	}
	return f
}

func (f *fakeStore) GetAll() ([]models.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errBoom
	}
	out := make([]models.Card, 0, len(f.cards))
	for _, c := range f.cards {
		out = append(out, c)
	}
	// Deliberately shuffled-ish map order; prioritize must not depend on it.
	sort.Slice(out, func(i, j int) bool { return out[i].Front < out[j].Front })
	return out, nil
}

func (f *fakeStore) GetDue(now time.Time) ([]models.Card, error) {
	f.mu.Lock()
	f.dueCalls++
	delay := f.dueDelay
	fail := f.failDue
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		return nil, errBoom
	}
	all, err := f.GetAll()
	if err != nil {
		return nil, err
	}
	due := all[:0]
	for _, c := range all {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due, nil
}

func (f *fakeStore) Save(card *models.Card) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errBoom
	}
	f.cards[card.ID] = *card
	return nil
}

func (f *fakeStore) dueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dueCalls
}

func (f *fakeStore) get(t *testing.T, id string) models.Card {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.cards[id]
	require.True(t, ok, "card %s not in store", id)
	return c
}

type fakeConfig struct {
	cfg models.LearningConfig
	err error
}

func (f *fakeConfig) Get() (models.LearningConfig, error) {
	if f.err != nil {
		return models.LearningConfig{}, f.err
	}
	return f.cfg, nil
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// card builds a test card with a fixed id, state and due offset from t0.
func card(id string, state models.State, dueIn time.Duration) models.Card {
	c := srs.NewCard(id, id+" back", t0)
	c.ID = id
	c.Front = id
	c.State = state
	c.NextReviewDate = t0.Add(dueIn)
	if state == models.StateReview {
		c.Interval = 6
	}
	return c
}

func newTestSession(store *fakeStore, clk *fakeClock) *Session {
	return New(store, &fakeConfig{cfg: models.DefaultLearningConfig()},
		WithClock(clk.Now), WithoutPolling())
}

func queueIDs(t *testing.T, s *Session) []string {
	t.Helper()
	var ids []string
	for {
		c, ok := s.Current()
		if !ok {
			break
		}
		ids = append(ids, c.ID)
		require.NoError(t, s.Answer(models.Good))
	}
	return ids
}

func TestStartUnknownMode(t *testing.T) {
	s := newTestSession(newFakeStore(), &fakeClock{t: t0})
	assert.Error(t, s.Start(Mode("bogus")))
}

func TestStartDueOnlyFiltersAndTiers(t *testing.T) {
	store := newFakeStore(
		card("future", models.StateReview, time.Hour),
		card("due-review", models.StateReview, -time.Hour),
		card("due-learning", models.StateLearning, -time.Minute),
		card("due-new", models.StateNew, -time.Minute),
		card("due-relearning", models.StateRelearning, -2*time.Minute),
	)
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))

	ids := queueIDs(t, s)
	// Tier 1: due step-ladder cards (by due date), tier 2: due review/new.
	assert.Equal(t, []string{"due-relearning", "due-learning", "due-review", "due-new"}, ids)
}

func TestStartAllOrdersFourTiers(t *testing.T) {
	store := newFakeStore(
		card("t4-future-review", models.StateReview, 48*time.Hour),
		card("t3-fresh-new", models.StateNew, time.Hour),
		card("t2-due-review", models.StateReview, -time.Hour),
		card("t1-due-learning", models.StateLearning, -time.Minute),
	)
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeAll))
	assert.Equal(t, 4, s.Remaining())

	c, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "t1-due-learning", c.ID)
}

func TestTierOrderingDeterministic(t *testing.T) {
	// Same tier and due date: ID ascending decides.
	a := card("a", models.StateReview, -time.Hour)
	b := card("b", models.StateReview, -time.Hour)
	got := prioritize([]models.Card{b, a}, t0)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "b", got[1].ID)

	// Earlier due date wins inside a tier regardless of input order.
	late := card("late", models.StateLearning, -time.Minute)
	early := card("early", models.StateLearning, -time.Hour)
	got = prioritize([]models.Card{late, early}, t0)
	assert.Equal(t, "early", got[0].ID)
}

func TestCurrentOnEmptySession(t *testing.T) {
	s := newTestSession(newFakeStore(), &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))
	_, ok := s.Current()
	assert.False(t, ok)

	assert.ErrorIs(t, s.Answer(models.Good), ErrSessionExhausted)
}

func TestAnswerBeforeStart(t *testing.T) {
	s := newTestSession(newFakeStore(), &fakeClock{t: t0})
	assert.ErrorIs(t, s.Answer(models.Good), ErrNoActiveSession)
}

func TestAnswerPersistsAndRemoves(t *testing.T) {
	c := card("only", models.StateReview, -time.Hour)
	store := newFakeStore(c)
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))

	require.NoError(t, s.Answer(models.Good))

	saved := store.get(t, "only")
	assert.Equal(t, 1, saved.ReviewCount)
	assert.Equal(t, 15.0, saved.Interval) // 6 * 2.5

	_, ok := s.Current()
	assert.False(t, ok, "answered card leaves the queue")
}

func TestAnswerRederivesRemainingOrder(t *testing.T) {
	// While the user answers the first card, time passes and a future
	// review becomes due; the re-derivation must promote it over the
	// fresh new card.
	clk := &fakeClock{t: t0}
	store := newFakeStore(
		card("current", models.StateLearning, -time.Minute),
		card("fresh", models.StateNew, time.Hour),
		card("soon-due", models.StateReview, 10*time.Minute),
	)
	s := newTestSession(store, clk)
	require.NoError(t, s.Start(ModeAll))

	clk.Advance(15 * time.Minute)
	require.NoError(t, s.Answer(models.Good))

	c, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "soon-due", c.ID, "newly due review outranks fresh new card")
}

func TestCheckForNewlyDueSplicesAfterCurrent(t *testing.T) {
	clk := &fakeClock{t: t0}
	store := newFakeStore(
		card("a", models.StateLearning, -2*time.Minute),
		card("b", models.StateLearning, -time.Minute),
	)
	s := newTestSession(store, clk)
	require.NoError(t, s.Start(ModeDue))

	// Answer "a" again: due again in 1 minute, but gone from the queue.
	require.NoError(t, s.Answer(models.Again))
	assert.Equal(t, 1, s.Remaining())

	clk.Advance(2 * time.Minute)
	require.NoError(t, s.CheckForNewlyDue())
	assert.Equal(t, 2, s.Remaining())

	// Current card stays first, the resurfaced card follows.
	c, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "b", c.ID)
	require.NoError(t, s.Answer(models.Good))

	c, ok = s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID)
}

func TestCheckForNewlyDueIgnoresQueuedCards(t *testing.T) {
	store := newFakeStore(
		card("a", models.StateReview, -time.Hour),
		card("b", models.StateReview, -time.Hour),
	)
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))
	require.Equal(t, 2, s.Remaining())

	require.NoError(t, s.CheckForNewlyDue())
	require.NoError(t, s.CheckForNewlyDue())
	assert.Equal(t, 2, s.Remaining(), "repeat polls must not duplicate cards")
}

func TestCheckForNewlyDueRefillsEmptyQueue(t *testing.T) {
	clk := &fakeClock{t: t0}
	store := newFakeStore(card("a", models.StateLearning, -time.Minute))
	s := newTestSession(store, clk)
	require.NoError(t, s.Start(ModeDue))

	require.NoError(t, s.Answer(models.Again))
	_, ok := s.Current()
	require.False(t, ok)

	clk.Advance(2 * time.Minute)
	require.NoError(t, s.CheckForNewlyDue())
	c, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID)
}

func TestCheckForNewlyDueSurvivesStorageFailure(t *testing.T) {
	store := newFakeStore(card("a", models.StateReview, -time.Hour))
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))

	store.failDue = true
	assert.Error(t, s.CheckForNewlyDue())

	// The session is still usable after a failed poll.
	c, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "a", c.ID)
	require.NoError(t, s.Answer(models.Good))
}

func TestAnswerSaveFailureSurfaced(t *testing.T) {
	store := newFakeStore(card("a", models.StateReview, -time.Hour))
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))

	store.failSave = true
	assert.ErrorIs(t, s.Answer(models.Good), errBoom)
}

func TestAnswerInvalidGrade(t *testing.T) {
	store := newFakeStore(card("a", models.StateReview, -time.Hour))
	s := newTestSession(store, &fakeClock{t: t0})
	require.NoError(t, s.Start(ModeDue))

	assert.ErrorIs(t, s.Answer(models.Grade(9)), models.ErrInvalidGrade)
	saved := store.get(t, "a")
	assert.Equal(t, 0, saved.ReviewCount, "invalid grade must not mutate")
}

func TestNewCardsPerDayCap(t *testing.T) {
	cfg := models.DefaultLearningConfig()
	cfg.NewCardsPerDay = 1
	store := newFakeStore(
		card("due", models.StateReview, -time.Hour),
		card("new-1", models.StateNew, time.Hour),
		card("new-2", models.StateNew, 2*time.Hour),
	)
	s := New(store, &fakeConfig{cfg: cfg},
		WithClock((&fakeClock{t: t0}).Now), WithoutPolling())
	require.NoError(t, s.Start(ModeAll))

	assert.Equal(t, 2, s.Remaining(), "one due card plus one capped new card")
}

func TestEndIsIdempotentAndStopsPolling(t *testing.T) {
	store := newFakeStore(card("a", models.StateReview, -time.Hour))
	clk := &fakeClock{t: t0}
	// Real poller armed with a period long enough to never fire.
	s := New(store, &fakeConfig{cfg: models.DefaultLearningConfig()},
		WithClock(clk.Now), WithPollInterval(time.Hour))
	require.NoError(t, s.Start(ModeDue))

	// Restarting must replace, not stack, the poller.
	require.NoError(t, s.Start(ModeDue))

	s.End()
	s.End()
	assert.ErrorIs(t, s.Answer(models.Good), ErrNoActiveSession)
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestEndReturnsWhilePollInFlight(t *testing.T) {
	// A slow store keeps poll jobs in flight almost continuously; End must
	// still return because the poller is stopped outside the session lock.
	store := newFakeStore(card("a", models.StateReview, -time.Hour))
	store.dueDelay = 20 * time.Millisecond
	clk := &fakeClock{t: t0}
	s := New(store, &fakeConfig{cfg: models.DefaultLearningConfig()},
		WithClock(clk.Now), WithPollInterval(time.Millisecond))
	require.NoError(t, s.Start(ModeDue))

	// Start itself calls GetDue once; wait for the poller to fire too.
	deadline := time.Now().Add(2 * time.Second)
	for store.dueCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.GreaterOrEqual(t, store.dueCount(), 2, "poller never fired")

	done := make(chan struct{})
	go func() {
		s.End()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("End did not return while a poll was in flight")
	}
	assert.ErrorIs(t, s.Answer(models.Good), ErrNoActiveSession)
}
