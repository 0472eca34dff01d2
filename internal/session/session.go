// Package session builds and maintains the ordered card queue for a review
// session. After every answer the remaining queue is re-derived from fresh
// storage state so cards promoted to due mid-session resurface, and a
// periodic poll splices in cards that became due purely from time passing.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/flashdeck/internal/srs"
	"github.com/example/flashdeck/pkg/models"
	"github.com/go-co-op/gocron"
)

// Mode selects which cards a session is built from.
type Mode string

const (
	// ModeDue loads only cards that are currently due.
	ModeDue Mode = "due"
	// ModeAll loads every card, due cards prioritized first.
	ModeAll Mode = "all"
)

// DefaultPollInterval is how often an active session re-checks storage for
// cards that became due since the queue was built.
const DefaultPollInterval = 30 * time.Second

var (
	// ErrNoActiveSession is returned when Answer or CheckForNewlyDue is
	// called outside a started session.
	ErrNoActiveSession = errors.New("flashdeck: no active session")
	// ErrSessionExhausted is returned by Answer once every card in the
	// session has been graded.
	ErrSessionExhausted = errors.New("flashdeck: session exhausted")
)

// CardStore is the storage collaborator the session reads cards from and
// persists graded cards to.
type CardStore interface {
	GetAll() ([]models.Card, error)
	GetDue(now time.Time) ([]models.Card, error)
	Save(card *models.Card) error
}

// ConfigStore supplies the current learning configuration. It is consulted
// on every answer so mid-session config edits take effect immediately.
type ConfigStore interface {
	Get() (models.LearningConfig, error)
}

// Option configures a Session.
type Option func(*Session)

// WithPollInterval overrides the due-check poll period.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) { s.pollInterval = d }
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithoutPolling disables the background due-check entirely. The caller
// can still invoke CheckForNewlyDue by hand.
func WithoutPolling() Option {
	return func(s *Session) { s.polling = false }
}

// Session is a single review session over the card collection. All methods
// are safe for use from the poll goroutine and the caller's goroutine, but
// the engine itself is sequential: one answer at a time.
type Session struct {
	mu           sync.Mutex
	cards        CardStore
	config       ConfigStore
	now          func() time.Time
	pollInterval time.Duration
	polling      bool

	mode   Mode
	queue  []models.Card
	pos    int
	active bool
	poller *gocron.Scheduler
}

// New creates a session manager over the given stores.
func New(cards CardStore, config ConfigStore, opts ...Option) *Session {
	s := &Session{
		cards:        cards,
		config:       config,
		now:          time.Now,
		pollInterval: DefaultPollInterval,
		polling:      true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the card set for the given mode, orders it, and arms the
// due-check poll. Starting over an active session cancels the old poll
// before re-arming, so there is never more than one poller.
func (s *Session) Start(mode Mode) error {
	if mode != ModeDue && mode != ModeAll {
		return fmt.Errorf("flashdeck: unknown session mode %q", mode)
	}

	s.stopPoller()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var (
		loaded []models.Card
		err    error
	)
	switch mode {
	case ModeDue:
		loaded, err = s.cards.GetDue(now)
	case ModeAll:
		loaded, err = s.cards.GetAll()
	}
	if err != nil {
		return fmt.Errorf("failed to load session cards: %w", err)
	}

	cfg, err := s.config.Get()
	if err != nil {
		return fmt.Errorf("failed to load learning config: %w", err)
	}

	queue := prioritize(loaded, now)
	if mode == ModeAll {
		queue = capNewCards(queue, cfg.NewCardsPerDay, now)
	}

	s.mode = mode
	s.queue = queue
	s.pos = 0
	s.active = true
	if s.polling && len(s.queue) > 0 {
		s.startPollLocked()
	}
	return nil
}

// Mode returns the mode the session was started with.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Current returns the card at the session cursor. The second return is
// false once the session is empty or not started.
func (s *Session) Current() (*models.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active || len(s.queue) == 0 {
		return nil, false
	}
	c := s.queue[s.pos]
	return &c, true
}

// Remaining returns how many cards are left in the session.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return 0
	}
	return len(s.queue)
}

// Answer grades the current card, persists it, and re-derives the ordering
// of the remaining cards from their fresh stored state so instantaneous
// promotions (a one-minute relearn step, for example) resurface correctly.
// The cursor stays where it is if still in range, otherwise it wraps to
// the front of the queue.
func (s *Session) Answer(grade models.Grade) error {
	var stale *gocron.Scheduler
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		if stale != nil {
			stale.Stop()
		}
	}()

	if !s.active {
		return ErrNoActiveSession
	}
	if len(s.queue) == 0 {
		return ErrSessionExhausted
	}

	cfg, err := s.config.Get()
	if err != nil {
		return fmt.Errorf("failed to load learning config: %w", err)
	}

	now := s.now()
	updated, err := srs.Grade(s.queue[s.pos], grade, cfg, now)
	if err != nil {
		return err
	}
	if err := s.cards.Save(&updated); err != nil {
		return fmt.Errorf("failed to save graded card: %w", err)
	}

	// Drop the answered card, then rebuild the remaining queue from
	// stored state.
	remaining := make(map[string]struct{}, len(s.queue)-1)
	for i, c := range s.queue {
		if i == s.pos {
			continue
		}
		remaining[c.ID] = struct{}{}
	}

	all, err := s.cards.GetAll()
	if err != nil {
		// Persisting succeeded; keep a consistent local queue without
		// the answered card and surface the read failure.
		s.queue = append(s.queue[:s.pos], s.queue[s.pos+1:]...)
		s.clampPosLocked()
		return fmt.Errorf("failed to reload session cards: %w", err)
	}

	fresh := make([]models.Card, 0, len(remaining))
	for _, c := range all {
		if _, ok := remaining[c.ID]; ok {
			fresh = append(fresh, c)
		}
	}
	s.queue = prioritize(fresh, now)
	s.clampPosLocked()

	if len(s.queue) == 0 {
		// Nothing left to poll for; stopped after the lock is released.
		stale = s.detachPollerLocked()
	}
	return nil
}

// CheckForNewlyDue queries the due set and splices cards not already in
// the queue immediately after the cursor: the current card stays first,
// then the newly due cards, then the previous tail.
func (s *Session) CheckForNewlyDue() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return ErrNoActiveSession
	}

	now := s.now()
	due, err := s.cards.GetDue(now)
	if err != nil {
		return fmt.Errorf("failed to load due cards: %w", err)
	}

	queued := make(map[string]struct{}, len(s.queue))
	for _, c := range s.queue {
		queued[c.ID] = struct{}{}
	}
	var newly []models.Card
	for _, c := range due {
		if _, ok := queued[c.ID]; !ok {
			newly = append(newly, c)
		}
	}
	if len(newly) == 0 {
		return nil
	}
	newly = prioritize(newly, now)

	if len(s.queue) == 0 {
		s.queue = newly
		s.pos = 0
		return nil
	}

	spliced := make([]models.Card, 0, len(s.queue)+len(newly))
	spliced = append(spliced, s.queue[:s.pos+1]...)
	spliced = append(spliced, newly...)
	spliced = append(spliced, s.queue[s.pos+1:]...)
	s.queue = spliced
	return nil
}

// End stops the due-check poll and discards the session state. Safe to
// call more than once.
func (s *Session) End() {
	s.mu.Lock()
	p := s.detachPollerLocked()
	s.active = false
	s.queue = nil
	s.pos = 0
	s.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}

// clampPosLocked applies the cursor policy: keep the position if it still
// lies within the queue, otherwise wrap to the start.
func (s *Session) clampPosLocked() {
	if s.pos >= len(s.queue) {
		s.pos = 0
	}
}

// startPollLocked arms the periodic due-check. Caller holds s.mu.
func (s *Session) startPollLocked() {
	poller := gocron.NewScheduler(time.UTC)
	_, err := poller.Every(s.pollInterval).Do(func() {
		// Best effort: a failed poll must not end the session.
		if err := s.CheckForNewlyDue(); err != nil && !errors.Is(err, ErrNoActiveSession) {
			log.Printf("session: due check failed: %v", err)
		}
	})
	if err != nil {
		log.Printf("session: failed to schedule due check: %v", err)
		return
	}
	poller.StartAsync()
	s.poller = poller
}

// detachPollerLocked removes the poll timer from the session and returns
// it for the caller to Stop after releasing s.mu. gocron's Stop waits for
// in-flight jobs, and the poll job itself takes s.mu, so stopping under
// the lock can deadlock against a poll that is already blocked on it.
func (s *Session) detachPollerLocked() *gocron.Scheduler {
	p := s.poller
	s.poller = nil
	return p
}

// stopPoller detaches and stops the poll timer. Must be called without
// holding s.mu.
func (s *Session) stopPoller() {
	s.mu.Lock()
	p := s.detachPollerLocked()
	s.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}
