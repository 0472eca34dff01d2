// Package srs implements the spaced-repetition scheduler: an Anki-style
// learning/relearning step ladder for short-term scheduling combined with
// an SM-2 ease/interval model for long-term reviews.
//
// Grade is a pure function: it never touches storage and never mutates its
// input, so the same (card, grade, config, now) always produces the same
// result. Persisting the returned card is the caller's job.
package srs

import (
	"fmt"
	"time"

	"github.com/example/flashdeck/pkg/models"
	"github.com/google/uuid"
)

const (
	// DefaultEase is the multiplicative factor assigned to every new card.
	DefaultEase = 2.5
	// MinEase is the floor below which no sequence of grades can push ease.
	MinEase = 1.3
	// MaxEase caps the bonus accumulated from repeated easy answers.
	MaxEase = 5.0

	easyBonus    = 0.15
	hardPenalty  = 0.15
	lapsePenalty = 0.2
	hardFactor   = 1.2
	easyFactor   = 1.3

	minutesPerDay = 24 * 60
)

// NewCard creates a card in the new state, immediately due for review.
func NewCard(front, back string, now time.Time) models.Card {
	return models.Card{
		ID:             uuid.NewString(),
		Front:          front,
		Back:           back,
		State:          models.StateNew,
		CurrentStep:    0,
		Interval:       0,
		Ease:           DefaultEase,
		NextReviewDate: now,
		CreatedAt:      now,
	}
}

// Grade applies a single review grade to the card and returns the updated
// copy. The unit of the returned Interval depends on the returned State:
// minutes in learning/relearning, days in review.
//
// Returns models.ErrInvalidGrade or models.ErrInvalidConfig without
// touching the card; for any valid input the function is total.
func Grade(card models.Card, grade models.Grade, cfg models.LearningConfig, now time.Time) (models.Card, error) {
	if !grade.IsValid() {
		return models.Card{}, fmt.Errorf("%w: %d", models.ErrInvalidGrade, int(grade))
	}
	if err := cfg.Validate(); err != nil {
		return models.Card{}, err
	}

	c := card
	switch c.State {
	case models.StateNew, models.StateLearning:
		applyLearning(&c, grade, cfg, now)
	case models.StateReview, models.StateRelearning:
		applyReview(&c, grade, cfg, now)
	default:
		return models.Card{}, fmt.Errorf("flashdeck: unknown card state %q", c.State)
	}

	c.ReviewCount++
	reviewed := now
	c.LastReviewDate = &reviewed
	return c, nil
}

// applyLearning handles grades for cards in the new or learning state,
// walking the minute-denominated learning step ladder.
func applyLearning(c *models.Card, grade models.Grade, cfg models.LearningConfig, now time.Time) {
	steps := cfg.LearningSteps

	switch grade {
	case models.Again:
		c.State = models.StateLearning
		c.CurrentStep = 0
		scheduleStep(c, steps[0], now)

	case models.Hard:
		// Repeat the current step. The index is clamped in case the
		// ladder was shortened since the card last moved.
		c.State = models.StateLearning
		step := c.CurrentStep
		if step >= len(steps) {
			step = len(steps) - 1
		}
		scheduleStep(c, steps[step], now)

	case models.Good:
		next := c.CurrentStep + 1
		if next >= len(steps) {
			graduate(c, cfg.GraduatingInterval, now)
			return
		}
		c.State = models.StateLearning
		c.CurrentStep = next
		scheduleStep(c, steps[next], now)

	case models.Easy:
		// Easy skips the remaining ladder regardless of position.
		c.Ease = min(c.Ease+easyBonus, MaxEase)
		graduate(c, cfg.EasyInterval, now)
	}
}

// applyReview handles grades for cards in the review or relearning state.
func applyReview(c *models.Card, grade models.Grade, cfg models.LearningConfig, now time.Time) {
	if grade == models.Again {
		// Lapse: fall back to the relearning ladder.
		c.State = models.StateRelearning
		c.CurrentStep = 0
		c.Lapses++
		c.Ease = max(MinEase, c.Ease-lapsePenalty)
		scheduleStep(c, cfg.RelearningSteps[0], now)
		return
	}

	// Any passing grade moves the card (back) into review with an SM-2
	// interval update in days.
	interval, ease := sm2Next(c.Interval, c.Ease, grade)
	c.Ease = ease
	scheduleReview(c, interval, now)
}

// sm2Next computes the next review interval in days and the updated ease
// for a passing grade. The result is floored at one day; ease stays
// within [MinEase, MaxEase].
func sm2Next(intervalDays, ease float64, grade models.Grade) (float64, float64) {
	var next float64
	switch grade {
	case models.Hard:
		next = intervalDays * hardFactor
		ease = max(MinEase, ease-hardPenalty)
	case models.Good:
		next = intervalDays * ease
	case models.Easy:
		next = intervalDays * ease * easyFactor
		ease = min(MaxEase, ease+easyBonus)
	}
	return max(1, next), ease
}

// graduate moves a card out of the step ladder into review with the given
// interval in days.
func graduate(c *models.Card, days int, now time.Time) {
	scheduleReview(c, float64(days), now)
}

// scheduleReview puts the card in review for the given interval in days.
// Fractional days (from the hard multiplier) are preserved in the due date.
func scheduleReview(c *models.Card, days float64, now time.Time) {
	c.State = models.StateReview
	c.CurrentStep = 0
	c.Interval = days
	c.NextReviewDate = now.Add(time.Duration(days*minutesPerDay) * time.Minute)
}

// scheduleStep keeps the card on the ladder for the given step duration
// in minutes.
func scheduleStep(c *models.Card, minutes int, now time.Time) {
	c.Interval = float64(minutes)
	c.NextReviewDate = now.Add(time.Duration(minutes) * time.Minute)
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
