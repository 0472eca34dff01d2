package stats

import (
	"testing"
	"time"

	"github.com/example/flashdeck/pkg/models"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 1, 21, 30, 0, 0, time.UTC)

func card(state models.State, due time.Time, reviews int, last *time.Time) models.Card {
	return models.Card{
		ID:             string(state) + due.String(),
		State:          state,
		NextReviewDate: due,
		ReviewCount:    reviews,
		LastReviewDate: last,
		CreatedAt:      t0.Add(-48 * time.Hour),
	}
}

func TestComputeEmptyCollection(t *testing.T) {
	s := Compute(nil, t0)
	assert.Equal(t, models.Stats{}, s)
}

func TestComputeDueToday(t *testing.T) {
	cards := []models.Card{
		card(models.StateReview, t0.Add(-time.Hour), 3, nil),
		card(models.StateNew, t0, 0, nil), // exactly now counts as due
		card(models.StateReview, t0.Add(time.Minute), 3, nil),
	}
	s := Compute(cards, t0)
	assert.Equal(t, 3, s.TotalCards)
	assert.Equal(t, 2, s.DueToday)
}

func TestComputeReviewedToday(t *testing.T) {
	today := t0.Add(-2 * time.Hour)
	yesterday := t0.Add(-24 * time.Hour)
	cards := []models.Card{
		card(models.StateReview, t0.Add(time.Hour), 5, &today),
		card(models.StateReview, t0.Add(time.Hour), 5, &yesterday),
		// Created today, due today, never graded: must not count.
		card(models.StateNew, t0, 0, nil),
	}
	s := Compute(cards, t0)
	assert.Equal(t, 1, s.ReviewedToday)
}

func TestComputeMasteryPercentage(t *testing.T) {
	review := card(models.StateReview, t0.Add(time.Hour), 5, nil)
	learning := card(models.StateLearning, t0, 1, nil)
	fresh := card(models.StateNew, t0, 0, nil)

	s := Compute([]models.Card{review, learning, fresh}, t0)
	assert.Equal(t, 33, s.MasteryPercentage) // round(100/3)

	s = Compute([]models.Card{review, review, fresh}, t0)
	assert.Equal(t, 67, s.MasteryPercentage) // round(200/3)

	s = Compute([]models.Card{review}, t0)
	assert.Equal(t, 100, s.MasteryPercentage)
}

func TestComputeStreakIsPlaceholder(t *testing.T) {
	s := Compute([]models.Card{card(models.StateReview, t0, 9, &t0)}, t0)
	assert.Equal(t, 0, s.CurrentStreak)
}
