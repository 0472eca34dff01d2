// Package stats derives read-only collection metrics for display.
package stats

import (
	"math"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// Compute projects the card collection into summary statistics at the
// given instant. Pure: no storage access, no mutation.
func Compute(cards []models.Card, now time.Time) models.Stats {
	s := models.Stats{TotalCards: len(cards)}

	mastered := 0
	for i := range cards {
		c := &cards[i]
		if c.IsDue(now) {
			s.DueToday++
		}
		if c.ReviewCount > 0 && c.LastReviewDate != nil && sameDay(*c.LastReviewDate, now) {
			s.ReviewedToday++
		}
		if c.State == models.StateReview {
			mastered++
		}
	}

	if s.TotalCards > 0 {
		s.MasteryPercentage = int(math.Round(100 * float64(mastered) / float64(s.TotalCards)))
	}
	// CurrentStreak stays 0: reserved extension point, see models.Stats.
	return s
}

// sameDay reports whether a and b fall on the same calendar day in b's
// location.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
