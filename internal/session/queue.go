package session

import (
	"sort"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// Queue tiers, most urgent first. Due step-ladder cards resurface ahead of
// everything else so a one-minute relearning step does not sit behind a
// pile of fresh cards.
const (
	tierUrgentDue  = iota // due, learning or relearning
	tierRegularDue        // due, review or new
	tierFreshNew          // not due, new
	tierFuture            // not due, everything else
)

func tierOf(c *models.Card, now time.Time) int {
	due := c.IsDue(now)
	switch {
	case due && c.State.InSteps():
		return tierUrgentDue
	case due:
		return tierRegularDue
	case c.State == models.StateNew:
		return tierFreshNew
	default:
		return tierFuture
	}
}

// prioritize returns the cards ordered by tier, then by next review date
// ascending, then by ID. The tie-break keys make the ordering deterministic
// regardless of the iteration order the store happens to yield.
func prioritize(cards []models.Card, now time.Time) []models.Card {
	out := make([]models.Card, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := tierOf(&out[i], now), tierOf(&out[j], now)
		if ti != tj {
			return ti < tj
		}
		if !out[i].NextReviewDate.Equal(out[j].NextReviewDate) {
			return out[i].NextReviewDate.Before(out[j].NextReviewDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// capNewCards drops not-yet-due new cards beyond the configured daily cap.
// A cap of zero or less means unlimited. Due cards are never dropped.
func capNewCards(cards []models.Card, limit int, now time.Time) []models.Card {
	if limit <= 0 {
		return cards
	}
	out := cards[:0]
	fresh := 0
	for _, c := range cards {
		if tierOf(&c, now) == tierFreshNew {
			if fresh >= limit {
				continue
			}
			fresh++
		}
		out = append(out, c)
	}
	return out
}
