package models

import "time"

// State identifies the scheduling lifecycle stage of a card.
type State string

const (
	StateNew        State = "new"        // created, never graded
	StateLearning   State = "learning"   // climbing the learning step ladder
	StateReview     State = "review"     // graduated into day-denominated reviews
	StateRelearning State = "relearning" // lapsed out of review, climbing the relearning ladder
)

// IsValid reports whether s is one of the four known states.
func (s State) IsValid() bool {
	switch s {
	case StateNew, StateLearning, StateReview, StateRelearning:
		return true
	}
	return false
}

// InSteps reports whether the state schedules by a minute-denominated step
// ladder (learning or relearning) rather than by day-denominated intervals.
func (s State) InSteps() bool {
	return s == StateLearning || s == StateRelearning
}

// Card is the reviewable unit tracked by the scheduler.
type Card struct {
	ID          string `json:"id" db:"id"`
	Front       string `json:"front" db:"front"`
	Back        string `json:"back" db:"back"`
	State       State  `json:"state" db:"state"`
	CurrentStep int    `json:"current_step" db:"current_step"`
	// Interval is measured in minutes while the card is in learning or
	// relearning and in days once it is in review. The (State, Interval)
	// pair must round-trip through storage together.
	Interval       float64    `json:"interval" db:"interval"`
	Ease           float64    `json:"ease" db:"ease"`
	Lapses         int        `json:"lapses" db:"lapses"`
	ReviewCount    int        `json:"review_count" db:"review_count"`
	NextReviewDate time.Time  `json:"next_review_date" db:"next_review_date"`
	LastReviewDate *time.Time `json:"last_review_date" db:"last_review_date"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// IsDue reports whether the card is due for review at the given time.
func (c *Card) IsDue(now time.Time) bool {
	return !c.NextReviewDate.After(now)
}
