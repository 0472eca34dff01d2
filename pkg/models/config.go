package models

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a learning configuration fails
// validation (empty step ladder, non-positive intervals).
var ErrInvalidConfig = errors.New("flashdeck: invalid learning config")

// LearningConfig controls how cards move through the step ladders and into
// the review phase. It is loaded from storage and passed explicitly into
// the scheduler; nothing reads it from ambient state.
type LearningConfig struct {
	// LearningSteps are the minute-denominated durations a new card climbs
	// before graduating to review.
	LearningSteps []int `json:"learning_steps"`
	// RelearningSteps are the minute-denominated durations a lapsed card
	// climbs before returning to review.
	RelearningSteps []int `json:"relearning_steps"`
	// GraduatingInterval is the review interval in days granted on
	// graduating with a good grade.
	GraduatingInterval int `json:"graduating_interval"`
	// EasyInterval is the review interval in days granted on graduating
	// with an easy grade.
	EasyInterval int `json:"easy_interval"`
	// NewCardsPerDay is a soft cap on new cards admitted to a session.
	// Advisory only; the state machine never enforces it.
	NewCardsPerDay int `json:"new_cards_per_day"`
}

// DefaultLearningConfig returns the stock configuration.
func DefaultLearningConfig() LearningConfig {
	return LearningConfig{
		LearningSteps:      []int{1, 10, 30},
		RelearningSteps:    []int{10},
		GraduatingInterval: 1,
		EasyInterval:       4,
		NewCardsPerDay:     20,
	}
}

// Validate checks the configuration invariants. All errors wrap
// ErrInvalidConfig.
func (c LearningConfig) Validate() error {
	if len(c.LearningSteps) == 0 {
		return fmt.Errorf("%w: learning steps must not be empty", ErrInvalidConfig)
	}
	if len(c.RelearningSteps) == 0 {
		return fmt.Errorf("%w: relearning steps must not be empty", ErrInvalidConfig)
	}
	for _, m := range c.LearningSteps {
		if m <= 0 {
			return fmt.Errorf("%w: learning step %d minutes", ErrInvalidConfig, m)
		}
	}
	for _, m := range c.RelearningSteps {
		if m <= 0 {
			return fmt.Errorf("%w: relearning step %d minutes", ErrInvalidConfig, m)
		}
	}
	if c.GraduatingInterval < 1 {
		return fmt.Errorf("%w: graduating interval %d days", ErrInvalidConfig, c.GraduatingInterval)
	}
	if c.EasyInterval < 1 {
		return fmt.Errorf("%w: easy interval %d days", ErrInvalidConfig, c.EasyInterval)
	}
	return nil
}
