package models

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidGrade is returned when a grade outside the four-value enum is
// used. Check with errors.Is.
var ErrInvalidGrade = errors.New("flashdeck: invalid grade")

// Grade is the user's assessment of recall quality for a single review.
type Grade int

const (
	Again Grade = iota + 1 // failed to recall
	Hard                   // recalled with significant effort
	Good                   // recalled with some effort
	Easy                   // recalled effortlessly
)

var (
	gradeNames  = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}
	gradeByName = map[string]Grade{
		"again": Again,
		"hard":  Hard,
		"good":  Good,
		"easy":  Easy,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Grade(0)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
)

// IsValid reports whether g is a valid grade (Again through Easy).
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

// String returns the name of the grade ("again", "hard", "good", "easy").
// For invalid values it returns "Grade(n)".
func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// ParseGrade converts a name to a Grade. Returns ErrInvalidGrade for
// anything outside the four-value enum.
func ParseGrade(name string) (Grade, error) {
	g, ok := gradeByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, name)
	}
	return g, nil
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalJSON implements json.Marshaler. Grade serializes as a JSON string.
func (g Grade) MarshalJSON() ([]byte, error) {
	text, err := g.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	return g.UnmarshalText([]byte(s))
}
