package models

// Stats is a point-in-time projection over the full card collection.
type Stats struct {
	TotalCards    int `json:"total_cards"`
	DueToday      int `json:"due_today"`
	ReviewedToday int `json:"reviewed_today"`
	// MasteryPercentage is the rounded percentage of cards in the review
	// state, 0 for an empty collection.
	MasteryPercentage int `json:"mastery_percentage"`
	// CurrentStreak is not computed yet; it is reserved as an extension
	// point and always reads 0.
	CurrentStreak int `json:"current_streak"`
}
