package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// ErrCardNotFound is returned when a card id has no row. Check with
// errors.Is.
var ErrCardNotFound = errors.New("flashdeck: card not found")

// CardRepository handles database operations for cards
type CardRepository struct{}

// NewCardRepository creates a new repository instance
func NewCardRepository() *CardRepository {
	return &CardRepository{}
}

const cardColumns = `id, front, back, state, current_step, interval, ease,
	lapses, review_count, next_review_date, last_review_date, created_at`

// GetByID returns a single card, or ErrCardNotFound.
func (r *CardRepository) GetByID(id string) (*models.Card, error) {
	var card models.Card
	err := DB.Get(&card, `SELECT `+cardColumns+` FROM cards WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

// GetAll returns every card in the collection.
func (r *CardRepository) GetAll() ([]models.Card, error) {
	var cards []models.Card
	err := DB.Select(&cards, `SELECT `+cardColumns+` FROM cards ORDER BY next_review_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards: %w", err)
	}
	return cards, nil
}

// GetDue returns the cards due at the given time. The filter takes the
// instant as a parameter instead of the database clock so callers control
// the notion of "now".
func (r *CardRepository) GetDue(now time.Time) ([]models.Card, error) {
	var cards []models.Card
	err := DB.Select(&cards, `
		SELECT `+cardColumns+` FROM cards
		WHERE next_review_date <= $1
		ORDER BY next_review_date ASC, id ASC
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get due cards: %w", err)
	}
	return cards, nil
}

// Create inserts a new card.
func (r *CardRepository) Create(card *models.Card) error {
	_, err := DB.Exec(`
		INSERT INTO cards (
			id, front, back, state, current_step, interval, ease,
			lapses, review_count, next_review_date, last_review_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		card.ID, card.Front, card.Back, card.State, card.CurrentStep,
		card.Interval, card.Ease, card.Lapses, card.ReviewCount,
		card.NextReviewDate, card.LastReviewDate, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}
	return nil
}

// Update modifies an existing card. Returns ErrCardNotFound when the id
// has no row.
func (r *CardRepository) Update(card *models.Card) error {
	result, err := DB.Exec(`
		UPDATE cards SET
			front = $1,
			back = $2,
			state = $3,
			current_step = $4,
			interval = $5,
			ease = $6,
			lapses = $7,
			review_count = $8,
			next_review_date = $9,
			last_review_date = $10
		WHERE id = $11
	`,
		card.Front, card.Back, card.State, card.CurrentStep,
		card.Interval, card.Ease, card.Lapses, card.ReviewCount,
		card.NextReviewDate, card.LastReviewDate, card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, card.ID)
	}
	return nil
}

// Save upserts the card. Every field round-trips, including the
// state-dependent unit of interval (minutes in learning/relearning, days
// in review).
func (r *CardRepository) Save(card *models.Card) error {
	_, err := DB.Exec(`
		INSERT INTO cards (
			id, front, back, state, current_step, interval, ease,
			lapses, review_count, next_review_date, last_review_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			front = excluded.front,
			back = excluded.back,
			state = excluded.state,
			current_step = excluded.current_step,
			interval = excluded.interval,
			ease = excluded.ease,
			lapses = excluded.lapses,
			review_count = excluded.review_count,
			next_review_date = excluded.next_review_date,
			last_review_date = excluded.last_review_date
	`,
		card.ID, card.Front, card.Back, card.State, card.CurrentStep,
		card.Interval, card.Ease, card.Lapses, card.ReviewCount,
		card.NextReviewDate, card.LastReviewDate, card.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	return nil
}

// Delete removes a card by id.
func (r *CardRepository) Delete(id string) error {
	result, err := DB.Exec(`DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return nil
}
