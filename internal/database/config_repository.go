package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/flashdeck/pkg/models"
)

// ConfigRepository handles persistence of the learning configuration.
// A single row holds the whole config; step ladders are stored as
// comma-separated minute values.
type ConfigRepository struct{}

// NewConfigRepository creates a new repository instance
func NewConfigRepository() *ConfigRepository {
	return &ConfigRepository{}
}

type configRow struct {
	LearningSteps      string `db:"learning_steps"`
	RelearningSteps    string `db:"relearning_steps"`
	GraduatingInterval int    `db:"graduating_interval"`
	EasyInterval       int    `db:"easy_interval"`
	NewCardsPerDay     int    `db:"new_cards_per_day"`
}

// Get loads the learning configuration. A missing or invalid stored config
// falls back to the defaults rather than failing the caller; storage errors
// are surfaced.
func (r *ConfigRepository) Get() (models.LearningConfig, error) {
	var row configRow
	err := DB.Get(&row, `
		SELECT learning_steps, relearning_steps, graduating_interval,
		       easy_interval, new_cards_per_day
		FROM learning_config WHERE id = 1
	`)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultLearningConfig(), nil
	}
	if err != nil {
		return models.LearningConfig{}, fmt.Errorf("failed to get learning config: %w", err)
	}

	cfg, err := row.toConfig()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		log.Printf("database: stored learning config invalid, using defaults: %v", err)
		return models.DefaultLearningConfig(), nil
	}
	return cfg, nil
}

// Save validates and persists the learning configuration.
func (r *ConfigRepository) Save(cfg models.LearningConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	_, err := DB.Exec(`
		INSERT INTO learning_config (
			id, learning_steps, relearning_steps, graduating_interval,
			easy_interval, new_cards_per_day, updated_at
		) VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			learning_steps = excluded.learning_steps,
			relearning_steps = excluded.relearning_steps,
			graduating_interval = excluded.graduating_interval,
			easy_interval = excluded.easy_interval,
			new_cards_per_day = excluded.new_cards_per_day,
			updated_at = excluded.updated_at
	`,
		joinSteps(cfg.LearningSteps), joinSteps(cfg.RelearningSteps),
		cfg.GraduatingInterval, cfg.EasyInterval, cfg.NewCardsPerDay,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save learning config: %w", err)
	}
	return nil
}

func (row configRow) toConfig() (models.LearningConfig, error) {
	learning, err := parseSteps(row.LearningSteps)
	if err != nil {
		return models.LearningConfig{}, err
	}
	relearning, err := parseSteps(row.RelearningSteps)
	if err != nil {
		return models.LearningConfig{}, err
	}
	return models.LearningConfig{
		LearningSteps:      learning,
		RelearningSteps:    relearning,
		GraduatingInterval: row.GraduatingInterval,
		EasyInterval:       row.EasyInterval,
		NewCardsPerDay:     row.NewCardsPerDay,
	}, nil
}

func joinSteps(steps []int) string {
	parts := make([]string, len(steps))
	for i, m := range steps {
		parts[i] = strconv.Itoa(m)
	}
	return strings.Join(parts, ",")
}

func parseSteps(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	steps := make([]int, 0, len(parts))
	for _, p := range parts {
		m, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("bad step %q: %w", p, err)
		}
		steps = append(steps, m)
	}
	return steps, nil
}
