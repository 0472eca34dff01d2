package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the global database connection
var DB *sqlx.DB

// Connect establishes a connection to the database. The driver is selected
// with DB_TYPE: "sqlite" (the default, file under FLASHDECK_DATA_DIR or
// ./data) or "postgres" (connection string in DATABASE_URL).
func Connect() error {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		dbType = "sqlite"
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch dbType {
	case "sqlite":
		dataDir := os.Getenv("FLASHDECK_DATA_DIR")
		if dataDir == "" {
			dataDir = "data"
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
		db, err = sqlx.Connect("sqlite3", filepath.Join(dataDir, "flashdeck.db"))
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			return fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		// SQLite doesn't support multiple writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)

	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		if dsn == "" {
			return fmt.Errorf("DATABASE_URL must be set when DB_TYPE=postgres")
		}
		db, err = sqlx.Connect("postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

	default:
		return fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}

	DB = db
	return initializeSchema()
}

// Close closes the database connection
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

// initializeSchema creates necessary tables if they don't exist
func initializeSchema() error {
	_, err := DB.Exec(`
		CREATE TABLE IF NOT EXISTS cards (
			id TEXT PRIMARY KEY,
			front TEXT NOT NULL,
			back TEXT NOT NULL,
			state TEXT NOT NULL DEFAULT 'new',
			current_step INTEGER NOT NULL DEFAULT 0,
			interval REAL NOT NULL DEFAULT 0,
			ease REAL NOT NULL DEFAULT 2.5,
			lapses INTEGER NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			next_review_date TIMESTAMP NOT NULL,
			last_review_date TIMESTAMP,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cards table: %w", err)
	}

	_, err = DB.Exec(`
		CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards (next_review_date)
	`)
	if err != nil {
		return fmt.Errorf("failed to create cards index: %w", err)
	}

	_, err = DB.Exec(`
		CREATE TABLE IF NOT EXISTS learning_config (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			learning_steps TEXT NOT NULL,
			relearning_steps TEXT NOT NULL,
			graduating_interval INTEGER NOT NULL,
			easy_interval INTEGER NOT NULL,
			new_cards_per_day INTEGER NOT NULL,
			updated_at TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create learning_config table: %w", err)
	}

	return nil
}
