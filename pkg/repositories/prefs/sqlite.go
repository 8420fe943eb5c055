package prefs

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository persists preferences to a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the preference database
// at dbPath and ensures the schema exists.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) initSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			user_id TEXT PRIMARY KEY,
			used_credits INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("error creating preferences table: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetUsedCredits(userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidUserID
	}

	var usedCredits bool
	err := r.db.QueryRow(
		"SELECT used_credits FROM preferences WHERE user_id = ?",
		userID,
	).Scan(&usedCredits)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("error reading preference: %w", err)
	}
	return usedCredits, nil
}

func (r *SQLiteRepository) SetUsedCredits(userID string, usedCredits bool) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	_, err := r.db.Exec(`
		INSERT INTO preferences (user_id, used_credits, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			used_credits = excluded.used_credits,
			updated_at = excluded.updated_at
	`, userID, usedCredits, time.Now())
	if err != nil {
		return fmt.Errorf("error saving preference: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
