package round

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
)

// SQLiteRepository persists round history to a local SQLite database.
// Hand and action details are stored as JSON columns since they are
// only ever read back whole.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the round database at
// dbPath and ensures the schema exists.
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
		CREATE TABLE IF NOT EXISTS rounds (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			used_credits INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			total_bet REAL NOT NULL,
			total_payout REAL NOT NULL,
			new_balance REAL NOT NULL,
			hands TEXT NOT NULL,
			actions TEXT NOT NULL,
			completed_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rounds_user ON rounds(user_id, completed_at);
	`)
	if err != nil {
		return fmt.Errorf("error creating rounds table: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveRound(record *entities.RoundRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidRound
	}
	if record.UserID == "" {
		return ErrInvalidUserID
	}

	hands, err := json.Marshal(record.Hands)
	if err != nil {
		return fmt.Errorf("error encoding hands: %w", err)
	}
	actions, err := json.Marshal(record.Actions)
	if err != nil {
		return fmt.Errorf("error encoding actions: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO rounds (id, user_id, used_credits, outcome, total_bet,
			total_payout, new_balance, hands, actions, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.UserID, record.UsedCredits, record.Outcome,
		record.TotalBet, record.TotalPayout, record.NewBalance,
		string(hands), string(actions), record.CompletedAt)
	if err != nil {
		return fmt.Errorf("error saving round: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetPlayerRounds(userID string, limit int) ([]*entities.RoundRecord, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	query := `
		SELECT id, user_id, used_credits, outcome, total_bet,
			total_payout, new_balance, hands, actions, completed_at
		FROM rounds
		WHERE user_id = ?
		ORDER BY completed_at DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying rounds: %w", err)
	}
	defer rows.Close()

	var records []*entities.RoundRecord
	for rows.Next() {
		var record entities.RoundRecord
		var hands, actions string
		err := rows.Scan(&record.ID, &record.UserID, &record.UsedCredits,
			&record.Outcome, &record.TotalBet, &record.TotalPayout,
			&record.NewBalance, &hands, &actions, &record.CompletedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning round: %w", err)
		}
		if err := json.Unmarshal([]byte(hands), &record.Hands); err != nil {
			return nil, fmt.Errorf("error decoding hands: %w", err)
		}
		if err := json.Unmarshal([]byte(actions), &record.Actions); err != nil {
			return nil, fmt.Errorf("error decoding actions: %w", err)
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rounds: %w", err)
	}
	return records, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
