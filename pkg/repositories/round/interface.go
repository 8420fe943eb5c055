package round

import (
	"errors"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
)

var (
	// ErrInvalidRound is returned when the record is nil or missing an ID.
	ErrInvalidRound = errors.New("invalid round record")
	// ErrInvalidUserID is returned when the user ID is empty.
	ErrInvalidUserID = errors.New("invalid user ID")
)

// Repository stores settled round records for history and statistics.
type Repository interface {
	// SaveRound persists a settled round.
	SaveRound(record *entities.RoundRecord) error

	// GetPlayerRounds returns the player's rounds, most recent first,
	// up to limit. A non-positive limit returns all rounds.
	GetPlayerRounds(userID string, limit int) ([]*entities.RoundRecord, error)

	// Close releases any resources held by the repository.
	Close() error
}
