package prefs

import "errors"

var (
	// ErrNotFound is returned when no preference has been stored yet.
	ErrNotFound = errors.New("preference not found")
	// ErrInvalidUserID is returned when the user ID is empty.
	ErrInvalidUserID = errors.New("invalid user ID")
)

// Repository persists per-user session preferences across restarts.
type Repository interface {
	// GetUsedCredits reports whether the user last played with bonus
	// credits. Returns ErrNotFound when the user has no stored choice.
	GetUsedCredits(userID string) (bool, error)

	// SetUsedCredits stores the user's active balance choice.
	SetUsedCredits(userID string, usedCredits bool) error

	// Close releases any resources held by the repository.
	Close() error
}
