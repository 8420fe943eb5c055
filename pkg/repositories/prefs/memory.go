package prefs

import "sync"

// MemoryRepository keeps preferences in memory. Used for tests and
// offline play.
type MemoryRepository struct {
	mu          sync.RWMutex
	usedCredits map[string]bool
}

// NewMemoryRepository creates an empty in-memory preference store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		usedCredits: make(map[string]bool),
	}
}

func (r *MemoryRepository) GetUsedCredits(userID string) (bool, error) {
	if userID == "" {
		return false, ErrInvalidUserID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.usedCredits[userID]
	if !ok {
		return false, ErrNotFound
	}
	return value, nil
}

func (r *MemoryRepository) SetUsedCredits(userID string, usedCredits bool) error {
	if userID == "" {
		return ErrInvalidUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.usedCredits[userID] = usedCredits
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
