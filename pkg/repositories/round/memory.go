package round

import (
	"sync"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
)

// MemoryRepository keeps round history in memory. Used for tests and
// offline play.
type MemoryRepository struct {
	mu     sync.RWMutex
	rounds map[string][]*entities.RoundRecord
}

// NewMemoryRepository creates an empty in-memory round store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rounds: make(map[string][]*entities.RoundRecord),
	}
}

func (r *MemoryRepository) SaveRound(record *entities.RoundRecord) error {
	if record == nil || record.ID == "" {
		return ErrInvalidRound
	}
	if record.UserID == "" {
		return ErrInvalidUserID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.rounds[record.UserID] = append(r.rounds[record.UserID], record)
	return nil
}

func (r *MemoryRepository) GetPlayerRounds(userID string, limit int) ([]*entities.RoundRecord, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.rounds[userID]
	out := make([]*entities.RoundRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
