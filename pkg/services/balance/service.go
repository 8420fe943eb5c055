// Package balance manages the player's two bankrolls: bonus credits and
// real funds. Exactly one is active at a time and the choice persists
// across sessions.
package balance

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/prefs"
)

var (
	// ErrInsufficientFunds is returned when the active balance cannot
	// cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNoUser is returned when balances are used before SetInitial.
	ErrNoUser = errors.New("no user loaded")
)

// Service tracks the credit and real-fund balances for one player.
type Service struct {
	mu     sync.Mutex
	repo   prefs.Repository
	logger *log.Logger

	userID      string
	credits     float64
	real        float64
	usedCredits bool
}

// NewService creates a balance service backed by the given preference
// repository.
func NewService(repo prefs.Repository, logger *log.Logger) *Service {
	return &Service{
		repo:        repo,
		logger:      logger,
		usedCredits: true,
	}
}

// SetInitial loads both balances for a user. The active balance comes
// from the stored preference, defaulting to credits, then auto-switches
// if the chosen balance is empty while the other is not.
func (s *Service) SetInitial(userID string, credits, real float64) error {
	if userID == "" {
		return prefs.ErrInvalidUserID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.userID = userID
	s.credits = credits
	s.real = real

	usedCredits, err := s.repo.GetUsedCredits(userID)
	switch {
	case errors.Is(err, prefs.ErrNotFound):
		s.usedCredits = true
	case err != nil:
		s.logger.Error("failed to load balance preference", "user_id", userID, "error", err)
		s.usedCredits = true
	default:
		s.usedCredits = usedCredits
	}

	s.autoSwitchLocked()
	return nil
}

// UsedCredits reports whether bonus credits are the active balance.
func (s *Service) UsedCredits() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usedCredits
}

// Balances returns the credit and real-fund balances.
func (s *Service) Balances() (credits, real float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits, s.real
}

// ActiveBank returns the balance currently in play.
func (s *Service) ActiveBank() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeLocked()
}

func (s *Service) activeLocked() float64 {
	if s.usedCredits {
		return s.credits
	}
	return s.real
}

// Debit removes amount from the active balance.
func (s *Service) Debit(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative debit amount %.2f", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return ErrNoUser
	}
	if s.activeLocked() < amount {
		return ErrInsufficientFunds
	}

	if s.usedCredits {
		s.credits -= amount
	} else {
		s.real -= amount
	}
	return nil
}

// Credit adds amount to the active balance.
func (s *Service) Credit(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("negative credit amount %.2f", amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return ErrNoUser
	}

	if s.usedCredits {
		s.credits += amount
	} else {
		s.real += amount
	}
	return nil
}

// Toggle flips the active balance and persists the choice. The caller
// is responsible for gating the switch on round state.
func (s *Service) Toggle() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.userID == "" {
		return false, ErrNoUser
	}

	s.usedCredits = !s.usedCredits
	s.persistLocked()
	return s.usedCredits, nil
}

// AutoSwitch moves play to the other balance when the active one is
// empty and the other is not. Returns true if a switch happened.
func (s *Service) AutoSwitch() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoSwitchLocked()
}

func (s *Service) autoSwitchLocked() bool {
	if s.activeLocked() > 0 {
		return false
	}

	var other float64
	if s.usedCredits {
		other = s.real
	} else {
		other = s.credits
	}
	if other <= 0 {
		return false
	}

	s.usedCredits = !s.usedCredits
	s.logger.Info("switched active balance", "user_id", s.userID, "used_credits", s.usedCredits)
	s.persistLocked()
	return true
}

func (s *Service) persistLocked() {
	if err := s.repo.SetUsedCredits(s.userID, s.usedCredits); err != nil {
		s.logger.Error("failed to persist balance preference", "user_id", s.userID, "error", err)
	}
}
