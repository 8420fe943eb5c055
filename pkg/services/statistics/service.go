// Package statistics aggregates round history into per-player summaries.
package statistics

import (
	"fmt"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/round"
)

// Summary is the aggregate view of a player's round history.
type Summary struct {
	RoundsPlayed int
	Wins         int
	Losses       int
	Pushes       int
	Blackjacks   int
	Busts        int
	Surrenders   int
	HandsPlayed  int
	TotalWagered float64
	TotalPayout  float64
	WinRate      float64
}

// Service computes statistics over the stored round history.
type Service struct {
	rounds round.Repository
}

// NewService creates a statistics service over the given round store.
func NewService(rounds round.Repository) *Service {
	return &Service{rounds: rounds}
}

// Summarize aggregates all stored rounds for a player. TotalPayout is
// net of stakes, so a positive value means the player is ahead.
func (s *Service) Summarize(userID string) (*Summary, error) {
	records, err := s.rounds.GetPlayerRounds(userID, 0)
	if err != nil {
		return nil, fmt.Errorf("error loading rounds: %w", err)
	}

	summary := &Summary{}
	for _, record := range records {
		summary.RoundsPlayed++
		summary.TotalWagered += record.TotalBet
		summary.TotalPayout += record.TotalPayout
		summary.HandsPlayed += len(record.Hands)

		switch entities.Result(record.Outcome) {
		case entities.ResultBlackjack:
			summary.Blackjacks++
			summary.Wins++
		case entities.ResultWin:
			summary.Wins++
		case entities.ResultBust:
			summary.Busts++
			summary.Losses++
		case entities.ResultSurrender:
			summary.Surrenders++
			summary.Losses++
		case entities.ResultLose:
			summary.Losses++
		case entities.ResultPush:
			summary.Pushes++
		}
	}

	if summary.RoundsPlayed > 0 {
		summary.WinRate = float64(summary.Wins) / float64(summary.RoundsPlayed)
	}
	return summary, nil
}

// RecentRounds returns the player's most recent rounds, newest first.
func (s *Service) RecentRounds(userID string, limit int) ([]*entities.RoundRecord, error) {
	return s.rounds.GetPlayerRounds(userID, limit)
}
