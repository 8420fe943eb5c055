// Package experience awards XP for settled rounds and caches the
// backend's leveling snapshot.
package experience

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/reporting"
)

// cacheWindow is how long a fetched XP snapshot stays fresh. Round
// settlement and the UI refresh can both ask within the same beat.
const cacheWindow = 2 * time.Second

// ComputeEarnedXP returns the XP awarded for a round outcome. Real-fund
// play earns double what credit play earns.
func ComputeEarnedXP(result entities.Result, usedCredits bool) float64 {
	var earned float64
	switch {
	case result.IsWin():
		earned = 2
	case result == entities.ResultPush:
		earned = 0.5
	default:
		earned = 1
	}
	if usedCredits {
		earned /= 2
	}
	return earned
}

// Service caches the player's leveling snapshot and applies local XP
// deltas between backend refreshes.
type Service struct {
	mu      sync.Mutex
	fetcher reporting.XPFetcher
	clock   quartz.Clock
	logger  *log.Logger

	cached    *reporting.XPInfo
	fetchedAt time.Time
}

// NewService creates an experience service. A nil clock uses real time.
func NewService(fetcher reporting.XPFetcher, clock quartz.Clock, logger *log.Logger) *Service {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Service{
		fetcher: fetcher,
		clock:   clock,
		logger:  logger,
	}
}

// Fetch returns the player's leveling snapshot, serving a cached copy
// when one was fetched within the cache window.
func (s *Service) Fetch(ctx context.Context, userID string) (*reporting.XPInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && s.clock.Since(s.fetchedAt) < cacheWindow {
		return s.cached, nil
	}
	return s.refreshLocked(ctx, userID)
}

// ForceRefresh drops the cache and fetches a fresh snapshot.
func (s *Service) ForceRefresh(ctx context.Context, userID string) (*reporting.XPInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx, userID)
}

func (s *Service) refreshLocked(ctx context.Context, userID string) (*reporting.XPInfo, error) {
	info, err := s.fetcher.FetchExperienceInfo(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.cached = info
	s.fetchedAt = s.clock.Now()
	return info, nil
}

// ApplyRoundOutcome adds the round's earned XP to the cached snapshot
// and returns the amount. When the delta crosses the current level's
// requirement, a background refresh picks up the new level from the
// backend.
func (s *Service) ApplyRoundOutcome(ctx context.Context, userID string, result entities.Result, usedCredits bool) float64 {
	earned := ComputeEarnedXP(result, usedCredits)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached == nil {
		return earned
	}

	s.cached.TotalXP += earned
	s.cached.CurrentLevel.ExpCurrent += earned
	s.cached.XPUntilNextLevel -= earned

	if s.cached.CurrentLevel.ExpRequired > 0 {
		s.cached.ProgressPercentage = 100 * s.cached.CurrentLevel.ExpCurrent / s.cached.CurrentLevel.ExpRequired
	}

	if s.cached.CurrentLevel.ExpCurrent >= s.cached.CurrentLevel.ExpRequired {
		go func() {
			if _, err := s.ForceRefresh(context.WithoutCancel(ctx), userID); err != nil {
				s.logger.Error("failed to refresh level after level-up", "user_id", userID, "error", err)
			}
		}()
	}
	return earned
}
