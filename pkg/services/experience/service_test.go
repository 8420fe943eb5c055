package experience

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/reporting"
)

type stubFetcher struct {
	mu      sync.Mutex
	calls   int
	info    reporting.XPInfo
	fetched chan struct{}
}

func (f *stubFetcher) FetchExperienceInfo(_ context.Context, _ string) (*reporting.XPInfo, error) {
	f.mu.Lock()
	f.calls++
	info := f.info
	f.mu.Unlock()
	if f.fetched != nil {
		f.fetched <- struct{}{}
	}
	return &info, nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestComputeEarnedXP(t *testing.T) {
	tests := []struct {
		name        string
		result      entities.Result
		usedCredits bool
		want        float64
	}{
		{"real win", entities.ResultWin, false, 2},
		{"real blackjack", entities.ResultBlackjack, false, 2},
		{"real loss", entities.ResultLose, false, 1},
		{"real bust", entities.ResultBust, false, 1},
		{"real surrender", entities.ResultSurrender, false, 1},
		{"real push", entities.ResultPush, false, 0.5},
		{"credit win", entities.ResultWin, true, 1},
		{"credit loss", entities.ResultLose, true, 0.5},
		{"credit push", entities.ResultPush, true, 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeEarnedXP(tt.result, tt.usedCredits))
		})
	}
}

func TestFetchCachesWithinWindow(t *testing.T) {
	clock := quartz.NewMock(t)
	fetcher := &stubFetcher{info: reporting.XPInfo{TotalXP: 10}}
	svc := NewService(fetcher, clock, log.New(io.Discard))

	ctx := context.Background()
	first, err := svc.Fetch(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, float64(10), first.TotalXP)
	assert.Equal(t, 1, fetcher.callCount())

	// second fetch inside the window is served from cache
	clock.Advance(time.Second)
	_, err = svc.Fetch(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.callCount())

	// window expired, fetch again
	clock.Advance(time.Second)
	_, err = svc.Fetch(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestForceRefreshBypassesCache(t *testing.T) {
	clock := quartz.NewMock(t)
	fetcher := &stubFetcher{info: reporting.XPInfo{TotalXP: 10}}
	svc := NewService(fetcher, clock, log.New(io.Discard))

	ctx := context.Background()
	_, err := svc.Fetch(ctx, "12345")
	require.NoError(t, err)

	_, err = svc.ForceRefresh(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.callCount())
}

func TestApplyRoundOutcomeUpdatesCache(t *testing.T) {
	clock := quartz.NewMock(t)
	fetcher := &stubFetcher{info: reporting.XPInfo{
		TotalXP: 10,
		CurrentLevel: reporting.UserLevel{
			Tier: "bronze", Rank: 1, ExpCurrent: 10, ExpRequired: 100,
		},
		XPUntilNextLevel: 90,
	}}
	svc := NewService(fetcher, clock, log.New(io.Discard))

	ctx := context.Background()
	_, err := svc.Fetch(ctx, "12345")
	require.NoError(t, err)

	earned := svc.ApplyRoundOutcome(ctx, "12345", entities.ResultWin, false)
	assert.Equal(t, float64(2), earned)

	info, err := svc.Fetch(ctx, "12345")
	require.NoError(t, err)
	assert.Equal(t, float64(12), info.TotalXP)
	assert.Equal(t, float64(12), info.CurrentLevel.ExpCurrent)
	assert.Equal(t, float64(88), info.XPUntilNextLevel)
}

func TestApplyRoundOutcomeLevelUpForcesRefresh(t *testing.T) {
	clock := quartz.NewMock(t)
	fetcher := &stubFetcher{
		info: reporting.XPInfo{
			TotalXP: 99,
			CurrentLevel: reporting.UserLevel{
				Tier: "bronze", Rank: 1, ExpCurrent: 99, ExpRequired: 100,
			},
			XPUntilNextLevel: 1,
		},
		fetched: make(chan struct{}, 2),
	}
	svc := NewService(fetcher, clock, log.New(io.Discard))

	ctx := context.Background()
	_, err := svc.Fetch(ctx, "12345")
	require.NoError(t, err)
	<-fetcher.fetched

	svc.ApplyRoundOutcome(ctx, "12345", entities.ResultWin, false)

	select {
	case <-fetcher.fetched:
	case <-time.After(time.Second):
		t.Fatal("expected a background refresh after level-up")
	}
	assert.Equal(t, 2, fetcher.callCount())
}
