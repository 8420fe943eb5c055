package reporting

import "context"

// Reporter is the outbound boundary for best-effort backend mirroring.
// Every call is invoked fire-and-forget by the engine: failures are
// logged and swallowed, and never roll back local game state.
type Reporter interface {
	// ReportBetPlaced is called right after a bet deduction.
	ReportBetPlaced(ctx context.Context, userID string, betAmount, newBalance float64, useRealFunds bool) error

	// ReportRoundResult is called once per player at round settlement.
	ReportRoundResult(ctx context.Context, userID string, report *RoundReport, usedCredits bool) error

	// ReportMatchSync mirrors the full match, including the action log.
	ReportMatchSync(ctx context.Context, req *MatchSyncRequest) error
}

// XPFetcher reads the player's leveling snapshot from the backend.
type XPFetcher interface {
	FetchExperienceInfo(ctx context.Context, userID string) (*XPInfo, error)
}

// NopReporter discards every report. Used in offline mode and tests.
type NopReporter struct{}

func (NopReporter) ReportBetPlaced(context.Context, string, float64, float64, bool) error {
	return nil
}

func (NopReporter) ReportRoundResult(context.Context, string, *RoundReport, bool) error {
	return nil
}

func (NopReporter) ReportMatchSync(context.Context, *MatchSyncRequest) error {
	return nil
}
