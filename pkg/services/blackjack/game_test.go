package blackjack

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/prefs"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/round"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/reporting"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/balance"
)

type recordingReporter struct {
	mu      sync.Mutex
	bets    []float64
	results []*reporting.RoundReport
	matches []*reporting.MatchSyncRequest
}

func (r *recordingReporter) ReportBetPlaced(_ context.Context, _ string, betAmount, _ float64, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bets = append(r.bets, betAmount)
	return nil
}

func (r *recordingReporter) ReportRoundResult(_ context.Context, _ string, report *reporting.RoundReport, _ bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, report)
	return nil
}

func (r *recordingReporter) ReportMatchSync(_ context.Context, req *reporting.MatchSyncRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches = append(r.matches, req)
	return nil
}

func newTestGame(t *testing.T, opts Options, credits, real float64) (*Game, *recordingReporter, *round.MemoryRepository) {
	t.Helper()
	logger := log.New(io.Discard)
	reporter := &recordingReporter{}
	rounds := round.NewMemoryRepository()
	g := New("12345", opts, Deps{
		Logger:   logger,
		Balance:  balance.NewService(prefs.NewMemoryRepository(), logger),
		Reporter: reporter,
		Rounds:   rounds,
	})
	require.NoError(t, g.SetInitialBalances(credits, real))
	return g, reporter, rounds
}

func c(rank entities.Rank) *entities.Card {
	return entities.NewCard(rank, entities.Hearts, -1)
}

// rig places cards at the front of the shoe in draw order: player,
// dealer hole, player, dealer up-card, then any further draws.
func rig(g *Game, cards ...*entities.Card) {
	g.shoe.Cards = append(append([]*entities.Card{}, cards...), g.shoe.Cards...)
}

func TestThreeCardTwentyOneBeatsDealerEighteen(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 20, 0)
	rig(g, c("7"), c("8"), c("5"), c("10"), c("9"))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Hit(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "win", record.Outcome)
	require.Len(t, record.Hands, 1)
	assert.InDelta(t, 9.7, record.Hands[0].Payout, 0.0001)
	assert.InDelta(t, 9.7, record.TotalPayout, 0.0001)
	assert.InDelta(t, 29.7, record.NewBalance, 0.0001)
}

func TestDealtBlackjackPaysDoubleTheStake(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 20, 0)
	rig(g, c(entities.Ace), c("9"), c(entities.King), c("5"))

	require.NoError(t, g.PlayRound(context.Background(), 10))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "blackjack", record.Outcome)
	require.Len(t, record.Hands, 1)
	assert.Equal(t, entities.ResultBlackjack, record.Hands[0].Result)
	assert.InDelta(t, 20, record.Hands[0].Payout, 0.0001)
	assert.InDelta(t, 40, record.NewBalance, 0.0001)

	require.NotEmpty(t, record.Actions)
	assert.Equal(t, "blackjack", record.Actions[0].Action)
	assert.Equal(t, 21, record.Actions[0].HandValue)
}

func TestDealerBlackjackPushesPlayerBlackjack(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 20, 0)
	// dealer hole Ace, up King: blackjack without showing an Ace
	rig(g, c(entities.Ace), c(entities.Ace), c(entities.Queen), c(entities.King))

	require.NoError(t, g.PlayRound(context.Background(), 10))

	record := g.LastRound()
	require.NotNil(t, record)
	require.Len(t, record.Hands, 1)
	assert.Equal(t, entities.ResultPush, record.Hands[0].Result)
	assert.InDelta(t, 0, record.Hands[0].Payout, 0.0001)
	assert.InDelta(t, 20, record.NewBalance, 0.0001)
}

func TestSplitEightsDeductsSecondStake(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	rig(g, c("8"), c("10"), c("8"), c("7"), c("2"), c("3"))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.True(t, g.CanSplit())
	require.NoError(t, g.Split(ctx))

	snap := g.State()
	require.Len(t, snap.PlayerHands, 2)
	assert.Equal(t, float64(10), snap.PlayerHands[0].Bet)
	assert.Equal(t, float64(10), snap.PlayerHands[1].Bet)
	// 100 - 10 (first bet) - 10 (split stake)
	assert.InDelta(t, 80, snap.Bank, 0.0001)

	require.NoError(t, g.Stand(ctx)) // first hand: 8+2
	require.NoError(t, g.Stand(ctx)) // second hand: 8+3

	record := g.LastRound()
	require.NotNil(t, record)
	require.Len(t, record.Hands, 2)
	assert.Equal(t, float64(10), record.Hands[0].Bet)
	assert.Equal(t, float64(10), record.Hands[1].Bet)
	assert.Equal(t, float64(20), record.TotalBet)
	// both hands lose against the dealer's 17
	assert.Equal(t, entities.ResultLose, record.Hands[0].Result)
	assert.Equal(t, entities.ResultLose, record.Hands[1].Result)
}

func TestSplitAcesDrawOneCardEachAndStand(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	rig(g, c(entities.Ace), c("10"), c(entities.Ace), c("9"), c("5"), c(entities.King))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Split(ctx))

	// the whole round settles inside Split: one forced card per ace
	record := g.LastRound()
	require.NotNil(t, record)
	require.Len(t, record.Hands, 2)
	// A+5=16 loses to 19, A+K=21 wins
	assert.Equal(t, entities.ResultLose, record.Hands[0].Result)
	assert.Equal(t, entities.ResultWin, record.Hands[1].Result)
	assert.InDelta(t, -10, record.Hands[0].Payout, 0.0001)
	assert.InDelta(t, 9.7, record.Hands[1].Payout, 0.0001)
	assert.Equal(t, "lose", record.Outcome)
}

func TestSurrenderHalvesBetAndEndsRound(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	rig(g, c("10"), c("9"), c("6"), c("9"))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 20))
	require.True(t, g.CanSurrender())
	require.NoError(t, g.Surrender(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "surrender", record.Outcome)
	require.Len(t, record.Hands, 1)
	assert.Equal(t, entities.ResultSurrender, record.Hands[0].Result)
	assert.InDelta(t, -10, record.Hands[0].Payout, 0.0001)
	// 100 - 20 staked + 10 returned
	assert.InDelta(t, 90, record.NewBalance, 0.0001)
}

func TestBustIsMarkedEagerlyAndDealerStandsPat(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	rig(g, c("10"), c("10"), c("6"), c("6"), c(entities.King))

	maxDealerCards := 0
	g.Subscribe(func(snap Snapshot) {
		if len(snap.DealerCards) > maxDealerCards {
			maxDealerCards = len(snap.DealerCards)
		}
	})

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Hit(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "bust", record.Outcome)
	assert.InDelta(t, -10, record.TotalPayout, 0.0001)
	// dealer sat on 16: every hand was already decided
	assert.Equal(t, 2, maxDealerCards)

	actions := record.Actions
	require.Len(t, actions, 2)
	assert.Equal(t, "hit", actions[0].Action)
	// the hit carries the total before the drawn card landed
	assert.Equal(t, 16, actions[0].HandValue)
	assert.Equal(t, "bust", actions[1].Action)
	assert.Equal(t, 26, actions[1].HandValue)
}

func TestActionLogCarriesPreActionTotals(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	// split eights against a standing dealer 17; each post-split draw is
	// logged as a hit and each undecided hand ends with a stand
	rig(g, c("8"), c("10"), c("8"), c("7"),
		c("2"), c("3"), c(entities.King))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Split(ctx))
	require.NoError(t, g.Hit(ctx)) // 8+2 draws a 3
	require.NoError(t, g.Stand(ctx))
	require.NoError(t, g.Stand(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	want := []entities.ActionRecord{
		{Action: "split", HandValue: 16},
		{Action: "hit", HandValue: 8},
		{Action: "hit", HandValue: 10},
		{Action: "stand", HandValue: 13},
		{Action: "hit", HandValue: 8},
		{Action: "stand", HandValue: 18},
	}
	assert.Equal(t, want, record.Actions)
}

func TestDealerDrawsToSeventeen(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	// dealer 6+6 must draw, 5 brings it to exactly 17 and it stands
	rig(g, c("10"), c("6"), c(entities.Queen), c("6"), c("5"))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Stand(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	// player 20 beats dealer 17
	assert.Equal(t, "win", record.Outcome)
	assert.InDelta(t, 9.7, record.TotalPayout, 0.0001)
}

func TestDealerBustPaysEveryStandingHand(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	// dealer 10+6 draws a King and busts
	rig(g, c("9"), c("10"), c("9"), c("6"), c(entities.King))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Stand(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "win", record.Outcome)
	assert.InDelta(t, 9.7, record.TotalPayout, 0.0001)
}

func TestDoubleDownDrawsOneCardAndEnds(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	// player 6+5=11 doubles into a King for 21; dealer stands on 17
	rig(g, c("6"), c("8"), c("5"), c("9"), c(entities.King))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.True(t, g.CanDoubleDown())
	require.NoError(t, g.DoubleDown(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "win", record.Outcome)
	require.Len(t, record.Hands, 1)
	// doubled stake 20 paid at 1.97, reported against the original bet
	assert.Equal(t, float64(10), record.Hands[0].Bet)
	assert.InDelta(t, 29.4, record.Hands[0].Payout, 0.0001)
	// 100 - 10 - 10 + 39.4
	assert.InDelta(t, 119.4, record.NewBalance, 0.0001)
}

func TestInsuranceTakenAgainstDealerBlackjack(t *testing.T) {
	g, _, _ := newTestGame(t, Options{ForceDealerAce: true}, 100, 0)
	rig(g, c("9"), c(entities.King), c("9"), c(entities.Queen))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))

	snap := g.State()
	assert.True(t, snap.InsuranceOffered)
	require.Len(t, snap.DealerCards, 2)
	assert.Equal(t, "??", snap.DealerCards[0])
	require.True(t, g.CanTakeInsurance())

	require.NoError(t, g.TakeInsurance(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	require.Len(t, record.Hands, 1)
	// main bet lost, insurance stake 5 paid back at 2x
	assert.Equal(t, entities.ResultLose, record.Hands[0].Result)
	assert.Equal(t, float64(5), record.Hands[0].Insurance)
	assert.InDelta(t, -5, record.Hands[0].Payout, 0.0001)
	// 100 - 10 - 5 + 10
	assert.InDelta(t, 95, record.NewBalance, 0.0001)
}

func TestInsuranceDeclinedStandingDealerSettlesImmediately(t *testing.T) {
	g, _, _ := newTestGame(t, Options{ForceDealerAce: true}, 100, 0)
	// hole 6 + forced Ace gives the dealer a standing soft 17
	rig(g, c("9"), c("6"), c("9"), c(entities.Queen))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.True(t, g.State().InsuranceOffered)

	require.NoError(t, g.DeclineInsurance(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	// player 18 beats soft 17, no insurance stake involved
	assert.Equal(t, "win", record.Outcome)
	require.Len(t, record.Hands, 1)
	assert.Zero(t, record.Hands[0].Insurance)
	assert.InDelta(t, 9.7, record.TotalPayout, 0.0001)
}

func TestNaturalAgainstStandingDealerSettlesAsPlainWin(t *testing.T) {
	g, _, _ := newTestGame(t, Options{ForceDealerAce: true}, 100, 0)
	// hole 8 + forced Ace gives the dealer a standing soft 19; the
	// player's natural settles against it at even odds, no 3x bonus
	rig(g, c(entities.Ace), c("8"), c(entities.King), c(entities.Queen))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.True(t, g.State().InsuranceOffered)

	require.NoError(t, g.DeclineInsurance(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "win", record.Outcome)
	require.Len(t, record.Hands, 1)
	assert.Equal(t, entities.ResultWin, record.Hands[0].Result)
	assert.InDelta(t, 9.7, record.TotalPayout, 0.0001)
	assert.InDelta(t, 109.7, record.NewBalance, 0.0001)
}

func TestInsuranceDeclinedLowDealerTotalResumesPlay(t *testing.T) {
	g, _, _ := newTestGame(t, Options{ForceDealerAce: true}, 100, 0)
	// hole 5 + forced Ace totals 16: the player keeps playing, then the
	// dealer draws King and 6 for a 22 bust
	rig(g, c("9"), c("5"), c("9"), c(entities.Queen), c(entities.King), c("6"))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.DeclineInsurance(ctx))

	assert.Nil(t, g.LastRound())
	require.NoError(t, g.Stand(ctx))

	record := g.LastRound()
	require.NotNil(t, record)
	assert.Equal(t, "win", record.Outcome)
}

func TestForcedAceIsSynthesizedWhenShoeHasNone(t *testing.T) {
	g, _, _ := newTestGame(t, Options{ForceDealerAce: true}, 100, 0)
	// shoe with no Aces at all
	g.shoe.Cards = []*entities.Card{
		c("9"), c(entities.King), c("9"), c(entities.Queen),
		c("2"), c("3"), c("4"), c("5"), c("6"), c("7"),
	}
	before := len(g.shoe.Cards)

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))

	snap := g.State()
	require.True(t, snap.InsuranceOffered)

	// four cards dealt; the synthesized Ace replaced a discarded card,
	// so shoe plus hands still account for every card
	inHands := 4
	assert.Equal(t, before, snap.ShoeRemaining+inHands)
}

func TestShoePlusHandsStaysConstant(t *testing.T) {
	g, _, _ := newTestGame(t, Options{Decks: 6}, 100, 0)
	before := g.State().ShoeRemaining

	require.NoError(t, g.PlayRound(context.Background(), 10))

	snap := g.State()
	require.Len(t, snap.PlayerHands, 1)
	inHands := len(snap.PlayerHands[0].Cards) + len(snap.DealerCards)
	assert.Equal(t, before, snap.ShoeRemaining+inHands)
}

func TestActionsRejectedDuringInsuranceOffer(t *testing.T) {
	g, _, _ := newTestGame(t, Options{ForceDealerAce: true}, 100, 0)
	rig(g, c("9"), c(entities.King), c("9"), c(entities.Queen))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.True(t, g.State().InsuranceOffered)

	assert.ErrorIs(t, g.Hit(ctx), ErrActionNotAllowed)
	assert.ErrorIs(t, g.Stand(ctx), ErrActionNotAllowed)
	assert.False(t, g.CanDoubleDown())
	assert.False(t, g.CanSurrender())
}

func TestBetValidation(t *testing.T) {
	g, _, _ := newTestGame(t, Options{MinimumBet: 5, MaximumBet: 100}, 50, 0)

	assert.ErrorIs(t, g.PlaceBet(1), ErrBetOutOfRange)
	assert.ErrorIs(t, g.PlaceBet(500), ErrBetOutOfRange)
	assert.ErrorIs(t, g.PlaceBet(60), balance.ErrInsufficientFunds)
	assert.ErrorIs(t, g.StartRound(context.Background()), ErrNoBet)
	require.NoError(t, g.PlaceBet(10))
}

func TestGameOverWhenBankrollBelowMinimum(t *testing.T) {
	g, _, _ := newTestGame(t, Options{MinimumBet: 10}, 10, 0)
	// all-in loss: player 18 loses to dealer 20
	rig(g, c("9"), c("10"), c("9"), c(entities.Queen))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Stand(ctx))

	assert.True(t, g.State().GameOver)
	assert.ErrorIs(t, g.PlaceBet(10), ErrGameOver)

	// reloading balances clears the flag
	require.NoError(t, g.SetInitialBalances(50, 0))
	assert.False(t, g.State().GameOver)
}

func TestBustOutSwitchesToOtherBalance(t *testing.T) {
	g, _, _ := newTestGame(t, Options{MinimumBet: 10}, 10, 50)
	rig(g, c("9"), c("10"), c("9"), c(entities.Queen))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Stand(ctx))

	snap := g.State()
	assert.False(t, snap.GameOver)
	assert.False(t, snap.UsedCredits)
	assert.InDelta(t, 50, snap.Bank, 0.0001)
}

func TestToggleBalanceLockedDuringRound(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 20, 50)

	require.NoError(t, g.PlaceBet(10))
	_, err := g.ToggleBalanceType()
	assert.ErrorIs(t, err, ErrBalanceLocked)

	g2, _, _ := newTestGame(t, Options{}, 20, 50)
	usedCredits, err := g2.ToggleBalanceType()
	require.NoError(t, err)
	assert.False(t, usedCredits)
}

func TestRoundIsReportedAndPersisted(t *testing.T) {
	g, reporter, rounds := newTestGame(t, Options{}, 20, 0)
	rig(g, c("7"), c("8"), c("5"), c("10"), c("9"))

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Hit(ctx))
	g.Flush()

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	require.Len(t, reporter.bets, 1)
	assert.Equal(t, float64(10), reporter.bets[0])

	require.Len(t, reporter.results, 1)
	assert.InDelta(t, 9.7, reporter.results[0].TotalPayout, 0.0001)

	require.Len(t, reporter.matches, 1)
	match := reporter.matches[0]
	assert.Equal(t, "blackjack", match.GameType)
	assert.Equal(t, "win", match.Result)
	require.NotNil(t, match.WinAmount)
	assert.InDelta(t, 9.7, *match.WinAmount, 0.0001)
	require.Len(t, match.MatchBets, 2)
	assert.Equal(t, "hit", match.MatchBets[0].Action)
	assert.Equal(t, 12, match.MatchBets[0].HandValue)
	// reaching 21 ends the hand with an implicit stand
	assert.Equal(t, "stand", match.MatchBets[1].Action)
	assert.Equal(t, 21, match.MatchBets[1].HandValue)

	stored, err := rounds.GetPlayerRounds("12345", 0)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "win", stored[0].Outcome)
}

func TestRoundResetReturnsCardsToShoe(t *testing.T) {
	g, _, _ := newTestGame(t, Options{}, 100, 0)
	rig(g, c("10"), c("9"), c("9"), c("8"))
	before := g.State().ShoeRemaining

	ctx := context.Background()
	require.NoError(t, g.PlayRound(ctx, 10))
	require.NoError(t, g.Stand(ctx))
	require.NotNil(t, g.LastRound())

	snap := g.State()
	assert.False(t, snap.Dealing)
	require.Len(t, snap.PlayerHands, 1)
	assert.Empty(t, snap.PlayerHands[0].Cards)
	assert.Empty(t, snap.DealerCards)
	assert.Equal(t, before, snap.ShoeRemaining)
}
