// Package blackjack implements the turn engine for a single-seat,
// multi-hand blackjack table: shoe management, dealing, player actions,
// dealer play and settlement. The Game aggregate is the single source of
// truth; external collaborators (backend reports, sounds, XP) are
// best-effort mirrors and never gate state transitions.
package blackjack

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/round"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/reporting"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/balance"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/experience"
)

// winMultiplier is applied to winning even-money bets. The 0.03 shave
// under a true 1:1 payout is a deliberate house rule.
const winMultiplier = 1.97

// blackjackMultiplier turns the stake into stake plus a 2:1 profit the
// moment a natural is detected.
const blackjackMultiplier = 3

// SoundPlayer plays a named sound effect. Calls are advisory; a failed
// or missing sound never affects game state.
type SoundPlayer interface {
	Play(name string)
}

type nopSound struct{}

func (nopSound) Play(string) {}

// Options configures a table.
type Options struct {
	Decks          int
	MinimumBet     float64
	MaximumBet     float64
	CardDelay      time.Duration
	PaceDelay      time.Duration
	ForceDealerAce bool
}

// Deps carries the engine's collaborators. Balance is required; every
// other field falls back to a no-op or default implementation.
type Deps struct {
	Logger     *log.Logger
	Clock      quartz.Clock
	Balance    *balance.Service
	Experience *experience.Service
	Reporter   reporting.Reporter
	Rounds     round.Repository
	Sound      SoundPlayer
}

// Game owns the authoritative state for one table. All exported methods
// serialize through a single mutex; internal helpers assume it is held.
type Game struct {
	mu sync.Mutex

	opts     Options
	logger   *log.Logger
	clock    quartz.Clock
	balance  *balance.Service
	xp       *experience.Service
	reporter reporting.Reporter
	rounds   round.Repository
	sound    SoundPlayer

	userID  string
	shoe    *entities.Shoe
	players []*entities.Player

	activePlayer *entities.Player
	activeHand   *entities.Hand

	isDealing          bool
	showDealerHoleCard bool
	insuranceOffered   bool
	gameOver           bool

	actions   []entities.ActionRecord
	lastRound *entities.RoundRecord

	listeners []func(Snapshot)
	reportWG  sync.WaitGroup
}

// New creates a table for one player. Zero-valued options take table
// defaults (6 decks, 1 minimum, 10000 maximum).
func New(userID string, opts Options, deps Deps) *Game {
	if opts.Decks <= 0 {
		opts.Decks = 6
	}
	if opts.MinimumBet <= 0 {
		opts.MinimumBet = 1
	}
	if opts.MaximumBet <= 0 {
		opts.MaximumBet = 10000
	}
	if deps.Logger == nil {
		deps.Logger = log.Default()
	}
	if deps.Clock == nil {
		deps.Clock = quartz.NewReal()
	}
	if deps.Reporter == nil {
		deps.Reporter = reporting.NopReporter{}
	}
	if deps.Sound == nil {
		deps.Sound = nopSound{}
	}

	player := entities.NewPlayer(userID, 0)
	dealer := entities.NewDealer()

	g := &Game{
		opts:     opts,
		logger:   deps.Logger,
		clock:    deps.Clock,
		balance:  deps.Balance,
		xp:       deps.Experience,
		reporter: deps.Reporter,
		rounds:   deps.Rounds,
		sound:    deps.Sound,
		userID:   userID,
		shoe:     entities.NewShoe(opts.Decks),
		players:  []*entities.Player{player, dealer},
	}
	g.activePlayer = player
	g.activeHand = player.Hands[0]
	return g
}

// SetInitialBalances loads the player's two balances and clears the
// game-over flag when the active balance covers the minimum bet again.
func (g *Game) SetInitialBalances(credits, real float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.balance.SetInitial(g.userID, credits, real); err != nil {
		return err
	}
	g.syncBank()
	g.gameOver = g.balance.ActiveBank() < g.opts.MinimumBet
	g.notify()
	return nil
}

// PlaceBet stakes the amount on the awaiting hand. The bankroll is not
// debited until the round starts.
func (g *Game) PlaceBet(amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gameOver {
		return ErrGameOver
	}
	if g.isDealing {
		return ErrDealing
	}
	if g.activeHand == nil {
		return ErrNoActiveHand
	}
	if len(g.activeHand.Cards) > 0 || g.activeHand.Result != entities.ResultNone {
		return ErrBetAlreadyPlaced
	}
	if amount < g.opts.MinimumBet || amount > g.opts.MaximumBet {
		g.logger.Warn("rejected bet outside table limits",
			"amount", amount, "min", g.opts.MinimumBet, "max", g.opts.MaximumBet)
		return ErrBetOutOfRange
	}
	if amount > g.balance.ActiveBank() {
		return balance.ErrInsufficientFunds
	}

	g.activeHand.Bet = amount
	g.activeHand.OriginalBet = amount
	g.notify()
	return nil
}

// StartRound deals the opening cards for the staked bet. It blocks
// through the pacing delays and returns once the round either awaits an
// insurance decision, awaits player actions, or has settled.
func (g *Game) StartRound(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.gameOver {
		return ErrGameOver
	}
	if g.isDealing {
		return ErrDealing
	}
	hand := g.leadHand()
	if hand == nil {
		return ErrNoActiveHand
	}
	if hand.Bet <= 0 {
		return ErrNoBet
	}
	if len(hand.Cards) > 0 {
		return ErrBetAlreadyPlaced
	}

	g.isDealing = true
	if err := g.balance.Debit(hand.Bet); err != nil {
		g.isDealing = false
		return err
	}
	g.syncBank()
	g.reportBet(ctx, hand.Bet)
	g.notify()

	g.dealInitialCards(ctx)

	dealer := g.dealerHand()
	if len(dealer.Cards) == 2 && dealer.Cards[1].IsAce() {
		g.insuranceOffered = true
		g.isDealing = false
		g.notify()
		return nil
	}

	if dealer.IsBlackjack() {
		g.endRound(ctx)
		return nil
	}
	if g.leadHand().IsBlackjack() {
		g.handleBlackjack(ctx, g.leadHand())
		g.endRound(ctx)
		return nil
	}

	g.beginPlayerTurn()
	return nil
}

// PlayRound places the bet and starts the round in one call.
func (g *Game) PlayRound(ctx context.Context, amount float64) error {
	if err := g.PlaceBet(amount); err != nil {
		return err
	}
	return g.StartRound(ctx)
}

// TakeInsurance stakes floor(bet/2) on the dealer having blackjack,
// then reveals the hole card and resolves the offer.
func (g *Game) TakeInsurance(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.insuranceOffered {
		return ErrInsuranceNotOffered
	}
	hand := g.leadHand()
	stake := insuranceStake(hand.Bet)
	if err := g.balance.Debit(stake); err != nil {
		return err
	}
	g.syncBank()
	hand.Insurance = stake
	hand.OriginalInsurance = stake
	g.reportBet(ctx, stake)

	g.insuranceOffered = false
	g.resolveInsurance(ctx)
	return nil
}

// DeclineInsurance refuses the side bet, then reveals the hole card and
// resolves the offer.
func (g *Game) DeclineInsurance(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.insuranceOffered {
		return ErrInsuranceNotOffered
	}
	g.insuranceOffered = false
	g.resolveInsurance(ctx)
	return nil
}

// resolveInsurance reveals the hole card after an insurance decision.
// A dealer blackjack or standing total goes straight to settlement;
// otherwise the player's turn begins.
func (g *Game) resolveInsurance(ctx context.Context) {
	g.isDealing = true
	g.showDealerHoleCard = true
	g.notify()
	g.pause(ctx, g.opts.PaceDelay)

	dealer := g.dealerHand()
	if dealer.IsBlackjack() {
		g.endRound(ctx)
		return
	}
	// a standing dealer total settles first: a natural against it is a
	// plain win, not a blackjack payout
	if total := dealer.Total(); total >= 17 && total <= 21 {
		g.endRound(ctx)
		return
	}
	if g.leadHand().IsBlackjack() {
		g.handleBlackjack(ctx, g.leadHand())
		g.endRound(ctx)
		return
	}
	g.beginPlayerTurn()
}

// ToggleBalanceType flips between bonus credits and real funds. Only
// allowed while no bet is staked and no cards are dealt.
func (g *Game) ToggleBalanceType() (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.isDealing {
		return g.balance.UsedCredits(), ErrBalanceLocked
	}
	hand := g.leadHand()
	if hand != nil && (hand.Bet > 0 || len(hand.Cards) > 0) {
		return g.balance.UsedCredits(), ErrBalanceLocked
	}

	usedCredits, err := g.balance.Toggle()
	if err != nil {
		return usedCredits, err
	}
	g.syncBank()
	g.gameOver = g.balance.ActiveBank() < g.opts.MinimumBet
	g.notify()
	return usedCredits, nil
}

// Flush waits for in-flight fire-and-forget reports to finish. Used at
// shutdown and by tests; gameplay never waits on it.
func (g *Game) Flush() {
	g.reportWG.Wait()
}

// LastRound returns the record of the most recently settled round, or
// nil before the first settlement.
func (g *Game) LastRound() *entities.RoundRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastRound
}

// dealInitialCards deals two passes of one card each, player first.
func (g *Game) dealInitialCards(ctx context.Context) {
	for pass := 0; pass < 2; pass++ {
		for _, p := range g.players {
			if p.IsDealer && pass == 1 && g.opts.ForceDealerAce {
				g.forceDealerAce()
			}
			g.dealCardTo(ctx, p.Hands[0])
		}
	}
}

// forceDealerAce arranges for the next draw to be an Ace: a test hook
// for the insurance path. An Ace is swapped forward from inside the
// shoe; if the shoe holds none, one is synthesized and a drawn card is
// discarded so the total card count stays stable.
func (g *Game) forceDealerAce() {
	g.reshuffleIfNeeded()
	if len(g.shoe.Cards) > 0 && g.shoe.Cards[0].IsAce() {
		return
	}
	if ace := g.shoe.TakeFirstAce(); ace != nil {
		g.shoe.PushFront(ace)
		return
	}
	g.shoe.Draw()
	g.shoe.PushFront(entities.NewCard(entities.Ace, entities.Spades, -1))
}

// dealCardTo draws one card into the hand, with the card pacing delay.
func (g *Game) dealCardTo(ctx context.Context, hand *entities.Hand) {
	hand.AddCard(g.drawCard())
	g.sound.Play("card")
	g.notify()
	g.pause(ctx, g.opts.CardDelay)
}

// drawCard returns the next card, reshuffling the pool or regenerating
// an exhausted shoe first. Never fails.
func (g *Game) drawCard() *entities.Card {
	g.reshuffleIfNeeded()
	card := g.shoe.Draw()
	if card == nil {
		g.logger.Warn("shoe exhausted, regenerating", "decks", g.opts.Decks)
		g.shoe = entities.NewShoe(g.opts.Decks)
		card = g.shoe.Draw()
	}
	return card
}

// reshuffleIfNeeded rebuilds the shoe once 75% of it has been played,
// folding every card currently held in hands back into the pool. This
// runs before each draw, not at round end, so the shoe cannot run dry
// mid-round at normal table sizes.
func (g *Game) reshuffleIfNeeded() {
	if !g.shoe.NeedsReshuffle() {
		return
	}

	var held []*entities.Card
	for _, p := range g.players {
		for _, h := range p.Hands {
			held = append(held, h.Cards...)
		}
	}
	g.logger.Debug("reshuffling shoe",
		"played", g.shoe.CardsPlayed(), "held", len(held), "remaining", g.shoe.Remaining())
	g.shoe.RefillWith(held)
}

// beginPlayerTurn hands control to the lead player's first hand.
func (g *Game) beginPlayerTurn() {
	g.activePlayer = g.players[0]
	g.activeHand = g.activePlayer.Hands[0]
	g.isDealing = false
	g.notify()
}

// handleBlackjack settles a natural eagerly: the stake is tripled on the
// spot and the result recorded, before settlement runs.
func (g *Game) handleBlackjack(ctx context.Context, hand *entities.Hand) {
	hand.Bet *= blackjackMultiplier
	hand.Result = entities.ResultBlackjack
	g.logAction("blackjack", hand.Total())
	g.sound.Play("blackjack")
	g.notify()
	g.pause(ctx, g.opts.PaceDelay)
}

// leadHand returns the non-dealer player's first hand.
func (g *Game) leadHand() *entities.Hand {
	return g.players[0].Hands[0]
}

// dealerHand returns the dealer's hand.
func (g *Game) dealerHand() *entities.Hand {
	return g.players[len(g.players)-1].Hands[0]
}

func (g *Game) dealer() *entities.Player {
	return g.players[len(g.players)-1]
}

// syncBank mirrors the active balance onto the seated player.
func (g *Game) syncBank() {
	g.players[0].Bank = g.balance.ActiveBank()
}

// logAction appends to the per-round action log shipped with the match
// sync report.
func (g *Game) logAction(action string, handValue int) {
	g.actions = append(g.actions, entities.ActionRecord{
		Action:    action,
		HandValue: handValue,
	})
}

// reportBet mirrors a bet deduction to the backend, fire-and-forget.
func (g *Game) reportBet(ctx context.Context, amount float64) {
	userID := g.userID
	newBalance := g.balance.ActiveBank()
	useRealFunds := !g.balance.UsedCredits()

	g.reportWG.Add(1)
	go func() {
		defer g.reportWG.Done()
		if err := g.reporter.ReportBetPlaced(context.WithoutCancel(ctx), userID, amount, newBalance, useRealFunds); err != nil {
			g.logger.Error("failed to report bet", "user_id", userID, "error", err)
		}
	}()
}

// pause blocks for the given pacing delay. Durations of zero or less
// collapse immediately, which headless tests rely on.
func (g *Game) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := g.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

func insuranceStake(bet float64) float64 {
	return math.Floor(bet / 2)
}
