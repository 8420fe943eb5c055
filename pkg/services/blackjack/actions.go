package blackjack

import (
	"context"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
)

// Hit draws one card into the active hand. A resulting 21 ends the hand
// with its disposition deferred to settlement; a bust is marked
// immediately.
func (g *Game) Hit(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPlayActions() {
		return ErrActionNotAllowed
	}

	hand := g.activeHand
	g.isDealing = true
	// the action log carries the total at the moment of the action,
	// before the drawn card lands
	total := hand.Total()
	g.dealCardTo(ctx, hand)
	g.logAction("hit", total)

	if hand.IsBust() {
		g.pause(ctx, g.opts.PaceDelay)
		hand.Result = entities.ResultBust
		g.logAction("bust", hand.Total())
		g.sound.Play("bust")
		g.notify()
		g.endHand(ctx)
		return nil
	}
	if hand.Total() == 21 {
		g.endHand(ctx)
		return nil
	}

	g.isDealing = false
	g.notify()
	return nil
}

// Stand ends the active hand at its current total.
func (g *Game) Stand(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canPlayActions() {
		return ErrActionNotAllowed
	}

	g.endHand(ctx)
	return nil
}

// DoubleDown doubles the stake, draws exactly one card, and ends the
// hand regardless of the result. OriginalBet keeps the pre-double value
// for payout accounting.
func (g *Game) DoubleDown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canDoubleDown() {
		return ErrActionNotAllowed
	}

	hand := g.activeHand
	if err := g.balance.Debit(hand.Bet); err != nil {
		return err
	}
	g.syncBank()
	g.reportBet(ctx, hand.Bet)
	hand.Bet *= 2

	g.isDealing = true
	total := hand.Total()
	g.dealCardTo(ctx, hand)
	g.logAction("double", total)

	if hand.IsBust() {
		g.pause(ctx, g.opts.PaceDelay)
		hand.Result = entities.ResultBust
		g.logAction("bust", hand.Total())
		g.sound.Play("bust")
	}
	g.notify()
	g.endHand(ctx)
	return nil
}

// Split turns a matched pair into two hands, each keeping the source
// hand's original bet. The second hand's stake is deducted immediately.
// Each hand draws back up to two cards before play; split Aces take one
// card each and stand.
func (g *Game) Split(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canSplit() {
		return ErrActionNotAllowed
	}

	hand := g.activeHand
	player := g.activePlayer
	if err := g.balance.Debit(hand.Bet); err != nil {
		return err
	}
	g.syncBank()
	g.reportBet(ctx, hand.Bet)

	splitAces := hand.Cards[0].IsAce()
	first := &entities.Hand{
		Cards:       []*entities.Card{hand.Cards[0]},
		Bet:         hand.Bet,
		OriginalBet: hand.OriginalBet,
	}
	second := &entities.Hand{
		Cards:       []*entities.Card{hand.Cards[1]},
		Bet:         hand.Bet,
		OriginalBet: hand.OriginalBet,
	}
	player.Hands = []*entities.Hand{first, second}
	g.logAction("split", hand.Total())

	g.activeHand = first
	g.isDealing = true
	total := first.Total()
	g.dealCardTo(ctx, first)
	g.logAction("hit", total)

	if splitAces || first.Total() == 21 {
		g.endHand(ctx)
		return nil
	}

	g.isDealing = false
	g.notify()
	return nil
}

// Surrender forfeits half the bet and ends the round immediately.
func (g *Game) Surrender(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canSurrender() {
		return ErrActionNotAllowed
	}

	hand := g.activeHand
	hand.Bet /= 2
	hand.Result = entities.ResultSurrender
	g.logAction("surrender", hand.Total())
	g.notify()
	g.endRound(ctx)
	return nil
}

// endHand advances control after a hand concludes: the post-split
// second hand draws its card and becomes playable, otherwise the dealer
// takes over. Nil-safe so duplicate completion paths fall through after
// a round has already settled. A hand that ends undecided logs an
// implicit stand; blackjack, bust and surrender were logged when the
// result was assigned.
func (g *Game) endHand(ctx context.Context) {
	if g.activePlayer == nil || g.activeHand == nil {
		return
	}
	if !g.activePlayer.IsDealer && g.activeHand.Result == entities.ResultNone {
		g.logAction("stand", g.activeHand.Total())
	}

	player := g.activePlayer
	if len(player.Hands) == 2 && g.activeHand == player.Hands[0] && len(player.Hands[1].Cards) == 1 {
		g.activeHand = player.Hands[1]
		g.isDealing = true
		total := g.activeHand.Total()
		g.dealCardTo(ctx, g.activeHand)
		g.logAction("hit", total)

		if g.activeHand.Cards[0].IsAce() || g.activeHand.Total() == 21 {
			// split aces stand on their single drawn card
			g.endHand(ctx)
			return
		}
		g.isDealing = false
		g.notify()
		return
	}

	g.dealerTurn(ctx)
}

// dealerTurn reveals the hole card and draws to 17. When every player
// hand is already decided the dealer stands pat and settlement begins.
func (g *Game) dealerTurn(ctx context.Context) {
	g.activePlayer = g.dealer()
	g.activeHand = nil
	g.isDealing = true

	if !g.showDealerHoleCard {
		g.showDealerHoleCard = true
		g.notify()
		g.pause(ctx, g.opts.PaceDelay)
	}

	if !g.allHandsDecided() {
		dealerHand := g.dealerHand()
		for dealerHand.Total() < 17 {
			g.dealCardTo(ctx, dealerHand)
		}
	}

	g.endRound(ctx)
}

func (g *Game) allHandsDecided() bool {
	for _, hand := range g.players[0].Hands {
		if hand.Result == entities.ResultNone {
			return false
		}
	}
	return true
}
