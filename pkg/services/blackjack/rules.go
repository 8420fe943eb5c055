package blackjack

import "github.com/dkarrieta71/blackjack-miniapp/pkg/entities"

// canPlayActions is the shared gate in front of every player action:
// there must be an undecided, dealt active hand, no dealing or
// insurance offer in flight, and the round must not have moved past
// player agency (revealed dealer blackjack or standing total).
func (g *Game) canPlayActions() bool {
	if g.gameOver || g.isDealing || g.insuranceOffered {
		return false
	}
	if g.activeHand == nil || g.activeHand.Result != entities.ResultNone {
		return false
	}
	if len(g.activeHand.Cards) == 0 {
		return false
	}
	if g.showDealerHoleCard {
		dealer := g.dealerHand()
		if dealer.IsBlackjack() {
			return false
		}
		if total := dealer.Total(); total >= 17 && total <= 21 {
			return false
		}
	}
	return true
}

// canDoubleDown: exactly 2 cards, no split, funds for the second stake,
// and a total of 10 or 11, a soft hand, or a hard 9 against a dealer
// 3 through 6 up card.
func (g *Game) canDoubleDown() bool {
	if !g.canPlayActions() {
		return false
	}
	hand := g.activeHand
	if len(hand.Cards) != 2 || len(g.activePlayer.Hands) != 1 {
		return false
	}
	if g.balance.ActiveBank() < hand.Bet {
		return false
	}

	total := hand.Total()
	if total == 10 || total == 11 {
		return true
	}
	if isSoftHand(hand) {
		return true
	}
	if total == 9 && !handHasAce(hand) {
		if up := g.dealerUpCard(); up != nil {
			value := up.Rank.Value()
			return value >= 3 && value <= 6
		}
	}
	return false
}

// canSplit: exactly 2 cards of matching rank, no prior split, funds for
// the second hand's stake.
func (g *Game) canSplit() bool {
	if !g.canPlayActions() {
		return false
	}
	hand := g.activeHand
	if len(hand.Cards) != 2 || len(g.activePlayer.Hands) != 1 {
		return false
	}
	if hand.Cards[0].Rank != hand.Cards[1].Rank {
		return false
	}
	return g.balance.ActiveBank() >= hand.Bet
}

// canSurrender: exactly 2 cards, no split, not a blackjack.
func (g *Game) canSurrender() bool {
	if !g.canPlayActions() {
		return false
	}
	hand := g.activeHand
	if len(hand.Cards) != 2 || len(g.activePlayer.Hands) != 1 {
		return false
	}
	return !hand.IsBlackjack()
}

// canTakeInsurance: an offer is open and the bank covers the stake.
func (g *Game) canTakeInsurance() bool {
	if !g.insuranceOffered {
		return false
	}
	return g.balance.ActiveBank() >= insuranceStake(g.leadHand().Bet)
}

// CanDoubleDown reports whether doubling down is legal right now.
func (g *Game) CanDoubleDown() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canDoubleDown()
}

// CanSplit reports whether splitting is legal right now.
func (g *Game) CanSplit() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canSplit()
}

// CanSurrender reports whether surrendering is legal right now.
func (g *Game) CanSurrender() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canSurrender()
}

// CanTakeInsurance reports whether the insurance side bet is available.
func (g *Game) CanTakeInsurance() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canTakeInsurance()
}

// isSoftHand reports whether the hand is two cards with a single Ace
// counted as 11. A pair of aces is a pair, not a soft hand.
func isSoftHand(hand *entities.Hand) bool {
	if len(hand.Cards) != 2 {
		return false
	}
	aces := 0
	hard := 0
	for _, card := range hand.Cards {
		hard += card.Rank.Value()
		if card.IsAce() {
			aces++
		}
	}
	return aces == 1 && hand.Total() == hard+10
}

func handHasAce(hand *entities.Hand) bool {
	for _, card := range hand.Cards {
		if card.IsAce() {
			return true
		}
	}
	return false
}

// dealerUpCard returns the dealer's face-up card, the second one dealt.
func (g *Game) dealerUpCard() *entities.Card {
	dealer := g.dealerHand()
	if len(dealer.Cards) < 2 {
		return nil
	}
	return dealer.Cards[1]
}
