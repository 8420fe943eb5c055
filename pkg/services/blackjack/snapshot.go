package blackjack

import "github.com/dkarrieta71/blackjack-miniapp/pkg/entities"

// HandView is a read-only copy of one hand for observers.
type HandView struct {
	Cards     []string
	Total     int
	Bet       float64
	Insurance float64
	Result    entities.Result
}

// Snapshot is a point-in-time, read-only view of the table. Dealer
// fields hide the hole card until it is revealed.
type Snapshot struct {
	Dealing            bool
	InsuranceOffered   bool
	ShowDealerHoleCard bool
	GameOver           bool
	UsedCredits        bool
	Bank               float64
	PlayerHands        []HandView
	ActiveHandIndex    int
	DealerCards        []string
	DealerTotal        int
	ShoeRemaining      int
	Actions            []entities.ActionRecord
}

// Subscribe registers an observer called after every state change. The
// callback runs on the engine's goroutine and must not call back into
// the Game.
func (g *Game) Subscribe(fn func(Snapshot)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}

// State returns a snapshot of the current table state.
func (g *Game) State() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Game) snapshot() Snapshot {
	player := g.players[0]
	snap := Snapshot{
		Dealing:            g.isDealing,
		InsuranceOffered:   g.insuranceOffered,
		ShowDealerHoleCard: g.showDealerHoleCard,
		GameOver:           g.gameOver,
		UsedCredits:        g.balance.UsedCredits(),
		Bank:               g.balance.ActiveBank(),
		ActiveHandIndex:    -1,
		ShoeRemaining:      g.shoe.Remaining(),
		Actions:            append([]entities.ActionRecord(nil), g.actions...),
	}

	for i, hand := range player.Hands {
		snap.PlayerHands = append(snap.PlayerHands, handView(hand))
		if g.activePlayer == player && g.activeHand == hand {
			snap.ActiveHandIndex = i
		}
	}

	dealer := g.dealerHand()
	for i, card := range dealer.Cards {
		// the first dealt dealer card is the hole card
		if i == 0 && !g.showDealerHoleCard {
			snap.DealerCards = append(snap.DealerCards, "??")
			continue
		}
		snap.DealerCards = append(snap.DealerCards, card.String())
	}
	if g.showDealerHoleCard {
		snap.DealerTotal = dealer.Total()
	} else if len(dealer.Cards) > 1 {
		snap.DealerTotal = dealer.Cards[1].Rank.Value()
	}
	return snap
}

func handView(hand *entities.Hand) HandView {
	view := HandView{
		Total:     hand.Total(),
		Bet:       hand.Bet,
		Insurance: hand.Insurance,
		Result:    hand.Result,
	}
	for _, card := range hand.Cards {
		view.Cards = append(view.Cards, card.String())
	}
	return view
}

// notify pushes a fresh snapshot to every observer.
func (g *Game) notify() {
	if len(g.listeners) == 0 {
		return
	}
	snap := g.snapshot()
	for _, fn := range g.listeners {
		fn(snap)
	}
}
