package entities

// Player is a seat at the table. A player owns one hand, or two after a
// split. The dealer is always the last player in the table's player list.
type Player struct {
	Name     string
	IsDealer bool
	Bank     float64
	Hands    []*Hand
}

// NewPlayer creates a seated player with a single empty hand.
func NewPlayer(name string, bank float64) *Player {
	return &Player{
		Name:  name,
		Bank:  bank,
		Hands: []*Hand{NewHand(0)},
	}
}

// NewDealer creates the dealer seat.
func NewDealer() *Player {
	return &Player{
		IsDealer: true,
		Hands:    []*Hand{NewHand(0)},
	}
}
