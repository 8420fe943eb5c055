package entities

// Result represents the outcome of a blackjack hand. The zero value means
// the hand is still undecided.
type Result string

const (
	ResultNone      Result = ""
	ResultWin       Result = "win"
	ResultLose      Result = "lose"
	ResultPush      Result = "push"
	ResultBlackjack Result = "blackjack"
	ResultBust      Result = "bust"
	ResultSurrender Result = "surrender"
)

// String returns the string representation of the result
func (r Result) String() string {
	return string(r)
}

// IsWin returns true if this result represents a win
func (r Result) IsWin() bool {
	return r == ResultWin || r == ResultBlackjack
}

// Hand represents a single blackjack hand: its cards, its bets, and its
// settled result. Bet and Insurance are mutated during settlement;
// OriginalBet and OriginalInsurance keep the stakes as placed so payout
// ratios survive doubles, splits and settlement.
type Hand struct {
	Cards             []*Card
	Bet               float64
	OriginalBet       float64
	Insurance         float64
	OriginalInsurance float64
	Result            Result
}

// NewHand creates a hand carrying the given initial bet.
func NewHand(bet float64) *Hand {
	return &Hand{
		Cards:       make([]*Card, 0, 2),
		Bet:         bet,
		OriginalBet: bet,
	}
}

// AddCard appends a drawn card to the hand.
func (h *Hand) AddCard(card *Card) {
	h.Cards = append(h.Cards, card)
}

// Total recomputes the hand total from scratch on every call. Ranks sum
// at face value with aces as 1, then a single ace is promoted to 11 when
// that does not bust the hand. Additional aces always stay at 1.
func (h *Hand) Total() int {
	total := 0
	addedHighAce := false
	for _, card := range h.Cards {
		total += card.Rank.Value()
		if card.IsAce() && !addedHighAce {
			total += 10
			addedHighAce = true
		}
	}
	if total > 21 && addedHighAce {
		total -= 10
	}
	return total
}

// IsBust reports whether the hand total exceeds 21.
func (h *Hand) IsBust() bool {
	return h.Total() > 21
}

// IsBlackjack reports whether the hand is a natural: exactly two cards
// totalling 21. A 21 reached with three or more cards is not blackjack.
func (h *Hand) IsBlackjack() bool {
	return h.Total() == 21 && len(h.Cards) == 2
}

// Reset clears the hand for reuse in the next round.
func (h *Hand) Reset() {
	h.Cards = h.Cards[:0]
	h.Bet = 0
	h.OriginalBet = 0
	h.Insurance = 0
	h.OriginalInsurance = 0
	h.Result = ResultNone
}
