package entities

import "math/rand"

// CardsPerDeck is the number of cards in a single deck.
const CardsPerDeck = 52

// Shoe holds the pooled cards for one table, drawn FIFO from the front.
// While a round is active the cards in the shoe plus the cards in all
// hands add up to decks*52, except across an explicit regeneration.
type Shoe struct {
	Cards       []*Card
	decks       int
	cardsPlayed int
}

// NewShoe builds a shuffled shoe of decks*52 cards. Every card is tagged
// with a stable index before shuffling.
func NewShoe(decks int) *Shoe {
	cards := make([]*Card, 0, decks*CardsPerDeck)
	for d := 0; d < decks; d++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				cards = append(cards, NewCard(rank, suit, len(cards)))
			}
		}
	}

	return &Shoe{
		Cards: Shuffle(cards),
		decks: decks,
	}
}

// Shuffle returns a uniformly random permutation of cards without
// mutating the input slice.
func Shuffle(cards []*Card) []*Card {
	shuffled := make([]*Card, len(cards))
	copy(shuffled, cards)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// Draw removes and returns the front card, counting it as played.
// Returns nil when the shoe is empty.
func (s *Shoe) Draw() *Card {
	if len(s.Cards) == 0 {
		return nil
	}
	card := s.Cards[0]
	s.Cards = s.Cards[1:]
	s.cardsPlayed++
	return card
}

// PushFront puts a card back at the front of the shoe, to be drawn next.
func (s *Shoe) PushFront(card *Card) {
	s.Cards = append([]*Card{card}, s.Cards...)
}

// Return appends cards to the back of the shoe at round reset.
func (s *Shoe) Return(cards []*Card) {
	s.Cards = append(s.Cards, cards...)
}

// TakeFirstAce removes and returns the first Ace in the shoe, or nil if
// the shoe holds none. Used by the forced-dealer-ace test hook.
func (s *Shoe) TakeFirstAce() *Card {
	for i, card := range s.Cards {
		if card.IsAce() {
			s.Cards = append(s.Cards[:i], s.Cards[i+1:]...)
			return card
		}
	}
	return nil
}

// RefillWith shuffles the remaining shoe together with the given cards
// into a fresh ordering and resets the played counter.
func (s *Shoe) RefillWith(cards []*Card) {
	pool := make([]*Card, 0, len(s.Cards)+len(cards))
	pool = append(pool, s.Cards...)
	pool = append(pool, cards...)
	s.Cards = Shuffle(pool)
	s.cardsPlayed = 0
}

// NeedsReshuffle reports whether 75% or more of the shoe has been played
// since the last shuffle.
func (s *Shoe) NeedsReshuffle() bool {
	remaining := 1 - float64(s.cardsPlayed)/float64(s.Size())
	return remaining <= 0.25
}

// Remaining returns the number of cards left in the shoe.
func (s *Shoe) Remaining() int {
	return len(s.Cards)
}

// Size returns the full shoe size, decks*52.
func (s *Shoe) Size() int {
	return s.decks * CardsPerDeck
}

// CardsPlayed returns the number of cards drawn since the last shuffle.
func (s *Shoe) CardsPlayed() int {
	return s.cardsPlayed
}

// Decks returns the number of decks the shoe was built from.
func (s *Shoe) Decks() int {
	return s.decks
}
