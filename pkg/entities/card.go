package entities

import "fmt"

// Suit represents a card suit
type Suit string

const (
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
	Spades   Suit = "SPADES"
)

// Rank represents a card rank
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Suits lists the four suits in shoe-construction order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

// Ranks lists the thirteen ranks in shoe-construction order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

// rankValues maps each rank to its base blackjack value. Aces count as 1
// here; Hand.Total applies the one-time +10 soft-ace adjustment.
var rankValues = map[Rank]int{
	Ace: 1, Two: 2, Three: 3, Four: 4, Five: 5, Six: 6, Seven: 7,
	Eight: 8, Nine: 9, Ten: 10, Jack: 10, Queen: 10, King: 10,
}

// Value returns the base blackjack value of the rank.
func (r Rank) Value() int {
	return rankValues[r]
}

// Card represents a playing card. A card is immutable once drawn. Index is
// the card's stable position in the shoe it was built into, used for
// shuffle identity and debugging only, never for game logic.
type Card struct {
	Rank  Rank
	Suit  Suit
	Index int
}

// NewCard creates a new card
func NewCard(rank Rank, suit Suit, index int) *Card {
	return &Card{
		Rank:  rank,
		Suit:  suit,
		Index: index,
	}
}

// IsAce reports whether the card is an Ace.
func (c *Card) IsAce() bool {
	return c.Rank == Ace
}

// String returns the string representation of the card
func (c *Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}
