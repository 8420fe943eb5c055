package blackjack

import "errors"

var (
	// ErrGameOver is returned when the bankroll can no longer cover the
	// minimum bet. Terminal until balances are reloaded.
	ErrGameOver = errors.New("game over")

	// ErrDealing is returned when an action arrives while cards are
	// being dealt or settled.
	ErrDealing = errors.New("dealing in progress")

	// ErrNoActiveHand signals an action with no hand in play. Correct
	// gating never produces it.
	ErrNoActiveHand = errors.New("no active hand")

	// ErrBetOutOfRange is returned when the bet is below the table
	// minimum or above the maximum.
	ErrBetOutOfRange = errors.New("bet out of range")

	// ErrNoBet is returned when a round is started without a bet.
	ErrNoBet = errors.New("no bet placed")

	// ErrBetAlreadyPlaced is returned when betting after cards are out.
	ErrBetAlreadyPlaced = errors.New("bet already placed")

	// ErrActionNotAllowed is returned when an action fails its
	// eligibility rules in the current state.
	ErrActionNotAllowed = errors.New("action not allowed")

	// ErrInsuranceNotOffered is returned when an insurance decision
	// arrives outside an insurance offer.
	ErrInsuranceNotOffered = errors.New("insurance not offered")

	// ErrBalanceLocked is returned when toggling balances while a bet
	// or dealt cards are on the table.
	ErrBalanceLocked = errors.New("balance locked during round")
)
