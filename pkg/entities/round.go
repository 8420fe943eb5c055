package entities

import "time"

// HandOutcome is the settled record of one hand within a round.
type HandOutcome struct {
	Bet       float64 `json:"bet"`
	Insurance float64 `json:"insurance,omitempty"`
	Result    Result  `json:"result"`
	Payout    float64 `json:"payout"`
}

// ActionRecord is one player action taken during a round, with the hand
// total at the moment the action was taken.
type ActionRecord struct {
	Action    string `json:"action"`
	HandValue int    `json:"handValue"`
}

// RoundRecord is the completed outcome of a single round for one player,
// as stored in the round history and mirrored to the backend.
type RoundRecord struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	UsedCredits bool           `json:"usedCredits"`
	Outcome     string         `json:"outcome"`
	TotalBet    float64        `json:"totalBet"`
	TotalPayout float64        `json:"totalPayout"`
	NewBalance  float64        `json:"newBalance"`
	Hands       []HandOutcome  `json:"hands"`
	Actions     []ActionRecord `json:"actions,omitempty"`
	CompletedAt time.Time      `json:"completedAt"`
}
