package reporting

// HandReport is one settled hand inside a round report.
type HandReport struct {
	Bet       float64 `json:"bet"`
	Insurance float64 `json:"insurance,omitempty"`
	Result    string  `json:"result"`
	Payout    float64 `json:"payout"`
}

// RoundReport is the per-player round summary recorded on the backend.
type RoundReport struct {
	Hands       []HandReport `json:"hands"`
	TotalBet    float64      `json:"totalBet"`
	TotalPayout float64      `json:"totalPayout"`
	NewBalance  float64      `json:"newBalance"`
}

// MatchBet is one logged action with the hand total at action time.
type MatchBet struct {
	Action    string `json:"action"`
	HandValue int    `json:"handValue"`
}

// MatchSyncRequest mirrors a full match to the backend.
type MatchSyncRequest struct {
	UserID      string     `json:"telegramId"`
	GameType    string     `json:"gameType"`
	UsedCredits bool       `json:"usedCredits"`
	BetAmount   float64    `json:"betAmount"`
	WinAmount   *float64   `json:"winAmount"`
	Result      string     `json:"result"`
	MatchBets   []MatchBet `json:"matchBets,omitempty"`
}

// UserLevel describes the player's position within the leveling system.
type UserLevel struct {
	Tier        string  `json:"tier"`
	Rank        int     `json:"rank"`
	ExpCurrent  float64 `json:"expCurrent"`
	ExpRequired float64 `json:"expRequired"`
}

// XPInfo is the leveling snapshot returned by the backend.
type XPInfo struct {
	TotalXP            float64   `json:"totalXP"`
	CurrentLevel       UserLevel `json:"currentLevel"`
	ProgressPercentage float64   `json:"progressPercentage"`
	XPUntilNextLevel   float64   `json:"xpUntilNextLevel"`
}

// UserBalance carries the two parallel bankrolls plus lifetime counters.
type UserBalance struct {
	CreditBalance    float64 `json:"creditBalance"`
	RealBalance      float64 `json:"realBalance"`
	TotalWagered     float64 `json:"totalWagered"`
	TotalWon         float64 `json:"totalWon"`
	TotalGamesPlayed int     `json:"totalGamesPlayed"`
}

// UserInfo is the backend's view of a player.
type UserInfo struct {
	UserID     string      `json:"userId"`
	TelegramID string      `json:"telegramId"`
	Username   string      `json:"username"`
	FirstName  string      `json:"firstName"`
	LastName   string      `json:"lastName"`
	Language   string      `json:"language"`
	Status     string      `json:"status"`
	JoinDate   string      `json:"joinDate"`
	Balance    UserBalance `json:"balance"`
	Level      UserLevel   `json:"level"`
}
