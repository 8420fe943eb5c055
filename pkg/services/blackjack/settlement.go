package blackjack

import (
	"context"

	"github.com/google/uuid"

	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/reporting"
)

// endRound resolves every hand against the dealer, applies payouts,
// records and reports the round, then resets the table for the next
// round. Runs exactly once per round; a second entry is a no-op because
// the reset has already produced an undealt hand.
func (g *Game) endRound(ctx context.Context) {
	g.isDealing = true
	g.showDealerHoleCard = true
	g.activePlayer = nil
	g.activeHand = nil
	g.notify()
	g.pause(ctx, g.opts.PaceDelay)

	g.determineResults()
	collected := g.settleBets()
	if collected > 0 {
		if err := g.balance.Credit(collected); err != nil {
			g.logger.Error("failed to credit winnings", "user_id", g.userID, "amount", collected, "error", err)
		}
	}
	g.syncBank()

	record := g.buildRoundRecord()
	g.lastRound = record
	g.playOutcomeSound(entities.Result(record.Outcome))
	g.saveRound(record)
	g.reportRound(ctx, record)

	if g.xp != nil {
		// XP classifies the round by payout sign, not by the display label
		xpResult := payoutResult(record.TotalPayout)
		earned := g.xp.ApplyRoundOutcome(ctx, g.userID, xpResult, record.UsedCredits)
		g.logger.Debug("awarded xp", "user_id", g.userID, "earned", earned, "result", xpResult)
	}

	g.balance.AutoSwitch()
	g.syncBank()
	g.pause(ctx, g.opts.PaceDelay)
	g.resetRound()
}

// determineResults resolves hands that have no result yet. Blackjack,
// bust and surrender were assigned earlier in the turn and are never
// overwritten here.
func (g *Game) determineResults() {
	dealer := g.dealerHand()
	dealerBlackjack := dealer.IsBlackjack()
	dealerTotal := dealer.Total()

	for _, hand := range g.players[0].Hands {
		if hand.Result != entities.ResultNone {
			continue
		}
		switch {
		case dealerBlackjack:
			if hand.IsBlackjack() {
				hand.Result = entities.ResultPush
			} else {
				hand.Result = entities.ResultLose
			}
		case dealerTotal > 21:
			hand.Result = entities.ResultWin
		case hand.Total() > dealerTotal:
			hand.Result = entities.ResultWin
		case hand.Total() < dealerTotal:
			hand.Result = entities.ResultLose
		default:
			hand.Result = entities.ResultPush
		}
	}
}

// settleBets applies payout multipliers per hand and returns the total
// amount collected back into the bankroll. Blackjack bets were already
// tripled when the natural was detected; surrendered bets were already
// halved.
func (g *Game) settleBets() float64 {
	dealerBlackjack := g.dealerHand().IsBlackjack()

	collected := 0.0
	for _, hand := range g.players[0].Hands {
		if dealerBlackjack {
			hand.Insurance *= 2
		} else {
			hand.Insurance = 0
		}

		switch hand.Result {
		case entities.ResultWin:
			hand.Bet *= winMultiplier
		case entities.ResultLose, entities.ResultBust:
			hand.Bet = 0
		}

		collected += hand.Bet + hand.Insurance
	}
	return collected
}

// buildRoundRecord derives the per-round report from the settled hands:
// per-hand payout is collected minus the original stakes.
func (g *Game) buildRoundRecord() *entities.RoundRecord {
	var hands []entities.HandOutcome
	totalBet := 0.0
	totalPayout := 0.0

	for _, hand := range g.players[0].Hands {
		payout := hand.Bet + hand.Insurance - hand.OriginalBet - hand.OriginalInsurance
		hands = append(hands, entities.HandOutcome{
			Bet:       hand.OriginalBet,
			Insurance: hand.OriginalInsurance,
			Result:    hand.Result,
			Payout:    payout,
		})
		totalBet += hand.OriginalBet + hand.OriginalInsurance
		totalPayout += payout
	}

	return &entities.RoundRecord{
		ID:          uuid.NewString(),
		UserID:      g.userID,
		UsedCredits: g.balance.UsedCredits(),
		Outcome:     g.roundOutcome(totalPayout).String(),
		TotalBet:    totalBet,
		TotalPayout: totalPayout,
		NewBalance:  g.balance.ActiveBank(),
		Hands:       hands,
		Actions:     append([]entities.ActionRecord(nil), g.actions...),
		CompletedAt: g.clock.Now(),
	}
}

// roundOutcome labels the round by scanning hands for special results
// in priority order, falling back to the payout sign.
func (g *Game) roundOutcome(totalPayout float64) entities.Result {
	for _, special := range []entities.Result{entities.ResultBlackjack, entities.ResultBust, entities.ResultSurrender} {
		for _, hand := range g.players[0].Hands {
			if hand.Result == special {
				return special
			}
		}
	}
	return payoutResult(totalPayout)
}

// payoutResult classifies a settled round as win, lose or push from the
// sign of its total payout.
func payoutResult(totalPayout float64) entities.Result {
	switch {
	case totalPayout > 0:
		return entities.ResultWin
	case totalPayout < 0:
		return entities.ResultLose
	default:
		return entities.ResultPush
	}
}

func (g *Game) playOutcomeSound(outcome entities.Result) {
	switch outcome {
	case entities.ResultBlackjack:
		g.sound.Play("blackjack")
	case entities.ResultWin:
		g.sound.Play("win")
	case entities.ResultPush:
		g.sound.Play("push")
	default:
		g.sound.Play("lose")
	}
}

// saveRound persists the round to the history repository. Failures are
// logged; the round is never rolled back.
func (g *Game) saveRound(record *entities.RoundRecord) {
	if g.rounds == nil {
		return
	}
	if err := g.rounds.SaveRound(record); err != nil {
		g.logger.Error("failed to save round", "round_id", record.ID, "error", err)
	}
}

// reportRound mirrors the settled round to the backend, fire-and-forget.
func (g *Game) reportRound(ctx context.Context, record *entities.RoundRecord) {
	report := &reporting.RoundReport{
		TotalBet:    record.TotalBet,
		TotalPayout: record.TotalPayout,
		NewBalance:  record.NewBalance,
	}
	for _, hand := range record.Hands {
		report.Hands = append(report.Hands, reporting.HandReport{
			Bet:       hand.Bet,
			Insurance: hand.Insurance,
			Result:    hand.Result.String(),
			Payout:    hand.Payout,
		})
	}

	matchReq := &reporting.MatchSyncRequest{
		UserID:      record.UserID,
		GameType:    "blackjack",
		UsedCredits: record.UsedCredits,
		BetAmount:   record.TotalBet,
		Result:      record.Outcome,
	}
	if record.TotalPayout > 0 {
		winAmount := record.TotalPayout
		matchReq.WinAmount = &winAmount
	}
	for _, action := range record.Actions {
		matchReq.MatchBets = append(matchReq.MatchBets, reporting.MatchBet{
			Action:    action.Action,
			HandValue: action.HandValue,
		})
	}

	userID := record.UserID
	usedCredits := record.UsedCredits
	detached := context.WithoutCancel(ctx)

	g.reportWG.Add(2)
	go func() {
		defer g.reportWG.Done()
		if err := g.reporter.ReportRoundResult(detached, userID, report, usedCredits); err != nil {
			g.logger.Error("failed to report round result", "user_id", userID, "error", err)
		}
	}()
	go func() {
		defer g.reportWG.Done()
		if err := g.reporter.ReportMatchSync(detached, matchReq); err != nil {
			g.logger.Error("failed to report match sync", "user_id", userID, "error", err)
		}
	}()
}

// resetRound returns every dealt card to the shoe, clears hands and
// flags, and leaves the table awaiting the next bet. A bankroll below
// the table minimum ends the session.
func (g *Game) resetRound() {
	var held []*entities.Card
	for _, p := range g.players {
		for _, hand := range p.Hands {
			held = append(held, hand.Cards...)
		}
	}
	g.shoe.Return(held)

	for _, p := range g.players {
		p.Hands = p.Hands[:1]
		p.Hands[0].Reset()
	}

	g.actions = g.actions[:0]
	g.showDealerHoleCard = false
	g.insuranceOffered = false
	g.activePlayer = g.players[0]
	g.activeHand = g.players[0].Hands[0]
	g.isDealing = false

	if g.balance.ActiveBank() < g.opts.MinimumBet {
		g.gameOver = true
		g.logger.Info("bankroll below minimum bet, game over",
			"user_id", g.userID, "bank", g.balance.ActiveBank(), "minimum", g.opts.MinimumBet)
	}
	g.notify()
}
