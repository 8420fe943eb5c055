package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/dkarrieta71/blackjack-miniapp/internal/config"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/entities"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/prefs"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/repositories/round"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/reporting"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/balance"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/blackjack"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/chips"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/experience"
	"github.com/dkarrieta71/blackjack-miniapp/pkg/services/statistics"
)

type CLI struct {
	EnvFile        string `help:"Env file to load before reading configuration." type:"path"`
	Offline        bool   `help:"Play without a backend even when API_BASE_URL is set."`
	Storage        string `help:"Storage backend for history and preferences." enum:"config,memory,sqlite" default:"config"`
	ForceDealerAce bool   `short:"a" help:"Force the dealer's up card to be an ace."`
	Debug          bool   `short:"d" help:"Enable debug logging."`
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	dealerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	handStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	winStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	loseStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single-seat blackjack table with credit and real bankrolls."))

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "blackjack",
	})
	if cli.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	if cli.EnvFile != "" {
		if err := godotenv.Load(cli.EnvFile); err != nil {
			logger.Fatal("failed to load env file", "path", cli.EnvFile, "error", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}
	if cli.Storage != "config" {
		cfg.StorageType = cli.Storage
	}
	if cli.ForceDealerAce {
		cfg.ForceDealerAce = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("fatal error", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	prefsRepo, roundsRepo, err := buildRepositories(cfg, logger)
	if err != nil {
		return err
	}
	defer prefsRepo.Close()
	defer roundsRepo.Close()

	var reporter reporting.Reporter = reporting.NopReporter{}
	var xp *experience.Service
	var client *reporting.Client
	if !cfg.Offline() {
		client = reporting.NewClient(cfg.APIBaseURL, cfg.InitData)
		reporter = client
		xp = experience.NewService(client, nil, logger)
		logger.Info("backend reporting enabled", "url", cfg.APIBaseURL)
	} else {
		logger.Info("running offline, rounds are kept locally only")
	}

	bank := balance.NewService(prefsRepo, logger)
	stats := statistics.NewService(roundsRepo)

	game := blackjack.New(cfg.UserID, blackjack.Options{
		Decks:          cfg.Decks,
		MinimumBet:     cfg.MinimumBet,
		MaximumBet:     cfg.MaximumBet,
		CardDelay:      cfg.CardDelay,
		PaceDelay:      cfg.PaceDelay,
		ForceDealerAce: cfg.ForceDealerAce,
	}, blackjack.Deps{
		Logger:     logger,
		Balance:    bank,
		Experience: xp,
		Reporter:   reporter,
		Rounds:     roundsRepo,
	})
	defer game.Flush()

	credits, real := startingBalances(ctx, cfg, client, logger)
	if err := game.SetInitialBalances(credits, real); err != nil {
		return fmt.Errorf("failed to seed balances: %w", err)
	}

	fmt.Println(titleStyle.Render("♠ BLACKJACK ♠"))
	fmt.Printf("Table limits %.0f-%.0f, %d decks. Type 'help' for commands.\n\n",
		cfg.MinimumBet, cfg.MaximumBet, cfg.Decks)
	render(game.State())

	return gameLoop(ctx, game, stats, xp, cfg.UserID)
}

// buildRepositories wires preference and round storage for the configured
// backend, wrapping rounds with Elasticsearch indexing when a URL is set.
func buildRepositories(cfg *config.Config, logger *log.Logger) (prefs.Repository, round.Repository, error) {
	var prefsRepo prefs.Repository
	var roundsRepo round.Repository

	switch cfg.StorageType {
	case "sqlite":
		pr, err := prefs.NewSQLiteRepository(filepath.Join(cfg.DataDir, "prefs.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open preferences store: %w", err)
		}
		rr, err := round.NewSQLiteRepository(filepath.Join(cfg.DataDir, "rounds.db"))
		if err != nil {
			pr.Close()
			return nil, nil, fmt.Errorf("failed to open round store: %w", err)
		}
		prefsRepo, roundsRepo = pr, rr
	default:
		prefsRepo = prefs.NewMemoryRepository()
		roundsRepo = round.NewMemoryRepository()
	}

	if cfg.ElasticsearchURL != "" {
		esCfg := round.DefaultElasticsearchConfig()
		esCfg.URL = cfg.ElasticsearchURL
		wrapped, err := round.NewElasticsearchRepository(roundsRepo, esCfg)
		if err != nil {
			logger.Warn("elasticsearch unavailable, using base round store", "error", err)
		} else {
			roundsRepo = wrapped
			logger.Info("round history mirrored to elasticsearch", "url", cfg.ElasticsearchURL)
		}
	}
	return prefsRepo, roundsRepo, nil
}

// startingBalances asks the backend for the player's bankrolls, falling
// back to the configured starting bank when offline or unreachable.
func startingBalances(ctx context.Context, cfg *config.Config, client *reporting.Client, logger *log.Logger) (credits, real float64) {
	if client != nil {
		info, err := client.FetchUserInfo(ctx, cfg.UserID)
		if err == nil {
			return info.Balance.CreditBalance, info.Balance.RealBalance
		}
		logger.Warn("failed to fetch user info, using starting bank", "error", err)
	}
	return cfg.StartingBank, 0
}

func gameLoop(ctx context.Context, game *blackjack.Game, stats *statistics.Service, xp *experience.Service, userID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	var lastPrinted *entities.RoundRecord
	for {
		fmt.Print(prompt(game.State()))
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		fields := strings.Fields(strings.ToLower(scanner.Text()))
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "bet", "b":
			err = placeBet(ctx, game, args)
		case "hit", "h":
			err = game.Hit(ctx)
		case "stand", "s":
			err = game.Stand(ctx)
		case "double":
			err = game.DoubleDown(ctx)
		case "split":
			err = game.Split(ctx)
		case "surrender":
			err = game.Surrender(ctx)
		case "yes", "y", "insure":
			err = game.TakeInsurance(ctx)
		case "no", "n":
			err = game.DeclineInsurance(ctx)
		case "toggle":
			err = toggleBalance(game)
		case "chips":
			err = printChips(args)
		case "history":
			err = printHistory(stats, userID, args)
		case "stats":
			err = printStats(stats, userID)
		case "xp":
			err = printXP(ctx, xp, userID)
		case "help":
			printHelp()
		case "quit", "exit", "q":
			fmt.Println("Thanks for playing.")
			return nil
		default:
			fmt.Printf("Unknown command %q, type 'help'.\n", cmd)
			continue
		}

		if err != nil {
			fmt.Println(loseStyle.Render(friendlyError(err)))
			continue
		}

		render(game.State())
		if record := game.LastRound(); record != nil && record != lastPrinted {
			printOutcome(record)
			lastPrinted = record
		}
		if game.State().GameOver {
			fmt.Println(loseStyle.Render("Bankroll below the table minimum. Game over."))
			return nil
		}
	}
}

func placeBet(ctx context.Context, game *blackjack.Game, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: bet <amount>")
	}
	amount, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid bet amount %q", args[0])
	}
	return game.PlayRound(ctx, amount)
}

func toggleBalance(game *blackjack.Game) error {
	usedCredits, err := game.ToggleBalanceType()
	if err != nil {
		return err
	}
	if usedCredits {
		fmt.Println("Now playing with bonus credits.")
	} else {
		fmt.Println("Now playing with real funds.")
	}
	return nil
}

func printChips(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: chips <amount>")
	}
	amount, err := strconv.Atoi(args[0])
	if err != nil || amount < 0 {
		return fmt.Errorf("invalid amount %q", args[0])
	}
	counts := chips.AmountToChips(amount)
	var parts []string
	for i := len(chips.Denominations) - 1; i >= 0; i-- {
		denom := chips.Denominations[i]
		if counts[denom] > 0 {
			parts = append(parts, fmt.Sprintf("%dx%d", counts[denom], denom))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "no chips")
	}
	fmt.Printf("%d = %s\n", amount, strings.Join(parts, " + "))
	return nil
}

func printHistory(stats *statistics.Service, userID string, args []string) error {
	limit := 10
	if len(args) == 1 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = parsed
	}
	records, err := stats.RecentRounds(userID, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No rounds played yet.")
		return nil
	}
	for _, r := range records {
		fmt.Printf("  %s  %-10s bet %7.2f  payout %+8.2f  balance %8.2f\n",
			r.CompletedAt.Format("15:04:05"), r.Outcome, r.TotalBet, r.TotalPayout, r.NewBalance)
	}
	return nil
}

func printStats(stats *statistics.Service, userID string) error {
	summary, err := stats.Summarize(userID)
	if err != nil {
		return err
	}
	fmt.Printf("Rounds %d  W/L/P %d/%d/%d  blackjacks %d  busts %d  surrenders %d\n",
		summary.RoundsPlayed, summary.Wins, summary.Losses, summary.Pushes,
		summary.Blackjacks, summary.Busts, summary.Surrenders)
	fmt.Printf("Hands %d  wagered %.2f  paid out %+.2f  win rate %.1f%%\n",
		summary.HandsPlayed, summary.TotalWagered, summary.TotalPayout, summary.WinRate*100)
	return nil
}

func printXP(ctx context.Context, xp *experience.Service, userID string) error {
	if xp == nil {
		fmt.Println("XP tracking needs a backend connection.")
		return nil
	}
	info, err := xp.Fetch(ctx, userID)
	if err != nil {
		return err
	}
	fmt.Printf("%s rank %d  %.1f/%.1f XP (%.1f%%), %.1f to next level\n",
		info.CurrentLevel.Tier, info.CurrentLevel.Rank,
		info.CurrentLevel.ExpCurrent, info.CurrentLevel.ExpRequired,
		info.ProgressPercentage, info.XPUntilNextLevel)
	return nil
}

func printHelp() {
	fmt.Println(`Commands:
  bet <amount>   stake and deal the next round
  hit            draw a card
  stand          end the active hand
  double         double the stake, draw one card, stand
  split          split a pair into two hands
  surrender      give up half the stake and end the round
  yes / no       take or decline insurance when offered
  toggle         switch between credits and real funds
  chips <amount> show the chip breakdown for an amount
  history [n]    show recent rounds
  stats          show lifetime statistics
  xp             show level progress
  quit           leave the table`)
}

func prompt(snap blackjack.Snapshot) string {
	bank := "credits"
	if !snap.UsedCredits {
		bank = "real"
	}
	if snap.InsuranceOffered {
		return fmt.Sprintf("[%.2f %s] insurance? (yes/no) > ", snap.Bank, bank)
	}
	return fmt.Sprintf("[%.2f %s] > ", snap.Bank, bank)
}

// render prints the table: dealer on top, then each player hand with its
// stake, marking the hand that is currently acting.
func render(snap blackjack.Snapshot) {
	if len(snap.DealerCards) == 0 {
		return
	}
	fmt.Println(dealerStyle.Render(fmt.Sprintf("Dealer (%d): %s",
		snap.DealerTotal, strings.Join(snap.DealerCards, ", "))))

	for i, hand := range snap.PlayerHands {
		if len(hand.Cards) == 0 {
			continue
		}
		marker := " "
		if i == snap.ActiveHandIndex {
			marker = "*"
		}
		line := fmt.Sprintf("%s Hand %d (%d): %s  [bet %.2f", marker, i+1, hand.Total, strings.Join(hand.Cards, ", "), hand.Bet)
		if hand.Insurance > 0 {
			line += fmt.Sprintf(", insurance %.2f", hand.Insurance)
		}
		line += "]"
		if hand.Result != entities.ResultNone {
			line += "  " + string(hand.Result)
		}
		fmt.Println(handStyle.Render(line))
	}
}

func printOutcome(record *entities.RoundRecord) {
	msg := fmt.Sprintf("Round %s: %s, payout %+.2f, balance %.2f",
		record.ID[:8], record.Outcome, record.TotalPayout, record.NewBalance)
	if record.TotalPayout >= 0 {
		fmt.Println(winStyle.Render(msg))
	} else {
		fmt.Println(loseStyle.Render(msg))
	}
	fmt.Println()
}

// friendlyError maps engine errors to table talk.
func friendlyError(err error) string {
	switch {
	case errors.Is(err, blackjack.ErrActionNotAllowed):
		return "That action is not available right now."
	case errors.Is(err, blackjack.ErrBetOutOfRange):
		return "Bet is outside the table limits."
	case errors.Is(err, blackjack.ErrNoBet):
		return "Place a bet first."
	case errors.Is(err, blackjack.ErrBetAlreadyPlaced):
		return "A round is already underway."
	case errors.Is(err, blackjack.ErrInsuranceNotOffered):
		return "Insurance is not on offer."
	case errors.Is(err, blackjack.ErrBalanceLocked):
		return "Finish the round before switching balances."
	case errors.Is(err, blackjack.ErrGameOver):
		return "The game is over, bankroll is below the minimum."
	case errors.Is(err, balance.ErrInsufficientFunds):
		return "Not enough funds in the active balance."
	default:
		return err.Error()
	}
}
