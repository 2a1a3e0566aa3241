// Package cli provides the command-line interface for the options trader.
package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-trader/internal/config"
	"options-trader/internal/logging"
	"options-trader/internal/marketdata"
	"options-trader/internal/portfolio"
	"options-trader/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-08-30"
)

// App holds the application dependencies.
type App struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Provider  marketdata.Provider
	Kite      *marketdata.KiteProvider // nil when credentials are absent
	Portfolio portfolio.Portfolio
	Store     store.Store
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Credentials.Kite.APIKey != "" {
		kite := marketdata.NewKiteProvider(cfg.Credentials.Kite, cfg.Trading.RiskFreeRate, logger)
		app.Kite = kite
		app.Provider = kite
		logger.Debug().Msg("Kite provider initialized")
	}

	// Execution always routes through the paper portfolio; live order
	// routing is out of scope and mode only controls the market-hours gate.
	app.Portfolio = portfolio.NewPaperPortfolio(cfg.Trading.DefaultCapital)

	dbPath := config.DefaultConfigDir() + "/trader.db"
	journal, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, journaling disabled")
	} else {
		app.Store = journal
		logger.Debug().Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "Index options strategy trader for the Indian market",
		Long: `An options strategy CLI for Indian index options.

It fetches live option chains via Kite Connect, classifies the market
regime, ranks multi-leg strategies (straddle, strangle, iron condor,
butterfly) and executes the best candidate with position sizing and
fallback handling.

Use 'trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addAuthCommands(rootCmd, app)
	addChainCommands(rootCmd, app)
	addStrategyCommands(rootCmd, app)
	addJournalCommands(rootCmd, app)
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trader %s (built %s)\n", Version, BuildDate)
		},
	}
}
