package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-trader/internal/store"
	"options-trader/pkg/utils"
)

// addJournalCommands adds trade-history and run-journal commands.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newTradesCmd(app))
	rootCmd.AddCommand(newRunsCmd(app))
}

func newTradesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trades",
		Short: "Show executed trades",
		Example: `  trader trades
  trader trades --strategy iron_condor --days 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Journal store unavailable")
				return fmt.Errorf("store not initialized")
			}

			filter := store.TradeFilter{}
			filter.Symbol, _ = cmd.Flags().GetString("symbol")
			filter.Strategy, _ = cmd.Flags().GetString("strategy")
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			if days, _ := cmd.Flags().GetInt("days"); days > 0 {
				filter.From = time.Now().AddDate(0, 0, -days)
			}

			trades, err := app.Store.GetTrades(cmd.Context(), filter)
			if err != nil {
				output.Error("Query failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Warning("No trades found")
				return nil
			}

			color.Cyan("%d trades", len(trades))
			for _, t := range trades {
				tag := ""
				if t.IsPaper {
					tag = " [paper]"
				}
				output.Printf("%s  %-4s %-24s qty %s @ %s  %s%s\n",
					t.Timestamp.Format("02 Jan 15:04"), t.Side, t.Symbol,
					utils.FormatQuantity(int64(t.Quantity)),
					utils.FormatIndianCurrency(t.Price), t.Strategy, tag)
			}
			return nil
		},
	}
	cmd.Flags().String("symbol", "", "filter by trading symbol")
	cmd.Flags().String("strategy", "", "filter by strategy")
	cmd.Flags().Int("days", 0, "only trades from the last N days")
	cmd.Flags().Int("limit", 50, "maximum rows")
	return cmd
}

func newRunsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show strategy run outcomes",
		Long: `Show the journal of strategy runs: which strategy was selected, whether
it executed, the reason code on failure and any fallback path taken.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				output.Error("Journal store unavailable")
				return fmt.Errorf("store not initialized")
			}

			limit, _ := cmd.Flags().GetInt("limit")
			recs, err := app.Store.GetSelections(cmd.Context(), limit)
			if err != nil {
				output.Error("Query failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(recs)
			}
			if len(recs) == 0 {
				output.Warning("No runs recorded")
				return nil
			}

			color.Cyan("%d runs", len(recs))
			for _, r := range recs {
				when := r.Timestamp.Format("02 Jan 15:04")
				if r.Success {
					fallback := ""
					if r.FallbackFrom != "" {
						fallback = fmt.Sprintf(" (fallback from %s)", r.FallbackFrom)
					}
					output.Success("%s  %-10s %-15s %d lots  %s%s",
						when, r.Underlying, r.Strategy, r.Lots,
						utils.FormatIndianCurrency(r.Premium), fallback)
				} else {
					output.Error("%s  %-10s %-15s [%s] %s",
						when, r.Underlying, r.Strategy, r.ErrorCode, r.Reason)
				}
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "maximum rows")
	return cmd
}
