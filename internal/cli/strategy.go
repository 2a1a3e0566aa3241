package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-trader/internal/chain"
	"options-trader/internal/models"
	"options-trader/internal/selector"
	"options-trader/internal/strategy"
	"options-trader/pkg/utils"
)

// addStrategyCommands adds strategy analysis and execution commands.
func addStrategyCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newAnalyzeCmd(app))
	rootCmd.AddCommand(newSelectCmd(app))
	rootCmd.AddCommand(newExecuteCmd(app))
}

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score every strategy against the current chain",
		Long: `Run all strategy analyzers against the live chain and show each
candidate's confidence, legs and economics. Hold results show the reason
the analyzer declined.`,
		Example: `  trader analyze
  trader analyze -u BANKNIFTY`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, err := fetchChain(cmd, app)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}

			var candidates []models.Candidate
			for _, a := range strategy.All(app.Config.Strategy) {
				candidates = append(candidates, a.Analyze(c))
			}

			if output.IsJSON() {
				return output.JSON(candidates)
			}

			color.Cyan("%s", analysisHeader(c))
			for _, cand := range candidates {
				printCandidate(output, cand)
			}
			return nil
		},
	}
	chainFlags(cmd)
	return cmd
}

func newSelectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select",
		Short: "Pick the best strategy for the current regime",
		Long: `Classify the market regime, rank the regime-appropriate strategies
and show the winner with its alternatives. No orders are placed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, err := fetchChain(cmd, app)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}
			underlying, _ := cmd.Flags().GetString("underlying")
			snap, err := app.Provider.DetectRegime(cmd.Context(), underlying)
			if err != nil {
				output.Error("Regime detection failed: %v", err)
				return err
			}

			sel := selector.New(app.Config.Strategy, app.Logger).SelectStrategy(c, snap)

			if output.IsJSON() {
				return output.JSON(sel)
			}

			color.Cyan("Market state: %s (bias %s, ADX %.1f)", sel.State, snap.Bias, snap.ADX)
			output.Printf("Selected: %s (confidence %.2f)\n", sel.Strategy, sel.Confidence)
			output.Printf("Reason:   %s\n", sel.Reason)
			if len(sel.Alternatives) > 0 {
				output.Println()
				output.Header("Alternatives")
				for _, alt := range sel.Alternatives {
					output.Printf("  %-15s %.2f\n", alt.Strategy, alt.Confidence)
				}
			}
			return nil
		},
	}
	chainFlags(cmd)
	return cmd
}

func newExecuteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Select, size and execute the optimal strategy",
		Long: `Run the full cycle: fetch the live chain, classify the regime, rank
candidates, check correlated exposure, size the position and execute the
winner. Failed attempts walk the configured fallback ladder.

Execution routes through the paper portfolio; every fill and the run
outcome are journaled.`,
		Example: `  trader execute
  trader execute -u BANKNIFTY --expiry 2026-09-30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Provider == nil {
				output.Error("No market data provider configured")
				return errNoProvider
			}
			underlying, _ := cmd.Flags().GetString("underlying")
			expiry, err := expiryFlag(cmd)
			if err != nil {
				output.Error("%v", err)
				return err
			}

			engine := selector.NewEngine(app.Config, app.Provider, app.Portfolio, app.Store, app.Logger)
			result := engine.ExecuteOptimalStrategy(cmd.Context(), underlying, expiry)

			if output.IsJSON() {
				return output.JSON(result)
			}
			printExecutionResult(output, result)
			return nil
		},
	}
	chainFlags(cmd)
	return cmd
}

func analysisHeader(c *chain.Chain) string {
	return fmt.Sprintf("Strategy analysis for %s (spot %.2f, %.0f days to expiry)",
		c.Underlying, c.Spot, c.DaysToExpiry())
}

func printCandidate(output *Output, cand models.Candidate) {
	output.Println()
	if cand.IsHold() {
		output.Warning("%-15s HOLD", cand.Strategy)
		for _, r := range cand.Reasons {
			output.Printf("  %s\n", r)
		}
		return
	}

	output.Success("%-15s confidence %.2f", cand.Strategy, cand.Confidence)
	for _, leg := range cand.Legs {
		action := "BUY "
		if leg.Direction == models.LegSell {
			action = "SELL"
		}
		output.Printf("  %s %dx %-4s @ %.0f  ltp %.2f\n",
			action, leg.Quantity, leg.Contract.Side, leg.Contract.Strike, leg.Contract.LastPrice)
	}
	output.Printf("  premium %s  max loss %s\n",
		utils.FormatIndianCurrency(cand.NetPremium), utils.FormatIndianCurrency(cand.MaxLoss))
	for _, r := range cand.Reasons {
		output.Printf("  %s\n", r)
	}
}

func printExecutionResult(output *Output, result *models.ExecutionResult) {
	if result.Success {
		output.Success("Executed %s: %d lots", result.Strategy, result.Lots)
		if result.FallbackFrom != "" {
			output.Warning("Fallback from %s", result.FallbackFrom)
		}
		for _, leg := range result.FilledLegs {
			output.Printf("  %-4s %-24s qty %d @ %.2f\n", leg.Direction, leg.Symbol, leg.Quantity, leg.Price)
		}
		output.Printf("  premium %s  max profit %s  max loss %s\n",
			utils.FormatIndianCurrency(result.Premium),
			utils.FormatIndianCurrency(result.MaxProfit),
			utils.FormatIndianCurrency(result.MaxLoss))
		return
	}

	output.Error("Execution failed [%s]: %s", result.ErrorCode, result.Reason)
	if len(result.Attempted) > 0 {
		output.Printf("  attempted: %v\n", result.Attempted)
	}
	if len(result.FilledLegs) > 0 {
		output.Warning("Open legs needing reconciliation:")
		for _, leg := range result.FilledLegs {
			output.Printf("  %-4s %-24s qty %d @ %.2f\n", leg.Direction, leg.Symbol, leg.Quantity, leg.Price)
		}
	}
}
