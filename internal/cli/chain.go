package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"options-trader/internal/chain"
	"options-trader/internal/models"
	"options-trader/pkg/utils"
)

// addChainCommands adds option-chain inspection commands.
func addChainCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Option chain inspection",
		Long:  "Fetch and inspect the live option chain for an index.",
	}
	cmd.AddCommand(newChainShowCmd(app))
	cmd.AddCommand(newChainMaxPainCmd(app))
	cmd.AddCommand(newChainOICmd(app))
	cmd.AddCommand(newChainVolumeCmd(app))
	rootCmd.AddCommand(cmd)
}

func chainFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("underlying", "u", "NIFTY", "underlying index symbol")
	cmd.Flags().String("expiry", "", "expiry date (YYYY-MM-DD, default nearest)")
}

var errNoProvider = fmt.Errorf("no market data provider configured")

func expiryFlag(cmd *cobra.Command) (time.Time, error) {
	expiryStr, _ := cmd.Flags().GetString("expiry")
	if expiryStr == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", expiryStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiry %q, expected YYYY-MM-DD", expiryStr)
	}
	return parsed, nil
}

func fetchChain(cmd *cobra.Command, app *App) (*chain.Chain, error) {
	if app.Provider == nil {
		return nil, errNoProvider
	}
	underlying, _ := cmd.Flags().GetString("underlying")
	expiry, err := expiryFlag(cmd)
	if err != nil {
		return nil, err
	}
	return app.Provider.FetchChain(cmd.Context(), underlying, expiry)
}

func newChainShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the chain around the spot price",
		Example: `  trader chain show
  trader chain show -u BANKNIFTY --expiry 2026-09-30 --window 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, err := fetchChain(cmd, app)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}
			window, _ := cmd.Flags().GetInt("window")

			if output.IsJSON() {
				return output.JSON(chainSummary(c, window))
			}

			color.Cyan("%s  spot %.2f  expiry %s  lot %d",
				c.Underlying, c.Spot, c.Expiry.Format("02 Jan 2006"), c.LotSize)
			output.Printf("%10s %10s %8s %10s | %8s | %10s %8s %10s %10s\n",
				"CALL OI", "CALL LTP", "CALL IV", "DELTA", "STRIKE", "DELTA", "PUT IV", "PUT LTP", "PUT OI")

			atm := c.ATMStrike(c.Spot)
			for _, k := range c.StrikesAroundSpot(c.Spot, window) {
				call, put := c.Call(k), c.Put(k)
				marker := "  "
				if k == atm {
					marker = "* "
				}
				output.Printf("%10s %10s %8s %10s | %s%6.0f | %10s %8s %10s %10s\n",
					fmtOI(call), fmtLTP(call), fmtIV(call), fmtDelta(call),
					marker, k,
					fmtDelta(put), fmtIV(put), fmtLTP(put), fmtOI(put))
			}
			return nil
		},
	}
	chainFlags(cmd)
	cmd.Flags().Int("window", 10, "strikes to show on each side of spot")
	return cmd
}

func newChainMaxPainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maxpain",
		Short: "Show the max-pain strike",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, err := fetchChain(cmd, app)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}
			maxPain := c.MaxPain()
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"underlying": c.Underlying,
					"spot":       c.Spot,
					"max_pain":   maxPain,
					"atm":        c.ATMStrike(c.Spot),
				})
			}
			color.Cyan("Max pain for %s", c.Underlying)
			output.Printf("  Spot:     %.2f\n", c.Spot)
			output.Printf("  ATM:      %.0f\n", c.ATMStrike(c.Spot))
			output.Printf("  Max pain: %.0f\n", maxPain)
			return nil
		},
	}
	chainFlags(cmd)
	return cmd
}

func newChainOICmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oi",
		Short: "Show the highest open-interest strikes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, err := fetchChain(cmd, app)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}
			top, _ := cmd.Flags().GetInt("top")
			metrics := c.TopByOpenInterest(top)
			if output.IsJSON() {
				return output.JSON(metrics)
			}
			color.Cyan("Top %d strikes by open interest (%s)", len(metrics), c.Underlying)
			for _, m := range metrics {
				output.Printf("  %6.0f %-4s  OI %s\n", m.Strike, m.Side, utils.FormatVolume(m.Value))
			}
			return nil
		},
	}
	chainFlags(cmd)
	cmd.Flags().Int("top", 5, "number of strikes to show")
	return cmd
}

func newChainVolumeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "volume",
		Short: "Show the most traded strikes",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			c, err := fetchChain(cmd, app)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}
			top, _ := cmd.Flags().GetInt("top")
			metrics := c.TopByVolume(top)
			if output.IsJSON() {
				return output.JSON(metrics)
			}
			color.Cyan("Top %d strikes by volume (%s)", len(metrics), c.Underlying)
			for _, m := range metrics {
				output.Printf("  %6.0f %-4s  Vol %s\n", m.Strike, m.Side, utils.FormatVolume(m.Value))
			}
			return nil
		},
	}
	chainFlags(cmd)
	cmd.Flags().Int("top", 5, "number of strikes to show")
	return cmd
}

type strikeRow struct {
	Strike   float64  `json:"strike"`
	CallLTP  *float64 `json:"call_ltp,omitempty"`
	CallOI   *int64   `json:"call_oi,omitempty"`
	CallIV   *float64 `json:"call_iv,omitempty"`
	PutLTP   *float64 `json:"put_ltp,omitempty"`
	PutOI    *int64   `json:"put_oi,omitempty"`
	PutIV    *float64 `json:"put_iv,omitempty"`
	ATM      bool     `json:"atm,omitempty"`
	MaxPain  bool     `json:"max_pain,omitempty"`
	Distance float64  `json:"distance_from_spot"`
}

func chainSummary(c *chain.Chain, window int) map[string]interface{} {
	atm := c.ATMStrike(c.Spot)
	maxPain := c.MaxPain()
	var rows []strikeRow
	for _, k := range c.StrikesAroundSpot(c.Spot, window) {
		row := strikeRow{Strike: k, ATM: k == atm, MaxPain: k == maxPain, Distance: k - c.Spot}
		if call := c.Call(k); call != nil {
			row.CallLTP, row.CallOI, row.CallIV = &call.LastPrice, &call.OpenInterest, &call.IV
		}
		if put := c.Put(k); put != nil {
			row.PutLTP, row.PutOI, row.PutIV = &put.LastPrice, &put.OpenInterest, &put.IV
		}
		rows = append(rows, row)
	}
	return map[string]interface{}{
		"underlying": c.Underlying,
		"spot":       c.Spot,
		"expiry":     c.Expiry.Format("2006-01-02"),
		"lot_size":   c.LotSize,
		"atm":        atm,
		"max_pain":   maxPain,
		"strikes":    rows,
	}
}

func fmtLTP(ct *models.OptionContract) string {
	if ct == nil || ct.LastPrice <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", ct.LastPrice)
}

func fmtOI(ct *models.OptionContract) string {
	if ct == nil {
		return "-"
	}
	return utils.FormatVolume(ct.OpenInterest)
}

func fmtIV(ct *models.OptionContract) string {
	if ct == nil || ct.IV <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", ct.IV)
}

func fmtDelta(ct *models.OptionContract) string {
	if ct == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", ct.Greeks.Delta)
}
