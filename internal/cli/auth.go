package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-trader/pkg/utils"
)

// addAuthCommands adds authentication commands.
func addAuthCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newLoginCmd(app))
	rootCmd.AddCommand(newLogoutCmd(app))
	rootCmd.AddCommand(newAuthStatusCmd(app))
}

func newLoginCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to Kite Connect",
		Long: `Login to Kite Connect.

Without a token this prints the login URL; open it in a browser, complete
the OAuth flow and re-run with --token=<request_token>.`,
		Example: `  trader login
  trader login --token=<request_token>`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Kite == nil {
				output.Error("Kite credentials not configured. Add api_key to credentials.toml")
				return fmt.Errorf("kite not configured")
			}

			if app.Kite.IsAuthenticated() {
				output.Success("Already logged in")
				return nil
			}

			token, _ := cmd.Flags().GetString("token")
			if token == "" {
				output.Info("Open the login URL and re-run with --token=<request_token>:")
				output.Println(app.Kite.LoginURL())
				return nil
			}

			if err := app.Kite.CompleteLogin(token); err != nil {
				output.Error("Login failed: %v", err)
				return err
			}
			output.Success("Login successful")
			return nil
		},
	}
	cmd.Flags().String("token", "", "request token from the OAuth redirect")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Logout and clear the saved session",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Kite == nil {
				output.Warning("Kite not configured, nothing to do")
				return nil
			}
			if err := app.Kite.Logout(); err != nil {
				output.Warning("Session cleanup: %v", err)
			}
			output.Success("Logged out")
			return nil
		},
	}
}

func newAuthStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			authenticated := app.Kite != nil && app.Kite.IsAuthenticated()
			market := utils.MarketStatus()
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"configured":    app.Kite != nil,
					"authenticated": authenticated,
					"mode":          app.Config.Trading.Mode,
					"market":        market,
				})
			}
			output.Info("Market: %s", market)
			if app.Kite == nil {
				output.Warning("Kite credentials not configured")
				return nil
			}
			if authenticated {
				output.Success("Authenticated (mode: %s)", app.Config.Trading.Mode)
			} else {
				output.Warning("Not authenticated. Run 'trader login'")
			}
			return nil
		},
	}
}
