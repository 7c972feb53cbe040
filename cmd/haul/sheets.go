package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/config"
	"github.com/Veraticus/haulbook/internal/export"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Set up Google Sheets export",
	}

	cmd.AddCommand(sheetsAuthCmd())
	cmd.AddCommand(sheetsStatusCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	var clientID, clientSecret, listen string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize haul to write to your Google Sheets",
		Long: `Runs the OAuth2 consent flow in your browser and stores the refresh
token in the config file, so 'haul export sheets' can run unattended.

Credentials come from --client-id/--client-secret, export.client_id and
export.client_secret, or GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID = firstNonEmpty(clientID, viper.GetString("export.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
			clientSecret = firstNonEmpty(clientSecret, viper.GetString("export.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
			if clientID == "" || clientSecret == "" {
				return fmt.Errorf("OAuth2 credentials not found: set export.client_id and export.client_secret or pass --client-id and --client-secret")
			}

			tokenFile, err := tokenPath()
			if err != nil {
				return err
			}
			slog.Info("Starting Google Sheets authentication", "token_file", tokenFile)

			token, err := export.Authenticate(cmd.Context(), export.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
				ListenAddr:   listen,
			}, func(url string) {
				fmt.Println(cli.FormatInfo("Opening your browser to authorize access. If it does not open, visit:"))
				fmt.Println(url)
				openBrowser(url)
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}

			viper.Set("export.client_id", clientID)
			viper.Set("export.client_secret", clientSecret)
			viper.Set("export.refresh_token", token.RefreshToken)
			if err := saveConfig(); err != nil {
				slog.Warn("Failed to update config file with refresh token", "error", err)
				fmt.Println(cli.FormatWarning("Could not save the refresh token. Add this to your config.yaml:"))
				fmt.Printf("export:\n  refresh_token: %q\n", token.RefreshToken)
				return nil
			}

			fmt.Println(cli.FormatSuccess("Google Sheets is configured. Run 'haul export sheets' to export."))
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "OAuth2 client id")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "OAuth2 client secret")
	cmd.Flags().StringVar(&listen, "listen", ":8080", "local address for the OAuth callback")
	return cmd
}

func sheetsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how Google Sheets export is configured",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.LoadSheetsConfig()
			if err != nil {
				fmt.Println(cli.FormatWarning("Not configured: " + err.Error()))
				return nil
			}

			method := "service account " + cfg.ServiceAccountPath
			if cfg.HasOAuth() {
				method = "OAuth2 refresh token"
			}
			fmt.Println(cli.FormatTitle("Google Sheets"))
			fmt.Printf("  Authentication: %s\n", method)
			if cfg.SpreadsheetID != "" {
				fmt.Printf("  Spreadsheet: %s\n", cfg.SpreadsheetID)
			} else {
				fmt.Printf("  Spreadsheet: new %q on next export\n", cfg.SpreadsheetName)
			}

			tokenFile, err := tokenPath()
			if err != nil {
				return err
			}
			token, err := export.LoadToken(tokenFile)
			switch {
			case errors.Is(err, os.ErrNotExist):
				fmt.Println("  Saved token: none")
			case err != nil:
				fmt.Println("  Saved token: unreadable (" + err.Error() + ")")
			default:
				fmt.Printf("  Saved token: %s (access token expires %s)\n", tokenFile, token.Expiry.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func tokenPath() (string, error) {
	return config.File("sheets-token.json")
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		var err error
		if configFile, err = config.File("config.yaml"); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}
	return viper.WriteConfigAs(configFile)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// openBrowser tries to open url in the default browser.
func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start() //nolint:gosec,forbidigo
	case "darwin":
		err = exec.Command("open", url).Start() //nolint:gosec,forbidigo
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start() //nolint:gosec,forbidigo
	}
	if err != nil {
		slog.Debug("Failed to open browser", "error", err)
	}
}
