package config

import (
	"os"

	"github.com/Veraticus/haulbook/internal/export"
	"github.com/spf13/viper"
)

// LoadSheetsConfig builds the Google Sheets export configuration.
// Precedence: viper (config file or HAUL_EXPORT_* env), then the plain
// GOOGLE_SHEETS_* variables, then defaults.
func LoadSheetsConfig() (*export.SheetsConfig, error) {
	config := export.DefaultSheetsConfig()

	config.ServiceAccountPath = ExpandPath(firstSet(
		viper.GetString("export.service_account_path"),
		os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"),
	))
	config.ClientID = firstSet(viper.GetString("export.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstSet(viper.GetString("export.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstSet(viper.GetString("export.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstSet(viper.GetString("export.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.SpreadsheetName = firstSet(
		viper.GetString("export.spreadsheet_name"),
		os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"),
		config.SpreadsheetName,
	)
	config.SheetTitle = firstSet(viper.GetString("export.sheet_title"), config.SheetTitle)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
