package backend

import (
	"errors"
	"fmt"

	"fintrack/internal/config"
)

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Google Sheets
	Spreadsheet     string
	Worksheet       string
	CredentialsJSON string
	CredentialsFile string

	// SQLite
	SQLiteDBPath string

	// Postgres
	DatabaseURL string

	// Memory; a CSV export used as the initial ledger
	SeedFile string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:            backendType,
		Spreadsheet:     appConfig.GoogleSpreadsheet,
		Worksheet:       appConfig.GoogleWorksheet,
		CredentialsJSON: appConfig.GoogleServiceAccountJSON,
		CredentialsFile: appConfig.GoogleServiceAccountFile,
		SQLiteDBPath:    appConfig.SQLiteDBPath,
		DatabaseURL:     appConfig.DatabaseURL,
		SeedFile:        appConfig.SeedFile,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SheetsBackend:
		if c.Spreadsheet == "" {
			return errors.New("spreadsheet URL or ID is required for sheets backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required for postgres backend")
		}
	}

	return nil
}
