package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName        string
	MigrationsDir string
	Port          string
	Slack         SlackConfig
	Turso         TursoConfig
	Settlement    SettlementConfig
	ProjectID     string
	DraftDebounce time.Duration
	CommitTimeout time.Duration
	DryRun        bool
}

type SlackConfig struct {
	Token     string
	ChannelID string
}

// TursoConfig is optional; with both fields empty the store runs on a local
// database file.
type TursoConfig struct {
	PrimaryURL string
	AuthToken  string
}

type SettlementConfig struct {
	URL       string
	AuthToken string
}
