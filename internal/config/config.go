package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	StorageSQLite    = "sqlite"
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

const defaultIdleTimeout = 300 * time.Second

type Config struct {
	DiscordToken string
	BotPrefix    string

	StorageDriver       string
	SQLitePath          string
	FirestoreProjectID  string
	FirestoreDatabaseID string

	LeaderboardIdleTimeout time.Duration
	LogLevel               zerolog.Level
	Port                   string
}

// Load reads the environment (and an optional .env file). The Discord token
// is only enforced by Validate so the HTTP server can share the same loader.
func Load() (*Config, error) {

	_ = godotenv.Load()

	config := &Config{
		DiscordToken:        getEnvVar("DISCORD_TOKEN", ""),
		BotPrefix:           getEnvVar("BOT_PREFIX", "!"),
		StorageDriver:       strings.ToLower(getEnvVar("STORAGE_DRIVER", StorageSQLite)),
		SQLitePath:          getEnvVar("SQLITE_PATH", "guildbot.db"),
		FirestoreProjectID:  getEnvVar("FIRESTORE_PROJECT_ID", ""),
		FirestoreDatabaseID: getEnvVar("FIRESTORE_DATABASE_ID", ""),
		Port:                getEnvVar("PORT", "8080"),
	}

	timeout, err := time.ParseDuration(getEnvVar("LEADERBOARD_IDLE_TIMEOUT", defaultIdleTimeout.String()))
	if err != nil || timeout <= 0 {
		return nil, ErrInvalidIdleTimeout
	}
	config.LeaderboardIdleTimeout = timeout

	level, err := zerolog.ParseLevel(strings.ToLower(getEnvVar("LOG_LEVEL", "info")))
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("value", os.Getenv("LOG_LEVEL")).Msg("Unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	config.LogLevel = level

	if err := config.validateStorage(); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnvVar(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Validate checks the settings the bot binary needs on top of Load.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return ErrMissingDiscordToken
	}

	if c.BotPrefix == "" {
		log.Warn().Msg("BOT_PREFIX is empty, using default '!'")
		c.BotPrefix = "!"
	}

	if c.LeaderboardIdleTimeout <= 0 {
		return ErrInvalidIdleTimeout
	}

	return c.validateStorage()
}

func (c *Config) validateStorage() error {
	switch c.StorageDriver {
	case StorageSQLite:
		if c.SQLitePath == "" {
			return ErrMissingSQLitePath
		}
	case StorageFirestore:
		if c.FirestoreProjectID == "" || c.FirestoreDatabaseID == "" {
			return ErrMissingFirestoreIDs
		}
	case StorageMemory:
	default:
		return ErrUnknownStorageDriver
	}
	return nil
}
