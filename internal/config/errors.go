package config

import "errors"

var (
	ErrMissingDiscordToken  = errors.New("DISCORD_TOKEN environment variable is required")
	ErrUnknownStorageDriver = errors.New("STORAGE_DRIVER must be one of sqlite, firestore, memory")
	ErrMissingFirestoreIDs  = errors.New("FIRESTORE_PROJECT_ID and FIRESTORE_DATABASE_ID are required for the firestore driver")
	ErrMissingSQLitePath    = errors.New("SQLITE_PATH is required for the sqlite driver")
	ErrInvalidIdleTimeout   = errors.New("LEADERBOARD_IDLE_TIMEOUT must be a positive duration")
)
