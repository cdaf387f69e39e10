package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/config"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
)

// seed_roster imports balances and attendance from a roster CSV into the
// configured storage, registering the guild first.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	guildID := flag.String("guild", "", "Discord server id to seed")
	guildName := flag.String("name", "", "server name stored with the registration")
	flag.Parse()

	if *guildID == "" || flag.NArg() != 1 {
		log.Fatal().Msg("Usage: go run scripts/seed_roster/main.go -guild <id> [-name <name>] <roster.csv>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open roster")
	}
	defer f.Close()

	rows, rejected, err := data.ParseRoster(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse roster")
	}
	for _, r := range rejected {
		log.Warn().Int("line", r.Line).Str("reason", r.Reason).Msg("Skipping roster line")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, err := data.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.StorageDriver).Msg("Failed to open storage")
	}
	defer store.Close()

	guild := data.Guild{ID: *guildID, Name: *guildName, RegisteredAt: time.Now().UTC()}
	if err := data.ImportRoster(ctx, store, guild, rows); err != nil {
		log.Fatal().Err(err).Msg("Failed to import roster")
	}

	log.Info().
		Str("guild", *guildID).
		Str("storage", cfg.StorageDriver).
		Int("members", len(rows)).
		Int("rejected", len(rejected)).
		Msg("Roster imported")
}
