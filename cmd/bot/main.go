package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/config"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/discord"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	log.Info().
		Str("prefix", cfg.BotPrefix).
		Str("storage", cfg.StorageDriver).
		Dur("idle_timeout", cfg.LeaderboardIdleTimeout).
		Msg("Starting guild bot")

	store, err := data.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.StorageDriver).Msg("Failed to open storage")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing storage")
		}
	}()

	handler := discord.NewHandler(store, cfg.BotPrefix, leaderboard.WithIdleTimeout(cfg.LeaderboardIdleTimeout))

	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Discord session")
	}
	handler.SetSession(dg)

	dg.AddHandler(handler.HandleMessage)

	dg.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionMessageComponent:
			if handler.HandleComponent(s, i) {
				return
			}
			// everything else belongs to the help paginator
			discord.PaginatorManager.OnInteractionCreate(s, i)
		case discordgo.InteractionApplicationCommand:
			handler.HandleSlashCommand(s, i)
		case discordgo.InteractionModalSubmit:
			handler.HandleModal(s, i)
		}
	})

	dg.AddHandler(func(s *discordgo.Session, event *discordgo.Ready) {
		log.Info().Str("user", s.State.User.Username).Int("guilds", len(event.Guilds)).Msg("Logged in")
		registerCommands(s)
	})

	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	if err := dg.Open(); err != nil {
		log.Fatal().Err(err).Msg("Failed to open Discord connection")
	}

	log.Info().Msg("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	log.Info().Msg("Shutting down bot...")
	// disable open leaderboards while the session can still edit them
	handler.Close()
	if err := dg.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Discord session")
	}
}

// registerCommands removes global commands that no longer exist and
// creates the current set.
func registerCommands(s *discordgo.Session) {
	commands := discord.GetSlashCommands()

	registered, err := s.ApplicationCommands(s.State.User.ID, "")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to get registered commands")
	} else {
		for _, existing := range registered {
			shouldExist := false
			for _, current := range commands {
				if existing.Name == current.Name {
					shouldExist = true
					break
				}
			}
			if shouldExist {
				continue
			}
			log.Info().Str("command", existing.Name).Msg("Removing old command")
			if err := s.ApplicationCommandDelete(s.State.User.ID, "", existing.ID); err != nil {
				log.Error().Err(err).Str("command", existing.Name).Msg("Failed to delete command")
			}
		}
	}

	for _, cmd := range commands {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", cmd); err != nil {
			log.Error().Err(err).Str("command", cmd.Name).Msg("Cannot create command")
			continue
		}
		log.Debug().Str("command", cmd.Name).Msg("Registered command")
	}
	log.Info().Int("commands", len(commands)).Msg("Finished registering slash commands")
}
