package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/economy"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/event"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

const (
	embedColor   = 0x5865F2 // discord blurple
	successColor = 0x57F287

	// interactions must be answered within three seconds
	requestTimeout = 2500 * time.Millisecond
)

// Discord is the part of *discordgo.Session the handlers call.
type Discord interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// GuildState answers questions about guilds from the gateway cache.
type GuildState interface {
	VoiceStates(guildID string) []*discordgo.VoiceState
	GuildName(guildID string) string
}

type sessionState struct {
	state *discordgo.State
}

func (s sessionState) VoiceStates(guildID string) []*discordgo.VoiceState {
	if s.state == nil {
		return nil
	}
	guild, err := s.state.Guild(guildID)
	if err != nil {
		return nil
	}
	return guild.VoiceStates
}

func (s sessionState) GuildName(guildID string) string {
	if s.state == nil {
		return ""
	}
	guild, err := s.state.Guild(guildID)
	if err != nil {
		return ""
	}
	return guild.Name
}

type Handler struct {
	store        data.Storage
	leaderboards *leaderboard.Manager
	events       *event.Registry
	prefix       string

	sessionMutex sync.RWMutex
	guilds       GuildState

	// leaderboard messages by session id, evicted when the session expires
	messagesMutex sync.Mutex
	messages      map[string]*leaderboardMessage
}

func NewHandler(store data.Storage, prefix string, opts ...leaderboard.Option) *Handler {
	h := &Handler{
		store:    store,
		events:   event.NewRegistry(),
		prefix:   prefix,
		guilds:   sessionState{},
		messages: make(map[string]*leaderboardMessage),
	}
	opts = append(opts, leaderboard.WithExpiryHook(h.disableLeaderboard))
	h.leaderboards = leaderboard.NewManager(leaderboard.NewStoreFetcher(store), opts...)
	return h
}

func (h *Handler) SetSession(session *discordgo.Session) {
	h.sessionMutex.Lock()
	defer h.sessionMutex.Unlock()
	if session != nil {
		h.guilds = sessionState{state: session.State}
	}
}

func (h *Handler) guildState() GuildState {
	h.sessionMutex.RLock()
	defer h.sessionMutex.RUnlock()
	return h.guilds
}

// Close expires every open leaderboard so their buttons are disabled
// before the bot disconnects. Unfinished event drafts are dropped.
func (h *Handler) Close() {
	h.leaderboards.Close()
	h.events.Close()
}

// HandleSlashCommand routes slash commands to appropriate handlers
func (h *Handler) HandleSlashCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.ApplicationCommandData().Name == "help" {
		h.handleHelpSlash(s, i)
		return
	}
	h.handleSlash(s, i)
}

func (h *Handler) handleSlash(d Discord, i *discordgo.InteractionCreate) {
	commandName := i.ApplicationCommandData().Name

	if i.GuildID == "" {
		respondEphemeral(d, i.Interaction, "This command only works inside a server.")
		return
	}

	log.Debug().
		Str("command", commandName).
		Str("guild", i.GuildID).
		Str("user", interactionUserID(i.Interaction)).
		Msg("Slash command received")

	switch commandName {
	case "leaderboard":
		h.showLeaderboard(d, i, leaderboard.Balance)
	case "register":
		h.handleRegisterSlash(d, i)
	case "balance":
		h.handleBalanceSlash(d, i)
	case "addbalance":
		h.handleAddBalanceSlash(d, i)
	case "attendance":
		h.handleAttendanceSlash(d, i)
	case "lootsplit":
		h.handleLootSplitSlash(d, i)
	case "event":
		h.handleEventSlash(d, i)
	default:
		respondEphemeral(d, i.Interaction, fmt.Sprintf("Unknown command: %s", commandName))
	}
}

// HandleComponent handles button clicks on leaderboard messages and the
// event wizard. It returns false for components it does not own so the
// caller can pass them on to the help paginator.
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	return h.handleComponent(s, i)
}

func (h *Handler) handleComponent(d Discord, i *discordgo.InteractionCreate) bool {
	customID := i.MessageComponentData().CustomID
	if sessionID, action, ok := parseCustomID(customID, leaderboardIDPrefix); ok {
		h.handleLeaderboardComponent(d, i, sessionID, action)
		return true
	}
	if draftID, action, ok := parseCustomID(customID, eventIDPrefix); ok {
		h.handleEventComponent(d, i, draftID, action)
		return true
	}
	return false
}

// HandleModal handles event wizard modal submits.
func (h *Handler) HandleModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	h.handleModal(s, i)
}

func (h *Handler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Update the handler's session reference
	h.SetSession(s)

	command, ok := h.parseMessageCommand(s, m)
	if !ok {
		return
	}
	if command == "help" {
		h.handleHelpCommand(s, m)
		return
	}
	h.handleMessageCommand(s, m, command)
}

// parseMessageCommand extracts a valid text command, replying with a
// suggestion when the name is close to one.
func (h *Handler) parseMessageCommand(d Discord, m *discordgo.MessageCreate) (string, bool) {
	if m.Author == nil || m.Author.Bot {
		return "", false
	}
	if !strings.HasPrefix(m.Content, h.prefix) {
		return "", false
	}
	content := strings.TrimSpace(strings.TrimPrefix(m.Content, h.prefix))
	if content == "" {
		return "", false
	}

	parts := strings.Fields(content)
	command := strings.ToLower(parts[0])

	correctCommand, isValid, suggestion := findCommandWithSuggestion(command)
	if isValid {
		return correctCommand, true
	}
	if suggestion != "" {
		h.sendMessage(d, m.ChannelID,
			fmt.Sprintf("Unknown command '%s%s'. Did you mean `%s%s`?", h.prefix, command, h.prefix, suggestion))
	} else {
		h.sendMessage(d, m.ChannelID,
			fmt.Sprintf("Unknown command '%s'. Use `%shelp` for available commands.", command, h.prefix))
	}
	return "", false
}

func (h *Handler) handleMessageCommand(d Discord, m *discordgo.MessageCreate, command string) {
	if m.GuildID == "" {
		h.sendMessage(d, m.ChannelID, "This command only works inside a server.")
		return
	}

	switch command {
	case "leaderboard":
		h.showLeaderboardMessage(d, m, leaderboard.Balance)
	case "balance":
		h.handleBalanceMessage(d, m)
	default:
		h.sendMessage(d, m.ChannelID, fmt.Sprintf("Unknown command '%s'. Use `%shelp` for available commands.", command, h.prefix))
	}
}

func (h *Handler) sendMessage(d Discord, channelID, message string) {
	if _, err := d.ChannelMessageSend(channelID, message); err != nil {
		log.Error().Err(err).Str("channel", channelID).Msg("Error sending message")
	}
}

func respondEphemeral(d Discord, interaction *discordgo.Interaction, content string) {
	err := d.InteractionRespond(interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Error responding to interaction")
	}
}

func respondEmbed(d Discord, interaction *discordgo.Interaction, embed *discordgo.MessageEmbed, ephemeral bool) {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	}
	if ephemeral {
		response.Data.Flags = discordgo.MessageFlagsEphemeral
	}
	if err := d.InteractionRespond(interaction, response); err != nil {
		log.Error().Err(err).Msg("Error responding to interaction")
	}
}

func interactionUserID(i *discordgo.Interaction) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func isAdmin(i *discordgo.Interaction) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&(permissionManageGuild|discordgo.PermissionAdministrator) != 0
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// userMessage turns an error into the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, leaderboard.ErrGuildNotRegistered), errors.Is(err, data.ErrGuildNotRegistered):
		return "This server is not registered yet. An admin can run `/register` to get started."
	case errors.Is(err, leaderboard.ErrDataUnavailable), errors.Is(err, data.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return "The guild database is unavailable right now. Please try again in a moment."
	case errors.Is(err, leaderboard.ErrNotOwner):
		return "This leaderboard isn't yours to control. Run `/leaderboard` to open your own."
	case errors.Is(err, leaderboard.ErrSessionExpired):
		return "This leaderboard is no longer active. Run `/leaderboard` again."
	case errors.Is(err, data.ErrInsufficientBalance):
		return "That would take the balance below zero."
	case errors.Is(err, economy.ErrInvalidSplit):
		return "Can't split that: " + strings.TrimPrefix(err.Error(), economy.ErrInvalidSplit.Error()+": ")
	case errors.Is(err, event.ErrDraftExpired):
		return "This event draft is no longer active. Run `/event` again."
	case errors.Is(err, event.ErrNotOwner):
		return "This event draft isn't yours. Run `/event` to start your own."
	case errors.Is(err, event.ErrWrongStep):
		return "That step of the event draft is already done."
	case errors.Is(err, event.ErrInvalidDetails):
		return "Can't create that event: " + strings.TrimPrefix(err.Error(), event.ErrInvalidDetails.Error()+": ")
	}
	return "Something went wrong. Please try again."
}
