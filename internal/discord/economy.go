package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/economy"
)

var printer = message.NewPrinter(language.English)

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func intOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string, fallback int64) int64 {
	if opt, ok := opts[name]; ok {
		return opt.IntValue()
	}
	return fallback
}

// requireAdmin replies with a denial and returns false for members without
// Manage Server.
func requireAdmin(d Discord, i *discordgo.InteractionCreate) bool {
	if isAdmin(i.Interaction) {
		return true
	}
	respondEphemeral(d, i.Interaction, "You need the **Manage Server** permission to use this command.")
	return false
}

func (h *Handler) handleRegisterSlash(d Discord, i *discordgo.InteractionCreate) {
	if !requireAdmin(d, i) {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	guild := data.Guild{
		ID:           i.GuildID,
		Name:         h.guildState().GuildName(i.GuildID),
		RegisteredAt: time.Now().UTC(),
	}
	if err := h.store.RegisterGuild(ctx, guild); err != nil {
		log.Error().Err(err).Str("guild", i.GuildID).Msg("Failed to register guild")
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}

	log.Info().Str("guild", i.GuildID).Str("name", guild.Name).Msg("Guild registered")
	respondEmbed(d, i.Interaction, &discordgo.MessageEmbed{
		Title:       "Server Registered",
		Description: "This server is registered with the guild economy. Use `/lootsplit` and `/attendance` to start tracking members.",
		Color:       successColor,
	}, false)
}

func (h *Handler) handleBalanceSlash(d Discord, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i.Interaction)
	if opt, ok := optionMap(i)["user"]; ok {
		userID = opt.UserValue(nil).ID
	}

	ctx, cancel := requestContext()
	defer cancel()

	embed, err := h.balanceEmbed(ctx, i.GuildID, userID)
	if err != nil {
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}
	respondEmbed(d, i.Interaction, embed, false)
}

func (h *Handler) handleBalanceMessage(d Discord, m *discordgo.MessageCreate) {
	userID := m.Author.ID
	if len(m.Mentions) > 0 {
		userID = m.Mentions[0].ID
	}

	ctx, cancel := requestContext()
	defer cancel()

	embed, err := h.balanceEmbed(ctx, m.GuildID, userID)
	if err != nil {
		h.sendMessage(d, m.ChannelID, userMessage(err))
		return
	}
	if _, err := d.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{Embeds: []*discordgo.MessageEmbed{embed}}); err != nil {
		log.Error().Err(err).Str("channel", m.ChannelID).Msg("Error sending message")
	}
}

func (h *Handler) balanceEmbed(ctx context.Context, guildID, userID string) (*discordgo.MessageEmbed, error) {
	member, err := h.store.GetMember(ctx, guildID, userID)
	if err != nil {
		return nil, err
	}
	return &discordgo.MessageEmbed{
		Title:       "Balance",
		Description: fmt.Sprintf("<@%s>", userID),
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Silver", Value: printer.Sprintf("%d", member.Balance), Inline: true},
			{Name: "Attendance", Value: printer.Sprintf("%d pts", member.Attendance), Inline: true},
		},
	}, nil
}

func (h *Handler) handleAddBalanceSlash(d Discord, i *discordgo.InteractionCreate) {
	if !requireAdmin(d, i) {
		return
	}

	opts := optionMap(i)
	userOpt, ok := opts["user"]
	if !ok {
		respondEphemeral(d, i.Interaction, "Please choose a member.")
		return
	}
	userID := userOpt.UserValue(nil).ID
	amount := intOption(opts, "amount", 0)
	if amount == 0 {
		respondEphemeral(d, i.Interaction, "Amount cannot be zero.")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	balance, err := h.store.AddBalance(ctx, i.GuildID, userID, amount)
	if err != nil {
		log.Warn().Err(err).Str("guild", i.GuildID).Str("user", userID).Int64("amount", amount).Msg("Balance change rejected")
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}

	verb := "Added"
	shown := amount
	if amount < 0 {
		verb, shown = "Removed", -amount
	}
	respondEmbed(d, i.Interaction, &discordgo.MessageEmbed{
		Title:       "Balance Updated",
		Description: printer.Sprintf("%s %d silver for <@%s>.\nNew balance: **%d** silver", verb, shown, userID, balance),
		Color:       successColor,
	}, false)
}

func (h *Handler) handleAttendanceSlash(d Discord, i *discordgo.InteractionCreate) {
	if !requireAdmin(d, i) {
		return
	}

	points := intOption(optionMap(i), "points", 1)
	channelID, members := voiceChannelMembers(h.guildState().VoiceStates(i.GuildID), interactionUserID(i.Interaction))
	if channelID == "" {
		respondEphemeral(d, i.Interaction, "Join a voice channel with the members you want to credit first.")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := h.store.AddAttendance(ctx, i.GuildID, members, points); err != nil {
		log.Warn().Err(err).Str("guild", i.GuildID).Msg("Attendance update failed")
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}

	respondEmbed(d, i.Interaction, &discordgo.MessageEmbed{
		Title:       "Attendance Recorded",
		Description: printer.Sprintf("Gave **%d** pts to %d members in <#%s>.\n%s", points, len(members), channelID, mentionList(members)),
		Color:       successColor,
	}, false)
}

func (h *Handler) handleLootSplitSlash(d Discord, i *discordgo.InteractionCreate) {
	if !requireAdmin(d, i) {
		return
	}

	opts := optionMap(i)
	channelID, members := voiceChannelMembers(h.guildState().VoiceStates(i.GuildID), interactionUserID(i.Interaction))
	if channelID == "" {
		respondEphemeral(d, i.Interaction, "Join a voice channel with the members you want to pay first.")
		return
	}

	split, err := economy.Calculate(intOption(opts, "amount", 0), intOption(opts, "repair", 0), intOption(opts, "tax", 0), len(members))
	if err != nil {
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	registered, err := h.store.IsGuildRegistered(ctx, i.GuildID)
	if err != nil {
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}
	if !registered {
		respondEphemeral(d, i.Interaction, userMessage(data.ErrGuildNotRegistered))
		return
	}

	// each credit is its own write; members already paid stay paid if a
	// later write fails
	var failed []string
	if split.Share > 0 {
		for _, userID := range members {
			if _, err := h.store.AddBalance(ctx, i.GuildID, userID, split.Share); err != nil {
				log.Error().Err(err).Str("guild", i.GuildID).Str("user", userID).Msg("Loot split credit failed")
				failed = append(failed, userID)
			}
		}
	}

	embed := &discordgo.MessageEmbed{
		Title: "Loot Split",
		Color: successColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Loot", Value: printer.Sprintf("%d", split.Amount), Inline: true},
			{Name: "Repair", Value: printer.Sprintf("%d", split.Repair), Inline: true},
			{Name: "Tax", Value: printer.Sprintf("%d%%", split.TaxPercent), Inline: true},
			{Name: "Guild Cut", Value: printer.Sprintf("%d", split.GuildCut), Inline: true},
			{Name: "Per Member", Value: printer.Sprintf("%d", split.Share), Inline: true},
			{Name: "Members", Value: printer.Sprintf("%d", split.Participants), Inline: true},
		},
		Description: mentionList(members),
	}
	if len(failed) > 0 {
		embed.Color = embedColor
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Not Credited",
			Value: mentionList(failed) + "\nThe database was unavailable for these members. Use `/addbalance` to pay them.",
		})
	}
	respondEmbed(d, i.Interaction, embed, false)
}

func mentionList(userIDs []string) string {
	var list string
	for n, id := range userIDs {
		if n > 0 {
			list += " "
		}
		list += "<@" + id + ">"
	}
	return list
}
