package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

const leaderboardIDPrefix = "lb"

// leaderboardMessage remembers where a session is displayed so its buttons
// can be disabled on expiry. interaction is the most recent one that
// touched the message; its token stays valid for 15 minutes, well past the
// idle timeout.
type leaderboardMessage struct {
	client      Discord
	interaction *discordgo.Interaction
	channelID   string
	messageID   string
}

func leaderboardCustomID(sessionID string, action leaderboard.Action) string {
	return leaderboardIDPrefix + ":" + sessionID + ":" + string(action)
}

// parseCustomID splits "<prefix>:<id>:<action>". The action is not
// validated here.
func parseCustomID(customID, prefix string) (id, action string, ok bool) {
	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != prefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func leaderboardEmbed(v leaderboard.View) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       v.Page.Title,
		Description: leaderboardDescription(v.Page),
		Color:       embedColor,
	}

	footer := v.Page.Footer
	if v.Expired {
		if footer != "" {
			footer += " • "
		}
		footer += "Expired"
	}
	if footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}
	}
	return embed
}

// leaderboardDescription bolds the plain "N." rank markers; medals are
// left as they are.
func leaderboardDescription(page leaderboard.Page) string {
	if page.Empty {
		return page.Description
	}
	lines := make([]string, 0, len(page.Lines))
	for _, line := range page.Lines {
		if line.Rank <= 3 {
			lines = append(lines, line.Text)
			continue
		}
		lines = append(lines, "**"+line.Marker+"**"+strings.TrimPrefix(line.Text, line.Marker))
	}
	return strings.Join(lines, "\n")
}

func leaderboardComponents(v leaderboard.View) []discordgo.MessageComponent {
	modeButtons := make([]discordgo.MessageComponent, 0, len(leaderboard.Modes()))
	for _, mode := range leaderboard.Modes() {
		active := mode == v.Page.Mode
		style := discordgo.SecondaryButton
		if active {
			style = discordgo.PrimaryButton
		}
		modeButtons = append(modeButtons, discordgo.Button{
			Label:    mode.Label(),
			Style:    style,
			CustomID: leaderboardCustomID(v.SessionID, leaderboard.SwitchAction(mode)),
			Disabled: active || v.Expired,
		})
	}
	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: modeButtons},
	}

	if v.Page.Empty {
		return rows
	}

	navButton := func(label string, action leaderboard.Action, enabled bool) discordgo.MessageComponent {
		return discordgo.Button{
			Label:    label,
			Style:    discordgo.SecondaryButton,
			CustomID: leaderboardCustomID(v.SessionID, action),
			Disabled: !enabled || v.Expired,
		}
	}
	rows = append(rows, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			navButton("⏮", leaderboard.ActionFirst, v.Page.HasPrev()),
			navButton("◀", leaderboard.ActionPrev, v.Page.HasPrev()),
			navButton("▶", leaderboard.ActionNext, v.Page.HasNext()),
			navButton("⏭", leaderboard.ActionLast, v.Page.HasNext()),
		},
	})
	return rows
}

func (h *Handler) trackLeaderboard(sessionID string, msg *leaderboardMessage) {
	h.messagesMutex.Lock()
	defer h.messagesMutex.Unlock()
	h.messages[sessionID] = msg
}

func (h *Handler) untrackLeaderboard(sessionID string) *leaderboardMessage {
	h.messagesMutex.Lock()
	defer h.messagesMutex.Unlock()
	msg := h.messages[sessionID]
	delete(h.messages, sessionID)
	return msg
}

// showLeaderboard opens a session for the interaction's user and replies
// with its first page.
func (h *Handler) showLeaderboard(d Discord, i *discordgo.InteractionCreate, mode leaderboard.Mode) {
	ctx, cancel := requestContext()
	defer cancel()

	published := false
	_, err := h.leaderboards.Open(ctx, i.GuildID, interactionUserID(i.Interaction), mode, func(v leaderboard.View) error {
		err := d.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{leaderboardEmbed(v)},
				Components: leaderboardComponents(v),
			},
		})
		if err != nil {
			return err
		}
		published = true
		h.trackLeaderboard(v.SessionID, &leaderboardMessage{client: d, interaction: i.Interaction})
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("guild", i.GuildID).Msg("Failed to open leaderboard")
		if !published {
			respondEphemeral(d, i.Interaction, userMessage(err))
		}
	}
}

// showLeaderboardMessage is the text command variant; the first page is
// sent as a normal channel message.
func (h *Handler) showLeaderboardMessage(d Discord, m *discordgo.MessageCreate, mode leaderboard.Mode) {
	ctx, cancel := requestContext()
	defer cancel()

	_, err := h.leaderboards.Open(ctx, m.GuildID, m.Author.ID, mode, func(v leaderboard.View) error {
		sent, err := d.ChannelMessageSendComplex(m.ChannelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{leaderboardEmbed(v)},
			Components: leaderboardComponents(v),
		})
		if err != nil {
			return err
		}
		h.trackLeaderboard(v.SessionID, &leaderboardMessage{client: d, channelID: sent.ChannelID, messageID: sent.ID})
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Str("guild", m.GuildID).Msg("Failed to open leaderboard")
		h.sendMessage(d, m.ChannelID, userMessage(err))
	}
}

func (h *Handler) handleLeaderboardComponent(d Discord, i *discordgo.InteractionCreate, sessionID, rawAction string) {
	action, err := leaderboard.ParseAction(rawAction)
	if err != nil {
		respondEphemeral(d, i.Interaction, "That button isn't recognised.")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	userID := interactionUserID(i.Interaction)
	err = h.leaderboards.Dispatch(ctx, sessionID, userID, action, func(v leaderboard.View) error {
		err := d.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseUpdateMessage,
			Data: &discordgo.InteractionResponseData{
				Embeds:     []*discordgo.MessageEmbed{leaderboardEmbed(v)},
				Components: leaderboardComponents(v),
			},
		})
		if err != nil {
			return err
		}
		h.trackLeaderboard(v.SessionID, &leaderboardMessage{client: d, interaction: i.Interaction})
		return nil
	})
	if err != nil {
		log.Debug().Err(err).
			Str("session", sessionID).
			Str("user", userID).
			Str("action", rawAction).
			Msg("Leaderboard control rejected")
		respondEphemeral(d, i.Interaction, userMessage(err))
	}
}

// disableLeaderboard is the session expiry hook. It redraws the final page
// with every control disabled.
func (h *Handler) disableLeaderboard(v leaderboard.View) error {
	msg := h.untrackLeaderboard(v.SessionID)
	if msg == nil {
		return nil
	}

	embeds := []*discordgo.MessageEmbed{leaderboardEmbed(v)}
	components := leaderboardComponents(v)

	if msg.interaction != nil {
		_, err := msg.client.InteractionResponseEdit(msg.interaction, &discordgo.WebhookEdit{
			Embeds:     &embeds,
			Components: &components,
		})
		return err
	}
	_, err := msg.client.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msg.messageID,
		Channel:    msg.channelID,
		Embeds:     &embeds,
		Components: &components,
	})
	return err
}
