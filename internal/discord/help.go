package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

func (h *Handler) handleHelpCommand(s *discordgo.Session, m *discordgo.MessageCreate) {
	isAdmin := false
	if m.GuildID != "" && s.State != nil {
		perms, err := s.State.UserChannelPermissions(m.Author.ID, m.ChannelID)
		isAdmin = err == nil && perms&(permissionManageGuild|discordgo.PermissionAdministrator) != 0
	}

	pg := h.createHelpPaginator(isAdmin)
	if err := PaginatorManager.CreateMessage(s, m.ChannelID, pg); err != nil {
		log.Error().Err(err).Msg("Error creating help paginator")
		h.sendMessage(s, m.ChannelID, "Error displaying help. Please try again.")
	}
}

func (h *Handler) handleHelpSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	pg := h.createHelpPaginator(isAdmin(i.Interaction))
	if err := PaginatorManager.CreateInteraction(s, i.Interaction, pg, false); err != nil {
		log.Error().Err(err).Msg("Error creating help paginator")
		respondEphemeral(s, i.Interaction, "Error displaying help. Please try again.")
	}
}
