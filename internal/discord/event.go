package discord

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/event"
)

const eventIDPrefix = "ev"

const (
	eventActionMonth   = "month"
	eventActionContent = "content"
	eventActionDetails = "details"
	eventActionCancel  = "cancel"
	eventActionModal   = "modal"
)

// modal text input ids
const (
	eventInputDay  = "day"
	eventInputTime = "time"
	eventInputComp = "comp"
)

func eventCustomID(draftID, action string) string {
	return eventIDPrefix + ":" + draftID + ":" + action
}

func (h *Handler) handleEventSlash(d Discord, i *discordgo.InteractionCreate) {
	if !requireAdmin(d, i) {
		return
	}

	draft := h.events.Start(i.GuildID, i.ChannelID, interactionUserID(i.Interaction))
	err := d.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{draftEmbed(draft)},
			Components: draftComponents(draft),
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("guild", i.GuildID).Msg("Failed to start event draft")
		h.events.Cancel(draft.ID, draft.OwnerID)
	}
}

func (h *Handler) handleEventComponent(d Discord, i *discordgo.InteractionCreate, draftID, action string) {
	userID := interactionUserID(i.Interaction)
	values := i.MessageComponentData().Values

	var (
		draft event.Draft
		err   error
	)
	switch action {
	case eventActionMonth:
		var month int
		if len(values) == 1 {
			month, _ = strconv.Atoi(values[0])
		}
		draft, err = h.events.SetMonth(draftID, userID, time.Month(month))
	case eventActionContent:
		var contentType string
		if len(values) == 1 {
			contentType = values[0]
		}
		draft, err = h.events.SetContentType(draftID, userID, contentType)
	case eventActionDetails:
		draft, err = h.events.Get(draftID, userID)
		if err == nil && draft.Step != event.StepDetails {
			err = event.ErrWrongStep
		}
		if err == nil {
			h.respondDetailsModal(d, i, draft)
			return
		}
	case eventActionCancel:
		if err = h.events.Cancel(draftID, userID); err == nil {
			updateMessage(d, i, &discordgo.InteractionResponseData{
				Content:    "Event draft cancelled.",
				Embeds:     []*discordgo.MessageEmbed{},
				Components: []discordgo.MessageComponent{},
			})
			return
		}
	default:
		respondEphemeral(d, i.Interaction, "That button isn't recognised.")
		return
	}

	if err != nil {
		log.Debug().Err(err).
			Str("draft", draftID).
			Str("user", userID).
			Str("action", action).
			Msg("Event draft input rejected")
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}
	updateMessage(d, i, &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{draftEmbed(draft)},
		Components: draftComponents(draft),
	})
}

func (h *Handler) respondDetailsModal(d Discord, i *discordgo.InteractionCreate, draft event.Draft) {
	input := func(id, label, placeholder string, maxLength int) discordgo.MessageComponent {
		return discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:    id,
				Label:       label,
				Style:       discordgo.TextInputShort,
				Placeholder: placeholder,
				Required:    true,
				MaxLength:   maxLength,
			},
		}}
	}
	err := d.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: eventCustomID(draft.ID, eventActionModal),
			Title:    fmt.Sprintf("%s in %s", draft.ContentType, draft.Month),
			Components: []discordgo.MessageComponent{
				input(eventInputDay, "Day of the month", "14", 2),
				input(eventInputTime, "Start time (UTC)", "19:30", 5),
				input(eventInputComp, "Composition", "1 tank, 1 healer, 3 dps", 200),
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Str("draft", draft.ID).Msg("Failed to open event details modal")
	}
}

func (h *Handler) handleModal(d Discord, i *discordgo.InteractionCreate) {
	submit := i.ModalSubmitData()
	draftID, action, ok := parseCustomID(submit.CustomID, eventIDPrefix)
	if !ok || action != eventActionModal {
		respondEphemeral(d, i.Interaction, "That form isn't recognised.")
		return
	}

	inputs := textInputs(submit.Components)
	details := event.Details{
		Day:  inputs[eventInputDay],
		Time: inputs[eventInputTime],
		Comp: inputs[eventInputComp],
	}

	userID := interactionUserID(i.Interaction)
	ev, err := h.events.Complete(draftID, userID, details)
	if err != nil {
		log.Debug().Err(err).Str("draft", draftID).Str("user", userID).Msg("Event details rejected")
		respondEphemeral(d, i.Interaction, userMessage(err))
		return
	}

	if _, err := d.ChannelMessageSendComplex(ev.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{announcementEmbed(ev)},
	}); err != nil {
		log.Error().Err(err).Str("channel", ev.ChannelID).Msg("Failed to post event announcement")
		respondEphemeral(d, i.Interaction, "Couldn't post the announcement in this channel.")
		return
	}

	log.Info().
		Str("guild", ev.GuildID).
		Str("organizer", ev.OrganizerID).
		Str("content", ev.ContentType).
		Time("start", ev.Start).
		Msg("Event created")
	updateMessage(d, i, &discordgo.InteractionResponseData{
		Content:    "Event posted.",
		Embeds:     []*discordgo.MessageEmbed{},
		Components: []discordgo.MessageComponent{},
	})
}

// textInputs collects modal values by input id. Decoded submits carry
// pointer components, locally built ones carry values.
func textInputs(components []discordgo.MessageComponent) map[string]string {
	values := make(map[string]string)
	var walk func([]discordgo.MessageComponent)
	walk = func(components []discordgo.MessageComponent) {
		for _, c := range components {
			switch c := c.(type) {
			case *discordgo.ActionsRow:
				walk(c.Components)
			case discordgo.ActionsRow:
				walk(c.Components)
			case *discordgo.TextInput:
				values[c.CustomID] = c.Value
			case discordgo.TextInput:
				values[c.CustomID] = c.Value
			}
		}
	}
	walk(components)
	return values
}

func updateMessage(d Discord, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := d.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: data,
	})
	if err != nil {
		log.Error().Err(err).Msg("Error responding to interaction")
	}
}

func draftEmbed(draft event.Draft) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "New Event",
		Color: embedColor,
	}
	switch draft.Step {
	case event.StepMonth:
		embed.Description = "Pick the month the event takes place in."
	case event.StepContentType:
		embed.Description = "Pick the type of content."
	case event.StepDetails:
		embed.Description = "Enter the day, start time and composition."
	}
	if draft.Month != 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Month", Value: draft.Month.String(), Inline: true})
	}
	if draft.ContentType != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Content", Value: draft.ContentType, Inline: true})
	}
	return embed
}

func draftComponents(draft event.Draft) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	switch draft.Step {
	case event.StepMonth:
		options := make([]discordgo.SelectMenuOption, 0, 12)
		for m := time.January; m <= time.December; m++ {
			options = append(options, discordgo.SelectMenuOption{Label: m.String(), Value: strconv.Itoa(int(m))})
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    eventCustomID(draft.ID, eventActionMonth),
				Placeholder: "Month",
				Options:     options,
			},
		}})
	case event.StepContentType:
		types := event.ContentTypes()
		options := make([]discordgo.SelectMenuOption, 0, len(types))
		for _, t := range types {
			options = append(options, discordgo.SelectMenuOption{Label: t, Value: t})
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    eventCustomID(draft.ID, eventActionContent),
				Placeholder: "Content type",
				Options:     options,
			},
		}})
	}

	controls := []discordgo.MessageComponent{}
	if draft.Step == event.StepDetails {
		controls = append(controls, discordgo.Button{
			Label:    "Enter details",
			Style:    discordgo.PrimaryButton,
			CustomID: eventCustomID(draft.ID, eventActionDetails),
		})
	}
	controls = append(controls, discordgo.Button{
		Label:    "Cancel",
		Style:    discordgo.DangerButton,
		CustomID: eventCustomID(draft.ID, eventActionCancel),
	})
	return append(rows, discordgo.ActionsRow{Components: controls})
}

func announcementEmbed(ev event.Event) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: ev.ContentType,
		Color: successColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Starts", Value: fmt.Sprintf("<t:%d:F> (<t:%d:R>)", ev.Start.Unix(), ev.Start.Unix())},
			{Name: "Composition", Value: ev.Comp},
			{Name: "Organizer", Value: "<@" + ev.OrganizerID + ">", Inline: true},
		},
		Timestamp: ev.Start.UTC().Format(time.RFC3339),
	}
}
