package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	paginator "github.com/topi314/dgo-paginator"
)

const helpPages = 3

// PaginatorManager drives the multi-page /help embed. Leaderboards have
// their own session handling and do not go through it.
var PaginatorManager *paginator.Manager

func init() {
	PaginatorManager = paginator.NewManager(
		paginator.WithButtonsConfig(paginator.ButtonsConfig{
			First: &paginator.ComponentOptions{
				Emoji: &discordgo.ComponentEmoji{Name: "⏮"},
				Style: discordgo.SecondaryButton,
			},
			Back: &paginator.ComponentOptions{
				Emoji: &discordgo.ComponentEmoji{Name: "◀"},
				Style: discordgo.SecondaryButton,
			},
			Stop: nil,
			Next: &paginator.ComponentOptions{
				Emoji: &discordgo.ComponentEmoji{Name: "▶"},
				Style: discordgo.SecondaryButton,
			},
			Last: &paginator.ComponentOptions{
				Emoji: &discordgo.ComponentEmoji{Name: "⏭"},
				Style: discordgo.SecondaryButton,
			},
		}),
		paginator.WithNotYourPaginatorMessage("This help menu belongs to someone else. Run `/help` to open your own."),
	)
}

// helpPage fills embed with page n of the help text.
func helpPage(prefix string, isAdmin bool, page int, embed *discordgo.MessageEmbed) {
	embed.Color = embedColor

	switch page {
	case 0:
		embed.Title = "Guild Economy Commands"
		embed.Description = fmt.Sprintf(`**Slash Commands:**
• **/leaderboard** - Silver and attendance rankings
• **/balance [user]** - Show a member's silver and attendance
• **/help** - Show this help message

**Text Commands (prefix: %s):**
• **%sleaderboard** - Silver and attendance rankings
• **%sbalance** - Show your silver and attendance
• **%shelp** - Show this help message`, prefix, prefix, prefix, prefix)

	case 1:
		embed.Title = "Using the Leaderboard"
		embed.Description = `**Modes:**
• **Silver** - Members ranked by silver balance
• **Attendance** - Members ranked by attendance points

**Navigation:**
• ⏮ ◀ ▶ ⏭ move between pages of 15 members
• Only the member who opened a leaderboard can use its buttons
• Buttons stop working after 5 minutes without use`

	case 2:
		embed.Title = "Officer Commands"
		if !isAdmin {
			embed.Description = "These commands need the **Manage Server** permission.\n\n"
		}
		embed.Description += `• **/register** - Register this server with the guild economy
• **/addbalance user amount** - Add or remove silver
• **/attendance [points]** - Give points to everyone in your voice channel
• **/lootsplit amount [repair] [tax]** - Split loot between your voice channel
• **/event** - Schedule an event and announce it in the channel

**Loot Split:**
Repair costs come off the top, then the guild tax. The rest is shared evenly and any silver that cannot be divided stays with the guild.`
	}

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf("Page %d/%d • Use the buttons below to navigate", page+1, helpPages),
	}
}

func (h *Handler) createHelpPaginator(isAdmin bool) *paginator.Paginator {
	return &paginator.Paginator{
		PageFunc: func(page int, embed *discordgo.MessageEmbed) {
			helpPage(h.prefix, isAdmin, page, embed)
		},
		MaxPages:        helpPages,
		ExpiryLastUsage: true,
		Expiry:          time.Now().Add(10 * time.Minute),
	}
}
