package discord

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// same bit as discordgo.PermissionManageServer
const permissionManageGuild int64 = 1 << 5

var adminPermissions = permissionManageGuild

var (
	minAmount  = 1.0
	minRepair  = 0.0
	minTax     = 0.0
	minPoints  = 1.0
	maxTax     = 100.0
	maxPoints  = 100.0
	minBalance = -1e12
)

func GetSlashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "leaderboard",
			Description: "Show the guild silver and attendance leaderboard",
		},
		{
			Name:        "help",
			Description: "Show available commands and usage",
		},
		{
			Name:                     "register",
			Description:              "Register this server with the guild economy",
			DefaultMemberPermissions: &adminPermissions,
		},
		{
			Name:        "balance",
			Description: "Show a member's silver balance and attendance",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member to look up (defaults to you)",
					Required:    false,
				},
			},
		},
		{
			Name:                     "addbalance",
			Description:              "Add or remove silver from a member's balance",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "Member whose balance changes",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Silver to add (negative to remove)",
					Required:    true,
					MinValue:    &minBalance,
				},
			},
		},
		{
			Name:                     "attendance",
			Description:              "Give attendance points to everyone in your voice channel",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "points",
					Description: "Points per member (default 1)",
					Required:    false,
					MinValue:    &minPoints,
					MaxValue:    maxPoints,
				},
			},
		},
		{
			Name:                     "lootsplit",
			Description:              "Split loot between everyone in your voice channel",
			DefaultMemberPermissions: &adminPermissions,
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Total silver looted",
					Required:    true,
					MinValue:    &minAmount,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "repair",
					Description: "Repair costs taken off the top",
					Required:    false,
					MinValue:    &minRepair,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "tax",
					Description: "Guild tax percentage (0-100)",
					Required:    false,
					MinValue:    &minTax,
					MaxValue:    maxTax,
				},
			},
		},
		{
			Name:                     "event",
			Description:              "Schedule a guild event and announce it in this channel",
			DefaultMemberPermissions: &adminPermissions,
		},
	}
}

// validCommands lists the prefix text commands
var validCommands = []string{"leaderboard", "balance", "help"}

// findCommandWithSuggestion matches a text command and suggests the closest
// one for typos and abbreviations.
// returns: (correctCommand, isValidCommand, didYouMeanSuggestion)
func findCommandWithSuggestion(input string) (string, bool, string) {
	input = strings.ToLower(strings.TrimSpace(input))

	for _, cmd := range validCommands {
		if input == cmd {
			return input, true, ""
		}
	}
	if input == "" {
		return "", false, ""
	}

	// abbreviations like "lb" or "bal"
	matches := fuzzy.RankFindNormalizedFold(input, validCommands)
	if len(matches) > 0 {
		sort.Sort(matches)
		return "", false, matches[0].Target
	}

	// typos within two edits
	best, bestDistance := "", 3
	for _, cmd := range validCommands {
		if d := fuzzy.LevenshteinDistance(input, cmd); d < bestDistance {
			best, bestDistance = cmd, d
		}
	}
	return "", false, best
}
