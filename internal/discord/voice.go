package discord

import "github.com/bwmarrin/discordgo"

// voiceChannelMembers finds the voice channel userID is connected to and
// returns everyone in it, bots excluded. channelID is empty when userID is
// not in voice.
func voiceChannelMembers(states []*discordgo.VoiceState, userID string) (channelID string, members []string) {
	for _, vs := range states {
		if vs != nil && vs.UserID == userID {
			channelID = vs.ChannelID
			break
		}
	}
	if channelID == "" {
		return "", nil
	}

	seen := make(map[string]bool)
	for _, vs := range states {
		if vs == nil || vs.ChannelID != channelID || seen[vs.UserID] {
			continue
		}
		if vs.Member != nil && vs.Member.User != nil && vs.Member.User.Bot {
			continue
		}
		seen[vs.UserID] = true
		members = append(members, vs.UserID)
	}
	return channelID, members
}
