package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/economy"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/event"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

const officerPerms = discordgo.PermissionManageServer

func TestUserMessage(t *testing.T) {
	_, splitErr := economy.Calculate(100, 200, 0, 1)

	tests := []struct {
		err  error
		want string
	}{
		{leaderboard.ErrGuildNotRegistered, "not registered"},
		{data.ErrGuildNotRegistered, "not registered"},
		{fmt.Errorf("%w: timeout", leaderboard.ErrDataUnavailable), "unavailable"},
		{data.ErrUnavailable, "unavailable"},
		{context.DeadlineExceeded, "unavailable"},
		{leaderboard.ErrNotOwner, "isn't yours"},
		{leaderboard.ErrSessionExpired, "no longer active"},
		{data.ErrInsufficientBalance, "below zero"},
		{splitErr, "repair cost exceeds the loot"},
		{event.ErrDraftExpired, "Run `/event` again"},
		{fmt.Errorf("%w: April has no day 31", event.ErrInvalidDetails), "Can't create that event: April has no day 31"},
		{errors.New("boom"), "Something went wrong"},
	}
	for _, tt := range tests {
		if got := userMessage(tt.err); !strings.Contains(got, tt.want) {
			t.Errorf("userMessage(%v) = %q, want it to contain %q", tt.err, got, tt.want)
		}
	}
}

func TestRegisterSlash(t *testing.T) {
	store := data.NewMemoryStorage()
	h := NewHandler(store, "!")
	defer h.Close()
	h.guilds = fakeGuildState{name: "Black Flag"}
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("register", ownerID, 0))
	if resp := d.lastResponse(); resp.Data.Flags != discordgo.MessageFlagsEphemeral {
		t.Errorf("register without permission should be denied: %+v", resp.Data)
	}
	if ok, _ := store.IsGuildRegistered(context.Background(), testGuild); ok {
		t.Fatal("guild registered without permission")
	}

	h.handleSlash(d, slashCommand("register", ownerID, officerPerms))
	if ok, _ := store.IsGuildRegistered(context.Background(), testGuild); !ok {
		t.Fatal("guild not registered")
	}
	if resp := d.lastResponse(); resp.Data.Embeds[0].Title != "Server Registered" {
		t.Errorf("response = %+v", resp.Data)
	}
}

func TestBalanceAndAddBalance(t *testing.T) {
	store := seededStore(t, 0)
	h := NewHandler(store, "!")
	defer h.Close()
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("addbalance", ownerID, officerPerms, userOpt("user", otherID), intOpt("amount", 1500)))
	if resp := d.lastResponse(); !strings.Contains(resp.Data.Embeds[0].Description, "**1,500**") {
		t.Errorf("addbalance response = %q", resp.Data.Embeds[0].Description)
	}

	h.handleSlash(d, slashCommand("addbalance", ownerID, officerPerms, userOpt("user", otherID), intOpt("amount", -2000)))
	if resp := d.lastResponse(); !strings.Contains(resp.Data.Content, "below zero") {
		t.Errorf("overdraw response = %+v", resp.Data)
	}

	h.handleSlash(d, slashCommand("balance", ownerID, 0, userOpt("user", otherID)))
	fields := d.lastResponse().Data.Embeds[0].Fields
	if fields[0].Value != "1,500" || fields[1].Value != "0 pts" {
		t.Errorf("balance fields = %s, %s", fields[0].Value, fields[1].Value)
	}
}

func TestAttendanceSlash(t *testing.T) {
	store := seededStore(t, 0)
	h := NewHandler(store, "!")
	defer h.Close()
	h.guilds = fakeGuildState{voices: testVoiceStates()}
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("attendance", ownerID, officerPerms, intOpt("points", 2)))

	attendance, err := store.GetAllUserAttendance(context.Background(), testGuild)
	if err != nil {
		t.Fatalf("GetAllUserAttendance() error = %v", err)
	}
	if len(attendance) != 3 {
		t.Fatalf("attendance = %+v, want three members", attendance)
	}
	for _, a := range attendance {
		if a.Attendance != 2 {
			t.Errorf("%s attendance = %d, want 2", a.UserID, a.Attendance)
		}
	}
}

func TestAttendanceSlash_NotInVoice(t *testing.T) {
	h := NewHandler(seededStore(t, 0), "!")
	defer h.Close()
	h.guilds = fakeGuildState{}
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("attendance", ownerID, officerPerms))
	if resp := d.lastResponse(); !strings.Contains(resp.Data.Content, "voice channel") {
		t.Errorf("response = %+v", resp.Data)
	}
}

func TestLootSplitSlash(t *testing.T) {
	store := seededStore(t, 0)
	h := NewHandler(store, "!")
	defer h.Close()
	h.guilds = fakeGuildState{voices: testVoiceStates()}
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("lootsplit", ownerID, officerPerms,
		intOpt("amount", 1000), intOpt("repair", 100), intOpt("tax", 10)))

	ctx := context.Background()
	for _, id := range []string{ownerID, otherID, "100000000000000004"} {
		member, err := store.GetMember(ctx, testGuild, id)
		if err != nil {
			t.Fatalf("GetMember() error = %v", err)
		}
		if member.Balance != 270 {
			t.Errorf("%s balance = %d, want 270", id, member.Balance)
		}
	}
	if member, _ := store.GetMember(ctx, testGuild, "100000000000000003"); member.Balance != 0 {
		t.Error("member in another channel was paid")
	}

	fields := d.lastResponse().Data.Embeds[0].Fields
	if fields[3].Name != "Guild Cut" || fields[3].Value != "90" {
		t.Errorf("guild cut field = %+v", fields[3])
	}
}

func TestLootSplitSlash_RequiresPermission(t *testing.T) {
	store := seededStore(t, 0)
	h := NewHandler(store, "!")
	defer h.Close()
	h.guilds = fakeGuildState{voices: testVoiceStates()}
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("lootsplit", ownerID, 0, intOpt("amount", 1000)))

	if resp := d.lastResponse(); !strings.Contains(resp.Data.Content, "Manage Server") {
		t.Errorf("response = %+v", resp.Data)
	}
	balances, _ := store.GetAllUserBalances(context.Background(), testGuild)
	if len(balances) != 0 {
		t.Errorf("balances = %+v, want none", balances)
	}
}

func TestSlashOutsideGuild(t *testing.T) {
	h := NewHandler(data.NewMemoryStorage(), "!")
	defer h.Close()
	d := &fakeDiscord{}

	i := slashCommand("leaderboard", ownerID, 0)
	i.GuildID = ""
	h.handleSlash(d, i)

	if resp := d.lastResponse(); !strings.Contains(resp.Data.Content, "inside a server") {
		t.Errorf("response = %+v", resp.Data)
	}
}

func TestParseMessageCommand_Suggestion(t *testing.T) {
	h := NewHandler(data.NewMemoryStorage(), "!")
	defer h.Close()
	d := &fakeDiscord{}

	tests := []struct {
		content string
		want    string
	}{
		{"!lb", "Did you mean `!leaderboard`?"},
		{"!xyz", "Use `!help`"},
	}
	for _, tt := range tests {
		m := &discordgo.MessageCreate{Message: &discordgo.Message{
			ChannelID: "300000000000000001",
			Author:    &discordgo.User{ID: ownerID},
			Content:   tt.content,
		}}
		if _, ok := h.parseMessageCommand(d, m); ok {
			t.Errorf("parseMessageCommand(%q) should not accept", tt.content)
		}
		if got := d.messages[len(d.messages)-1]; !strings.Contains(got, tt.want) {
			t.Errorf("reply to %q = %q, want %q", tt.content, got, tt.want)
		}
	}

	sent := len(d.messages)
	bot := &discordgo.MessageCreate{Message: &discordgo.Message{Author: &discordgo.User{Bot: true}, Content: "!lb"}}
	if _, ok := h.parseMessageCommand(d, bot); ok || len(d.messages) != sent {
		t.Error("bot messages must be ignored")
	}
}
