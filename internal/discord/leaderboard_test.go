package discord

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

const (
	testGuild = "900000000000000001"
	ownerID   = "100000000000000001"
	otherID   = "100000000000000002"
)

// seededStore registers the test guild with n members holding balances
// 1000, 999, ...
func seededStore(t *testing.T, n int) *data.MemoryStorage {
	t.Helper()
	ctx := context.Background()
	store := data.NewMemoryStorage()
	if err := store.RegisterGuild(ctx, data.Guild{ID: testGuild, Name: "Test"}); err != nil {
		t.Fatalf("RegisterGuild() error = %v", err)
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("2000000000000000%02d", i)
		if _, err := store.AddBalance(ctx, testGuild, id, int64(1000-i)); err != nil {
			t.Fatalf("AddBalance() error = %v", err)
		}
	}
	return store
}

// testClock is a settable clock shared with the handler's manager.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLeaderboardCustomID_RoundTrip(t *testing.T) {
	id := leaderboardCustomID("3f1c9a2e-0000-4000-8000-000000000000", leaderboard.ActionNext)

	sessionID, action, ok := parseCustomID(id, leaderboardIDPrefix)
	if !ok {
		t.Fatalf("parseCustomID(%q) not ok", id)
	}
	if sessionID != "3f1c9a2e-0000-4000-8000-000000000000" || action != "next" {
		t.Errorf("parseCustomID(%q) = %q, %q", id, sessionID, action)
	}
}

func TestParseCustomID_Rejects(t *testing.T) {
	for _, id := range []string{"", "lb", "lb::next", "lb:abc:", "paginator:abc:next", "lb:a:b:c", "ev:abc:month"} {
		if _, _, ok := parseCustomID(id, leaderboardIDPrefix); ok {
			t.Errorf("parseCustomID(%q) should fail", id)
		}
	}
}

func TestLeaderboardComponents(t *testing.T) {
	page, _ := leaderboard.RenderPage(leaderboard.Balance, []leaderboard.Entry{{EntityID: "1", Value: 1}}, 1, 0)
	view := leaderboard.View{SessionID: "s1", Page: page}

	got := buttons(leaderboardComponents(view))
	if len(got) != 6 {
		t.Fatalf("len(buttons) = %d, want 6", len(got))
	}

	tests := []struct {
		label    string
		disabled bool
	}{
		{"Silver", true},
		{"Attendance", false},
		{"⏮", true},
		{"◀", true},
		{"▶", true},
		{"⏭", true},
	}
	for n, tt := range tests {
		if got[n].Label != tt.label || got[n].Disabled != tt.disabled {
			t.Errorf("button %d = %q disabled=%v, want %q disabled=%v", n, got[n].Label, got[n].Disabled, tt.label, tt.disabled)
		}
	}
	if got[0].Style != discordgo.PrimaryButton {
		t.Error("active mode button should use the primary style")
	}
	if got[1].CustomID != "lb:s1:attendance" {
		t.Errorf("Attendance CustomID = %q", got[1].CustomID)
	}

	view.Expired = true
	for _, b := range buttons(leaderboardComponents(view)) {
		if !b.Disabled {
			t.Errorf("button %q enabled on expired view", b.Label)
		}
	}
}

func TestLeaderboardComponents_EmptyHasNoNavigation(t *testing.T) {
	page, _ := leaderboard.RenderPage(leaderboard.Attendance, nil, 0, 0)
	rows := leaderboardComponents(leaderboard.View{SessionID: "s1", Page: page})
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want only the mode row", len(rows))
	}
}

func TestLeaderboardEmbed_ExpiredFooter(t *testing.T) {
	page, _ := leaderboard.RenderPage(leaderboard.Balance, []leaderboard.Entry{{EntityID: "1", Value: 5}}, 5, 0)

	embed := leaderboardEmbed(leaderboard.View{Page: page, Expired: true})
	if embed.Footer == nil || embed.Footer.Text != "Page 1/1 • Total: 5 silver • Expired" {
		t.Errorf("Footer = %+v", embed.Footer)
	}
	if embed.Timestamp != "" {
		t.Error("leaderboard embeds carry no timestamp")
	}
}

func TestLeaderboardFlow(t *testing.T) {
	store := seededStore(t, 20)
	h := NewHandler(store, "!")
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("leaderboard", ownerID, 0))

	first := d.lastResponse()
	if first == nil || first.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Fatalf("first response = %+v", first)
	}
	embed := first.Data.Embeds[0]
	if embed.Title != "Silver Leaderboard" {
		t.Errorf("Title = %q", embed.Title)
	}
	if !strings.HasPrefix(embed.Footer.Text, "Page 1/2") {
		t.Errorf("Footer = %q", embed.Footer.Text)
	}

	var nextID string
	for _, b := range buttons(first.Data.Components) {
		if b.Label == "▶" {
			nextID = b.CustomID
		}
	}
	if nextID == "" {
		t.Fatal("no next button")
	}

	if !h.handleComponent(d, componentClick(nextID, ownerID)) {
		t.Fatal("handleComponent() did not claim a leaderboard button")
	}
	update := d.lastResponse()
	if update.Type != discordgo.InteractionResponseUpdateMessage {
		t.Fatalf("click response type = %v, want UpdateMessage", update.Type)
	}
	if !strings.HasPrefix(update.Data.Embeds[0].Footer.Text, "Page 2/2") {
		t.Errorf("Footer after next = %q", update.Data.Embeds[0].Footer.Text)
	}
	if !strings.Contains(update.Data.Embeds[0].Description, "**16.**") {
		t.Errorf("page 2 should start at rank 16: %q", update.Data.Embeds[0].Description)
	}

	// another member cannot drive the session
	h.handleComponent(d, componentClick(nextID, otherID))
	denied := d.lastResponse()
	if denied.Data.Flags != discordgo.MessageFlagsEphemeral || !strings.Contains(denied.Data.Content, "isn't yours") {
		t.Errorf("non-owner response = %+v", denied.Data)
	}

	h.Close()
	if len(d.edits) != 1 {
		t.Fatalf("Close() made %d edits, want 1", len(d.edits))
	}
	for _, b := range buttons(*d.edits[0].Components) {
		if !b.Disabled {
			t.Errorf("button %q still enabled after Close()", b.Label)
		}
	}
}

func TestLeaderboardFlow_Expired(t *testing.T) {
	store := seededStore(t, 3)
	clock := &testClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	h := NewHandler(store, "!", leaderboard.WithIdleTimeout(time.Hour), leaderboard.WithClock(clock.Now))
	defer h.Close()
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("leaderboard", ownerID, 0))
	attendanceID := buttons(d.lastResponse().Data.Components)[1].CustomID

	clock.Advance(2 * time.Hour)
	h.handleComponent(d, componentClick(attendanceID, ownerID))

	resp := d.lastResponse()
	if resp.Data.Flags != discordgo.MessageFlagsEphemeral || !strings.Contains(resp.Data.Content, "no longer active") {
		t.Errorf("expired response = %+v", resp.Data)
	}
	if len(d.edits) != 1 {
		t.Errorf("expiry made %d edits, want 1", len(d.edits))
	}
}

func TestLeaderboardFlow_UnknownSession(t *testing.T) {
	h := NewHandler(seededStore(t, 1), "!")
	defer h.Close()
	d := &fakeDiscord{}

	if !h.handleComponent(d, componentClick("lb:gone:next", ownerID)) {
		t.Fatal("handleComponent() should claim lb: buttons")
	}
	if !strings.Contains(d.lastResponse().Data.Content, "no longer active") {
		t.Errorf("response = %+v", d.lastResponse().Data)
	}
	if h.handleComponent(d, componentClick("paginator:next", ownerID)) {
		t.Error("handleComponent() claimed a foreign button")
	}
}

func TestLeaderboardFlow_NotRegistered(t *testing.T) {
	h := NewHandler(data.NewMemoryStorage(), "!")
	defer h.Close()
	d := &fakeDiscord{}

	h.handleSlash(d, slashCommand("leaderboard", ownerID, 0))

	resp := d.lastResponse()
	if resp.Data.Flags != discordgo.MessageFlagsEphemeral || !strings.Contains(resp.Data.Content, "not registered") {
		t.Errorf("response = %+v", resp.Data)
	}
	if h.leaderboards.Len() != 0 {
		t.Error("a failed open must not leave a session behind")
	}
}

func TestLeaderboardMessage(t *testing.T) {
	h := NewHandler(seededStore(t, 2), "!")
	d := &fakeDiscord{}

	m := &discordgo.MessageCreate{Message: &discordgo.Message{
		ChannelID: "300000000000000001",
		GuildID:   testGuild,
		Author:    &discordgo.User{ID: ownerID},
		Content:   "!leaderboard",
	}}
	command, ok := h.parseMessageCommand(d, m)
	if !ok || command != "leaderboard" {
		t.Fatalf("parseMessageCommand() = %q, %v", command, ok)
	}
	h.handleMessageCommand(d, m, command)

	if len(d.sent) != 1 || d.sent[0].Embeds[0].Title != "Silver Leaderboard" {
		t.Fatalf("sent = %+v", d.sent)
	}

	h.Close()
	if len(d.messageEdits) != 1 || d.messageEdits[0].ID != "msg1" || d.messageEdits[0].Channel != m.ChannelID {
		t.Errorf("messageEdits = %+v", d.messageEdits)
	}
}

func TestLeaderboardDescription_BoldsRankMarkers(t *testing.T) {
	entries := leaderboard.Sort([]leaderboard.Entry{{EntityID: "A", Value: 500}, {EntityID: "B", Value: 1500}, {EntityID: "C", Value: 1500}, {EntityID: "D", Value: 0}})
	page, _ := leaderboard.RenderPage(leaderboard.Balance, entries, leaderboard.Sum(entries), 0)

	want := "🥇 <@B> 1,500 silver\n🥈 <@C> 1,500 silver\n🥉 <@A> 500 silver\n**4.** <@D> 0 silver"
	if got := leaderboardDescription(page); got != want {
		t.Errorf("leaderboardDescription() = %q, want %q", got, want)
	}
	if page.Lines[3].Marker != "4." {
		t.Errorf("Marker = %q, markdown belongs to the embed only", page.Lines[3].Marker)
	}
}
