package leaderboard

import (
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestRender_ExampleBalances(t *testing.T) {
	sorted := Sort([]Entry{{"A", 500}, {"B", 1500}, {"C", 1500}, {"D", 0}})

	page, err := RenderPage(Balance, sorted, Sum(sorted), 0)
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}

	if page.Total != 3500 {
		t.Errorf("Total = %d, want 3500", page.Total)
	}
	if page.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1", page.TotalPages)
	}
	if page.Title != "Silver Leaderboard" {
		t.Errorf("Title = %q", page.Title)
	}

	want := []struct {
		marker string
		id     string
	}{
		{"🥇", "B"},
		{"🥈", "C"},
		{"🥉", "A"},
		{"4.", "D"},
	}
	if len(page.Lines) != len(want) {
		t.Fatalf("Lines = %v", page.Lines)
	}
	for i, w := range want {
		line := page.Lines[i]
		if line.Marker != w.marker || line.EntityID != w.id || line.Rank != i+1 {
			t.Errorf("Lines[%d] = %+v, want marker %s id %s", i, line, w.marker, w.id)
		}
	}

	if page.Lines[0].Text != "🥇 <@B> 1,500 silver" {
		t.Errorf("Lines[0].Text = %q", page.Lines[0].Text)
	}
	if page.Lines[3].Text != "4. <@D> 0 silver" {
		t.Errorf("Lines[3].Text = %q", page.Lines[3].Text)
	}
	if page.Footer != "Page 1/1 • Total: 3,500 silver" {
		t.Errorf("Footer = %q", page.Footer)
	}
	if page.HasPrev() || page.HasNext() {
		t.Error("single page should have no prev/next")
	}
}

func TestRender_AttendanceUnits(t *testing.T) {
	page := Render(Attendance, []Entry{{"A", 12}}, 0, 12, 1, 0)
	if page.Lines[0].Text != "🥇 <@A> 12 pts" {
		t.Errorf("Lines[0].Text = %q", page.Lines[0].Text)
	}
	if page.Title != "Attendance Leaderboard" {
		t.Errorf("Title = %q", page.Title)
	}
}

func TestRender_RankOffset(t *testing.T) {
	entries := makeEntries(37)

	last, err := RenderPage(Balance, entries, Sum(entries), 2)
	if err != nil {
		t.Fatalf("RenderPage(page 2) error = %v", err)
	}
	if len(last.Lines) != 7 {
		t.Fatalf("len(Lines) = %d, want 7", len(last.Lines))
	}
	if last.Lines[0].Rank != 31 || last.Lines[6].Rank != 37 {
		t.Errorf("ranks = %d..%d, want 31..37", last.Lines[0].Rank, last.Lines[6].Rank)
	}
	if last.Lines[0].Marker != "31." {
		t.Errorf("Lines[0].Marker = %q", last.Lines[0].Marker)
	}
	if !last.HasPrev() || last.HasNext() {
		t.Error("last page should have prev and no next")
	}
	// totals cover every entry, not just the page
	if last.Total != Sum(entries) {
		t.Errorf("Total = %d, want %d", last.Total, Sum(entries))
	}

	first, _ := RenderPage(Balance, entries, Sum(entries), 0)
	if first.Lines[0].Rank != 1 || first.Lines[14].Rank != 15 {
		t.Errorf("page 0 ranks = %d..%d, want 1..15", first.Lines[0].Rank, first.Lines[14].Rank)
	}
	if first.Total != last.Total {
		t.Error("Total must not depend on the page")
	}
}

func TestRender_EmptyState(t *testing.T) {
	page, err := RenderPage(Balance, nil, 0, 0)
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if !page.Empty {
		t.Fatal("RenderPage() of no entries should be empty")
	}
	if page.TotalPages != 0 || len(page.Lines) != 0 {
		t.Errorf("empty page = %+v", page)
	}
	if !strings.Contains(page.Description, "No members are tracked yet") {
		t.Errorf("Description = %q", page.Description)
	}
	if page.HasPrev() || page.HasNext() {
		t.Error("empty page should have no navigation")
	}
}

func TestRender_Deterministic(t *testing.T) {
	entries := makeEntries(20)
	a, _ := RenderPage(Attendance, entries, Sum(entries), 1)
	b, _ := RenderPage(Attendance, entries, Sum(entries), 1)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("RenderPage() not deterministic:\n%+v\n%+v", a, b)
	}
}

func TestRender_Concurrent(t *testing.T) {
	entries := makeEntries(40)
	want, _ := RenderPage(Attendance, entries, Sum(entries), 1)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				mode := Modes()[n%2]
				if mode.Label() == "" {
					t.Error("empty label")
					return
				}
				if got, _ := RenderPage(Attendance, entries, Sum(entries), 1); !reflect.DeepEqual(got, want) {
					t.Error("concurrent RenderPage() diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
}
