package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/leaderboard"
)

const demoGuild = "900000000000000001"

const demoRoster = `user_id,balance,attendance
100000000000000001,500,3
100000000000000002,"1,500",12
100000000000000003,1_500,7
100000000000000004,0,1
`

func main() {
	fmt.Println("=== Leaderboard Demo ===")
	fmt.Println()

	ctx := context.Background()
	store := data.NewMemoryStorage()
	rows, _, err := data.ParseRoster(strings.NewReader(demoRoster))
	if err != nil {
		log.Fatalf("Failed to parse demo roster: %v", err)
	}
	if err := data.ImportRoster(ctx, store, data.Guild{ID: demoGuild, Name: "Demo"}, rows); err != nil {
		log.Fatalf("Failed to seed demo guild: %v", err)
	}

	fetcher := leaderboard.NewStoreFetcher(store)
	for _, mode := range leaderboard.Modes() {
		fmt.Printf("Command: /leaderboard (%s)\n", mode.Label())
		page, err := leaderboard.Load(ctx, fetcher, demoGuild, mode, 0)
		if err != nil {
			log.Fatalf("Failed to load %s leaderboard: %v", mode, err)
		}
		printPage(page)
		fmt.Println()
	}

	fmt.Println("Command: /leaderboard (unregistered server)")
	if _, err := leaderboard.Load(ctx, fetcher, "900000000000000099", leaderboard.Balance, 0); err != nil {
		fmt.Printf("Error shown to user: %v\n", err)
	}
}

func printPage(page leaderboard.Page) {
	fmt.Printf("**%s**\n", page.Title)
	fmt.Println(page.Description)
	if page.Footer != "" {
		fmt.Println(page.Footer)
	}
}
