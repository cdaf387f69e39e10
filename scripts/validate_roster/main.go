package main

import (
	"fmt"
	"os"

	"github.com/kawasa9350-svg/albion-assistance-bot-sub001/internal/data"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/validate_roster/main.go <roster.csv> [...]")
		os.Exit(1)
	}

	var validFiles, invalidFiles, totalRows int
	for _, path := range os.Args[1:] {
		fmt.Printf("Validating %s... ", path)

		f, err := os.Open(path)
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			invalidFiles++
			continue
		}
		rows, rejected, err := data.ParseRoster(f)
		f.Close()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			invalidFiles++
			continue
		}

		totalRows += len(rows)
		if len(rejected) > 0 {
			fmt.Printf("❌ %d members, %d rejected lines\n", len(rows), len(rejected))
			for _, r := range rejected {
				fmt.Printf("    %s\n", r.Error())
			}
			invalidFiles++
			continue
		}
		fmt.Printf("✅ %d members\n", len(rows))
		validFiles++
	}

	fmt.Printf("\nValidation Summary:\n")
	fmt.Printf("Valid files: %d\n", validFiles)
	fmt.Printf("Invalid files: %d\n", invalidFiles)
	fmt.Printf("Total members: %d\n", totalRows)

	if invalidFiles > 0 {
		os.Exit(1)
	}
}
