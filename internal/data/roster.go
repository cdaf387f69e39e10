package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// RosterRow is one line of a roster CSV: user_id,balance,attendance.
type RosterRow struct {
	UserID     string `validate:"required,snowflake"`
	Balance    int64  `validate:"min=0"`
	Attendance int64  `validate:"min=0"`
}

// RosterError describes a rejected roster line.
type RosterError struct {
	Line   int
	Reason string
}

func (e RosterError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// ParseRoster reads a roster CSV with a header row. Invalid lines are
// reported, not fatal; a duplicate user id keeps its first row. Separators
// in numbers ("1,500" quoted or "1_500") are accepted.
func ParseRoster(r io.Reader) ([]RosterRow, []RosterError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return nil, nil, nil
	}

	var rows []RosterRow
	var rejected []RosterError
	seen := make(map[string]bool)
	for i := 1; i < len(records); i++ {
		record := records[i]
		line := i + 1
		if len(record) < 3 {
			rejected = append(rejected, RosterError{Line: line, Reason: fmt.Sprintf("expected 3 columns, got %d", len(record))})
			continue
		}

		balance, err := parseAmount(record[1])
		if err != nil {
			rejected = append(rejected, RosterError{Line: line, Reason: fmt.Sprintf("invalid balance %q", record[1])})
			continue
		}
		attendance, err := parseAmount(record[2])
		if err != nil {
			rejected = append(rejected, RosterError{Line: line, Reason: fmt.Sprintf("invalid attendance %q", record[2])})
			continue
		}

		row := RosterRow{
			UserID:     strings.TrimSpace(record[0]),
			Balance:    balance,
			Attendance: attendance,
		}
		if err := GetValidator().Struct(row); err != nil {
			rejected = append(rejected, RosterError{Line: line, Reason: err.Error()})
			continue
		}
		if seen[row.UserID] {
			rejected = append(rejected, RosterError{Line: line, Reason: fmt.Sprintf("duplicate user id %s", row.UserID)})
			continue
		}
		seen[row.UserID] = true
		rows = append(rows, row)
	}

	return rows, rejected, nil
}

func parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(",", "", "_", "").Replace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

// ImportRoster registers the guild if needed and adds every row's balance
// and attendance on top of what the store already holds, in file order.
func ImportRoster(ctx context.Context, store Storage, guild Guild, rows []RosterRow) error {
	if err := store.RegisterGuild(ctx, guild); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := store.AddBalance(ctx, guild.ID, row.UserID, row.Balance); err != nil {
			return fmt.Errorf("import %s: %w", row.UserID, err)
		}
		if err := store.AddAttendance(ctx, guild.ID, []string{row.UserID}, row.Attendance); err != nil {
			return fmt.Errorf("import %s: %w", row.UserID, err)
		}
	}
	return nil
}
