package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS guilds (
	guild_id      TEXT PRIMARY KEY,
	name          TEXT NOT NULL DEFAULT '',
	registered_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS members (
	guild_id   TEXT NOT NULL REFERENCES guilds(guild_id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL,
	balance    INTEGER NOT NULL DEFAULT 0 CHECK (balance >= 0),
	attendance INTEGER NOT NULL DEFAULT 0 CHECK (attendance >= 0),
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (guild_id, user_id)
);
`

// SQLiteStorage persists guild state in a single SQLite file. Member rows
// are listed in rowid order, which is the order they were first tracked in.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer at a time; readers queue behind it
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", wrapSQLiteErr(err))
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func (s *SQLiteStorage) RegisterGuild(ctx context.Context, guild Guild) error {
	if err := GetValidator().Struct(guild); err != nil {
		return fmt.Errorf("invalid guild: %v", err)
	}
	if guild.RegisteredAt.IsZero() {
		guild.RegisteredAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO guilds (guild_id, name, registered_at) VALUES (?, ?, ?)
		 ON CONFLICT (guild_id) DO NOTHING`,
		guild.ID, guild.Name, toMillis(guild.RegisteredAt))
	if err != nil {
		return fmt.Errorf("register guild: %w", wrapSQLiteErr(err))
	}
	return nil
}

func (s *SQLiteStorage) IsGuildRegistered(ctx context.Context, guildID string) (bool, error) {
	return guildExists(ctx, s.db, guildID)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func guildExists(ctx context.Context, q queryer, guildID string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM guilds WHERE guild_id = ?`, guildID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get guild: %w", wrapSQLiteErr(err))
	}
	return true, nil
}

func (s *SQLiteStorage) members(ctx context.Context, guildID string) ([]Member, error) {
	registered, err := guildExists(ctx, s.db, guildID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrGuildNotRegistered
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, balance, attendance, rowid, updated_at
		 FROM members WHERE guild_id = ? ORDER BY rowid`, guildID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", wrapSQLiteErr(err))
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		var m Member
		var updatedAt int64
		if err := rows.Scan(&m.UserID, &m.Balance, &m.Attendance, &m.Seq, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		m.UpdatedAt = fromMillis(updatedAt)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", wrapSQLiteErr(err))
	}
	return members, nil
}

func (s *SQLiteStorage) GetAllUserBalances(ctx context.Context, guildID string) ([]UserBalance, error) {
	members, err := s.members(ctx, guildID)
	if err != nil {
		return nil, err
	}
	balances := make([]UserBalance, 0, len(members))
	for _, m := range members {
		balances = append(balances, UserBalance{UserID: m.UserID, Balance: m.Balance})
	}
	return balances, nil
}

func (s *SQLiteStorage) GetAllUserAttendance(ctx context.Context, guildID string) ([]UserAttendance, error) {
	members, err := s.members(ctx, guildID)
	if err != nil {
		return nil, err
	}
	attendance := make([]UserAttendance, 0, len(members))
	for _, m := range members {
		attendance = append(attendance, UserAttendance{UserID: m.UserID, Attendance: m.Attendance})
	}
	return attendance, nil
}

func (s *SQLiteStorage) GetMember(ctx context.Context, guildID, userID string) (Member, error) {
	registered, err := guildExists(ctx, s.db, guildID)
	if err != nil {
		return Member{}, err
	}
	if !registered {
		return Member{}, ErrGuildNotRegistered
	}

	m := Member{UserID: userID}
	var updatedAt int64
	err = s.db.QueryRowContext(ctx,
		`SELECT balance, attendance, rowid, updated_at FROM members
		 WHERE guild_id = ? AND user_id = ?`, guildID, userID).
		Scan(&m.Balance, &m.Attendance, &m.Seq, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return m, nil
	}
	if err != nil {
		return Member{}, fmt.Errorf("get member: %w", wrapSQLiteErr(err))
	}
	m.UpdatedAt = fromMillis(updatedAt)
	return m, nil
}

func (s *SQLiteStorage) AddBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error) {
	if err := GetValidator().Var(userID, "required,snowflake"); err != nil {
		return 0, fmt.Errorf("invalid user id %q: %v", userID, err)
	}

	var balance int64
	err := s.inTx(ctx, guildID, func(tx *sql.Tx) error {
		if err := ensureMember(ctx, tx, guildID, userID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			`SELECT balance FROM members WHERE guild_id = ? AND user_id = ?`,
			guildID, userID).Scan(&balance); err != nil {
			return err
		}
		if balance+delta < 0 {
			return ErrInsufficientBalance
		}
		balance += delta
		_, err := tx.ExecContext(ctx,
			`UPDATE members SET balance = ?, updated_at = ? WHERE guild_id = ? AND user_id = ?`,
			balance, toMillis(time.Now()), guildID, userID)
		return err
	})
	if errors.Is(err, ErrInsufficientBalance) {
		return balance, err
	}
	if err != nil {
		return 0, fmt.Errorf("add balance: %w", err)
	}
	return balance, nil
}

func (s *SQLiteStorage) AddAttendance(ctx context.Context, guildID string, userIDs []string, points int64) error {
	if points < 0 {
		return fmt.Errorf("attendance points must not be negative: %d", points)
	}
	for _, id := range userIDs {
		if err := GetValidator().Var(id, "required,snowflake"); err != nil {
			return fmt.Errorf("invalid user id %q: %v", id, err)
		}
	}

	err := s.inTx(ctx, guildID, func(tx *sql.Tx) error {
		now := toMillis(time.Now())
		for _, id := range userIDs {
			if err := ensureMember(ctx, tx, guildID, id); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE members SET attendance = attendance + ?, updated_at = ?
				 WHERE guild_id = ? AND user_id = ?`,
				points, now, guildID, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add attendance: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction after checking the guild exists.
func (s *SQLiteStorage) inTx(ctx context.Context, guildID string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapSQLiteErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	registered, err := guildExists(ctx, tx, guildID)
	if err != nil {
		return err
	}
	if !registered {
		return ErrGuildNotRegistered
	}
	if err := fn(tx); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return err
		}
		return wrapSQLiteErr(err)
	}
	return wrapSQLiteErr(tx.Commit())
}

func ensureMember(ctx context.Context, tx *sql.Tx, guildID, userID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO members (guild_id, user_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (guild_id, user_id) DO NOTHING`,
		guildID, userID, toMillis(time.Now()))
	return err
}

func wrapSQLiteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGuildNotRegistered) || errors.Is(err, ErrUnavailable) {
		return err
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3lib.SQLITE_BUSY, sqlite3lib.SQLITE_LOCKED, sqlite3lib.SQLITE_CANTOPEN, sqlite3lib.SQLITE_IOERR:
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
