package data

import (
	"context"
	"errors"
)

var (
	ErrGuildNotRegistered  = errors.New("guild is not registered")
	ErrInsufficientBalance = errors.New("balance cannot go below zero")
	ErrUnavailable         = errors.New("storage unavailable")
)

// Storage is the persistence collaborator behind every command. List
// methods return an empty slice, not an error, when the guild has no members
// and preserve the order members were first tracked in.
type Storage interface {
	RegisterGuild(ctx context.Context, guild Guild) error
	IsGuildRegistered(ctx context.Context, guildID string) (bool, error)
	GetAllUserBalances(ctx context.Context, guildID string) ([]UserBalance, error)
	GetAllUserAttendance(ctx context.Context, guildID string) ([]UserAttendance, error)
	GetMember(ctx context.Context, guildID, userID string) (Member, error)
	AddBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error)
	AddAttendance(ctx context.Context, guildID string, userIDs []string, points int64) error
	Close() error
}
