package data

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStorage keeps everything in process memory. Members are kept in the
// order they were first seen so list results are reproducible.
type MemoryStorage struct {
	mu     sync.RWMutex
	guilds map[string]*memoryGuild
}

type memoryGuild struct {
	guild   Guild
	order   []string
	members map[string]*Member
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{guilds: make(map[string]*memoryGuild)}
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) RegisterGuild(ctx context.Context, guild Guild) error {
	if err := GetValidator().Struct(guild); err != nil {
		return fmt.Errorf("invalid guild: %v", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.guilds[guild.ID]; ok {
		return nil
	}
	if guild.RegisteredAt.IsZero() {
		guild.RegisteredAt = time.Now().UTC()
	}
	m.guilds[guild.ID] = &memoryGuild{guild: guild, members: make(map[string]*Member)}
	return nil
}

func (m *MemoryStorage) IsGuildRegistered(ctx context.Context, guildID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.guilds[guildID]
	return ok, nil
}

func (m *MemoryStorage) GetAllUserBalances(ctx context.Context, guildID string) ([]UserBalance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return nil, ErrGuildNotRegistered
	}
	balances := make([]UserBalance, 0, len(g.order))
	for _, id := range g.order {
		balances = append(balances, UserBalance{UserID: id, Balance: g.members[id].Balance})
	}
	return balances, nil
}

func (m *MemoryStorage) GetAllUserAttendance(ctx context.Context, guildID string) ([]UserAttendance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return nil, ErrGuildNotRegistered
	}
	attendance := make([]UserAttendance, 0, len(g.order))
	for _, id := range g.order {
		attendance = append(attendance, UserAttendance{UserID: id, Attendance: g.members[id].Attendance})
	}
	return attendance, nil
}

func (m *MemoryStorage) GetMember(ctx context.Context, guildID, userID string) (Member, error) {
	if err := ctx.Err(); err != nil {
		return Member{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return Member{}, ErrGuildNotRegistered
	}
	if member, ok := g.members[userID]; ok {
		return *member, nil
	}
	return Member{UserID: userID}, nil
}

func (m *MemoryStorage) AddBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return 0, ErrGuildNotRegistered
	}
	current := int64(0)
	if member, ok := g.members[userID]; ok {
		current = member.Balance
	}
	if current+delta < 0 {
		return current, ErrInsufficientBalance
	}
	member, err := g.track(userID)
	if err != nil {
		return current, err
	}
	member.Balance += delta
	member.UpdatedAt = time.Now().UTC()
	return member.Balance, nil
}

func (m *MemoryStorage) AddAttendance(ctx context.Context, guildID string, userIDs []string, points int64) error {
	if points < 0 {
		return fmt.Errorf("attendance points must not be negative: %d", points)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.guilds[guildID]
	if !ok {
		return ErrGuildNotRegistered
	}
	for _, id := range userIDs {
		if err := GetValidator().Var(id, "required,snowflake"); err != nil {
			return fmt.Errorf("invalid user id %q: %v", id, err)
		}
	}
	now := time.Now().UTC()
	for _, id := range userIDs {
		member, _ := g.track(id)
		member.Attendance += points
		member.UpdatedAt = now
	}
	return nil
}

// track returns the member record for userID, creating it at the end of the
// order if it does not exist yet.
func (g *memoryGuild) track(userID string) (*Member, error) {
	if member, ok := g.members[userID]; ok {
		return member, nil
	}
	member := &Member{UserID: userID, Seq: int64(len(g.order))}
	if err := GetValidator().Struct(member); err != nil {
		return nil, fmt.Errorf("invalid member: %v", err)
	}
	g.members[userID] = member
	g.order = append(g.order, userID)
	return member, nil
}
