package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	guildsCollection  = "guilds"
	membersCollection = "members"
)

// FirestoreStorage stores each guild as guilds/{guildID} with its members
// in a members subcollection keyed by user id.
type FirestoreStorage struct {
	client *firestore.Client
}

type firestoreGuild struct {
	Guild
	MemberCount int64 `firestore:"member_count"`
}

func (fs *FirestoreStorage) Close() error {
	return fs.client.Close()
}

func NewFirestoreClient(ctx context.Context, projectID string, databaseID string) (*FirestoreStorage, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required")
	}
	if databaseID == "" {
		return nil, fmt.Errorf("databaseID is required - we do not allow connections to the default database")
	}

	// Using Application Default Credentials (ADC) - no explicit credentials needed
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, wrapFirestoreErr("connect", err)
	}
	return &FirestoreStorage{client: client}, nil
}

func (fs *FirestoreStorage) guildRef(guildID string) *firestore.DocumentRef {
	return fs.client.Collection(guildsCollection).Doc(guildID)
}

func (fs *FirestoreStorage) memberRef(guildID, userID string) *firestore.DocumentRef {
	return fs.guildRef(guildID).Collection(membersCollection).Doc(userID)
}

func (fs *FirestoreStorage) RegisterGuild(ctx context.Context, guild Guild) error {
	if err := GetValidator().Struct(guild); err != nil {
		return fmt.Errorf("invalid guild: %v", err)
	}
	if guild.RegisteredAt.IsZero() {
		guild.RegisteredAt = time.Now().UTC()
	}
	_, err := fs.guildRef(guild.ID).Create(ctx, firestoreGuild{Guild: guild})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	return wrapFirestoreErr("register guild", err)
}

func (fs *FirestoreStorage) IsGuildRegistered(ctx context.Context, guildID string) (bool, error) {
	_, err := fs.guildRef(guildID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, wrapFirestoreErr("get guild", err)
	}
	return true, nil
}

func (fs *FirestoreStorage) members(ctx context.Context, guildID string) ([]Member, error) {
	registered, err := fs.IsGuildRegistered(ctx, guildID)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrGuildNotRegistered
	}

	iter := fs.guildRef(guildID).Collection(membersCollection).
		OrderBy("seq", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	members := make([]Member, 0)
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapFirestoreErr("list members", err)
		}
		var member Member
		if err := doc.DataTo(&member); err != nil {
			return nil, fmt.Errorf("failed to convert document to member: %v", err)
		}
		members = append(members, member)
	}
	return members, nil
}

func (fs *FirestoreStorage) GetAllUserBalances(ctx context.Context, guildID string) ([]UserBalance, error) {
	members, err := fs.members(ctx, guildID)
	if err != nil {
		return nil, err
	}
	balances := make([]UserBalance, 0, len(members))
	for _, m := range members {
		balances = append(balances, UserBalance{UserID: m.UserID, Balance: m.Balance})
	}
	return balances, nil
}

func (fs *FirestoreStorage) GetAllUserAttendance(ctx context.Context, guildID string) ([]UserAttendance, error) {
	members, err := fs.members(ctx, guildID)
	if err != nil {
		return nil, err
	}
	attendance := make([]UserAttendance, 0, len(members))
	for _, m := range members {
		attendance = append(attendance, UserAttendance{UserID: m.UserID, Attendance: m.Attendance})
	}
	return attendance, nil
}

func (fs *FirestoreStorage) GetMember(ctx context.Context, guildID, userID string) (Member, error) {
	registered, err := fs.IsGuildRegistered(ctx, guildID)
	if err != nil {
		return Member{}, err
	}
	if !registered {
		return Member{}, ErrGuildNotRegistered
	}

	doc, err := fs.memberRef(guildID, userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return Member{UserID: userID}, nil
	}
	if err != nil {
		return Member{}, wrapFirestoreErr("get member", err)
	}
	var member Member
	if err := doc.DataTo(&member); err != nil {
		return Member{}, fmt.Errorf("failed to convert document to member: %v", err)
	}
	return member, nil
}

func (fs *FirestoreStorage) AddBalance(ctx context.Context, guildID, userID string, delta int64) (int64, error) {
	var balance int64
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		members, guild, err := fs.readForUpdate(tx, guildID, []string{userID})
		if err != nil {
			return err
		}
		member := members[0]
		if member.Balance+delta < 0 {
			balance = member.Balance
			return ErrInsufficientBalance
		}
		member.Balance += delta
		balance = member.Balance
		return fs.writeMembers(tx, guildID, guild, members)
	})
	if err != nil {
		return balance, wrapFirestoreErr("add balance", err)
	}
	return balance, nil
}

func (fs *FirestoreStorage) AddAttendance(ctx context.Context, guildID string, userIDs []string, points int64) error {
	if points < 0 {
		return fmt.Errorf("attendance points must not be negative: %d", points)
	}
	if len(userIDs) == 0 {
		return nil
	}
	err := fs.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		members, guild, err := fs.readForUpdate(tx, guildID, userIDs)
		if err != nil {
			return err
		}
		for _, member := range members {
			member.Attendance += points
		}
		return fs.writeMembers(tx, guildID, guild, members)
	})
	return wrapFirestoreErr("add attendance", err)
}

// readForUpdate performs every read a transaction needs up front, as
// firestore transactions reject reads after writes. Members that do not
// exist yet get the next sequence numbers.
func (fs *FirestoreStorage) readForUpdate(tx *firestore.Transaction, guildID string, userIDs []string) ([]*Member, *firestoreGuild, error) {
	guildDoc, err := tx.Get(fs.guildRef(guildID))
	if status.Code(err) == codes.NotFound {
		return nil, nil, ErrGuildNotRegistered
	}
	if err != nil {
		return nil, nil, err
	}
	var guild firestoreGuild
	if err := guildDoc.DataTo(&guild); err != nil {
		return nil, nil, fmt.Errorf("failed to convert document to guild: %v", err)
	}

	members := make([]*Member, 0, len(userIDs))
	for _, id := range userIDs {
		if err := GetValidator().Var(id, "required,snowflake"); err != nil {
			return nil, nil, fmt.Errorf("invalid user id %q: %v", id, err)
		}
		doc, err := tx.Get(fs.memberRef(guildID, id))
		switch {
		case status.Code(err) == codes.NotFound:
			members = append(members, &Member{UserID: id, Seq: guild.MemberCount})
			guild.MemberCount++
		case err != nil:
			return nil, nil, err
		default:
			var member Member
			if err := doc.DataTo(&member); err != nil {
				return nil, nil, fmt.Errorf("failed to convert document to member: %v", err)
			}
			members = append(members, &member)
		}
	}
	return members, &guild, nil
}

func (fs *FirestoreStorage) writeMembers(tx *firestore.Transaction, guildID string, guild *firestoreGuild, members []*Member) error {
	now := time.Now().UTC()
	for _, member := range members {
		member.UpdatedAt = now
		if err := tx.Set(fs.memberRef(guildID, member.UserID), member); err != nil {
			return err
		}
	}
	return tx.Set(fs.guildRef(guildID), guild)
}

func wrapFirestoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGuildNotRegistered) || errors.Is(err, ErrInsufficientBalance) {
		return err
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
