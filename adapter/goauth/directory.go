package goauth

import (
	"context"
	"strings"

	auth "github.com/goliatone/go-auth"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// UserReader is the subset of auth.Users the directory needs.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
}

// Users adapts the go-auth user repository, whose lookups take optional
// select criteria, to the narrower UserTracker and UserReader contracts.
type Users struct {
	repo auth.Users
}

// NewUsers wraps a go-auth user repository.
func NewUsers(repo auth.Users) *Users {
	return &Users{repo: repo}
}

var (
	_ UserTracker = (*Users)(nil)
	_ UserReader  = (*Users)(nil)
)

func (u *Users) GetByID(ctx context.Context, id string) (*auth.User, error) {
	return u.repo.GetByID(ctx, id)
}

func (u *Users) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return u.repo.GetByIdentifier(ctx, identifier)
}

func (u *Users) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return u.repo.TrackAttemptedLogin(ctx, user)
}

func (u *Users) TrackSucccessfulLogin(ctx context.Context, user *auth.User) error {
	return u.repo.TrackSucccessfulLogin(ctx, user)
}

// Directory resolves tracker actors from go-auth user records.
type Directory struct {
	users UserReader
}

// NewDirectory wraps a go-auth user repository.
func NewDirectory(users UserReader) *Directory {
	return &Directory{users: users}
}

var _ types.ActorDirectory = (*Directory)(nil)

// GetActor loads the account by id. Missing accounts resolve to nil without
// error so callers can fall back to a placeholder name.
func (d *Directory) GetActor(ctx context.Context, id uuid.UUID) (*types.Actor, error) {
	if d == nil || d.users == nil {
		return nil, types.ErrMissingActorDirectory
	}
	if id == uuid.Nil {
		return nil, nil
	}
	record, err := d.users.GetByID(ctx, id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return ActorFromUser(record), nil
}

// ActorFromUser converts the go-auth user model into a tracker actor.
func ActorFromUser(user *auth.User) *types.Actor {
	if user == nil {
		return nil
	}
	return &types.Actor{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: displayName(user),
		Roles:       types.NormalizeRoles([]string{string(user.Role)}),
	}
}

// ActorRefFromUser builds the actor reference recorded on login.
func ActorRefFromUser(user *auth.User) types.ActorRef {
	if user == nil {
		return types.ActorRef{}
	}
	return types.ActorRef{
		ID:    user.ID,
		Roles: types.NormalizeRoles([]string{string(user.Role)}),
	}
}

func displayName(user *auth.User) string {
	name := strings.TrimSpace(strings.TrimSpace(user.FirstName) + " " + strings.TrimSpace(user.LastName))
	if name != "" {
		return name
	}
	return user.Username
}
