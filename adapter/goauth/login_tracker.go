package goauth

import (
	"context"
	"strings"

	auth "github.com/goliatone/go-auth"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

const textCodeInvalidRole = "INVALID_ROLE"

// UserTracker mirrors the go-auth login tracking contract used by
// auth.NewUserProvider.
type UserTracker interface {
	GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error)
	TrackAttemptedLogin(ctx context.Context, user *auth.User) error
	TrackSucccessfulLogin(ctx context.Context, user *auth.User) error
}

// LoginValidator decides whether an authenticated user may open a session.
type LoginValidator func(*auth.User) error

// LoginTracker decorates a go-auth user tracker and emits the login hook
// after each successful authentication.
type LoginTracker struct {
	next       UserTracker
	dispatcher *hooks.Dispatcher
	logger     types.Logger
	validate   LoginValidator
}

// LoginTrackerOption customizes the tracker.
type LoginTrackerOption func(*LoginTracker)

// WithValidator replaces DefaultLoginValidator.
func WithValidator(fn LoginValidator) LoginTrackerOption {
	return func(t *LoginTracker) {
		if fn != nil {
			t.validate = fn
		}
	}
}

// NewLoginTracker wraps next. A nil logger discards hook failures.
func NewLoginTracker(next UserTracker, dispatcher *hooks.Dispatcher, logger types.Logger, opts ...LoginTrackerOption) *LoginTracker {
	if logger == nil {
		logger = types.NopLogger{}
	}
	t := &LoginTracker{
		next:       next,
		dispatcher: dispatcher,
		logger:     logger,
		validate:   DefaultLoginValidator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

var (
	_ UserTracker      = (*LoginTracker)(nil)
	_ auth.UserTracker = (*LoginTracker)(nil)
)

// DefaultLoginValidator accepts the go-auth roles plus the tracker's own
// administrator and subscriber roles.
func DefaultLoginValidator(user *auth.User) error {
	if user == nil {
		return auth.ErrIdentityNotFound
	}
	switch strings.ToLower(strings.TrimSpace(string(user.Role))) {
	case string(auth.RoleOwner), string(auth.RoleAdmin), string(auth.RoleMember), string(auth.RoleGuest),
		types.RoleAdministrator, types.RoleSubscriber:
		return nil
	}
	return errors.New("user has an unknown or invalid role", errors.CategoryAuth).
		WithTextCode(textCodeInvalidRole).
		WithMetadata(map[string]any{"role": string(user.Role), "user_id": user.ID.String()})
}

// Validate runs the login validator. Install it as auth.UserProvider.Validator
// so go-auth rejects exactly the users the tracker skips.
func (t *LoginTracker) Validate(user *auth.User) error {
	return t.validate(user)
}

// GetByIdentifier delegates to the wrapped tracker.
func (t *LoginTracker) GetByIdentifier(ctx context.Context, identifier string) (*auth.User, error) {
	return t.next.GetByIdentifier(ctx, identifier)
}

// TrackAttemptedLogin delegates to the wrapped tracker.
func (t *LoginTracker) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	return t.next.TrackAttemptedLogin(ctx, user)
}

// TrackSucccessfulLogin records the login upstream and then emits the login
// hook. go-auth calls it before its own role validation, so users the
// validator rejects are not reported. Hook failures never fail the
// authentication.
func (t *LoginTracker) TrackSucccessfulLogin(ctx context.Context, user *auth.User) error {
	if err := t.next.TrackSucccessfulLogin(ctx, user); err != nil {
		return err
	}
	if err := t.validate(user); err != nil {
		t.logger.Debug("login hook skipped for rejected user", "error", err.Error())
		return nil
	}
	actor := ActorRefFromUser(user)
	if actor.IsZero() {
		return nil
	}
	if err := t.dispatcher.Emit(ctx, hooks.LoginEvent{Actor: actor}); err != nil {
		t.logger.Error("login hook failed", err, "actor_id", actor.ID.String())
	}
	return nil
}
