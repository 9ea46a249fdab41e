package capture

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-masker"
	"github.com/goliatone/go-user-tracker/activity"
	"github.com/goliatone/go-user-tracker/command"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/pkg/requestctx"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

const postStatusDraft = "draft"

// Config wires the adapters.
type Config struct {
	Events command.EventLogger
	Logger types.Logger
	// MaskSensitiveOptions masks values of options whose names look like
	// credentials. Off by default, so option changes are stored raw.
	MaskSensitiveOptions bool
	// Masker is used when MaskSensitiveOptions is set. Defaults to
	// activity.DefaultMasker.
	Masker *masker.Masker
	// ExcludedLoginRole suppresses login records for actors whose only role it is.
	// Defaults to types.RoleSubscriber.
	ExcludedLoginRole string
	// IgnoredOptions are never recorded, typically the tracker's own
	// bookkeeping options.
	IgnoredOptions []string
}

// Adapters holds the event handlers registered on a dispatcher.
type Adapters struct {
	events        command.EventLogger
	logger        types.Logger
	masker        *masker.Masker
	excludedRole  string
	ignoredOption map[string]struct{}
}

// New builds the adapter set.
func New(cfg Config) (*Adapters, error) {
	if cfg.Events == nil {
		return nil, command.ErrActivityLoggerRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	var mask *masker.Masker
	if cfg.MaskSensitiveOptions {
		mask = cfg.Masker
		if mask == nil {
			mask = activity.DefaultMasker()
		}
	}
	excluded := strings.TrimSpace(cfg.ExcludedLoginRole)
	if excluded == "" {
		excluded = types.RoleSubscriber
	}
	ignored := make(map[string]struct{}, len(cfg.IgnoredOptions))
	for _, name := range cfg.IgnoredOptions {
		if name = strings.TrimSpace(name); name != "" {
			ignored[name] = struct{}{}
		}
	}
	return &Adapters{
		events:        cfg.Events,
		logger:        logger,
		masker:        mask,
		excludedRole:  excluded,
		ignoredOption: ignored,
	}, nil
}

// Register attaches one handler per event kind.
func (a *Adapters) Register(dispatcher *hooks.Dispatcher) {
	if a == nil || dispatcher == nil {
		return
	}
	dispatcher.On(hooks.KindLogin, a.handleLogin)
	dispatcher.On(hooks.KindPostSaved, a.handlePostSaved)
	dispatcher.On(hooks.KindPostDeleting, a.handlePostDeleting)
	dispatcher.On(hooks.KindOptionUpdated, a.handleOptionUpdated)
	dispatcher.On(hooks.KindUserRegistered, a.handleUserRegistered)
	dispatcher.On(hooks.KindProfileUpdated, a.handleProfileUpdated)
	dispatcher.On(hooks.KindUserDeleted, a.handleUserDeleted)
	dispatcher.On(hooks.KindUpgradeCompleted, a.handleUpgradeCompleted)
}

func (a *Adapters) handleLogin(ctx context.Context, event hooks.Event) error {
	login, ok := event.(hooks.LoginEvent)
	if !ok {
		return nil
	}
	if onlyRole(login.Actor.Roles, a.excludedRole) {
		return nil
	}
	a.log(ctx, login.Actor.ID, types.ActionLogin, "")
	return nil
}

func (a *Adapters) handlePostSaved(ctx context.Context, event hooks.Event) error {
	post, ok := event.(hooks.PostSavedEvent)
	if !ok || post.Autosave {
		return nil
	}
	action := types.ActionPostCreated
	if post.Update {
		action = types.ActionPostUpdated
		if post.Status == postStatusDraft {
			action = types.ActionPostDrafted
		}
	}
	details := fmt.Sprintf("Post ID: %d, Title: %s, Status: %s", post.PostID, post.Title, post.Status)
	a.log(ctx, requestctx.ActorID(ctx), action, details)
	return nil
}

func (a *Adapters) handlePostDeleting(ctx context.Context, event hooks.Event) error {
	post, ok := event.(hooks.PostDeletingEvent)
	if !ok {
		return nil
	}
	details := fmt.Sprintf("Post ID: %d, Title: %s", post.PostID, post.Title)
	a.log(ctx, requestctx.ActorID(ctx), types.ActionPostDeleted, details)
	return nil
}

func (a *Adapters) handleOptionUpdated(ctx context.Context, event hooks.Event) error {
	option, ok := event.(hooks.OptionUpdatedEvent)
	if !ok {
		return nil
	}
	if _, ignored := a.ignoredOption[option.Option]; ignored {
		return nil
	}
	oldValue, newValue := option.OldValue, option.NewValue
	if a.masker != nil {
		oldValue = activity.SanitizeOptionValue(a.masker, option.Option, oldValue)
		newValue = activity.SanitizeOptionValue(a.masker, option.Option, newValue)
	}
	a.log(ctx, requestctx.ActorID(ctx), option.Option, OptionDetails(oldValue, newValue))
	return nil
}

func (a *Adapters) handleUserRegistered(ctx context.Context, event hooks.Event) error {
	user, ok := event.(hooks.UserRegisteredEvent)
	if !ok {
		return nil
	}
	a.log(ctx, user.UserID, types.ActionUserCreated, userDetails(user.UserID))
	return nil
}

func (a *Adapters) handleProfileUpdated(ctx context.Context, event hooks.Event) error {
	user, ok := event.(hooks.ProfileUpdatedEvent)
	if !ok {
		return nil
	}
	a.log(ctx, user.UserID, types.ActionUserUpdated, userDetails(user.UserID))
	return nil
}

func (a *Adapters) handleUserDeleted(ctx context.Context, event hooks.Event) error {
	user, ok := event.(hooks.UserDeletedEvent)
	if !ok {
		return nil
	}
	a.log(ctx, user.UserID, types.ActionUserDeleted, userDetails(user.UserID))
	return nil
}

func (a *Adapters) handleUpgradeCompleted(ctx context.Context, event hooks.Event) error {
	upgrade, ok := event.(hooks.UpgradeCompletedEvent)
	if !ok {
		return nil
	}
	install := upgrade.Action == hooks.UpgradeActionInstall
	var action, details string
	switch upgrade.Type {
	case hooks.UpgradeTypePlugin:
		action = types.ActionPluginDeleted
		if install {
			action = types.ActionPluginInstalled
		}
		details = strings.Join(upgrade.Plugins, ", ")
	case hooks.UpgradeTypeTheme:
		action = types.ActionThemeDeleted
		if install {
			action = types.ActionThemeInstalled
		}
		details = strings.Join(upgrade.Themes, ", ")
	default:
		return nil
	}
	a.log(ctx, requestctx.ActorID(ctx), action, details)
	return nil
}

func (a *Adapters) log(ctx context.Context, actorID uuid.UUID, action, details string) {
	if err := a.events.Log(ctx, actorID, action, details); err != nil {
		a.logger.Error("capture log failed", err, "action", action)
	}
}

// onlyRole reports whether roles is exactly {role} after normalization.
func onlyRole(roles []string, role string) bool {
	roles = types.NormalizeRoles(roles)
	return len(roles) == 1 && types.HasRole(roles, role)
}

func userDetails(id uuid.UUID) string {
	return "User ID: " + id.String()
}

// OptionDetails renders the detail markup for a configuration change with
// both values JSON encoded.
func OptionDetails(oldValue, newValue any) string {
	return "<div>Setting Updated</div> " +
		"<div><label>OLD: </label><br /><textarea style='resize:none' rows='3' readonly>" + encodeJSON(oldValue) + "</textarea></div> " +
		"<div><label>New: </label><br /><textarea style='resize:none' rows='3' readonly>" + encodeJSON(newValue) + "</textarea></div>"
}

func encodeJSON(value any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
