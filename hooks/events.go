package hooks

import (
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/google/uuid"
)

// Kind identifies a host-platform event.
type Kind string

const (
	KindLogin            Kind = "login"
	KindPostSaved        Kind = "post_saved"
	KindPostDeleting     Kind = "post_deleting"
	KindOptionUpdated    Kind = "option_updated"
	KindUserRegistered   Kind = "user_registered"
	KindProfileUpdated   Kind = "profile_updated"
	KindUserDeleted      Kind = "user_deleted"
	KindUpgradeCompleted Kind = "upgrade_completed"
	KindAdminInit        Kind = "admin_init"
)

// Kinds lists every event kind the dispatcher knows about.
func Kinds() []Kind {
	return []Kind{
		KindLogin,
		KindPostSaved,
		KindPostDeleting,
		KindOptionUpdated,
		KindUserRegistered,
		KindProfileUpdated,
		KindUserDeleted,
		KindUpgradeCompleted,
		KindAdminInit,
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Event is implemented by every payload emitted through the dispatcher.
type Event interface {
	Kind() Kind
}

// LoginEvent fires after a successful authentication.
type LoginEvent struct {
	Actor types.ActorRef
}

// Kind implements Event.
func (LoginEvent) Kind() Kind { return KindLogin }

// PostSavedEvent fires after a content item was saved.
type PostSavedEvent struct {
	PostID   int64  `json:"post_id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Update   bool   `json:"update"`
	Autosave bool   `json:"autosave"`
}

// Kind implements Event.
func (PostSavedEvent) Kind() Kind { return KindPostSaved }

// PostDeletingEvent fires right before a content item is deleted.
type PostDeletingEvent struct {
	PostID int64  `json:"post_id"`
	Title  string `json:"title"`
}

// Kind implements Event.
func (PostDeletingEvent) Kind() Kind { return KindPostDeleting }

// OptionUpdatedEvent fires when a configuration option changed.
type OptionUpdatedEvent struct {
	Option   string `json:"option"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// Kind implements Event.
func (OptionUpdatedEvent) Kind() Kind { return KindOptionUpdated }

// UserRegisteredEvent fires after an account was created.
type UserRegisteredEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

// Kind implements Event.
func (UserRegisteredEvent) Kind() Kind { return KindUserRegistered }

// ProfileUpdatedEvent fires after an account profile was updated.
type ProfileUpdatedEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

// Kind implements Event.
func (ProfileUpdatedEvent) Kind() Kind { return KindProfileUpdated }

// UserDeletedEvent fires when an account is deleted.
type UserDeletedEvent struct {
	UserID uuid.UUID `json:"user_id"`
}

// Kind implements Event.
func (UserDeletedEvent) Kind() Kind { return KindUserDeleted }

// Upgrade types and actions reported by the extension installer.
const (
	UpgradeTypePlugin    = "plugin"
	UpgradeTypeTheme     = "theme"
	UpgradeActionInstall = "install"
)

// UpgradeCompletedEvent fires after an extension install or removal.
type UpgradeCompletedEvent struct {
	Type    string   `json:"type"`
	Action  string   `json:"action"`
	Plugins []string `json:"plugins"`
	Themes  []string `json:"themes"`
}

// Kind implements Event.
func (UpgradeCompletedEvent) Kind() Kind { return KindUpgradeCompleted }

// AdminInitEvent fires on each administrative page load.
type AdminInitEvent struct {
	Actor types.ActorRef
}

// Kind implements Event.
func (AdminInitEvent) Kind() Kind { return KindAdminInit }
