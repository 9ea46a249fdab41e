package types

// Action vocabulary stored in EventRecord.Action. Configuration changes use
// the option name itself as the action, so the vocabulary is open-ended.
const (
	ActionLogin           = "login"
	ActionPostCreated     = "post_created"
	ActionPostUpdated     = "post_updated"
	ActionPostDrafted     = "post_drafted"
	ActionPostDeleted     = "post_deleted"
	ActionUserCreated     = "user_created"
	ActionUserUpdated     = "user_updated"
	ActionUserDeleted     = "user_deleted"
	ActionPluginInstalled = "plugin_installed"
	ActionPluginDeleted   = "plugin_deleted"
	ActionThemeInstalled  = "theme_installed"
	ActionThemeDeleted    = "theme_deleted"
	ActionCodeModified    = "code_modified"
)

// MaxActionLength mirrors the width of the action column.
const MaxActionLength = 50

// KnownActions lists the fixed part of the action vocabulary.
func KnownActions() []string {
	return []string{
		ActionLogin,
		ActionPostCreated,
		ActionPostUpdated,
		ActionPostDrafted,
		ActionPostDeleted,
		ActionUserCreated,
		ActionUserUpdated,
		ActionUserDeleted,
		ActionPluginInstalled,
		ActionPluginDeleted,
		ActionThemeInstalled,
		ActionThemeDeleted,
		ActionCodeModified,
	}
}
