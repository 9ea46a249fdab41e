package options

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	opts "github.com/goliatone/go-options"
	"github.com/goliatone/go-user-tracker/pkg/types"
)

// SettingsOption holds site overrides for the tracker settings.
const SettingsOption = "tracker_settings"

// Settings are the effective tracker knobs.
type Settings struct {
	RetentionDays        int      `json:"retention_days"`
	ActiveWindowMinutes  int      `json:"active_window_minutes"`
	AdminLogLimit        int      `json:"admin_log_limit"`
	ScanRoots            []string `json:"scan_roots"`
	ExcludedLoginRole    string   `json:"excluded_login_role"`
	// MaskSensitiveOptions masks credential-like option values in the log.
	MaskSensitiveOptions bool     `json:"mask_sensitive_options"`
}

// DefaultSettings mirrors the behavior of the tracker without overrides.
func DefaultSettings() Settings {
	return Settings{
		RetentionDays:       7,
		ActiveWindowMinutes: 10,
		AdminLogLimit:       100,
		ExcludedLoginRole:   types.RoleSubscriber,
	}
}

// Retention returns the retention window.
func (s Settings) Retention() time.Duration {
	return time.Duration(s.RetentionDays) * 24 * time.Hour
}

// ActiveWindow returns the presence window.
func (s Settings) ActiveWindow() time.Duration {
	return time.Duration(s.ActiveWindowMinutes) * time.Minute
}

// SettingsResolverConfig wires the resolver.
type SettingsResolverConfig struct {
	Options  types.OptionStore
	Defaults *Settings
}

// SettingsResolver merges the defaults with the stored override via
// go-options. The stored layer wins over the defaults layer.
type SettingsResolver struct {
	options  types.OptionStore
	defaults Settings
}

// NewSettingsResolver constructs the resolver.
func NewSettingsResolver(cfg SettingsResolverConfig) (*SettingsResolver, error) {
	if cfg.Options == nil {
		return nil, types.ErrMissingOptionStore
	}
	defaults := DefaultSettings()
	if cfg.Defaults != nil {
		defaults = *cfg.Defaults
	}
	return &SettingsResolver{
		options:  cfg.Options,
		defaults: defaults,
	}, nil
}

// Resolve returns the effective settings.
func (r *SettingsResolver) Resolve(ctx context.Context) (Settings, error) {
	base, err := toMap(r.defaults)
	if err != nil {
		return Settings{}, err
	}
	override := map[string]any{}
	raw, found, err := r.options.GetOption(ctx, SettingsOption)
	if err != nil {
		return Settings{}, err
	}
	if found {
		typed, ok := raw.(map[string]any)
		if !ok {
			return Settings{}, errors.New("options: tracker settings must be an object")
		}
		override = typed
	}

	defaultsScope := opts.NewScope("defaults", opts.ScopePrioritySystem, opts.WithScopeLabel("Defaults"))
	siteScope := opts.NewScope("site", opts.ScopePriorityTenant, opts.WithScopeLabel("Site"))
	stack, err := opts.NewStack(
		opts.NewLayer(defaultsScope, base),
		opts.NewLayer(siteScope, override),
	)
	if err != nil {
		return Settings{}, err
	}
	merged, err := stack.Merge()
	if err != nil {
		return Settings{}, err
	}

	var out Settings
	if err := fromMap(merged.Value, &out); err != nil {
		return Settings{}, err
	}
	return normalizeSettings(out, r.defaults), nil
}

// Save stores the override layer.
func (r *SettingsResolver) Save(ctx context.Context, settings Settings) error {
	payload, err := toMap(settings)
	if err != nil {
		return err
	}
	return r.options.UpdateOption(ctx, SettingsOption, payload)
}

func normalizeSettings(s, defaults Settings) Settings {
	if s.RetentionDays <= 0 {
		s.RetentionDays = defaults.RetentionDays
	}
	if s.ActiveWindowMinutes <= 0 {
		s.ActiveWindowMinutes = defaults.ActiveWindowMinutes
	}
	if s.AdminLogLimit <= 0 {
		s.AdminLogLimit = defaults.AdminLogLimit
	}
	if s.ExcludedLoginRole == "" {
		s.ExcludedLoginRole = defaults.ExcludedLoginRole
	}
	return s
}

func toMap(settings Settings) (map[string]any, error) {
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromMap(values map[string]any, dest *Settings) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
