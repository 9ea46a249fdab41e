package config

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-persistence-bun"
)

// BaseConfig holds all configuration for the tracker binary
type BaseConfig struct {
	Server      ServerConfig      `json:"server"`
	Auth        AuthConfig        `json:"auth"`
	Persistence PersistenceConfig `json:"persistence"`
	Tracker     TrackerConfig     `json:"tracker"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        string `json:"port" env:"SERVER_PORT" default:"8978"`
	Host        string `json:"host" env:"SERVER_HOST" default:"localhost"`
	MetricsAddr string `json:"metrics_addr" env:"METRICS_ADDR" default:":9108"`
}

// AuthConfig implements auth.Config interface
type AuthConfig struct {
	SigningKey            string   `json:"signing_key" env:"AUTH_SIGNING_KEY" default:"changeme-secret-key"`
	SigningMethod         string   `json:"signing_method" default:"HS256"`
	ContextKey            string   `json:"context_key" default:"user"`
	TokenExpiration       int      `json:"token_expiration" default:"3600"`
	ExtendedTokenDuration int      `json:"extended_token_duration" default:"86400"`
	TokenLookup           string   `json:"token_lookup" default:"cookie:auth_token"`
	AuthScheme            string   `json:"auth_scheme" default:"Bearer"`
	Issuer                string   `json:"issuer" default:"go-user-tracker"`
	Audience              []string `json:"audience"`
	RejectedRouteKey      string   `json:"rejected_route_key" default:"rejected_route"`
	RejectedRouteDefault  string   `json:"rejected_route_default" default:"/auth/login"`
}

func (c AuthConfig) GetSigningKey() string           { return c.SigningKey }
func (c AuthConfig) GetSigningMethod() string        { return c.SigningMethod }
func (c AuthConfig) GetContextKey() string           { return c.ContextKey }
func (c AuthConfig) GetTokenExpiration() int         { return c.TokenExpiration }
func (c AuthConfig) GetExtendedTokenDuration() int   { return c.ExtendedTokenDuration }
func (c AuthConfig) GetTokenLookup() string          { return c.TokenLookup }
func (c AuthConfig) GetAuthScheme() string           { return c.AuthScheme }
func (c AuthConfig) GetIssuer() string               { return c.Issuer }
func (c AuthConfig) GetAudience() []string           { return c.Audience }
func (c AuthConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c AuthConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

// PersistenceConfig implements persistence.Config interface. Driver is
// either "sqlite" or "postgres".
type PersistenceConfig struct {
	Debug          bool          `json:"debug" env:"DB_DEBUG" default:"false"`
	Driver         string        `json:"driver" env:"DB_DRIVER" default:"sqlite"`
	Server         string        `json:"server" env:"DB_SERVER" default:"file:tracker.db?_journal_mode=WAL&cache=shared&_fk=1"`
	PingTimeout    time.Duration `json:"ping_timeout" default:"5s"`
	OtelIdentifier string        `json:"otel_identifier" default:"go-user-tracker"`
}

func (c PersistenceConfig) GetDebug() bool                { return c.Debug }
func (c PersistenceConfig) GetDriver() string             { return c.Driver }
func (c PersistenceConfig) GetServer() string             { return c.Server }
func (c PersistenceConfig) GetPingTimeout() time.Duration { return c.PingTimeout }
func (c PersistenceConfig) GetOtelIdentifier() string     { return c.OtelIdentifier }

// TrackerConfig holds the audit pipeline settings. Values stored in the
// tracker_settings option override these defaults at startup.
type TrackerConfig struct {
	RetentionDays       int      `json:"retention_days" env:"TRACKER_RETENTION_DAYS" default:"7"`
	ActiveWindowMinutes int      `json:"active_window_minutes" env:"TRACKER_ACTIVE_WINDOW_MINUTES" default:"10"`
	AdminLogLimit       int      `json:"admin_log_limit" env:"TRACKER_ADMIN_LOG_LIMIT" default:"100"`
	ExcludedLoginRole   string   `json:"excluded_login_role" env:"TRACKER_EXCLUDED_LOGIN_ROLE" default:"subscriber"`
	ScanRoots           []string `json:"scan_roots"`
	Timezone            string   `json:"timezone" env:"TRACKER_TIMEZONE" default:"UTC"`
	RedisURL            string   `json:"redis_url" env:"TRACKER_REDIS_URL"`
	KafkaBrokers        []string `json:"kafka_brokers"`
	KafkaTopic          string   `json:"kafka_topic" env:"TRACKER_KAFKA_TOPIC" default:"tracker.activity"`
	CacheOptions        bool     `json:"cache_options" env:"TRACKER_CACHE_OPTIONS" default:"true"`
	MaskOptions         bool     `json:"mask_sensitive_options" env:"TRACKER_MASK_SENSITIVE_OPTIONS" default:"false"`
}

// Location resolves the display timezone.
func (c TrackerConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// GetAuth returns auth config
func (c *BaseConfig) GetAuth() auth.Config {
	return c.Auth
}

// GetPersistence returns persistence config
func (c *BaseConfig) GetPersistence() persistence.Config {
	return c.Persistence
}

// GetServer returns server config
func (c *BaseConfig) GetServer() ServerConfig {
	return c.Server
}

// GetTracker returns the tracker settings
func (c *BaseConfig) GetTracker() TrackerConfig {
	return c.Tracker
}

// Validate implements config.Validable interface
func (c *BaseConfig) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Persistence.Driver)) {
	case "sqlite", "sqlite3", "postgres", "postgresql":
	default:
		return errors.New("config: persistence.driver must be sqlite or postgres")
	}
	if _, err := c.Tracker.Location(); err != nil {
		return err
	}
	return nil
}
