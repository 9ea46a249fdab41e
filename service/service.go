package service

import (
	"context"
	"strings"
	"time"

	featuregate "github.com/goliatone/go-featuregate/gate"
	"github.com/goliatone/go-user-tracker/capture"
	"github.com/goliatone/go-user-tracker/command"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/jobs"
	"github.com/goliatone/go-user-tracker/options"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/goliatone/go-user-tracker/presence"
	"github.com/goliatone/go-user-tracker/query"
)

// Service is the entry point for go-user-tracker. It wires the stores
// supplied by the host application to the dispatcher, the capture adapters,
// and the command/query facades.
type Service struct {
	cfg        Config
	dispatcher *hooks.Dispatcher
	sessions   *presence.SessionRegistry
	tracker    types.PresenceTracker
	adapters   *capture.Adapters
	commands   Commands
	queries    Queries
}

// Commands exposes the service command handlers.
type Commands struct {
	LogActivity    *command.ActivityLogCommand
	RetentionSweep *command.RetentionSweepCommand
	PresenceMark   *command.PresenceMarkCommand
	PresenceTick   *command.PresenceTickCommand
	CodeScan       *command.CodeScanCommand
}

// Queries exposes read-model helpers.
type Queries struct {
	RecentActivity *query.RecentActivityQuery
	ActivityStats  *query.ActivityStatsQuery
	ActivePresence *query.ActivePresenceQuery
}

// Config captures all required dependencies so callers can provide their own
// instances (bun repositories, redis presence, cached option stores).
type Config struct {
	EventStore         types.EventStore
	PresenceRepository types.PresenceRepository
	FileWatchStore     types.FileWatchStore
	Directory          types.ActorDirectory
	// Dispatcher is shared with the option store and the transports. A new
	// one is created when nil.
	Dispatcher *hooks.Dispatcher
	// Sessions feeds the presence tick. Defaults to a registry with
	// presence.DefaultSessionTTL.
	Sessions *presence.SessionRegistry
	Sinks    []types.ActivitySink
	Settings options.Settings
	// Location renders last_active timestamps. Defaults to UTC.
	Location    *time.Location
	FeatureGate featuregate.FeatureGate
	Clock       types.Clock
	Logger      types.Logger
	Metrics     types.Metrics
}

// New constructs a Service from the supplied configuration.
func New(cfg Config) *Service {
	norm := normalizeConfig(cfg)
	s := &Service{
		cfg:        norm,
		dispatcher: norm.Dispatcher,
		sessions:   norm.Sessions,
	}
	if norm.PresenceRepository != nil {
		if tracker, err := presence.NewTracker(norm.PresenceRepository, norm.Clock); err == nil {
			s.tracker = tracker
		} else {
			norm.Logger.Error("go-user-tracker: presence tracker initialization failed", err)
		}
	}
	s.commands = s.buildCommands()
	s.queries = s.buildQueries()

	adapters, err := capture.New(capture.Config{
		Events:               s.commands.LogActivity,
		Logger:               norm.Logger,
		ExcludedLoginRole:    norm.Settings.ExcludedLoginRole,
		MaskSensitiveOptions: norm.Settings.MaskSensitiveOptions,
		IgnoredOptions:       []string{options.FileTimesOption, options.SettingsOption},
	})
	if err != nil {
		norm.Logger.Error("go-user-tracker: capture adapters initialization failed", err)
	} else {
		s.adapters = adapters
		adapters.Register(s.dispatcher)
	}
	s.dispatcher.On(hooks.KindAdminInit, s.handleAdminInit)
	return s
}

func normalizeConfig(cfg Config) Config {
	if cfg.Clock == nil {
		cfg.Clock = types.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = types.NopLogger{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = types.NopMetrics{}
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = hooks.NewDispatcher()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = presence.NewSessionRegistry(presence.DefaultSessionTTL, cfg.Clock)
	}
	cfg.Settings = normalizeSettings(cfg.Settings)
	return cfg
}

func normalizeSettings(s options.Settings) options.Settings {
	defaults := options.DefaultSettings()
	if s.RetentionDays <= 0 {
		s.RetentionDays = defaults.RetentionDays
	}
	if s.ActiveWindowMinutes <= 0 {
		s.ActiveWindowMinutes = defaults.ActiveWindowMinutes
	}
	if s.AdminLogLimit <= 0 {
		s.AdminLogLimit = defaults.AdminLogLimit
	}
	if strings.TrimSpace(s.ExcludedLoginRole) == "" {
		s.ExcludedLoginRole = defaults.ExcludedLoginRole
	}
	return s
}

func (s *Service) buildCommands() Commands {
	cfg := s.cfg
	logCmd := command.NewActivityLogCommand(command.ActivityLogConfig{
		Store:   cfg.EventStore,
		Sinks:   cfg.Sinks,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	pruner, _ := cfg.PresenceRepository.(types.PresencePruner)
	return Commands{
		LogActivity: logCmd,
		RetentionSweep: command.NewRetentionSweepCommand(command.RetentionSweepConfig{
			Store:     cfg.EventStore,
			Retention: cfg.Settings.Retention(),
			Logger:    cfg.Logger,
			Metrics:   cfg.Metrics,
		}),
		PresenceMark: command.NewPresenceMarkCommand(s.tracker),
		PresenceTick: command.NewPresenceTickCommand(command.PresenceTickConfig{
			Sessions: s.sessions,
			Tracker:  s.tracker,
			Pruner:   pruner,
			Clock:    cfg.Clock,
			Logger:   cfg.Logger,
		}),
		CodeScan: command.NewCodeScanCommand(command.CodeScanConfig{
			Store:       cfg.FileWatchStore,
			Events:      logCmd,
			Roots:       cfg.Settings.ScanRoots,
			FeatureGate: cfg.FeatureGate,
			Logger:      cfg.Logger,
			Metrics:     cfg.Metrics,
		}),
	}
}

func (s *Service) buildQueries() Queries {
	cfg := s.cfg
	var statsReader types.ActivityStatsReader
	if reader, ok := cfg.EventStore.(types.ActivityStatsReader); ok {
		statsReader = reader
	}
	return Queries{
		RecentActivity: query.NewRecentActivityQuery(query.RecentActivityConfig{
			Store:     cfg.EventStore,
			Directory: cfg.Directory,
			Limit:     cfg.Settings.AdminLogLimit,
			Logger:    cfg.Logger,
		}),
		ActivityStats: query.NewActivityStatsQuery(statsReader),
		ActivePresence: query.NewActivePresenceQuery(query.ActivePresenceConfig{
			Tracker:   s.tracker,
			Directory: cfg.Directory,
			Window:    cfg.Settings.ActiveWindow(),
			Location:  cfg.Location,
			Logger:    cfg.Logger,
			Metrics:   cfg.Metrics,
		}),
	}
}

// handleAdminInit records the admin session for presence ticks and runs the
// code scan. Failures are logged.
func (s *Service) handleAdminInit(ctx context.Context, event hooks.Event) error {
	adminInit, ok := event.(hooks.AdminInitEvent)
	if !ok || adminInit.Actor.IsZero() {
		return nil
	}
	s.sessions.Observe(adminInit.Actor)
	if s.cfg.FileWatchStore == nil {
		return nil
	}
	if err := s.commands.CodeScan.Execute(ctx, command.CodeScanInput{ActorID: adminInit.Actor.ID}); err != nil {
		s.cfg.Logger.Error("code scan failed", err, "actor_id", adminInit.Actor.ID.String())
	}
	return nil
}

// RegisterJobs schedules the daily retention sweep and the per-minute
// presence tick.
func (s *Service) RegisterJobs(runner *jobs.Runner) error {
	if err := runner.Schedule(jobs.RetentionSweep, jobs.Daily, func(ctx context.Context) error {
		return s.commands.RetentionSweep.Execute(ctx, command.RetentionSweepInput{})
	}); err != nil {
		return err
	}
	return runner.Schedule(jobs.PresenceTick, jobs.EveryMinute, func(ctx context.Context) error {
		return s.commands.PresenceTick.Execute(ctx, command.PresenceTickInput{})
	})
}

// Dispatcher returns the hook dispatcher the capture adapters listen on.
func (s *Service) Dispatcher() *hooks.Dispatcher {
	return s.dispatcher
}

// Sessions returns the admin session registry.
func (s *Service) Sessions() *presence.SessionRegistry {
	return s.sessions
}

// Settings returns the effective settings.
func (s *Service) Settings() options.Settings {
	return s.cfg.Settings
}

// Commands returns the command facade.
func (s *Service) Commands() Commands {
	return s.commands
}

// Queries returns the query facade.
func (s *Service) Queries() Queries {
	return s.queries
}

// Ready reports whether the service has the required dependencies wired in.
func (s *Service) Ready() bool {
	return s != nil &&
		s.cfg.EventStore != nil &&
		s.tracker != nil &&
		s.cfg.FileWatchStore != nil &&
		s.cfg.Directory != nil &&
		s.adapters != nil
}

// HealthCheck surfaces missing configuration so transports can fail fast.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s == nil {
		return types.ErrServiceNotReady
	}
	if s.cfg.EventStore == nil {
		return types.ErrMissingEventStore
	}
	if s.cfg.PresenceRepository == nil {
		return types.ErrMissingPresenceRepository
	}
	if s.tracker == nil {
		return types.ErrMissingPresenceTracker
	}
	if s.cfg.FileWatchStore == nil {
		return types.ErrMissingFileWatchStore
	}
	if s.cfg.Directory == nil {
		return types.ErrMissingActorDirectory
	}
	if !s.Ready() {
		return types.ErrServiceNotReady
	}
	return ctx.Err()
}
