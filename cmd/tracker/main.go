package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-auth"
	"github.com/goliatone/go-command/cron"
	gconfig "github.com/goliatone/go-config/config"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-user-tracker/activity"
	"github.com/goliatone/go-user-tracker/adapter/goauth"
	"github.com/goliatone/go-user-tracker/adapter/stream"
	"github.com/goliatone/go-user-tracker/cmd/tracker/config"
	"github.com/goliatone/go-user-tracker/hooks"
	"github.com/goliatone/go-user-tracker/httpapi"
	"github.com/goliatone/go-user-tracker/jobs"
	"github.com/goliatone/go-user-tracker/metrics"
	"github.com/goliatone/go-user-tracker/migrations"
	"github.com/goliatone/go-user-tracker/options"
	"github.com/goliatone/go-user-tracker/pkg/telemetry/validation"
	"github.com/goliatone/go-user-tracker/pkg/types"
	"github.com/goliatone/go-user-tracker/presence"
	"github.com/goliatone/go-user-tracker/service"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.BaseConfig
	logger     *glog.BaseLogger
	db         *bun.DB
	dispatcher *hooks.Dispatcher
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	options    *options.Repository
	users      *goauth.Users
	sessions   *presence.SessionRegistry
	location   *time.Location
	service    *service.Service
	srv        router.Server[*fiber.App]
	protected  router.MiddlewareFunc
	sinks      []types.ActivitySink
	closers    []func() error
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func (a *App) typesLogger(name string) types.Logger {
	return &loggerAdapter{a.GetLogger(name)}
}

func main() {
	_ = godotenv.Load()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName("tracker"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	cfg := gconfig.New(&config.BaseConfig{
		Server: config.ServerConfig{
			Host:        "localhost",
			Port:        "8978",
			MetricsAddr: ":9108",
		},
		Auth: config.AuthConfig{
			SigningKey:            "changeme-secret-key-please-use-env-var",
			SigningMethod:         "HS256",
			ContextKey:            "user",
			TokenExpiration:       3600,
			ExtendedTokenDuration: 86400,
			TokenLookup:           "cookie:auth_token",
			AuthScheme:            "Bearer",
			Issuer:                "go-user-tracker",
			RejectedRouteKey:      "rejected_route",
			RejectedRouteDefault:  "/auth/login",
		},
		Persistence: config.PersistenceConfig{
			Driver:         "sqlite",
			Server:         "file:tracker.db?_journal_mode=WAL&cache=shared&_fk=1",
			PingTimeout:    5 * time.Second,
			OtelIdentifier: "go-user-tracker",
		},
		Tracker: config.TrackerConfig{
			RetentionDays:       7,
			ActiveWindowMinutes: 10,
			AdminLogLimit:       100,
			ExcludedLoginRole:   types.RoleSubscriber,
			Timezone:            "UTC",
			KafkaTopic:          stream.DefaultTopic,
			CacheOptions:        true,
		},
	}).WithLogger(lgr.GetLogger("config"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Load(ctx); err != nil {
		lgr.GetLogger("app").Error("config load failed", "error", err)
		os.Exit(1)
	}

	app := &App{
		config:     cfg.Raw(),
		logger:     lgr,
		dispatcher: hooks.NewDispatcher(),
		registry:   prometheus.NewRegistry(),
	}
	app.metrics = metrics.New(app.registry)
	defer app.close()

	if err := run(ctx, app); err != nil && !errors.Is(err, context.Canceled) {
		app.GetLogger("app").Error("tracker stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, app *App) error {
	steps := []func(context.Context, *App) error{
		WithPersistence,
		WithHTTPServer,
		WithHTTPAuth,
		WithActivitySinks,
		WithTrackerService,
		WithRoutes,
	}
	for _, step := range steps {
		if err := step(ctx, app); err != nil {
			return err
		}
	}

	runner := jobs.NewRunner(app.typesLogger("jobs"), cron.WithLocation(app.location))
	if err := app.service.RegisterJobs(runner); err != nil {
		return err
	}

	serverCfg := app.config.GetServer()
	addr := fmt.Sprintf("%s:%s", serverCfg.Host, serverCfg.Port)
	metricsSrv := &http.Server{
		Addr:              serverCfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{Registry: app.registry}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.GetLogger("app").Info("http server listening", "addr", addr)
		return app.srv.Serve(addr)
	})
	g.Go(func() error {
		app.GetLogger("app").Info("metrics server listening", "addr", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(app.srv.Shutdown(shutdownCtx), metricsSrv.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.GetLogger("app").Error("shutdown failed", "error", err)
		}
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config.GetPersistence()
	driver, sqlDriver, dialect, err := resolveDialect(cfg.GetDriver())
	if err != nil {
		return err
	}

	db, err := sql.Open(sqlDriver, cfg.GetServer())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*activity.LogEntry)(nil))
	persistence.RegisterModel((*presence.Entry)(nil))
	persistence.RegisterModel((*options.Record)(nil))

	bunClient, err := persistence.New(cfg, db, dialect)
	if err != nil {
		return err
	}
	bunClient.SetLogger(app.GetLogger("persistence"))

	for _, src := range migrations.Sources() {
		bunClient.RegisterDialectMigrations(
			src.FS,
			persistence.WithDialectSourceLabel("."),
			persistence.WithValidationTargets("postgres", "sqlite"),
		)
		app.GetLogger("persistence").Info("migrations registered", "source", src.Label, "driver", driver)
	}
	if err := bunClient.ValidateDialects(ctx); err != nil {
		app.GetLogger("persistence").Error("dialect validation failed", "error", err)
	}
	if err := bunClient.Migrate(ctx); err != nil {
		return err
	}

	app.db = bunClient.DB()
	app.closers = append(app.closers, app.db.Close)

	if err := migrations.ValidateSchema(ctx, app.db.DB, driver); err != nil {
		app.GetLogger("persistence").Error("schema validation failed", "error", err)
	}
	return nil
}

func resolveDialect(driver string) (string, string, schema.Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return "sqlite", "sqlite3", sqlitedialect.New(), nil
	case "postgres", "postgresql":
		return "postgres", "postgres", pgdialect.New(), nil
	default:
		return "", "", nil, fmt.Errorf("unsupported persistence driver %q", driver)
	}
}

func WithHTTPServer(_ context.Context, app *App) error {
	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return fiber.New(fiber.Config{
			UnescapePath:  true,
			StrictRouting: false,
		})
	})
	srv.Router().WithLogger(app.GetLogger("router"))
	app.srv = srv
	return nil
}

func WithHTTPAuth(_ context.Context, app *App) error {
	cfg := app.config.GetAuth()

	repo := auth.NewRepositoryManager(app.db)
	if err := repo.Validate(); err != nil {
		return err
	}
	app.users = goauth.NewUsers(repo.Users())
	app.sessions = presence.NewSessionRegistry(presence.DefaultSessionTTL, nil)

	// Successful logins are forwarded to the tracker's login hook.
	userTracker := goauth.NewLoginTracker(app.users, app.dispatcher, app.typesLogger("auth:login"))

	userProvider := auth.NewUserProvider(userTracker)
	userProvider.Validator = userTracker.Validate
	userProvider.WithLogger(app.GetLogger("auth:prv"))

	authenticator := auth.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(app.GetLogger("auth:authz"))

	httpAuth, err := auth.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		return err
	}
	httpAuth.WithLogger(app.GetLogger("auth:http"))
	httpAuth.WithValidationListeners(validation.NewListener(validation.ListenerOptions{
		Sessions: app.sessions,
		Logger:   app.typesLogger("auth:validation"),
	}))
	app.protected = httpAuth.ProtectedRoute(cfg, httpAuth.MakeClientRouteAuthErrorHandler(false))

	authRoutes := app.srv.Router().Group("/")
	authRoutes.Use(httpapi.RequestOrigin(nil))
	auth.RegisterAuthRoutes(authRoutes,
		func(ac *auth.AuthController) *auth.AuthController {
			ac.Auther = httpAuth
			ac.Repo = repo
			ac.WithLogger(app.GetLogger("auth:ctrl"))
			return ac
		})
	return nil
}

func WithActivitySinks(_ context.Context, app *App) error {
	audit := app.GetLogger("audit")
	app.sinks = append(app.sinks, types.ActivitySinkFunc(func(_ context.Context, record types.EventRecord) error {
		audit.Debug("activity recorded", "action", record.Action, "actor_id", record.ActorID.String(), "origin", record.OriginAddress)
		return nil
	}))

	trackerCfg := app.config.GetTracker()
	if len(trackerCfg.KafkaBrokers) == 0 {
		return nil
	}
	client, err := stream.NewClient(trackerCfg.KafkaBrokers)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, func() error {
		client.Close()
		return nil
	})
	publisher := stream.NewPublisher(client,
		stream.WithTopic(trackerCfg.KafkaTopic),
		stream.WithLogger(app.typesLogger("stream")),
	)
	app.sinks = append(app.sinks, publisher)
	app.GetLogger("stream").Info("activity export enabled", "topic", publisher.Topic())
	return nil
}

func WithTrackerService(ctx context.Context, app *App) error {
	trackerCfg := app.config.GetTracker()
	logger := app.typesLogger("tracker")

	eventStore, err := activity.NewRepository(activity.RepositoryConfig{DB: app.db})
	if err != nil {
		return err
	}

	optionRepo, err := options.NewRepository(options.RepositoryConfig{
		DB:         app.db,
		Dispatcher: app.dispatcher,
		Logger:     logger,
	}, options.WithCache(trackerCfg.CacheOptions))
	if err != nil {
		return err
	}
	app.options = optionRepo

	fileStore, err := options.NewFileWatchStore(optionRepo)
	if err != nil {
		return err
	}

	presenceRepo, err := newPresenceRepository(app, trackerCfg)
	if err != nil {
		return err
	}

	defaults := options.Settings{
		RetentionDays:        trackerCfg.RetentionDays,
		ActiveWindowMinutes:  trackerCfg.ActiveWindowMinutes,
		AdminLogLimit:        trackerCfg.AdminLogLimit,
		ScanRoots:            trackerCfg.ScanRoots,
		ExcludedLoginRole:    trackerCfg.ExcludedLoginRole,
		MaskSensitiveOptions: trackerCfg.MaskOptions,
	}
	resolver, err := options.NewSettingsResolver(options.SettingsResolverConfig{
		Options:  optionRepo,
		Defaults: &defaults,
	})
	if err != nil {
		return err
	}
	settings, err := resolver.Resolve(ctx)
	if err != nil {
		return err
	}

	location, err := trackerCfg.Location()
	if err != nil {
		return err
	}
	app.location = location

	svc := service.New(service.Config{
		EventStore:         eventStore,
		PresenceRepository: presenceRepo,
		FileWatchStore:     fileStore,
		Directory:          goauth.NewDirectory(app.users),
		Sessions:           app.sessions,
		Dispatcher:         app.dispatcher,
		Sinks:              app.sinks,
		Settings:           settings,
		Location:           location,
		Logger:             logger,
		Metrics:            app.metrics,
	})
	if err := svc.HealthCheck(ctx); err != nil {
		return err
	}
	app.service = svc
	return nil
}

func newPresenceRepository(app *App, cfg config.TrackerConfig) (types.PresenceRepository, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return presence.NewRepository(presence.RepositoryConfig{DB: app.db})
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	app.closers = append(app.closers, client.Close)
	app.GetLogger("presence").Info("presence stored in redis", "addr", opts.Addr)
	return presence.NewRedisRepository(client)
}

func WithRoutes(_ context.Context, app *App) error {
	commands := app.service.Commands()
	queries := app.service.Queries()
	handlers, err := httpapi.New(httpapi.Config{
		RecentActivity: queries.RecentActivity,
		ActivityStats:  queries.ActivityStats,
		ActivePresence: queries.ActivePresence,
		MarkPresence:   commands.PresenceMark,
		Dispatcher:     app.dispatcher,
		Logger:         app.typesLogger("http"),
	})
	if err != nil {
		return err
	}
	httpapi.Register(app.srv.Router(), handlers, app.protected)
	app.GetLogger("http").Info("tracker routes registered")
	return nil
}
