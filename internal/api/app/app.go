package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/strideworks/fittrack/internal/api/domain"
	httpapi "github.com/strideworks/fittrack/internal/api/http"
	"github.com/strideworks/fittrack/internal/api/service"
	"github.com/strideworks/fittrack/internal/api/store"
	"github.com/strideworks/fittrack/internal/api/store/drivers/sqlite"
	"github.com/strideworks/fittrack/pkg/cryptox"
	"github.com/strideworks/fittrack/pkg/idx"
	"github.com/strideworks/fittrack/pkg/jwtx"
	"github.com/strideworks/fittrack/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the fitness tracker service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	redis *redis.Client

	authService *service.AuthService
	goals       *service.Registrar[domain.Goal]
	workouts    *service.Registrar[domain.Workout]
	reconciler  *service.ReconcilerService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "fittrack-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.reconciler.Start()

	app.logger.Info("fittrack api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down fittrack api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.reconciler.Stop()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("fittrack api stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	signer, err := jwtx.NewSignerHS256([]byte(app.cfg.JWTSecret))
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	var throttle *service.LoginThrottle
	if app.cfg.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		throttle = &service.LoginThrottle{Client: app.redis}
		app.logger.Info("login throttle enabled", "redis_addr", app.cfg.RedisAddr)
	} else {
		app.logger.Info("login throttle disabled, no redis address configured")
	}

	app.authService = &service.AuthService{
		Store:    app.db,
		Signer:   signer,
		Issuer:   app.cfg.Issuer,
		Throttle: throttle,
	}

	app.goals = &service.Registrar[domain.Goal]{
		Kind:     "goal",
		Users:    app.db.Users(),
		Children: app.db.Goals(),
		Attach:   app.db.Users().AttachGoal,
		Detach:   app.db.Users().DetachGoal,
		OwnedIDs: func(u domain.User) []idx.ID { return u.GoalIDs },
	}
	app.workouts = &service.Registrar[domain.Workout]{
		Kind:     "workout",
		Users:    app.db.Users(),
		Children: app.db.Workouts(),
		Attach:   app.db.Users().AttachWorkout,
		Detach:   app.db.Users().DetachWorkout,
		OwnedIDs: func(u domain.User) []idx.ID { return u.WorkoutIDs },
	}

	app.reconciler = service.NewReconcilerService(
		app.db,
		app.logger,
		app.cfg.ReconcileInterval,
	)

	return nil
}

func (app *Application) initHTTP() {
	verifier := jwtx.NewVerifierHS256([]byte(app.cfg.JWTSecret), app.cfg.Issuer)

	router := httpapi.NewRouter(verifier, BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.Goals = app.goals
	router.Workouts = app.workouts
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
