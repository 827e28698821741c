package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/sundayezeilo/teenyurl/internal/config"
	"github.com/sundayezeilo/teenyurl/internal/db/migrations"
	db "github.com/sundayezeilo/teenyurl/internal/db/sqlc"
	"github.com/sundayezeilo/teenyurl/internal/server"
	"github.com/sundayezeilo/teenyurl/internal/shortener"
)

// App holds the application dependencies and configuration.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Server  *server.Server
	Handler *shortener.Handler

	closers []func() error
}

// New initializes and returns a new App instance with all dependencies wired up.
// envFile names a dotenv file to load first; empty means the optional .env of
// development and test environments.
func New(ctx context.Context, envFile string) (*App, error) {
	cfg, logger, err := loadConfig(envFile)
	if err != nil {
		return nil, err
	}

	logger.Info("starting application",
		"env", cfg.App.Environment,
		"version", cfg.Observability.ServiceVersion,
		"storage", cfg.Storage.Driver,
	)

	a := &App{Config: cfg, Logger: logger}

	repo, err := a.openRepository(ctx)
	if err != nil {
		_ = a.Shutdown()
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}

	svc := shortener.NewService(repo, &shortener.ServiceConfig{
		KeyLength:     cfg.Shortener.KeyLength,
		KeyMaxRetries: cfg.Shortener.KeyMaxRetries,
	})
	a.Handler = shortener.NewHandler(shortener.HandlerConfig{
		Service: svc,
		Logger:  logger,
		BaseURL: cfg.Server.BaseURL,
	})
	a.Server = server.New(cfg, logger, a.Handler)

	logger.Info("application initialized",
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)
	return a, nil
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if err := a.Server.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown releases storage resources in reverse order of acquisition.
func (a *App) Shutdown() error {
	a.Logger.Info("shutting down application")

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Migrate applies pending postgres migrations and returns. It is a no-op for
// the other drivers, whose schema is created on open.
func Migrate(ctx context.Context, envFile string) error {
	cfg, logger, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.DriverPostgres {
		logger.Info("nothing to migrate", "storage", cfg.Storage.Driver)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Storage.ConnectTimeout)
	defer cancel()
	return migrations.Up(ctx, logger, cfg.Storage.Database.ConnectionString())
}

func loadConfig(envFile string) (*config.Config, *slog.Logger, error) {
	loaded, err := loadEnv(envFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(os.Stdout, cfg.App.LogLevel, cfg.App.LogFormat)
	if loaded != "" {
		logger.Debug("loaded environment file", "path", loaded)
	}
	return cfg, logger, nil
}

// loadEnv loads envFile when given. Otherwise a .env in the working directory
// is loaded in development and test environments, if present.
func loadEnv(envFile string) (string, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return "", err
		}
		return envFile, nil
	}

	env := os.Getenv("APP_ENV")
	if env != "development" && env != "test" {
		return "", nil
	}
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	return ".env", nil
}

// setupLogger creates a structured logger based on the log level and format.
func setupLogger(w io.Writer, level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openRepository builds the link store selected by STORAGE_DRIVER and
// registers its cleanup.
func (a *App) openRepository(ctx context.Context) (shortener.Repository, error) {
	switch a.Config.Storage.Driver {
	case config.DriverPostgres:
		pool, err := connectDatabase(ctx, a.Config, a.Logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			pool.Close()
			a.Logger.Info("database connection closed")
			return nil
		})

		if err := migrations.Up(ctx, a.Logger, a.Config.Storage.Database.ConnectionString()); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return shortener.NewRepository(db.New(pool), nil), nil

	case config.DriverSQLite:
		conn, err := shortener.OpenSQLite(ctx, a.Config.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, conn.Close)
		a.Logger.Info("opened sqlite database", "path", a.Config.Storage.SQLitePath)
		return shortener.NewSQLiteRepository(conn, nil), nil

	case config.DriverMemory:
		a.Logger.Warn("using in-memory storage, links are lost on restart")
		return shortener.NewMemoryRepository(nil), nil
	}
	return nil, fmt.Errorf("unknown storage driver: %s", a.Config.Storage.Driver)
}

// connectDatabase establishes a connection pool to PostgreSQL, retrying the
// initial ping with exponential backoff until the connect timeout elapses.
func connectDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbCfg := cfg.Storage.Database

	poolConfig, err := pgxpool.ParseConfig(dbCfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = dbCfg.MaxConns
	poolConfig.MinConns = dbCfg.MinConns

	logger.Info("connecting to database",
		"host", dbCfg.Host,
		"port", dbCfg.Port,
		"database", dbCfg.Name,
	)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Storage.ConnectTimeout)
	defer cancel()

	policy := backoff.WithContext(backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(0)), pingCtx)
	err = backoff.RetryNotify(func() error {
		return pool.Ping(pingCtx)
	}, policy, func(err error, next time.Duration) {
		logger.Warn("database not ready", "error", err, "backoff", next)
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established")
	return pool, nil
}
