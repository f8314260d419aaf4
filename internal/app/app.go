// Package app wires storage, the ledger engine, the catalog and the service
// together from configuration. Every command shares this bootstrap.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tuition-credits/internal/catalog"
	"tuition-credits/internal/config"
	"tuition-credits/internal/handler"
	"tuition-credits/internal/i18n"
	"tuition-credits/internal/ledger"
	"tuition-credits/internal/notify"
	"tuition-credits/internal/pkg/db"
	"tuition-credits/internal/pkg/lock"
	"tuition-credits/internal/repository"
	"tuition-credits/internal/service"
)

// App holds the long-lived components built from a Config.
type App struct {
	Config     *config.Config
	Service    *service.Service
	Translator *i18n.Translator
	Hub        *notify.Hub

	closers []func()
	ping    func(ctx context.Context) error
}

// SetupLogger configures the global zerolog logger.
func SetupLogger(cfg config.LogConfig) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return nil
}

// New builds the application. Close must be called to release storage.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	kv, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	translator, err := i18n.New(cfg.Ledger.DefaultLocale)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create translator: %w", err)
	}

	a.Hub = notify.NewHub()
	a.Translator = translator

	engine := ledger.NewEngine(
		repository.NewAccountRepository(kv),
		lock.NewUserLock(),
		ledger.Config{
			LockTimeout: cfg.Ledger.LockTimeout,
			Publisher:   a.Hub,
		},
	)
	cat := catalog.New(repository.NewPackageRepository(kv), nil)
	a.Service = service.NewService(engine, cat, translator, cfg.Ledger.AdminAllowNegative)

	log.Info().
		Str("driver", cfg.Storage.Driver).
		Str("default_locale", cfg.Ledger.DefaultLocale).
		Bool("admin_allow_negative", cfg.Ledger.AdminAllowNegative).
		Msg("Credit ledger initialized")
	return a, nil
}

// Handler builds the HTTP handler for this application.
func (a *App) Handler() *handler.Handler {
	return handler.NewHandler(a.Service, a.Translator, a.Hub)
}

// HealthCheck reports whether the storage backend is reachable.
func (a *App) HealthCheck(ctx context.Context) error {
	if a.ping == nil {
		return nil
	}
	return a.ping(ctx)
}

// Close releases storage connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (repository.KV, error) {
	cfg := a.Config
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory storage; balances are lost on exit")
		return repository.NewMemoryStore(), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		a.ping = pool.HealthCheck

		if err := db.Migrate(ctx, pool.Pool); err != nil {
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		return repository.NewPostgresStore(pool.Pool), nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() {
			if err := conn.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close sqlite database")
			}
		})
		a.ping = conn.PingContext
		return repository.NewSQLiteStore(conn), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
