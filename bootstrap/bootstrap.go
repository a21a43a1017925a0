// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rankgate/rankgate/adapters/clock"
	"github.com/rankgate/rankgate/adapters/email"
	"github.com/rankgate/rankgate/adapters/fingerprint"
	gatehttp "github.com/rankgate/rankgate/adapters/http"
	"github.com/rankgate/rankgate/adapters/idgen"
	"github.com/rankgate/rankgate/adapters/metrics"
	"github.com/rankgate/rankgate/adapters/random"
	"github.com/rankgate/rankgate/adapters/sqlite"
	"github.com/rankgate/rankgate/app"
	"github.com/rankgate/rankgate/config"
	"github.com/rankgate/rankgate/core/events"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Config
	Holder     *config.Holder
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	Admission *app.AdmissionService
	Issuer    *app.IssuerService
	Bus       *events.Bus
}

// Options controls application initialization.
type Options struct {
	// ConfigPath is the YAML config file. When the file does not
	// exist, configuration falls back to RANKGATE_* environment
	// variables.
	ConfigPath string

	// HotReload enables watching the config file and SIGHUP for
	// runtime ceiling updates.
	HotReload bool
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	logger := SetupLoggerFromEnv()

	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	a := &App{
		Logger: logger,
		Config: cfg,
	}

	logger.Info().Msg("initializing rankgate")

	db, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	a.DB = db

	if cfg.Metrics.Enabled {
		a.Metrics = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	}

	realClock := clock.Real{}
	ids := idgen.UUID{}

	credentials := sqlite.NewCredentialStore(db)
	accounts := sqlite.NewAccountStore(db)
	ledger := sqlite.NewLedgerStore(db)
	monitors := sqlite.NewMonitorStore(db)

	a.Bus = events.NewBus(logger)
	app.SubscribeWelcome(a.Bus, email.NewLogSender(logger))

	a.Admission = app.NewAdmissionService(app.AdmissionDeps{
		Credentials: credentials,
		Ledger:      ledger,
		Fingerprint: fingerprint.Blake2b{},
		Clock:       realClock,
		IDGen:       ids,
		Logger:      logger,
		Metrics:     a.Metrics,
	}, cfg.Quota.Ceilings())

	a.Issuer = app.NewIssuerService(app.IssuerDeps{
		Credentials: credentials,
		Accounts:    accounts,
		Fingerprint: fingerprint.Blake2b{},
		Random:      random.Real{},
		IDGen:       ids,
		Clock:       realClock,
		Bus:         a.Bus,
		Logger:      logger,
	})

	handler := gatehttp.NewHandler(gatehttp.HandlerDeps{
		Admission:   a.Admission,
		Monitors:    monitors,
		IDGen:       ids,
		Clock:       realClock,
		Logger:      logger,
		Metrics:     a.Metrics,
		AuthHeader:  cfg.Auth.Header,
		MetricsPath: cfg.Metrics.Path,
	})

	a.HTTPServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	if opts.HotReload && opts.ConfigPath != "" {
		if err := a.initHotReload(opts.ConfigPath); err != nil {
			// Hot reload is a convenience; a broken watcher should not
			// keep the gateway from serving.
			logger.Warn().Err(err).Msg("config hot reload disabled")
		}
	}

	return a, nil
}

// initHotReload watches the config file and SIGHUP, pushing new quota
// ceilings into the admission service on each successful reload.
func (a *App) initHotReload(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file not watchable: %w", err)
	}
	holder, err := config.NewHolder(path, a.Logger)
	if err != nil {
		return err
	}
	holder.OnChange(func(cfg *config.Config) {
		a.Admission.UpdateCeilings(cfg.Quota.Ceilings())
		a.Logger.Info().
			Int64("free", cfg.Quota.Free).
			Int64("starter", cfg.Quota.Starter).
			Int64("pro", cfg.Quota.Pro).
			Int64("enterprise", cfg.Quota.Enterprise).
			Msg("quota ceilings updated")
	})
	if err := holder.WatchFile(); err != nil {
		return err
	}
	holder.WatchSignals()
	a.Holder = holder
	return nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or a
// server error, then shuts down.
func (a *App) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown stops the server and releases resources.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.Holder != nil {
		a.Holder.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// SetupLoggerFromEnv builds the process logger from RANKGATE_LOG_LEVEL
// and RANKGATE_LOG_FORMAT.
func SetupLoggerFromEnv() zerolog.Logger {
	levelStr := os.Getenv("RANKGATE_LOG_LEVEL")
	if levelStr == "" {
		levelStr = "info"
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("RANKGATE_LOG_FORMAT") == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
