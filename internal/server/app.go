// Package server wires configuration, storage, services and the HTTP
// endpoint together and runs them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/astroprofile/internal/cryptox"
	"github.com/dmitrijs2005/astroprofile/internal/logging"
	"github.com/dmitrijs2005/astroprofile/internal/server/attachments"
	"github.com/dmitrijs2005/astroprofile/internal/server/auth"
	"github.com/dmitrijs2005/astroprofile/internal/server/config"
	"github.com/dmitrijs2005/astroprofile/internal/server/httpserver"
	"github.com/dmitrijs2005/astroprofile/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/astroprofile/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *httpserver.Server
}

// NewApp builds every dependency from c. Storage is opened and migrated
// here, so a failure surfaces before anything is served.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	}

	rm, err := repomanager.New(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := cryptox.NewHasher(c.Hasher, c.BcryptCost)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	store, err := attachments.New(c)
	if err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("attachment store init error: %w", err)
	}

	tokens := auth.NewTokenService([]byte(c.SecretKey), c.TokenTTL)
	us := services.NewUserService(rm.Users(), hasher, tokens, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hs := httpserver.NewServer(c.EndpointAddr, logger, us, store, registry)

	return &App{config: c, logger: logger, repomanager: rm, httpServer: hs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "storage", storageName(app.config))

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	err := app.httpServer.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "http server failed", "error", err.Error())
	}

	if cerr := app.repomanager.Close(); cerr != nil {
		app.logger.Error(ctx, "closing storage failed", "error", cerr.Error())
	}

	app.logger.Info(ctx, "App stopped")
	return err
}

func storageName(c *config.Config) string {
	if c.DatabaseDSN == "" {
		return "memory"
	}
	return "postgres"
}
