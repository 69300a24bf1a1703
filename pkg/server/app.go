package server

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	domrepo "github.com/habeneyasu/brent-oil-change-point-analysis/internal/domain/repository"
	icache "github.com/habeneyasu/brent-oil-change-point-analysis/internal/service/cache"
	"github.com/habeneyasu/brent-oil-change-point-analysis/internal/usecase"
	"github.com/habeneyasu/brent-oil-change-point-analysis/pkg/config"
	xhttp "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/http"
	applogger "github.com/habeneyasu/brent-oil-change-point-analysis/pkg/logger"
)

// App encapsulates the application lifecycle: a one-shot analysis or the
// read-side HTTP server.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	analysis    *usecase.ChangePointAnalysis
	store       domrepo.ResultStore
	pub         domrepo.Publisher
	cache       icache.BytesCache
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	analysis *usecase.ChangePointAnalysis,
	store domrepo.ResultStore,
	pub domrepo.Publisher,
	cache icache.BytesCache,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:         cfg,
		log:         l,
		analysis:    analysis,
		store:       store,
		pub:         pub,
		cache:       cache,
		httpHandler: handler,
	}
}

// Analyze runs one analysis, persists it and releases every resource.
func (a *App) Analyze(ctx context.Context) error {
	defer a.close()
	if err := a.store.Init(ctx); err != nil {
		return err
	}
	rec, err := a.analysis.Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info(rec.ImpactStatement, applogger.String("run_id", rec.RunID))
	return nil
}

// Run serves the HTTP API and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.store.Init(ctx); err != nil {
		a.close()
		return err
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler, xhttp.ServerConfig{
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
		MetricsPath:     metricsPath,
	}, a.log)
	a.httpServer.Start()

	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-a.httpServer.Errors():
		a.log.Error("http server failed", applogger.Error(err))
		return errors.Join(err, a.shutdown())
	}
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
			errs = append(errs, err)
		}
	}
	a.close()
	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

// close releases storage, messaging and cache clients; errors are only logged.
func (a *App) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("result store close error", applogger.Error(err))
	}
	if err := a.pub.Close(); err != nil {
		a.log.Warn("publisher close error", applogger.Error(err))
	}
	if c, ok := a.cache.(io.Closer); ok {
		if err := c.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
}
