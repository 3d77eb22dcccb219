// Package server wires the ticket engine to its stores and entry points and
// runs the HTTP API, the gRPC health endpoint and the expiry sweep scheduler
// until the process is told to stop.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/ticketvault/internal/clockx"
	"github.com/dmitrijs2005/ticketvault/internal/cryptox"
	"github.com/dmitrijs2005/ticketvault/internal/logging"
	"github.com/dmitrijs2005/ticketvault/internal/server/config"
	gs "github.com/dmitrijs2005/ticketvault/internal/server/grpc"
	"github.com/dmitrijs2005/ticketvault/internal/server/httpapi"
	"github.com/dmitrijs2005/ticketvault/internal/server/notify"
	"github.com/dmitrijs2005/ticketvault/internal/server/services"
	"github.com/dmitrijs2005/ticketvault/internal/server/sweeper"
	"github.com/dmitrijs2005/ticketvault/internal/server/tasks"
	"github.com/dmitrijs2005/ticketvault/internal/tracing"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	stores  *Stores
	runner  *tasks.Runner
	tickets *services.TicketService
	sweep   *services.SweepService
}

// NewCipher builds the cipher engine described by c.
func NewCipher(c *config.Config) *cryptox.Engine {
	return cryptox.NewEngine(cryptox.Config{
		Algorithm:     c.CryptoAlgorithm,
		KDF:           c.KDF(),
		AgeWorkFactor: c.AgeWorkFactor,
	})
}

// NewSweepService builds the expiry sweep over stores.
func NewSweepService(c *config.Config, s *Stores, l logging.Logger) *services.SweepService {
	return services.NewSweepService(s.Tickets, s.Blobs, clockx.Real(), l, services.SweepConfig{
		BatchSize:   c.SweepBatchSize,
		Concurrency: c.SweepConcurrency,
	})
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	stores, err := OpenStores(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	runner := tasks.NewRunner(logger, c.TaskTimeout)

	ts := services.NewTicketService(
		stores.Tickets,
		stores.Blobs,
		NewCipher(c),
		notify.New(c.WebhookURL, c.WebhookTimeout),
		runner,
		clockx.Real(),
		logger,
		services.TicketConfig{
			InlineTextLimit:   c.InlineTextLimit,
			MaxExpiresMinutes: c.MaxExpiresMinutes,
		},
	)

	return &App{
		config:  c,
		logger:  logger,
		stores:  stores,
		runner:  runner,
		tickets: ts,
		sweep:   NewSweepService(c, stores, logger),
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives, then
// shuts the servers down, drains background tasks and closes the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")
	defer app.close()

	tp, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:      app.config.OtelEnabled,
		Endpoint:     app.config.OtelEndpoint,
		Insecure:     app.config.OtelInsecure,
		ServiceName:  app.config.OtelServiceName,
		SamplingRate: app.config.OtelSamplingRate,
	})
	if err != nil {
		return err
	}
	if tp != nil {
		defer func() {
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(sctx); err != nil {
				app.logger.Warn(ctx, "tracer shutdown failed", "error", err)
			}
		}()
	}

	if err := app.stores.Migrate(ctx); err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              app.config.HTTPAddr,
		Handler:           httpapi.NewRouter(httpapi.NewHandler(app.tickets, app.logger), app.logger, app.config.TrustedProxies),
		ReadHeaderTimeout: 10 * time.Second,
	}
	grpcSrv := gs.NewGRPCServer(app.config.GRPCAddr, app.logger)
	scheduler := sweeper.NewScheduler(app.sweep, app.config.SweepInterval, app.logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.logger.Info(gctx, "Starting HTTP server", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		grpcSrv.SetServing(true)
		return grpcSrv.Run(gctx)
	})

	g.Go(func() error {
		scheduler.Run(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info(gctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), app.config.ShutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	err = g.Wait()

	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
	defer cancel()
	if werr := app.runner.Wait(dctx); werr != nil {
		app.logger.Warn(ctx, "background tasks did not finish", "error", werr)
	}

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return err
}

func (app *App) close() {
	if err := app.stores.Close(); err != nil {
		app.logger.Error(context.Background(), "closing stores", "error", err)
	}
}
