package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"golang.org/x/sync/errgroup"

	"github.com/philly/school-finance/backend/internal/adapters/rest/middleware"
	"github.com/philly/school-finance/backend/internal/platform/logger"
)

const (
	shutdownGrace        = 10 * time.Second
	rateLimitSweepPeriod = 5 * time.Minute
)

// JobClient is the background job client; nil when jobs are disabled.
type JobClient = *river.Client[pgx.Tx]

type App struct {
	server      *http.Server
	jobs        JobClient
	rateLimiter *middleware.RateLimiter
	logger      logger.Logger
	config      Config
}

// NewApp takes the subscription and telemetry markers so that both are set
// up before the server starts.
func NewApp(
	server *http.Server,
	jobs JobClient,
	rateLimiter *middleware.RateLimiter,
	_ BusSubscriptions,
	_ Telemetry,
	log logger.Logger,
	config Config,
) *App {
	return &App{
		server:      server,
		jobs:        jobs,
		rateLimiter: rateLimiter,
		logger:      log,
		config:      config,
	}
}

// Run serves HTTP and works background jobs until SIGINT/SIGTERM or until
// one of them fails, then shuts everything down within the grace period.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info(gctx, "starting server", "address", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if a.jobs != nil {
		g.Go(func() error {
			a.logger.Info(gctx, "starting job client")
			if err := a.jobs.Start(gctx); err != nil {
				return fmt.Errorf("failed to start job client: %w", err)
			}
			<-gctx.Done()
			return nil
		})
	}

	g.Go(func() error {
		a.rateLimiter.Run(gctx, rateLimitSweepPeriod)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info(context.Background(), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()

		var errs []error
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to gracefully shutdown server: %w", err))
		}
		if a.jobs != nil {
			if err := a.jobs.Stop(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to stop job client: %w", err))
			}
		}
		return errors.Join(errs...)
	})

	err := g.Wait()
	a.logger.Info(context.Background(), "server stopped")
	return err
}
