// Command fleetd runs the fleet operations API, its background workers and
// maintenance tasks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kryptonation/creamrun-sub000/internal/config"
	"github.com/kryptonation/creamrun-sub000/internal/logger"
	"github.com/kryptonation/creamrun-sub000/internal/repository"
	"github.com/kryptonation/creamrun-sub000/internal/server"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:           "fleetd",
		Short:         "Fleet operations backend for medallion taxis",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(workerCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is what every command starts from.
type app struct {
	cfg           *config.Config
	log           zerolog.Logger
	loggerService *logger.LoggerService
}

func newApp() *app {
	cfg := config.LoadConfig()
	loggerService := logger.NewLoggerService(cfg.Observability)
	return &app{
		cfg:           cfg,
		log:           logger.NewLoggerWithService(cfg.Observability, loggerService),
		loggerService: loggerService,
	}
}

// services connects the server resources and builds the service layer.
func (a *app) services() (*server.Server, *service.Services, error) {
	srv, err := server.New(a.cfg, &a.log, a.loggerService)
	if err != nil {
		return nil, nil, err
	}

	services, err := service.NewService(srv, repository.NewRepositories(srv))
	if err != nil {
		_ = srv.Shutdown(context.Background())
		return nil, nil, err
	}
	return srv, services, nil
}

// startJobs starts the workers and, when enabled, the periodic scheduler.
func (a *app) startJobs(srv *server.Server) error {
	if err := srv.Job.Start(); err != nil {
		return fmt.Errorf("start job server: %w", err)
	}
	if a.cfg.Scheduler.Enabled {
		if err := srv.Job.StartScheduler(); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	return nil
}

func (a *app) shutdown(srv *server.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("server forced to shutdown")
	}
	a.loggerService.Shutdown()
	a.log.Info().Msg("server exited properly")
	return err
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
