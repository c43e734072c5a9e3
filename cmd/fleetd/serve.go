package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/kryptonation/creamrun-sub000/internal/database"
	"github.com/kryptonation/creamrun-sub000/internal/handler"
	"github.com/kryptonation/creamrun-sub000/internal/router"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		withWorker bool
		migrate    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()

			if migrate {
				if err := database.Migrate(context.Background(), &a.log, a.cfg, 0); err != nil {
					a.log.Fatal().Err(err).Msg("failed to migrate database")
				}
			}

			srv, services, err := a.services()
			if err != nil {
				a.log.Fatal().Err(err).Msg("failed to initialize server")
			}

			r := router.NewRouter(srv, handler.NewHandlers(srv, services), services)
			srv.SetupHTTPServer(r)

			if withWorker {
				if err := a.startJobs(srv); err != nil {
					a.log.Fatal().Err(err).Msg("failed to start background jobs")
				}
			}

			ctx, stop := signalContext()
			defer stop()

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Fatal().Err(err).Msg("failed to start server")
				}
			}()

			<-ctx.Done()
			return a.shutdown(srv)
		},
	}

	cmd.Flags().BoolVar(&withWorker, "with-worker", true, "also run the background job workers in this process")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending schema migrations before starting")
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background job workers and scheduler without the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()

			srv, _, err := a.services()
			if err != nil {
				a.log.Fatal().Err(err).Msg("failed to initialize server")
			}
			if err := a.startJobs(srv); err != nil {
				a.log.Fatal().Err(err).Msg("failed to start background jobs")
			}

			ctx, stop := signalContext()
			defer stop()
			<-ctx.Done()
			return a.shutdown(srv)
		},
	}
}
