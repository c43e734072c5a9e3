package main

import (
	"context"
	"fmt"

	"github.com/kryptonation/creamrun-sub000/internal/model"
	"github.com/kryptonation/creamrun-sub000/internal/service"
	"github.com/spf13/cobra"
)

var sweeps = map[string]func(*service.SweepService, context.Context) (*model.SweepResult, error){
	"renewals":   (*service.SweepService).RunRenewalSweep,
	"expiries":   (*service.SweepService).RunExpirySweep,
	"compliance": (*service.SweepService).RunComplianceSweep,
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sweep renewals|expiries|compliance",
		Short:     "Run one lease or compliance sweep now, outside the scheduler",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"renewals", "expiries", "compliance"},
		RunE: func(cmd *cobra.Command, args []string) error {
			run := sweeps[args[0]]

			a := newApp()
			srv, services, err := a.services()
			if err != nil {
				return fmt.Errorf("initialize server: %w", err)
			}
			defer a.shutdown(srv)

			ctx, stop := signalContext()
			defer stop()

			res, err := run(services.Sweep, ctx)
			if err != nil {
				return fmt.Errorf("%s sweep: %w", args[0], err)
			}
			a.log.Info().
				Str("sweep", res.Sweep).
				Int("processed", res.Processed).
				Int("succeeded", res.Succeeded).
				Int("failed", res.Failed).
				Int("skipped", res.Skipped).
				Msg("sweep finished")
			return nil
		},
	}
}
