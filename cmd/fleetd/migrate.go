package main

import (
	"context"

	"github.com/kryptonation/creamrun-sub000/internal/database"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var target int32

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Example: `  fleetd migrate
  fleetd migrate --target 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := newApp()
			defer a.loggerService.Shutdown()
			return database.Migrate(context.Background(), &a.log, a.cfg, target)
		},
	}

	cmd.Flags().Int32Var(&target, "target", 0, "migrate to this version instead of the latest")
	return cmd
}
