package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/tripcost-seeder/internal/container"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withContainer(cmd.Context(), func(_ context.Context, c *container.Container) error {
				return withCode(exitDB, c.RunMigrations())
			})
		},
	}
}
