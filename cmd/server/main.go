package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "city-explorer"

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := newRootCmd(log).ExecuteContext(context.Background()); err != nil {
		log.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func newRootCmd(log *slog.Logger) *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), log)
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrateOnly(cmd.Context(), log)
		},
	}

	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Location, weather, restaurant and movie lookups backed by a store",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, migrate)

	return root
}
