package main

import (
	"context"
	"fmt"
	"time"

	"vroom/internal/observability"
	"vroom/internal/repository"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newPurgeCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored conversations idle longer than a cutoff",
		Long: `Purge removes conversations from the SQL store (sqlite or postgres) whose last
update is older than --older-than. Redis expires conversations on its own and the
memory store does not outlive the process, so neither needs purging.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if noColor {
				color.NoColor = true
			}
			if olderThan <= 0 {
				olderThan = cfg.Storage.TTL()
			}

			store, err := repository.Open(&cfg.Storage, observability.Nop())
			if err != nil {
				return fmt.Errorf("failed to open conversation store: %w", err)
			}
			defer store.Close()

			sqlStore, ok := store.(*repository.SQLStore)
			if !ok {
				color.New(color.FgYellow).Printf("storage driver %q has nothing to purge\n", cfg.Storage.Driver)
				return nil
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			n, err := sqlStore.Purge(ctx, time.Now().Add(-olderThan))
			if err != nil {
				return fmt.Errorf("purge failed: %w", err)
			}
			color.New(color.FgGreen).Printf("✓ purged %d conversations older than %s\n", n, olderThan)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "cutoff age (defaults to the storage TTL)")
	return cmd
}
