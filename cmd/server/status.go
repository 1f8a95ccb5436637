package main

import (
	"context"
	"fmt"
	"os"

	"vroom/internal/backend"
	"vroom/internal/model"
	"vroom/internal/observability"
	"vroom/internal/service"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend data readiness",
		Long: `Status fetches /meta from the recommendation backend and prints which datasets
(specs, retail, wholesale) are loaded, together with the catalogue size.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if noColor {
				color.NoColor = true
			}

			client := backend.NewClient(&cfg.Backend, observability.Nop())
			meta := service.NewMetaService(client, observability.Nop())

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.MetaTimeoutDuration())
			defer cancel()

			fmt.Printf("Backend: %s\n", client.BaseURL())
			if err := meta.Refetch(ctx); err != nil {
				color.New(color.FgRed).Fprintf(os.Stdout, "✗ backend unreachable: %v\n", err)
				return err
			}

			ready, _ := meta.DataReady()
			printStatus(ready, meta)
			return nil
		},
	}
}

func printStatus(ready model.DataReady, meta *service.MetaService) {
	bold := color.New(color.Bold)
	bold.Println("Data status")
	printReady("specs", ready.Specs)
	printReady("retail", ready.Retail)
	printReady("wholesale", ready.Wholesale)

	fmt.Println()
	bold.Println("Catalogue")
	fmt.Printf("  brands: %d\n", len(meta.Brands()))
	fmt.Printf("  fuels:  %d\n", len(meta.FuelOptions()))
	fmt.Printf("  needs:  %d\n", len(meta.Needs()))
	fmt.Printf("  default budget: %d\n", meta.BudgetDefault())
}

func printReady(name string, ok bool) {
	if ok {
		color.New(color.FgGreen).Printf("  ✓ %-10s ready\n", name)
		return
	}
	color.New(color.FgYellow).Printf("  ✗ %-10s missing\n", name)
}
