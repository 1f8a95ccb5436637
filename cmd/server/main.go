package main

import (
	"fmt"
	"os"

	"vroom/internal/config"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	cfgFile string
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "vroom",
	Short: "VRoom car recommendation web front end",
	Long: `VRoom serves the car recommendation pages: a criteria form, ranked results with
match percentages and a chat assistant. Scoring, ranking and language understanding
happen in the recommendation backend this server talks to.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file (overrides VROOM_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newPurgeCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vroom %s (built %s, commit %s)\n", Version, BuildTime, GitCommit)
		},
	})
}

// loadConfig reads configuration, honouring the --config flag
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		os.Setenv("VROOM_CONFIG", cfgFile)
	}
	return config.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
