// Package cli provides the command-line interface for deptcluster.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ecv-analytics/deptcluster/internal/cli/commands"
	"github.com/ecv-analytics/deptcluster/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "deptcluster",
		Short: "deptcluster - socio-economic clustering of Colombian departments",
		Long: `deptcluster groups Colombian departments by their socio-economic
indicators (ECV survey).

It standardizes the indicators, reduces them with principal component
analysis, helps choose the number of clusters with the elbow curve and
assigns every department to a k-means cluster. Results are written as
charts, an interactive HTML page, an Excel workbook and a markdown report.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help, completion and version
			switch cmd.Name() {
			case "help", "completion", "__complete", "version":
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Verbose)
			logger.Debug("configuration loaded",
				"project_root", cfg.ProjectRoot,
				"input", cfg.Input,
				"output_dir", cfg.OutputDir,
			)

			ctx := config.WithConfig(cmd.Context(), cfg)
			ctx = config.WithLogger(ctx, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} {{.Version}} (commit %s, built %s)\n", GitCommit, BuildDate))

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <project-dir>/deptcluster.yaml)")
	rootCmd.PersistentFlags().String("project-dir", "", "Project root (default: searched upward from the working directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewRunCommand())
	rootCmd.AddCommand(commands.NewInfoCommand())
	rootCmd.AddCommand(commands.NewVarianceCommand())
	rootCmd.AddCommand(commands.NewElbowCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
