// Package commands implements the deptcluster subcommands.
package commands

import (
	"log/slog"

	"github.com/ecv-analytics/deptcluster/internal/config"
	"github.com/ecv-analytics/deptcluster/internal/pipeline"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Pipeline *pipeline.Pipeline
}

// NewCommandContext builds the pipeline from the configuration the root
// command stored in the command context.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	logger := config.GetLogger(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Pipeline: pipeline.New(cfg, logger),
	}
}

// addAnalysisFlags registers the flags shared by the analysis commands.
// Defaults are shown for help only: values come from the config layers and
// a flag overrides them only when set.
func addAnalysisFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()

	f.String("input", d.Input, "Indicator spreadsheet (.xlsx or .csv), relative to the project root")
	f.String("sheet", d.Sheet, "Sheet name (default: first sheet)")
	f.String("key-column", d.KeyColumn, "Department name column")
	f.StringSlice("indicators", nil, "Indicator columns to use (default: every column except the key)")
	f.StringSlice("highlight", d.Highlight, "Indicators charted per cluster")
	f.String("output-dir", d.OutputDir, "Output directory, relative to the project root")
	f.String("format", d.Format, "Chart image format (png|svg|pdf|jpg|eps|tif)")

	f.Int("components", d.PCA.Components, "Principal components to keep (0 selects by --variance-threshold)")
	f.Float64("variance-threshold", d.PCA.VarianceThreshold, "Cumulative explained variance for automatic component selection")

	f.Int("clusters", d.KMeans.Clusters, "Number of k-means clusters")
	f.Int("k-min", d.KMeans.KMin, "Smallest k of the elbow curve")
	f.Int("k-max", d.KMeans.KMax, "Largest k of the elbow curve")
	f.Uint64("seed", d.KMeans.Seed, "Random seed for k-means initialization")
	f.String("init", d.KMeans.Init, "Centroid initialization (random|k-means++)")
	f.Int("n-init", d.KMeans.NInit, "Number of k-means restarts, the best is kept")
	f.Int("max-iter", d.KMeans.MaxIter, "Maximum Lloyd iterations per restart")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"png", "svg", "pdf", "jpg", "eps", "tif"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("init", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"random", "k-means++"}, cobra.ShellCompDirectiveNoFileComp
	})
}
