package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVarianceCommand creates the variance command.
func NewVarianceCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variance",
		Short: "Show the PCA explained-variance table",
		Long: `Standardize the indicators, fit PCA with every component and print the
explained and cumulative variance of each one. The components that the
current configuration keeps are marked.`,
		Example: `  # Which count reaches 90% of the variance?
  deptcluster variance --components 0 --variance-threshold 0.9`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVariance(cmd)
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runVariance(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	ds, err := cmdCtx.Pipeline.Load(ctx)
	if err != nil {
		return err
	}
	red, err := cmdCtx.Pipeline.Reduce(ctx, ds)
	if err != nil {
		return err
	}

	renderVariance(w, red)
	how := "configured"
	if red.AutoSelected {
		how = fmt.Sprintf("threshold %s", formatPercent(cmdCtx.Cfg.PCA.VarianceThreshold))
	}
	_, _ = fmt.Fprintf(w, "Components kept: %d (%s), explained variance %s\n",
		red.Components, how, formatPercent(red.Model.Cumulative[red.Components-1]))
	return nil
}
