package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewElbowCommand creates the elbow command.
func NewElbowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elbow",
		Short: "Show inertia and silhouette over a range of k",
		Long: `Fit k-means on the PCA-reduced data for every k in --k-min..--k-max and
print the inertia and silhouette score of each fit. Use it to choose
--clusters: the elbow is where adding a cluster stops paying off.`,
		Example: `  deptcluster elbow --k-min 2 --k-max 12`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runElbow(cmd)
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runElbow(cmd *cobra.Command) error {
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
	points, err := cmdCtx.Pipeline.ElbowCurve(ctx, red)
	if err != nil {
		return err
	}

	renderElbow(w, points, cmdCtx.Cfg.KMeans.Clusters)
	_, _ = fmt.Fprintf(w, "Configured clusters: %d\n", cmdCtx.Cfg.KMeans.Clusters)
	return nil
}
