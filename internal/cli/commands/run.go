package commands

import (
	"fmt"
	"path/filepath"

	"github.com/ecv-analytics/deptcluster/internal/report"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full analysis and write the report",
		Long: `Load the indicator spreadsheet, drop incomplete rows, standardize,
reduce with PCA, compute the elbow curve, cluster with k-means and write every
artifact (charts, interactive page, workbook and markdown report) to the
output directory.`,
		Example: `  # Run with the defaults (or deptcluster.yaml)
  deptcluster run

  # Five clusters, SVG charts
  deptcluster run --clusters 5 --format svg

  # Pick the component count from the variance threshold
  deptcluster run --components 0 --variance-threshold 0.9`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalysis(cmd)
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runAnalysis(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	w := cmd.OutOrStdout()

	_, _ = fmt.Fprintln(w, "🇨🇴 CLUSTERS DE DEPARTAMENTOS DE COLOMBIA")
	_, _ = fmt.Fprintf(w, "Procesando %s...\n", filepath.Base(cfg.Input))

	res, err := cmdCtx.Pipeline.Run(cmd.Context())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "📊 %d departamentos, %d indicadores, %d filas descartadas\n",
		res.Dataset.Rows(), len(res.Dataset.Indicators), len(res.Dataset.Dropped))
	renderDropped(w, res.Dataset.Dropped)
	renderVariance(w, res.Reduction)
	renderElbow(w, res.Elbow, res.KMeans.K())
	renderClusters(w, res)
	renderProfile(w, res)

	out, err := report.Write(res, cfg.OutputDir, cfg.Format, cmdCtx.Logger)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}

	_, _ = fmt.Fprintln(w, "\n✅ ANÁLISIS TERMINADO")
	_, _ = fmt.Fprintf(w, "📁 Archivos en %s:\n", out.Dir)
	for _, f := range out.Files() {
		_, _ = fmt.Fprintf(w, "   - %s\n", filepath.Base(f))
	}
	return nil
}
