package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the cleaned dataset",
		Long: `Load the indicator spreadsheet and show its shape, the rows dropped for
missing values and descriptive statistics of every indicator.`,
		Example: `  deptcluster info --input data/ecv.csv`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd)
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func runInfo(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	w := cmd.OutOrStdout()

	ds, err := cmdCtx.Pipeline.Load(cmd.Context())
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(w, "Input: %s\n", cmdCtx.Cfg.Input)
	_, _ = fmt.Fprintf(w, "Departments: %d (key column %q)\n", ds.Rows(), ds.KeyColumn)
	_, _ = fmt.Fprintf(w, "Indicators: %d\n", len(ds.Indicators))
	_, _ = fmt.Fprintf(w, "Dropped rows: %d\n", len(ds.Dropped))

	renderDropped(w, ds.Dropped)
	renderDescribe(w, ds.Describe())
	return nil
}
