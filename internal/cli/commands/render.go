package commands

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ecv-analytics/deptcluster/internal/analysis"
	"github.com/ecv-analytics/deptcluster/internal/dataset"
	"github.com/ecv-analytics/deptcluster/internal/pipeline"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func renderDropped(w io.Writer, dropped []dataset.DroppedRow) {
	if len(dropped) == 0 {
		return
	}
	t := newTable(w, "Dropped rows")
	t.AppendHeader(table.Row{"Row", "Department", "Missing"})
	for _, d := range dropped {
		t.AppendRow(table.Row{d.Index + 2, d.Key, strings.Join(d.Missing, ", ")})
	}
	t.Render()
}

// renderDescribe prints the gota Describe records, first row as header.
func renderDescribe(w io.Writer, records [][]string) {
	if len(records) == 0 {
		return
	}
	t := newTable(w, "Indicators")
	header := make(table.Row, len(records[0]))
	for i, h := range records[0] {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, rec := range records[1:] {
		row := make(table.Row, len(rec))
		for i, v := range rec {
			row[i] = v
		}
		t.AppendRow(row)
	}
	t.Render()
}

func renderVariance(w io.Writer, red *pipeline.Reduction) {
	t := newTable(w, "Explained variance")
	t.AppendHeader(table.Row{"Component", "Variance", "Ratio", "Cumulative", "Selected"})
	full := red.Full
	for j := range full.Ratio {
		selected := ""
		if j < red.Components {
			selected = "✓"
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("PC%d", j+1),
			formatFloat(full.Variance[j]),
			formatPercent(full.Ratio[j]),
			formatPercent(full.Cumulative[j]),
			selected,
		})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignCenter},
	})
	t.Render()
}

func renderElbow(w io.Writer, points []analysis.ElbowPoint, chosen int) {
	t := newTable(w, "Elbow curve")
	t.AppendHeader(table.Row{"k", "Inertia", "Silhouette", ""})
	for _, pt := range points {
		mark := ""
		if pt.K == chosen {
			mark = "◀"
		}
		t.AppendRow(table.Row{pt.K, formatFloat(pt.Inertia), formatFloat(pt.Silhouette), mark})
	}
	t.Render()
}

func renderClusters(w io.Writer, res *pipeline.Result) {
	t := newTable(w, "Clusters")
	t.AppendHeader(table.Row{"Cluster", "Size", "Departments"})
	for _, p := range res.Profiles {
		t.AppendRow(table.Row{p.Cluster, p.Size(), strings.Join(p.Members, ", ")})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, WidthMax: 80},
	})
	t.Render()
}

func renderProfile(w io.Writer, res *pipeline.Result) {
	t := newTable(w, "Cluster profile (mean per indicator)")
	header := table.Row{"Indicator"}
	for _, p := range res.Profiles {
		header = append(header, fmt.Sprintf("Cluster %d", p.Cluster))
	}
	t.AppendHeader(header)
	for j, name := range res.Dataset.Indicators {
		row := table.Row{name}
		for _, p := range res.Profiles {
			row = append(row, formatFloat(p.Means[j]))
		}
		t.AppendRow(row)
	}
	t.Render()
}
