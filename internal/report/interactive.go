package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ecv-analytics/deptcluster/internal/pipeline"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const tooltipDepartment = "{a}<br/>{b}: {c}"

func componentScatter(res *pipeline.Result) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "1100px", Height: "700px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Departamentos en el espacio de los dos componentes principales",
			Subtitle: fmt.Sprintf("run %s, semilla %d", res.RunID, res.Config.KMeans.Seed),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: tooltipDepartment}),
		charts.WithXAxisOpts(opts.XAxis{Name: "PC1", Scale: opts.Bool(true)}),
		charts.WithYAxisOpts(opts.YAxis{Name: "PC2", Scale: opts.Bool(true)}),
	)

	points := scoresXY(res.Reduction.Scores)
	clusterData := make([][]opts.ScatterData, res.KMeans.K())
	for i, a := range res.Assignments {
		clusterData[a.Cluster] = append(clusterData[a.Cluster], opts.ScatterData{
			Name:  a.Key,
			Value: []interface{}{points[i].X, points[i].Y},
		})
	}
	for cl, data := range clusterData {
		scatter.AddSeries(clusterName(cl), data,
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Position:  "right",
				Formatter: "{b}",
			}),
		)
	}
	return scatter
}

func elbowLine(res *pipeline.Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "K (# de clusters) vs inercia"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "k"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Inercia"}),
	)

	ks := make([]string, len(res.Elbow))
	inertia := make([]opts.LineData, len(res.Elbow))
	for i, pt := range res.Elbow {
		ks[i] = strconv.Itoa(pt.K)
		inertia[i] = opts.LineData{Value: pt.Inertia}
	}
	line.SetXAxis(ks).AddSeries("Inercia", inertia)
	return line
}

func indicatorScatter(res *pipeline.Result, indicator string) (*charts.Scatter, error) {
	values, err := res.Dataset.Column(indicator)
	if err != nil {
		return nil, err
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: indicatorTitle(indicator)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Formatter: tooltipDepartment}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Cluster", Type: "value", Min: -0.5, Max: float64(res.KMeans.K()) - 0.5}),
		charts.WithYAxisOpts(opts.YAxis{Name: indicator, Scale: opts.Bool(true)}),
	)

	lo, hi := minMax(values)
	clusterData := make([][]opts.ScatterData, res.KMeans.K())
	for i, a := range res.Assignments {
		size := 10
		if hi > lo {
			size = 8 + int(20*(values[i]-lo)/(hi-lo))
		}
		clusterData[a.Cluster] = append(clusterData[a.Cluster], opts.ScatterData{
			Name:       a.Key,
			Value:      []interface{}{a.Cluster, values[i]},
			SymbolSize: size,
		})
	}
	for cl, data := range clusterData {
		scatter.AddSeries(clusterName(cl), data)
	}
	return scatter, nil
}

// writeInteractive renders the PCA scatter, the elbow curve and one scatter
// per highlighted indicator into a single HTML page.
func writeInteractive(res *pipeline.Result, w io.Writer) error {
	page := components.NewPage()
	page.SetPageTitle("Departamentos de Colombia por cluster")
	page.AddCharts(componentScatter(res), elbowLine(res))

	for _, name := range res.Highlight {
		chart, err := indicatorScatter(res, name)
		if err != nil {
			return err
		}
		page.AddCharts(chart)
	}
	return page.Render(w)
}
