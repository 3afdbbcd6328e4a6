package report

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/ecv-analytics/deptcluster/internal/dataset"
	"github.com/ecv-analytics/deptcluster/internal/pipeline"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var indicatorTitles = map[string]string{
	"ipm":          "Índice de pobreza multidimensional por cluster",
	"hog_acued":    "Acceso a acueducto público por cluster",
	"acc_internet": "Población con acceso a internet por cluster",
	"edu_sup":      "Acceso a educación superior por cluster",
	"afi_seg_soc":  "Población afiliada como cotizante a S.S. por cluster",
}

func indicatorTitle(name string) string {
	if title, ok := indicatorTitles[dataset.NormalizeName(name)]; ok {
		return title
	}
	return fmt.Sprintf("%s por cluster", name)
}

// fileSafe turns an indicator name into a file name fragment.
func fileSafe(name string) string {
	var b strings.Builder
	for _, r := range dataset.NormalizeName(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func createCharts(res *pipeline.Result, dir, format string) ([]string, error) {
	type chart struct {
		file string
		draw func(string) error
	}
	charts := []chart{
		{"variance", func(path string) error { return createVarianceChart(res, path) }},
		{"elbow", func(path string) error { return createElbowChart(res, path) }},
		{"correlation", func(path string) error {
			return createCorrelationHeatmap(res.Correlation, res.Dataset.Indicators, "Matriz de correlación de indicadores", path)
		}},
		{"components_correlation", func(path string) error {
			return createCorrelationHeatmap(res.ComponentCorrelation, componentLabels(res.Reduction.Components), "Correlación entre componentes principales", path)
		}},
		{"pca_scatter", func(path string) error { return createComponentScatter(res, path) }},
	}
	for _, name := range res.Highlight {
		name := name
		charts = append(charts, chart{
			"indicator_" + fileSafe(name),
			func(path string) error { return createIndicatorChart(res, name, path) },
		})
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		path := filepath.Join(dir, c.file+"."+format)
		if err := c.draw(path); err != nil {
			return nil, fmt.Errorf("chart %s: %w", c.file, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func createVarianceChart(res *pipeline.Result, path string) error {
	full := res.Reduction.Full

	p := plot.New()
	p.Title.Text = "Varianza explicada por componente principal"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Componente"
	p.Y.Label.Text = "Proporción de varianza"

	values := make(plotter.Values, len(full.Ratio))
	copy(values, full.Ratio)
	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return err
	}
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	points := make(plotter.XYs, len(full.Cumulative))
	for i, v := range full.Cumulative {
		points[i].X = float64(i)
		points[i].Y = v
	}
	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 139, G: 0, B: 0, A: 255}
	line.Width = vg.Points(2)
	scatter.GlyphStyle.Color = line.Color
	p.Add(line, scatter)
	p.Legend.Add("Varianza acumulada", line)
	p.Legend.Add("Varianza por componente", bars)
	p.Legend.Top = true
	p.Legend.Left = true

	threshold := res.Config.PCA.VarianceThreshold
	ref := plotter.NewFunction(func(float64) float64 { return threshold })
	ref.Color = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	ref.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	p.Add(ref)

	p.NominalX(componentLabels(len(full.Ratio))...)
	p.Y.Min = 0
	p.Y.Max = 1.05

	k := res.Reduction.Components
	marker, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    []plotter.XY{{X: float64(k - 1), Y: full.Cumulative[k-1] + 0.02}},
		Labels: []string{fmt.Sprintf("%d comp. = %s", k, formatPercent(full.Cumulative[k-1]))},
	})
	if err != nil {
		return err
	}
	p.Add(marker)
	p.Add(plotter.NewGrid())

	return p.Save(12*vg.Inch, 8*vg.Inch, path)
}

func createElbowChart(res *pipeline.Result, path string) error {
	p := plot.New()
	p.Title.Text = "K (# de clusters) vs inercia"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "K clusters"
	p.Y.Label.Text = "Inercia"

	points := make(plotter.XYs, len(res.Elbow))
	for i, pt := range res.Elbow {
		points[i].X = float64(pt.K)
		points[i].Y = pt.Inertia
	}
	line, scatter, err := plotter.NewLinePoints(points)
	if err != nil {
		return err
	}
	line.Color = color.RGBA{R: 0, G: 100, B: 0, A: 255}
	line.Width = vg.Points(2)
	scatter.GlyphStyle.Color = line.Color
	scatter.GlyphStyle.Radius = vg.Points(4)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(line, scatter)

	for _, pt := range res.Elbow {
		if pt.K != res.KMeans.K() {
			continue
		}
		chosen, err := plotter.NewScatter(plotter.XYs{{X: float64(pt.K), Y: pt.Inertia}})
		if err != nil {
			return err
		}
		chosen.GlyphStyle.Color = color.RGBA{R: 220, G: 20, B: 60, A: 255}
		chosen.GlyphStyle.Radius = vg.Points(8)
		chosen.GlyphStyle.Shape = draw.RingGlyph{}
		p.Add(chosen)
		p.Legend.Add(fmt.Sprintf("k elegido = %d", pt.K), chosen)
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	return p.Save(12*vg.Inch, 8*vg.Inch, path)
}

// correlationGrid adapts a correlation matrix to plotter.GridXYZ.
type correlationGrid struct {
	m *mat.SymDense
}

func (g correlationGrid) Dims() (c, r int) {
	n, _ := g.m.Dims()
	return n, n
}
func (g correlationGrid) Z(c, r int) float64 { return g.m.At(r, c) }
func (g correlationGrid) X(c int) float64    { return float64(c) }
func (g correlationGrid) Y(r int) float64    { return float64(r) }

// componentLabels returns PC1..PCn.
func componentLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("PC%d", i+1)
	}
	return labels
}

// createCorrelationHeatmap draws m as an annotated heat map with names on
// both axes.
func createCorrelationHeatmap(m *mat.SymDense, names []string, title, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(16)

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	grid := correlationGrid{m: m}
	heat := plotter.NewHeatMap(grid, cmap.Palette(255))
	heat.Min = -1
	heat.Max = 1
	p.Add(heat)

	n := len(names)
	xys := make(plotter.XYs, 0, n*n)
	labels := make([]string, 0, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			xys = append(xys, plotter.XY{X: float64(c), Y: float64(r)})
			labels = append(labels, fmt.Sprintf("%.2f", grid.Z(c, r)))
		}
	}
	values, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return err
	}
	for i := range values.TextStyle {
		values.TextStyle[i].XAlign = draw.XCenter
		values.TextStyle[i].YAlign = draw.YCenter
		values.TextStyle[i].Font.Size = vg.Points(7)
	}
	p.Add(values)

	p.NominalX(names...)
	p.NominalY(names...)
	p.X.Tick.Label.Rotation = math.Pi / 3
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight

	return p.Save(14*vg.Inch, 12*vg.Inch, path)
}

// scoresXY returns the first two principal component scores. With a single
// component the second coordinate is zero.
func scoresXY(scores *mat.Dense) plotter.XYs {
	r, c := scores.Dims()
	points := make(plotter.XYs, r)
	for i := 0; i < r; i++ {
		points[i].X = scores.At(i, 0)
		if c > 1 {
			points[i].Y = scores.At(i, 1)
		}
	}
	return points
}

func createComponentScatter(res *pipeline.Result, path string) error {
	p := plot.New()
	p.Title.Text = "Ubicación de los departamentos en el espacio de los dos componentes principales"
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = fmt.Sprintf("PC1 (%s)", formatPercent(res.Reduction.Model.Ratio[0]))
	if res.Reduction.Components > 1 {
		p.Y.Label.Text = fmt.Sprintf("PC2 (%s)", formatPercent(res.Reduction.Model.Ratio[1]))
	} else {
		p.Y.Label.Text = "PC2"
	}

	points := scoresXY(res.Reduction.Scores)
	labels := make([]string, len(points))
	byCluster := make([]plotter.XYs, res.KMeans.K())
	for i, a := range res.Assignments {
		byCluster[a.Cluster] = append(byCluster[a.Cluster], points[i])
		labels[i] = getShortDepartmentName(a.Key)
	}

	for cl, xys := range byCluster {
		if len(xys) == 0 {
			continue
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		scatter.GlyphStyle.Color = clusterColor(cl)
		scatter.GlyphStyle.Radius = vg.Points(6)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add(clusterName(cl), scatter)
	}

	labelPoints, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    points,
		Labels: labels,
	})
	if err != nil {
		return err
	}
	labelPoints.Offset = vg.Point{X: vg.Points(-10), Y: vg.Points(8)}
	p.Add(labelPoints)

	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	return p.Save(12*vg.Inch, 9*vg.Inch, path)
}

func createIndicatorChart(res *pipeline.Result, indicator, path string) error {
	values, err := res.Dataset.Column(indicator)
	if err != nil {
		return err
	}
	k := res.KMeans.K()

	p := plot.New()
	p.Title.Text = indicatorTitle(indicator)
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.X.Label.Text = "Cluster"
	p.Y.Label.Text = indicator

	lo, hi := minMax(values)
	points := make(plotter.XYs, len(values))
	labels := make([]string, len(values))
	legend := make([]bool, k)

	for i, a := range res.Assignments {
		points[i].X = float64(a.Cluster)
		points[i].Y = values[i]
		labels[i] = getShortDepartmentName(a.Key)

		bubble, err := plotter.NewScatter(plotter.XYs{points[i]})
		if err != nil {
			return err
		}
		radius := vg.Points(4)
		if hi > lo {
			radius = vg.Points(4 + 10*(values[i]-lo)/(hi-lo))
		}
		bubble.GlyphStyle.Radius = radius
		bubble.GlyphStyle.Shape = draw.CircleGlyph{}
		bubble.GlyphStyle.Color = clusterColor(a.Cluster)
		p.Add(bubble)

		if !legend[a.Cluster] {
			legend[a.Cluster] = true
			p.Legend.Add(clusterName(a.Cluster), bubble)
		}
	}

	labelPoints, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    points,
		Labels: labels,
	})
	if err != nil {
		return err
	}
	labelPoints.Offset = vg.Point{X: vg.Points(12), Y: vg.Points(-4)}
	p.Add(labelPoints)

	names := make([]string, k)
	for cl := range names {
		names[cl] = clusterName(cl)
	}
	p.NominalX(names...)
	p.X.Min = -0.5
	p.X.Max = float64(k) - 0.5
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = lo - pad
	p.Y.Max = hi + pad
	p.Add(plotter.NewGrid())

	return p.Save(12*vg.Inch, 9*vg.Inch, path)
}
