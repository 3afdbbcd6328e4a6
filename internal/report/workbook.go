package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/ecv-analytics/deptcluster/internal/pipeline"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// Workbook sheet names.
const (
	SheetClusters    = "Clusters"
	SheetVariance    = "Variance"
	SheetElbow       = "Elbow"
	SheetProfile     = "Profile"
	SheetCorrelation = "Correlation"
	// SheetComponentCorrelation holds the correlation of the component scores.
	SheetComponentCorrelation = "ComponentCorrelation"
)

// sheetWriter keeps the first error of a sequence of cell writes.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) row(sheet string, row int, values ...interface{}) {
	for i, v := range values {
		if w.err != nil {
			return
		}
		if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			continue
		}
		var cell string
		cell, w.err = excelize.CoordinatesToCellName(i+1, row)
		if w.err == nil {
			w.err = w.f.SetCellValue(sheet, cell, v)
		}
	}
}

func (w *sheetWriter) header(sheet string, style int, width float64, headers ...string) {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	w.row(sheet, 1, values...)
	if w.err != nil || len(headers) == 0 {
		return
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		w.err = err
		return
	}
	lastCol := strings.TrimRight(last, "0123456789")
	if w.err = w.f.SetCellStyle(sheet, "A1", last, style); w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(sheet, "A", lastCol, width)
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.NewSheet(name)
}

func createAnalysisWorkbook(res *pipeline.Result, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetClusters); err != nil {
		return err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Clusters de departamentos de Colombia",
		Subject:     "PCA y k-means sobre indicadores socioeconómicos",
		Identifier:  res.RunID,
		Description: fmt.Sprintf("semilla %d, k = %d, componentes = %d", res.Config.KMeans.Seed, res.KMeans.K(), res.Reduction.Components),
		Created:     res.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	w := &sheetWriter{f: f}
	writeClusterSheet(w, res, bold)
	writeVarianceSheet(w, res, bold)
	writeElbowSheet(w, res, bold)
	writeProfileSheet(w, res, bold)
	writeCorrelationSheet(w, SheetCorrelation, res.Correlation, res.Dataset.Indicators, bold)
	writeCorrelationSheet(w, SheetComponentCorrelation, res.ComponentCorrelation, componentLabels(res.Reduction.Components), bold)
	if w.err != nil {
		return w.err
	}

	return f.SaveAs(path)
}

func writeClusterSheet(w *sheetWriter, res *pipeline.Result, style int) {
	headers := []string{res.Dataset.KeyColumn, "Cluster"}
	headers = append(headers, componentLabels(res.Reduction.Components)...)
	headers = append(headers, res.Dataset.Indicators...)
	w.header(SheetClusters, style, 16, headers...)

	for i, a := range res.Assignments {
		values := []interface{}{a.Key, a.Cluster}
		for j := 0; j < res.Reduction.Components; j++ {
			values = append(values, res.Reduction.Scores.At(i, j))
		}
		for j := range res.Dataset.Indicators {
			values = append(values, res.Dataset.Values.At(i, j))
		}
		w.row(SheetClusters, i+2, values...)
	}
}

func writeVarianceSheet(w *sheetWriter, res *pipeline.Result, style int) {
	w.sheet(SheetVariance)
	w.header(SheetVariance, style, 20, "Componente", "Varianza", "Proporción", "Acumulada", "Seleccionado")

	full := res.Reduction.Full
	for j := range full.Ratio {
		selected := "no"
		if j < res.Reduction.Components {
			selected = "sí"
		}
		w.row(SheetVariance, j+2, fmt.Sprintf("PC%d", j+1), full.Variance[j], full.Ratio[j], full.Cumulative[j], selected)
	}
}

func writeElbowSheet(w *sheetWriter, res *pipeline.Result, style int) {
	w.sheet(SheetElbow)
	w.header(SheetElbow, style, 16, "k", "Inercia", "Silueta")
	for i, pt := range res.Elbow {
		w.row(SheetElbow, i+2, pt.K, pt.Inertia, pt.Silhouette)
	}
}

func writeProfileSheet(w *sheetWriter, res *pipeline.Result, style int) {
	w.sheet(SheetProfile)
	headers := append([]string{"Cluster", "Departamentos", "Miembros"}, res.Dataset.Indicators...)
	w.header(SheetProfile, style, 18, headers...)

	for i, p := range res.Profiles {
		values := []interface{}{clusterName(p.Cluster), p.Size(), strings.Join(p.Members, ", ")}
		for _, m := range p.Means {
			values = append(values, m)
		}
		w.row(SheetProfile, i+2, values...)
	}
}

func writeCorrelationSheet(w *sheetWriter, sheet string, m *mat.SymDense, names []string, style int) {
	w.sheet(sheet)
	w.header(sheet, style, 14, append([]string{""}, names...)...)

	for i, name := range names {
		values := []interface{}{name}
		for j := range names {
			values = append(values, m.At(i, j))
		}
		w.row(sheet, i+2, values...)
	}
}
