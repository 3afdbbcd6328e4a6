package report

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecv-analytics/deptcluster/internal/config"
	"github.com/ecv-analytics/deptcluster/internal/pipeline"
	"github.com/ecv-analytics/deptcluster/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func runResult(t *testing.T) *pipeline.Result {
	t.Helper()
	cfg := config.Default()
	cfg.Input = testutil.WriteWorkbook(t, "ecv.xlsx", testutil.IndicatorRecords())
	cfg.PCA.Components = 2
	cfg.KMeans.Clusters = 2
	cfg.KMeans.KMax = 5

	res, err := pipeline.New(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestWrite(t *testing.T) {
	res := runResult(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := Write(res, dir, "png", testutil.NewTestLogger(t))
	require.NoError(t, err)

	// five fixed charts and one per highlighted indicator
	require.Len(t, out.Charts, 5+len(res.Highlight))
	assert.Equal(t, filepath.Join(dir, "components_correlation.png"), out.Charts[3])
	assert.Equal(t, filepath.Join(dir, "pca_scatter.png"), out.Charts[4])
	assert.Equal(t, filepath.Join(dir, "indicator_acc_internet.png"), out.Charts[7])

	for _, path := range out.Files() {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}
}

func TestWrite_Workbook(t *testing.T) {
	res := runResult(t)
	out, err := Write(res, t.TempDir(), "svg", nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(out.Workbook)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t,
		[]string{SheetClusters, SheetVariance, SheetElbow, SheetProfile, SheetCorrelation, SheetComponentCorrelation},
		f.GetSheetList())

	rows, err := f.GetRows(SheetClusters)
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"Departamento", "Cluster", "PC1", "PC2", "ipm"}, rows[0][:5])
	assert.Equal(t, "Bogotá D.C.", rows[1][0])

	elbow, err := f.GetRows(SheetElbow)
	require.NoError(t, err)
	assert.Len(t, elbow, 1+len(res.Elbow))

	pcs, err := f.GetRows(SheetComponentCorrelation)
	require.NoError(t, err)
	require.Len(t, pcs, 3)
	assert.Equal(t, []string{"", "PC1", "PC2"}, pcs[0])
	assert.Equal(t, "PC2", pcs[2][0])

	props, err := f.GetDocProps()
	require.NoError(t, err)
	assert.Equal(t, res.RunID, props.Identifier)
}

func TestWrite_Markdown(t *testing.T) {
	res := runResult(t)
	out, err := Write(res, t.TempDir(), "png", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out.Markdown)
	require.NoError(t, err)
	md := string(data)

	assert.Contains(t, md, res.RunID)
	assert.Contains(t, md, "| 11 | Chocó | ipm |")
	assert.Contains(t, md, "semilla 42")
	assert.Contains(t, md, "- Vaupés\n")
	assert.Contains(t, md, "interactive.html")
	assert.NotContains(t, md, "report.md")
}

func TestWrite_Interactive(t *testing.T) {
	res := runResult(t)
	out, err := Write(res, t.TempDir(), "png", nil)
	require.NoError(t, err)

	data, err := os.ReadFile(out.Interactive)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echarts")
	assert.Contains(t, string(data), "Antioquia")
}

func TestComponentLabels(t *testing.T) {
	assert.Equal(t, []string{"PC1", "PC2", "PC3"}, componentLabels(3))
	assert.Empty(t, componentLabels(0))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{math.NaN(), "-"},
		{2500000, "2.50M"},
		{12345, "12.3K"},
		{-4500, "-4.5K"},
		{250.4, "250"},
		{0.1234, "0.12"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
	assert.Equal(t, "94.0%", formatPercent(0.94))
}

func TestShortNames(t *testing.T) {
	assert.Equal(t, "Bogotá", getShortDepartmentName("Bogotá D.C."))
	assert.Equal(t, "Valle", getShortDepartmentName("Valle del Cauca"))
	assert.Equal(t, "Antioquia", getShortDepartmentName("Antioquia"))

	assert.Equal(t, "afi_seg_soc", fileSafe("afi_seg_soc"))
	assert.Equal(t, "educacion_superior", fileSafe("Educación Superior"))
	assert.Equal(t, "Índice de pobreza multidimensional por cluster", indicatorTitle("IPM"))
	assert.Equal(t, "pib por cluster", indicatorTitle("pib"))
}

func TestMinMax(t *testing.T) {
	lo, hi := minMax([]float64{3, -1, 7, 2})
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)

	lo, hi = minMax(nil)
	assert.Zero(t, lo)
	assert.Zero(t, hi)
}
