package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ecv-analytics/deptcluster/internal/report"
	"github.com/ecv-analytics/deptcluster/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command against a fresh project directory holding
// the fixture workbook.
func execute(t *testing.T, args ...string) (dir, stdout, stderr string, err error) {
	t.Helper()
	dir = t.TempDir()
	input := testutil.WriteWorkbook(t, "ecv.xlsx", testutil.IndicatorRecords())

	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(append(args, "--project-dir", dir, "--input", input))

	err = cmd.Execute()
	return dir, out.String(), errOut.String(), err
}

func TestRunCommand(t *testing.T) {
	dir, out, _, err := execute(t, "run",
		"--components", "2",
		"--clusters", "2",
		"--k-max", "5",
		"--format", "svg",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "9 departamentos")
	assert.Contains(t, out, "Chocó")
	assert.Contains(t, out, "Explained variance")
	assert.Contains(t, out, "Vaupés")
	assert.Contains(t, out, "ANÁLISIS TERMINADO")

	outDir := filepath.Join(dir, "out")
	for _, name := range []string{"pca_scatter.svg", "indicator_ipm.svg", report.InteractiveFile, report.WorkbookFile, report.MarkdownFile} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
}

func TestInfoCommand(t *testing.T) {
	_, out, _, err := execute(t, "info")
	require.NoError(t, err)

	assert.Contains(t, out, "Departments: 9")
	assert.Contains(t, out, "Dropped rows: 1")
	assert.Contains(t, out, "Chocó")
	assert.Contains(t, out, "acc_internet")
}

func TestInfoCommand_BlankKeyHeader(t *testing.T) {
	records := testutil.IndicatorRecords()
	records[0][0] = ""
	input := testutil.WriteWorkbook(t, "blank.xlsx", records)

	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"info", "--key-column", "", "--project-dir", t.TempDir(), "--input", input})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Departments: 9")
	assert.Contains(t, out.String(), "Chocó")
}

func TestVarianceCommand(t *testing.T) {
	_, out, _, err := execute(t, "variance", "--components", "0", "--variance-threshold", "0.5")
	require.NoError(t, err)

	assert.Contains(t, out, "PC5")
	assert.Contains(t, out, "Components kept: 1 (threshold 50.0%)")
}

func TestElbowCommand(t *testing.T) {
	_, out, _, err := execute(t, "elbow", "--components", "2", "--clusters", "3", "--k-max", "4")
	require.NoError(t, err)

	assert.Contains(t, out, "Elbow curve")
	assert.Contains(t, out, "Configured clusters: 3")
}

func TestVerboseLogsToStderr(t *testing.T) {
	_, _, errOut, err := execute(t, "-v", "info")
	require.NoError(t, err)

	assert.Contains(t, errOut, "configuration loaded")
	assert.Contains(t, errOut, "dropped incomplete row")
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		errSubstr string
	}{
		{
			name:      "invalid cluster count",
			args:      []string{"run", "--clusters", "0"},
			errSubstr: "kmeans.clusters",
		},
		{
			name:      "invalid init",
			args:      []string{"elbow", "--init", "forgy"},
			errSubstr: "kmeans.init",
		},
		{
			name:      "missing highlight column",
			args:      []string{"run", "--highlight", "pib"},
			errSubstr: "pib",
		},
		{
			name:      "unknown flag",
			args:      []string{"variance", "--nope"},
			errSubstr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestVersionSkipsConfig(t *testing.T) {
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	// An unreadable config file would fail any other command.
	cmd.SetArgs([]string{"version", "--config", filepath.Join(t.TempDir(), "missing.yaml")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "deptcluster v"+Version)
}
