// Package report writes the artifacts of an analysis run: static charts,
// an interactive HTML page, an Excel workbook and a markdown summary.
package report

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ecv-analytics/deptcluster/internal/pipeline"
)

// Artifact file names inside the output directory.
const (
	InteractiveFile = "interactive.html"
	WorkbookFile    = "deptcluster_analysis.xlsx"
	MarkdownFile    = "report.md"
)

// Artifacts lists the files written for a run.
type Artifacts struct {
	Dir         string
	Charts      []string
	Interactive string
	Workbook    string
	Markdown    string
}

// Files returns every written path, markdown last.
func (a *Artifacts) Files() []string {
	files := append([]string{}, a.Charts...)
	return append(files, a.Interactive, a.Workbook, a.Markdown)
}

// Write renders every artifact of res into dir, creating it if needed.
// format is the image extension of the static charts.
func Write(res *pipeline.Result, dir, format string, logger *slog.Logger) (*Artifacts, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	out := &Artifacts{
		Dir:         dir,
		Interactive: filepath.Join(dir, InteractiveFile),
		Workbook:    filepath.Join(dir, WorkbookFile),
		Markdown:    filepath.Join(dir, MarkdownFile),
	}

	charts, err := createCharts(res, dir, format)
	if err != nil {
		return nil, err
	}
	out.Charts = charts
	logger.Debug("charts written", "count", len(charts), "format", format)

	if err := writeInteractiveFile(res, out.Interactive); err != nil {
		return nil, fmt.Errorf("interactive page: %w", err)
	}
	logger.Debug("interactive page written", "path", out.Interactive)

	if err := createAnalysisWorkbook(res, out.Workbook); err != nil {
		return nil, fmt.Errorf("workbook: %w", err)
	}
	logger.Debug("workbook written", "path", out.Workbook)

	files := out.Files()
	md := buildMarkdown(res, files[:len(files)-1])
	if err := os.WriteFile(out.Markdown, []byte(md), 0o644); err != nil {
		return nil, fmt.Errorf("markdown report: %w", err)
	}
	logger.Info("report written", "dir", dir, "files", len(files))
	return out, nil
}

func writeInteractiveFile(res *pipeline.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeInteractive(res, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
