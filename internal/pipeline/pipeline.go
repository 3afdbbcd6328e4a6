// Package pipeline runs the department analysis end to end: load, clean,
// standardize, reduce with PCA, pick k from the elbow curve and cluster.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecv-analytics/deptcluster/internal/analysis"
	"github.com/ecv-analytics/deptcluster/internal/config"
	"github.com/ecv-analytics/deptcluster/internal/dataset"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"
)

// Assignment is the cluster of one department.
type Assignment struct {
	Key     string
	Cluster int
}

// Reduction holds the standardization and PCA stages.
type Reduction struct {
	Scaled *analysis.Scaled
	// Full is the fit with every component, kept for the variance report.
	Full *analysis.PCA
	// Model is Full truncated to the selected component count.
	Model *analysis.PCA
	// Scores is rows x Components.
	Scores *mat.Dense
	// Components is the selected component count.
	Components int
	// AutoSelected is true when the count came from the variance threshold.
	AutoSelected bool
}

// Result carries every artifact of a run.
type Result struct {
	RunID       string
	StartedAt   time.Time
	Duration    time.Duration
	Config      *config.Config
	Dataset     *dataset.Dataset
	Correlation *mat.SymDense
	// ComponentCorrelation is the correlation of the retained component
	// scores, near the identity.
	ComponentCorrelation *mat.SymDense
	Reduction            *Reduction
	Elbow                []analysis.ElbowPoint
	KMeans               *analysis.KMeans
	Assignments          []Assignment
	Profiles             []analysis.ClusterProfile
	// Highlight lists the indicators charted per cluster, as named in the
	// dataset.
	Highlight []string
}

// Pipeline runs the stages with a fixed configuration.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Pipeline. A nil logger discards output.
func New(cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, logger: logger}
}

func (p *Pipeline) kmeansOptions(k int) analysis.KMeansOptions {
	return analysis.KMeansOptions{
		K:       k,
		MaxIter: p.cfg.KMeans.MaxIter,
		NInit:   p.cfg.KMeans.NInit,
		Tol:     p.cfg.KMeans.Tol,
		Init:    p.cfg.KMeans.Init,
		Seed:    p.cfg.KMeans.Seed,
	}
}

// Load reads and cleans the input table.
func (p *Pipeline) Load(ctx context.Context) (*dataset.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.logger.Debug("loading dataset", "path", p.cfg.Input, "sheet", p.cfg.Sheet)

	ds, err := dataset.Load(p.cfg.Input, dataset.Options{
		Sheet:      p.cfg.Sheet,
		KeyColumn:  p.cfg.KeyColumn,
		Indicators: p.cfg.Indicators,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", p.cfg.Input, err)
	}

	for _, d := range ds.Dropped {
		p.logger.Info("dropped incomplete row", "row", d.Index+2, "key", d.Key, "missing", d.Missing)
	}
	p.logger.Debug("dataset loaded", "rows", ds.Rows(), "indicators", len(ds.Indicators), "dropped", len(ds.Dropped))
	return ds, nil
}

// Reduce standardizes the dataset and projects it onto the selected number
// of principal components.
func (p *Pipeline) Reduce(ctx context.Context, ds *dataset.Dataset) (*Reduction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scaled, err := analysis.Standardize(ds.Values, ds.Indicators)
	if err != nil {
		return nil, fmt.Errorf("standardize: %w", err)
	}

	full, err := analysis.FitPCA(scaled.Data)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}

	n := p.cfg.PCA.Components
	auto := n == 0
	if auto {
		n = analysis.SelectComponents(full.Cumulative, p.cfg.PCA.VarianceThreshold)
	} else if n > full.Components() {
		p.logger.Warn("component count capped", "requested", n, "available", full.Components())
		n = full.Components()
	}

	model, err := full.Truncate(n)
	if err != nil {
		return nil, fmt.Errorf("pca: %w", err)
	}
	scores := model.Transform(scaled.Data)

	p.logger.Debug("pca fitted",
		"components", n,
		"auto", auto,
		"explained", model.Cumulative[n-1],
	)
	return &Reduction{
		Scaled:       scaled,
		Full:         full,
		Model:        model,
		Scores:       scores,
		Components:   n,
		AutoSelected: auto,
	}, nil
}

// ElbowCurve computes inertia and silhouette over the configured k range.
func (p *Pipeline) ElbowCurve(ctx context.Context, red *Reduction) ([]analysis.ElbowPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	points, err := analysis.Elbow(red.Scores, p.cfg.KMeans.KMin, p.cfg.KMeans.KMax, p.kmeansOptions(0))
	if err != nil {
		return nil, fmt.Errorf("elbow: %w", err)
	}
	for _, pt := range points {
		p.logger.Debug("elbow point", "k", pt.K, "inertia", pt.Inertia, "silhouette", pt.Silhouette)
	}
	return points, nil
}

// Cluster fits k-means with the configured cluster count.
func (p *Pipeline) Cluster(ctx context.Context, red *Reduction) (*analysis.KMeans, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	km, err := analysis.FitKMeans(red.Scores, p.kmeansOptions(p.cfg.KMeans.Clusters))
	if err != nil {
		return nil, fmt.Errorf("kmeans: %w", err)
	}
	p.logger.Debug("kmeans fitted", "k", km.K(), "inertia", km.Inertia, "iterations", km.Iterations, "sizes", km.Sizes())
	return km, nil
}

// resolveHighlight maps configured highlight names onto dataset columns.
func resolveHighlight(ds *dataset.Dataset, names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		j := ds.IndicatorIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("highlight: %w: %s", dataset.ErrMissingColumn, name)
		}
		out = append(out, ds.Indicators[j])
	}
	return out, nil
}

// Run executes every stage.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Config:    p.cfg,
	}
	logger := p.logger.With("run_id", res.RunID)
	logger.Info("analysis started", "input", p.cfg.Input, "seed", p.cfg.KMeans.Seed)

	ds, err := p.Load(ctx)
	if err != nil {
		return nil, err
	}
	res.Dataset = ds

	if res.Highlight, err = resolveHighlight(ds, p.cfg.Highlight); err != nil {
		return nil, err
	}
	res.Correlation = analysis.Correlation(ds.Values)

	if res.Reduction, err = p.Reduce(ctx, ds); err != nil {
		return nil, err
	}
	if res.Elbow, err = p.ElbowCurve(ctx, res.Reduction); err != nil {
		return nil, err
	}
	res.ComponentCorrelation = analysis.Correlation(res.Reduction.Scores)

	// The elbow already fitted the configured k when it is in range; reusing
	// that fit keeps the reported inertia equal to the curve's.
	if res.KMeans = analysis.ElbowFit(res.Elbow, p.cfg.KMeans.Clusters); res.KMeans != nil {
		logger.Debug("kmeans taken from elbow curve", "k", res.KMeans.K(), "inertia", res.KMeans.Inertia)
	} else if res.KMeans, err = p.Cluster(ctx, res.Reduction); err != nil {
		return nil, err
	}

	res.Assignments = make([]Assignment, len(ds.Keys))
	for i, key := range ds.Keys {
		res.Assignments[i] = Assignment{Key: key, Cluster: res.KMeans.Labels[i]}
	}
	res.Profiles = analysis.Profiles(ds.Keys, ds.Values, res.KMeans.Labels, res.KMeans.K())
	res.Duration = time.Since(start)

	logger.Info("analysis finished",
		"departments", ds.Rows(),
		"components", res.Reduction.Components,
		"clusters", res.KMeans.K(),
		"duration", res.Duration,
	)
	return res, nil
}
