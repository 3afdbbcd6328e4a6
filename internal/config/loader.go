package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "DEPTCLUSTER_"

// configFileNames are probed, in order, at the project root.
var configFileNames = []string{"deptcluster.yaml", "deptcluster.yml"}

// flagKeys maps flag names to their koanf keys. Flags not listed here are
// not configuration (for example --config itself).
var flagKeys = map[string]string{
	"input":              "input",
	"sheet":              "sheet",
	"key-column":         "key_column",
	"indicators":         "indicators",
	"highlight":          "highlight",
	"output-dir":         "output_dir",
	"format":             "format",
	"verbose":            "verbose",
	"components":         "pca.components",
	"variance-threshold": "pca.variance_threshold",
	"clusters":           "kmeans.clusters",
	"k-min":              "kmeans.k_min",
	"k-max":              "kmeans.k_max",
	"max-iter":           "kmeans.max_iter",
	"n-init":             "kmeans.n_init",
	"seed":               "kmeans.seed",
	"init":               "kmeans.init",
}

// sections are the nested config blocks addressable from the environment,
// e.g. DEPTCLUSTER_KMEANS_K_MIN -> kmeans.k_min.
var sections = []string{"pca", "kmeans"}

func defaults() map[string]interface{} {
	d := Default()
	return map[string]interface{}{
		"input":                  d.Input,
		"sheet":                  d.Sheet,
		"key_column":             d.KeyColumn,
		"highlight":              d.Highlight,
		"output_dir":             d.OutputDir,
		"format":                 d.Format,
		"verbose":                false,
		"pca.components":         d.PCA.Components,
		"pca.variance_threshold": d.PCA.VarianceThreshold,
		"kmeans.clusters":        d.KMeans.Clusters,
		"kmeans.k_min":           d.KMeans.KMin,
		"kmeans.k_max":           d.KMeans.KMax,
		"kmeans.max_iter":        d.KMeans.MaxIter,
		"kmeans.n_init":          d.KMeans.NInit,
		"kmeans.tol":             d.KMeans.Tol,
		"kmeans.seed":            d.KMeans.Seed,
		"kmeans.init":            d.KMeans.Init,
	}
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if strings.HasPrefix(key, sec+"_") {
			return sec + "." + strings.TrimPrefix(key, sec+"_")
		}
	}
	return key
}

// listKeys are the settings read from the environment as comma-separated
// lists, e.g. DEPTCLUSTER_HIGHLIGHT=ipm,edu_sup.
var listKeys = map[string]bool{"highlight": true, "indicators": true}

func envKeyValue(name, value string) (string, interface{}) {
	key := envKey(name)
	if !listKeys[key] {
		return key, value
	}
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return key, items
}

// Load builds the configuration.
// Priority: flags > environment > config file > defaults.
// cfgFile may be empty, in which case deptcluster.yaml is looked up at the
// project root. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	projectDir := ""
	if flags != nil && flags.Lookup("project-dir") != nil {
		projectDir, _ = flags.GetString("project-dir")
	}
	root, err := ResolveProjectRoot(projectDir)
	if err != nil {
		return nil, err
	}
	if cfgFile != "" && projectDir == "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			root = filepath.Dir(abs)
		}
	}

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		for _, name := range configFileNames {
			candidate := filepath.Join(root, name)
			if _, err := os.Stat(candidate); err == nil {
				cfgFile = candidate
				break
			}
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKeyValue), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.ProjectRoot = root
	cfg.Input = resolvePathRelativeTo(cfg.Input, root)
	cfg.OutputDir = resolvePathRelativeTo(cfg.OutputDir, root)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that would otherwise fail deep in the pipeline.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.PCA.Components < 0 {
		return fmt.Errorf("pca.components must be >= 0, got %d", c.PCA.Components)
	}
	if c.PCA.Components == 0 && (c.PCA.VarianceThreshold <= 0 || c.PCA.VarianceThreshold > 1) {
		return fmt.Errorf("pca.variance_threshold must be in (0, 1], got %g", c.PCA.VarianceThreshold)
	}
	if c.KMeans.Clusters < 1 {
		return fmt.Errorf("kmeans.clusters must be >= 1, got %d", c.KMeans.Clusters)
	}
	if c.KMeans.KMin < 1 || c.KMeans.KMax < c.KMeans.KMin {
		return fmt.Errorf("invalid k range %d..%d", c.KMeans.KMin, c.KMeans.KMax)
	}
	if c.KMeans.MaxIter < 1 {
		return fmt.Errorf("kmeans.max_iter must be >= 1, got %d", c.KMeans.MaxIter)
	}
	if c.KMeans.NInit < 1 {
		return fmt.Errorf("kmeans.n_init must be >= 1, got %d", c.KMeans.NInit)
	}
	switch c.KMeans.Init {
	case "random", "k-means++":
	default:
		return fmt.Errorf("kmeans.init must be random or k-means++, got %q", c.KMeans.Init)
	}
	switch c.Format {
	case "png", "svg", "pdf", "jpg", "eps", "tif":
	default:
		return fmt.Errorf("unsupported chart format %q", c.Format)
	}
	return nil
}

func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, filepath.FromSlash(strings.ReplaceAll(path, `\`, "/")))
}
