// Package config provides configuration management for deptcluster.
//
// Values are layered with koanf: built-in defaults, then an optional
// deptcluster.yaml found at the project root, then DEPTCLUSTER_* environment
// variables, then command-line flags that were explicitly set.
package config

// PCAConfig controls the dimensionality reduction stage.
type PCAConfig struct {
	// Components is the number of principal components to keep.
	// Zero means "pick the smallest count reaching VarianceThreshold".
	Components        int     `koanf:"components"`
	VarianceThreshold float64 `koanf:"variance_threshold"`
}

// KMeansConfig controls cluster count selection and the final fit.
type KMeansConfig struct {
	Clusters int     `koanf:"clusters"`
	KMin     int     `koanf:"k_min"`
	KMax     int     `koanf:"k_max"`
	MaxIter  int     `koanf:"max_iter"`
	NInit    int     `koanf:"n_init"`
	Tol      float64 `koanf:"tol"`
	Seed     uint64  `koanf:"seed"`
	Init     string  `koanf:"init"`
}

// Config holds all configuration options.
type Config struct {
	Input      string       `koanf:"input"`
	Sheet      string       `koanf:"sheet"`
	KeyColumn  string       `koanf:"key_column"`
	Indicators []string     `koanf:"indicators"`
	Highlight  []string     `koanf:"highlight"`
	OutputDir  string       `koanf:"output_dir"`
	Format     string       `koanf:"format"`
	Verbose    bool         `koanf:"verbose"`
	PCA        PCAConfig    `koanf:"pca"`
	KMeans     KMeansConfig `koanf:"kmeans"`

	// ProjectRoot is the directory relative paths were resolved against.
	// It is computed, not read from configuration.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultInput             = "1.data/ecv_colombia.xlsx"
	DefaultKeyColumn         = "Departamento"
	DefaultOutputDir         = "out"
	DefaultFormat            = "png"
	DefaultComponents        = 6
	DefaultVarianceThreshold = 0.94
	DefaultClusters          = 4
	DefaultKMin              = 2
	DefaultKMax              = 9
	DefaultMaxIter           = 300
	DefaultNInit             = 10
	DefaultTol               = 1e-4
	DefaultSeed              = 42
	DefaultInit              = "k-means++"
)

// DefaultHighlight lists the indicators that get a per-cluster chart:
// multidimensional poverty, aqueduct access, internet access, higher
// education and contributory social security affiliation.
var DefaultHighlight = []string{"ipm", "hog_acued", "acc_internet", "edu_sup", "afi_seg_soc"}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Input:     DefaultInput,
		KeyColumn: DefaultKeyColumn,
		Highlight: append([]string(nil), DefaultHighlight...),
		OutputDir: DefaultOutputDir,
		Format:    DefaultFormat,
		PCA: PCAConfig{
			Components:        DefaultComponents,
			VarianceThreshold: DefaultVarianceThreshold,
		},
		KMeans: KMeansConfig{
			Clusters: DefaultClusters,
			KMin:     DefaultKMin,
			KMax:     DefaultKMax,
			MaxIter:  DefaultMaxIter,
			NInit:    DefaultNInit,
			Tol:      DefaultTol,
			Seed:     DefaultSeed,
			Init:     DefaultInit,
		},
	}
}
