package clustering

import "github.com/okian/pitchiq/pkg/logger"

// Default clustering configuration constants.
const (
	DefaultClusters      = 5
	DefaultComponents    = 5
	DefaultSeed          = 42
	DefaultRestarts      = 10
	DefaultMaxIterations = 300
)

// Option applies a configuration option to the Clusterer.
type Option func(*Clusterer)

// WithClusters sets the requested number of clusters.
func WithClusters(k int) Option {
	return func(c *Clusterer) {
		if k > 0 {
			c.k = k
		}
	}
}

// WithComponents sets the requested number of principal components.
func WithComponents(n int) Option {
	return func(c *Clusterer) {
		if n > 0 {
			c.components = n
		}
	}
}

// WithSeed sets the seed for centroid initialisation.
func WithSeed(seed int64) Option {
	return func(c *Clusterer) {
		c.seed = seed
	}
}

// WithRestarts sets how many initialisations are tried.
func WithRestarts(n int) Option {
	return func(c *Clusterer) {
		if n > 0 {
			c.restarts = n
		}
	}
}

// WithMaxIterations caps Lloyd iterations per restart.
func WithMaxIterations(n int) Option {
	return func(c *Clusterer) {
		if n > 0 {
			c.maxIter = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Clusterer) {
		if l != nil {
			c.log = l
		}
	}
}
