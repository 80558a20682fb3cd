package retriever

// Config holds the tunable parameters of a HybridRetriever. Zero values
// are not meaningful; construct with NewConfig.
type Config struct {
	// UseHybrid enables keyword fusion. When false, Retrieve behaves as
	// semantic-only regardless of weights.
	UseHybrid bool
	// SemanticWeight and KeywordWeight are normalized to sum to 1 by
	// NewConfig.
	SemanticWeight float64
	KeywordWeight  float64
	// DefaultTopK is the top_k a caller can use when it has no
	// preference of its own; Retrieve itself requires a positive topK
	// and does not substitute this value.
	DefaultTopK int
	// CandidateMultiplier and CandidateCap set how many dense candidates
	// Retrieve fetches before fusion: min(topK*CandidateMultiplier,
	// CandidateCap), raised to topK when that is smaller (see spec
	// §4.4.2). The sparse index always scores the whole corpus.
	CandidateMultiplier int
	CandidateCap        int
	// KeywordNormalizationDivisor scales raw BM25 scores into [0, 1]
	// before fusion.
	KeywordNormalizationDivisor float64
}

// Option configures a Config.
type Option func(*Config)

func WithHybrid(enabled bool) Option {
	return func(c *Config) { c.UseHybrid = enabled }
}

// WithWeights sets the relative semantic/keyword fusion weights. They
// need not already sum to 1; NewConfig normalizes them.
func WithWeights(semantic, keyword float64) Option {
	return func(c *Config) {
		c.SemanticWeight = semantic
		c.KeywordWeight = keyword
	}
}

func WithDefaultTopK(k int) Option {
	return func(c *Config) { c.DefaultTopK = k }
}

func WithCandidateMultiplier(m int) Option {
	return func(c *Config) { c.CandidateMultiplier = m }
}

func WithCandidateCap(cap int) Option {
	return func(c *Config) { c.CandidateCap = cap }
}

func WithKeywordNormalizationDivisor(d float64) Option {
	return func(c *Config) { c.KeywordNormalizationDivisor = d }
}

// defaultConfig returns the baseline before options are applied, per
// spec §4.4.1.
func defaultConfig() Config {
	return Config{
		UseHybrid:                   true,
		SemanticWeight:              0.6,
		KeywordWeight:               0.4,
		DefaultTopK:                 5,
		CandidateMultiplier:         2,
		CandidateCap:                20,
		KeywordNormalizationDivisor: 10.0,
	}
}

// NewConfig builds a validated Config. Weights are normalized to sum to
// 1; both weights being zero while hybrid is enabled is a
// ConfigurationError, since there would be nothing to rank by.
func NewConfig(opts ...Option) (Config, error) {
	c := defaultConfig()
	for _, opt := range opts {
		opt(&c)
	}

	if c.DefaultTopK <= 0 {
		return Config{}, &ConfigurationError{Message: "default_top_k must be positive"}
	}
	if c.CandidateMultiplier <= 0 {
		return Config{}, &ConfigurationError{Message: "candidate_multiplier must be positive"}
	}
	if c.CandidateCap <= 0 {
		return Config{}, &ConfigurationError{Message: "candidate_cap must be positive"}
	}
	if c.KeywordNormalizationDivisor <= 0 {
		return Config{}, &ConfigurationError{Message: "keyword_normalization_divisor must be positive"}
	}
	if c.SemanticWeight < 0 || c.KeywordWeight < 0 {
		return Config{}, &ConfigurationError{Message: "fusion weights must be non-negative"}
	}

	if c.UseHybrid {
		sum := c.SemanticWeight + c.KeywordWeight
		if sum == 0 {
			return Config{}, &ConfigurationError{Message: "semantic_weight and keyword_weight cannot both be zero"}
		}
		c.SemanticWeight /= sum
		c.KeywordWeight /= sum
	} else {
		c.SemanticWeight = 1
		c.KeywordWeight = 0
	}

	return c, nil
}
