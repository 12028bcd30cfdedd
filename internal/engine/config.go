// Package engine implements the derived-metrics pass for the debate
// league: a deterministic, single-pass transform from raw debate records
// to league statistics, plus the confound-adjusted judge-bias estimator
// and the category merge/filter operations over already-computed data.
package engine

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-rostrum/internal/domain"
)

// Package-level validator instance for configuration validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// BiasConfig holds the hyperparameters of the judge-bias estimator.
// These are tunable constants, not load-bearing values; the defaults
// reproduce the reference behavior.
type BiasConfig struct {
	// LambdaJudge is the L2 penalty applied to judge features and to
	// the intercept.
	LambdaJudge float64 `yaml:"lambda_judge" validate:"min=0"`

	// LambdaTopic is the L2 penalty applied to topic features.
	LambdaTopic float64 `yaml:"lambda_topic" validate:"min=0"`

	// LambdaModel is the L2 penalty applied to signed model features.
	LambdaModel float64 `yaml:"lambda_model" validate:"min=0"`

	// LambdaTopicModel is the L2 penalty applied to the signed
	// topic-by-model interaction features.
	LambdaTopicModel float64 `yaml:"lambda_topic_model" validate:"min=0"`

	// LearningRate is the fixed gradient-descent step size.
	LearningRate float64 `yaml:"learning_rate" validate:"gt=0"`

	// Iterations is the iteration budget of the single full-data fit.
	Iterations int `yaml:"iterations" validate:"min=1"`

	// CVIterations is the iteration budget of each per-fold refit.
	CVIterations int `yaml:"cv_iterations" validate:"min=1"`

	// Folds is the number of cross-validation folds.
	Folds int `yaml:"folds" validate:"min=2"`
}

// Config is the full engine configuration: Elo defaults plus the bias
// estimator hyperparameters. Records may override the Elo parameters
// per dataset; everything else is fixed for the pass.
type Config struct {
	// Elo supplies the default initial rating and K-factor used when
	// records do not carry their own Elo configuration.
	Elo domain.EloConfig `yaml:"elo"`

	// Bias configures the judge-bias estimator.
	Bias BiasConfig `yaml:"bias" validate:"required"`
}

// Options selects the optional phases of a metrics pass. Both flags are
// latency trade-offs for the caller; neither affects the correctness of
// the collections that are produced.
type Options struct {
	// IncludeRows populates the flat per-debate and per-judge-decision
	// row tables used for ad hoc charting.
	IncludeRows bool

	// IncludeBiasCV runs the k-fold cross-validated stability pass on
	// top of the single-fit bias adjustment.
	IncludeBiasCV bool
}

// DefaultConfig returns the reference configuration: Elo 400/32, all
// group penalties 0.5, learning rate 0.2, 250 iterations for the full
// fit and 220 per fold, 5 folds.
func DefaultConfig() Config {
	return Config{
		Elo: domain.EloConfig{
			InitialRating: 400,
			KFactor:       32,
		},
		Bias: BiasConfig{
			LambdaJudge:      0.5,
			LambdaTopic:      0.5,
			LambdaModel:      0.5,
			LambdaTopicModel: 0.5,
			LearningRate:     0.2,
			Iterations:       250,
			CVIterations:     220,
			Folds:            5,
		},
	}
}

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// ParseConfig decodes a YAML document over the defaults, so a config
// file only needs to name the fields it changes.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return ParseConfig(data)
}
