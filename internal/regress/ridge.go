// Package regress provides the small numerical kernels used by the bias
// adjuster: a sparse-feature ridge-regularized logistic regression and a
// deterministic fold assigner. The package has no knowledge of debates.
package regress

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by the fitter for structurally unusable inputs.
var (
	// ErrNoExamples is returned when there is nothing to fit.
	ErrNoExamples = errors.New("no training examples")

	// ErrNoFeatures is returned when the feature space is empty.
	ErrNoFeatures = errors.New("feature space is empty")
)

// Feature is one (index, value) entry of a sparse feature vector. Each
// example activates only a handful of one-hot or signed features, so
// examples are stored sparsely rather than as dense rows.
type Feature struct {
	// Index is the position of this feature in the weight vector.
	Index int

	// Value is the feature's activation, typically +1 or -1.
	Value float64
}

// Example is a single sparse training example with a binary label.
type Example struct {
	// Features holds the active features of this example.
	Features []Feature

	// Label is 1 or 0.
	Label float64
}

// Config controls a single logistic fit. The iteration count is fixed by
// design rather than governed by a convergence check, so identical
// inputs always produce identical weights.
type Config struct {
	// LearningRate is the fixed gradient-descent step size.
	LearningRate float64

	// Iterations is the fixed number of full-batch passes.
	Iterations int

	// Penalty holds the per-feature L2 coefficient, indexed like the
	// weight vector. It must cover every feature index used by the
	// examples.
	Penalty []float64
}

// Sigmoid is the standard logistic function 1 / (1 + e^-x).
func Sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

// FitRidgeLogistic fits a logistic regression with per-feature L2
// penalties by full-batch gradient descent and returns the weight
// vector. numFeatures fixes the weight vector length; every feature
// index in the examples must be less than it.
func FitRidgeLogistic(examples []Example, numFeatures int, cfg Config) ([]float64, error) {
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	if numFeatures <= 0 {
		return nil, ErrNoFeatures
	}
	if len(cfg.Penalty) < numFeatures {
		return nil, fmt.Errorf("penalty vector covers %d of %d features", len(cfg.Penalty), numFeatures)
	}
	for _, ex := range examples {
		for _, f := range ex.Features {
			if f.Index < 0 || f.Index >= numFeatures {
				return nil, fmt.Errorf("feature index %d out of range [0,%d)", f.Index, numFeatures)
			}
		}
	}

	weights := make([]float64, numFeatures)
	grad := make([]float64, numFeatures)
	n := float64(len(examples))

	for iter := 0; iter < cfg.Iterations; iter++ {
		for i := range grad {
			grad[i] = 0
		}

		for _, ex := range examples {
			var logit float64
			for _, f := range ex.Features {
				logit += weights[f.Index] * f.Value
			}
			residual := Sigmoid(logit) - ex.Label
			for _, f := range ex.Features {
				grad[f.Index] += residual * f.Value
			}
		}

		for i := range weights {
			weights[i] -= cfg.LearningRate * (grad[i]/n + cfg.Penalty[i]*weights[i])
		}
	}

	return weights, nil
}
