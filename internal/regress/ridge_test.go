package regress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoid(t *testing.T) {
	assert.InDelta(t, 0.5, Sigmoid(0), 1e-12)
	assert.InDelta(t, 1.0, Sigmoid(40), 1e-9)
	assert.InDelta(t, 0.0, Sigmoid(-40), 1e-9)
}

func TestFitRidgeLogistic_InputValidation(t *testing.T) {
	cfg := Config{LearningRate: 0.2, Iterations: 10, Penalty: []float64{0.5, 0.5}}

	t.Run("no examples", func(t *testing.T) {
		_, err := FitRidgeLogistic(nil, 2, cfg)
		assert.ErrorIs(t, err, ErrNoExamples)
	})

	t.Run("empty feature space", func(t *testing.T) {
		_, err := FitRidgeLogistic([]Example{{Label: 1}}, 0, cfg)
		assert.ErrorIs(t, err, ErrNoFeatures)
	})

	t.Run("penalty too short", func(t *testing.T) {
		_, err := FitRidgeLogistic([]Example{{Label: 1}}, 3, cfg)
		assert.Error(t, err)
	})

	t.Run("feature index out of range", func(t *testing.T) {
		ex := Example{Label: 1, Features: []Feature{{Index: 5, Value: 1}}}
		_, err := FitRidgeLogistic([]Example{ex}, 2, cfg)
		assert.Error(t, err)
	})
}

func TestFitRidgeLogistic_LearnsSeparableSignal(t *testing.T) {
	// Feature 1 perfectly predicts the label; feature 0 is the intercept.
	var examples []Example
	for i := 0; i < 50; i++ {
		examples = append(examples,
			Example{Label: 1, Features: []Feature{{Index: 0, Value: 1}, {Index: 1, Value: 1}}},
			Example{Label: 0, Features: []Feature{{Index: 0, Value: 1}, {Index: 1, Value: -1}}},
		)
	}

	weights, err := FitRidgeLogistic(examples, 2, Config{
		LearningRate: 0.2,
		Iterations:   250,
		Penalty:      []float64{0.5, 0.5},
	})
	require.NoError(t, err)

	assert.Positive(t, weights[1], "signal weight must be positive")
	assert.InDelta(t, 0, weights[0], 0.1, "intercept should stay near zero on balanced labels")
	assert.Greater(t, Sigmoid(weights[0]+weights[1]), 0.6)
	assert.Less(t, Sigmoid(weights[0]-weights[1]), 0.4)
}

func TestFitRidgeLogistic_RegularizationShrinksWeights(t *testing.T) {
	var examples []Example
	for i := 0; i < 40; i++ {
		examples = append(examples,
			Example{Label: 1, Features: []Feature{{Index: 0, Value: 1}, {Index: 1, Value: 1}}},
			Example{Label: 0, Features: []Feature{{Index: 0, Value: 1}, {Index: 1, Value: -1}}},
		)
	}

	fit := func(lambda float64) []float64 {
		w, err := FitRidgeLogistic(examples, 2, Config{
			LearningRate: 0.2,
			Iterations:   250,
			Penalty:      []float64{lambda, lambda},
		})
		require.NoError(t, err)
		return w
	}

	light := fit(0.01)
	heavy := fit(2.0)
	assert.Greater(t, light[1], heavy[1], "heavier L2 must shrink the signal weight")
	assert.Positive(t, heavy[1])
}

func TestFitRidgeLogistic_Deterministic(t *testing.T) {
	examples := []Example{
		{Label: 1, Features: []Feature{{Index: 0, Value: 1}, {Index: 1, Value: 1}}},
		{Label: 0, Features: []Feature{{Index: 0, Value: 1}, {Index: 2, Value: 1}}},
		{Label: 1, Features: []Feature{{Index: 0, Value: 1}, {Index: 1, Value: -1}, {Index: 2, Value: 1}}},
	}
	cfg := Config{LearningRate: 0.2, Iterations: 100, Penalty: []float64{0.5, 0.5, 0.5}}

	first, err := FitRidgeLogistic(examples, 3, cfg)
	require.NoError(t, err)
	second, err := FitRidgeLogistic(examples, 3, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second, "fixed iteration count must make fits bit-identical")
}
