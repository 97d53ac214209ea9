package engine

import (
	"fmt"

	"github.com/spamsift/spamsift/internal/core"
)

// LinearModel is the frozen decision function of a linear classifier: a
// dense weight per vocabulary column plus an intercept. Positive margins
// lean spam, negative margins lean legitimate.
type LinearModel struct {
	weights   []float64
	intercept float64
}

// NewLinearModel wraps trained weights and intercept. The weight vector
// must be non-empty.
func NewLinearModel(weights []float64, intercept float64) (*LinearModel, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("linear model has no weights")
	}
	return &LinearModel{weights: weights, intercept: intercept}, nil
}

// Dim returns the dimensionality the model expects of its inputs.
func (m *LinearModel) Dim() int {
	return len(m.weights)
}

// Intercept returns the model's bias term, which is also the margin of the
// zero vector.
func (m *LinearModel) Intercept() float64 {
	return m.intercept
}

// Margin computes w·v + b for a feature vector. A vector whose
// dimensionality disagrees with the model is rejected, never padded or
// truncated.
func (m *LinearModel) Margin(v FeatureVector) (float64, error) {
	if v.Dim != len(m.weights) {
		return 0, fmt.Errorf("%w: vector has %d columns, model expects %d",
			core.ErrDimensionMismatch, v.Dim, len(m.weights))
	}
	margin := m.intercept
	for i, col := range v.Indices {
		margin += m.weights[col] * v.Values[i]
	}
	return margin, nil
}
