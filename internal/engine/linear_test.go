package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spamsift/spamsift/internal/core"
)

func TestNewLinearModelRejectsEmptyWeights(t *testing.T) {
	_, err := NewLinearModel(nil, 0)
	assert.Error(t, err)
}

func TestMarginZeroVectorIsIntercept(t *testing.T) {
	model, err := NewLinearModel([]float64{1, 2, 3}, -0.5)
	require.NoError(t, err)

	margin, err := model.Margin(FeatureVector{Dim: 3})
	require.NoError(t, err)
	assert.InDelta(t, -0.5, margin, 1e-12)
	assert.InDelta(t, -0.5, model.Intercept(), 1e-12)
}

func TestMarginDotProduct(t *testing.T) {
	model, err := NewLinearModel([]float64{2, -1, 4}, 1)
	require.NoError(t, err)

	vec := FeatureVector{
		Indices: []int{0, 2},
		Values:  []float64{0.5, 0.25},
		Dim:     3,
	}
	margin, err := model.Margin(vec)
	require.NoError(t, err)
	assert.InDelta(t, 1+2*0.5+4*0.25, margin, 1e-12)
}

func TestMarginDimensionMismatch(t *testing.T) {
	model, err := NewLinearModel([]float64{1, 2, 3}, 0)
	require.NoError(t, err)

	_, err = model.Margin(FeatureVector{Dim: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	_, err = model.Margin(FeatureVector{Dim: 4})
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
