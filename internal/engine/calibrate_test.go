package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigmoidCalibrator(t *testing.T) {
	cal, err := NewSigmoidCalibrator(-1, 0)
	require.NoError(t, err)

	assert.Equal(t, "sigmoid", cal.Kind())
	assert.InDelta(t, 0.5, cal.Calibrate(0), 1e-9)
	assert.InDelta(t, 1/(1+math.Exp(-2)), cal.Calibrate(2), 1e-9)
	assert.InDelta(t, 1/(1+math.Exp(2)), cal.Calibrate(-2), 1e-9)

	// Extreme margins saturate but stay inside [0, 1].
	assert.InDelta(t, 1.0, cal.Calibrate(1000), 1e-9)
	assert.InDelta(t, 0.0, cal.Calibrate(-1000), 1e-9)
}

func TestSigmoidCalibratorMonotonic(t *testing.T) {
	cal, err := NewSigmoidCalibrator(-2, 0.3)
	require.NoError(t, err)

	margins := []float64{-5, -1, -0.1, 0, 0.1, 1, 5}
	prev := -1.0
	for _, m := range margins {
		p := cal.Calibrate(m)
		assert.GreaterOrEqual(t, p, prev, "margin %v", m)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
		prev = p
	}
}

func TestSigmoidCalibratorZeroSlope(t *testing.T) {
	cal, err := NewSigmoidCalibrator(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.E), cal.Calibrate(-10), 1e-9)
	assert.InDelta(t, 1/(1+math.E), cal.Calibrate(10), 1e-9)
}

func TestNewSigmoidCalibratorValidation(t *testing.T) {
	_, err := NewSigmoidCalibrator(1, 0)
	assert.Error(t, err, "positive slope inverts the mapping")

	_, err = NewSigmoidCalibrator(math.NaN(), 0)
	assert.Error(t, err)

	_, err = NewSigmoidCalibrator(-1, math.Inf(1))
	assert.Error(t, err)
}

func TestIsotonicCalibrator(t *testing.T) {
	cal, err := NewIsotonicCalibrator([]float64{-2, 0, 2}, []float64{0.1, 0.5, 0.9})
	require.NoError(t, err)

	assert.Equal(t, "isotonic", cal.Kind())

	// Exactly on the knots.
	assert.InDelta(t, 0.1, cal.Calibrate(-2), 1e-9)
	assert.InDelta(t, 0.5, cal.Calibrate(0), 1e-9)
	assert.InDelta(t, 0.9, cal.Calibrate(2), 1e-9)

	// Linear interpolation between knots.
	assert.InDelta(t, 0.3, cal.Calibrate(-1), 1e-9)
	assert.InDelta(t, 0.7, cal.Calibrate(1), 1e-9)
	assert.InDelta(t, 0.6, cal.Calibrate(0.5), 1e-9)

	// Outside the knot range clips to the boundary outputs.
	assert.InDelta(t, 0.1, cal.Calibrate(-100), 1e-9)
	assert.InDelta(t, 0.9, cal.Calibrate(100), 1e-9)
}

func TestIsotonicCalibratorSingleKnot(t *testing.T) {
	cal, err := NewIsotonicCalibrator([]float64{0}, []float64{0.7})
	require.NoError(t, err)
	assert.InDelta(t, 0.7, cal.Calibrate(-5), 1e-9)
	assert.InDelta(t, 0.7, cal.Calibrate(0), 1e-9)
	assert.InDelta(t, 0.7, cal.Calibrate(5), 1e-9)
}

func TestNewIsotonicCalibratorValidation(t *testing.T) {
	tests := []struct {
		name       string
		thresholds []float64
		outputs    []float64
	}{
		{"no knots", nil, nil},
		{"length mismatch", []float64{0, 1}, []float64{0.5}},
		{"thresholds not strictly increasing", []float64{0, 0}, []float64{0.4, 0.5}},
		{"thresholds decreasing", []float64{1, 0}, []float64{0.4, 0.5}},
		{"outputs decreasing", []float64{0, 1}, []float64{0.5, 0.4}},
		{"output above one", []float64{0, 1}, []float64{0.5, 1.5}},
		{"output below zero", []float64{0, 1}, []float64{-0.1, 0.5}},
		{"threshold not finite", []float64{math.Inf(-1), 0}, []float64{0.1, 0.5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewIsotonicCalibrator(tc.thresholds, tc.outputs)
			assert.Error(t, err)
		})
	}
}
