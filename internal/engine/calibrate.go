package engine

import (
	"fmt"
	"math"
	"sort"
)

// Calibrator maps a raw classifier margin onto a spam probability in
// [0, 1]. Implementations must be monotonically non-decreasing so that
// raising a profile threshold can only shrink the set of spam verdicts.
type Calibrator interface {
	Calibrate(margin float64) float64
	Kind() string
}

// SigmoidCalibrator applies Platt scaling: p = 1 / (1 + exp(a*margin + b)).
// The slope a must be non-positive, otherwise larger margins would map to
// smaller probabilities.
type SigmoidCalibrator struct {
	a float64
	b float64
}

// NewSigmoidCalibrator validates the fitted Platt coefficients.
func NewSigmoidCalibrator(a, b float64) (*SigmoidCalibrator, error) {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return nil, fmt.Errorf("sigmoid calibration coefficients are not finite")
	}
	if a > 0 {
		return nil, fmt.Errorf("sigmoid calibration slope %g is positive, mapping would not be monotonic", a)
	}
	return &SigmoidCalibrator{a: a, b: b}, nil
}

func (c *SigmoidCalibrator) Calibrate(margin float64) float64 {
	return clamp01(1 / (1 + math.Exp(c.a*margin+c.b)))
}

func (c *SigmoidCalibrator) Kind() string { return "sigmoid" }

// IsotonicCalibrator interpolates linearly between the knots of a fitted
// isotonic regression. Margins outside the knot range clip to the boundary
// probabilities.
type IsotonicCalibrator struct {
	thresholds []float64
	outputs    []float64
}

// NewIsotonicCalibrator validates the fitted curve: at least one knot,
// strictly increasing thresholds and non-decreasing outputs within [0, 1].
func NewIsotonicCalibrator(thresholds, outputs []float64) (*IsotonicCalibrator, error) {
	if len(thresholds) == 0 {
		return nil, fmt.Errorf("isotonic calibration has no knots")
	}
	if len(thresholds) != len(outputs) {
		return nil, fmt.Errorf("isotonic calibration has %d thresholds but %d outputs", len(thresholds), len(outputs))
	}
	for i, t := range thresholds {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil, fmt.Errorf("isotonic threshold %d is not finite", i)
		}
		if i > 0 && t <= thresholds[i-1] {
			return nil, fmt.Errorf("isotonic thresholds are not strictly increasing at knot %d", i)
		}
	}
	for i, y := range outputs {
		if math.IsNaN(y) || y < 0 || y > 1 {
			return nil, fmt.Errorf("isotonic output %d is outside [0, 1]", i)
		}
		if i > 0 && y < outputs[i-1] {
			return nil, fmt.Errorf("isotonic outputs decrease at knot %d", i)
		}
	}
	return &IsotonicCalibrator{thresholds: thresholds, outputs: outputs}, nil
}

func (c *IsotonicCalibrator) Calibrate(margin float64) float64 {
	n := len(c.thresholds)
	if margin <= c.thresholds[0] {
		return c.outputs[0]
	}
	if margin >= c.thresholds[n-1] {
		return c.outputs[n-1]
	}
	// First knot strictly above the margin; i is in [1, n-1] here.
	i := sort.SearchFloat64s(c.thresholds, margin)
	if c.thresholds[i] == margin {
		return c.outputs[i]
	}
	lo, hi := c.thresholds[i-1], c.thresholds[i]
	frac := (margin - lo) / (hi - lo)
	return clamp01(c.outputs[i-1] + frac*(c.outputs[i]-c.outputs[i-1]))
}

func (c *IsotonicCalibrator) Kind() string { return "isotonic" }

func clamp01(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
