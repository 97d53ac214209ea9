// Package bundle loads and validates trained model artifacts. A bundle is
// a JSON document, optionally gzip-compressed, exported by the training
// pipeline. It carries everything inference needs: the vocabulary with idf
// weights, the linear model and the fitted calibration curve.
package bundle

import (
	"fmt"
	"math"
	"time"

	"github.com/spamsift/spamsift/internal/core"
)

// SchemaVersion is the bundle layout this build understands.
const SchemaVersion = 1

// ModelTypeLinearSVM is the only model type this build can score.
const ModelTypeLinearSVM = "linear_svm"

// Calibration is the serialized margin-to-probability mapping. Sigmoid
// bundles fill A and B; isotonic bundles fill the knot slices.
type Calibration struct {
	Kind       string    `json:"kind"`
	A          float64   `json:"a,omitempty"`
	B          float64   `json:"b,omitempty"`
	Thresholds []float64 `json:"thresholds,omitempty"`
	Outputs    []float64 `json:"outputs,omitempty"`
}

// Bundle is the decoded artifact. Weights are oriented so that positive
// margins mean spam.
type Bundle struct {
	Schema      int               `json:"schema"`
	ModelType   string            `json:"model_type"`
	TrainedAt   time.Time         `json:"trained_at"`
	Vocabulary  map[string]int    `json:"vocabulary"`
	IDF         []float64         `json:"idf"`
	Weights     []float64         `json:"weights"`
	Intercept   float64           `json:"intercept"`
	Calibration Calibration       `json:"calibration"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Validate checks the structural integrity of a decoded bundle. Errors
// wrap ErrModelUnavailable, except for the vocabulary/weights length
// disagreement, which wraps ErrDimensionMismatch since it points at a
// mixed or stale artifact rather than a broken file.
func (b *Bundle) Validate() error {
	if b.Schema != SchemaVersion {
		return fmt.Errorf("%w: unsupported bundle schema %d, want %d", core.ErrModelUnavailable, b.Schema, SchemaVersion)
	}
	if b.ModelType != ModelTypeLinearSVM {
		return fmt.Errorf("%w: unsupported model type %q", core.ErrModelUnavailable, b.ModelType)
	}
	if len(b.Vocabulary) == 0 {
		return fmt.Errorf("%w: bundle has an empty vocabulary", core.ErrModelUnavailable)
	}
	if len(b.IDF) != len(b.Vocabulary) {
		return fmt.Errorf("%w: bundle has %d vocabulary terms but %d idf weights",
			core.ErrModelUnavailable, len(b.Vocabulary), len(b.IDF))
	}
	if len(b.Weights) != len(b.Vocabulary) {
		return fmt.Errorf("%w: bundle has %d vocabulary terms but %d model weights",
			core.ErrDimensionMismatch, len(b.Vocabulary), len(b.Weights))
	}
	if !isFinite(b.Intercept) {
		return fmt.Errorf("%w: bundle intercept is not finite", core.ErrModelUnavailable)
	}
	for i, w := range b.IDF {
		if !isFinite(w) {
			return fmt.Errorf("%w: idf weight %d is not finite", core.ErrModelUnavailable, i)
		}
	}
	for i, w := range b.Weights {
		if !isFinite(w) {
			return fmt.Errorf("%w: model weight %d is not finite", core.ErrModelUnavailable, i)
		}
	}

	switch b.Calibration.Kind {
	case "sigmoid":
		if len(b.Calibration.Thresholds) != 0 || len(b.Calibration.Outputs) != 0 {
			return fmt.Errorf("%w: sigmoid calibration carries isotonic knots", core.ErrModelUnavailable)
		}
	case "isotonic":
		if len(b.Calibration.Thresholds) == 0 {
			return fmt.Errorf("%w: isotonic calibration has no knots", core.ErrModelUnavailable)
		}
		if len(b.Calibration.Thresholds) != len(b.Calibration.Outputs) {
			return fmt.Errorf("%w: isotonic calibration has %d thresholds but %d outputs",
				core.ErrModelUnavailable, len(b.Calibration.Thresholds), len(b.Calibration.Outputs))
		}
	default:
		return fmt.Errorf("%w: unsupported calibration kind %q", core.ErrModelUnavailable, b.Calibration.Kind)
	}

	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
