package factory

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/bundle"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/engine"
)

func writeTestBundle(t *testing.T, b *bundle.Bundle) string {
	t.Helper()
	data, err := json.Marshal(b)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func configWithModel(path string) *config.Config {
	v := config.NewEmptyViper()
	v.Set("model.path", path)
	return config.NewFromViper(v)
}

func TestCreateScorerSigmoid(t *testing.T) {
	path := writeTestBundle(t, &bundle.Bundle{
		Schema:      bundle.SchemaVersion,
		ModelType:   bundle.ModelTypeLinearSVM,
		Vocabulary:  map[string]int{"win": 0, "free": 1},
		IDF:         []float64{1, 1},
		Weights:     []float64{2, 4},
		Intercept:   -1,
		Calibration: bundle.Calibration{Kind: "sigmoid", A: -2},
	})

	factory := NewScorerFactory(configWithModel(path), zap.NewNop())
	scorer, info, err := factory.CreateScorer()
	require.NoError(t, err)
	require.NotNil(t, scorer)
	require.NotNil(t, info)

	assert.Len(t, info.SHA256, 64)
	assert.Equal(t, info.SHA256, scorer.Fingerprint(),
		"the cache fingerprint is the artifact digest")

	// "free" is a unit vector on column 1: margin = -1 + 4.
	p, err := scorer.Score("free")
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2*3.0)), p, 1e-9)

	// Empty text lands on the bare intercept.
	p, err = scorer.Score("")
	require.NoError(t, err)
	assert.InDelta(t, 1/(1+math.Exp(-2*-1.0)), p, 1e-9)
}

func TestCreateScorerIsotonic(t *testing.T) {
	path := writeTestBundle(t, &bundle.Bundle{
		Schema:     bundle.SchemaVersion,
		ModelType:  bundle.ModelTypeLinearSVM,
		Vocabulary: map[string]int{"win": 0},
		IDF:        []float64{1},
		Weights:    []float64{2},
		Intercept:  0,
		Calibration: bundle.Calibration{
			Kind:       "isotonic",
			Thresholds: []float64{-1, 0, 2},
			Outputs:    []float64{0.1, 0.5, 0.9},
		},
	})

	factory := NewScorerFactory(configWithModel(path), zap.NewNop())
	scorer, _, err := factory.CreateScorer()
	require.NoError(t, err)

	eng, ok := scorer.(*engine.Engine)
	require.True(t, ok)
	assert.Equal(t, "isotonic", eng.CalibrationKind())

	// "win" is a unit vector on column 0: margin 2, clipped to the last
	// knot's output.
	p, err := scorer.Score("win")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, p, 1e-9)
}

func TestCreateScorerMissingFile(t *testing.T) {
	factory := NewScorerFactory(configWithModel(filepath.Join(t.TempDir(), "absent.json")), zap.NewNop())

	_, _, err := factory.CreateScorer()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrModelUnavailable)
}

func TestCreateScorerRejectsBrokenBundle(t *testing.T) {
	// Weights disagree with the vocabulary size.
	path := writeTestBundle(t, &bundle.Bundle{
		Schema:      bundle.SchemaVersion,
		ModelType:   bundle.ModelTypeLinearSVM,
		Vocabulary:  map[string]int{"win": 0, "free": 1},
		IDF:         []float64{1, 1},
		Weights:     []float64{2},
		Intercept:   0,
		Calibration: bundle.Calibration{Kind: "sigmoid", A: -1},
	})

	factory := NewScorerFactory(configWithModel(path), zap.NewNop())
	_, _, err := factory.CreateScorer()
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
