package factory

import (
	"fmt"

	"github.com/spamsift/spamsift/internal/bundle"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/engine"
	"go.uber.org/zap"
)

// ScorerFactory loads the model artifact and assembles the inference
// engine behind the TextScorer port.
type ScorerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewScorerFactory creates a new scorer factory
func NewScorerFactory(cfg *config.Config, logger *zap.Logger) *ScorerFactory {
	return &ScorerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateScorer loads and validates the configured bundle and builds the
// engine from it. Any failure here means the process must not serve.
func (f *ScorerFactory) CreateScorer() (core.TextScorer, *bundle.Info, error) {
	path := f.cfg.GetModel().Path

	b, info, err := bundle.Load(path)
	if err != nil {
		return nil, nil, err
	}

	vocab, err := engine.NewVocabulary(b.Vocabulary, b.IDF)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	model, err := engine.NewLinearModel(b.Weights, b.Intercept)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	calibrator, err := buildCalibrator(b.Calibration)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	eng, err := engine.New(vocab, model, calibrator, info.SHA256)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", core.ErrModelUnavailable, err)
	}

	f.logger.Info("Model bundle loaded",
		zap.String("path", info.Path),
		zap.String("sha256", info.SHA256),
		zap.Int64("size_bytes", info.SizeBytes),
		zap.Int("features", eng.Dim()),
		zap.String("calibration", eng.CalibrationKind()),
		zap.Duration("load_duration", info.LoadDuration))

	return eng, info, nil
}

func buildCalibrator(c bundle.Calibration) (engine.Calibrator, error) {
	switch c.Kind {
	case "sigmoid":
		return engine.NewSigmoidCalibrator(c.A, c.B)
	case "isotonic":
		return engine.NewIsotonicCalibrator(c.Thresholds, c.Outputs)
	default:
		return nil, fmt.Errorf("unsupported calibration kind %q", c.Kind)
	}
}
