package engine

import (
	"fmt"
)

// Engine runs the full inference pipeline: normalize, project onto the
// tf-idf feature space, compute the linear margin and calibrate it into a
// spam probability. An Engine is immutable and safe for concurrent use; it
// performs no I/O and keeps no state between calls, so equal inputs always
// produce equal outputs.
type Engine struct {
	vocab       *Vocabulary
	model       *LinearModel
	calibrator  Calibrator
	fingerprint string
}

// New assembles an engine from its trained parts. The vocabulary and the
// linear model must agree on dimensionality; the fingerprint identifies
// the artifact the parts were loaded from and keys any downstream caches.
func New(vocab *Vocabulary, model *LinearModel, calibrator Calibrator, fingerprint string) (*Engine, error) {
	if vocab == nil || model == nil || calibrator == nil {
		return nil, fmt.Errorf("engine requires a vocabulary, a linear model and a calibrator")
	}
	if vocab.Size() != model.Dim() {
		return nil, fmt.Errorf("vocabulary has %d columns but model expects %d", vocab.Size(), model.Dim())
	}
	return &Engine{
		vocab:       vocab,
		model:       model,
		calibrator:  calibrator,
		fingerprint: fingerprint,
	}, nil
}

// Normalize returns the canonical form of raw text.
func (e *Engine) Normalize(text string) string {
	return Normalize(text)
}

// Score returns the calibrated spam probability for text. The text may be
// raw or already normalized; normalization is idempotent so both score
// identically. Text with no in-vocabulary terms still scores, landing on
// the calibrated probability of the bare intercept.
func (e *Engine) Score(text string) (float64, error) {
	margin, err := e.Margin(text)
	if err != nil {
		return 0, err
	}
	return e.calibrator.Calibrate(margin), nil
}

// Margin returns the uncalibrated decision value for text.
func (e *Engine) Margin(text string) (float64, error) {
	vec := Project(Normalize(text), e.vocab)
	return e.model.Margin(vec)
}

// Fingerprint identifies the model artifact backing this engine.
func (e *Engine) Fingerprint() string {
	return e.fingerprint
}

// Dim returns the dimensionality of the engine's feature space.
func (e *Engine) Dim() int {
	return e.vocab.Size()
}

// CalibrationKind names the calibration method in use.
func (e *Engine) CalibrationKind() string {
	return e.calibrator.Kind()
}
