package core

import "errors"

// Sentinel errors for the classification pipeline. Callers match them with
// errors.Is; adapters translate them onto their own wire formats.
var (
	// ErrInvalidInput marks a single item that is not a usable text value,
	// such as a JSON null where a string is required. In a batch it fails
	// only its own slot.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownProfile rejects a profile name outside the registry. The
	// request fails before any text is scored; there is no fallback
	// profile.
	ErrUnknownProfile = errors.New("unknown profile")

	// ErrDimensionMismatch reports a feature vector whose dimensionality
	// disagrees with the loaded model, which indicates a stale or mixed
	// artifact. Vectors are never padded or truncated to fit.
	ErrDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrModelUnavailable means the model artifact could not be loaded or
	// validated, so the process refuses to serve classifications.
	ErrModelUnavailable = errors.New("model unavailable")
)
