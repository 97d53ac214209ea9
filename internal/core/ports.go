package core

import (
	"context"
)

// TextScorer defines the interface to the inference engine.
type TextScorer interface {
	// Normalize returns the canonical form of raw text. The result is
	// stable under repeated application.
	Normalize(text string) string

	// Score returns the calibrated spam probability for text.
	Score(text string) (float64, error)

	// Fingerprint identifies the model artifact backing the scorer.
	Fingerprint() string
}

// ScoreCache defines the interface for caching calibrated probabilities.
type ScoreCache interface {
	// Get retrieves a cached entry by key
	Get(ctx context.Context, key string) (*ScoreEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *ScoreEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}
