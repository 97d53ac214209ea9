package core

import (
	"time"
)

// Label is the binary outcome of a classification.
type Label string

const (
	LabelSpam       Label = "spam"
	LabelLegitimate Label = "legitimate"
)

// Verdict is the result of classifying one text under one profile.
type Verdict struct {
	Label       Label
	Probability float64
	Profile     string
	Threshold   float64
	CacheHit    bool
	ScoredAt    time.Time
}

// BatchResult holds one batch position's verdict, or the error that failed
// that position alone.
type BatchResult struct {
	Verdict *Verdict
	Err     error
}

// ScoreEntry is a cached calibrated probability. The key binds the
// normalized text to the model fingerprint it was scored under, so a new
// artifact never reads scores produced by an old one.
type ScoreEntry struct {
	Key         string
	Probability float64
	ScoredAt    time.Time
	ExpiresAt   time.Time
}
