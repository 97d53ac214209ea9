package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/metrics"
)

// ClassifierService is the core service for text classification. It owns
// profile resolution, score caching and batch orchestration; the scoring
// math itself lives behind the TextScorer port.
type ClassifierService struct {
	scorer         TextScorer
	cache          ScoreCache
	logger         *zap.Logger
	cacheEnabled   bool
	cacheTTL       time.Duration
	defaultProfile string
	batchWorkers   int
}

// NewClassifierService creates a new classifier service
func NewClassifierService(
	scorer TextScorer,
	cache ScoreCache,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
	defaultProfile string,
	batchWorkers int,
) *ClassifierService {
	if defaultProfile == "" {
		defaultProfile = DefaultProfileName
	}
	if batchWorkers < 1 {
		batchWorkers = 1
	}
	return &ClassifierService{
		scorer:         scorer,
		cache:          cache,
		logger:         logger,
		cacheEnabled:   cacheEnabled,
		cacheTTL:       cacheTTL,
		defaultProfile: defaultProfile,
		batchWorkers:   batchWorkers,
	}
}

// DefaultProfile returns the profile applied when callers do not pick one.
func (s *ClassifierService) DefaultProfile() string {
	return s.defaultProfile
}

// Profiles lists the registered profiles in canonical order.
func (s *ClassifierService) Profiles() []Profile {
	return Profiles()
}

// Decide classifies one text under the named profile. An empty profile
// name selects the service default; an unknown one fails with
// ErrUnknownProfile before any scoring happens. Equal texts always yield
// equal verdicts under the same model and profile.
func (s *ClassifierService) Decide(ctx context.Context, text, profileName string) (*Verdict, error) {
	profile, err := s.resolveProfile(profileName)
	if err != nil {
		metrics.RecordError("unknown_profile")
		return nil, err
	}

	start := time.Now()
	normalized := s.scorer.Normalize(text)
	prob, cached, err := s.score(ctx, normalized)
	if err != nil {
		metrics.RecordError(errorKind(err))
		return nil, err
	}

	verdict := profile.Classify(prob)
	verdict.CacheHit = cached
	metrics.RecordVerdict(string(verdict.Label), profile.Name, "single")
	metrics.ObserveDuration("single", time.Since(start).Seconds())

	s.logger.Debug("Classified text",
		zap.String("profile", profile.Name),
		zap.String("label", string(verdict.Label)),
		zap.Float64("probability", verdict.Probability),
		zap.Bool("cache_hit", cached))

	return &verdict, nil
}

// DecideBatch classifies every text under one profile, resolved once
// before any scoring. The result slice is positionally aligned with the
// input: results[i] always answers texts[i], and a failing item takes down
// only its own slot. Duplicate texts are scored once and share the
// outcome, which keeps a batch consistent with single calls for the same
// text.
func (s *ClassifierService) DecideBatch(ctx context.Context, texts []string, profileName string) ([]BatchResult, error) {
	profile, err := s.resolveProfile(profileName)
	if err != nil {
		metrics.RecordError("unknown_profile")
		return nil, err
	}

	results := make([]BatchResult, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	start := time.Now()
	metrics.RecordBatchSize(len(texts))

	// Collapse duplicates up front. unique holds first-seen order so the
	// scoring pass stays deterministic regardless of worker scheduling.
	unique := make([]string, 0, len(texts))
	positions := make(map[string][]int, len(texts))
	for i, text := range texts {
		normalized := s.scorer.Normalize(text)
		if _, seen := positions[normalized]; !seen {
			unique = append(unique, normalized)
		}
		positions[normalized] = append(positions[normalized], i)
	}

	outcomes := s.scoreAll(ctx, unique)

	for u, normalized := range unique {
		out := outcomes[u]
		for _, pos := range positions[normalized] {
			if out.err != nil {
				metrics.RecordError(errorKind(out.err))
				results[pos] = BatchResult{Err: out.err}
				continue
			}
			verdict := profile.Classify(out.prob)
			verdict.CacheHit = out.cached
			metrics.RecordVerdict(string(verdict.Label), profile.Name, "batch")
			results[pos] = BatchResult{Verdict: &verdict}
		}
	}
	metrics.ObserveDuration("batch", time.Since(start).Seconds())

	s.logger.Info("Classified batch",
		zap.String("profile", profile.Name),
		zap.Int("size", len(texts)),
		zap.Int("unique", len(unique)),
		zap.Duration("elapsed", time.Since(start)))

	return results, nil
}

type outcome struct {
	prob   float64
	cached bool
	err    error
}

// scoreAll scores each normalized text once, fanning out across the
// configured worker pool when the batch is large enough to benefit.
// outcomes[i] always belongs to unique[i].
func (s *ClassifierService) scoreAll(ctx context.Context, unique []string) []outcome {
	outcomes := make([]outcome, len(unique))

	workers := s.batchWorkers
	if workers > len(unique) {
		workers = len(unique)
	}
	if workers <= 1 {
		for i, normalized := range unique {
			if err := ctx.Err(); err != nil {
				outcomes[i] = outcome{err: err}
				continue
			}
			prob, cached, err := s.score(ctx, normalized)
			outcomes[i] = outcome{prob: prob, cached: cached, err: err}
		}
		return outcomes
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				prob, cached, err := s.score(ctx, unique[i])
				outcomes[i] = outcome{prob: prob, cached: cached, err: err}
			}
		}()
	}

dispatch:
	for i := range unique {
		select {
		case <-ctx.Done():
			// Jobs not yet handed out fail with the context's error;
			// in-flight ones finish normally.
			for j := i; j < len(unique); j++ {
				outcomes[j] = outcome{err: ctx.Err()}
			}
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

// score returns the calibrated probability for normalized text, consulting
// the cache when enabled. Cache failures are soft: a broken backend slows
// the service down but never changes a verdict.
func (s *ClassifierService) score(ctx context.Context, normalized string) (float64, bool, error) {
	key := s.cacheKey(normalized)

	if s.cacheEnabled && s.cache != nil {
		if entry, err := s.cache.Get(ctx, key); err == nil {
			metrics.RecordCacheLookup(true)
			return entry.Probability, true, nil
		}
		metrics.RecordCacheLookup(false)
	}

	prob, err := s.scorer.Score(normalized)
	if err != nil {
		return 0, false, err
	}

	if s.cacheEnabled && s.cache != nil {
		now := time.Now()
		entry := &ScoreEntry{
			Key:         key,
			Probability: prob,
			ScoredAt:    now,
			ExpiresAt:   now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Warn("Failed to update score cache", zap.Error(err))
		}
	}

	return prob, false, nil
}

// cacheKey binds normalized text to the model fingerprint so artifacts
// never share cached scores.
func (s *ClassifierService) cacheKey(normalized string) string {
	h := sha256.New()
	h.Write([]byte(s.scorer.Fingerprint()))
	h.Write([]byte{0})
	h.Write([]byte(normalized))
	return hex.EncodeToString(h.Sum(nil))
}

func (s *ClassifierService) resolveProfile(name string) (Profile, error) {
	if strings.TrimSpace(name) == "" {
		name = s.defaultProfile
	}
	return LookupProfile(name)
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUnknownProfile):
		return "unknown_profile"
	case errors.Is(err, ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, ErrModelUnavailable):
		return "model_unavailable"
	default:
		return "internal"
	}
}
