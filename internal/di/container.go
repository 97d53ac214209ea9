package di

import (
	"fmt"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/bundle"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/factory"
	"github.com/spamsift/spamsift/internal/logging"
	"github.com/spamsift/spamsift/internal/ports"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewScorerFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register scorer and bundle info
	if err := container.Provide(func(f *factory.ScorerFactory) (core.TextScorer, *bundle.Info, error) {
		return f.CreateScorer()
	}); err != nil {
		return nil, err
	}

	// Register score cache
	if err := container.Provide(func(f *factory.CacheFactory) (core.ScoreCache, error) {
		return f.CreateScoreCache()
	}); err != nil {
		return nil, err
	}

	// Register cache TTL and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (time.Duration, error) {
		return f.GetCacheTTL()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register default profile, validated so a typo fails startup instead
	// of surfacing on the first request
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (string, error) {
		name := cfg.GetSpam().Profile
		profile, err := core.LookupProfile(name)
		if err != nil {
			return "", fmt.Errorf("invalid spam.profile: %w", err)
		}
		logger.Info("Using default profile",
			zap.String("profile", profile.Name),
			zap.Float64("threshold", profile.Threshold))
		return profile.Name, nil
	}); err != nil {
		return nil, err
	}

	// Register batch worker count
	if err := container.Provide(func(cfg *config.Config) int {
		return cfg.GetBatch().Workers
	}); err != nil {
		return nil, err
	}

	// Register classifier service
	if err := container.Provide(core.NewClassifierService); err != nil {
		return nil, err
	}

	// Register frontend factory and frontends
	if err := container.Provide(factory.NewFrontendFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FrontendFactory) ([]ports.Frontend, error) {
		return f.CreateFrontends()
	}); err != nil {
		return nil, err
	}

	return container, nil
}
