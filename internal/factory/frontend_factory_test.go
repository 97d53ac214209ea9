package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/bundle"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
)

type noopScorer struct{}

func (noopScorer) Normalize(text string) string  { return text }
func (noopScorer) Score(string) (float64, error) { return 0.5, nil }
func (noopScorer) Fingerprint() string           { return "noop" }

func newFrontendFactory(t *testing.T, v *config.Config) *FrontendFactory {
	t.Helper()
	svc := core.NewClassifierService(noopScorer{}, nil, zap.NewNop(), false, 0, "", 1)
	return NewFrontendFactory(v, zap.NewNop(), svc, &bundle.Info{})
}

func TestCreateFrontendsDefault(t *testing.T) {
	// HTTP on, SMTP off by default.
	f := newFrontendFactory(t, config.NewFromViper(config.NewEmptyViper()))

	frontends, err := f.CreateFrontends()
	require.NoError(t, err)
	require.Len(t, frontends, 1)
	assert.Equal(t, "http", frontends[0].Name())
}

func TestCreateFrontendsBoth(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("server.smtp.enabled", true)
	f := newFrontendFactory(t, config.NewFromViper(v))

	frontends, err := f.CreateFrontends()
	require.NoError(t, err)
	require.Len(t, frontends, 2)
	assert.Equal(t, "http", frontends[0].Name())
	assert.Equal(t, "smtp", frontends[1].Name())
}

func TestCreateFrontendsNoneEnabled(t *testing.T) {
	v := config.NewEmptyViper()
	v.Set("server.http.enabled", false)
	f := newFrontendFactory(t, config.NewFromViper(v))

	_, err := f.CreateFrontends()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no frontends enabled")
}
