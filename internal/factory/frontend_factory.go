package factory

import (
	"fmt"

	"github.com/spamsift/spamsift/internal/adapters/httpapi"
	"github.com/spamsift/spamsift/internal/adapters/smtpfilter"
	"github.com/spamsift/spamsift/internal/batchscore"
	"github.com/spamsift/spamsift/internal/bundle"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/ports"
	"github.com/spamsift/spamsift/internal/utils"
	"github.com/spamsift/spamsift/internal/whitelist"
	"go.uber.org/zap"
)

// FrontendFactory creates the enabled frontends based on configuration
type FrontendFactory struct {
	cfg    *config.Config
	logger *zap.Logger
	svc    *core.ClassifierService
	info   *bundle.Info
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, svc *core.ClassifierService, info *bundle.Info) *FrontendFactory {
	return &FrontendFactory{
		cfg:    cfg,
		logger: logger,
		svc:    svc,
		info:   info,
	}
}

// CreateFrontends builds every enabled frontend. At least one must be
// enabled, otherwise the process would start with nothing to serve.
func (f *FrontendFactory) CreateFrontends() ([]ports.Frontend, error) {
	var frontends []ports.Frontend

	if httpCfg := f.cfg.GetHTTP(); httpCfg.Enabled {
		runner := batchscore.NewRunner(f.svc, f.logger, f.cfg.GetBatch().ChunkSize)
		frontends = append(frontends, httpapi.NewServer(
			f.svc,
			runner,
			f.info,
			f.logger,
			httpCfg,
			f.cfg.GetBool("metrics.enabled"),
		))
	}

	if smtpCfg := f.cfg.GetSMTP(); smtpCfg.Enabled {
		checker := whitelist.NewChecker(f.cfg.GetSpam().WhitelistedDomains, f.logger)
		textProc := utils.NewTextProcessor(f.logger)
		frontends = append(frontends, smtpfilter.NewFilter(
			f.svc,
			checker,
			textProc,
			f.logger,
			smtpCfg,
		))
	}

	if len(frontends) == 0 {
		return nil, fmt.Errorf("no frontends enabled: enable server.http or server.smtp")
	}

	return frontends, nil
}
