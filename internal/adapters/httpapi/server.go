// Package httpapi serves the classification REST API. Routes are mounted
// on a plain ServeMux with method-qualified patterns; every response
// carries the request ID assigned by the middleware.
package httpapi

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/batchscore"
	"github.com/spamsift/spamsift/internal/bundle"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
)

// Server is the HTTP frontend of the classifier.
type Server struct {
	svc             *core.ClassifierService
	runner          *batchscore.Runner
	info            *bundle.Info
	logger          *zap.Logger
	listenAddr      string
	maxBatch        int
	maxUploadBytes  int64
	shutdownTimeout time.Duration
	metricsEnabled  bool
	httpServer      *http.Server
	startedAt       time.Time
}

// NewServer creates a new HTTP frontend
func NewServer(
	svc *core.ClassifierService,
	runner *batchscore.Runner,
	info *bundle.Info,
	logger *zap.Logger,
	cfg config.HTTPConfig,
	metricsEnabled bool,
) *Server {
	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil || shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	return &Server{
		svc:             svc,
		runner:          runner,
		info:            info,
		logger:          logger,
		listenAddr:      cfg.ListenAddress,
		maxBatch:        maxBatch,
		maxUploadBytes:  cfg.MaxUploadBytes,
		shutdownTimeout: shutdownTimeout,
		metricsEnabled:  metricsEnabled,
	}
}

// Name identifies the frontend in logs
func (s *Server) Name() string { return "http" }

// Start binds the listener and serves in the background. A bind failure is
// reported synchronously so startup can abort.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return err
	}
	s.startedAt = time.Now()

	s.logger.Info("HTTP API starting", zap.String("address", s.listenAddr))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/classify", s.handleClassify)
	mux.HandleFunc("POST /v1/classify/batch", s.handleClassifyBatch)
	mux.HandleFunc("POST /v1/classify/file", s.handleClassifyFile)
	mux.HandleFunc("GET /v1/profiles", s.handleProfiles)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metricsEnabled {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	return withRequestID(s.logRequests(mux))
}
