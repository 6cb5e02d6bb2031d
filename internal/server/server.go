// Package server exposes the analysis and the AI collaborators over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/resume-fit/internal/ai"
	"github.com/spigell/resume-fit/internal/analysis"
	"github.com/spigell/resume-fit/internal/logger"
	"github.com/spigell/resume-fit/internal/session"
	"github.com/spigell/resume-fit/internal/taxonomy"
)

const (
	shutdownTimeout = 10 * time.Second
	pruneInterval   = time.Minute
)

// Options configures a Server. Registry is required; Scorer and Advisor are
// optional and disable the AI features when nil.
type Options struct {
	Registry   *taxonomy.Registry
	Sessions   *session.Store
	Scorer     ai.Scorer
	Advisor    ai.Advisor
	SessionTTL time.Duration
	Logger     *zap.Logger
}

type Server struct {
	analyzer   *analysis.Analyzer
	registry   *taxonomy.Registry
	sessions   *session.Store
	scorer     ai.Scorer
	advisor    ai.Advisor
	sessionTTL time.Duration
	logger     *zap.Logger

	engine *gin.Engine
}

func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, errors.New("taxonomy registry is required")
	}
	if opts.Sessions == nil {
		opts.Sessions = session.NewStore()
	}

	log := logger.WithFields(opts.Logger)

	s := &Server{
		analyzer:   analysis.New(opts.Registry, log),
		registry:   opts.Registry,
		sessions:   opts.Sessions,
		scorer:     opts.Scorer,
		advisor:    opts.Advisor,
		sessionTTL: opts.SessionTTL,
		logger:     log,
	}
	s.engine = s.newRouter()

	return s, nil
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.pruneSessions(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen on %s: %w", addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func (s *Server) pruneSessions(ctx context.Context) {
	if s.sessionTTL <= 0 {
		return
	}

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.sessions.Prune(s.sessionTTL); removed > 0 {
				s.logger.Debug("expired sessions removed", zap.Int("count", removed))
			}
		}
	}
}
