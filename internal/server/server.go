// Package server exposes the local ops HTTP surface: liveness, a JSON
// status snapshot and Prometheus metrics. It binds to loopback only; the
// operator-facing surface is the chat transport.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostguard/agent/internal/domain"
)

// SnapshotProvider builds the data served by the /status endpoint.
type SnapshotProvider interface {
	Status(ctx context.Context) domain.StatusSnapshot
	Security(ctx context.Context) domain.SecuritySnapshot
}

type Server struct {
	http   *http.Server
	logger *slog.Logger
}

func New(addr, version string, reporter SnapshotProvider, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(LoggingMiddleware(logger), RecoveryMiddleware(logger))

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "version": version})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ok":       true,
			"status":   reporter.Status(c.Request.Context()),
			"security": reporter.Security(c.Request.Context()),
		})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("ops server listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
