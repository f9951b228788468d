// Package server wires the object store into an HTTP surface: routing,
// request logging, metrics, and status-code mapping. All storage
// semantics live in the object package.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/humblefs/humblefs/internal/object"
)

const readHeaderTimeout = 10 * time.Second

// Server owns the gin engine and the underlying http.Server.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// New builds the route table over store.
func New(store *object.Store, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery(), requestID(), requestLogger(logger))

	handler := NewHandler(store, logger)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	engine.GET("/:bucket", handler.ListObjects)
	engine.PUT("/:bucket/*key", handler.PutObject)
	engine.GET("/:bucket/*key", handler.GetObject)
	engine.DELETE("/:bucket/*key", handler.DeleteObject)

	return &Server{engine: engine, logger: logger}
}

// Handler exposes the route table for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until Shutdown or a listener error.
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	s.logger.Info("listening", "addr", addr)

	return s.http.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}

	return s.http.Shutdown(ctx)
}
