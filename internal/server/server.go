// Package server exposes discovery results as a JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dbsmedya/gounveil/internal/aggregator"
	"github.com/dbsmedya/gounveil/internal/config"
	"github.com/dbsmedya/gounveil/internal/logger"
	"github.com/dbsmedya/gounveil/internal/report"
	"github.com/dbsmedya/gounveil/internal/unveil"
)

const (
	readTimeoutSeconds     = 10
	writeTimeoutSeconds    = 120
	idleTimeoutSeconds     = 120
	shutdownTimeoutSeconds = 10
)

// DiscoverFunc runs one discovery pass with per-request parameters.
type DiscoverFunc func(ctx context.Context, params unveil.Params) (*unveil.RunResult, error)

// Server serves GET /urls/.
type Server struct {
	router       *gin.Engine
	server       *http.Server
	discover     DiscoverFunc
	maxInstances int
	logger       *logger.Logger
}

// NewServer creates a server. maxInstances is used when a request does not
// set max_instances.
func NewServer(cfg config.ServerConfig, maxInstances int, discover DiscoverFunc, log *logger.Logger) (*Server, error) {
	if discover == nil {
		return nil, fmt.Errorf("discover function is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:       router,
		discover:     discover,
		maxInstances: maxInstances,
		logger:       log.WithFields(map[string]interface{}{"component": "server"}),
	}
	router.Use(s.loggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/urls/", s.listURLs)

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  readTimeoutSeconds * time.Second,
		WriteTimeout: writeTimeoutSeconds * time.Second,
		IdleTimeout:  idleTimeoutSeconds * time.Second,
	}
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Starting API server", "address", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeoutSeconds*time.Second)
	defer cancel()
	s.logger.Infow("Shutting down API server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) listURLs(c *gin.Context) {
	params := unveil.Params{MaxInstances: s.maxInstances}

	if raw := c.Query("max_instances"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_instances must be a non-negative integer"})
			return
		}
		params.MaxInstances = n
	}

	if raw := c.Query("base_url"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "base_url must be an absolute URL"})
			return
		}
		params.BaseURL = raw
	}

	mode, err := aggregator.ParseMode(c.Query("group_by"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.discover(c.Request.Context(), params)
	if err != nil {
		s.logger.Errorw("Discovery failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "discovery failed"})
		return
	}

	doc := report.NewDocument(result.BaseURL, params.MaxInstances, result.Entries)
	body, err := doc.JSON(mode)
	if err != nil {
		s.logger.Errorw("Failed to encode URLs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encoding failed"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Infow("Request handled",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"duration", time.Since(start),
		)
	}
}
