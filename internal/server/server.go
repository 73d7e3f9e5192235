// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes research sessions over HTTP: search, select,
// analyze, chat, and insight downloads, plus /metrics and /healthz.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/archive"
	"github.com/pdiddy/research-assistant/internal/metrics"
	"github.com/pdiddy/research-assistant/internal/session"
	"github.com/pdiddy/research-assistant/pkg/types"
)

// DefaultSweepSchedule is the cron spec used to evict idle sessions.
const DefaultSweepSchedule = "@every 1m"

// Archiver stores analysis results. *archive.Store satisfies it.
type Archiver interface {
	Save(ctx context.Context, a archive.Analysis) error
}

// Server holds the HTTP handlers and the in-memory session table.
type Server struct {
	pipeline *session.Pipeline
	archive  Archiver
	metrics  *metrics.Metrics
	logger   *zap.Logger
	apiKey   string
	schedule string
	sessions *sessionStore
}

// New creates a Server. archiver and m may be nil.
func New(cfg types.ServerConfig, p *session.Pipeline, archiver Archiver, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	schedule := cfg.SweepSchedule
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Server{
		pipeline: p,
		archive:  archiver,
		metrics:  m,
		logger:   logger,
		apiKey:   cfg.APIKey,
		schedule: schedule,
		sessions: newSessionStore(cfg.SessionTTL),
	}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"healthy": true})
	})

	authed := router.Group("/", s.apiKeyAuth())
	if s.metrics != nil {
		authed.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	rg := authed.Group("/sessions")
	rg.POST("", s.createSession)
	rg.GET("/:id", s.withSession(s.getSession))
	rg.DELETE("/:id", s.deleteSession)
	rg.POST("/:id/search", s.withSession(s.search))
	rg.POST("/:id/select", s.withSession(s.selectPapers))
	rg.POST("/:id/analyze", s.withSession(s.analyze))
	rg.POST("/:id/chat", s.withSession(s.chat))
	rg.GET("/:id/insights/:key", s.withSession(s.downloadInsight))
	rg.GET("/:id/comparison", s.withSession(s.downloadComparison))

	return router
}

// StartSweeper evicts idle sessions on the configured schedule until ctx
// is cancelled. It returns once the scheduler has stopped.
func (s *Server) StartSweeper(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.sweep); err != nil {
		return err
	}
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func (s *Server) sweep() {
	removed, remaining := s.sessions.sweep()
	s.metrics.SetSessions(remaining)
	if removed > 0 {
		s.logger.Info("evicted idle sessions", zap.Int("removed", removed), zap.Int("active", remaining))
	}
}

func (s *Server) apiKeyAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != s.apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized: invalid API key"})
			return
		}
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
