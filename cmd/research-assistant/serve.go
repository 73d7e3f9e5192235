// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-assistant/internal/archive"
	"github.com/pdiddy/research-assistant/internal/metrics"
	"github.com/pdiddy/research-assistant/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve research sessions over HTTP",
	Long: `Serve starts a JSON API for research sessions. Each session holds its own
search results, selection, insights, and chat history:

  POST   /sessions                      create a session
  GET    /sessions/:id                  session state
  DELETE /sessions/:id                  discard a session
  POST   /sessions/:id/search           {"query": "..."}
  POST   /sessions/:id/select           {"indexes": [1,3]} or {"keys": ["arxiv:2401.00001"]}
  POST   /sessions/:id/analyze          generate insights and comparison
  POST   /sessions/:id/chat             {"question": "...", "stream": false}
  GET    /sessions/:id/insights/:key    download insight_<id>.json
  GET    /sessions/:id/comparison       download comparison_insight.json
  GET    /metrics                       Prometheus metrics
  GET    /healthz                       liveness

Idle sessions are evicted after server.session_ttl. Analyses are saved to
the archive unless --no-archive is set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().Bool("no-archive", false, "do not save analyses to the archive")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	p, err := newPipeline(ctx, cfg, m)
	if err != nil {
		return err
	}

	var archiver server.Archiver
	if noArchive, _ := cmd.Flags().GetBool("no-archive"); !noArchive {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			return err
		}
		defer store.Close()
		archiver = store
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := server.New(cfg.Server, p, archiver, m, logger)
	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.StartSweeper(gctx)
	})
	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
