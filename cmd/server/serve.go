package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vroom/internal/backend"
	"vroom/internal/config"
	"vroom/internal/handler"
	"vroom/internal/middleware"
	"vroom/internal/observability"
	"vroom/internal/repository"
	"vroom/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	sweepInterval = 10 * time.Minute
	pageIdleLimit = 2 * time.Hour
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting vroom")

	gin.SetMode(cfg.Server.GinMode)

	store, err := repository.Open(&cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open conversation store: %w", err)
	}
	defer store.Close()

	client := backend.NewClient(&cfg.Backend, logger)
	logger.Info().
		Str("base_url", client.BaseURL()).
		Int("recommend_timeout_s", cfg.Backend.RecommendTimeout).
		Int("chat_timeout_s", cfg.Backend.ChatTimeout).
		Int("topn", cfg.Backend.TopN).
		Msg("backend client initialized")

	// Initialize services
	meta := service.NewMetaService(client, logger)
	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.Backend.MetaTimeoutDuration())
	if err := meta.Refetch(startCtx); err != nil {
		logger.Warn().Msg("backend metadata unavailable at startup, serving defaults")
	}
	cancelStart()

	recommender := service.NewRecommendService(client, cfg.Backend.TopN, logger)
	assistant := service.NewAssistant(client, store, cfg.Backend.ChatTimeoutDuration(), logger)
	flow := service.NewSearchFlow(meta, recommender, logger)
	normalizer := service.NewNormalizer(cfg.Results.FloorPct, cfg.Results.CeilPct, cfg.Results.TightSpread)

	router := newRouter(cfg, logger, meta, flow, assistant, normalizer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runJanitor(ctx, logger, flow, store, cfg.Storage.TTL())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msgf("web UI: http://localhost:%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func newRouter(cfg *config.Config, logger zerolog.Logger, meta *service.MetaService, flow *service.SearchFlow, assistant *service.Assistant, normalizer *service.Normalizer) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(logger))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitList(cfg.Server.AllowedOrigins)
	corsConfig.AllowMethods = splitList(cfg.Server.AllowedMethods)
	corsConfig.AllowHeaders = splitList(cfg.Server.AllowedHeaders)
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ready, loaded := meta.DataReady()
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"service":     "vroom",
			"version":     Version,
			"meta_loaded": loaded,
			"data_ready":  ready,
			"backend":     cfg.Backend.BaseURL,
		})
	})

	// Version endpoint
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    Version,
			"build_time": BuildTime,
			"git_commit": GitCommit,
		})
	})

	// Templates and static assets; implemented in embed.go (production) or static_dev.go (development)
	setupWeb(router, cfg.Server.WebDir, logger)

	app := router.Group("/")
	app.Use(middleware.RequestLogger(logger), middleware.Session(middleware.SessionOptions{
		CookieName: cfg.Session.CookieName,
		MaxAge:     time.Duration(cfg.Session.MaxAgeDays) * 24 * time.Hour,
		Secure:     cfg.Session.Secure,
	}))
	handler.Register(app, handler.Handlers{
		Pages: handler.NewPageHandler(meta, flow, assistant, normalizer, logger),
		Chat:  handler.NewChatHandler(assistant, flow, normalizer, logger),
		API:   handler.NewAPIHandler(meta, flow, assistant, normalizer, logger),
	})

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
	})

	return router
}

// runJanitor drops idle page sessions and, for SQL stores, expired conversations
func runJanitor(ctx context.Context, logger zerolog.Logger, flow *service.SearchFlow, store repository.ConversationStore, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	purger, canPurge := store.(*repository.SQLStore)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			flow.Sweep(pageIdleLimit)
			if !canPurge || ttl <= 0 {
				continue
			}
			purgeCtx, cancel := context.WithTimeout(ctx, time.Minute)
			n, err := purger.Purge(purgeCtx, time.Now().Add(-ttl))
			cancel()
			if err != nil {
				logger.Warn().Err(err).Msg("conversation purge failed")
			} else if n > 0 {
				logger.Info().Int64("purged", n).Msg("purged expired conversations")
			}
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
