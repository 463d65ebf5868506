package server

import (
	"context"
	"net/http"
	"time"

	"github.com/chainspan/chainspan/internal/api/middleware"
	chttp "github.com/chainspan/chainspan/internal/http"
	"github.com/chainspan/chainspan/internal/infrastructure/config"
	"github.com/chainspan/chainspan/internal/infrastructure/monitoring"
	"github.com/chainspan/chainspan/internal/trace"
	"github.com/chainspan/chainspan/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and its dependencies. The tracer is
// constructed here, at the composition root, and handed to every
// collaborator explicitly.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	tracer *trace.Tracer
	hub    *ws.Hub
	http   *http.Server
}

// New creates a server instance from loaded configuration.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	tracer := trace.New(trace.Config{
		MaxChains:   cfg.Tracing.MaxChains,
		SpanTTL:     cfg.Tracing.SpanTTL,
		EventBuffer: cfg.Tracing.EventBuffer,
		Enabled:     cfg.Tracing.Enabled,
	}, logger.Named("tracer"), metrics)

	hub := ws.NewHub(tracer.Events(), logger.Named("ws"))
	handlers := chttp.NewHandlers(tracer, logger.Named("http"))

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		// Global cap first, then the per-IP limit.
		router.Use(middleware.GlobalRateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.GlobalRequestsPerSecond,
			Burst:             cfg.RateLimit.GlobalBurst,
		}))
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Chain queries
	router.GET("/chains", handlers.ListChains)
	router.GET("/chains/:id", handlers.GetChain)
	router.GET("/chains/:id/validate", handlers.ValidateChain)
	router.GET("/chains/:id/statistics", handlers.ChainStatistics)
	router.GET("/chains/:id/coverage", handlers.LayerCoverage)
	router.GET("/chains/:id/layers/:layer", handlers.LayerNodes)
	router.GET("/chains/:id/path/:node", handlers.PathToRoot)
	router.GET("/chains/:id/export", handlers.ExportChain)
	router.DELETE("/chains", handlers.ClearChains)

	// Tracing control
	router.POST("/tracing/enable", handlers.EnableTracing)
	router.POST("/tracing/disable", handlers.DisableTracing)
	router.GET("/tracing/status", handlers.TracingStatus)

	// Live span feed
	router.GET("/stream", hub.HandleConnection)

	return &Server{
		cfg:    cfg,
		logger: logger,
		tracer: tracer,
		hub:    hub,
		http: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
	}
}

// Tracer exposes the tracer for instrumented call sites.
func (s *Server) Tracer() *trace.Tracer {
	return s.tracer
}

// Run serves HTTP until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("server starting", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the tracer.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	s.tracer.Close()
	return err
}
