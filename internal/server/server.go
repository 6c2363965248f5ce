package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/desktop/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/api/ws"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/apps/taskmanager"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/bus"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/manifest"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/process"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/store"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/surface"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/loop"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/tracing"
)

const (
	shutdownTimeout = 10 * time.Second
	hydrateTimeout  = 10 * time.Second
)

// Server wraps the engine, the HTTP server and their dependencies
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	gatherer prometheus.Gatherer

	loop      *loop.Loop
	backend   storage.Backend
	store     *store.Store
	registry  *process.Registry
	presenter *surface.Headless
	ctrl      *window.Controller
	tasks     *taskmanager.App
	hub       *ws.Hub
	router    *gin.Engine
}

// New builds the whole engine: storage, hydrated store, injected manifest,
// registry, controller, built-in apps and the HTTP/WebSocket surface.
// A nil logger is built from cfg.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
	}

	logger.Info("Initializing desktop engine",
		zap.String("storage", cfg.Storage.Backend),
		zap.String("manifest", cfg.Desktop.ManifestPath),
	)

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetricsWith(promReg)

	backend, err := storage.Open(storage.Options{
		Backend:  cfg.Storage.Backend,
		Path:     cfg.Storage.Path,
		Compress: cfg.Storage.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	st := store.New(backend, store.Options{
		Key:       cfg.Storage.Key,
		LegacyKey: cfg.Storage.LegacyKey,
		Logger:    logger.Component("store"),
		Metrics:   metrics,
		WritePolicy: resilience.Policy{
			Failures: cfg.Storage.WriteFailures,
			Cooldown: cfg.Storage.WriteCooldown,
		},
	})
	ctx, cancel := context.WithTimeout(context.Background(), hydrateTimeout)
	defer cancel()
	if err := st.Hydrate(ctx); err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to hydrate layout: %w", err)
	}

	m, err := manifest.Load(cfg.Desktop.ManifestPath)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	pruned, err := m.Inject(st, logger.Component("manifest"))
	if err != nil {
		logger.Warn("Some application descriptors were rejected", zap.Error(err))
	}
	logger.Info("Applications declared",
		zap.Int("count", len(m.Apps)),
		zap.Strings("pruned", pruned),
	)

	l := loop.New(loop.WithLogger(logger.Component("loop")))
	b := bus.NewLocal(logger.Component("bus"))
	registry := process.NewRegistry(l, b,
		process.WithLogger(logger.Component("registry")),
		process.WithMetrics(metrics),
	)
	presenter := surface.NewHeadless(cfg.Desktop.ViewportWidth, cfg.Desktop.ViewportHeight, logger.Component("surface"))
	ctrl := window.NewController(st, registry, b, presenter, window.Options{
		DragThreshold: cfg.Desktop.DragThreshold,
		RestartDelay:  cfg.Desktop.RestartDelay,
		Logger:        logger.Component("controller"),
		Metrics:       metrics,
	})
	tasks := taskmanager.New(registry, b, st, cfg.Desktop.TaskMgrInterval, logger.Component("taskmgr"))
	hub := ws.NewHub(ws.Config{
		MessagesPerSecond: cfg.WebSocket.MessagesPerSecond,
		Burst:             cfg.WebSocket.Burst,
		SendBuffer:        cfg.WebSocket.SendBuffer,
	}, ws.Deps{
		Loop:       l,
		Controller: ctrl,
		Bus:        b,
		Mirror:     presenter,
		Metrics:    metrics,
		Logger:     logger.Logger,
	})

	// The loop is not running yet, so this goroutine still owns the engine
	hub.Attach()
	tasks.Install()
	ctrl.Init()

	s := &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		gatherer:  promReg,
		loop:      l,
		backend:   backend,
		store:     st,
		registry:  registry,
		presenter: presenter,
		ctrl:      ctrl,
		tasks:     tasks,
		hub:       hub,
	}
	s.router = s.routes()

	logger.Info("Desktop engine initialized")
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	if !s.config.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(s.logger.Component("http"), tracing.DefaultSlowThreshold))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.CORSConfig{
		AllowOrigins: s.config.Server.CORSOrigins,
		AllowMethods: middleware.DefaultCORSConfig().AllowMethods,
		AllowHeaders: middleware.DefaultCORSConfig().AllowHeaders,
		MaxAge:       middleware.DefaultCORSConfig().MaxAge,
	}))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.config.RateLimit.RequestsPerSecond,
			Burst:             s.config.RateLimit.Burst,
		}))
	}

	apihttp.NewHandlers(apihttp.Deps{
		Loop:       s.loop,
		Controller: s.ctrl,
		Store:      s.store,
		Registry:   s.registry,
		Tasks:      s.tasks,
		Metrics:    s.metrics,
		Logger:     s.logger.Component("http"),
	}).Register(router)

	router.GET("/ws", s.hub.HandleConnection)
	router.GET("/metrics", apihttp.PrometheusHandler(s.gatherer))

	return router
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the event loop and serves HTTP until ctx is cancelled, then
// shuts down: HTTP first, then a final layout flush on the loop, then the
// loop itself and the storage backend.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	go s.loop.Run(loopCtx)
	go s.metrics.TrackUptime(loopCtx)

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	s.logger.Info("Shutting down desktop engine...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if err := s.loop.Do(shutdownCtx, func() {
		s.hub.Detach()
		if err := s.store.Flush(shutdownCtx); err != nil {
			s.logger.Error("Final layout flush failed", zap.Error(err))
		}
	}); err != nil {
		s.logger.Error("Event loop unavailable during shutdown", zap.Error(err))
	}
	stopLoop()
	<-s.loop.Done()

	if err := s.backend.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
	}
	s.logger.Sync()

	return serveErr
}
