package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/Dashboard/backend/internal/api/http"
	"github.com/GriffinCanCode/Dashboard/backend/internal/api/middleware"
	"github.com/GriffinCanCode/Dashboard/backend/internal/api/ws"
	"github.com/GriffinCanCode/Dashboard/backend/internal/domain/dashboard"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Dashboard/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/geocoding"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/http/client"
	"github.com/GriffinCanCode/Dashboard/backend/internal/providers/prayer"
	"github.com/GriffinCanCode/Dashboard/backend/internal/render"
	"github.com/GriffinCanCode/Dashboard/backend/internal/storage"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widget"
	"github.com/GriffinCanCode/Dashboard/backend/internal/widgets"
)

// StreamPath is the WebSocket route; it bypasses response compression
const StreamPath = "/stream"

// MetricsPath serves the Prometheus exposition; scrapes are not counted as
// API requests
const MetricsPath = "/metrics"

// Server wraps the HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	store      storage.Store
	dispatcher *render.Dispatcher
	layouts    *dashboard.Manager
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Initialize logger
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Sampling:    !cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing Dashboard Server",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("seed_dir", cfg.Storage.SeedDir),
	)

	// Initialize metrics first (needed by other components)
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(promRegistry)
	logger.Info("Performance monitoring initialized")

	// Initialize distributed tracing
	tracer := tracing.New("dashboard", logger.Component("tracing"))

	// Outbound collaborators share one client: retries, rate limit, breakers
	fetchCfg := client.DefaultConfig()
	fetchCfg.Timeout = cfg.Providers.FetchTimeout
	fetchCfg.Retries = cfg.Providers.FetchRetries
	fetchCfg.RPS = cfg.Providers.FetchRPS
	fetcher := client.NewClient(fetchCfg, logger.Component("fetch"), metrics).WithTracer(tracer)

	cities := geocoding.NewProvider(fetcher, cfg.Providers.GeocodingURL)
	timings := prayer.NewProvider(fetcher, cfg.Providers.PrayerURL)

	// Widget catalog
	widgetRegistry := widget.NewRegistry()
	if err := widgets.Register(widgetRegistry, widgets.Deps{
		Fetcher: fetcher,
		Prayer:  timings,
		Logger:  logger.Component("widgets"),
	}); err != nil {
		logger.Warn("Some widgets failed to register", zap.Error(err))
	}
	metrics.SetWidgetsRegistered(widgetRegistry.Len())
	logger.Info("Widget catalog ready", zap.Int("widgets", widgetRegistry.Len()))
	resolver := widget.NewResolver(widgetRegistry)

	dispatcher := render.NewDispatcher(render.Options{
		Timeout: cfg.Render.Timeout,
		Logger:  logger.Component("render"),
		Metrics: metrics,
	})

	// Layout storage
	store, err := storage.Open(ctx, storage.Config{
		Backend:   cfg.Storage.Backend,
		Path:      cfg.Storage.Path,
		CacheSize: cfg.Storage.CacheSize,
		Redis: storage.RedisOptions{
			Addr:     cfg.Storage.RedisAddr,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
			Prefix:   cfg.Storage.RedisPrefix,
		},
	}, logger.Component("storage"))
	if err != nil {
		dispatcher.Close()
		tracer.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	layouts := dashboard.NewManager(store, resolver, dispatcher, logger.Component("dashboards"), metrics)

	// Seed layouts shipped with the deployment
	if cfg.Storage.SeedDir != "" {
		logger.Info("Loading seed layouts...", zap.String("dir", cfg.Storage.SeedDir))
		seeder := dashboard.NewSeeder(layouts, cfg.Storage.SeedDir, logger.Component("seeder"))
		if _, err := seeder.Seed(ctx); err != nil {
			logger.Warn("Failed to seed layouts", zap.Error(err))
		}
	}

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics, MetricsPath))
	router.Use(middleware.CORS(middleware.WithOrigins(cfg.CORS.Origins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
			zap.Int("global_rps", cfg.RateLimit.GlobalRPS),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			MaxClients:        cfg.RateLimit.MaxClients,
			GlobalRPS:         cfg.RateLimit.GlobalRPS,
		}))
	}

	admin := middleware.NewAdminAuth(cfg.Auth.AdminTokenHash, logger.Component("auth"))
	if !admin.Enabled() {
		logger.Warn("ADMIN_TOKEN_HASH is not set; admin routes are disabled")
	}

	// Create handlers
	handlers := apihttp.NewHandlers(apihttp.Deps{
		Registry:   widgetRegistry,
		Resolver:   resolver,
		Layouts:    layouts,
		Dispatcher: dispatcher,
		Geocoding:  cities,
		Prayer:     timings,
		Upstreams:  fetcher,
		Metrics:    metrics,
		Logger:     logger.Component("http"),
	})
	handlers.Register(router, admin.Require())

	wsHandler := ws.NewHandler(dispatcher, layouts, metrics, logger.Component("ws"))
	router.GET(StreamPath, wsHandler.HandleConnection)

	// Metrics endpoints
	router.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	router.GET("/metrics/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, metrics.Snapshot())
	})

	s := &Server{
		router:     router,
		store:      store,
		dispatcher: dispatcher,
		layouts:    layouts,
		tracer:     tracer,
		logger:     logger,
		config:     cfg,
		metrics:    metrics,
	}
	s.httpServer = &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: s.Handler(),
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// Handler returns the root HTTP handler, gzip-compressed when enabled
func (s *Server) Handler() http.Handler {
	if !s.config.Server.Gzip {
		return s.router
	}
	compressed := gzhttp.GzipHandler(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The upgrade needs the raw connection
		if r.URL.Path == StreamPath {
			s.router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP server...")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases renders, storage and telemetry
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.dispatcher.Close()
	s.logger.Info("Stopped render dispatcher")

	var errs []error
	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
		errs = append(errs, fmt.Errorf("failed to close storage: %w", err))
	}

	s.tracer.Close()

	// Sync logger before exit
	if err := s.logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
