package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/notebook/internal/api/http"
	"github.com/GriffinCanCode/notebook/internal/api/middleware"
	"github.com/GriffinCanCode/notebook/internal/content"
	"github.com/GriffinCanCode/notebook/internal/content/widget"
	"github.com/GriffinCanCode/notebook/internal/domain/session"
	"github.com/GriffinCanCode/notebook/internal/editor"
	"github.com/GriffinCanCode/notebook/internal/editor/sandbox"
	"github.com/GriffinCanCode/notebook/internal/editor/socket"
	"github.com/GriffinCanCode/notebook/internal/infrastructure/config"
	"github.com/GriffinCanCode/notebook/internal/infrastructure/logging"
	"github.com/GriffinCanCode/notebook/internal/infrastructure/monitoring"
	spaceProvider "github.com/GriffinCanCode/notebook/internal/providers/space"
	systemProvider "github.com/GriffinCanCode/notebook/internal/providers/system"
	"github.com/GriffinCanCode/notebook/internal/providers/theme"
	"github.com/GriffinCanCode/notebook/internal/service"
	"github.com/GriffinCanCode/notebook/internal/space"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	http     *http.Server
	store    *space.Store
	registry *service.Registry
	sessions *session.Manager
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing notebook server",
		zap.String("port", cfg.Server.Port),
		zap.String("space", cfg.Space.Dir),
		zap.String("frame", cfg.Editor.Frame),
	)

	// Initialize metrics first (needed by other components)
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	store, err := space.New(ctx, cfg.Space.Dir, logger.Component("space"))
	if err != nil {
		return nil, err
	}
	logger.Info("Space indexed", zap.Int("pages", len(store.Pages())))

	renderer := widget.NewRenderer(widget.NewHeightCache(),
		widget.WithAssetBase("/fs/"),
		widget.WithLogger(logger.Component("widget")))
	scanner := content.NewScanner(store, renderer,
		content.WithLogger(logger.Component("content")),
		content.WithEmbedDepth(cfg.Space.EmbedDepth))

	themes := theme.NewProvider(ctx, store, logger.Component("theme"))

	serviceRegistry := service.NewRegistry(logger.Component("service"))
	logger.Info("Registering service providers...")
	registerProviders(serviceRegistry, logger, store, themes)

	editors := editor.NewRegistry()
	if err := loadEditors(editors, cfg.Editor.Manifest, logger); err != nil {
		return nil, err
	}

	policy, err := editor.ParseSavePolicy(cfg.Editor.SavePolicy)
	if err != nil {
		return nil, err
	}

	hub := socket.NewHub(logger.Component("frame")).WithObserver(metrics)
	frames := session.FrameSource(hub.Factory)
	if cfg.Editor.Frame == "sandbox" {
		sandboxCfg := sandbox.DefaultConfig()
		sandboxCfg.Timeout = cfg.Editor.SandboxTimeout
		factory := sandbox.Factory(sandboxCfg, logger.Component("sandbox"))
		frames = func(string) editor.FrameFactory { return factory }
	}

	sessions := session.NewManager(session.Options{
		Store:       store,
		Registry:    editors,
		Frames:      frames,
		Dispatcher:  serviceRegistry,
		Theme:       func() string { return themes.Current().ID },
		SaveTimeout: cfg.Editor.SaveTimeout,
		Policy:      policy,
		Metrics:     metrics,
		Observer:    metrics,
		Logger:      logger.Component("editor"),
	})
	themes.OnChange(func(theme.Theme) { sessions.UpdateThemes() })

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig().WithOrigins(cfg.Server.CORSOrigins)
	corsCfg.EditorFrames = cfg.Editor.Frame != "sandbox"
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	handlers := api.NewHandlers(api.Deps{
		Scanner:  scanner,
		Store:    store,
		Sessions: sessions,
		Editors:  editors,
		Hub:      hub,
		Services: serviceRegistry,
		Themes:   themes,
		Metrics:  metrics,
		Logger:   logger.Component("api"),
	})
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router: router,
		http: &http.Server{
			Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
			Handler: router,
		},
		store:    store,
		registry: serviceRegistry,
		sessions: sessions,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves HTTP until Shutdown is called
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown closes editor sessions, letting pending saves settle, then stops
// the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.sessions.CloseAll(ctx); err != nil {
		s.logger.Error("Failed to close editor sessions", zap.Error(err))
		errs = append(errs, err)
	}
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop http server: %w", err))
	}

	// Sync logger before exit
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

func loadEditors(editors *editor.Registry, manifest string, logger *logging.Logger) error {
	if manifest == "" {
		return nil
	}
	if _, err := os.Stat(manifest); errors.Is(err, os.ErrNotExist) {
		logger.Warn("Editor manifest not found, no editors registered", zap.String("path", manifest))
		return nil
	}
	if err := editors.LoadManifest(manifest); err != nil {
		return fmt.Errorf("failed to load editor manifest: %w", err)
	}
	for _, def := range editors.List() {
		logger.Info("Editor registered",
			zap.String("editor", def.Name),
			zap.Strings("extensions", def.Extensions))
	}
	return nil
}

func registerProviders(registry *service.Registry, logger *logging.Logger, store *space.Store, themes *theme.Provider) {
	providers := []service.Provider{
		systemProvider.NewProvider(logger.Component("system")),
		spaceProvider.NewProvider(store),
		themes,
	}
	for _, p := range providers {
		if err := registry.Register(p); err != nil {
			logger.Warn("Failed to register provider",
				zap.String("service", p.Definition().ID),
				zap.Error(err))
		}
	}
}
