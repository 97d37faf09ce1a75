package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"

	"benfordlens/internal/config"
	apierrors "benfordlens/internal/errors"
	"benfordlens/internal/infrastructure"
	"benfordlens/internal/middleware"
	"benfordlens/internal/security"
	"benfordlens/internal/services"
	handlers "benfordlens/internal/transport/http"
	ws "benfordlens/internal/websocket"
	"benfordlens/pkg/contracts"
)

// Application is the main dependency container. It owns the HTTP
// server, the WebSocket hub, and every service behind the API.
type Application struct {
	Config          *config.Config
	Paths           *config.Paths
	Router          *chi.Mux
	Server          *http.Server
	WebSocketHub    *ws.Hub
	AnalysisService *services.AnalysisService
	HealthService   *services.HealthService
	Credentials     *security.CredentialsManager
	Logger          *slog.Logger
	Services        *ServiceContainer
	OTelProviders   *infrastructure.OTelProviders
	BusinessMetrics *infrastructure.BusinessMetrics
}

// ServiceContainer groups the application services for handlers and
// tests that need them as a unit.
type ServiceContainer struct {
	Analysis  *services.AnalysisService
	Health    *services.HealthService
	WebSocket *ws.Hub
}

// NewApplication creates a fully wired application instance.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	version := contracts.GetVersionInfo()
	logger.Info("application starting",
		slog.String("version", version.Version),
		slog.String("build_time", version.BuildTime),
		slog.String("git_commit", version.GitCommit))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	// Google Sheets sources need the encrypted credentials file. Its
	// absence is not fatal; file uploads still work without it.
	if !config.FileExists(paths.CredentialsFile) {
		logger.Warn("credentials file not found",
			slog.String("path", paths.CredentialsFile),
			slog.String("action", "Google Sheets sources will be unavailable"))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	if err := ws.InitOTelMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize WebSocket OpenTelemetry metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices wires the hub, the analysis service, and the
// health service in dependency order.
func (a *Application) initializeServices() error {
	hub := ws.NewHub(a.Logger)
	hub.SetTiming(a.Config.WebSocket.PingPeriod, a.Config.WebSocket.PongWait)
	hub.Start()
	a.WebSocketHub = hub

	businessMetrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		a.Logger.Warn("business metrics disabled",
			slog.String("error", err.Error()))
	}
	a.BusinessMetrics = businessMetrics

	// The credentials manager is only constructed when the encrypted
	// credentials file exists; the analysis service treats a nil
	// manager as "Sheets unavailable".
	if config.FileExists(a.Paths.CredentialsFile) {
		creds, err := security.NewCredentialsManager(
			a.Paths.CredentialsFile,
			a.Config.Security.CredentialsKey,
			a.Logger,
		)
		if err != nil {
			return fmt.Errorf("failed to initialize credentials manager: %w", err)
		}
		a.Credentials = creds
	}

	analysisService := services.NewAnalysisService(a.Config, a.Paths, hub, a.Credentials, a.Logger)
	analysisService.SetMetrics(businessMetrics)
	analysisService.Start()
	a.AnalysisService = analysisService

	healthService := services.NewHealthService(
		contracts.GetVersionInfo(),
		a.Paths,
		analysisService,
		hub,
		a.Logger,
	)
	a.HealthService = healthService

	a.Services = &ServiceContainer{
		Analysis:  analysisService,
		Health:    healthService,
		WebSocket: hub,
	}

	return nil
}

// setupRouter configures the HTTP router with all routes.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID and RealIP are safe for WebSocket upgrades because
	// they never wrap the ResponseWriter.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	// The WebSocket route stays outside the main group so response
	// wrapping middleware cannot break the hijacker.
	r.With(middleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		// Ordering: RequestID -> RealIP -> OTel -> Logger -> Recoverer
		otelMiddleware, err := middleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("failed to create OpenTelemetry middleware",
				slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(middleware.BusinessMetricsMiddleware(a.BusinessMetrics))
		r.Use(middleware.StructuredLogger(a.Logger))
		r.Use(middleware.Recoverer(a.Logger))
		r.Use(middleware.SecurityHeaders)
		r.Use(middleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(middleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus metrics endpoint outside the middleware group.
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints.
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
		validation := middleware.NewValidationMiddleware(a.Logger, errorHandler)
		validation.SetMaxBodySize(a.Config.Server.MaxUploadBytes)

		// Unknown API paths and wrong methods answer in the same
		// problem-details shape as every other API error.
		r.NotFound(errorHandler.NotFound)
		r.MethodNotAllowed(errorHandler.MethodNotAllowed)

		// Probes and stats with the standard timeout.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/health/details", healthHandler.DetailedHealth)
			r.Get("/version", healthHandler.Version)

			metricsHandler := handlers.NewMetricsHandler(a.HealthService, a.Logger)
			r.Mount("/stats", metricsHandler.Routes())
		})

		// Analysis routes get the analysis timeout: submissions stream
		// workbook uploads before the job is queued.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(a.Config.Analysis.Timeout, a.Logger))

			analysisHandler := handlers.NewAnalysisHandler(a.AnalysisService, validation, a.Logger)
			r.Mount("/analysis", analysisHandler.Routes())
		})
	})
}

// getCORSConfig builds the CORS policy from configuration.
func (a *Application) getCORSConfig() middleware.CORSConfig {
	cfg := middleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	a.Logger.Info("CORS configured",
		slog.Any("allowed_origins", cfg.AllowedOrigins),
		slog.Bool("development", a.Config.Logging.Development))

	return cfg
}

// createServer creates the HTTP server.
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server and background services. A server
// error cancels the supplied context so Run can shut down cleanly.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "starting server",
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.Logger.InfoContext(ctx, "application paths",
		slog.String("executable_dir", a.Paths.ExecutableDir),
		slog.String("data_dir", a.Paths.DataDir),
		slog.String("workbooks_dir", a.Paths.WorkbooksDir),
		slog.String("reports_dir", a.Paths.ReportsDir),
		slog.String("logs_dir", a.Paths.LogsDir))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "startup health check warnings",
			slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "server started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Stop accepting jobs and wait for running analyses to finish or
	// be cancelled before tearing down the hub they broadcast to.
	a.AnalysisService.Close()
	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run runs the application until interrupted or until the server
// fails.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
		a.Logger.InfoContext(ctx, "server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// handleWebSocket upgrades the connection and registers the client
// with the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("host", r.Host))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Same-origin and non-browser clients send no Origin.
			if origin == "" {
				return true
			}

			if a.Config.Logging.Development {
				return true
			}

			for _, allowed := range a.Config.Security.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}

			a.Logger.WarnContext(ctx, "WebSocket origin rejected",
				slog.String("origin", origin),
				slog.Any("allowed_origins", a.Config.Security.AllowedOrigins))
			return false
		},
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()))
			http.Error(w, http.StatusText(status), status)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	client := ws.NewClientWithTrace(a.WebSocketHub, conn, reqID, a.Logger)
	a.WebSocketHub.Register(client)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket write pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.WritePump()
	}()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket read pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.ReadPump()
	}()
}

// performStartupHealthCheck verifies critical directories are writable
// and reports missing optional files.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	directories := map[string]string{
		"data":      a.Paths.DataDir,
		"workbooks": a.Paths.WorkbooksDir,
		"reports":   a.Paths.ReportsDir,
		"logs":      a.Paths.LogsDir,
	}

	for name, dir := range directories {
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if !config.FileExists(a.Paths.CredentialsFile) {
		a.Logger.InfoContext(ctx, "optional configuration file not found",
			slog.String("file", "credentials"),
			slog.String("path", a.Paths.CredentialsFile))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "startup health check passed")
	return nil
}
