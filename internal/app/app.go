package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"shipdash/internal/config"
	"shipdash/internal/dataset"
	apierrors "shipdash/internal/errors"
	"shipdash/internal/infrastructure"
	customMiddleware "shipdash/internal/middleware"
	"shipdash/internal/services"
	handlers "shipdash/internal/transport/http"
	"shipdash/pkg/contracts/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

var (
	// Version is the released version; overridden at link time
	Version = config.AppVersion
	// BuildTime is set at compile time
	BuildTime = ""
)

// compressedTypes are the response types worth gzipping
var compressedTypes = []string{
	"application/json",
	"application/problem+json",
	"text/html",
	"text/css",
	"text/csv",
	"text/javascript",
	"application/javascript",
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	FrontendFS    fs.FS
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Tracer    *services.DerivationTracer
}

// NewApplication loads configuration and builds the application. When the
// price data cannot be loaded the returned error wraps a
// *dataset.DataUnavailableError and nothing else is constructed.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return NewApplicationWithConfig(cfg, logger, frontendFS)
}

// NewApplicationWithConfig builds the application from an already loaded
// configuration
func NewApplicationWithConfig(cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version))

	paths, err := config.GetPaths(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.OTelConfigFromTelemetry(cfg.Telemetry, Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	loadCtx, cancel := context.WithTimeout(
		infrastructure.EnsureTraceID(context.Background()), cfg.Server.RequestTimeout)
	defer cancel()

	table, err := dataset.LoadContext(loadCtx, paths.DataFile)
	if err != nil {
		infrastructure.WithError(logger, err).ErrorContext(loadCtx, "Price data unavailable",
			slog.String("path", paths.DataFile))
		if shutdownErr := otelProviders.Shutdown(context.Background()); shutdownErr != nil {
			logger.Warn("OpenTelemetry shutdown failed", slog.String("error", shutdownErr.Error()))
		}
		return nil, fmt.Errorf("failed to load price data: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		FrontendFS:    frontendFS,
	}

	if err := app.initializeServices(table); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices wires the services around the loaded snapshot
func (a *Application) initializeServices(table *domain.PriceTable) error {
	tracer, err := services.NewDerivationTracer(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create derivation tracer: %w", err)
	}

	dashboardService, err := services.NewDashboardServiceWithLogger(table, services.DashboardOptions{
		Source:    a.Paths.DataFile,
		Alignment: a.Config.Data.Alignment,
		Tracer:    tracer,
	}, a.Logger)
	if err != nil {
		return err
	}

	healthService := services.NewHealthServiceWithBuildInfo(Version, BuildTime, dashboardService, a.Logger)

	a.Services = &ServiceContainer{
		Dashboard: dashboardService,
		Health:    healthService,
		Tracer:    tracer,
	}

	a.Logger.Info("Services initialized",
		slog.String("source", dashboardService.Snapshot().Source),
		slog.Int("rows", dashboardService.Snapshot().Rows))

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// RequestID → RealIP → OTel → Logger → Recoverer, then the response shapers
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.Use(customMiddleware.Compress(5, compressedTypes...))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.setupAPIRoutes(r, errorHandler)

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	if a.FrontendFS != nil {
		if err := a.setupPageRoutes(r); err != nil {
			return err
		}
	}

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	requestTimeout := customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger)
	exportTimeout := customMiddleware.Timeout(a.Config.Server.ExportTimeout, a.Logger)

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Services.Dashboard, a.Logger, errorHandler).
		WithViewMiddleware(requestTimeout).
		WithExportMiddleware(exportTimeout)

	queryValidator := customMiddleware.NewQueryParamValidator(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Group(func(r chi.Router) {
			r.Use(requestTimeout)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.Version)
		})

		r.With(queryValidator.Validate(customMiddleware.QueryRules{
			"align":  "omitempty,alignment",
			"entity": "omitempty,max=128,entity",
		})).Mount("/dashboard", dashboardHandler.Routes())
	})

	a.Logger.Info("API routes registered",
		slog.Duration("request_timeout", a.Config.Server.RequestTimeout),
		slog.Duration("export_timeout", a.Config.Server.ExportTimeout))
}

// setupPageRoutes serves the dashboard page and its assets
func (a *Application) setupPageRoutes(r chi.Router) error {
	page, err := handlers.NewPageHandler(a.FrontendFS, handlers.PageData{
		Title:       config.AppTitle,
		Description: config.AppDescription,
		Version:     Version,
		ChartCDN:    customMiddleware.ChartCDN,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to parse dashboard page: %w", err)
	}

	r.Get("/", page.ServeIndex)
	r.Get("/*", page.ServeAsset)
	return nil
}

// getCORSConfig returns the CORS configuration for the configured origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
		},
		ExposedHeaders: []string{
			customMiddleware.RequestIDHeader,
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Address(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// URL is the address a local browser reaches the dashboard on
func (a *Application) URL() string {
	return fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
}

// Start starts the HTTP server in the background. A listen failure cancels
// ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("data_file", a.Paths.DataFile))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.URL()))

	if a.Config.Server.OpenBrowser {
		go a.openWhenReady(ctx)
	}

	return nil
}

// openWhenReady waits for the health endpoint and then opens the dashboard
// in the default browser
func (a *Application) openWhenReady(ctx context.Context) {
	url := a.URL()
	healthURL := url + "/api/health/live"
	client := &http.Client{Timeout: 2 * time.Second}

	const maxRetries = 10
	for i := 0; i < maxRetries; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		resp, err := client.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				if err := openBrowser(ctx, url); err != nil {
					a.Logger.WarnContext(ctx, "Failed to open browser",
						slog.String("error", err.Error()),
						slog.String("url", url))
					fmt.Printf("\nDashboard running at %s\n\n", url)
				}
				return
			}
		}

		time.Sleep(500 * time.Millisecond)
	}

	a.Logger.WarnContext(ctx, "Server did not become ready for browser opening",
		slog.String("url", url),
		slog.Int("max_retries", maxRetries))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	return errors.Join(errs...)
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.ErrorContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// openBrowser opens the default browser on url, trying each platform method in turn
func openBrowser(ctx context.Context, url string) error {
	var lastErr error
	for _, method := range getBrowserOpenMethods(url) {
		cmd := exec.CommandContext(ctx, method.cmd, method.args...)
		if err := cmd.Start(); err != nil {
			lastErr = err
			slog.Debug("Browser open method failed",
				slog.String("method", method.name),
				slog.String("error", err.Error()))
			continue
		}
		go func() { _ = cmd.Wait() }()

		slog.Info("Browser opened",
			slog.String("method", method.name),
			slog.String("url", url))
		return nil
	}
	return fmt.Errorf("failed to open browser: %w", lastErr)
}

// browserMethod represents a method to open the browser
type browserMethod struct {
	name string
	cmd  string
	args []string
}

// getBrowserOpenMethods returns platform-specific browser opening methods
func getBrowserOpenMethods(url string) []browserMethod {
	switch runtime.GOOS {
	case "windows":
		return []browserMethod{
			{name: "rundll32", cmd: "rundll32", args: []string{"url.dll,FileProtocolHandler", url}},
			{name: "start_command", cmd: "cmd", args: []string{"/c", "start", "", url}},
		}
	case "darwin":
		return []browserMethod{
			{name: "open", cmd: "open", args: []string{url}},
		}
	default:
		return []browserMethod{
			{name: "xdg-open", cmd: "xdg-open", args: []string{url}},
			{name: "sensible-browser", cmd: "sensible-browser", args: []string{url}},
		}
	}
}
