// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	_ "github.com/Softbalance/equipment/docs"
	"github.com/Softbalance/equipment/internal/catalog"
	"github.com/Softbalance/equipment/internal/config"
	"github.com/Softbalance/equipment/internal/database"
	"github.com/Softbalance/equipment/internal/discovery/usb"
	"github.com/Softbalance/equipment/internal/driver"
	"github.com/Softbalance/equipment/internal/driver/atol"
	"github.com/Softbalance/equipment/internal/driver/drivers"
	"github.com/Softbalance/equipment/internal/driver/escpos"
	"github.com/Softbalance/equipment/internal/driver/printserver"
	"github.com/Softbalance/equipment/internal/engine"
	"github.com/Softbalance/equipment/internal/handler"
	"github.com/Softbalance/equipment/internal/metrics"
	"github.com/Softbalance/equipment/internal/repository"
	"github.com/Softbalance/equipment/internal/routes"
	"github.com/Softbalance/equipment/internal/service"
	"github.com/Softbalance/equipment/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	ctx    context.Context
	cancel context.CancelFunc

	history         repository.ExecutionRepository
	driverRegistry  *driver.Registry
	sessionRegistry *engine.Registry
	catalog         *catalog.Catalog
	usbScanner      *usb.Scanner

	metricsRegistry *prometheus.Registry
	metrics         *metrics.Metrics
	bus             *service.EventBus
	events          *handler.WebSocketHandler

	// Services
	executionService *service.ExecutionService
	sessionService   *service.SessionService
	relayService     *service.RelayService
	discoveryService *service.DiscoveryService
}

// @title Equipment API
// @version 1.0.0
// @description POS equipment service: print server protocol, named device sessions and execution history

// @BasePath /
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version,
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.GetServerAddr()),
		zap.Bool("database", cfg.Database.Enabled),
	)

	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		config: cfg,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"database", app.initializeDatabase},
		{"repositories", app.initializeRepositories},
		{"driver registry", app.initializeDriverRegistry},
		{"services", app.initializeServices},
		{"server", app.initializeServer},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			cancel()
			return nil, fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	return app, nil
}

// initializeDatabase connects to postgres and runs migrations when history
// is persistent
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, execution history kept in memory")
		return nil
	}

	db, err := database.NewConnection(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.AutoMigrate {
		if err := database.NewMigrator(db, app.logger).Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() error {
	if app.database != nil {
		app.history = repository.NewExecutionRepository(app.database, app.logger)
	} else {
		app.history = repository.NewMemoryExecutionRepository(app.config.History.MemoryCapacity)
	}

	app.logger.Info("Repositories initialized successfully")
	return nil
}

// initializeDriverRegistry registers the backends and builds the settings
// catalog
func (app *Application) initializeDriverRegistry() error {
	app.driverRegistry = driver.NewRegistry(app.logger)
	app.usbScanner = usb.NewScanner(app.logger, &usb.Config{ScanTimeout: app.config.Discovery.ScanTimeout}, nil)

	relay := printserver.ClientConfig{
		DialTimeout:     app.config.Relay.DialTimeout,
		ResponseTimeout: app.config.Relay.ResponseTimeout,
		Timeout:         app.config.Relay.Timeout,
	}
	atolDevice, err := atol.Provider(app.config.Device.Atol.Provider)
	if err != nil {
		return err
	}
	if app.config.Device.Atol.Provider == atol.ProviderEmulator {
		app.logger.Warn("Atol backend runs on the in-memory emulator, no fiscal documents reach hardware")
	}

	drivers.RegisterDefaults(app.driverRegistry, drivers.Options{
		AtolDevice: atolDevice,
		Locator:    app.usbScanner,
		Settling: &escpos.SettlingPolicy{
			PerText:      app.config.Device.Settling.PerText,
			CharsPerStep: app.config.Device.Settling.CharsPerStep,
			Cut:          app.config.Device.Settling.Cut,
		},
		Relay: relay,
	})

	app.catalog = catalog.New(atol.CatalogDefaults(atolDevice, app.logger))
	app.sessionRegistry = engine.NewRegistry(app.driverRegistry, app.logger)

	app.logger.Info("Driver registry initialized successfully",
		zap.Int("registered_drivers", len(app.driverRegistry.Kinds())),
	)
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	app.metricsRegistry = metrics.NewRegistry()
	app.metrics = metrics.New(app.metricsRegistry)
	app.bus = service.NewEventBus(app.logger)

	app.executionService = service.NewExecutionService(
		app.driverRegistry,
		app.catalog,
		app.history,
		app.bus,
		app.metrics,
		&app.config.Device,
		app.logger,
	)
	app.sessionService = service.NewSessionService(
		app.sessionRegistry,
		app.catalog,
		app.executionService,
		app.bus,
		app.metrics,
		app.logger,
	)
	app.relayService = service.NewRelayService(
		app.catalog,
		app.driverRegistry,
		app.executionService,
		app.config.Relay.Version,
		app.logger,
	)
	app.discoveryService = service.NewDiscoveryService(
		&app.config.Discovery,
		app.usbScanner,
		app.bus,
		app.logger,
	)
	app.events = handler.NewWebSocketHandler(app.bus, app.config.Security.AllowedOrigins, app.logger)

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	deps := routes.Dependencies{
		Drivers:         app.driverRegistry,
		Relay:           app.relayService,
		Sessions:        app.sessionService,
		Executions:      app.executionService,
		Discovery:       app.discoveryService,
		Events:          app.events,
		Metrics:         app.metrics,
		MetricsRegistry: app.metricsRegistry,
	}
	// A nil *database.DB must not become a non-nil Pinger.
	if app.database != nil {
		deps.DB = app.database
	}

	router := routes.NewRouter(app.config, app.logger, deps).SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)

	return nil
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	go app.bus.Start(app.ctx)
	go app.events.Run(app.ctx)
	go app.executionService.PruneHistory(app.ctx, app.config.History.Retention, time.Hour)

	app.logger.Info("Background services started")
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	// Open sessions hold device connections.
	app.sessionService.DisposeAll(ctx)
	app.cancel()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()
	app.waitForShutdown()

	return nil
}
