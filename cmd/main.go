package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/litbeFred/langres-guidance-service/internal/config"
	"github.com/litbeFred/langres-guidance-service/internal/events"
	"github.com/litbeFred/langres-guidance-service/internal/guidance"
	"github.com/litbeFred/langres-guidance-service/internal/metrics"
	"github.com/litbeFred/langres-guidance-service/internal/models"
	"github.com/litbeFred/langres-guidance-service/internal/narrator"
	"github.com/litbeFred/langres-guidance-service/internal/player"
	"github.com/litbeFred/langres-guidance-service/internal/repository"
	"github.com/litbeFred/langres-guidance-service/internal/routing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Initialize the tour catalog database connection.
	dtb, err := repository.NewDatabase(
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
	)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	// Create a new repository instance using the database connection.
	repo := repository.NewRepository(dtb, logger)

	// Create the routing provider using the factory pattern based on configuration.
	// This allows runtime selection between different providers (Google, OSRM).
	providerConfig := routing.ProviderConfig{
		Type:    routing.ProviderType(cfg.ProviderType),
		APIKey:  cfg.APIKey,
		BaseURL: cfg.OSRMBaseURL,
		Logger:  logger,
	}

	routeProvider, err := routing.NewProvider(providerConfig)
	if err != nil {
		log.Fatalf("Failed to create routing provider: %v", err)
	}

	logger.InfoContext(ctx, "Routing provider initialized", "type", cfg.ProviderType)

	// Wire the guidance coordinator with a simulated player and a logging
	// narrator; real deployments substitute device-backed implementations.
	walkInterval := 2 * time.Second
	navPlayer := player.NewSimulator(logger, walkInterval)
	speaker := narrator.NewLogNarrator(logger)
	settings := cfg.Guidance

	coordinator := guidance.NewCoordinator(
		logger,
		routeProvider,
		cfg.ProviderType,
		navPlayer,
		speaker,
		&settings,
		appMetrics,
	)

	coordinator.AddListener(func(event events.Event) {
		logger.InfoContext(ctx, "Guidance event", "type", string(event.Type))
	})

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, dtb, cfg.Port)

	go runDemoWalk(ctx, logger, repo, coordinator, walkInterval)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	coordinator.StopGuidance(context.WithoutCancel(ctx))
	dtb.Close()

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// runDemoWalk loads the first published tour, starts guided tour mode, and
// feeds positions along the aggregate route into the coordinator, with a
// detour injected halfway so the back-on-track flow can be observed live.
func runDemoWalk(
	ctx context.Context,
	logger *slog.Logger,
	repo repository.Interface,
	coordinator *guidance.Coordinator,
	interval time.Duration,
) {
	tours, err := repo.FetchTours(ctx)
	if err != nil || len(tours) == 0 {
		logger.ErrorContext(ctx, "No tour available for the demo walk", "error", err)
		return
	}

	pois, err := repo.FetchTourPOIs(ctx, tours[0].ID)
	if err != nil || len(pois) == 0 {
		logger.ErrorContext(ctx, "Failed to load tour POIs", "tour", tours[0].ID, "error", err)
		return
	}

	start := pois[0].Position
	if err = coordinator.StartGuidance(ctx, guidance.Config{
		Type:    models.GuidanceGuidedTour,
		POIs:    pois,
		Options: guidance.TourOptions{StartPosition: &start},
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to start guided tour", "error", err)
		return
	}

	route := coordinator.Status().Tour.Route
	if route == nil {
		return
	}

	// Offset applied halfway along the walk; roughly 100 m of latitude.
	const detourOffset = 0.0009

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i, point := range route.Geometry {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pos := point
		if i > len(route.Geometry)/2 && i <= len(route.Geometry)/2+3 {
			pos.Latitude += detourOffset
		}

		status, err := coordinator.UpdatePosition(ctx, pos)
		if err != nil {
			logger.ErrorContext(ctx, "Position update failed", "error", err)
			continue
		}
		logger.DebugContext(ctx, "Walked", "point", i, "mode", string(status.GuidanceType))
	}
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - dtb: A pgxpool connector for database methods (ping)
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	dtb *pgxpool.Pool,
	port int,
) {
	http.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if err := dtb.Ping(ctx); err != nil {
			status, body = http.StatusServiceUnavailable, "DB ping failed"
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", http.StatusOK)
	})
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      http.DefaultServeMux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}
	if err := server.ListenAndServe(); err != nil {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
