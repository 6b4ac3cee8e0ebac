package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	httpapi "github.com/i474232898/solar-power-monitor/internal/api/http"
	"github.com/i474232898/solar-power-monitor/internal/config"
	"github.com/i474232898/solar-power-monitor/internal/scheduler"
	"github.com/i474232898/solar-power-monitor/internal/sink"
	"github.com/i474232898/solar-power-monitor/internal/solar"
	"github.com/i474232898/solar-power-monitor/internal/solar/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	// Shared HTTP client for outbound calls.
	httpClient := &http.Client{
		Timeout: cfg.UpstreamTimeout,
	}

	wind := providers.NewNOAAPlasmaProvider(httpClient, cfg.NOAA.PlasmaURL, log)
	clouds := providers.NewMeteosourceProvider(httpClient, cfg.Meteosource.BaseURL, cfg.Meteosource.APIKey)

	// Records go to AppSheet in the background, during daylight only.
	var records solar.RecordSink
	writer := providers.NewAppSheetWriter(httpClient, cfg.AppSheetWriterConfig())
	var dispatcher *sink.Dispatcher
	if writer.Enabled() {
		gate := providers.NewSunriseSunsetProvider(httpClient, providers.SunriseSunsetConfig{
			BaseURL:   cfg.Daylight.URL,
			Latitude:  cfg.Daylight.Latitude,
			Longitude: cfg.Daylight.Longitude,
			Location:  cfg.DaylightLocation(),
			Enabled:   cfg.Daylight.Enabled,
			Logger:    log,
		})
		dispatcher = sink.New(writer, gate, sink.Config{
			QueueSize:    cfg.Sink.QueueSize,
			WriteTimeout: 2 * cfg.UpstreamTimeout,
			Logger:       log,
		})
		dispatcher.Start()
		records = dispatcher
	} else {
		log.Info("APPSHEET_APP_ID not set; results will not be recorded")
	}

	service := solar.NewService(wind, clouds, records, cfg.Locations, cfg.SolarPolicy(), solar.WithLogger(log))

	// Optional periodic aggregation.
	runTimeout := time.Duration(len(cfg.Locations)+1) * cfg.UpstreamTimeout
	sched := scheduler.New(cfg.ScheduleInterval, runTimeout, service, log)
	if err := sched.Start(); err != nil {
		log.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	app := fiber.New(fiber.Config{
		AppName:               "solar-power-monitor",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		// A run makes one call per location plus the solar wind fetch.
		WriteTimeout: runTimeout + 10*time.Second,
		ErrorHandler: httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"service":   "solar-power-monitor",
			"locations": len(cfg.Locations),
		})
	})

	httpapi.RegisterRoutes(app, service, log)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("fiber server stopped", "error", err)
		}
	}()
	log.Info("listening", "port", cfg.Port, "locations", len(cfg.Locations))

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sched.Stop()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}

	if dispatcher != nil {
		if err := dispatcher.Close(shutdownCtx); err != nil {
			log.Error("pending records not saved", "error", err)
		}
	}
}
