package httpapi

import (
	"context"
	"embed"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"

	"github.com/i474232898/solar-power-monitor/internal/solar"
)

//go:embed web
var webFS embed.FS

//go:embed web/index.html
var indexHTML []byte

// solarDataError is the only message callers see when a run cannot complete.
const solarDataError = "Failed to fetch solar power data"

// Aggregator is the view of solar.Service the handlers need.
type Aggregator interface {
	FetchAndAggregate(ctx context.Context) (solar.Report, error)
	Locations() []solar.Location
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Aggregator, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	app.Get("/", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.Send(indexHTML)
	})

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:       http.FS(webFS),
		PathPrefix: "web/static",
	}))

	api := app.Group("/api")

	api.Get("/solar-data", func(c *fiber.Ctx) error {
		requestID := c.GetRespHeader(fiber.HeaderXRequestID)
		ctx := solar.WithRequestID(c.UserContext(), requestID)

		report, err := service.FetchAndAggregate(ctx)
		if err != nil {
			logger.Error("solar data aggregation failed", "request_id", requestID, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, solarDataError)
		}

		return c.JSON(report)
	})

	api.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(service.Locations())
	})
}

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
