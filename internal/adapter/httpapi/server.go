// Package httpapi serves the aggregated job results over REST.
package httpapi

import (
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"weather-mapreduce/internal/results"
)

var validate = validator.New()

// jobs the API serves, in health-report order.
var jobs = []string{"temperature_analysis", "precipitation_analysis", "extreme_weather"}

// ResultStore is the read side the handlers depend on.
type ResultStore interface {
	Available(job string) bool
	LoadFiltered(job, keyField, value string) ([]results.Row, error)
}

// NewApp builds the fiber application with all routes registered.
func NewApp(store ResultStore, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-mapreduce-api",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				code = fiberErr.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", healthHandler(store))
	app.Get("/temperature-analysis", analysisHandler(store, log, "temperature_analysis", "climate_zone", "climate_zone"))
	app.Get("/precipitation-analysis", analysisHandler(store, log, "precipitation_analysis", "country", "country"))
	app.Get("/extreme-weather", analysisHandler(store, log, "extreme_weather", "location", "location_id"))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

// healthHandler reports ok only when every job has published its results.
// Missing part files degrade the report but the service stays up, so the
// status code is 200 either way.
func healthHandler(store ResultStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var missing []string
		for _, job := range jobs {
			if !store.Available(job) {
				missing = append(missing, job)
			}
		}
		if len(missing) > 0 {
			return c.JSON(fiber.Map{"status": "degraded", "missing": missing})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

// filterQuery bounds the single optional filter parameter each analysis
// endpoint accepts.
type filterQuery struct {
	Value string `validate:"omitempty,max=128"`
}

// analysisHandler serves one job's aggregates, optionally filtered by the
// query parameter queryParam matched against the row field keyField. A job
// that has not run yet yields an empty list, never an error.
func analysisHandler(store ResultStore, log *slog.Logger, job, queryParam, keyField string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := filterQuery{Value: c.Query(queryParam)}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid "+queryParam+" parameter")
		}

		rows, err := store.LoadFiltered(job, keyField, q.Value)
		if err != nil {
			if errors.Is(err, results.ErrNotProduced) {
				return c.JSON([]results.Row{})
			}
			log.Error("loading job results failed", "job", job, "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load "+job+" results")
		}
		if rows == nil {
			rows = []results.Row{}
		}

		return c.JSON(rows)
	}
}
