package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/vostoksystem/station-meteo/internal/dashboard"
	"github.com/vostoksystem/station-meteo/internal/weather"
)

var validate = validator.New()

// SeriesResolver is the resolver operation the API exposes.
type SeriesResolver interface {
	Resolve(ctx context.Context, datasetID string, maxItem int, filters []weather.Filter) ([]weather.Sample, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, resolver SeriesResolver, tabs *dashboard.Tabs) {
	v1 := app.Group("/api/v1")

	v1.Get("/graphs", func(c *fiber.Ctx) error {
		return c.JSON(tabs.Graphs())
	})

	v1.Get("/datasets/:id/series", func(c *fiber.Ctx) error {
		var req seriesQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		filters := weather.DateRangeFilters(req.Range.Start, req.Range.End)
		samples, err := resolver.Resolve(c.UserContext(), req.Dataset, req.Max, filters)
		if err != nil {
			return resolveError(err)
		}

		ids := make([]string, 0, len(filters))
		for _, f := range filters {
			ids = append(ids, f.ID)
		}
		return c.JSON(fiber.Map{
			"dataset": req.Dataset,
			"max":     req.Max,
			"filters": ids,
			"samples": samples,
		})
	})

	v1.Get("/datasets/:id/summary", func(c *fiber.Ctx) error {
		var req seriesQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		samples, err := resolver.Resolve(c.UserContext(), req.Dataset, 0, weather.DateRangeFilters(req.Range.Start, req.Range.End))
		if err != nil {
			return resolveError(err)
		}
		summary, err := weather.Summarize(samples)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to summarize series")
		}
		return c.JSON(fiber.Map{
			"dataset": req.Dataset,
			"summary": summary,
		})
	})

	v1.Get("/preferences/tab", func(c *fiber.Ctx) error {
		g, ok := tabs.Selected()
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no graph configured")
		}
		return c.JSON(g)
	})

	v1.Put("/preferences/tab", func(c *fiber.Ctx) error {
		var body tabSelection
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		g, err := tabs.Select(body.Key)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return c.JSON(g)
	})
}

func resolveError(err error) error {
	if errors.Is(err, weather.ErrUnknownDataset) {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to resolve dataset")
}

type tabSelection struct {
	Key string `json:"key" validate:"required"`
}

// dateRange holds the optional date bounds of a query.
type dateRange struct {
	Start time.Time
	End   time.Time `validate:"gtefield=Start"`
}

// seriesQuery holds path and query parameters of the dataset endpoints.
type seriesQuery struct {
	Dataset string `validate:"required"`
	Max     int    `validate:"gte=0,lte=100000"`
	Range   dateRange
}

func (q *seriesQuery) bind(c *fiber.Ctx) error {
	q.Dataset = c.Params("id")

	if maxStr := c.Query("max"); maxStr != "" {
		n, err := strconv.Atoi(maxStr)
		if err != nil {
			return errors.New("max must be an integer")
		}
		q.Max = n
	}

	var err error
	if q.Range.Start, err = parseDay(c.Query("start")); err != nil {
		return err
	}
	if q.Range.End, err = parseDay(c.Query("end")); err != nil {
		return err
	}

	if err := validate.StructExcept(q, "Range"); err != nil {
		return err
	}
	// Open-ended ranges need no ordering check.
	if !q.Range.Start.IsZero() && !q.Range.End.IsZero() {
		if err := validate.Struct(q.Range); err != nil {
			return errors.New("end must not be before start")
		}
	}
	return nil
}

// parseDay parses a YYYY-MM-DD date; the empty string is the zero time.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	ts, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return time.Time{}, errors.New("invalid date format; use YYYY-MM-DD")
	}
	return ts, nil
}
