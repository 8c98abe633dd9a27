package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jmehdipour/installbase-sync/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func parsePage(c echo.Context) (limit, offset int) {
	limit, offset = 50, 0
	if v := c.QueryParam("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	if v := c.QueryParam("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func listCyclesHandler(history repository.HistoryRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset := parsePage(c)

		cycles, err := history.ListCycles(c.Request().Context(), limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list cycles failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(cycles),
			"results": cycles,
		})
	}
}

func listFailuresHandler(history repository.HistoryRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		limit, offset := parsePage(c)
		cycleID := strings.TrimSpace(c.QueryParam("cycle_id"))

		failures, err := history.ListFailures(c.Request().Context(), cycleID, limit, offset)
		if err != nil {
			log.Errorf("clickhouse list failures failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(failures),
			"results": failures,
		})
	}
}
