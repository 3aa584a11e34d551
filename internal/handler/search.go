package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Search runs the relevance-ordered text search over spot names and
// descriptions. A blank query returns an empty list rather than every
// spot.
func (h *SpotHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return c.JSON(http.StatusOK, []any{})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	spots, err := h.Spots.TextSearch(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
	}
	resp := make([]spotResp, 0, len(spots))
	for _, s := range spots {
		resp = append(resp, toSpotResp(s, nil))
	}
	return c.JSON(http.StatusOK, resp)
}

// Near returns the spots closest to a coordinate pair, nearest first.
func (h *SpotHandler) Near(c echo.Context) error {
	lng, errLng := strconv.ParseFloat(c.QueryParam("lng"), 64)
	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if errLng != nil || errLat != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lng and lat query params are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rows, err := h.Spots.Near(ctx, lng, lat)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "near search failed"})
	}
	return c.JSON(http.StatusOK, rows)
}
