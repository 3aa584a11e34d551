package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// ToggleHeart flips the caller's heart on a spot and returns the full
// set of hearted spot ids afterwards.
func (h *SpotHandler) ToggleHeart(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	spotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid spot id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hearts, err := h.Hearts.Toggle(ctx, uid, spotID)
	if err != nil {
		return errStatus(c, err, "toggle heart failed")
	}
	return c.JSON(http.StatusOK, echo.Map{"hearts": hearts})
}

// HeartedSpots lists the spots the caller has hearted.
func (h *SpotHandler) HeartedSpots(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	spots, err := h.Spots.ListHearted(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list hearted spots failed"})
	}
	resp := make([]spotResp, 0, len(spots))
	for _, s := range spots {
		resp = append(resp, toSpotResp(s, nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"spots": resp})
}
