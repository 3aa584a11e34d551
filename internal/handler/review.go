package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/spotatlas/spot-directory/internal/model"
	"github.com/spotatlas/spot-directory/internal/repository"
)

type reviewReq struct {
	Text   string `json:"text"`
	Rating uint8  `json:"rating"`
}

// CreateReview attaches a review to a spot. Text and a 1..5 rating are
// both required; nothing stops an author reviewing their own spot.
func (h *SpotHandler) CreateReview(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	spotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid spot id"})
	}

	var req reviewReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "your review must have text"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	rev := model.Review{
		AuthorID: uid,
		SpotID:   spotID,
		Text:     strings.TrimSpace(req.Text),
		Rating:   req.Rating,
	}
	if err := h.Reviews.Create(ctx, &rev); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "spot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save review failed"})
	}

	if author, err := h.Users.GetByID(ctx, uid); err == nil {
		rev.AuthorName, rev.AuthorEmail = author.Name, author.Email
	}
	return c.JSON(http.StatusCreated, toReviewResp(rev))
}
