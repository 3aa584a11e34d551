package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/spotatlas/spot-directory/internal/model"
	"github.com/spotatlas/spot-directory/internal/repository"
	"github.com/spotatlas/spot-directory/internal/utils"
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims arrive as float64; older middleware may store strings.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// ----- shared response shapes -----

// locationPart mirrors the stored geo point: a GeoJSON-style type tag,
// [lng, lat] coordinates and the free-text address.
type locationPart struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address"`
}

type authorPart struct {
	Name     string `json:"name"`
	Gravatar string `json:"gravatar"`
}

type reviewResp struct {
	ID      uint64     `json:"id"`
	Text    string     `json:"text"`
	Rating  uint8      `json:"rating"`
	Created time.Time  `json:"created"`
	Author  authorPart `json:"author"`
}

type spotResp struct {
	ID          uint64       `json:"id"`
	Name        string       `json:"name"`
	Slug        string       `json:"slug"`
	Description string       `json:"description"`
	Tags        []string     `json:"tags"`
	Location    locationPart `json:"location"`
	Photo       *string      `json:"photo"`
	Created     time.Time    `json:"created"`
	Author      *authorPart  `json:"author,omitempty"`
	Reviews     []reviewResp `json:"reviews,omitempty"`
}

func toReviewResp(r model.Review) reviewResp {
	return reviewResp{
		ID:      r.ID,
		Text:    r.Text,
		Rating:  r.Rating,
		Created: r.CreatedAt,
		Author: authorPart{
			Name:     r.AuthorName,
			Gravatar: utils.Gravatar(r.AuthorEmail),
		},
	}
}

func toSpotResp(s model.Spot, reviews []model.Review) spotResp {
	resp := spotResp{
		ID:          s.ID,
		Name:        s.Name,
		Slug:        s.Slug,
		Description: s.Description,
		Tags:        s.Tags,
		Location: locationPart{
			Type:        "Point",
			Coordinates: [2]float64{s.Lng, s.Lat},
			Address:     s.Address,
		},
		Photo:   s.Photo,
		Created: s.CreatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	for _, r := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResp(r))
	}
	return resp
}

// errStatus maps repository sentinel errors to HTTP responses; unexpected
// errors become a generic 500 without leaking internal detail.
func errStatus(c echo.Context, err error, generic string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you must have added the spot in order to edit it"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": generic})
	}
}
